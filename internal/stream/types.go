package stream

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrAlreadyRunning  = errors.New("session already running")
)

// State is the session's connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed // Terminal: retry budget exhausted, external Connect required
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UpdateType identifies the payload kind of an inbound frame.
type UpdateType string

const (
	UpdateMarketData UpdateType = "MARKET_DATA"
	UpdateTrade      UpdateType = "TRADE_UPDATE"
	UpdatePortfolio  UpdateType = "PORTFOLIO_UPDATE"
	UpdateRisk       UpdateType = "RISK_UPDATE"
)

// knownType reports whether t is a recognized frame type.
func knownType(t UpdateType) bool {
	switch t {
	case UpdateMarketData, UpdateTrade, UpdatePortfolio, UpdateRisk:
		return true
	}
	return false
}

// envelope is the wire shape of an inbound frame.
type envelope struct {
	Type UpdateType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Update is a parsed inbound frame delivered to subscribers.
type Update struct {
	Type       UpdateType
	Data       json.RawMessage
	ReceivedAt time.Time
}

// Handler receives parsed updates. Called synchronously in receipt order;
// a slow handler delays delivery of subsequent frames.
type Handler func(Update)

// Frame wraps raw message bytes with the local receive timestamp.
type Frame struct {
	Data       []byte
	ReceivedAt time.Time
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Streaming endpoint URL
	APIKey       string        // Bearer token, empty for no auth
	PingTimeout  time.Duration // Max time without ping before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Frame channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// SessionConfig configures a Session.
type SessionConfig struct {
	URL                  string        // Streaming endpoint URL
	APIKey               string        // Bearer token, empty for no auth
	MaxReconnectAttempts int           // Consecutive failed dials before Failed
	ReconnectDelay       time.Duration // Fixed pause between attempts
	PingTimeout          time.Duration
	WriteTimeout         time.Duration
	BufferSize           int
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxReconnectAttempts: 5,
		ReconnectDelay:       5 * time.Second,
		PingTimeout:          60 * time.Second,
		WriteTimeout:         5 * time.Second,
		BufferSize:           1000,
	}
}

// SessionStats provides a snapshot of session counters.
type SessionStats struct {
	State       State
	Subscribers int
	Delivered   int64 // Frames dispatched to subscribers
	ParseErrors int64 // Malformed inbound frames
	Skipped     int64 // Frames with an unrecognized type
}
