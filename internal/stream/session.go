package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns one logical streaming connection and its reconnect state.
type Session struct {
	cfg    SessionConfig
	logger *slog.Logger

	// newClient builds the next connection attempt; replaceable in tests.
	newClient func() Client

	mu          sync.RWMutex
	state       State
	subs        map[uuid.UUID]Handler
	delivered   int64
	parseErrors int64
	skipped     int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a new Session. The session starts Disconnected;
// call Connect to begin.
func NewSession(cfg SessionConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultSessionConfig().MaxReconnectAttempts
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultSessionConfig().ReconnectDelay
	}

	s := &Session{
		cfg:    cfg,
		logger: logger,
		state:  StateDisconnected,
		subs:   make(map[uuid.UUID]Handler),
	}
	s.newClient = func() Client {
		return NewClient(ClientConfig{
			URL:          cfg.URL,
			APIKey:       cfg.APIKey,
			PingTimeout:  cfg.PingTimeout,
			WriteTimeout: cfg.WriteTimeout,
			BufferSize:   cfg.BufferSize,
		}, logger)
	}
	return s
}

// Connect starts the session's connection loop. Legal only from
// Disconnected or Failed; calling Connect on a Failed session is the
// externally triggered restart the state machine requires.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateDisconnected && s.state != StateFailed {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateConnecting
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	return nil
}

// Close stops the session and releases the connection.
func (s *Session) Close(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("session close timed out")
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats returns current counters.
func (s *Session) Stats() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionStats{
		State:       s.state,
		Subscribers: len(s.subs),
		Delivered:   s.delivered,
		ParseErrors: s.parseErrors,
		Skipped:     s.skipped,
	}
}

// Subscribe registers a handler for inbound updates and returns its
// unsubscribe function. Both are legal at any time, including from inside
// a delivery callback; removal takes effect no later than the next frame.
func (s *Session) Subscribe(fn Handler) (unsubscribe func()) {
	id := uuid.New()

	s.mu.Lock()
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// run is the connection loop: dial, consume until the connection drops,
// wait the fixed delay, dial again, up to the consecutive-failure budget.
func (s *Session) run() {
	defer s.wg.Done()

	attempts := 0

	for {
		s.setState(StateConnecting)

		client := s.newClient()
		if err := client.Connect(s.ctx); err != nil {
			attempts++
			s.logger.Warn("stream connect failed",
				"attempt", attempts,
				"max", s.cfg.MaxReconnectAttempts,
				"error", err,
			)

			if attempts >= s.cfg.MaxReconnectAttempts {
				s.setState(StateFailed)
				s.logger.Error("reconnect budget exhausted, session failed",
					"attempts", attempts,
				)
				return
			}

			s.setState(StateReconnecting)
			if !s.sleep(s.cfg.ReconnectDelay) {
				s.setState(StateDisconnected)
				return
			}
			continue
		}

		attempts = 0
		s.setState(StateConnected)
		s.logger.Info("stream connected", "url", s.cfg.URL)

		s.consume(client)

		// Release the old connection before any new dial so two live
		// connections can never deliver duplicates.
		client.Close()

		if s.ctx.Err() != nil {
			s.setState(StateDisconnected)
			return
		}

		s.setState(StateReconnecting)
		s.logger.Info("stream disconnected, reconnecting",
			"delay", s.cfg.ReconnectDelay,
		)
		if !s.sleep(s.cfg.ReconnectDelay) {
			s.setState(StateDisconnected)
			return
		}
	}
}

// consume reads frames from one connection until it errors, closes, or the
// session is stopped.
func (s *Session) consume(client Client) {
	for {
		select {
		case <-s.ctx.Done():
			return

		case err := <-client.Errors():
			s.logger.Warn("stream connection error", "error", err)
			return

		case frame, ok := <-client.Frames():
			if !ok {
				return
			}
			s.dispatch(frame)
		}
	}
}

// dispatch parses one frame and delivers it to a snapshot of the current
// subscribers, in receipt order.
func (s *Session) dispatch(frame Frame) {
	var env envelope
	if err := json.Unmarshal(frame.Data, &env); err != nil {
		s.mu.Lock()
		s.parseErrors++
		s.mu.Unlock()
		s.logger.Warn("failed to parse stream frame", "error", err)
		return
	}

	if !knownType(env.Type) {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		s.logger.Debug("skipping frame type", "type", env.Type)
		return
	}

	update := Update{
		Type:       env.Type,
		Data:       env.Data,
		ReceivedAt: frame.ReceivedAt,
	}

	// Deliver against a snapshot: registrations and removals during this
	// pass affect the next frame, not this one.
	s.mu.RLock()
	handlers := make([]Handler, 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		s.deliver(h, update)
	}

	s.mu.Lock()
	s.delivered++
	s.mu.Unlock()
}

// deliver invokes one handler, isolating its failures from the rest.
func (s *Session) deliver(h Handler, u Update) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked", "type", u.Type, "panic", r)
		}
	}()
	h(u)
}

// sleep waits d, returning false if the session was stopped first.
func (s *Session) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// setState records a lifecycle transition.
func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev != next {
		s.logger.Debug("session state", "from", prev, "to", next)
	}
}
