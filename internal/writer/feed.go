package writer

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/cryptodash/marketdata/internal/model"
	"github.com/cryptodash/marketdata/internal/stream"
)

// Feed routes decoded stream updates into the writer input buffers.
// Register its Handler with the stream session.
type Feed struct {
	trades *Buffer[model.Trade]
	ticks  *Buffer[model.MarketData]
	logger *slog.Logger

	decodeErrors atomic.Int64
	dropped      atomic.Int64
}

// NewFeed creates a Feed writing into the given buffers. Either buffer
// may be nil to skip that data type.
func NewFeed(trades *Buffer[model.Trade], ticks *Buffer[model.MarketData], logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		trades: trades,
		ticks:  ticks,
		logger: logger.With("component", "feed"),
	}
}

// Handler returns the stream subscriber that feeds the buffers.
func (f *Feed) Handler() stream.Handler {
	return func(u stream.Update) {
		switch u.Type {
		case stream.UpdateTrade:
			if f.trades == nil {
				return
			}
			var trade model.Trade
			if err := json.Unmarshal(u.Data, &trade); err != nil {
				f.decodeErrors.Add(1)
				f.logger.Warn("bad trade update", "error", err)
				return
			}
			if !f.trades.Send(trade) {
				f.dropped.Add(1)
			}

		case stream.UpdateMarketData:
			if f.ticks == nil {
				return
			}
			var md model.MarketData
			if err := json.Unmarshal(u.Data, &md); err != nil {
				f.decodeErrors.Add(1)
				f.logger.Warn("bad market data update", "error", err)
				return
			}
			if !f.ticks.Send(md) {
				f.dropped.Add(1)
			}
		}
	}
}

// FeedStats contains feed counters.
type FeedStats struct {
	DecodeErrors int64
	Dropped      int64
}

// Stats returns current counters.
func (f *Feed) Stats() FeedStats {
	return FeedStats{
		DecodeErrors: f.decodeErrors.Load(),
		Dropped:      f.dropped.Load(),
	}
}
