package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cryptodash/marketdata/internal/model"
)

// Source provides the current snapshot for one symbol.
type Source interface {
	MarketData(ctx context.Context, symbol string) (*model.MarketData, error)
}

// Handler receives refreshed snapshots.
type Handler func(*model.MarketData)

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 30s)
	Concurrency int           // Max concurrent requests (default: 8)
	Timeout     time.Duration // Per-request timeout (default: 10s)
	Symbols     []string      // Symbols to refresh
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Concurrency: 8,
		Timeout:     10 * time.Second,
	}
}

// Poller periodically refreshes snapshots for its symbol list.
type Poller struct {
	cfg     Config
	source  Source
	handler Handler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. handler may be nil.
func New(cfg Config, source Source, handler Handler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"symbols", len(p.cfg.Symbols),
	)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll refreshes all symbols concurrently, bounded by Concurrency.
func (p *Poller) pollAll() {
	if len(p.cfg.Symbols) == 0 {
		p.logger.Debug("no symbols to poll")
		return
	}

	start := time.Now()

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, errors atomic.Int64

	for _, symbol := range p.cfg.Symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			if err := p.pollSymbol(symbol); err != nil {
				p.logger.Warn("failed to poll symbol",
					"symbol", symbol,
					"err", err,
				)
				errors.Add(1)
				return
			}

			fetched.Add(1)
		}(symbol)
	}

	wg.Wait()

	p.logger.Info("poll cycle complete",
		"symbols", len(p.cfg.Symbols),
		"fetched", fetched.Load(),
		"errors", errors.Load(),
		"duration", time.Since(start),
	)
}

// pollSymbol refreshes one symbol's snapshot.
func (p *Poller) pollSymbol(symbol string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	md, err := p.source.MarketData(ctx, symbol)
	if err != nil {
		return err
	}

	if p.handler != nil {
		p.handler(md)
	}
	return nil
}
