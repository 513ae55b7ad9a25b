package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config holds the request budget shared by all tracked intervals.
type Config struct {
	MaxRequests   int           // Max requests per window, per interval id
	ResetInterval time.Duration // Window length
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRequests:   10,
		ResetInterval: time.Minute,
	}
}

// window is the bookkeeping for one interval id. Mutated only while its
// mutex is held, so the count/pause check-and-increment is atomic and
// same-interval callers are served in lock-acquisition order.
type window struct {
	mu            sync.Mutex
	count         int
	windowStart   time.Time
	lastRequestAt time.Time
}

// WindowStats is a read-only snapshot of one window.
type WindowStats struct {
	Count         int
	WindowStart   time.Time
	LastRequestAt time.Time
}

// Limiter enforces the request budget. One Limiter serves every interval;
// different interval ids never contend with each other.
type Limiter struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	windows map[string]*window
}

// New creates a new Limiter.
func New(cfg Config, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultConfig().MaxRequests
	}
	if cfg.ResetInterval <= 0 {
		cfg.ResetInterval = DefaultConfig().ResetInterval
	}
	return &Limiter{
		cfg:     cfg,
		logger:  logger,
		windows: make(map[string]*window),
	}
}

// Acquire blocks until a request for the given interval id may be issued,
// then consumes one slot. minPause is the interval-specific minimum gap
// between consecutive requests. Returns early with the context's error if
// the caller is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context, intervalID string, minPause time.Duration) error {
	w := l.window(intervalID)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	l.maybeReset(w, now)

	// Both constraints reduce to one wait: the later of the window-reset
	// deadline and the min-pause deadline.
	deadline := now
	if w.count >= l.cfg.MaxRequests {
		if d := w.windowStart.Add(l.cfg.ResetInterval); d.After(deadline) {
			deadline = d
		}
	}
	if !w.lastRequestAt.IsZero() && minPause > 0 {
		if d := w.lastRequestAt.Add(minPause); d.After(deadline) {
			deadline = d
		}
	}

	if wait := deadline.Sub(now); wait > 0 {
		l.logger.Debug("rate limit wait",
			"interval", intervalID,
			"wait", wait,
			"count", w.count,
		)

		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		l.maybeReset(w, time.Now())
	}

	w.count++
	w.lastRequestAt = time.Now()
	return nil
}

// Stats returns a snapshot of the window for an interval id.
func (l *Limiter) Stats(intervalID string) WindowStats {
	w := l.window(intervalID)

	w.mu.Lock()
	defer w.mu.Unlock()
	return WindowStats{
		Count:         w.count,
		WindowStart:   w.windowStart,
		LastRequestAt: w.lastRequestAt,
	}
}

// window returns the window for an interval id, creating it on first use.
func (l *Limiter) window(intervalID string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[intervalID]
	if !ok {
		w = &window{}
		l.windows[intervalID] = w
	}
	return w
}

// maybeReset starts a fresh window once the reset period has elapsed.
// Caller must hold w.mu.
func (l *Limiter) maybeReset(w *window, now time.Time) {
	if w.windowStart.IsZero() || now.Sub(w.windowStart) >= l.cfg.ResetInterval {
		w.count = 0
		w.windowStart = now
	}
}
