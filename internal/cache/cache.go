package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Category names a class of cached objects with its own default TTL.
type Category string

const (
	CategoryMarketData Category = "market_data"
	CategoryTrades     Category = "trades"
	CategoryPortfolio  Category = "portfolio"
	CategoryRisk       Category = "risk"
)

// Config holds cache settings.
type Config struct {
	TTLs          map[Category]time.Duration // Per-category default TTLs
	DefaultTTL    time.Duration              // Fallback for unlisted categories
	SweepInterval time.Duration              // 0 disables the background sweeper
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TTLs: map[Category]time.Duration{
			CategoryMarketData: 30 * time.Second,
			CategoryTrades:     time.Minute,
			CategoryPortfolio:  30 * time.Second,
			CategoryRisk:       time.Minute,
		},
		DefaultTTL:    time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}

// entry is one cached value. Valid iff now - createdAt < ttl.
type entry struct {
	data      any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// Stats contains cache counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Store is a thread-safe key→value store with per-category expiration.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry

	hits      int64
	misses    int64
	evictions int64

	// Sweeper lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a new Store.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}
	return &Store{
		cfg:     cfg,
		logger:  logger,
		entries: make(map[string]entry),
	}
}

// TTL returns the default TTL for a category.
func (s *Store) TTL(category Category) time.Duration {
	if d, ok := s.cfg.TTLs[category]; ok && d > 0 {
		return d
	}
	return s.cfg.DefaultTTL
}

// Get returns the cached value for (category, params), or false when no
// entry exists or the entry has expired. Expired entries are evicted.
func (s *Store) Get(category Category, params any) (any, bool) {
	k := Key(category, params)
	now := time.Now()

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		s.misses++
		s.mu.Unlock()
		return nil, false
	}

	if e.expired(now) {
		s.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have refreshed it.
		if cur, ok := s.entries[k]; ok && cur.expired(now) {
			delete(s.entries, k)
			s.evictions++
		}
		s.misses++
		s.mu.Unlock()
		return nil, false
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return e.data, true
}

// Set stores data under (category, params) with the category's default TTL,
// overwriting any existing entry and resetting its creation time.
func (s *Store) Set(category Category, params, data any) {
	s.SetWithTTL(category, params, data, s.TTL(category))
}

// SetWithTTL stores data with an explicit TTL override.
func (s *Store) SetWithTTL(category Category, params, data any, ttl time.Duration) {
	k := Key(category, params)

	s.mu.Lock()
	s.entries[k] = entry{
		data:      data,
		createdAt: time.Now(),
		ttl:       ttl,
	}
	s.mu.Unlock()
}

// Invalidate removes the single entry matching (category, params).
func (s *Store) Invalidate(category Category, params any) {
	k := Key(category, params)

	s.mu.Lock()
	delete(s.entries, k)
	s.mu.Unlock()
}

// InvalidateCategory removes every entry of the given category.
func (s *Store) InvalidateCategory(category Category) {
	prefix := string(category) + ":"

	s.mu.Lock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
}

// InvalidateAll clears the store.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Entries:   len(s.entries),
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
}

// Start launches the background sweeper when SweepInterval is set.
func (s *Store) Start(ctx context.Context) error {
	if s.cfg.SweepInterval <= 0 {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.sweepLoop()

	s.logger.Debug("cache sweeper started", "interval", s.cfg.SweepInterval)
	return nil
}

// Stop shuts down the sweeper.
func (s *Store) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sweepLoop periodically evicts expired entries.
func (s *Store) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep evicts all expired entries in one pass.
func (s *Store) sweep() {
	now := time.Now()
	evicted := 0

	s.mu.Lock()
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			s.evictions++
			evicted++
		}
	}
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Debug("cache sweep", "evicted", evicted)
	}
}
