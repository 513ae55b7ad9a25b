package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cryptodash/marketdata/internal/cache"
	"github.com/cryptodash/marketdata/internal/candle"
	"github.com/cryptodash/marketdata/internal/config"
	"github.com/cryptodash/marketdata/internal/model"
	"github.com/cryptodash/marketdata/internal/ratelimit"
	"github.com/cryptodash/marketdata/internal/upstream"
)

// ChartSource provides historical price/volume series.
type ChartSource interface {
	MarketChart(ctx context.Context, req upstream.ChartRequest) (*upstream.ChartResponse, error)
}

// Stats contains fetcher counters.
type Stats struct {
	Fetches   int64 // Requests that reached the upstream
	CacheHits int64
	Errors    int64
}

// Fetcher issues historical-data requests against the upstream source,
// pacing them through the shared rate limiter.
type Fetcher struct {
	limiter *ratelimit.Limiter
	source  ChartSource
	store   *cache.Store
	logger  *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	stats Stats
}

// New creates a new Fetcher.
func New(limiter *ratelimit.Limiter, source ChartSource, store *cache.Store, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		limiter: limiter,
		source:  source,
		store:   store,
		logger:  logger,
	}
}

// chartParams is the deterministic cache key payload for a fetch.
type chartParams struct {
	IntervalID string                `json:"interval_id"`
	Request    upstream.ChartRequest `json:"request"`
}

// FetchInterval returns the candle series for one interval config. The
// result comes from the cache when fresh; otherwise a single upstream call
// is made under the interval's rate budget and the cache is repopulated.
func (f *Fetcher) FetchInterval(ctx context.Context, iv config.IntervalConfig, req upstream.ChartRequest) ([]model.Candle, error) {
	if req.Interval == "" {
		req.Interval = iv.APIInterval
	}
	params := chartParams{IntervalID: iv.ID, Request: req}

	if v, ok := f.store.Get(cache.CategoryMarketData, params); ok {
		f.count(func(s *Stats) { s.CacheHits++ })
		return v.([]model.Candle), nil
	}

	key := cache.Key(cache.CategoryMarketData, params)
	v, err, _ := f.group.Do(key, func() (any, error) {
		// Check again: another flight may have populated the cache while
		// this caller was queued on the singleflight key.
		if v, ok := f.store.Get(cache.CategoryMarketData, params); ok {
			f.count(func(s *Stats) { s.CacheHits++ })
			return v, nil
		}

		if err := f.limiter.Acquire(ctx, iv.ID, iv.MinPause); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		chart, err := f.source.MarketChart(ctx, req)
		f.count(func(s *Stats) { s.Fetches++ })
		if err != nil {
			f.count(func(s *Stats) { s.Errors++ })
			return nil, fmt.Errorf("fetch interval %s: %w", iv.ID, err)
		}

		candles := candle.Aggregate(chart.Prices, chart.Volumes, iv.Bucket)
		f.store.Set(cache.CategoryMarketData, params, candles)

		f.logger.Debug("fetched interval",
			"interval", iv.ID,
			"coin", req.CoinID,
			"samples", len(chart.Prices),
			"candles", len(candles),
		)

		return candles, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]model.Candle), nil
}

// Stats returns current counters.
func (f *Fetcher) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *Fetcher) count(update func(*Stats)) {
	f.mu.Lock()
	update(&f.stats)
	f.mu.Unlock()
}
