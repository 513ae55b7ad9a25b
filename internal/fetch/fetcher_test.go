package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cryptodash/marketdata/internal/cache"
	"github.com/cryptodash/marketdata/internal/config"
	"github.com/cryptodash/marketdata/internal/ratelimit"
	"github.com/cryptodash/marketdata/internal/upstream"
)

func chartServer(t *testing.T, calls *atomic.Int32, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		resp := map[string]any{
			"prices": [][2]float64{
				{0, 10}, // 0:00
				{600_000, 12},
				{3_000_000, 11}, // 0:50
				{3_900_000, 9},  // 1:05
			},
			"total_volumes": [][2]float64{{3_000_000, 500}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func testInterval() config.IntervalConfig {
	return config.IntervalConfig{ID: "1h", MinPause: 0, Bucket: time.Hour}
}

func newFetcher(source ChartSource, limCfg ratelimit.Config) (*Fetcher, *cache.Store) {
	store := cache.NewStore(cache.Config{
		TTLs:       map[cache.Category]time.Duration{cache.CategoryMarketData: time.Minute},
		DefaultTTL: time.Minute,
	}, nil)
	return New(ratelimit.New(limCfg, nil), source, store, nil), store
}

func TestFetcher_AggregatesChart(t *testing.T) {
	var calls atomic.Int32
	server := chartServer(t, &calls, 0)
	defer server.Close()

	f, _ := newFetcher(upstream.NewClient(server.URL), ratelimit.DefaultConfig())

	candles, err := f.FetchInterval(context.Background(), testInterval(), upstream.ChartRequest{
		CoinID: "bitcoin", VsCurrency: "usd", Days: 1,
	})
	if err != nil {
		t.Fatalf("FetchInterval failed: %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("len(candles) = %d, want 2", len(candles))
	}
	first := candles[0]
	if first.Open != 10 || first.High != 12 || first.Low != 10 || first.Close != 11 {
		t.Errorf("first OHLC = %v/%v/%v/%v, want 10/12/10/11",
			first.Open, first.High, first.Low, first.Close)
	}
	if first.Volume != 500 {
		t.Errorf("first.Volume = %v, want 500", first.Volume)
	}
	if candles[1].Open != 9 {
		t.Errorf("second.Open = %v, want 9", candles[1].Open)
	}
}

func TestFetcher_CacheHit(t *testing.T) {
	var calls atomic.Int32
	server := chartServer(t, &calls, 0)
	defer server.Close()

	f, _ := newFetcher(upstream.NewClient(server.URL), ratelimit.DefaultConfig())
	ctx := context.Background()
	req := upstream.ChartRequest{CoinID: "bitcoin", VsCurrency: "usd", Days: 1}

	if _, err := f.FetchInterval(ctx, testInterval(), req); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := f.FetchInterval(ctx, testInterval(), req); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (second must hit cache)", got)
	}
	if got := f.Stats().CacheHits; got != 1 {
		t.Errorf("CacheHits = %d, want 1", got)
	}
}

func TestFetcher_DistinctParamsDistinctEntries(t *testing.T) {
	var calls atomic.Int32
	server := chartServer(t, &calls, 0)
	defer server.Close()

	f, _ := newFetcher(upstream.NewClient(server.URL), ratelimit.DefaultConfig())
	ctx := context.Background()

	if _, err := f.FetchInterval(ctx, testInterval(), upstream.ChartRequest{CoinID: "bitcoin", VsCurrency: "usd", Days: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.FetchInterval(ctx, testInterval(), upstream.ChartRequest{CoinID: "ethereum", VsCurrency: "usd", Days: 1}); err != nil {
		t.Fatal(err)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2 (different coins must not collide)", got)
	}
}

func TestFetcher_RateLimitsMisses(t *testing.T) {
	var calls atomic.Int32
	server := chartServer(t, &calls, 0)
	defer server.Close()

	f, _ := newFetcher(upstream.NewClient(server.URL),
		ratelimit.Config{MaxRequests: 2, ResetInterval: 250 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	// Three distinct requests on the same interval id: third must wait for
	// the window to reset.
	for days := 1; days <= 3; days++ {
		req := upstream.ChartRequest{CoinID: "bitcoin", VsCurrency: "usd", Days: days}
		if _, err := f.FetchInterval(ctx, testInterval(), req); err != nil {
			t.Fatalf("fetch days=%d failed: %v", days, err)
		}
	}

	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("3 fetches finished in %v, want >= 250ms", elapsed)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestFetcher_ErrorNotRetriedQuotaSpent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	limiter := ratelimit.New(ratelimit.DefaultConfig(), nil)
	store := cache.NewStore(cache.Config{DefaultTTL: time.Minute}, nil)
	f := New(limiter, upstream.NewClient(server.URL), store, nil)

	_, err := f.FetchInterval(context.Background(), testInterval(),
		upstream.ChartRequest{CoinID: "bitcoin", VsCurrency: "usd", Days: 1})
	if err == nil {
		t.Fatal("expected upstream error")
	}

	var apiErr *upstream.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error chain missing *upstream.APIError: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (no internal retry)", got)
	}
	// The failed call still consumed a slot.
	if got := limiter.Stats("1h").Count; got != 1 {
		t.Errorf("window count = %d, want 1 (failed call spends quota)", got)
	}
	if got := f.Stats().Errors; got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
}

func TestFetcher_ConcurrentIdenticalCollapsed(t *testing.T) {
	var calls atomic.Int32
	server := chartServer(t, &calls, 50*time.Millisecond)
	defer server.Close()

	f, _ := newFetcher(upstream.NewClient(server.URL), ratelimit.DefaultConfig())
	ctx := context.Background()
	req := upstream.ChartRequest{CoinID: "bitcoin", VsCurrency: "usd", Days: 1}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.FetchInterval(ctx, testInterval(), req); err != nil {
				t.Errorf("FetchInterval failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (identical in-flight fetches collapse)", got)
	}
}
