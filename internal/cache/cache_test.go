package cache

import (
	"context"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		TTLs: map[Category]time.Duration{
			CategoryMarketData: 50 * time.Millisecond,
			CategoryTrades:     time.Minute,
		},
		DefaultTTL: time.Minute,
	}
}

func TestStore_SetGet(t *testing.T) {
	s := NewStore(testConfig(), nil)

	params := map[string]string{"symbol": "BTC", "vs": "usd"}
	s.Set(CategoryMarketData, params, "payload")

	got, ok := s.Get(CategoryMarketData, params)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "payload" {
		t.Errorf("Get = %v, want payload", got)
	}
}

func TestStore_KeyDeterminism(t *testing.T) {
	// Two separately constructed but equal params must collide on one entry.
	a := map[string]string{"symbol": "ETH", "vs": "usd"}
	b := map[string]string{"vs": "usd", "symbol": "ETH"}

	if Key(CategoryMarketData, a) != Key(CategoryMarketData, b) {
		t.Errorf("keys differ for equal params: %q vs %q",
			Key(CategoryMarketData, a), Key(CategoryMarketData, b))
	}

	s := NewStore(testConfig(), nil)
	s.Set(CategoryMarketData, a, 1)
	s.Set(CategoryMarketData, b, 2)

	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1 (equal params must overwrite)", s.Len())
	}
}

func TestStore_CategoriesDoNotCollide(t *testing.T) {
	s := NewStore(testConfig(), nil)

	s.Set(CategoryTrades, "x", "trades")
	s.Set(CategoryPortfolio, "x", "portfolio")

	got, ok := s.Get(CategoryTrades, "x")
	if !ok || got != "trades" {
		t.Errorf("Get(trades) = %v, %v", got, ok)
	}
	got, ok = s.Get(CategoryPortfolio, "x")
	if !ok || got != "portfolio" {
		t.Errorf("Get(portfolio) = %v, %v", got, ok)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(testConfig(), nil)

	s.Set(CategoryMarketData, "k", "v") // 50ms TTL

	if _, ok := s.Get(CategoryMarketData, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := s.Get(CategoryMarketData, "k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
	// Lazy eviction removed the entry.
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after eviction", s.Len())
	}
}

func TestStore_SetResetsCreatedAt(t *testing.T) {
	s := NewStore(testConfig(), nil)

	s.Set(CategoryMarketData, "k", "old")
	time.Sleep(30 * time.Millisecond)
	s.Set(CategoryMarketData, "k", "new") // resets the 50ms clock
	time.Sleep(30 * time.Millisecond)

	got, ok := s.Get(CategoryMarketData, "k")
	if !ok {
		t.Fatal("expected hit: overwrite must reset createdAt")
	}
	if got != "new" {
		t.Errorf("Get = %v, want new", got)
	}
}

func TestStore_Invalidate(t *testing.T) {
	s := NewStore(testConfig(), nil)

	s.Set(CategoryTrades, "a", 1)
	s.Set(CategoryTrades, "b", 2)
	s.Set(CategoryPortfolio, "a", 3)

	s.Invalidate(CategoryTrades, "a")
	if _, ok := s.Get(CategoryTrades, "a"); ok {
		t.Error("trades/a should be gone")
	}
	if _, ok := s.Get(CategoryTrades, "b"); !ok {
		t.Error("trades/b should survive single-key invalidation")
	}

	s.InvalidateCategory(CategoryTrades)
	if _, ok := s.Get(CategoryTrades, "b"); ok {
		t.Error("trades/b should be gone after category invalidation")
	}
	if _, ok := s.Get(CategoryPortfolio, "a"); !ok {
		t.Error("portfolio/a should survive trades invalidation")
	}

	s.InvalidateAll()
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after InvalidateAll", s.Len())
	}
}

func TestStore_Sweeper(t *testing.T) {
	cfg := testConfig()
	cfg.SweepInterval = 20 * time.Millisecond
	s := NewStore(cfg, nil)

	s.Set(CategoryMarketData, "k", "v") // 50ms TTL

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(120 * time.Millisecond)

	// Sweeper should have evicted the entry without any Get.
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after sweep", s.Len())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestStore_TTLFallback(t *testing.T) {
	s := NewStore(testConfig(), nil)

	if got := s.TTL(CategoryRisk); got != time.Minute {
		t.Errorf("TTL(risk) = %v, want default %v", got, time.Minute)
	}
	if got := s.TTL(CategoryMarketData); got != 50*time.Millisecond {
		t.Errorf("TTL(market_data) = %v, want 50ms", got)
	}
}
