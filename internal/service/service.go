package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cryptodash/marketdata/internal/cache"
	"github.com/cryptodash/marketdata/internal/model"
	"github.com/cryptodash/marketdata/internal/stream"
)

// Backend is the subset of the upstream REST client the service depends on.
type Backend interface {
	MarketData(ctx context.Context, symbol string) (*model.MarketData, error)
	TradeHistory(ctx context.Context) ([]model.Trade, error)
	PortfolioMetrics(ctx context.Context) (*model.PortfolioMetrics, error)
	RiskMetrics(ctx context.Context) (*model.RiskMetrics, error)
	PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) error
}

// Streamer is the subset of the stream session the service depends on.
type Streamer interface {
	Subscribe(fn stream.Handler) (unsubscribe func())
	State() stream.State
}

// Health labels the service's ability to serve fresh data.
type Health string

const (
	HealthOnline  Health = "online"
	HealthOffline Health = "offline"
	HealthUnknown Health = "unknown"
)

// Status is a point-in-time view of service health.
type Status struct {
	Health       Health
	StreamState  stream.State
	LastUpdateAt time.Time // Zero until the first stream update arrives
}

// symbolParams is the cache key payload for per-symbol reads.
type symbolParams struct {
	Symbol string `json:"symbol"`
}

// Service is the consumer API over the backend, cache, and stream session.
type Service struct {
	backend Backend
	store   *cache.Store
	session Streamer
	logger  *slog.Logger

	mu           sync.RWMutex
	lastUpdateAt time.Time

	unsub func()
}

// New creates a Service. The session may be nil for poll-only use; Status
// then reports HealthUnknown.
func New(backend Backend, store *cache.Store, session Streamer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: backend,
		store:   store,
		session: session,
		logger:  logger.With("component", "service"),
	}
}

// Start registers the internal stream subscriber that keeps the cache
// coherent with live updates.
func (s *Service) Start(ctx context.Context) error {
	if s.session != nil {
		s.unsub = s.session.Subscribe(s.onUpdate)
	}
	return nil
}

// Stop removes the internal subscriber.
func (s *Service) Stop(ctx context.Context) error {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	return nil
}

// MarketData returns the current snapshot for a symbol, cached per symbol.
func (s *Service) MarketData(ctx context.Context, symbol string) (*model.MarketData, error) {
	params := symbolParams{Symbol: symbol}

	if v, ok := s.store.Get(cache.CategoryMarketData, params); ok {
		return v.(*model.MarketData), nil
	}

	md, err := s.backend.MarketData(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("market data %s: %w", symbol, err)
	}

	s.store.Set(cache.CategoryMarketData, params, md)
	return md, nil
}

// TradeHistory returns the account's executed trades.
func (s *Service) TradeHistory(ctx context.Context) ([]model.Trade, error) {
	if v, ok := s.store.Get(cache.CategoryTrades, nil); ok {
		return v.([]model.Trade), nil
	}

	trades, err := s.backend.TradeHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("trade history: %w", err)
	}

	s.store.Set(cache.CategoryTrades, nil, trades)
	return trades, nil
}

// PortfolioMetrics returns the current portfolio summary.
func (s *Service) PortfolioMetrics(ctx context.Context) (*model.PortfolioMetrics, error) {
	if v, ok := s.store.Get(cache.CategoryPortfolio, nil); ok {
		return v.(*model.PortfolioMetrics), nil
	}

	pm, err := s.backend.PortfolioMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio metrics: %w", err)
	}

	s.store.Set(cache.CategoryPortfolio, nil, pm)
	return pm, nil
}

// RiskMetrics returns the current risk summary.
func (s *Service) RiskMetrics(ctx context.Context) (*model.RiskMetrics, error) {
	if v, ok := s.store.Get(cache.CategoryRisk, nil); ok {
		return v.(*model.RiskMetrics), nil
	}

	rm, err := s.backend.RiskMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("risk metrics: %w", err)
	}

	s.store.Set(cache.CategoryRisk, nil, rm)
	return rm, nil
}

// PlaceOrder submits a new order. On success the trades and portfolio
// caches are invalidated so the next read reflects the fill.
func (s *Service) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	order, err := s.backend.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.store.InvalidateCategory(cache.CategoryTrades)
	s.store.InvalidateCategory(cache.CategoryPortfolio)

	s.logger.Info("order placed",
		"id", order.ID,
		"symbol", order.Symbol,
		"side", order.Side,
	)
	return order, nil
}

// CancelOrder cancels an open order, invalidating the same categories as
// PlaceOrder.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.backend.CancelOrder(ctx, id); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	s.store.InvalidateCategory(cache.CategoryTrades)
	s.store.InvalidateCategory(cache.CategoryPortfolio)

	s.logger.Info("order cancelled", "id", id)
	return nil
}

// SubscribeToUpdates registers fn for live stream updates and returns its
// unsubscribe function.
func (s *Service) SubscribeToUpdates(fn stream.Handler) (unsubscribe func()) {
	if s.session == nil {
		return func() {}
	}
	return s.session.Subscribe(fn)
}

// Status reports service health from the stream session's state.
func (s *Service) Status() Status {
	s.mu.RLock()
	last := s.lastUpdateAt
	s.mu.RUnlock()

	if s.session == nil {
		return Status{Health: HealthUnknown, LastUpdateAt: last}
	}

	state := s.session.State()
	st := Status{StreamState: state, LastUpdateAt: last}

	switch state {
	case stream.StateConnected:
		st.Health = HealthOnline
	case stream.StateFailed, stream.StateDisconnected:
		st.Health = HealthOffline
	default:
		st.Health = HealthUnknown
	}
	return st
}

// onUpdate keeps the cache coherent with the live stream: market-data
// frames refresh the per-symbol snapshot in place, everything else
// invalidates the category it affects.
func (s *Service) onUpdate(u stream.Update) {
	s.mu.Lock()
	s.lastUpdateAt = u.ReceivedAt
	s.mu.Unlock()

	switch u.Type {
	case stream.UpdateMarketData:
		var md model.MarketData
		if err := json.Unmarshal(u.Data, &md); err != nil {
			s.logger.Warn("bad market data update", "error", err)
			return
		}
		if md.Symbol == "" {
			return
		}
		s.store.Set(cache.CategoryMarketData, symbolParams{Symbol: md.Symbol}, &md)

	case stream.UpdateTrade:
		s.store.InvalidateCategory(cache.CategoryTrades)

	case stream.UpdatePortfolio:
		s.store.InvalidateCategory(cache.CategoryPortfolio)

	case stream.UpdateRisk:
		s.store.InvalidateCategory(cache.CategoryRisk)
	}
}
