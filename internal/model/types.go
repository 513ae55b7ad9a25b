package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// PricePoint is a single raw price sample from the upstream chart endpoint.
type PricePoint struct {
	Time  time.Time // Sample timestamp
	Price float64   // Price in quote currency
}

// VolumePoint is a single raw volume sample from the upstream chart endpoint.
type VolumePoint struct {
	Time   time.Time // Sample timestamp
	Volume float64   // Traded volume in quote currency
}

// Candle is an OHLCV summary of price activity over one fixed time bucket.
// Immutable once produced; a candle exists only for buckets that contained
// at least one price sample.
type Candle struct {
	Time   time.Time // Bucket open (inclusive); bucket covers [Time, Time+width)
	Open   float64   // Price of the earliest sample in the bucket
	High   float64   // Max price over the bucket
	Low    float64   // Min price over the bucket
	Close  float64   // Price of the latest sample in the bucket
	Volume float64   // Volume sample nearest the bucket end, 0 if none
}

// -----------------------------------------------------------------------------
// Trading Types
// -----------------------------------------------------------------------------

// MarketData is the current market snapshot for a single symbol.
type MarketData struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change_24h"`
	Volume24h float64   `json:"volume_24h"`
	High24h   float64   `json:"high_24h"`
	Low24h    float64   `json:"low_24h"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Trade is an executed trade reported by the backend.
type Trade struct {
	ID         uuid.UUID `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"` // "buy" or "sell"
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	ExecutedAt time.Time `json:"executed_at"`
}

// OrderRequest is a new order submitted through the service.
type OrderRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Type     string  `json:"type"` // "market" or "limit"
	Price    float64 `json:"price,omitempty"`
	Quantity float64 `json:"quantity"`
}

// Order is the backend's view of a submitted order.
type Order struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Status    string    `json:"status"` // "open", "filled", "cancelled", "rejected"
	CreatedAt time.Time `json:"created_at"`
}

// PortfolioMetrics summarizes the account's holdings.
type PortfolioMetrics struct {
	TotalValue    float64            `json:"total_value"`
	CashBalance   float64            `json:"cash_balance"`
	UnrealizedPnL float64            `json:"unrealized_pnl"`
	RealizedPnL   float64            `json:"realized_pnl"`
	Positions     map[string]float64 `json:"positions"` // symbol → quantity
	UpdatedAt     time.Time          `json:"updated_at"`
}

// RiskMetrics summarizes current risk exposure.
type RiskMetrics struct {
	MaxDrawdown   float64   `json:"max_drawdown"`
	SharpeRatio   float64   `json:"sharpe_ratio"`
	ValueAtRisk   float64   `json:"value_at_risk"`
	ExposureRatio float64   `json:"exposure_ratio"`
	UpdatedAt     time.Time `json:"updated_at"`
}
