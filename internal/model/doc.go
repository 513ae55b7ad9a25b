// Package model defines shared data types used across the market-data service.
//
// Conventions:
//   - Prices and volumes: float64 in the quote currency, as delivered upstream
//   - Timestamps: time.Time (the upstream wire format is milliseconds since epoch)
//   - IDs: string for symbols, uuid.UUID for orders and trades
package model
