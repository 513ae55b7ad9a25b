// Package upstream provides the HTTP client for the trading backend.
//
// The backend is treated as an opaque JSON-over-HTTP endpoint: a market-chart
// endpoint for historical price/volume series, plus snapshot and trading
// endpoints. The client never retries on its own; retry policy belongs to
// callers, which keeps the fetcher's rate-limit bookkeeping honest.
package upstream
