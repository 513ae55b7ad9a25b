// Package cache implements a category-aware TTL cache used to shield the
// trading backend from redundant fetches.
//
// Every entry belongs to a category (market data, trades, portfolio, risk)
// with its own default TTL. Keys are a pure function of (category, params):
// identical arguments always collide on the same entry, so a Set followed by
// a Get with the same arguments is a hit until the TTL elapses.
//
// Expiration is lazy: Get evicts expired entries when it finds them. An
// optional background sweeper can be started to bound memory between reads.
package cache
