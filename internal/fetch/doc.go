// Package fetch implements the rate-limited historical-data fetcher.
//
// A fetch consults the TTL cache first; on a miss it takes a rate-limit slot
// for the requested interval, calls the upstream market-chart endpoint, folds
// the raw series into candles, and populates the cache. Upstream failures are
// returned to the caller unretried; the quota was spent the moment the
// request reached the network, and retry policy belongs to the caller.
//
// Identical concurrent misses are collapsed through singleflight so only one
// request per (interval, params) key is in flight at a time.
package fetch
