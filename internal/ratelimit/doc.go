// Package ratelimit paces outbound historical-data requests against
// per-interval budgets.
//
// Each tracked interval id gets its own sliding window: at most MaxRequests
// requests per ResetInterval, plus a minimum pause between consecutive
// requests for that interval. Acquire blocks until both constraints are
// satisfied; quota is consumed at issuance, so a request that later fails
// upstream has still spent its slot.
package ratelimit
