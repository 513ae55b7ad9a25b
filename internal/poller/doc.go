// Package poller periodically refreshes market snapshots for a fixed
// symbol list, keeping the cache warm between live stream updates and
// providing coverage when the stream is down.
package poller
