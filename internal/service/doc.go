// Package service is the consumer-facing surface of the market-data layer.
//
// A Service composes the upstream REST client, the TTL cache, and the
// streaming session behind one explicitly constructed, dependency-injected
// object. Reads go through the cache; order mutations invalidate the
// categories they affect; live stream updates keep the cached market view
// current between polls.
package service
