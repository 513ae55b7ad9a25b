// Package stream owns the persistent streaming connection to the trading
// backend and fans inbound updates out to subscribers.
//
// A Session wraps one WebSocket connection in a bounded-retry reconnection
// state machine: Disconnected → Connecting → Connected → Reconnecting →
// Connecting, with Failed as the terminal state once the retry budget is
// exhausted. Recovery from Failed requires an explicit Connect call by the
// host application.
//
// Inbound frames are parsed and delivered synchronously, in receipt order,
// against a snapshot of the subscriber registry; a subscriber that panics
// never blocks delivery to the rest, and a frame that fails to parse is
// logged and counted without tearing the session down.
package stream
