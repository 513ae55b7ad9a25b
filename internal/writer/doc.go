// Package writer persists live stream data to TimescaleDB.
//
// A Feed subscribes to the stream session and routes decoded updates into
// growable in-memory buffers; batch writers drain the buffers and insert
// rows with pgx batches. Inserts are append-only with ON CONFLICT DO
// NOTHING, so replays after a reconnect are harmless.
package writer
