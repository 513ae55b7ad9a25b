package writer

import "time"

// Config holds batch writer settings.
type Config struct {
	BatchSize     int           // Flush when the pending batch reaches this size
	FlushInterval time.Duration // Flush at least this often
	BufferSize    int           // Initial input buffer capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
		BufferSize:    1024,
	}
}

// Metrics contains writer counters.
type Metrics struct {
	Inserts   int64 // Rows actually inserted
	Conflicts int64 // Rows skipped by ON CONFLICT
	Errors    int64 // Failed batch inserts
	Flushes   int64 // Completed flushes
}
