package writer

import "sync"

// Buffer is a thread-safe ring buffer that doubles its capacity when it
// reaches 70% full, so a slow database never backpressures the stream
// read loop.
type Buffer[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool

	totalIn     int64
	totalOut    int64
	resizeCount int
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer[T any](initialCapacity int) *Buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Buffer[T]{
		buf:      make([]T, initialCapacity),
		capacity: initialCapacity,
	}
}

// Send adds an item, growing the buffer first when at 70% capacity.
// Returns false if the buffer is closed.
func (b *Buffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	threshold := (b.capacity * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if b.count+1 >= threshold {
		b.grow()
	}

	b.buf[b.tail] = item
	b.tail = (b.tail + 1) % b.capacity
	b.count++
	b.totalIn++
	return true
}

// TryReceive removes one item without blocking. Returns false when empty.
func (b *Buffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.take(), true
}

// Drain removes up to max items (all of them when max <= 0). Returns nil
// when the buffer is empty.
func (b *Buffer[T]) Drain(max int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}

	n := b.count
	if max > 0 && max < n {
		n = max
	}

	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = b.take()
	}
	return out
}

// Close marks the buffer closed. Sends are rejected; drained reads of the
// remaining items still succeed.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Len returns the current number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current capacity.
func (b *Buffer[T]) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// BufferStats contains buffer counters.
type BufferStats struct {
	Count       int
	Capacity    int
	TotalIn     int64
	TotalOut    int64
	ResizeCount int
}

// Stats returns current counters.
func (b *Buffer[T]) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:       b.count,
		Capacity:    b.capacity,
		TotalIn:     b.totalIn,
		TotalOut:    b.totalOut,
		ResizeCount: b.resizeCount,
	}
}

// take removes the head item. Caller must hold the lock; count must be > 0.
func (b *Buffer[T]) take() T {
	item := b.buf[b.head]
	var zero T
	b.buf[b.head] = zero // Clear reference for GC
	b.head = (b.head + 1) % b.capacity
	b.count--
	b.totalOut++
	return item
}

// grow doubles the capacity. Caller must hold the lock.
func (b *Buffer[T]) grow() {
	newCapacity := b.capacity * 2
	newBuf := make([]T, newCapacity)

	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}

	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = newCapacity
	b.resizeCount++
}
