// Package audio provides audio processing utilities.
//
// RingBuffer implements a fixed-capacity circular FIFO shared between the
// ingest worker and the audio device callback.
//
// Main features:
//   - Fixed capacity decided at construction, storage allocated once
//   - Thread-safe read/write operations with short, bounded critical sections
//   - Writes never overwrite unread data; a short write count signals backpressure
//   - Empty reads return immediately with no data
//
// Usage:
//
//	rb := NewRingBuffer[float32](SamplesFor(16000, 30*time.Second))
//	n := rb.Write(samples)
//	v, ok := rb.Read()
package audio

import (
	"sync"
	"time"
)

// RingBuffer is a fixed-capacity circular buffer of values of type T.
//
// Empty and full both have readPos == writePos; count tells them apart.
type RingBuffer[T any] struct {
	data     []T
	capacity int
	readPos  int // next read position
	writePos int // next write position
	count    int // unread values
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer holding at most capacity values.
// It panics if capacity is not positive.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic("audio: ring buffer capacity must be positive")
	}

	return &RingBuffer[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// SamplesFor returns the number of mono samples in d at sampleRate.
// Whole seconds and the remainder are scaled separately so that long
// durations do not overflow.
func SamplesFor(sampleRate int, d time.Duration) int {
	secs := int64(d / time.Second)
	rem := int64(d % time.Second)
	return int(secs*int64(sampleRate) + rem*int64(sampleRate)/int64(time.Second))
}

// Write appends the longest prefix of values that fits and returns its length.
// A result smaller than len(values) means the buffer filled up; the rest is
// left to the caller.
func (rb *RingBuffer[T]) Write(values []T) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(values)
	if free := rb.capacity - rb.count; n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	// Calculate how much space is available before wrap
	spaceToEnd := rb.capacity - rb.writePos
	if n <= spaceToEnd {
		copy(rb.data[rb.writePos:], values[:n])
	} else {
		copy(rb.data[rb.writePos:], values[:spaceToEnd])
		copy(rb.data, values[spaceToEnd:n])
	}

	rb.writePos = (rb.writePos + n) % rb.capacity
	rb.count += n
	return n
}

// Read removes and returns the oldest value. ok is false when the buffer is empty.
func (rb *RingBuffer[T]) Read() (v T, ok bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return v, false
	}

	v = rb.data[rb.readPos]
	rb.readPos++
	if rb.readPos == rb.capacity {
		rb.readPos = 0
	}
	rb.count--
	return v, true
}

// ReadInto moves up to len(dst) of the oldest values into dst and returns how
// many were moved. It is equivalent to calling Read len(dst) times but takes
// the lock once and does not allocate.
func (rb *RingBuffer[T]) ReadInto(dst []T) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(dst)
	if n > rb.count {
		n = rb.count
	}
	if n == 0 {
		return 0
	}

	firstPartLen := rb.capacity - rb.readPos
	if n <= firstPartLen {
		copy(dst, rb.data[rb.readPos:rb.readPos+n])
	} else {
		copy(dst, rb.data[rb.readPos:])
		copy(dst[firstPartLen:n], rb.data)
	}

	rb.readPos = (rb.readPos + n) % rb.capacity
	rb.count -= n
	return n
}

// AvailableToRead returns the number of unread values.
func (rb *RingBuffer[T]) AvailableToRead() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// AvailableToWrite returns the number of values that can be written before
// the buffer is full.
func (rb *RingBuffer[T]) AvailableToWrite() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.capacity - rb.count
}

// Reset empties the buffer. The underlying storage is kept.
func (rb *RingBuffer[T]) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
}

// Capacity returns the total capacity of the buffer.
func (rb *RingBuffer[T]) Capacity() int {
	return rb.capacity
}
