// Package ringbuffer implements a lock-free single-producer/single-consumer
// ring buffer of float32 samples, used to carry PCM audio between a native
// capture callback and the encode stage without crossing a lock.
package ringbuffer

import "sync/atomic"

// RingBuffer is safe for exactly one concurrent writer and one concurrent
// reader. Using it from more than one producer or more than one consumer is
// undefined behavior.
type RingBuffer struct {
	buf      []float32
	capacity int

	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New allocates a ring buffer with room for capacity-1 usable samples; one
// slot is permanently reserved to disambiguate full from empty.
func New(capacity int) *RingBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer{
		buf:      make([]float32, capacity),
		capacity: capacity,
	}
}

// Write copies as many samples from src as fit without overflowing, and
// returns the number actually written. It never blocks.
func (r *RingBuffer) Write(src []float32) int {
	writePos := r.writePos.Load()
	readPos := r.readPos.Load()

	space := r.availableWriteSpace(writePos, readPos)
	toWrite := len(src)
	if toWrite > space {
		toWrite = space
	}
	if toWrite == 0 {
		return 0
	}

	start := int(writePos % uint64(r.capacity))
	tail := r.capacity - start
	if toWrite <= tail {
		copy(r.buf[start:start+toWrite], src[:toWrite])
	} else {
		copy(r.buf[start:], src[:tail])
		copy(r.buf[:toWrite-tail], src[tail:toWrite])
	}

	r.writePos.Store(writePos + uint64(toWrite))
	return toWrite
}

// Read copies as many samples into dst as are available, and returns the
// number actually produced. It never blocks.
func (r *RingBuffer) Read(dst []float32) int {
	writePos := r.writePos.Load()
	readPos := r.readPos.Load()

	avail := r.availableReadSamples(writePos, readPos)
	toRead := len(dst)
	if toRead > avail {
		toRead = avail
	}
	if toRead == 0 {
		return 0
	}

	start := int(readPos % uint64(r.capacity))
	tail := r.capacity - start
	if toRead <= tail {
		copy(dst[:toRead], r.buf[start:start+toRead])
	} else {
		copy(dst[:tail], r.buf[start:])
		copy(dst[tail:toRead], r.buf[:toRead-tail])
	}

	r.readPos.Store(readPos + uint64(toRead))
	return toRead
}

// Available returns the number of samples currently readable.
func (r *RingBuffer) Available() int {
	return r.availableReadSamples(r.writePos.Load(), r.readPos.Load())
}

func (r *RingBuffer) IsEmpty() bool { return r.Available() == 0 }
func (r *RingBuffer) IsFull() bool  { return r.Available() == r.capacity-1 }

// Clear discards all buffered samples. Only safe to call when no concurrent
// writer is active.
func (r *RingBuffer) Clear() {
	r.readPos.Store(r.writePos.Load())
}

func (r *RingBuffer) availableReadSamples(writePos, readPos uint64) int {
	if writePos >= readPos {
		return int(writePos - readPos)
	}
	// writePos wrapped past the uint64 range; treat as empty rather than panic.
	return 0
}

func (r *RingBuffer) availableWriteSpace(writePos, readPos uint64) int {
	used := r.availableReadSamples(writePos, readPos)
	return r.capacity - used - 1
}
