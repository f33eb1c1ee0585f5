// Package dsp provides small allocation-free primitives shared by the
// signal chain: a circular sample buffer and a denormal-flush helper.
package dsp

// RingBuffer is a fixed-capacity circular buffer of float64 samples.
// Unlike a fixed delay line it tracks how many slots are actually
// occupied, so callers can distinguish "only 12 samples pushed so far"
// from "full". On overflow the oldest sample is evicted; ordering is
// strictly temporal.
type RingBuffer struct {
	buffer []float64
	head   int // index of the oldest occupied slot
	n      int // occupied count, 0 <= n <= len(buffer)
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{buffer: make([]float64, capacity)}
}

// Push appends a sample, evicting the oldest one once the buffer is full.
func (r *RingBuffer) Push(x float64) {
	size := len(r.buffer)
	if size == 0 {
		return
	}
	if r.n < size {
		r.buffer[(r.head+r.n)%size] = x
		r.n++
		return
	}
	r.buffer[r.head] = x
	r.head = (r.head + 1) % size
}

// Len reports the number of samples currently held.
func (r *RingBuffer) Len() int { return r.n }

// Cap reports the buffer's fixed capacity.
func (r *RingBuffer) Cap() int { return len(r.buffer) }

// Reset clears the buffer to empty without reallocating.
func (r *RingBuffer) Reset() {
	r.head = 0
	r.n = 0
}

// Snapshot copies the buffer's contents, oldest first, into dst and
// returns the filled prefix. dst is reused when it already has enough
// capacity, avoiding an allocation on the hot path.
func (r *RingBuffer) Snapshot(dst []float64) []float64 {
	if cap(dst) < r.n {
		dst = make([]float64, r.n)
	}
	dst = dst[:r.n]
	size := len(r.buffer)
	for i := 0; i < r.n; i++ {
		dst[i] = r.buffer[(r.head+i)%size]
	}
	return dst
}

// FlushDenormals zeroes values too small to matter, avoiding the
// performance cliff some FPUs hit on subnormal floats during a long-running
// decaying IIR filter.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-300
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
