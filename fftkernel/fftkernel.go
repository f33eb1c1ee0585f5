// Package fftkernel implements a fixed-size radix-2 Cooley-Tukey FFT.
//
// The kernel precomputes its bit-reversal permutation and twiddle-factor
// tables once at construction, then transforms in place with no further
// allocation — the pattern the spectral estimator needs to run once per
// 33ms tick without growing garbage.
package fftkernel

import (
	"fmt"
	"math"
	"math/bits"
)

// Kernel is a forward/inverse DFT of fixed size N (a power of two).
type Kernel struct {
	n      int
	logN   int
	bitRev []int
	cosTab []float64
	sinTab []float64
}

// New builds a kernel for size n. n must be a power of two and at least 2;
// anything else is a configuration error reported at construction, never
// during a running session.
func New(n int) (*Kernel, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("fftkernel: size %d is not a power of two >= 2", n)
	}

	logN := bits.Len(uint(n)) - 1
	k := &Kernel{
		n:      n,
		logN:   logN,
		bitRev: make([]int, n),
		cosTab: make([]float64, n),
		sinTab: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		k.bitRev[i] = reverseBits(i, logN)
		theta := -2 * math.Pi * float64(i) / float64(n)
		k.cosTab[i] = math.Cos(theta)
		k.sinTab[i] = math.Sin(theta)
	}
	return k, nil
}

// N reports the configured transform size.
func (k *Kernel) N() int { return k.n }

// Forward computes the DFT of (re, im) in place.
func (k *Kernel) Forward(re, im []float64) error {
	return k.transform(re, im, false)
}

// Inverse computes the inverse DFT of (re, im) in place, including the 1/N
// scaling.
func (k *Kernel) Inverse(re, im []float64) error {
	return k.transform(re, im, true)
}

func (k *Kernel) transform(re, im []float64, inverse bool) error {
	n := k.n
	if len(re) != n || len(im) != n {
		return fmt.Errorf("fftkernel: expected length %d, got re=%d im=%d", n, len(re), len(im))
	}

	for i, j := range k.bitRev {
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for i := 0; i < half; i++ {
				idx := i * step
				wc := k.cosTab[idx]
				ws := k.sinTab[idx]
				if inverse {
					ws = -ws
				}

				evenIdx := start + i
				oddIdx := evenIdx + half

				tr := re[oddIdx]*wc - im[oddIdx]*ws
				ti := re[oddIdx]*ws + im[oddIdx]*wc

				re[oddIdx] = re[evenIdx] - tr
				im[oddIdx] = im[evenIdx] - ti
				re[evenIdx] += tr
				im[evenIdx] += ti
			}
		}
	}

	if inverse {
		invN := 1.0 / float64(n)
		for i := range re {
			re[i] *= invN
			im[i] *= invN
		}
	}
	return nil
}

// Magnitude returns sqrt(re^2+im^2) element-wise into a freshly allocated
// slice.
func Magnitude(re, im []float64) []float64 {
	out := make([]float64, len(re))
	MagnitudeInto(out, re, im)
	return out
}

// MagnitudeInto writes sqrt(re^2+im^2) element-wise into dst, which must be
// at least len(re) long. Allocation-free for callers reusing a scratch
// buffer across ticks.
func MagnitudeInto(dst, re, im []float64) {
	for i := range re {
		dst[i] = math.Hypot(re[i], im[i])
	}
}

func reverseBits(x, logN int) int {
	r := 0
	for i := 0; i < logN; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}
