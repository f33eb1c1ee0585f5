package fftkernel

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, 1, -4, 3, 100, 513} {
		if _, err := New(n); err == nil {
			t.Fatalf("New(%d): expected error, got nil", n)
		}
	}
	if _, err := New(512); err != nil {
		t.Fatalf("New(512): unexpected error: %v", err)
	}
}

func TestForwardInverseRoundTrip(t *testing.T) {
	const n = 512
	k, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64()*2 - 1
	}

	re := append([]float64(nil), x...)
	im := make([]float64, n)

	if err := k.Forward(re, im); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if err := k.Inverse(re, im); err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	var maxErr, maxX float64
	for i := range x {
		if d := math.Abs(x[i] - re[i]); d > maxErr {
			maxErr = d
		}
		if a := math.Abs(x[i]); a > maxX {
			maxX = a
		}
	}
	if maxX == 0 {
		t.Fatal("degenerate input: max|x| == 0")
	}
	if ratio := maxErr / maxX; ratio >= 1e-10 {
		t.Fatalf("round-trip error too large: %e (tolerance 1e-10)", ratio)
	}
}

func TestForwardRejectsLengthMismatch(t *testing.T) {
	k, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := k.Forward(make([]float64, 8), make([]float64, 16)); err == nil {
		t.Fatal("expected error on mismatched lengths")
	}
}

func TestSineBinLocation(t *testing.T) {
	const n = 512
	const sampleRate = 30.0
	const freqHz = 1.0

	k, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	re := make([]float64, n)
	im := make([]float64, n)
	for i := 0; i < n; i++ {
		re[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / sampleRate)
	}
	if err := k.Forward(re, im); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	mag := Magnitude(re, im)

	expectedBin := int(math.Round(freqHz * n / sampleRate))
	peakBin := 0
	peakMag := 0.0
	for i := 1; i < n/2; i++ {
		if mag[i] > peakMag {
			peakMag = mag[i]
			peakBin = i
		}
	}
	if peakBin != expectedBin {
		t.Fatalf("expected spectral peak at bin %d, got %d", expectedBin, peakBin)
	}
}

func TestMagnitudeInto(t *testing.T) {
	re := []float64{3, 0, -5}
	im := []float64{4, 0, 12}
	dst := make([]float64, 3)
	MagnitudeInto(dst, re, im)
	want := []float64{5, 0, 13}
	for i := range want {
		if math.Abs(dst[i]-want[i]) > 1e-12 {
			t.Fatalf("MagnitudeInto[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
