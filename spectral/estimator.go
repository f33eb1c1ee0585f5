// Package spectral turns a processed sample buffer into a heart-rate
// estimate: a Hanning-windowed FFT, local-maxima peak detection with a
// sharpness score, a significance gate, octave (double/half frequency)
// correction, and a final range-based rescue.
package spectral

import (
	"math"
	"sort"

	"github.com/vitalwave/rppg-core/fftkernel"
)

const (
	minSamplesForEstimate = 90 // 3s at 30Hz
	bandLoHz              = 0.7
	bandHiHz              = 3.5
	octaveToleranceHz     = 0.1
	significanceBase      = 1.5
)

// Peak is a detected local maximum in the magnitude spectrum.
type Peak struct {
	Bin       int
	Magnitude float64
	FreqHz    float64
	Sharpness float64
	Score     float64
}

// Estimator turns a processed sample buffer into a BPM decision.
type Estimator struct {
	sampleRate        int
	fft               *fftkernel.Kernel
	hann              []float64
	adaptiveThreshold float64
	bpmMin, bpmMax    int

	scratchRe []float64
	scratchIm []float64
}

// NewEstimator builds a spectral estimator for the given sample rate and
// FFT size N (must be a power of two — see fftkernel). adaptiveThreshold
// is the significance-gate margin (default 0.3); the constructor value is
// canonical and is never mutated at runtime.
func NewEstimator(sampleRate, fftSize int, adaptiveThreshold float64, bpmMin, bpmMax int) (*Estimator, error) {
	k, err := fftkernel.New(fftSize)
	if err != nil {
		return nil, err
	}
	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Estimator{
		sampleRate:        sampleRate,
		fft:               k,
		hann:              hann,
		adaptiveThreshold: adaptiveThreshold,
		bpmMin:            bpmMin,
		bpmMax:            bpmMax,
		scratchRe:         make([]float64, fftSize),
		scratchIm:         make([]float64, fftSize),
	}, nil
}

// Estimate returns a BPM decision for the processed buffer, or ok=false
// if no estimate can be made.
func (e *Estimator) Estimate(processed []float64) (bpm int, ok bool) {
	l := len(processed)
	if l < minSamplesForEstimate {
		return 0, false
	}

	n := e.fft.N()
	for i := range e.scratchRe {
		e.scratchRe[i] = 0
		e.scratchIm[i] = 0
	}
	start := 0
	if l > n {
		start = l - n
	}
	tail := processed[start:]
	for i, x := range tail {
		e.scratchRe[i] = x * e.hann[i]
	}

	if err := e.fft.Forward(e.scratchRe, e.scratchIm); err != nil {
		return 0, false
	}
	mag := fftkernel.Magnitude(e.scratchRe, e.scratchIm)

	freqOf := func(i int) float64 { return float64(i) * float64(e.sampleRate) / float64(n) }

	loBin, hiBin := -1, -1
	for i := 0; i < n/2; i++ {
		f := freqOf(i)
		if f >= bandLoHz && f <= bandHiHz {
			if loBin == -1 {
				loBin = i
			}
			hiBin = i
		}
	}
	if loBin == -1 || hiBin-loBin < 2 {
		return 0, false
	}

	peaks := findLocalMaxima(mag, loBin, hiBin, freqOf) // ascending bin order
	if len(peaks) == 0 {
		return 0, false
	}

	ranked := append([]Peak(nil), peaks...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	var bandSum float64
	for i := loBin; i <= hiBin; i++ {
		bandSum += mag[i]
	}
	bandAvg := bandSum / float64(hiBin-loBin+1)

	best := ranked[0]
	if best.Magnitude < bandAvg*(significanceBase+e.adaptiveThreshold) {
		return 0, false
	}

	chosen := e.applyOctaveCorrection(peaks, best)

	bpmF := 60 * chosen.FreqHz
	bpmF = rangeRescue(bpmF)

	rounded := int(math.Round(bpmF))
	if rounded < e.bpmMin || rounded > e.bpmMax {
		return 0, false
	}
	return rounded, true
}

func findLocalMaxima(mag []float64, loBin, hiBin int, freqOf func(int) float64) []Peak {
	var peaks []Peak
	for i := loBin; i <= hiBin; i++ {
		if i-1 < 0 || i+1 >= len(mag) {
			continue
		}
		if !(mag[i] > mag[i-1] && mag[i] > mag[i+1]) {
			continue
		}
		sharp := sharpness(mag, i)
		peaks = append(peaks, Peak{
			Bin:       i,
			Magnitude: mag[i],
			FreqHz:    freqOf(i),
			Sharpness: sharp,
			Score:     mag[i] * (1 + sharp),
		})
	}
	return peaks
}

func sharpness(mag []float64, peak int) float64 {
	var sum float64
	var count int
	for k := 1; k <= 3; k++ {
		lo := clampIndex(peak-k, len(mag))
		hi := clampIndex(peak+k, len(mag))
		sum += mag[peak] - mag[lo]
		sum += mag[peak] - mag[hi]
		count += 2
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// applyOctaveCorrection prefers a detected double frequency over best,
// else a detected half frequency under the stated magnitude and BPM-range
// constraints, else keeps the original best peak. peaks must be in
// ascending bin order so findNear's tie-break is deterministic.
func (e *Estimator) applyOctaveCorrection(peaks []Peak, best Peak) Peak {
	if p, ok := findNear(peaks, 2*best.FreqHz, octaveToleranceHz); ok && p.Magnitude >= 0.7*best.Magnitude {
		return p
	}
	if p, ok := findNear(peaks, best.FreqHz/2, octaveToleranceHz); ok && p.Magnitude >= 0.5*best.Magnitude {
		bpmBest := 60 * best.FreqHz
		bpmHalf := 60 * (best.FreqHz / 2)
		if bpmBest > 120 && bpmHalf >= 50 && bpmHalf <= 120 {
			return p
		}
	}
	return best
}

// findNear returns the peak whose frequency is closest to target within
// tolHz, breaking ties by lower bin index (peaks arrives in ascending-bin
// order from findLocalMaxima).
func findNear(peaks []Peak, target, tolHz float64) (Peak, bool) {
	var best Peak
	found := false
	bestDist := math.Inf(1)
	for _, p := range peaks {
		d := math.Abs(p.FreqHz - target)
		if d > tolHz {
			continue
		}
		if !found || d < bestDist {
			best = p
			bestDist = d
			found = true
		}
	}
	return best, found
}

// rangeRescue doubles a too-low BPM or halves a too-high one when the
// rescued value lands back in a plausible heart-rate range.
func rangeRescue(bpm float64) float64 {
	if bpm >= 25 && bpm < 50 {
		if doubled := 2 * bpm; doubled >= 50 && doubled <= 200 {
			return doubled
		}
	}
	if bpm > 150 && bpm <= 400 {
		if halved := bpm / 2; halved >= 50 && halved <= 150 {
			return halved
		}
	}
	return bpm
}
