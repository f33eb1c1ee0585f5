// Package signal implements the buffered signal chain: ring buffers,
// motion-artefact detection, adaptive bandpass filtering and smoothing,
// and the composite quality score.
package signal

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vitalwave/rppg-core/dsp"
	"github.com/vitalwave/rppg-core/fftkernel"
)

// Quality is the signal-quality label.
type Quality string

const (
	QualityInsufficient Quality = "insufficient"
	QualityPoor         Quality = "poor"
	QualityFair         Quality = "fair"
	QualityGood         Quality = "good"
	QualityExcellent    Quality = "excellent"
)

// minProcessableSamples is the 1-second minimum-data gate.
const minProcessableSamples = 30

type adaptiveParams struct {
	alphaLP  float64
	alphaHP  float64
	maWindow int
}

var nominalParams = adaptiveParams{alphaLP: 0.15, alphaHP: 0.98, maWindow: 5}
var motionParams = adaptiveParams{alphaLP: 0.10, alphaHP: 0.99, maWindow: 8}

// QualityResult is the composite quality score and its label.
type QualityResult struct {
	Score float64
	Label Quality
}

// Chain owns the main and motion ring buffers and produces a processed
// snapshot on demand.
type Chain struct {
	sampleRate int

	main   *dsp.RingBuffer
	motion *dsp.RingBuffer

	params         adaptiveParams
	motionDetected bool

	fft       *fftkernel.Kernel
	hann      []float64
	scratchRe []float64
	scratchIm []float64
}

// NewChain builds a signal chain. windowSize and motionWindowSize are the
// sampleRate-scaled ring capacities; fftSize is the quality sub-score's
// spectral window (matches the spectral estimator's N).
func NewChain(sampleRate, windowSize, motionWindowSize, fftSize int) (*Chain, error) {
	k, err := fftkernel.New(fftSize)
	if err != nil {
		return nil, err
	}
	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Chain{
		sampleRate: sampleRate,
		main:       dsp.NewRingBuffer(windowSize),
		motion:     dsp.NewRingBuffer(motionWindowSize),
		params:     nominalParams,
		fft:        k,
		hann:       hann,
		scratchRe:  make([]float64, fftSize),
		scratchIm:  make([]float64, fftSize),
	}, nil
}

// AddSample pushes one scalar sample into both ring buffers. Callers must
// skip this entirely on a "no sample" tick — buffer length is unchanged
// when the ROI sampler has nothing to offer.
func (c *Chain) AddSample(x float64) {
	c.main.Push(x)
	c.motion.Push(x)
}

// Len reports the current occupancy of the main ring buffer.
func (c *Chain) Len() int { return c.main.Len() }

// Reset clears both ring buffers, used on session restart.
func (c *Chain) Reset() {
	c.main.Reset()
	c.motion.Reset()
}

// MotionDetected reports the motion state computed by the most recent
// Process call.
func (c *Chain) MotionDetected() bool { return c.motionDetected }

// Process returns a processed copy of the main buffer (outlier-clipped,
// bandpassed, adaptively smoothed) plus its quality assessment. ok is
// false ("unavailable") until the buffer holds at least 30 samples.
func (c *Chain) Process() (processed []float64, quality QualityResult, ok bool) {
	c.motionDetected = c.detectMotion()
	if c.motionDetected {
		c.params = motionParams
	} else {
		c.params = nominalParams
	}

	l := c.main.Len()
	if l < minProcessableSamples {
		return nil, QualityResult{Label: QualityInsufficient}, false
	}

	raw := c.main.Snapshot(nil)
	mu, sigma := stat.MeanStdDev(raw, nil)

	clipped := make([]float64, l)
	for i, x := range raw {
		if sigma > 0 && math.Abs(x-mu) > 2*sigma {
			clipped[i] = mu
		} else {
			clipped[i] = x
		}
	}

	y := make([]float64, l)
	y[0] = clipped[0]
	for i := 1; i < l; i++ {
		y[i] = dsp.FlushDenormals(c.params.alphaHP * (y[i-1] + clipped[i] - clipped[i-1]))
	}

	z := make([]float64, l)
	z[0] = y[0]
	for i := 1; i < l; i++ {
		z[i] = dsp.FlushDenormals(c.params.alphaLP*y[i] + (1-c.params.alphaLP)*z[i-1])
	}

	smoothed := movingAverage(z, c.params.maWindow)
	q := c.computeQuality(smoothed)
	return smoothed, q, true
}

func movingAverage(z []float64, window int) []float64 {
	out := make([]float64, len(z))
	var sum float64
	for i := range z {
		sum += z[i]
		start := i - window + 1
		if start > 0 {
			sum -= z[start-1]
		} else {
			start = 0
		}
		out[i] = sum / float64(i-start+1)
	}
	return out
}

// detectMotion computes variance over consecutive 1-second non-overlapping
// windows of the motion buffer and declares motion when the variance of
// those variances exceeds 1.5x their mean.
func (c *Chain) detectMotion() bool {
	n := c.sampleRate
	if n <= 0 {
		return false
	}
	snap := c.motion.Snapshot(nil)
	if len(snap) < n {
		return false
	}

	var variances []float64
	for start := 0; start+n <= len(snap); start += n {
		variances = append(variances, stat.Variance(snap[start:start+n], nil))
	}
	if len(variances) == 0 {
		return false
	}
	vbar := stat.Mean(variances, nil)
	vv := stat.Variance(variances, nil)
	return vv > 1.5*vbar
}

// computeQuality combines the SNR, motion-level, stability, and in-band
// spectral-energy sub-scores into a single weighted quality score.
func (c *Chain) computeQuality(processed []float64) QualityResult {
	mu, sigma := stat.MeanStdDev(processed, nil)
	var snrSub float64
	if sigma > 1e-12 {
		snrSub = math.Min((math.Abs(mu)/sigma)/0.5, 1)
	}

	motionLevel := 1.0
	if c.motionDetected {
		motionLevel = 0.7
	}

	stability := c.stabilityScore(processed)
	peakQuality := c.peakQualityScore(processed)

	score := 0.4*snrSub + 0.2*motionLevel + 0.2*stability + 0.2*peakQuality
	var label Quality
	switch {
	case score > 0.7:
		label = QualityExcellent
	case score > 0.5:
		label = QualityGood
	case score > 0.3:
		label = QualityFair
	default:
		label = QualityPoor
	}
	return QualityResult{Score: score, Label: label}
}

// stabilityScore is v̄/(v̄+vv) over 2-second sub-windows of the processed
// buffer, 0.5 if there are too few windows to judge.
func (c *Chain) stabilityScore(processed []float64) float64 {
	win := 2 * c.sampleRate
	if win <= 0 || len(processed) < win {
		return 0.5
	}
	var variances []float64
	for start := 0; start+win <= len(processed); start += win {
		variances = append(variances, stat.Variance(processed[start:start+win], nil))
	}
	if len(variances) < 2 {
		return 0.5
	}
	vbar := stat.Mean(variances, nil)
	vv := stat.Variance(variances, nil)
	if vbar+vv <= 0 {
		return 1.0
	}
	return vbar / (vbar + vv)
}

// peakQualityScore computes the fraction of spectral energy in the
// 0.7-3.5 Hz band via a fresh Hanning-windowed FFT over the last N
// samples, capped at 1 via a x2 multiplier.
func (c *Chain) peakQualityScore(processed []float64) float64 {
	n := c.fft.N()
	for i := range c.scratchRe {
		c.scratchRe[i] = 0
		c.scratchIm[i] = 0
	}
	start := 0
	if len(processed) > n {
		start = len(processed) - n
	}
	tail := processed[start:]
	for i, x := range tail {
		c.scratchRe[i] = x * c.hann[i]
	}

	if err := c.fft.Forward(c.scratchRe, c.scratchIm); err != nil {
		return 0
	}

	var bandEnergy, totalEnergy float64
	for i := 0; i < n/2; i++ {
		f := float64(i) * float64(c.sampleRate) / float64(n)
		mag := math.Hypot(c.scratchRe[i], c.scratchIm[i])
		e := mag * mag
		totalEnergy += e
		if f >= 0.7 && f <= 3.5 {
			bandEnergy += e
		}
	}
	if totalEnergy <= 0 {
		return 0
	}
	return math.Min((bandEnergy/totalEnergy)*2, 1)
}
