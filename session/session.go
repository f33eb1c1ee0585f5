// Package session wires the ROI sampler, signal chain, spectral
// estimator, and calibration smoother into a single per-frame
// orchestration step: Advance(frame, faceSource, now) -> Output.
package session

import (
	"github.com/vitalwave/rppg-core/calib"
	"github.com/vitalwave/rppg-core/config"
	"github.com/vitalwave/rppg-core/dsp"
	"github.com/vitalwave/rppg-core/roi"
	"github.com/vitalwave/rppg-core/signal"
	"github.com/vitalwave/rppg-core/spectral"
)

// Output is what one Advance call reports to a caller (a UI, a batch
// harness, a test).
type Output struct {
	Display         calib.Display
	Quality         signal.QualityResult
	FaceDetected    bool
	UsedFallbackROI bool
	SampleTaken     bool
	Waveform        []float64
}

// Session owns the full per-frame pipeline state for one subject.
type Session struct {
	opts *config.Options

	sampler   *roi.Sampler
	chain     *signal.Chain
	estimator *spectral.Estimator
	smoother  *calib.Smoother
	waveform  *dsp.RingBuffer

	roiWeights map[roi.Label]float64

	started    bool
	frameCount int
}

// New builds a session from validated options.
func New(opts *config.Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	chain, err := signal.NewChain(opts.SampleRate, opts.WindowSize(), opts.MotionWindowSize(), opts.FFTSize)
	if err != nil {
		return nil, err
	}
	estimator, err := spectral.NewEstimator(opts.SampleRate, opts.FFTSize, opts.AdaptiveThreshold, opts.BPMRangeMin, opts.BPMRangeMax)
	if err != nil {
		return nil, err
	}

	weights := map[roi.Label]float64{
		roi.Forehead:   opts.ROIWeights.Forehead,
		roi.LeftCheek:  opts.ROIWeights.LeftCheek,
		roi.RightCheek: opts.ROIWeights.RightCheek,
	}

	return &Session{
		opts:       opts,
		sampler:    roi.NewSampler(nil),
		chain:      chain,
		estimator:  estimator,
		smoother:   calib.NewSmoother(opts.CalibrationPeriodMs, opts.DisplayDelayMs),
		waveform:   dsp.NewRingBuffer(opts.WaveformRingSize),
		roiWeights: weights,
	}, nil
}

// Reset clears all session state and restarts calibration on the next
// Advance call.
func (s *Session) Reset() {
	s.chain.Reset()
	s.waveform.Reset()
	s.started = false
	s.frameCount = 0
}

// Advance is the per-frame orchestration step: it derives ROIs from the
// face source (or falls back to default ROIs), samples the frame, pushes
// the result through the signal chain and spectral estimator, and
// returns the calibration-gated display state.
func (s *Session) Advance(frame *roi.Frame, faceSrc roi.FaceSource, nowMs int64) Output {
	if !s.started {
		s.smoother.StartSession(nowMs)
		s.started = true
	}
	s.frameCount++

	var (
		lm       roi.Landmarks
		faceOK   bool
		rois     []roi.ROI
		fallback bool
	)
	if faceSrc != nil {
		lm, faceOK = faceSrc.Detect(frame)
	}
	if faceOK {
		rois = roi.DeriveFromLandmarks(lm, s.roiWeights)
	} else {
		rois = roi.DefaultROIs(frame.Width, frame.Height, s.roiWeights)
		fallback = true
	}

	s.sampler.SetSource(roi.FramePixelSource{Frame: frame})
	sample, sampled := s.sampler.Sample(rois)
	if sampled {
		s.chain.AddSample(sample)
		s.waveform.Push(sample)
	}

	processed, quality, ok := s.chain.Process()
	if ok {
		if bpm, estOK := s.estimator.Estimate(processed); estOK {
			s.smoother.AddEstimate(bpm, nowMs)
		}
	}

	return Output{
		Display:         s.smoother.Tick(nowMs),
		Quality:         quality,
		FaceDetected:    faceOK,
		UsedFallbackROI: fallback,
		SampleTaken:     sampled,
		Waveform:        s.waveform.Snapshot(nil),
	}
}

// FrameCount reports how many Advance calls have been made since
// construction or the last Reset.
func (s *Session) FrameCount() int { return s.frameCount }
