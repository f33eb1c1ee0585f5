// Package config defines the stable tunable surface of the rPPG
// estimator and loads JSON overrides onto the defaults, using a
// pointer-override idiom so "absent" and "explicit zero" stay distinct.
package config

import "fmt"

// ROIWeights are the combining weights for the three ROI labels, applied
// before renormalisation over whichever ROIs actually survive a tick.
type ROIWeights struct {
	Forehead   float64 `json:"forehead"`
	LeftCheek  float64 `json:"left_cheek"`
	RightCheek float64 `json:"right_cheek"`
}

// Options is the full configuration surface of the estimator.
type Options struct {
	SampleRate          int        `json:"sample_rate"`
	BufferSeconds       int        `json:"buffer_seconds"`
	MotionWindowSeconds int        `json:"motion_window_seconds"`
	FFTSize             int        `json:"fft_size"`
	CalibrationPeriodMs int        `json:"calibration_period_ms"`
	DisplayDelayMs      int        `json:"display_delay_ms"`
	AdaptiveThreshold   float64    `json:"adaptive_threshold"`
	ROIWeights          ROIWeights `json:"roi_weights"`
	BPMRangeMin         int        `json:"bpm_range_min"`
	BPMRangeMax         int        `json:"bpm_range_max"`
	WaveformRingSize    int        `json:"waveform_ring_size"`
}

// Default returns the canonical default configuration.
func Default() *Options {
	return &Options{
		SampleRate:          30,
		BufferSeconds:       15,
		MotionWindowSeconds: 15,
		FFTSize:             512,
		CalibrationPeriodMs: 15000,
		DisplayDelayMs:      5000,
		AdaptiveThreshold:   0.3,
		ROIWeights:          ROIWeights{Forehead: 0.6, LeftCheek: 0.2, RightCheek: 0.2},
		BPMRangeMin:         40,
		BPMRangeMax:         220,
		WaveformRingSize:    150,
	}
}

// WindowSize returns the main ring buffer capacity W = sampleRate * bufferSeconds.
func (o *Options) WindowSize() int {
	return o.SampleRate * o.BufferSeconds
}

// MotionWindowSize returns the motion buffer capacity M = sampleRate * motionWindowSeconds.
func (o *Options) MotionWindowSize() int {
	return o.SampleRate * o.MotionWindowSeconds
}

// Validate reports a configuration-fatal error if Options describes an
// inconsistent engine. Construction-time only; never called mid-session.
func (o *Options) Validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be > 0, got %d", o.SampleRate)
	}
	if o.BufferSeconds <= 0 {
		return fmt.Errorf("config: buffer_seconds must be > 0, got %d", o.BufferSeconds)
	}
	if o.MotionWindowSeconds <= 0 {
		return fmt.Errorf("config: motion_window_seconds must be > 0, got %d", o.MotionWindowSeconds)
	}
	if o.FFTSize < 2 || o.FFTSize&(o.FFTSize-1) != 0 {
		return fmt.Errorf("config: fft_size must be a power of two >= 2, got %d", o.FFTSize)
	}
	if o.CalibrationPeriodMs < 0 {
		return fmt.Errorf("config: calibration_period_ms must be >= 0, got %d", o.CalibrationPeriodMs)
	}
	if o.DisplayDelayMs < 0 {
		return fmt.Errorf("config: display_delay_ms must be >= 0, got %d", o.DisplayDelayMs)
	}
	if o.AdaptiveThreshold < 0 {
		return fmt.Errorf("config: adaptive_threshold must be >= 0, got %f", o.AdaptiveThreshold)
	}
	if o.BPMRangeMin <= 0 || o.BPMRangeMax <= o.BPMRangeMin {
		return fmt.Errorf("config: bpm range [%d,%d] is invalid", o.BPMRangeMin, o.BPMRangeMax)
	}
	if o.WaveformRingSize <= 0 {
		return fmt.Errorf("config: waveform_ring_size must be > 0, got %d", o.WaveformRingSize)
	}
	w := o.ROIWeights
	if w.Forehead < 0 || w.LeftCheek < 0 || w.RightCheek < 0 {
		return fmt.Errorf("config: roi_weights must be >= 0, got %+v", w)
	}
	if w.Forehead+w.LeftCheek+w.RightCheek <= 0 {
		return fmt.Errorf("config: roi_weights must sum to > 0, got %+v", w)
	}
	return nil
}
