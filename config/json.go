package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// File is the JSON schema for configuration overrides. Every field is a
// pointer so "absent" and "explicitly zero" are distinguishable.
type File struct {
	SampleRate          *int        `json:"sample_rate"`
	BufferSeconds       *int        `json:"buffer_seconds"`
	MotionWindowSeconds *int        `json:"motion_window_seconds"`
	FFTSize             *int        `json:"fft_size"`
	CalibrationPeriodMs *int        `json:"calibration_period_ms"`
	DisplayDelayMs      *int        `json:"display_delay_ms"`
	AdaptiveThreshold   *float64    `json:"adaptive_threshold"`
	ROIWeights          *ROIWeights `json:"roi_weights"`
	BPMRangeMin         *int        `json:"bpm_range_min"`
	BPMRangeMax         *int        `json:"bpm_range_max"`
	WaveformRingSize    *int        `json:"waveform_ring_size"`
}

// Load reads a JSON override file and applies it on top of Default().
func Load(path string) (*Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	o := Default()
	if err := ApplyFile(o, &f); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// ApplyFile overlays f's set fields onto dst, validating each as it goes.
func ApplyFile(dst *Options, f *File) error {
	if dst == nil {
		return fmt.Errorf("config: nil destination options")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate <= 0 {
			return fmt.Errorf("config: sample_rate must be > 0")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BufferSeconds != nil {
		if *f.BufferSeconds <= 0 {
			return fmt.Errorf("config: buffer_seconds must be > 0")
		}
		dst.BufferSeconds = *f.BufferSeconds
	}
	if f.MotionWindowSeconds != nil {
		if *f.MotionWindowSeconds <= 0 {
			return fmt.Errorf("config: motion_window_seconds must be > 0")
		}
		dst.MotionWindowSeconds = *f.MotionWindowSeconds
	}
	if f.FFTSize != nil {
		if *f.FFTSize < 2 || *f.FFTSize&(*f.FFTSize-1) != 0 {
			return fmt.Errorf("config: fft_size must be a power of two >= 2")
		}
		dst.FFTSize = *f.FFTSize
	}
	if f.CalibrationPeriodMs != nil {
		if *f.CalibrationPeriodMs < 0 {
			return fmt.Errorf("config: calibration_period_ms must be >= 0")
		}
		dst.CalibrationPeriodMs = *f.CalibrationPeriodMs
	}
	if f.DisplayDelayMs != nil {
		if *f.DisplayDelayMs < 0 {
			return fmt.Errorf("config: display_delay_ms must be >= 0")
		}
		dst.DisplayDelayMs = *f.DisplayDelayMs
	}
	if f.AdaptiveThreshold != nil {
		if *f.AdaptiveThreshold < 0 {
			return fmt.Errorf("config: adaptive_threshold must be >= 0")
		}
		dst.AdaptiveThreshold = *f.AdaptiveThreshold
	}
	if f.ROIWeights != nil {
		w := *f.ROIWeights
		if w.Forehead < 0 || w.LeftCheek < 0 || w.RightCheek < 0 {
			return fmt.Errorf("config: roi_weights must be >= 0")
		}
		dst.ROIWeights = w
	}
	if f.BPMRangeMin != nil {
		if *f.BPMRangeMin <= 0 {
			return fmt.Errorf("config: bpm_range_min must be > 0")
		}
		dst.BPMRangeMin = *f.BPMRangeMin
	}
	if f.BPMRangeMax != nil {
		if *f.BPMRangeMax <= 0 {
			return fmt.Errorf("config: bpm_range_max must be > 0")
		}
		dst.BPMRangeMax = *f.BPMRangeMax
	}
	if f.WaveformRingSize != nil {
		if *f.WaveformRingSize <= 0 {
			return fmt.Errorf("config: waveform_ring_size must be > 0")
		}
		dst.WaveformRingSize = *f.WaveformRingSize
	}
	if dst.BPMRangeMax <= dst.BPMRangeMin {
		return fmt.Errorf("config: bpm range [%d,%d] is invalid", dst.BPMRangeMin, dst.BPMRangeMax)
	}
	return nil
}
