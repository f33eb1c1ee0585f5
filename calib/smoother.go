// Package calib implements the calibration gate and delayed-average
// display smoother: it withholds BPM output during an initial settling
// period, then reports a temporally-delayed average of recent estimates,
// withheld as unavailable when those estimates spread too widely.
package calib

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// State is the display's sum type: calibrating, a numeric BPM, or
// unavailable.
type State int

const (
	StateCalibrating State = iota
	StateBPM
	StateUnavailable
)

// Display is what the UI shows for one tick.
type Display struct {
	State    State
	Progress int // 0-100, valid when State == StateCalibrating
	BPM      int // valid when State == StateBPM
}

type record struct {
	bpm int
	ts  int64
}

// Smoother owns the heart-rate history and session calibration state.
type Smoother struct {
	calibrationPeriodMs int64
	displayDelayMs      int64

	calibrationStart int64
	isCalibrating    bool
	history          []record
}

// NewSmoother builds a smoother with the given calibration period and
// display delay, both in milliseconds.
func NewSmoother(calibrationPeriodMs, displayDelayMs int) *Smoother {
	return &Smoother{
		calibrationPeriodMs: int64(calibrationPeriodMs),
		displayDelayMs:      int64(displayDelayMs),
	}
}

// StartSession resets calibration state and clears history.
func (s *Smoother) StartSession(nowMs int64) {
	s.calibrationStart = nowMs
	s.isCalibrating = true
	s.history = s.history[:0]
}

// IsCalibrating reports whether the smoother is still within the
// calibration period as of the most recent Tick.
func (s *Smoother) IsCalibrating() bool { return s.isCalibrating }

// AddEstimate appends a new raw BPM estimate and drops history older than
// calibrationPeriod+displayDelay behind now.
func (s *Smoother) AddEstimate(bpm int, nowMs int64) {
	s.history = append(s.history, record{bpm: bpm, ts: nowMs})
	cutoff := nowMs - (s.calibrationPeriodMs + s.displayDelayMs)
	i := 0
	for ; i < len(s.history); i++ {
		if s.history[i].ts >= cutoff {
			break
		}
	}
	if i > 0 {
		s.history = append(s.history[:0], s.history[i:]...)
	}
}

// Tick computes the display output for the current wall-clock time.
func (s *Smoother) Tick(nowMs int64) Display {
	if nowMs-s.calibrationStart < s.calibrationPeriodMs {
		s.isCalibrating = true
		progress := int(100 * (nowMs - s.calibrationStart) / s.calibrationPeriodMs)
		return Display{State: StateCalibrating, Progress: progress}
	}
	s.isCalibrating = false

	target := nowMs - s.displayDelayMs

	nearestDist := int64(math.MaxInt64)
	found := false
	for _, r := range s.history {
		if d := absInt64(r.ts - target); !found || d < nearestDist {
			nearestDist = d
			found = true
		}
	}
	if !found || nearestDist > 2000 {
		return Display{State: StateUnavailable}
	}

	var window []float64
	for _, r := range s.history {
		if absInt64(r.ts-target) < 2000 {
			window = append(window, float64(r.bpm))
		}
	}
	mu, sigma := stat.MeanStdDev(window, nil)
	if sigma > 15 {
		return Display{State: StateUnavailable}
	}
	return Display{State: StateBPM, BPM: int(math.Round(mu))}
}

func absInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
