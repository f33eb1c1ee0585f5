package session

import (
	"math"
	"testing"

	"github.com/vitalwave/rppg-core/calib"
	"github.com/vitalwave/rppg-core/config"
	"github.com/vitalwave/rppg-core/roi"
	"github.com/vitalwave/rppg-core/signal"
)

// pulseFrame builds a uniform 100x100 frame whose green channel oscillates
// at freqHz as a function of elapsed seconds t, simulating the color
// signal an ROI sampler would see over a real camera feed.
func pulseFrame(freqHz, t float64) *roi.Frame {
	const w, h = 100, 100
	green := 128 + int(40*math.Sin(2*math.Pi*freqHz*t))
	if green < 0 {
		green = 0
	}
	if green > 255 {
		green = 255
	}
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		pixels[off] = 100
		pixels[off+1] = byte(green)
		pixels[off+2] = 100
		pixels[off+3] = 255
	}
	return &roi.Frame{Width: w, Height: h, Pixels: pixels}
}

// blankFrame builds a fully transparent frame: every ROI sample on it
// fails the alpha filter, so Sampler.Sample always reports "no sample".
func blankFrame() *roi.Frame {
	const w, h = 100, 100
	return &roi.Frame{Width: w, Height: h, Pixels: make([]byte, w*h*4)}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	opts := config.Default()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestAdvanceProducesQualityOnceBufferFills(t *testing.T) {
	s := newTestSession(t)
	const sampleRate = 30
	var lastOut Output
	for i := 0; i < sampleRate*20; i++ { // 20 seconds
		tSec := float64(i) / sampleRate
		frame := pulseFrame(1.0, tSec)
		lastOut = s.Advance(frame, nil, int64(tSec*1000))
	}
	if !lastOut.UsedFallbackROI {
		t.Fatal("expected fallback ROIs with a nil face source")
	}
	if !lastOut.SampleTaken {
		t.Fatal("expected a sample on the final frame")
	}
	if lastOut.Quality.Label == signal.QualityInsufficient {
		t.Fatalf("expected sufficient data after 20s of frames, got %v", lastOut.Quality.Label)
	}
}

// After a step change in pulse frequency, the delayed display should
// eventually track the new rate rather than getting stuck on the old one.
func TestStepChangeEventuallyTracksNewRate(t *testing.T) {
	s := newTestSession(t)
	const sampleRate = 30

	// 20s at 1Hz (60 BPM) to get through calibration with a stable rate.
	i := 0
	for ; i < sampleRate*20; i++ {
		tSec := float64(i) / sampleRate
		s.Advance(pulseFrame(1.0, tSec), nil, int64(tSec*1000))
	}

	// Switch to 2Hz (120 BPM) for another 20s.
	var lastOut Output
	for j := 0; j < sampleRate*20; j++ {
		tSec := float64(i+j) / sampleRate
		lastOut = s.Advance(pulseFrame(2.0, tSec), nil, int64(tSec*1000))
	}

	if lastOut.Display.State != calib.StateBPM {
		t.Fatalf("expected a numeric BPM display after the step change settles, got state %v", lastOut.Display.State)
	}
	if math.Abs(float64(lastOut.Display.BPM-120)) > 5 {
		t.Fatalf("expected display to have moved toward 120 BPM, got %d", lastOut.Display.BPM)
	}
}

// A continuously empty ROI stream must never synthesize a sample, and
// quality must remain insufficient throughout.
func TestEmptyROIStreamNeverProducesSamples(t *testing.T) {
	s := newTestSession(t)
	const sampleRate = 30
	frame := blankFrame()
	for i := 0; i < sampleRate*5; i++ { // 5 seconds of nothing
		out := s.Advance(frame, nil, int64(i)*1000/sampleRate)
		if out.SampleTaken {
			t.Fatalf("expected no sample on frame %d with a fully transparent frame", i)
		}
		if out.Quality.Label != signal.QualityInsufficient {
			t.Fatalf("expected insufficient quality throughout an empty ROI stream, got %v", out.Quality.Label)
		}
	}
	if s.chain.Len() != 0 {
		t.Fatalf("expected the main buffer to stay empty, got length %d", s.chain.Len())
	}
}

func TestResetClearsBuffersAndRestartsCalibration(t *testing.T) {
	s := newTestSession(t)
	const sampleRate = 30
	for i := 0; i < sampleRate*5; i++ {
		tSec := float64(i) / sampleRate
		s.Advance(pulseFrame(1.0, tSec), nil, int64(tSec*1000))
	}
	if s.chain.Len() == 0 {
		t.Fatal("expected some buffered samples before reset")
	}
	s.Reset()
	if s.chain.Len() != 0 {
		t.Fatalf("expected an empty buffer after reset, got %d", s.chain.Len())
	}
	out := s.Advance(pulseFrame(1.0, 0), nil, 0)
	if out.Display.State != calib.StateCalibrating {
		t.Fatalf("expected calibration to restart after reset, got state %v", out.Display.State)
	}
}
