package calib

import "testing"

func TestCalibrationGateWithholdsDisplayDuringPeriod(t *testing.T) {
	s := NewSmoother(15000, 5000)
	s.StartSession(0)

	d := s.Tick(1000)
	if d.State != StateCalibrating {
		t.Fatalf("expected calibrating state, got %v", d.State)
	}
	if d.Progress < 0 || d.Progress > 100 {
		t.Fatalf("progress out of range: %d", d.Progress)
	}

	d = s.Tick(14999)
	if d.State != StateCalibrating {
		t.Fatalf("expected still calibrating just before the period ends, got %v", d.State)
	}
}

func TestCalibrationProgressIncreasesMonotonically(t *testing.T) {
	s := NewSmoother(15000, 5000)
	s.StartSession(0)
	prev := -1
	for _, now := range []int64{0, 2000, 6000, 10000, 14000} {
		d := s.Tick(now)
		if d.State != StateCalibrating {
			t.Fatalf("expected calibrating at t=%d", now)
		}
		if d.Progress < prev {
			t.Fatalf("progress decreased: prev=%d now=%d at t=%d", prev, d.Progress, now)
		}
		prev = d.Progress
	}
}

// After calibration ends, a stable run of estimates should resolve to a
// numeric BPM roughly displayDelay behind the feed.
func TestDelayedStabilityYieldsBPMAfterCalibration(t *testing.T) {
	s := NewSmoother(15000, 5000)
	s.StartSession(0)

	for ts := int64(0); ts <= 25000; ts += 1000 {
		s.AddEstimate(70, ts)
	}

	d := s.Tick(25000)
	if d.State != StateBPM {
		t.Fatalf("expected a numeric BPM after calibration with a stable history, got %v", d.State)
	}
	if d.BPM != 70 {
		t.Fatalf("expected BPM 70, got %d", d.BPM)
	}
}

func TestDelayedStabilityRejectsHighVarianceHistory(t *testing.T) {
	s := NewSmoother(15000, 5000)
	s.StartSession(0)

	bpms := []int{60, 120, 55, 130, 58, 128}
	ts := int64(0)
	for i := 0; i < 30; i++ {
		s.AddEstimate(bpms[i%len(bpms)], ts)
		ts += 1000
	}

	d := s.Tick(ts)
	if d.State != StateUnavailable {
		t.Fatalf("expected unavailable given high-variance history around t*, got %v (bpm=%d)", d.State, d.BPM)
	}
}

func TestDelayedStabilityUnavailableWithNoNearbyHistory(t *testing.T) {
	s := NewSmoother(15000, 5000)
	s.StartSession(0)
	s.AddEstimate(70, 0)

	// t* = 30000 - 5000 = 25000, far from the single record at t=0.
	d := s.Tick(30000)
	if d.State != StateUnavailable {
		t.Fatalf("expected unavailable with no history near t*, got %v", d.State)
	}
}

func TestAddEstimateTrimsHistoryOlderThanRetentionWindow(t *testing.T) {
	s := NewSmoother(15000, 5000)
	s.StartSession(0)
	for ts := int64(0); ts <= 40000; ts += 1000 {
		s.AddEstimate(70, ts)
	}
	for _, r := range s.history {
		if r.ts < 40000-(15000+5000) {
			t.Fatalf("found stale history record at ts=%d", r.ts)
		}
	}
}
