package signal

import (
	"math"
	"testing"
)

func TestProcessUnavailableBelowMinimumSamples(t *testing.T) {
	c, err := NewChain(30, 450, 450, 512)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	for i := 0; i < 29; i++ {
		c.AddSample(float64(i))
	}
	if _, _, ok := c.Process(); ok {
		t.Fatal("expected unavailable with fewer than 30 samples")
	}
}

func TestBufferBoundAndOrdering(t *testing.T) {
	c, err := NewChain(30, 450, 450, 512)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	const k = 600
	for i := 0; i < k; i++ {
		c.AddSample(float64(i))
	}
	if c.Len() != 450 {
		t.Fatalf("expected ring buffer length 450, got %d", c.Len())
	}
	snap := c.main.Snapshot(nil)
	for i := 1; i < len(snap); i++ {
		if snap[i] <= snap[i-1] {
			t.Fatalf("expected strictly increasing temporal order, snap[%d]=%v snap[%d]=%v", i-1, snap[i-1], i, snap[i])
		}
	}
	// oldest sample age should be exactly (len-1)/sampleRate seconds of
	// pushes behind the newest given monotonically increasing inputs.
	if snap[0] != float64(k-450) {
		t.Fatalf("expected oldest retained sample %v, got %v", float64(k-450), snap[0])
	}
}

func TestOutlierClippingRespectsInputStatistics(t *testing.T) {
	c, err := NewChain(30, 450, 450, 512)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	for i := 0; i < 100; i++ {
		c.AddSample(1.0)
	}
	c.AddSample(1000.0) // a wild outlier amid a steady signal

	raw := c.main.Snapshot(nil)
	mu := mean(raw)
	sigma := stddev(raw, mu)

	processed, _, ok := c.Process()
	if !ok {
		t.Fatal("expected a processed result")
	}
	// The bandpass/smoothing stages move values away from the raw
	// clipped values, but the clipping bound is on the intermediate
	// clipped series; verify indirectly that the huge outlier didn't
	// propagate an order-of-magnitude spike into the output.
	maxAbs := 0.0
	for _, v := range processed {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > mu+2*sigma+10 {
		t.Fatalf("expected outlier to be clipped before filtering, got max|processed|=%v (mu=%v sigma=%v)", maxAbs, mu, sigma)
	}
}

func TestMotionDetectionFlagsHighVarianceOfVariances(t *testing.T) {
	c, err := NewChain(30, 450, 450, 512)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	// Calm seconds alternating with a single explosive second.
	for sec := 0; sec < 15; sec++ {
		if sec == 7 {
			for i := 0; i < 30; i++ {
				c.AddSample(float64(i%2) * 1000)
			}
			continue
		}
		for i := 0; i < 30; i++ {
			c.AddSample(0.001 * float64(i))
		}
	}
	if _, _, ok := c.Process(); !ok {
		t.Fatal("expected a processed result")
	}
	if !c.MotionDetected() {
		t.Fatal("expected motion to be detected given one highly anomalous second")
	}
}

func TestQualityLabelInsufficientBelowMinimum(t *testing.T) {
	c, err := NewChain(30, 450, 450, 512)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	_, q, ok := c.Process()
	if ok {
		t.Fatal("expected unavailable")
	}
	if q.Label != QualityInsufficient {
		t.Fatalf("expected insufficient label, got %v", q.Label)
	}
}

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func stddev(x []float64, mu float64) float64 {
	var sumSq float64
	for _, v := range x {
		d := v - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(x)))
}
