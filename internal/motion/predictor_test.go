package motion

import (
	"testing"
	"time"
)

func feed(n int, accel Vector3) []Sample {
	out := make([]Sample, n)
	for i := range out {
		out[i] = Sample{
			Timestamp:        historyBase.Add(time.Duration(i) * 16 * time.Millisecond),
			UserAcceleration: accel,
			Gravity:          Vector3{Z: -StandardGravity},
		}
	}
	return out
}

func TestPredictEmptyHistory(t *testing.T) {
	p := DefaultPredictor()
	if _, ok := p.Predict(nil, 100*time.Millisecond); ok {
		t.Error("Predict(nil) reported a prediction")
	}
}

func TestPredictStationary(t *testing.T) {
	p := DefaultPredictor()
	pred, ok := p.Predict(feed(10, Vector3{}), 100*time.Millisecond)
	if !ok {
		t.Fatal("Predict() reported no prediction for a full window")
	}
	if v := pred.LinearVelocity.Norm(); v != 0 {
		t.Errorf("stationary feed predicted velocity %v, want 0", v)
	}
	if pred.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", pred.Confidence)
	}
	if pred.Confidence > 1 {
		t.Errorf("Confidence = %v, want <= 1", pred.Confidence)
	}
}

func TestPredictAcceleratingFeed(t *testing.T) {
	p := DefaultPredictor()
	pred, ok := p.Predict(feed(10, Vector3{X: 1}), 100*time.Millisecond)
	if !ok {
		t.Fatal("Predict() reported no prediction")
	}
	// 1 m/s² integrated over ~144ms of window plus 100ms of horizon.
	if pred.LinearVelocity.X <= 0 {
		t.Errorf("LinearVelocity.X = %v, want positive", pred.LinearVelocity.X)
	}
}

func TestPredictConfidenceDecaysWithHorizon(t *testing.T) {
	p := DefaultPredictor()
	samples := feed(10, Vector3{})

	horizons := []time.Duration{
		16 * time.Millisecond,
		100 * time.Millisecond,
		500 * time.Millisecond,
		2 * time.Second,
	}
	prev := 1.1
	for _, h := range horizons {
		pred, ok := p.Predict(samples, h)
		if !ok {
			t.Fatalf("Predict(%v) reported no prediction", h)
		}
		if pred.Confidence >= prev {
			t.Errorf("Confidence(%v) = %v, want < %v", h, pred.Confidence, prev)
		}
		prev = pred.Confidence
	}
}

func TestPredictConfidenceScalesWithWindowFill(t *testing.T) {
	p := DefaultPredictor()
	sparse, ok := p.Predict(feed(3, Vector3{}), 100*time.Millisecond)
	if !ok {
		t.Fatal("sparse Predict() reported no prediction")
	}
	full, ok := p.Predict(feed(10, Vector3{}), 100*time.Millisecond)
	if !ok {
		t.Fatal("full Predict() reported no prediction")
	}
	if sparse.Confidence >= full.Confidence {
		t.Errorf("sparse window confidence %v not below full window %v", sparse.Confidence, full.Confidence)
	}
}

func TestPredictDeterministic(t *testing.T) {
	p := DefaultPredictor()
	samples := feed(10, Vector3{X: 0.3, Y: -0.1})
	a, _ := p.Predict(samples, 100*time.Millisecond)
	b, _ := p.Predict(samples, 100*time.Millisecond)
	if a != b {
		t.Errorf("Predict() not reproducible: %+v vs %+v", a, b)
	}
}
