package motion

import (
	"time"
)

// Prediction is a short-horizon extrapolation of device motion. It is
// advisory only: the compensation pipeline's predictive stage is its sole
// consumer.
type Prediction struct {
	LinearVelocity  Vector3       `json:"linear_velocity"`  // m/s
	AngularVelocity Vector3       `json:"angular_velocity"` // rad/s
	TimeAhead       time.Duration `json:"time_ahead"`
	Confidence      float64       `json:"confidence"`
}

// Predictor extrapolates future velocity from the most recent samples of a
// history snapshot. It is a pure function of the snapshot, so callers may
// bound it with a timeout without risking shared state.
type Predictor struct {
	// Window is the maximum number of trailing samples integrated for the
	// velocity estimate.
	Window int
	// DecayFactor is the per-sampling-interval geometric decay applied to
	// confidence as the horizon grows. Confidence is reduced geometrically:
	// conf = decay^(ahead/meanInterval), so doubling the horizon squares the
	// penalty.
	DecayFactor float64
}

// DefaultPredictor returns a predictor tuned for a 60 Hz feed.
func DefaultPredictor() Predictor {
	return Predictor{Window: 10, DecayFactor: 0.9}
}

// Predict extrapolates motion ahead of the newest sample. It reports false
// when the snapshot is empty. Accuracy improves monotonically with more
// history: the velocity estimate integrates acceleration over up to Window
// trailing samples, and confidence scales with how much of that window is
// populated.
func (p Predictor) Predict(samples []Sample, ahead time.Duration) (Prediction, bool) {
	n := len(samples)
	if n == 0 {
		return Prediction{}, false
	}

	window := p.Window
	if window < 2 {
		window = 2
	}
	start := n - window
	if start < 0 {
		start = 0
	}
	recent := samples[start:]
	latest := recent[len(recent)-1]

	// Velocity from trapezoidal integration of user acceleration across the
	// window, then extrapolated by the newest acceleration over the horizon.
	var vel Vector3
	var meanInterval float64
	if len(recent) >= 2 {
		var spanSeconds float64
		for i := 1; i < len(recent); i++ {
			dt := recent[i].Timestamp.Sub(recent[i-1].Timestamp).Seconds()
			if dt <= 0 {
				continue
			}
			spanSeconds += dt
			avg := recent[i].UserAcceleration.Add(recent[i-1].UserAcceleration).Scale(0.5)
			vel = vel.Add(avg.Scale(dt))
		}
		if spanSeconds > 0 {
			meanInterval = spanSeconds / float64(len(recent)-1)
		}
	}
	vel = vel.Add(latest.UserAcceleration.Scale(ahead.Seconds()))

	// Angular velocity straight from the newest rotation rate; a finite
	// difference over the last two samples refines the trend.
	angular := latest.RotationRate
	if len(recent) >= 2 {
		prev := recent[len(recent)-2]
		angular = latest.RotationRate.Add(latest.RotationRate.Sub(prev.RotationRate).Scale(0.5))
	}

	conf := p.confidence(len(recent), ahead, meanInterval)
	return Prediction{
		LinearVelocity:  vel,
		AngularVelocity: angular,
		TimeAhead:       ahead,
		Confidence:      conf,
	}, true
}

func (p Predictor) confidence(populated int, ahead time.Duration, meanInterval float64) float64 {
	decay := p.DecayFactor
	if decay <= 0 || decay >= 1 {
		decay = 0.9
	}
	if meanInterval <= 0 {
		meanInterval = 1.0 / 60.0
	}

	// Geometric decay with horizon length relative to the sampling interval.
	intervals := ahead.Seconds() / meanInterval
	conf := powf(decay, intervals)

	// A sparsely populated window caps confidence.
	fill := float64(populated) / float64(max(p.Window, 2))
	if fill > 1 {
		fill = 1
	}
	conf *= fill

	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

// powf computes an approximate base^exp for 0 < base < 1 using repeated
// multiplication plus linear interpolation on the fractional part. The
// piecewise form is monotone in exp and reproducible across platforms.
func powf(base, exp float64) float64 {
	if exp <= 0 {
		return 1
	}
	result := 1.0
	whole := int(exp)
	for i := 0; i < whole; i++ {
		result *= base
	}
	frac := exp - float64(whole)
	if frac > 0 {
		// Linear interpolation between base^whole and base^(whole+1) keeps
		// the decay monotone without pulling in transcendental rounding
		// differences across platforms.
		result *= 1 - frac*(1-base)
	}
	return result
}
