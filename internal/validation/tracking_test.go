package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

func trackingClassifier() motion.Classifier {
	return motion.Classifier{
		MotionThreshold:      0.1,
		AngularWeight:        0.1,
		HighMotionMultiplier: 2,
		StabilityDuration:    2 * time.Second,
	}
}

func motionWindow(n int, accel float64) []motion.Sample {
	out := make([]motion.Sample, n)
	for i := range out {
		out[i] = motion.Sample{
			Timestamp:        testBase.Add(time.Duration(i) * 16 * time.Millisecond),
			UserAcceleration: motion.Vector3{X: accel},
			Gravity:          motion.Vector3{Z: -motion.StandardGravity},
		}
	}
	return out
}

func TestTrackingValidatorStableWindow(t *testing.T) {
	v := NewTrackingValidator(trackingClassifier())
	frame := TrackingFrame{State: TrackingNormal}

	got := v.Validate(frame, motionWindow(30, 0.01))

	assert.Equal(t, TrackingQualityExcellent, got.Quality)
	assert.Equal(t, 1.0, got.Stability)
	assert.GreaterOrEqual(t, got.Consistency, 0.99)
	assert.Empty(t, got.Issues)
}

func TestTrackingValidatorNotAvailable(t *testing.T) {
	v := NewTrackingValidator(trackingClassifier())
	got := v.Validate(TrackingFrame{State: TrackingNotAvailable}, motionWindow(30, 0.01))

	assert.Equal(t, TrackingQualityPoor, got.Quality)
	if assert.NotEmpty(t, got.Issues) {
		assert.Equal(t, measure.SeverityCritical, got.Issues[0].Severity)
	}
}

func TestTrackingValidatorLimitedCapsQuality(t *testing.T) {
	v := NewTrackingValidator(trackingClassifier())
	got := v.Validate(TrackingFrame{State: TrackingLimited}, motionWindow(30, 0.01))

	// Perfectly still motion would grade excellent, but limited tracking
	// caps the tier at good.
	assert.Equal(t, TrackingQualityGood, got.Quality)
	assert.NotEmpty(t, got.Issues)
}

func TestTrackingValidatorErraticMotion(t *testing.T) {
	v := NewTrackingValidator(trackingClassifier())

	samples := motionWindow(30, 0.01)
	for i := range samples {
		if i%2 == 0 {
			samples[i].UserAcceleration = motion.Vector3{X: 0.5}
		}
	}

	got := v.Validate(TrackingFrame{State: TrackingNormal}, samples)
	assert.NotEqual(t, TrackingQualityExcellent, got.Quality)
	assert.Less(t, got.Stability, 0.6)
}

func TestTrackingValidatorNoHistory(t *testing.T) {
	v := NewTrackingValidator(trackingClassifier())
	got := v.Validate(TrackingFrame{State: TrackingNormal}, nil)

	assert.Equal(t, TrackingQualityPoor, got.Quality)
	assert.NotEmpty(t, got.Issues)
}
