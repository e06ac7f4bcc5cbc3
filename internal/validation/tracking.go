package validation

import (
	"gonum.org/v1/gonum/stat"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// TrackingState mirrors the AR session's tracking quality as reported by the
// platform layer. The frame is opaque to the core: it is inspected, never
// mutated.
type TrackingState string

const (
	TrackingNormal       TrackingState = "normal"
	TrackingLimited      TrackingState = "limited"
	TrackingNotAvailable TrackingState = "not_available"
)

// TrackingFrame is the per-frame pose snapshot handed in by the AR session.
type TrackingFrame struct {
	State    TrackingState  `json:"state"`
	Position motion.Vector3 `json:"position"`
	Attitude motion.Attitude `json:"attitude"`
}

// TrackingQuality is the graded verdict on tracking health.
type TrackingQuality string

const (
	TrackingQualityExcellent TrackingQuality = "excellent"
	TrackingQualityGood      TrackingQuality = "good"
	TrackingQualityFair      TrackingQuality = "fair"
	TrackingQualityPoor      TrackingQuality = "poor"
)

// TrackingValidationResult combines tracking-state and motion-history
// evidence into a quality tier plus scores in [0,1].
type TrackingValidationResult struct {
	Quality     TrackingQuality `json:"quality"`
	Consistency float64         `json:"consistency"`
	Stability   float64         `json:"stability"`
	Issues      []measure.Issue `json:"issues,omitempty"`
}

// TrackingValidator grades AR tracking frames against the motion history.
type TrackingValidator struct {
	classifier motion.Classifier
}

// NewTrackingValidator builds a tracking validator using the same
// classification policy as motion ingest.
func NewTrackingValidator(classifier motion.Classifier) *TrackingValidator {
	return &TrackingValidator{classifier: classifier}
}

// Validate scores one tracking frame. Stability is the fraction of recent
// samples classifying as stable; consistency falls with the variance of
// motion magnitudes across the window. The AR session is never modified.
func (v *TrackingValidator) Validate(frame TrackingFrame, samples []motion.Sample) TrackingValidationResult {
	res := TrackingValidationResult{Consistency: 0, Stability: 0}

	switch frame.State {
	case TrackingNotAvailable:
		res.Issues = append(res.Issues, issue("tracking", measure.SeverityCritical, "tracking not available"))
		res.Quality = TrackingQualityPoor
		return res
	case TrackingLimited:
		res.Issues = append(res.Issues, issue("tracking", measure.SeverityMajor, "tracking is limited"))
	}

	if len(samples) == 0 {
		res.Issues = append(res.Issues, issue("tracking", measure.SeverityWarning, "no motion history to corroborate tracking"))
		res.Quality = TrackingQualityPoor
		return res
	}

	stableCount := 0
	mags := make([]float64, len(samples))
	for i, s := range samples {
		mags[i] = s.Magnitude(v.classifier.AngularWeight)
		if v.classifier.Classify(s) == motion.StateStable {
			stableCount++
		}
	}
	res.Stability = float64(stableCount) / float64(len(samples))

	variance := stat.Variance(mags, nil)
	if len(samples) < 2 {
		variance = 0
	}
	// Normalize variance against the stability threshold so consistency is
	// unitless: variance at threshold² maps to zero.
	denom := v.classifier.MotionThreshold * v.classifier.MotionThreshold
	if denom > 0 {
		res.Consistency = clamp01(1 - variance/denom)
	}

	res.Quality = trackingQuality(frame.State, res.Stability, res.Consistency)
	if res.Quality == TrackingQualityPoor {
		res.Issues = append(res.Issues, issue("tracking", measure.SeverityWarning, "device motion too erratic for reliable tracking"))
	}
	return res
}

func trackingQuality(state TrackingState, stability, consistency float64) TrackingQuality {
	score := (stability + consistency) / 2
	if state == TrackingLimited && score > 0.75 {
		score = 0.75 // limited tracking caps the tier
	}
	switch {
	case score >= 0.9:
		return TrackingQualityExcellent
	case score >= 0.75:
		return TrackingQualityGood
	case score >= 0.5:
		return TrackingQualityFair
	default:
		return TrackingQualityPoor
	}
}
