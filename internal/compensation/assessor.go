package compensation

import (
	"math"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// Assessor converts compensation effectiveness and residual motion into an
// accuracy assessment. It is stateless; assessments are recomputed per
// validation cycle rather than stored.
type Assessor struct {
	// Required is the session's required accuracy tier.
	Required measure.Accuracy

	// AccuracyTarget mirrors the pipeline's target in meters.
	AccuracyTarget float64

	// LinearScale and AngularWeight mirror the pipeline/classifier policy
	// constants so the assessor prices residual motion the same way the
	// pipeline corrected for it.
	LinearScale   float64
	AngularWeight float64

	// NoiseFloor is the irreducible sensor noise in meters. Even a perfectly
	// still device cannot measure below it.
	NoiseFloor float64
}

// NewAssessor builds an assessor consistent with the given pipeline options.
func NewAssessor(opts Options, angularWeight float64) Assessor {
	return Assessor{
		Required:       opts.RequiredAccuracy,
		AccuracyTarget: opts.AccuracyTarget,
		LinearScale:    opts.LinearScale,
		AngularWeight:  angularWeight,
		NoiseFloor:     0.0003,
	}
}

// Assess grades a compensated value against the motion frame it was
// corrected with. The estimated error bound combines three terms: the noise
// floor, the motion-induced error the compensation did not claim, and a
// penalty for low chain confidence. MeetsRequirements is true iff the bound
// is within the required tier's upper bound.
func (a Assessor) Assess(raw measure.RawMeasurement, comp measure.CompensatedValue, frame motion.Sample) measure.AccuracyAssessment {
	if comp.Confidence < 0 || math.IsNaN(comp.Value) || math.IsInf(comp.Value, 0) {
		return measure.ConservativeAssessment()
	}

	residualMotion := frame.Magnitude(a.AngularWeight)
	motionError := residualMotion * math.Max(raw.Distance, 0) * a.LinearScale

	// Effectiveness from the original-vs-compensated delta: how much of the
	// predicted motion error the chain actually removed.
	applied := math.Abs(raw.Value - comp.Value)
	effectiveness := 1.0
	if motionError > 0 {
		effectiveness = clamp01(applied / motionError)
	}

	bound := a.NoiseFloor + motionError*(1-effectiveness)
	if a.AccuracyTarget > 0 {
		bound += (1 - clamp01(comp.Confidence)) * a.AccuracyTarget
	}

	tier := measure.ClassifyError(bound)
	return measure.AccuracyAssessment{
		EstimatedError:    bound,
		Confidence:        clamp01(comp.Confidence),
		MeetsRequirements: bound <= a.Required.Bound(),
		Tier:              tier,
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
