package validation

import (
	"fmt"

	"github.com/revsmoke/scanplan-precision/internal/measure"
)

// PrecisionValidator grades the assessed error bound against the session's
// required accuracy tier.
type PrecisionValidator struct {
	required measure.Accuracy
}

// NewPrecisionValidator returns a precision validator for the given tier.
func NewPrecisionValidator(required measure.Accuracy) *PrecisionValidator {
	return &PrecisionValidator{required: required}
}

func (v *PrecisionValidator) Name() string { return "precision" }

// Validate scores how far inside (or outside) the required tier the
// estimated error falls. Within the tier the score stays in [0.9, 1.0] so a
// requirement-meeting measurement is never invalidated on precision alone;
// beyond the tier it decays with the overshoot and past twice the bound it
// is a major error.
func (v *PrecisionValidator) Validate(in Input) Result {
	bound := v.required.Bound()
	est := in.Assessment.EstimatedError
	if est < 0 {
		return Result{
			Precision: 0,
			Errors:    []measure.Issue{issue(v.Name(), measure.SeverityCritical, "negative estimated error")},
		}
	}

	ratio := est / bound
	if ratio <= 1 {
		return Result{Precision: 1 - 0.1*ratio}
	}

	res := Result{Precision: clamp01(bound / est)}
	msg := fmt.Sprintf("estimated error %.4fm exceeds required %s bound %.4fm", est, v.required, bound)
	if ratio > 2 {
		res.Errors = append(res.Errors, issue(v.Name(), measure.SeverityMajor, msg))
	} else {
		res.Warnings = append(res.Warnings, issue(v.Name(), measure.SeverityWarning, msg))
	}
	return res
}
