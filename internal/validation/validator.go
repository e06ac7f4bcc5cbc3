// Package validation implements the multi-validator quality gate. The set of
// validators is closed and known at compile time; the gate dispatches over a
// fixed ordered list rather than an open plugin registry.
package validation

import (
	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
	"github.com/revsmoke/scanplan-precision/internal/timeutil"
)

// Input carries everything the validators inspect for one measurement.
type Input struct {
	Raw         measure.RawMeasurement
	Compensated measure.CompensatedValue
	Assessment  measure.AccuracyAssessment
	Frame       motion.Sample
	// Recent holds recent compensated values of the same kind, oldest
	// first, for temporal and statistical checks.
	Recent []float64
}

// Result is one validator's verdict.
type Result struct {
	Precision float64
	Errors    []measure.Issue
	Warnings  []measure.Issue
}

// Validator is an independent check contributing a precision score and
// issues to overall measurement validity.
type Validator interface {
	Name() string
	Validate(in Input) Result
}

// Gate runs the fixed validator list and combines their verdicts.
//
// The gate's precision score is the minimum across validators: a single
// failing validator must not be diluted by passing ones. Validator
// disagreement is never resolved by averaging.
type Gate struct {
	validators   []Validator
	minPrecision float64
	clock        timeutil.Clock
}

// NewGate builds the gate with the standard validator order: precision,
// consistency, outlier, physical-constraint.
func NewGate(minPrecision float64, required measure.Accuracy, clock timeutil.Clock) *Gate {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Gate{
		validators: []Validator{
			NewPrecisionValidator(required),
			NewConsistencyValidator(),
			NewOutlierValidator(),
			NewPhysicalValidator(),
		},
		minPrecision: minPrecision,
		clock:        clock,
	}
}

// MinPrecision returns the configured validity threshold.
func (g *Gate) MinPrecision() float64 {
	return g.minPrecision
}

// Validate runs every validator and aggregates. No validator's opinion is
// excluded: one that cannot complete reports a major or critical error
// rather than silently skipping.
func (g *Gate) Validate(in Input) measure.Validation {
	precision := 1.0
	var errs, warns []measure.Issue

	for _, v := range g.validators {
		res := v.Validate(in)
		if res.Precision < precision {
			precision = res.Precision
		}
		errs = append(errs, res.Errors...)
		warns = append(warns, res.Warnings...)
	}
	if precision < 0 {
		precision = 0
	}

	confidence := in.Compensated.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return measure.Validation{
		IsValid:         len(errs) == 0 && precision >= g.minPrecision,
		PrecisionScore:  precision,
		ConfidenceScore: confidence,
		QualityScore:    (precision + confidence) / 2,
		Errors:          errs,
		Warnings:        warns,
		Timestamp:       g.clock.Now(),
	}
}

func issue(validator string, sev measure.Severity, msg string) measure.Issue {
	return measure.Issue{Validator: validator, Severity: sev, Message: msg}
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
