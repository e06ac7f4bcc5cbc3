package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/revsmoke/scanplan-precision/internal/measure"
)

// ConsistencyValidator checks temporal consistency: how far the new value
// deviates from the rolling mean of recent values of the same kind.
type ConsistencyValidator struct {
	// MaxDeviation is the relative deviation from the rolling mean that
	// still passes cleanly.
	MaxDeviation float64
	// MinSamples is how many recent values are needed before the check has
	// anything to compare against.
	MinSamples int
}

// NewConsistencyValidator returns the standard temporal consistency check.
func NewConsistencyValidator() *ConsistencyValidator {
	return &ConsistencyValidator{MaxDeviation: 0.1, MinSamples: 3}
}

func (v *ConsistencyValidator) Name() string { return "consistency" }

// Validate compares the compensated value against the rolling mean. The
// first measurements of a session have no history to disagree with; they
// pass with a warning rather than an error, since absent history is not a
// degenerate input.
func (v *ConsistencyValidator) Validate(in Input) Result {
	if len(in.Recent) < v.MinSamples {
		return Result{
			Precision: 1,
			Warnings: []measure.Issue{issue(v.Name(), measure.SeverityWarning,
				fmt.Sprintf("only %d prior values, temporal consistency not yet meaningful", len(in.Recent)))},
		}
	}

	mean := stat.Mean(in.Recent, nil)
	denom := math.Max(math.Abs(mean), 1e-9)
	deviation := math.Abs(in.Compensated.Value-mean) / denom

	switch {
	case deviation <= v.MaxDeviation:
		// Scale into [0.9, 1.0] across the accepted band.
		return Result{Precision: 1 - 0.1*(deviation/v.MaxDeviation)}
	case deviation <= 5*v.MaxDeviation:
		return Result{
			Precision: clamp01(1 - deviation),
			Warnings: []measure.Issue{issue(v.Name(), measure.SeverityWarning,
				fmt.Sprintf("value deviates %.1f%% from rolling mean", deviation*100))},
		}
	default:
		return Result{
			Precision: clamp01(1 - deviation),
			Errors: []measure.Issue{issue(v.Name(), measure.SeverityMajor,
				fmt.Sprintf("value deviates %.1f%% from rolling mean", deviation*100))},
		}
	}
}
