package validation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/revsmoke/scanplan-precision/internal/measure"
)

// OutlierValidator flags values that are statistical outliers against the
// recent distribution of same-kind measurements.
type OutlierValidator struct {
	// ZThreshold is the z-score above which a value counts as an outlier.
	ZThreshold float64
	// MinSamples is the minimum recent-value count for the statistics to be
	// meaningful.
	MinSamples int
}

// NewOutlierValidator returns the standard z-score outlier check.
func NewOutlierValidator() *OutlierValidator {
	return &OutlierValidator{ZThreshold: 3, MinSamples: 5}
}

func (v *OutlierValidator) Name() string { return "outlier" }

func (v *OutlierValidator) Validate(in Input) Result {
	if len(in.Recent) < v.MinSamples {
		return Result{
			Precision: 1,
			Warnings: []measure.Issue{issue(v.Name(), measure.SeverityWarning,
				fmt.Sprintf("only %d prior values, outlier statistics not yet meaningful", len(in.Recent)))},
		}
	}

	mean, std := stat.MeanStdDev(in.Recent, nil)
	if std < 1e-12 {
		// Degenerate distribution: all priors identical. Any departure is
		// judged by absolute distance instead of z-score.
		if math.Abs(in.Compensated.Value-mean) < 1e-9 {
			return Result{Precision: 1}
		}
		return Result{
			Precision: 0.5,
			Warnings: []measure.Issue{issue(v.Name(), measure.SeverityWarning,
				"value departs from a zero-variance history")},
		}
	}

	z := math.Abs(in.Compensated.Value-mean) / std
	if z <= v.ZThreshold {
		// Scale into [0.9, 1.0] inside the accepted band.
		return Result{Precision: 1 - 0.1*(z/v.ZThreshold)}
	}

	return Result{
		Precision: clamp01(v.ZThreshold / z * 0.5),
		Errors: []measure.Issue{issue(v.Name(), measure.SeverityMajor,
			fmt.Sprintf("z-score %.2f exceeds outlier threshold %.2f", z, v.ZThreshold))},
	}
}
