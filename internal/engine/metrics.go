package engine

import (
	"gonum.org/v1/gonum/stat"

	"github.com/revsmoke/scanplan-precision/internal/measure"
)

// Metrics summarizes recent engine performance over the bounded result
// histories.
type Metrics struct {
	Compensations int `json:"compensations"`
	Validations   int `json:"validations"`

	// MeanConfidence is the mean chain confidence of recent compensations.
	MeanConfidence float64 `json:"mean_confidence"`

	// RollingPrecision is the mean precision score of recent validations;
	// the calibration staleness policy watches this value.
	RollingPrecision float64 `json:"rolling_precision"`

	// PassRate is the fraction of recent validations that were valid.
	PassRate float64 `json:"pass_rate"`

	// MeanQuality is the mean quality score of recent validations.
	MeanQuality float64 `json:"mean_quality"`
}

// resultLog keeps the bounded compensation and validation outcomes the
// metrics derive from. The engine's mutex guards it.
type resultLog struct {
	window      int
	confidences []float64
	precisions  []float64
	qualities   []float64
	passed      []bool
}

func newResultLog(window int) *resultLog {
	return &resultLog{window: window}
}

func (l *resultLog) add(comp measure.CompensatedValue, verdict measure.Validation) {
	l.confidences = appendBounded(l.confidences, comp.Confidence, l.window)
	l.precisions = appendBounded(l.precisions, verdict.PrecisionScore, l.window)
	l.qualities = appendBounded(l.qualities, verdict.QualityScore, l.window)

	l.passed = append(l.passed, verdict.IsValid)
	if len(l.passed) > l.window {
		l.passed = l.passed[len(l.passed)-l.window:]
	}
}

func (l *resultLog) metrics() Metrics {
	m := Metrics{
		Compensations: len(l.confidences),
		Validations:   len(l.precisions),
	}
	if len(l.confidences) > 0 {
		m.MeanConfidence = stat.Mean(l.confidences, nil)
	}
	if len(l.precisions) > 0 {
		m.RollingPrecision = stat.Mean(l.precisions, nil)
		m.MeanQuality = stat.Mean(l.qualities, nil)

		pass := 0
		for _, ok := range l.passed {
			if ok {
				pass++
			}
		}
		m.PassRate = float64(pass) / float64(len(l.passed))
	} else {
		// No validations yet: report full precision so an idle engine does
		// not demand recalibration.
		m.RollingPrecision = 1
	}
	return m
}

func appendBounded(xs []float64, v float64, window int) []float64 {
	xs = append(xs, v)
	if len(xs) > window {
		xs = xs[len(xs)-window:]
	}
	return xs
}
