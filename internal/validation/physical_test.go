package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

func physInput(kind measure.Kind, value float64, points []motion.Vector3) Input {
	return Input{
		Raw: measure.RawMeasurement{
			Kind:      kind,
			Value:     value,
			Points:    points,
			Timestamp: testBase,
		},
		Compensated: measure.CompensatedValue{Value: value, Stage: measure.StageAngular, Confidence: 0.95},
	}
}

func square() []motion.Vector3 {
	return []motion.Vector3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
}

func TestPhysicalValidator(t *testing.T) {
	v := NewPhysicalValidator()

	tests := []struct {
		name         string
		in           Input
		wantSeverity measure.Severity // "" means no errors expected
	}{
		{"plausible distance", physInput(measure.KindDistance, 2.0, nil), ""},
		{"negative distance", physInput(measure.KindDistance, -0.5, nil), measure.SeverityCritical},
		{"distance beyond envelope", physInput(measure.KindDistance, 80, nil), measure.SeverityMajor},
		{"NaN value", physInput(measure.KindDistance, math.NaN(), nil), measure.SeverityCritical},
		{"infinite value", physInput(measure.KindArea, math.Inf(1), square()), measure.SeverityCritical},
		{"plausible area", physInput(measure.KindArea, 1.0, square()), ""},
		{"area with too few points", physInput(measure.KindArea, 1.0, square()[:2]), measure.SeverityCritical},
		{"area beyond envelope", physInput(measure.KindArea, 3000, square()), measure.SeverityMajor},
		{"plausible volume", physInput(measure.KindVolume, 30, square()), ""},
		{"volume with too few points", physInput(measure.KindVolume, 30, square()[:3]), measure.SeverityCritical},
		{"plausible angle", physInput(measure.KindAngle, 90, square()[:3]), ""},
		{"angle out of range", physInput(measure.KindAngle, 270, square()[:3]), measure.SeverityCritical},
		{"angle with too few points", physInput(measure.KindAngle, 90, square()[:2]), measure.SeverityCritical},
		{"unknown kind", physInput(measure.Kind("bogus"), 1, nil), measure.SeverityCritical},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.in)
			if tc.wantSeverity == "" {
				assert.Empty(t, res.Errors)
				return
			}
			if assert.NotEmpty(t, res.Errors) {
				assert.Equal(t, tc.wantSeverity, res.Errors[0].Severity)
			}
		})
	}
}

func TestPhysicalValidatorZeroValueWarns(t *testing.T) {
	v := NewPhysicalValidator()
	res := v.Validate(physInput(measure.KindDistance, 0, nil))

	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, 0.5, res.Precision)
}

func TestPhysicalValidatorDegeneratePolygon(t *testing.T) {
	v := NewPhysicalValidator()

	collinear := []motion.Vector3{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
	}
	res := v.Validate(physInput(measure.KindArea, 0.5, collinear))
	assert.NotEmpty(t, res.Errors, "collinear polygon must be rejected")

	res = v.Validate(physInput(measure.KindArea, 1.0, square()))
	assert.Empty(t, res.Errors)
}
