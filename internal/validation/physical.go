package validation

import (
	"fmt"
	"math"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// PhysicalValidator rejects measurements that violate physical constraints:
// negative magnitudes, degenerate geometry, values outside the plausible
// envelope of an indoor scan.
type PhysicalValidator struct {
	MaxDistance float64 // meters
	MaxArea     float64 // m²
	MaxVolume   float64 // m³
}

// NewPhysicalValidator returns limits sized for room scanning.
func NewPhysicalValidator() *PhysicalValidator {
	return &PhysicalValidator{
		MaxDistance: 50,
		MaxArea:     2500,
		MaxVolume:   10000,
	}
}

func (v *PhysicalValidator) Name() string { return "physical" }

// Validate applies kind-specific constraints. A check that cannot complete,
// such as an area with fewer than three points, reports a critical error
// rather than silently skipping.
func (v *PhysicalValidator) Validate(in Input) Result {
	var res Result
	res.Precision = 1

	val := in.Compensated.Value
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return Result{Errors: []measure.Issue{issue(v.Name(), measure.SeverityCritical, "non-finite measurement value")}}
	}

	switch in.Raw.Kind {
	case measure.KindDistance:
		v.checkScalar(&res, val, v.MaxDistance, "distance")
	case measure.KindArea:
		if len(in.Raw.Points) < 3 {
			return Result{Errors: []measure.Issue{issue(v.Name(), measure.SeverityCritical,
				fmt.Sprintf("area requires at least 3 points, got %d", len(in.Raw.Points)))}}
		}
		if degeneratePolygon(in.Raw.Points) {
			res.Precision = 0
			res.Errors = append(res.Errors, issue(v.Name(), measure.SeverityMajor, "degenerate polygon: vertices are collinear or coincident"))
		}
		v.checkScalar(&res, val, v.MaxArea, "area")
	case measure.KindVolume:
		if len(in.Raw.Points) < 4 {
			return Result{Errors: []measure.Issue{issue(v.Name(), measure.SeverityCritical,
				fmt.Sprintf("volume requires at least 4 points, got %d", len(in.Raw.Points)))}}
		}
		v.checkScalar(&res, val, v.MaxVolume, "volume")
	case measure.KindAngle:
		if len(in.Raw.Points) < 3 {
			return Result{Errors: []measure.Issue{issue(v.Name(), measure.SeverityCritical,
				fmt.Sprintf("angle requires vertex plus 2 points, got %d", len(in.Raw.Points)))}}
		}
		if val < 0 || val > 180 {
			res.Precision = 0
			res.Errors = append(res.Errors, issue(v.Name(), measure.SeverityCritical,
				fmt.Sprintf("angle %.2f° outside [0, 180]", val)))
		}
	default:
		return Result{Errors: []measure.Issue{issue(v.Name(), measure.SeverityCritical,
			fmt.Sprintf("unknown measurement kind %q", in.Raw.Kind))}}
	}

	return res
}

func (v *PhysicalValidator) checkScalar(res *Result, val, maxVal float64, what string) {
	switch {
	case val < 0:
		res.Precision = 0
		res.Errors = append(res.Errors, issue(v.Name(), measure.SeverityCritical,
			fmt.Sprintf("negative %s %.4f", what, val)))
	case val == 0:
		res.Precision = minf(res.Precision, 0.5)
		res.Warnings = append(res.Warnings, issue(v.Name(), measure.SeverityWarning,
			fmt.Sprintf("zero %s", what)))
	case val > maxVal:
		res.Precision = 0
		res.Errors = append(res.Errors, issue(v.Name(), measure.SeverityMajor,
			fmt.Sprintf("%s %.2f exceeds plausible maximum %.2f", what, val, maxVal)))
	}
}

// degeneratePolygon reports whether all vertices are effectively collinear
// or coincident, which makes an area measurement meaningless.
func degeneratePolygon(points []motion.Vector3) bool {
	const eps = 1e-12
	a := points[0]
	var dir motion.Vector3
	found := false
	for _, p := range points[1:] {
		d := p.Sub(a)
		if d.Norm() > 1e-9 {
			dir = d
			found = true
			break
		}
	}
	if !found {
		return true // all points coincident
	}
	for _, p := range points[1:] {
		d := p.Sub(a)
		// Cross product magnitude near zero means collinear with dir.
		cx := dir.Y*d.Z - dir.Z*d.Y
		cy := dir.Z*d.X - dir.X*d.Z
		cz := dir.X*d.Y - dir.Y*d.X
		if cx*cx+cy*cy+cz*cz > eps {
			return false
		}
	}
	return true
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
