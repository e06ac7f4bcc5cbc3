// Package geometry implements the pure measurement primitives. Every
// function is a deterministic function of its input points; callers pass
// points already run through the calibration manager's enhancement
// transform.
package geometry

import (
	"errors"
	"math"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

var (
	// ErrInsufficientPoints is returned when a primitive receives fewer
	// points than its method requires.
	ErrInsufficientPoints = errors.New("geometry: insufficient points")
	// ErrDegenerate is returned for zero-length vectors and other inputs
	// with no defined result.
	ErrDegenerate = errors.New("geometry: degenerate input")
)

// Distance returns the Euclidean norm of the difference between two points,
// in meters.
func Distance(a, b motion.Vector3) float64 {
	return b.Sub(a).Norm()
}

// Perimeter returns the closed-polygon perimeter over the given vertices.
func Perimeter(points []motion.Vector3) (float64, error) {
	if len(points) < 3 {
		return 0, ErrInsufficientPoints
	}
	var total float64
	for i := range points {
		next := points[(i+1)%len(points)]
		total += Distance(points[i], next)
	}
	return total, nil
}

// Area computes the polygon area with the 2D shoelace formula,
// |Σ xᵢyᵢ₊₁ − xᵢ₊₁yᵢ| / 2, over the X/Y components. Points are treated as
// already projected and co-planar; no plane is fitted here. Requires at
// least three points.
func Area(points []motion.Vector3) (float64, error) {
	if len(points) < 3 {
		return 0, ErrInsufficientPoints
	}
	var sum float64
	for i := range points {
		next := points[(i+1)%len(points)]
		sum += points[i].X*next.Y - next.X*points[i].Y
	}
	return math.Abs(sum) / 2, nil
}

// Volume returns the axis-aligned bounding-box volume of at least four
// points. This is a deliberate conservative approximation, not a convex-hull
// or mesh-integral volume; downstream accuracy claims are calibrated against
// it.
func Volume(points []motion.Vector3) (float64, error) {
	if len(points) < 4 {
		return 0, ErrInsufficientPoints
	}
	minP, maxP := points[0], points[0]
	for _, p := range points[1:] {
		minP.X = math.Min(minP.X, p.X)
		minP.Y = math.Min(minP.Y, p.Y)
		minP.Z = math.Min(minP.Z, p.Z)
		maxP.X = math.Max(maxP.X, p.X)
		maxP.Y = math.Max(maxP.Y, p.Y)
		maxP.Z = math.Max(maxP.Z, p.Z)
	}
	ext := maxP.Sub(minP)
	return ext.X * ext.Y * ext.Z, nil
}

// Angle returns the angle at vertex between the rays to p1 and p2, as
// acos(clamp(dot(normalize(p1−v), normalize(p2−v)), −1, 1)), in radians and
// degrees. A zero-length ray yields ErrDegenerate.
func Angle(vertex, p1, p2 motion.Vector3) (radians, degrees float64, err error) {
	u := p1.Sub(vertex)
	w := p2.Sub(vertex)
	un := u.Norm()
	wn := w.Norm()
	if un == 0 || wn == 0 {
		return 0, 0, ErrDegenerate
	}
	cos := u.Dot(w) / (un * wn)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	radians = math.Acos(cos)
	degrees = radians * 180 / math.Pi
	return radians, degrees, nil
}

// Centroid returns the arithmetic mean of the points. Used for positioning
// measurements relative to the sensor.
func Centroid(points []motion.Vector3) motion.Vector3 {
	if len(points) == 0 {
		return motion.Vector3{}
	}
	var sum motion.Vector3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(points)))
}
