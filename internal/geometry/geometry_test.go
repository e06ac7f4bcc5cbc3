package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

func v(x, y, z float64) motion.Vector3 { return motion.Vector3{X: x, Y: y, Z: z} }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b motion.Vector3
		want float64
	}{
		{"same point", v(1, 2, 3), v(1, 2, 3), 0},
		{"unit x", v(0, 0, 0), v(1, 0, 0), 1},
		{"two meters", v(0, 0, 0), v(2, 0, 0), 2},
		{"3-4-5 triangle", v(0, 0, 0), v(3, 4, 0), 5},
		{"symmetric", v(3, 4, 0), v(0, 0, 0), 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Distance(tc.a, tc.b); !almostEqual(got, tc.want) {
				t.Errorf("Distance() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPerimeter(t *testing.T) {
	square := []motion.Vector3{v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0)}
	got, err := Perimeter(square)
	if err != nil {
		t.Fatalf("Perimeter(square) error: %v", err)
	}
	if !almostEqual(got, 4.0) {
		t.Errorf("Perimeter(unit square) = %v, want 4.0", got)
	}

	if _, err := Perimeter(square[:2]); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("Perimeter(2 points) error = %v, want ErrInsufficientPoints", err)
	}
}

func TestArea(t *testing.T) {
	tests := []struct {
		name   string
		points []motion.Vector3
		want   float64
	}{
		{"unit square", []motion.Vector3{v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0)}, 1.0},
		{"triangle", []motion.Vector3{v(0, 0, 0), v(2, 0, 0), v(0, 2, 0)}, 2.0},
		{"winding order irrelevant", []motion.Vector3{v(0, 1, 0), v(1, 1, 0), v(1, 0, 0), v(0, 0, 0)}, 1.0},
		{"collinear", []motion.Vector3{v(0, 0, 0), v(1, 0, 0), v(2, 0, 0)}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Area(tc.points)
			if err != nil {
				t.Fatalf("Area() error: %v", err)
			}
			if !almostEqual(got, tc.want) {
				t.Errorf("Area() = %v, want %v", got, tc.want)
			}
		})
	}

	if _, err := Area([]motion.Vector3{v(0, 0, 0), v(1, 0, 0)}); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("Area(2 points) error = %v, want ErrInsufficientPoints", err)
	}
}

func TestVolume(t *testing.T) {
	cube := []motion.Vector3{
		v(0, 0, 0), v(1, 0, 0), v(0, 1, 0), v(0, 0, 1),
		v(1, 1, 1),
	}
	got, err := Volume(cube)
	if err != nil {
		t.Fatalf("Volume() error: %v", err)
	}
	if !almostEqual(got, 1.0) {
		t.Errorf("Volume(unit cube corners) = %v, want 1.0", got)
	}

	if _, err := Volume(cube[:3]); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("Volume(3 points) error = %v, want ErrInsufficientPoints", err)
	}

	flat := []motion.Vector3{v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 1, 0)}
	got, err = Volume(flat)
	if err != nil {
		t.Fatalf("Volume(flat) error: %v", err)
	}
	if got != 0 {
		t.Errorf("Volume(co-planar points) = %v, want 0", got)
	}
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name        string
		vertex      motion.Vector3
		p1, p2      motion.Vector3
		wantDegrees float64
	}{
		{"right angle", v(0, 0, 0), v(1, 0, 0), v(0, 1, 0), 90},
		{"straight line", v(0, 0, 0), v(1, 0, 0), v(-1, 0, 0), 180},
		{"same ray", v(0, 0, 0), v(1, 0, 0), v(2, 0, 0), 0},
		{"equilateral corner", v(0, 0, 0), v(1, 0, 0), v(0.5, math.Sqrt(3)/2, 0), 60},
		{"offset vertex", v(1, 1, 1), v(2, 1, 1), v(1, 2, 1), 90},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rad, deg, err := Angle(tc.vertex, tc.p1, tc.p2)
			if err != nil {
				t.Fatalf("Angle() error: %v", err)
			}
			if !almostEqual(deg, tc.wantDegrees) {
				t.Errorf("Angle() = %v°, want %v°", deg, tc.wantDegrees)
			}
			if !almostEqual(rad, deg*math.Pi/180) {
				t.Errorf("radians %v inconsistent with degrees %v", rad, deg)
			}
		})
	}

	if _, _, err := Angle(v(0, 0, 0), v(0, 0, 0), v(1, 0, 0)); !errors.Is(err, ErrDegenerate) {
		t.Errorf("Angle(zero ray) error = %v, want ErrDegenerate", err)
	}
}

func TestCentroid(t *testing.T) {
	got := Centroid([]motion.Vector3{v(0, 0, 0), v(2, 0, 0), v(0, 2, 0), v(2, 2, 0)})
	if !almostEqual(got.X, 1) || !almostEqual(got.Y, 1) || !almostEqual(got.Z, 0) {
		t.Errorf("Centroid() = %+v, want (1, 1, 0)", got)
	}

	if got := Centroid(nil); got != (motion.Vector3{}) {
		t.Errorf("Centroid(nil) = %+v, want zero", got)
	}
}
