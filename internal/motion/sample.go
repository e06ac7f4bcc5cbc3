package motion

import (
	"math"
	"time"
)

// StandardGravity is the nominal gravitational acceleration in m/s².
const StandardGravity = 9.80665

// Vector3 is a three-component vector. Units depend on context:
// m/s² for accelerations, rad/s for rotation rates, µT for magnetic field.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of the vector.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Attitude is the device orientation in degrees.
type Attitude struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Sample is one timestamped reading of device motion. It is immutable once
// created; the rolling History owns all retained samples.
type Sample struct {
	Timestamp        time.Time `json:"timestamp"`
	Attitude         Attitude  `json:"attitude"`
	RotationRate     Vector3   `json:"rotation_rate"`     // rad/s
	UserAcceleration Vector3   `json:"user_acceleration"` // m/s², gravity removed
	Gravity          Vector3   `json:"gravity"`           // m/s²
	MagneticField    Vector3   `json:"magnetic_field"`    // µT
}

// Magnitude returns the scalar motion magnitude used for stability
// classification: linear acceleration plus down-weighted angular rate.
// Angular motion affects measurement error less per unit than translation
// at short range, hence the weight.
func (s Sample) Magnitude(angularWeight float64) float64 {
	return s.UserAcceleration.Norm() + angularWeight*s.RotationRate.Norm()
}

// FallbackFrame returns the documented default motion frame used when no
// sample is available near a measurement's timestamp: zero acceleration and
// rotation, gravity pointing down.
func FallbackFrame(t time.Time) Sample {
	return Sample{
		Timestamp: t,
		Gravity:   Vector3{Z: -StandardGravity},
	}
}
