package sensors

import (
	"math"
	"testing"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

func TestTiltFromAccel(t *testing.T) {
	tests := []struct {
		name       string
		ax, ay, az float64
		roll       float64
		pitch      float64
	}{
		{"level", 0, 0, 1, 0, 0},
		{"rolled 90", 0, 1, 0, 90, 0},
		{"rolled -90", 0, -1, 0, -90, 0},
		{"pitched down 90", 1, 0, 0, 0, -90},
		{"pitched up 90", -1, 0, 0, 0, 90},
		{"rolled 45", 0, 1, 1, 45, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := TiltFromAccel(tt.ax, tt.ay, tt.az)
			if math.Abs(att.Roll-tt.roll) > 1e-9 {
				t.Errorf("roll = %v, want %v", att.Roll, tt.roll)
			}
			if math.Abs(att.Pitch-tt.pitch) > 1e-9 {
				t.Errorf("pitch = %v, want %v", att.Pitch, tt.pitch)
			}
			if att.Yaw != 0 {
				t.Errorf("yaw = %v, want 0", att.Yaw)
			}
		})
	}
}

func TestMockSource(t *testing.T) {
	src := NewMockSource()

	for i := 0; i < 10; i++ {
		s, err := src.Next()
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if s.Timestamp.IsZero() {
			t.Fatal("sample has zero timestamp")
		}
		if mag := magnitude(s.UserAcceleration); mag > 0.1 {
			t.Errorf("user acceleration magnitude %v exceeds tremor level", mag)
		}
		if mag := magnitude(s.RotationRate); mag > 0.1 {
			t.Errorf("rotation rate magnitude %v exceeds tremor level", mag)
		}
		if s.Gravity.Z != -motion.StandardGravity {
			t.Errorf("gravity Z = %v, want %v", s.Gravity.Z, -motion.StandardGravity)
		}
	}
}

func magnitude(v motion.Vector3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
