package sensors

import (
	"math"
	"time"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock motion source that generates smooth,
// low-magnitude motion around a device held roughly level. Useful for
// exercising the full pipeline without an IMU attached.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (motion.Sample, error) {
	elapsed := time.Since(m.start).Seconds()

	// Gentle hand tremor: a few cm/s² of linear acceleration and a few
	// degrees per second of rotation.
	accel := motion.Vector3{
		X: 0.02 * math.Sin(elapsed*2.1),
		Y: 0.02 * math.Cos(elapsed*1.7),
		Z: 0.01 * math.Sin(elapsed*0.9),
	}
	rot := motion.Vector3{
		X: 0.03 * math.Sin(elapsed*1.3),
		Y: 0.03 * math.Cos(elapsed*0.8),
		Z: 0.02 * math.Sin(elapsed*0.5),
	}

	return motion.Sample{
		Timestamp: time.Now(),
		Attitude: motion.Attitude{
			Roll:  2 * math.Sin(elapsed),
			Pitch: 1.5 * math.Cos(elapsed*0.7),
			Yaw:   math.Mod(elapsed*3, 360),
		},
		RotationRate:     rot,
		UserAcceleration: accel,
		Gravity:          motion.Vector3{Z: -motion.StandardGravity},
	}, nil
}
