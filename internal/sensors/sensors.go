// Package sensors provides motion sample sources: a real MPU9250 over SPI
// and a synthetic source for development without hardware.
package sensors

import (
	"math"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// Source is anything that can provide motion samples over time.
type Source interface {
	Next() (motion.Sample, error)
}

// TiltFromAccel computes roll and pitch (degrees) from accelerometer data
// only. Yaw is set to 0; there is no magnetometer fusion yet.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func TiltFromAccel(ax, ay, az float64) motion.Attitude {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return motion.Attitude{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
		Yaw:   0,
	}
}
