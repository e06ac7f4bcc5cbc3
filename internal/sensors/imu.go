package sensors

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// Raw-count scale factors for the MPU9250 at its default ranges
// (±2g accelerometer, ±250°/s gyroscope).
const (
	accelScale = 2.0 * motion.StandardGravity / 32768.0 // counts → m/s²
	gyroScale  = 250.0 / 32768.0 * math.Pi / 180.0      // counts → rad/s
)

// gravityAlpha is the low-pass coefficient for the gravity estimate.
// Higher values track the gravity vector more slowly and push more of
// the signal into UserAcceleration.
const gravityAlpha = 0.9

type imuSource struct {
	imu     *mpu9250.MPU9250
	gravity motion.Vector3
	primed  bool
}

// NewIMUSource initializes the MPU9250 over SPI and returns a Source
// that produces gravity-separated motion samples.
func NewIMUSource(spiDev, csPin string) (Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU new device: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU init: %w", err)
	}

	if _, err := imu.SelfTest(); err != nil {
		return nil, fmt.Errorf("IMU self-test: %w", err)
	}
	if err := imu.Calibrate(); err != nil {
		return nil, fmt.Errorf("IMU calibrate: %w", err)
	}

	return &imuSource{imu: imu}, nil
}

// Next reads one accelerometer + gyroscope frame and converts it into a
// motion sample: gravity is tracked with a low-pass filter and removed
// from the total acceleration, attitude comes from the tilt estimate.
func (s *imuSource) Next() (motion.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU acc X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU acc Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU acc Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return motion.Sample{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	total := motion.Vector3{
		X: float64(ax) * accelScale,
		Y: float64(ay) * accelScale,
		Z: float64(az) * accelScale,
	}

	if !s.primed {
		s.gravity = total
		s.primed = true
	} else {
		s.gravity = s.gravity.Scale(gravityAlpha).Add(total.Scale(1 - gravityAlpha))
	}

	return motion.Sample{
		Timestamp: time.Now(),
		Attitude:  TiltFromAccel(total.X, total.Y, total.Z),
		RotationRate: motion.Vector3{
			X: float64(gx) * gyroScale,
			Y: float64(gy) * gyroScale,
			Z: float64(gz) * gyroScale,
		},
		UserAcceleration: total.Sub(s.gravity),
		Gravity:          s.gravity,
	}, nil
}
