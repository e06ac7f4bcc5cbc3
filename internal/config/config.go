package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDEngine   string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDRecorder string

	// Topics
	TopicMotionSamples      string
	TopicMotionState        string
	TopicMeasureRequest     string
	TopicMeasurements       string
	TopicMetrics            string
	TopicCalibrationRequest string
	TopicCalibrationResult  string

	// Motion classification
	MotionThreshold      float64 // m/s²-equivalent magnitude for "stable"
	AngularWeight        float64 // weight of angular rate in the magnitude
	HighMotionMultiplier float64 // threshold multiple for "high motion"
	StabilityDurationMS  int     // milliseconds

	// Motion history
	MaxHistoryLength      int
	MaxHistoryAgeMS       int // milliseconds
	NearestSampleMaxGapMS int // milliseconds

	// Compensation
	CompensationAccuracyTarget float64 // meters
	LinearScale                float64
	AngularScale               float64
	PredictiveScale            float64
	PredictionHorizonMS        int // milliseconds
	EnablePredictive           bool
	EnableAdaptive             bool

	// Validation
	ValidationFrequencyHz int
	MinPrecisionThreshold float64
	RequiredAccuracy      string // sub_millimeter / millimeter / centimeter / decimeter

	// Calibration
	CalibrationExpiryHours int
	CalibrationHistorySize int
	CalibrationDir         string

	// Sampling
	SampleIntervalMS int // milliseconds, producer tick

	// IMU hardware
	IMUSPIDevice string
	IMUCSPin     string
	IMUMock      bool // synthetic motion source instead of hardware

	// Serial producer
	SerialPort     string
	SerialBaudRate int

	// Web server
	WebServerPort int

	// Recorder
	RecorderDBPath string
}

// Package-level unexported variables for the config singleton. External code
// must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config pre-filled with the engine's standard tuning so
// a minimal config file only needs the deployment-specific keys.
func defaults() *Config {
	return &Config{
		MQTTClientIDProducer: "precision-motion-producer",
		MQTTClientIDEngine:   "precision-engine",
		MQTTClientIDConsole:  "precision-console",
		MQTTClientIDWeb:      "precision-web",
		MQTTClientIDRecorder: "precision-recorder",

		TopicMotionSamples:      "precision/motion/samples",
		TopicMotionState:        "precision/motion/state",
		TopicMeasureRequest:     "precision/measure/request",
		TopicMeasurements:       "precision/measurements",
		TopicMetrics:            "precision/metrics",
		TopicCalibrationRequest: "precision/calibration/request",
		TopicCalibrationResult:  "precision/calibration/result",

		MotionThreshold:      0.1,
		AngularWeight:        0.1,
		HighMotionMultiplier: 2,
		StabilityDurationMS:  2000,

		MaxHistoryLength:      100,
		MaxHistoryAgeMS:       10000,
		NearestSampleMaxGapMS: 500,

		CompensationAccuracyTarget: 0.001,
		LinearScale:                0.001,
		AngularScale:               0.0005,
		PredictiveScale:            0.0005,
		PredictionHorizonMS:        100,

		ValidationFrequencyHz: 10,
		MinPrecisionThreshold: 0.9,
		RequiredAccuracy:      "millimeter",

		CalibrationExpiryHours: 24,
		CalibrationHistorySize: 10,
		CalibrationDir:         ".",

		SampleIntervalMS: 16,

		IMUSPIDevice: "/dev/spidev6.0",
		IMUCSPin:     "18",

		SerialBaudRate: 115200,

		WebServerPort: 8080,

		RecorderDBPath: "precision_measurements.db",
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_ENGINE":
		c.MQTTClientIDEngine = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_RECORDER":
		c.MQTTClientIDRecorder = value

	// Topics
	case "TOPIC_MOTION_SAMPLES":
		c.TopicMotionSamples = value
	case "TOPIC_MOTION_STATE":
		c.TopicMotionState = value
	case "TOPIC_MEASURE_REQUEST":
		c.TopicMeasureRequest = value
	case "TOPIC_MEASUREMENTS":
		c.TopicMeasurements = value
	case "TOPIC_METRICS":
		c.TopicMetrics = value
	case "TOPIC_CALIBRATION_REQUEST":
		c.TopicCalibrationRequest = value
	case "TOPIC_CALIBRATION_RESULT":
		c.TopicCalibrationResult = value

	// Motion classification
	case "MOTION_THRESHOLD":
		return setFloat(&c.MotionThreshold, key, value, 0)
	case "ANGULAR_WEIGHT":
		return setFloat(&c.AngularWeight, key, value, 0)
	case "HIGH_MOTION_MULTIPLIER":
		return setFloat(&c.HighMotionMultiplier, key, value, 1)
	case "STABILITY_DURATION_MS":
		return setInt(&c.StabilityDurationMS, key, value, 0)

	// Motion history
	case "MAX_HISTORY_LENGTH":
		return setInt(&c.MaxHistoryLength, key, value, 1)
	case "MAX_HISTORY_AGE_MS":
		return setInt(&c.MaxHistoryAgeMS, key, value, 0)
	case "NEAREST_SAMPLE_MAX_GAP_MS":
		return setInt(&c.NearestSampleMaxGapMS, key, value, 0)

	// Compensation
	case "COMPENSATION_ACCURACY_TARGET":
		return setFloat(&c.CompensationAccuracyTarget, key, value, 0)
	case "LINEAR_SCALE":
		return setFloat(&c.LinearScale, key, value, 0)
	case "ANGULAR_SCALE":
		return setFloat(&c.AngularScale, key, value, 0)
	case "PREDICTIVE_SCALE":
		return setFloat(&c.PredictiveScale, key, value, 0)
	case "PREDICTION_HORIZON_MS":
		return setInt(&c.PredictionHorizonMS, key, value, 1)
	case "ENABLE_PREDICTIVE":
		return setBool(&c.EnablePredictive, key, value)
	case "ENABLE_ADAPTIVE":
		return setBool(&c.EnableAdaptive, key, value)

	// Validation
	case "VALIDATION_FREQUENCY_HZ":
		return setInt(&c.ValidationFrequencyHz, key, value, 1)
	case "MIN_PRECISION_THRESHOLD":
		return setFloat(&c.MinPrecisionThreshold, key, value, 0)
	case "REQUIRED_ACCURACY":
		switch value {
		case "sub_millimeter", "millimeter", "centimeter", "decimeter":
			c.RequiredAccuracy = value
		default:
			return fmt.Errorf("REQUIRED_ACCURACY must be sub_millimeter, millimeter, centimeter or decimeter, got %q", value)
		}

	// Calibration
	case "CALIBRATION_EXPIRY_HOURS":
		return setInt(&c.CalibrationExpiryHours, key, value, 1)
	case "CALIBRATION_HISTORY_SIZE":
		return setInt(&c.CalibrationHistorySize, key, value, 1)
	case "CALIBRATION_DIR":
		c.CalibrationDir = value

	// Sampling
	case "SAMPLE_INTERVAL_MS":
		return setInt(&c.SampleIntervalMS, key, value, 1)

	// IMU hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_MOCK":
		return setBool(&c.IMUMock, key, value)

	// Serial producer
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		return setInt(&c.SerialBaudRate, key, value, 1)

	// Web server
	case "WEB_SERVER_PORT":
		return setInt(&c.WebServerPort, key, value, 1)

	// Recorder
	case "RECORDER_DB_PATH":
		c.RecorderDBPath = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setFloat(dst *float64, key, value string, min float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min {
		return fmt.Errorf("%s must be >= %v, got %v", key, min, v)
	}
	*dst = v
	return nil
}

func setInt(dst *int, key, value string, min int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min {
		return fmt.Errorf("%s must be >= %d, got %d", key, min, v)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MotionThreshold <= 0 {
		return fmt.Errorf("MOTION_THRESHOLD must be positive")
	}
	if c.CompensationAccuracyTarget <= 0 {
		return fmt.Errorf("COMPENSATION_ACCURACY_TARGET must be positive")
	}
	if c.MinPrecisionThreshold <= 0 || c.MinPrecisionThreshold > 1 {
		return fmt.Errorf("MIN_PRECISION_THRESHOLD must be in (0, 1]")
	}
	if c.SampleIntervalMS <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL_MS must be positive")
	}
	return nil
}

// StabilityDuration returns the configured stability window.
func (c *Config) StabilityDuration() time.Duration {
	return time.Duration(c.StabilityDurationMS) * time.Millisecond
}

// MaxHistoryAge returns the configured history age bound.
func (c *Config) MaxHistoryAge() time.Duration {
	return time.Duration(c.MaxHistoryAgeMS) * time.Millisecond
}

// NearestSampleMaxGap returns the configured sensor-gap tolerance.
func (c *Config) NearestSampleMaxGap() time.Duration {
	return time.Duration(c.NearestSampleMaxGapMS) * time.Millisecond
}

// PredictionHorizon returns the configured predictive-stage horizon.
func (c *Config) PredictionHorizon() time.Duration {
	return time.Duration(c.PredictionHorizonMS) * time.Millisecond
}

// SampleInterval returns the configured producer tick interval.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file. Uses sync.Once
// so this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
