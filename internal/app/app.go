// Package app contains the run loops behind each binary: motion producers,
// the measurement engine service, the console and web frontends, and the
// measurement recorder. All of them talk to each other over MQTT.
package app

import (
	"time"

	"github.com/revsmoke/scanplan-precision/internal/calibration"
	"github.com/revsmoke/scanplan-precision/internal/compensation"
	"github.com/revsmoke/scanplan-precision/internal/config"
	"github.com/revsmoke/scanplan-precision/internal/engine"
	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// MeasureRequest is the payload of the measure-request topic. Points holds
// 2 points for a distance, 3 for an angle (vertex first), at least 3 for an
// area and at least 4 for a volume.
type MeasureRequest struct {
	Kind      measure.Kind     `json:"kind"`
	Points    []motion.Vector3 `json:"points"`
	Timestamp time.Time        `json:"timestamp,omitempty"`
}

// StateMessage is the payload of the motion-state topic.
type StateMessage struct {
	State     motion.State `json:"state"`
	Magnitude float64      `json:"magnitude"`
	Timestamp time.Time    `json:"timestamp"`
}

// ErrorMessage is published on the measurements topic when a request fails.
type ErrorMessage struct {
	Error string       `json:"error"`
	Kind  measure.Kind `json:"kind,omitempty"`
}

// engineConfig assembles the engine tuning from the flat file config.
func engineConfig(cfg *config.Config) engine.Config {
	opts := compensation.DefaultOptions()
	opts.AccuracyTarget = cfg.CompensationAccuracyTarget
	opts.LinearScale = cfg.LinearScale
	opts.AngularScale = cfg.AngularScale
	opts.PredictiveScale = cfg.PredictiveScale
	opts.PredictionHorizon = cfg.PredictionHorizon()
	opts.EnablePredictive = cfg.EnablePredictive
	opts.EnableAdaptive = cfg.EnableAdaptive

	calCfg := calibration.DefaultConfig()
	calCfg.Expiry = time.Duration(cfg.CalibrationExpiryHours) * time.Hour
	calCfg.HistorySize = cfg.CalibrationHistorySize

	ec := engine.DefaultConfig()
	ec.MotionThreshold = cfg.MotionThreshold
	ec.AngularWeight = cfg.AngularWeight
	ec.HighMotionMultiplier = cfg.HighMotionMultiplier
	ec.StabilityDuration = cfg.StabilityDuration()
	ec.MaxHistoryLength = cfg.MaxHistoryLength
	ec.MaxHistoryAge = cfg.MaxHistoryAge()
	ec.NearestSampleMaxGap = cfg.NearestSampleMaxGap()
	ec.Pipeline = opts
	ec.MinPrecision = cfg.MinPrecisionThreshold
	ec.RequiredAccuracy = measure.ParseAccuracy(cfg.RequiredAccuracy)
	ec.Calibration = calCfg
	return ec
}
