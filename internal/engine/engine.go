// Package engine wires motion ingest, compensation, validation, and
// calibration into one precision measurement engine with an explicit,
// caller-controlled lifecycle.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/revsmoke/scanplan-precision/internal/calibration"
	"github.com/revsmoke/scanplan-precision/internal/compensation"
	"github.com/revsmoke/scanplan-precision/internal/geometry"
	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
	"github.com/revsmoke/scanplan-precision/internal/timeutil"
	"github.com/revsmoke/scanplan-precision/internal/validation"
)

// ErrNotStarted is returned when measurements are requested before Start.
var ErrNotStarted = errors.New("engine: not started")

// Config is the engine's full tuning surface, assembled from the config
// file by the caller. Plain data, no behavior.
type Config struct {
	MotionThreshold      float64
	AngularWeight        float64
	HighMotionMultiplier float64
	StabilityDuration    time.Duration

	MaxHistoryLength    int
	MaxHistoryAge       time.Duration
	NearestSampleMaxGap time.Duration

	Pipeline compensation.Options

	MinPrecision     float64
	RequiredAccuracy measure.Accuracy

	Calibration calibration.Config

	// MetricsWindow bounds the compensation/validation result histories.
	MetricsWindow int
	// RecentValuesWindow bounds the per-kind recent value lists consumed by
	// the consistency and outlier validators.
	RecentValuesWindow int
}

// DefaultConfig returns engine defaults for a 60 Hz motion feed.
func DefaultConfig() Config {
	return Config{
		MotionThreshold:      0.1,
		AngularWeight:        0.1,
		HighMotionMultiplier: 2,
		StabilityDuration:    2 * time.Second,
		MaxHistoryLength:     100,
		MaxHistoryAge:        10 * time.Second,
		NearestSampleMaxGap:  500 * time.Millisecond,
		Pipeline:             compensation.DefaultOptions(),
		MinPrecision:         0.9,
		RequiredAccuracy:     measure.AccuracyMillimeter,
		Calibration:          calibration.DefaultConfig(),
		MetricsWindow:        100,
		RecentValuesWindow:   20,
	}
}

// Engine is the motion-compensated precision measurement engine. It
// exclusively owns the motion history and the bounded result histories used
// for metrics. Construct with New, then Start before use; Stop releases the
// engine for reuse. There are no package-level singletons: callers hold the
// handle.
type Engine struct {
	cfg        Config
	clock      timeutil.Clock
	history    *motion.History
	classifier motion.Classifier
	pipeline   *compensation.Pipeline
	assessor   compensation.Assessor
	gate       *validation.Gate
	tracking   *validation.TrackingValidator
	calib      *calibration.Manager

	mu      sync.Mutex
	started bool
	recent  map[measure.Kind][]float64
	results *resultLog
}

// New builds an engine from config. A nil clock selects the real clock.
func New(cfg Config, clock timeutil.Clock) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.MetricsWindow <= 0 {
		cfg.MetricsWindow = 100
	}
	if cfg.RecentValuesWindow <= 0 {
		cfg.RecentValuesWindow = 20
	}

	classifier := motion.Classifier{
		MotionThreshold:      cfg.MotionThreshold,
		AngularWeight:        cfg.AngularWeight,
		HighMotionMultiplier: cfg.HighMotionMultiplier,
		StabilityDuration:    cfg.StabilityDuration,
	}
	cfg.Pipeline.RequiredAccuracy = cfg.RequiredAccuracy
	cfg.Calibration.Target = cfg.RequiredAccuracy

	return &Engine{
		cfg:        cfg,
		clock:      clock,
		history:    motion.NewHistory(cfg.MaxHistoryLength, cfg.MaxHistoryAge),
		classifier: classifier,
		pipeline:   compensation.NewPipeline(cfg.Pipeline, motion.DefaultPredictor()),
		assessor:   compensation.NewAssessor(cfg.Pipeline, cfg.AngularWeight),
		gate:       validation.NewGate(cfg.MinPrecision, cfg.RequiredAccuracy, clock),
		tracking:   validation.NewTrackingValidator(classifier),
		calib:      calibration.NewManager(cfg.Calibration, clock),
		recent:     make(map[measure.Kind][]float64),
		results:    newResultLog(cfg.MetricsWindow),
	}
}

// Start marks the engine running. Starting twice is an error.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("engine: already started")
	}
	e.started = true
	return nil
}

// Stop halts the engine. Motion history and metrics are retained so a
// restarted engine resumes with context.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = false
}

// Calibration exposes the calibration manager for persistence at the
// integration edge.
func (e *Engine) Calibration() *calibration.Manager {
	return e.calib
}

// IngestSample appends one motion sample to the rolling history and returns
// the resulting device motion state. This is the single-writer path; it is
// safe against concurrent measurement calls, which read snapshots.
func (e *Engine) IngestSample(s motion.Sample) motion.State {
	e.history.Append(s)
	return e.classifier.ClassifyLatest(e.history)
}

// MotionState returns the current device motion state, StateUnknown before
// any sample arrives.
func (e *Engine) MotionState() motion.State {
	return e.classifier.ClassifyLatest(e.history)
}

// CompensateMeasurement runs the full pipeline for one raw measurement:
// nearest-sample match, four-stage compensation, accuracy assessment,
// quality-gate validation, and metrics recording. Degraded conditions such
// as a sensor gap produce a conservative result, not an error.
func (e *Engine) CompensateMeasurement(raw measure.RawMeasurement) (measure.CompensatedMeasurement, error) {
	started := e.clock.Now()

	e.mu.Lock()
	running := e.started
	e.mu.Unlock()
	if !running {
		return measure.CompensatedMeasurement{}, ErrNotStarted
	}
	if !raw.Kind.Valid() {
		return measure.CompensatedMeasurement{}, fmt.Errorf("engine: unknown measurement kind %q", raw.Kind)
	}
	if raw.Timestamp.IsZero() {
		raw.Timestamp = started
	}

	snapshot := e.history.Snapshot()

	frame, matched := e.history.Nearest(raw.Timestamp, e.cfg.NearestSampleMaxGap)
	if !matched {
		// Sensor gap: fall back to the documented default frame.
		frame = motion.FallbackFrame(raw.Timestamp)
	}

	comp := e.pipeline.Process(raw, frame, snapshot)
	if !matched && comp.Confidence > sensorGapConfidenceCap {
		comp.Confidence = sensorGapConfidenceCap
	}

	assessment := e.assessor.Assess(raw, comp, frame)

	in := validation.Input{
		Raw:         raw,
		Compensated: comp,
		Assessment:  assessment,
		Frame:       frame,
		Recent:      e.recentValues(raw.Kind),
	}
	verdict := e.gate.Validate(in)

	e.record(raw.Kind, comp, verdict)

	return measure.CompensatedMeasurement{
		Raw:         raw,
		Compensated: comp,
		MotionFrame: frame,
		MotionState: e.classifier.ClassifyLatest(e.history),
		Assessment:  assessment,
		Validation:  verdict,
		Latency:     e.clock.Since(started),
	}, nil
}

// sensorGapConfidenceCap caps the chain confidence when no motion sample was
// available near the measurement's timestamp.
const sensorGapConfidenceCap = 0.3

// MeasureDistance measures the Euclidean distance between two
// calibration-enhanced points and compensates it.
func (e *Engine) MeasureDistance(a, b motion.Vector3, at time.Time) (measure.CompensatedMeasurement, error) {
	pts := e.calib.Enhance([]motion.Vector3{a, b})
	value := geometry.Distance(pts[0], pts[1])
	return e.CompensateMeasurement(e.rawFromPoints(measure.KindDistance, value, pts, at))
}

// MeasureArea measures a co-planar polygon area via the shoelace formula.
func (e *Engine) MeasureArea(points []motion.Vector3, at time.Time) (measure.CompensatedMeasurement, error) {
	pts := e.calib.Enhance(points)
	value, err := geometry.Area(pts)
	if err != nil {
		return measure.CompensatedMeasurement{}, fmt.Errorf("area measurement: %w", err)
	}
	return e.CompensateMeasurement(e.rawFromPoints(measure.KindArea, value, pts, at))
}

// MeasureVolume measures the bounding-box volume of the point set.
func (e *Engine) MeasureVolume(points []motion.Vector3, at time.Time) (measure.CompensatedMeasurement, error) {
	pts := e.calib.Enhance(points)
	value, err := geometry.Volume(pts)
	if err != nil {
		return measure.CompensatedMeasurement{}, fmt.Errorf("volume measurement: %w", err)
	}
	return e.CompensateMeasurement(e.rawFromPoints(measure.KindVolume, value, pts, at))
}

// MeasureAngle measures the angle at vertex between the rays to p1 and p2,
// in degrees.
func (e *Engine) MeasureAngle(vertex, p1, p2 motion.Vector3, at time.Time) (measure.CompensatedMeasurement, error) {
	pts := e.calib.Enhance([]motion.Vector3{vertex, p1, p2})
	_, degrees, err := geometry.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		return measure.CompensatedMeasurement{}, fmt.Errorf("angle measurement: %w", err)
	}
	return e.CompensateMeasurement(e.rawFromPoints(measure.KindAngle, degrees, pts, at))
}

// rawFromPoints builds a RawMeasurement positioned at the point centroid,
// with the sensor assumed at the origin of the measurement frame.
func (e *Engine) rawFromPoints(kind measure.Kind, value float64, pts []motion.Vector3, at time.Time) measure.RawMeasurement {
	centroid := geometry.Centroid(pts)
	return measure.RawMeasurement{
		Kind:      kind,
		Value:     value,
		Distance:  centroid.Norm(),
		Position:  centroid,
		Points:    pts,
		Timestamp: at,
	}
}

// ValidateTracking grades one AR tracking frame against the motion history.
func (e *Engine) ValidateTracking(frame validation.TrackingFrame) validation.TrackingValidationResult {
	return e.tracking.Validate(frame, e.history.Snapshot())
}

// Calibrate performs a calibration over the current motion history. The
// device should be still; quality reflects how still it actually was.
func (e *Engine) Calibrate() (calibration.Data, error) {
	return e.calib.Perform(e.history.Snapshot())
}

// NeedsRecalibration reports whether calibration is stale, by age or by
// rolling validation precision.
func (e *Engine) NeedsRecalibration() bool {
	return e.calib.NeedsRecalibration(e.Metrics().RollingPrecision)
}

func (e *Engine) recentValues(kind measure.Kind) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	vals := e.recent[kind]
	out := make([]float64, len(vals))
	copy(out, vals)
	return out
}

func (e *Engine) record(kind measure.Kind, comp measure.CompensatedValue, verdict measure.Validation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vals := append(e.recent[kind], comp.Value)
	if len(vals) > e.cfg.RecentValuesWindow {
		vals = vals[len(vals)-e.cfg.RecentValuesWindow:]
	}
	e.recent[kind] = vals

	e.results.add(comp, verdict)
}

// Metrics returns the rolling performance metrics over the bounded result
// histories.
func (e *Engine) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results.metrics()
}
