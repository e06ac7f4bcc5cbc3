// Package calibration manages the sensor calibration lifecycle: performing
// calibrations, tracking staleness, and enhancing measured points with the
// current correction transform.
package calibration

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
	"github.com/revsmoke/scanplan-precision/internal/timeutil"
)

// Status is the calibration lifecycle state. Transitions: Uncalibrated →
// Calibrated on the first successful Perform; Calibrated → Expired on age or
// accuracy decay; Expired → Calibrated only via a fresh Perform, never
// implicitly.
type Status string

const (
	StatusUncalibrated Status = "uncalibrated"
	StatusCalibrated   Status = "calibrated"
	StatusExpired      Status = "expired"
)

// Data is one calibration result. It is replaced whole on recalibration,
// never mutated in place, so readers always see a fully formed calibration.
type Data struct {
	ID        string           `json:"id"`
	Target    measure.Accuracy `json:"target"`
	Timestamp time.Time        `json:"timestamp"`

	// Scale and Offset form the correction transform applied to measured
	// points: corrected = point*scale + offset, per axis.
	Scale  motion.Vector3 `json:"scale"`
	Offset motion.Vector3 `json:"offset"`

	// PrecisionOffset is the residual scalar bias in meters applied to
	// distance-like values.
	PrecisionOffset float64 `json:"precision_offset"`

	Quality float64 `json:"quality"`
	Valid   bool    `json:"valid"`

	// ExpiresAfter is the wall-clock lifetime of this calibration.
	ExpiresAfter time.Duration `json:"expires_after_ns"`
}

// Config holds the manager's policy knobs.
type Config struct {
	Target      measure.Accuracy
	Expiry      time.Duration // default 24h
	HistorySize int           // bounded diagnostics history, default 10
	MinAccuracy float64       // rolling validation accuracy floor, default 0.9
	MinSamples  int           // samples required for a calibration pass
}

// DefaultConfig returns the standard calibration policy.
func DefaultConfig() Config {
	return Config{
		Target:      measure.AccuracyMillimeter,
		Expiry:      24 * time.Hour,
		HistorySize: 10,
		MinAccuracy: 0.9,
		MinSamples:  30,
	}
}

// Manager owns the authoritative calibration plus a bounded history of past
// calibrations for diagnostics and rollback inspection. Single writer
// (Perform), many readers.
type Manager struct {
	mu      sync.RWMutex
	current *Data
	history []Data // oldest first; only the last is authoritative
	cfg     Config
	clock   timeutil.Clock
}

// NewManager builds an uncalibrated manager.
func NewManager(cfg Config, clock timeutil.Clock) *Manager {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 10
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = 24 * time.Hour
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 30
	}
	return &Manager{cfg: cfg, clock: clock}
}

// Status returns the lifecycle state at the current wall clock.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return StatusUncalibrated
	}
	if m.clock.Since(m.current.Timestamp) > m.current.ExpiresAfter {
		return StatusExpired
	}
	return StatusCalibrated
}

// NeedsRecalibration reports whether a fresh calibration is required:
// either the current one has expired, or rolling validation accuracy has
// dropped below the configured floor. This is a signal, not an error;
// callers decide whether to recalibrate synchronously or defer.
func (m *Manager) NeedsRecalibration(rollingAccuracy float64) bool {
	switch m.Status() {
	case StatusUncalibrated, StatusExpired:
		return true
	}
	return rollingAccuracy < m.cfg.MinAccuracy
}

// Perform runs a calibration over a still-device sample window and installs
// the result as the new authoritative calibration. The previous calibration
// moves into the diagnostics history. The new timestamp is strictly greater
// than the previous one.
func (m *Manager) Perform(samples []motion.Sample) (Data, error) {
	if len(samples) < m.cfg.MinSamples {
		return Data{}, fmt.Errorf("calibration needs at least %d samples, got %d", m.cfg.MinSamples, len(samples))
	}

	// At rest the user acceleration should read zero; its mean is the bias
	// the transform removes, and its spread prices the quality.
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	zs := make([]float64, len(samples))
	mags := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.UserAcceleration.X
		ys[i] = s.UserAcceleration.Y
		zs[i] = s.UserAcceleration.Z
		mags[i] = s.UserAcceleration.Norm()
	}

	offset := motion.Vector3{
		X: -stat.Mean(xs, nil),
		Y: -stat.Mean(ys, nil),
		Z: -stat.Mean(zs, nil),
	}
	spread := stat.StdDev(mags, nil)

	// Quality falls as the rig is less still during calibration. The scale
	// maps one target-bound of acceleration noise to a 50% penalty.
	quality := 1.0
	if bound := m.cfg.Target.Bound(); bound > 0 {
		quality = clamp01(1 - spread/(bound*500))
	}

	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !now.After(m.current.Timestamp) {
		now = m.current.Timestamp.Add(time.Nanosecond)
	}

	data := Data{
		ID:              uuid.NewString(),
		Target:          m.cfg.Target,
		Timestamp:       now,
		Scale:           motion.Vector3{X: 1, Y: 1, Z: 1},
		Offset:          offset.Scale(1e-4), // acceleration bias mapped to meters at reference range
		PrecisionOffset: offset.Norm() * 1e-4,
		Quality:         quality,
		Valid:           quality >= 0.5,
		ExpiresAfter:    m.cfg.Expiry,
	}

	if m.current != nil {
		m.history = append(m.history, *m.current)
		if len(m.history) > m.cfg.HistorySize {
			m.history = m.history[len(m.history)-m.cfg.HistorySize:]
		}
	}
	m.current = &data
	return data, nil
}

// Current returns the authoritative calibration, or false when uncalibrated.
func (m *Manager) Current() (Data, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Data{}, false
	}
	return *m.current, true
}

// History returns a copy of the retained past calibrations, oldest first.
// These are diagnostics only; none of them is authoritative.
func (m *Manager) History() []Data {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Data, len(m.history))
	copy(out, m.history)
	return out
}

// Restore installs a previously saved calibration, typically loaded from
// disk at startup. It is subject to the same expiry policy as a fresh one.
func (m *Manager) Restore(data Data) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.history = append(m.history, *m.current)
		if len(m.history) > m.cfg.HistorySize {
			m.history = m.history[len(m.history)-m.cfg.HistorySize:]
		}
	}
	d := data
	m.current = &d
}

// Enhance applies the current correction transform to measured points before
// geometric computation. With no valid calibration the points pass through
// unchanged.
func (m *Manager) Enhance(points []motion.Vector3) []motion.Vector3 {
	m.mu.RLock()
	cur := m.current
	m.mu.RUnlock()

	out := make([]motion.Vector3, len(points))
	if cur == nil || !cur.Valid {
		copy(out, points)
		return out
	}
	for i, p := range points {
		out[i] = motion.Vector3{
			X: p.X*cur.Scale.X + cur.Offset.X,
			Y: p.Y*cur.Scale.Y + cur.Offset.Y,
			Z: p.Z*cur.Scale.Z + cur.Offset.Z,
		}
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
