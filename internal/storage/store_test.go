package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

var testBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testMeasurement(value float64, valid bool) measure.CompensatedMeasurement {
	m := measure.CompensatedMeasurement{
		Raw: measure.RawMeasurement{
			Kind:      measure.KindDistance,
			Value:     value,
			Distance:  1.0,
			Timestamp: testBase,
		},
		Compensated: measure.CompensatedValue{
			Value:      value - 0.0001,
			Stage:      measure.StageAngular,
			Confidence: 0.97,
		},
		MotionState: motion.StateStable,
		Assessment: measure.AccuracyAssessment{
			EstimatedError:    0.0004,
			Confidence:        0.97,
			MeetsRequirements: true,
			Tier:              measure.AccuracySubMillimeter,
		},
		Validation: measure.Validation{
			IsValid:        valid,
			PrecisionScore: 0.96,
			QualityScore:   0.965,
			Timestamp:      testBase,
		},
		Latency: 1200 * time.Microsecond,
	}
	if !valid {
		m.Validation.Errors = []measure.Issue{{
			Validator: "physical",
			Severity:  measure.SeverityMajor,
			Message:   "distance 80.00 exceeds plausible maximum 50.00",
		}}
	}
	return m
}

func TestCreateSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx, "tcp://localhost:1883")
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, "tcp://localhost:1883")
	require.NoError(t, err)

	assert.Greater(t, first, int64(0))
	assert.Greater(t, second, first)
}

func TestStoreAndReadBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sessionID, err := s.CreateSession(ctx, "test")
	require.NoError(t, err)

	require.NoError(t, s.StoreMeasurement(ctx, sessionID, testMeasurement(2.0, true)))
	require.NoError(t, s.StoreMeasurement(ctx, sessionID, testMeasurement(80.0, false)))

	got, err := s.SessionMeasurements(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, measure.KindDistance, first.Kind)
	assert.Equal(t, 2.0, first.RawValue)
	assert.InDelta(t, 1.9999, first.Value, 1e-9)
	assert.Equal(t, measure.StageAngular, first.Stage)
	assert.InDelta(t, 0.97, first.Confidence, 1e-9)
	assert.Equal(t, measure.AccuracySubMillimeter, first.Tier)
	assert.True(t, first.MeetsRequired)
	assert.True(t, first.IsValid)
	assert.Equal(t, "stable", first.MotionState)
	assert.Equal(t, 1200*time.Microsecond, first.Latency)

	assert.False(t, got[1].IsValid)
}

func TestSessionIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateSession(ctx, "a")
	require.NoError(t, err)
	b, err := s.CreateSession(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, s.StoreMeasurement(ctx, a, testMeasurement(1.0, true)))
	require.NoError(t, s.StoreMeasurement(ctx, b, testMeasurement(2.0, true)))

	got, err := s.SessionMeasurements(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].RawValue)
}

func TestEmptySession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sessionID, err := s.CreateSession(ctx, "empty")
	require.NoError(t, err)

	got, err := s.SessionMeasurements(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
