package calibration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revsmoke/scanplan-precision/internal/motion"
	"github.com/revsmoke/scanplan-precision/internal/timeutil"
)

var testBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func stillSamples(n int, bias motion.Vector3) []motion.Sample {
	out := make([]motion.Sample, n)
	for i := range out {
		out[i] = motion.Sample{
			Timestamp:        testBase.Add(time.Duration(i) * 16 * time.Millisecond),
			UserAcceleration: bias,
			Gravity:          motion.Vector3{Z: -motion.StandardGravity},
		}
	}
	return out
}

func TestPerformRequiresEnoughSamples(t *testing.T) {
	m := NewManager(DefaultConfig(), timeutil.NewFakeClock(testBase))
	_, err := m.Perform(stillSamples(5, motion.Vector3{}))
	assert.Error(t, err)
	assert.Equal(t, StatusUncalibrated, m.Status())
}

func TestPerformLifecycle(t *testing.T) {
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(DefaultConfig(), clock)

	data, err := m.Perform(stillSamples(30, motion.Vector3{X: 0.001}))
	require.NoError(t, err)

	assert.NotEmpty(t, data.ID)
	assert.True(t, data.Valid)
	assert.Greater(t, data.Quality, 0.9, "a still rig calibrates with high quality")
	assert.Equal(t, motion.Vector3{X: 1, Y: 1, Z: 1}, data.Scale)
	assert.Equal(t, StatusCalibrated, m.Status())

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, data.ID, current.ID)
	assert.Empty(t, m.History(), "first calibration has no predecessor")
}

func TestPerformTimestampsStrictlyIncrease(t *testing.T) {
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(DefaultConfig(), clock)

	first, err := m.Perform(stillSamples(30, motion.Vector3{}))
	require.NoError(t, err)

	// Clock has not moved; the new timestamp must still be strictly later.
	second, err := m.Perform(stillSamples(30, motion.Vector3{}))
	require.NoError(t, err)

	assert.True(t, second.Timestamp.After(first.Timestamp),
		"timestamps must be strictly increasing: %v then %v", first.Timestamp, second.Timestamp)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPerformHistoryBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistorySize = 3
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(cfg, clock)

	var last Data
	for i := 0; i < 6; i++ {
		var err error
		last, err = m.Perform(stillSamples(30, motion.Vector3{}))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	history := m.History()
	assert.Len(t, history, 3, "history bounded to HistorySize")
	current, _ := m.Current()
	assert.Equal(t, last.ID, current.ID)
	for _, old := range history {
		assert.NotEqual(t, last.ID, old.ID, "authoritative calibration never sits in history")
	}
}

func TestStatusExpiry(t *testing.T) {
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(DefaultConfig(), clock)

	_, err := m.Perform(stillSamples(30, motion.Vector3{}))
	require.NoError(t, err)
	assert.Equal(t, StatusCalibrated, m.Status())

	clock.Advance(23 * time.Hour)
	assert.Equal(t, StatusCalibrated, m.Status())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, StatusExpired, m.Status())
	assert.True(t, m.NeedsRecalibration(1.0))
}

func TestNeedsRecalibration(t *testing.T) {
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(DefaultConfig(), clock)

	assert.True(t, m.NeedsRecalibration(1.0), "uncalibrated always needs calibration")

	_, err := m.Perform(stillSamples(30, motion.Vector3{}))
	require.NoError(t, err)

	assert.False(t, m.NeedsRecalibration(0.95))
	assert.True(t, m.NeedsRecalibration(0.85), "rolling precision below the floor forces recalibration")
}

func TestEnhance(t *testing.T) {
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(DefaultConfig(), clock)

	points := []motion.Vector3{{X: 1, Y: 2, Z: 3}}

	t.Run("uncalibrated passthrough", func(t *testing.T) {
		got := m.Enhance(points)
		assert.Equal(t, points, got)
	})

	t.Run("offset applied after calibration", func(t *testing.T) {
		_, err := m.Perform(stillSamples(30, motion.Vector3{X: 0.5}))
		require.NoError(t, err)

		got := m.Enhance(points)
		require.Len(t, got, 1)
		assert.InDelta(t, 1-0.5*1e-4, got[0].X, 1e-12, "mean bias is removed")
		assert.InDelta(t, 2, got[0].Y, 1e-12)
	})
}

func TestRestore(t *testing.T) {
	clock := timeutil.NewFakeClock(testBase)
	m := NewManager(DefaultConfig(), clock)

	m.Restore(Data{
		ID:           "saved",
		Timestamp:    testBase.Add(-time.Hour),
		Scale:        motion.Vector3{X: 1, Y: 1, Z: 1},
		Quality:      0.9,
		Valid:        true,
		ExpiresAfter: 24 * time.Hour,
	})

	assert.Equal(t, StatusCalibrated, m.Status())
	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "saved", current.ID)

	m.Restore(Data{ID: "newer", Timestamp: testBase, ExpiresAfter: 24 * time.Hour})
	assert.Len(t, m.History(), 1)
	assert.Equal(t, "saved", m.History()[0].ID)
}
