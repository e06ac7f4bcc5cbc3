package calibration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

func testData(id string, ts time.Time) Data {
	return Data{
		ID:           id,
		Target:       measure.AccuracyMillimeter,
		Timestamp:    ts,
		Scale:        motion.Vector3{X: 1, Y: 1, Z: 1},
		Offset:       motion.Vector3{X: 0.0001},
		Quality:      0.95,
		Valid:        true,
		ExpiresAfter: 24 * time.Hour,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testData("round-trip", testBase)

	path, err := WriteFile(dir, want)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "_precision_calibration.json")

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Quality, got.Quality)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, want.ExpiresAfter, got.ExpiresAfter)
}

func TestLoadLatest(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteFile(dir, testData("older", testBase))
	require.NoError(t, err)
	_, err = WriteFile(dir, testData("newer", testBase.Add(time.Hour)))
	require.NoError(t, err)

	got, ok := LoadLatest(dir)
	require.True(t, ok)
	assert.Equal(t, "newer", got.ID)
}

func TestLoadLatestSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteFile(dir, testData("good", testBase))
	require.NoError(t, err)

	corrupt := filepath.Join(dir, "zzzz_precision_calibration.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))

	got, ok := LoadLatest(dir)
	require.True(t, ok, "corrupt files must be skipped, not fatal")
	assert.Equal(t, "good", got.ID)
}

func TestLoadLatestEmptyDir(t *testing.T) {
	_, ok := LoadLatest(t.TempDir())
	assert.False(t, ok)
}
