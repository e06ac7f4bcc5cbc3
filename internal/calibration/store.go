package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// WriteFile persists a calibration result as a timestamped JSON file in dir,
// returning the written path.
func WriteFile(dir string, data Data) (string, error) {
	ts := data.Timestamp.Format("2006-01-02T15-04-05Z07-00")
	name := filepath.Join(dir, fmt.Sprintf("%s_precision_calibration.json", ts))

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// ReadFile loads one calibration result from a JSON file.
func ReadFile(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	var data Data
	if err := json.Unmarshal(b, &data); err != nil {
		return Data{}, fmt.Errorf("parse calibration file %s: %w", path, err)
	}
	return data, nil
}

// LoadLatest finds the newest calibration file in dir, or false when none
// exists. Corrupt files are skipped rather than failing the load.
func LoadLatest(dir string) (Data, bool) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_precision_calibration.json"))
	if err != nil || len(matches) == 0 {
		return Data{}, false
	}
	sort.Strings(matches)

	var best Data
	var bestTime time.Time
	found := false
	for _, path := range matches {
		data, err := ReadFile(path)
		if err != nil {
			continue
		}
		if !found || data.Timestamp.After(bestTime) {
			best = data
			bestTime = data.Timestamp
			found = true
		}
	}
	return best, found
}
