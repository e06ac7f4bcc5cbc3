package motion

import (
	"testing"
	"time"
)

var historyBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func sampleAt(t time.Time, accel float64) Sample {
	return Sample{
		Timestamp:        t,
		UserAcceleration: Vector3{X: accel},
		Gravity:          Vector3{Z: -StandardGravity},
	}
}

func TestHistoryCapacityEviction(t *testing.T) {
	h := NewHistory(3, 0)
	for i := 0; i < 5; i++ {
		h.Append(sampleAt(historyBase.Add(time.Duration(i)*time.Second), float64(i)))
	}

	if got := h.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	snap := h.Snapshot()
	if got := snap[0].UserAcceleration.X; got != 2 {
		t.Errorf("oldest retained sample = %v, want accel 2", got)
	}
	if got := snap[2].UserAcceleration.X; got != 4 {
		t.Errorf("newest retained sample = %v, want accel 4", got)
	}
}

func TestHistoryAgeEviction(t *testing.T) {
	h := NewHistory(100, 10*time.Second)
	h.Append(sampleAt(historyBase, 0))
	h.Append(sampleAt(historyBase.Add(1*time.Second), 1))
	h.Append(sampleAt(historyBase.Add(15*time.Second), 2))

	if got := h.Len(); got != 1 {
		t.Fatalf("Len() after age eviction = %d, want 1", got)
	}
	latest, ok := h.Latest()
	if !ok || latest.UserAcceleration.X != 2 {
		t.Errorf("Latest() = %v %t, want newest sample", latest.UserAcceleration.X, ok)
	}
}

func TestHistoryTimestampClamp(t *testing.T) {
	h := NewHistory(10, 0)
	h.Append(sampleAt(historyBase.Add(time.Second), 0))
	// Arrives late with an older timestamp.
	h.Append(sampleAt(historyBase, 1))

	snap := h.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Len() = %d, want 2", len(snap))
	}
	if snap[1].Timestamp.Before(snap[0].Timestamp) {
		t.Errorf("timestamps decreasing: %v then %v", snap[0].Timestamp, snap[1].Timestamp)
	}
	if !snap[1].Timestamp.Equal(snap[0].Timestamp) {
		t.Errorf("late sample not clamped to newest timestamp: %v", snap[1].Timestamp)
	}
}

func TestHistoryNearest(t *testing.T) {
	h := NewHistory(10, 0)
	h.Append(sampleAt(historyBase, 0))
	h.Append(sampleAt(historyBase.Add(100*time.Millisecond), 1))
	h.Append(sampleAt(historyBase.Add(200*time.Millisecond), 2))

	tests := []struct {
		name      string
		at        time.Time
		maxGap    time.Duration
		wantAccel float64
		wantOK    bool
	}{
		{"exact match", historyBase.Add(100 * time.Millisecond), 0, 1, true},
		{"closest wins", historyBase.Add(180 * time.Millisecond), 0, 2, true},
		{"tie prefers earlier", historyBase.Add(50 * time.Millisecond), 0, 0, true},
		{"within gap", historyBase.Add(450 * time.Millisecond), 500 * time.Millisecond, 2, true},
		{"beyond gap", historyBase.Add(800 * time.Millisecond), 500 * time.Millisecond, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := h.Nearest(tc.at, tc.maxGap)
			if ok != tc.wantOK {
				t.Fatalf("Nearest() ok = %t, want %t", ok, tc.wantOK)
			}
			if ok && got.UserAcceleration.X != tc.wantAccel {
				t.Errorf("Nearest() accel = %v, want %v", got.UserAcceleration.X, tc.wantAccel)
			}
		})
	}
}

func TestHistoryNearestEmpty(t *testing.T) {
	h := NewHistory(10, 0)
	if _, ok := h.Nearest(historyBase, 0); ok {
		t.Error("Nearest() on empty history reported a sample")
	}
	if _, ok := h.Latest(); ok {
		t.Error("Latest() on empty history reported a sample")
	}
}
