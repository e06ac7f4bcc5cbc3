package motion

import (
	"sync"
	"time"
)

// History is a rolling, capacity- and age-bounded sequence of motion samples.
//
// It is written by a single ingest goroutine and read concurrently by
// compensation calls. Readers always operate on a consistent snapshot copied
// under the read lock; a long-running compensation call never observes a
// partially written sample. Eviction is FIFO via a ring buffer, O(1) per
// append.
//
// Invariant: retained samples are non-decreasing in timestamp. An append that
// arrives with an earlier timestamp than the newest retained sample is clamped
// forward to preserve the invariant.
type History struct {
	mu       sync.RWMutex
	samples  []Sample // ring storage, len == capacity
	head     int      // index of the oldest sample
	size     int
	capacity int
	maxAge   time.Duration // 0 means no age bound
}

// NewHistory creates a history bounded to capacity samples and, when maxAge is
// non-zero, to samples no older than maxAge relative to the newest sample.
func NewHistory(capacity int, maxAge time.Duration) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		samples:  make([]Sample, capacity),
		capacity: capacity,
		maxAge:   maxAge,
	}
}

// Append adds a sample, evicting the oldest when the buffer is full.
func (h *History) Append(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.size > 0 {
		newest := h.samples[(h.head+h.size-1)%h.capacity]
		if s.Timestamp.Before(newest.Timestamp) {
			s.Timestamp = newest.Timestamp
		}
	}

	if h.size == h.capacity {
		h.samples[h.head] = s
		h.head = (h.head + 1) % h.capacity
	} else {
		h.samples[(h.head+h.size)%h.capacity] = s
		h.size++
	}

	h.evictExpiredLocked(s.Timestamp)
}

// evictExpiredLocked drops samples older than maxAge relative to the newest
// timestamp. Caller must hold the write lock.
func (h *History) evictExpiredLocked(newest time.Time) {
	if h.maxAge <= 0 {
		return
	}
	cutoff := newest.Add(-h.maxAge)
	for h.size > 1 && h.samples[h.head].Timestamp.Before(cutoff) {
		h.head = (h.head + 1) % h.capacity
		h.size--
	}
}

// Len returns the number of retained samples.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Latest returns the most recent sample, or false when empty.
func (h *History) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.size == 0 {
		return Sample{}, false
	}
	return h.samples[(h.head+h.size-1)%h.capacity], true
}

// Snapshot returns a copy of the retained samples, oldest first.
func (h *History) Snapshot() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Sample, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.samples[(h.head+i)%h.capacity]
	}
	return out
}

// Nearest returns the sample temporally closest to t by absolute delta, ties
// broken by preferring the earlier sample. When maxGap is non-zero and the
// best delta exceeds it, Nearest reports false so callers can fall back to a
// default motion frame.
func (h *History) Nearest(t time.Time, maxGap time.Duration) (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.size == 0 {
		return Sample{}, false
	}

	best := h.samples[h.head]
	bestDelta := absDuration(t.Sub(best.Timestamp))
	for i := 1; i < h.size; i++ {
		s := h.samples[(h.head+i)%h.capacity]
		d := absDuration(t.Sub(s.Timestamp))
		// Strict comparison keeps the earlier sample on a tie.
		if d < bestDelta {
			best = s
			bestDelta = d
		}
	}

	if maxGap > 0 && bestDelta > maxGap {
		return Sample{}, false
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
