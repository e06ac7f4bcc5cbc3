package motion

import "time"

// State classifies how much the device is moving.
type State int

const (
	// StateUnknown is reported before any sample has been ingested.
	StateUnknown State = iota
	// StateStable means motion magnitude is below the configured threshold.
	StateStable
	// StateLowMotion means motion is above the threshold but below the
	// high-motion multiple of it.
	StateLowMotion
	// StateHighMotion means motion exceeds the high-motion multiple of the
	// threshold.
	StateHighMotion
)

func (s State) String() string {
	switch s {
	case StateStable:
		return "stable"
	case StateLowMotion:
		return "low_motion"
	case StateHighMotion:
		return "high_motion"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so states serialize as their
// names in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classifier maps a sample's motion magnitude onto a State. The angular
// weight and high-motion multiplier are empirical policy constants and stay
// configurable.
type Classifier struct {
	MotionThreshold      float64       // m/s²-equivalent magnitude for "stable"
	AngularWeight        float64       // weight of angular rate in the magnitude
	HighMotionMultiplier float64       // threshold multiple for "high motion"
	StabilityDuration    time.Duration // window for sustained stability
}

// Classify returns the state for a single sample.
func (c Classifier) Classify(s Sample) State {
	mag := s.Magnitude(c.AngularWeight)
	switch {
	case mag < c.MotionThreshold:
		return StateStable
	case mag > c.HighMotionMultiplier*c.MotionThreshold:
		return StateHighMotion
	default:
		return StateLowMotion
	}
}

// ClassifyLatest returns the state for the newest sample in the history, or
// StateUnknown when the history is empty. It never fails.
func (c Classifier) ClassifyLatest(h *History) State {
	latest, ok := h.Latest()
	if !ok {
		return StateUnknown
	}
	return c.Classify(latest)
}

// Sustained reports whether every sample in the trailing StabilityDuration
// window classifies as stable, and the window spans at least that duration.
func (c Classifier) Sustained(samples []Sample) bool {
	if len(samples) == 0 || c.StabilityDuration <= 0 {
		return false
	}
	newest := samples[len(samples)-1].Timestamp
	cutoff := newest.Add(-c.StabilityDuration)
	spanned := false
	for i := len(samples) - 1; i >= 0; i-- {
		s := samples[i]
		if s.Timestamp.Before(cutoff) {
			spanned = true
			break
		}
		if c.Classify(s) != StateStable {
			return false
		}
		if !s.Timestamp.After(cutoff) {
			spanned = true
		}
	}
	return spanned
}
