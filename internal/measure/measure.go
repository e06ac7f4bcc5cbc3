// Package measure holds the shared data model for raw and compensated
// measurements, accuracy tiers, and validation results.
package measure

import (
	"time"

	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// Kind identifies what a measurement quantifies.
type Kind string

const (
	KindDistance Kind = "distance"
	KindArea     Kind = "area"
	KindVolume   Kind = "volume"
	KindAngle    Kind = "angle"
)

// Valid reports whether k is a known measurement kind.
func (k Kind) Valid() bool {
	switch k {
	case KindDistance, KindArea, KindVolume, KindAngle:
		return true
	}
	return false
}

// Accuracy is an ordered bucket classifying estimated measurement error.
type Accuracy string

const (
	AccuracySubMillimeter Accuracy = "sub_millimeter"
	AccuracyMillimeter    Accuracy = "millimeter"
	AccuracyCentimeter    Accuracy = "centimeter"
	AccuracyDecimeter     Accuracy = "decimeter"
)

// Bound returns the tier's upper error bound in meters.
func (a Accuracy) Bound() float64 {
	switch a {
	case AccuracySubMillimeter:
		return 0.001
	case AccuracyMillimeter:
		return 0.002
	case AccuracyCentimeter:
		return 0.05
	default:
		return 0.5
	}
}

// ClassifyError buckets an estimated error bound in meters into a tier.
// The ranges are fixed and non-overlapping: sub-millimeter below 1mm,
// millimeter 1–2mm, centimeter 1–5cm, decimeter above. The gap between 2mm
// and 1cm is deliberate: real sensors cluster either in the millimeter class
// or the centimeter class, and an estimate falling between the clusters is
// conservatively assigned to the centimeter tier.
func ClassifyError(errorMeters float64) Accuracy {
	switch {
	case errorMeters < 0.001:
		return AccuracySubMillimeter
	case errorMeters <= 0.002:
		return AccuracyMillimeter
	case errorMeters <= 0.05:
		return AccuracyCentimeter
	default:
		return AccuracyDecimeter
	}
}

// ParseAccuracy maps a config string onto a tier, defaulting to centimeter.
func ParseAccuracy(s string) Accuracy {
	switch Accuracy(s) {
	case AccuracySubMillimeter, AccuracyMillimeter, AccuracyCentimeter, AccuracyDecimeter:
		return Accuracy(s)
	}
	return AccuracyCentimeter
}

// RawMeasurement is a single user measurement before compensation. Created
// once per measurement action and immutable afterwards.
type RawMeasurement struct {
	Kind      Kind             `json:"kind"`
	Value     float64          `json:"value"`    // meters, m², m³, or degrees
	Distance  float64          `json:"distance"` // meters from sensor to target
	Position  motion.Vector3   `json:"position"` // 3D position of the measurement
	Points    []motion.Vector3 `json:"points,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Stage names a compensation pipeline stage.
type Stage string

const (
	StageNone       Stage = "none"
	StageLinear     Stage = "linear"
	StageAngular    Stage = "angular"
	StagePredictive Stage = "predictive"
	StageAdaptive   Stage = "adaptive"
)

// CompensatedValue is a corrected scalar with provenance and confidence.
// Each pipeline stage produces a new value consuming the prior one.
type CompensatedValue struct {
	Value      float64 `json:"value"`
	Stage      Stage   `json:"stage"`
	Confidence float64 `json:"confidence"` // in [0,1], non-increasing down the chain
}

// AccuracyAssessment maps compensation effectiveness and residual motion onto
// an estimated error bound and tier. It is derived, never stored
// authoritatively; callers recompute it per validation cycle.
type AccuracyAssessment struct {
	EstimatedError    float64  `json:"estimated_error"` // meters
	Confidence        float64  `json:"confidence"`
	MeetsRequirements bool     `json:"meets_requirements"`
	Tier              Accuracy `json:"tier"`
}

// ConservativeAssessment is the assessment reported on internal uncertainty:
// lowest accuracy, lowest confidence, requirement not met.
func ConservativeAssessment() AccuracyAssessment {
	return AccuracyAssessment{
		EstimatedError: AccuracyDecimeter.Bound(),
		Tier:           AccuracyDecimeter,
	}
}

// Severity ranks validation issues.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Issue is a single finding from a validator.
type Issue struct {
	Validator string   `json:"validator"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// Validation is the combined verdict of the quality gate.
//
// Invariant: IsValid implies len(Errors) == 0 and PrecisionScore at or above
// the configured minimum threshold.
type Validation struct {
	IsValid         bool      `json:"is_valid"`
	PrecisionScore  float64   `json:"precision_score"`  // minimum across validators
	ConfidenceScore float64   `json:"confidence_score"` // from motion-derived confidence
	QualityScore    float64   `json:"quality_score"`    // mean of precision and confidence
	Errors          []Issue   `json:"errors,omitempty"`
	Warnings        []Issue   `json:"warnings,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// CompensatedMeasurement is the externally visible unit of work: the raw
// measurement plus everything derived from it. Immutable once produced.
type CompensatedMeasurement struct {
	Raw         RawMeasurement     `json:"raw"`
	Compensated CompensatedValue   `json:"compensated"`
	MotionFrame motion.Sample      `json:"motion_frame"`
	MotionState motion.State       `json:"motion_state"`
	Assessment  AccuracyAssessment `json:"assessment"`
	Validation  Validation         `json:"validation"`
	Latency     time.Duration      `json:"latency_ns"`
}
