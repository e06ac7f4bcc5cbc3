// Package compensation implements the four-stage motion compensation
// pipeline and the accuracy assessor that grades its output.
package compensation

import (
	"time"

	"github.com/revsmoke/scanplan-precision/internal/measure"
	"github.com/revsmoke/scanplan-precision/internal/motion"
)

// Options configures the pipeline. All values are plain data; the empirical
// scale factors are policy constants tuned on rig recordings and must stay
// configurable.
type Options struct {
	// AccuracyTarget is the compensation accuracy target in meters. Stage
	// confidences are expressed relative to it.
	AccuracyTarget float64

	// LinearScale converts acceleration × distance into meters of
	// motion-induced error.
	LinearScale float64

	// AngularScale converts angular rate × measured value into error in the
	// measured quantity. Rotational error scales with the measured quantity
	// itself rather than distance: it is an angular displacement of the
	// reference frame.
	AngularScale float64

	// PredictiveScale converts predicted velocity over the horizon into a
	// signed correction.
	PredictiveScale float64

	// PredictionHorizon is how far ahead the predictive stage looks.
	PredictionHorizon time.Duration

	// Stage gates. Linear and angular default on; predictive and adaptive
	// are opt-in.
	EnableLinear     bool
	EnableAngular    bool
	EnablePredictive bool
	EnableAdaptive   bool

	// RequiredAccuracy tunes the adaptive stage's damping.
	RequiredAccuracy measure.Accuracy
}

// DefaultOptions returns the pipeline tuning used when the config file does
// not override it.
func DefaultOptions() Options {
	return Options{
		AccuracyTarget:    0.001,
		LinearScale:       0.001,
		AngularScale:      0.0005,
		PredictiveScale:   0.0005,
		PredictionHorizon: 100 * time.Millisecond,
		EnableLinear:      true,
		EnableAngular:     true,
		RequiredAccuracy:  measure.AccuracyMillimeter,
	}
}

// Pipeline chains the four compensation stages. Given identical inputs and
// options the output is bit-reproducible: there is no hidden randomness and
// every stage is a pure function of its arguments.
type Pipeline struct {
	opts      Options
	predictor motion.Predictor
}

// NewPipeline builds a pipeline with the given options and predictor.
func NewPipeline(opts Options, predictor motion.Predictor) *Pipeline {
	return &Pipeline{opts: opts, predictor: predictor}
}

// Options returns the pipeline's configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Process runs the raw measurement through the enabled stages in order:
// linear, angular, predictive, adaptive. Each stage consumes the previous
// stage's value plus the matched motion sample. Confidence never increases
// down the chain.
func (p *Pipeline) Process(raw measure.RawMeasurement, frame motion.Sample, history []motion.Sample) measure.CompensatedValue {
	current := measure.CompensatedValue{
		Value:      raw.Value,
		Stage:      measure.StageNone,
		Confidence: 1,
	}

	if p.opts.EnableLinear {
		current = p.linearStage(current, raw, frame)
	}
	if p.opts.EnableAngular {
		current = p.angularStage(current, frame)
	}
	if p.opts.EnablePredictive {
		current = p.predictiveStage(current, history)
	}
	if p.opts.EnableAdaptive {
		current = p.adaptiveStage(current, raw)
	}
	return current
}

// linearStage removes translation-induced error: net acceleration magnitude
// times the sensor-to-target distance times the empirical scale.
func (p *Pipeline) linearStage(prev measure.CompensatedValue, raw measure.RawMeasurement, frame motion.Sample) measure.CompensatedValue {
	accelMag := frame.UserAcceleration.Norm()
	errEstimate := accelMag * raw.Distance * p.opts.LinearScale

	conf := 0.0
	if p.opts.AccuracyTarget > 0 {
		conf = 1 - errEstimate/p.opts.AccuracyTarget
	}
	if conf < 0 {
		conf = 0
	}
	return measure.CompensatedValue{
		Value:      prev.Value - errEstimate,
		Stage:      measure.StageLinear,
		Confidence: minf(prev.Confidence, conf),
	}
}

// angularStage removes rotation-induced error, which scales with the current
// value rather than the distance.
func (p *Pipeline) angularStage(prev measure.CompensatedValue, frame motion.Sample) measure.CompensatedValue {
	angMag := frame.RotationRate.Norm()
	errEstimate := angMag * prev.Value * p.opts.AngularScale

	conf := 0.0
	if p.opts.AccuracyTarget > 0 {
		conf = 1 - errEstimate/p.opts.AccuracyTarget
	}
	if conf < 0 {
		conf = 0
	}
	return measure.CompensatedValue{
		Value:      prev.Value - errEstimate,
		Stage:      measure.StageAngular,
		Confidence: minf(prev.Confidence, conf),
	}
}

// predictiveStage applies a signed correction proportional to the predicted
// velocity over the configured horizon. When the predictor has nothing to
// say the stage is a no-op preserving value and confidence unchanged.
func (p *Pipeline) predictiveStage(prev measure.CompensatedValue, history []motion.Sample) measure.CompensatedValue {
	pred, ok := p.predictor.Predict(history, p.opts.PredictionHorizon)
	if !ok {
		return prev
	}

	correction := pred.LinearVelocity.Norm() * p.opts.PredictionHorizon.Seconds() * p.opts.PredictiveScale
	return measure.CompensatedValue{
		Value:      prev.Value - correction,
		Stage:      measure.StagePredictive,
		Confidence: minf(prev.Confidence, pred.Confidence),
	}
}

// adaptiveStage damps the accumulated correction toward the raw value, with
// damping tuned to the required accuracy tier. Looser tiers tolerate more
// smoothing. Confidence is preserved, never raised.
func (p *Pipeline) adaptiveStage(prev measure.CompensatedValue, raw measure.RawMeasurement) measure.CompensatedValue {
	retain := adaptiveRetention(p.opts.RequiredAccuracy)
	correction := prev.Value - raw.Value
	return measure.CompensatedValue{
		Value:      raw.Value + correction*retain,
		Stage:      measure.StageAdaptive,
		Confidence: prev.Confidence,
	}
}

// adaptiveRetention returns the fraction of the accumulated correction the
// adaptive stage keeps. Tighter tiers trust the correction more.
func adaptiveRetention(tier measure.Accuracy) float64 {
	switch tier {
	case measure.AccuracySubMillimeter:
		return 0.95
	case measure.AccuracyMillimeter:
		return 0.9
	case measure.AccuracyCentimeter:
		return 0.8
	default:
		return 0.7
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
