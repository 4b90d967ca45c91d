// Package fusion merges rule-based and model-based gait assessments.
//
// Fusion rules:
//   - rule result only: returned unchanged
//   - model result only: returned as is (missing phase / foot strike default to mid stance / midfoot)
//   - both: rule result is the base, abnormalities are unioned, each score is
//     weighted toward the model by its confidence, confidence is the max of both
//   - neither: ErrNoAnalysisAvailable plus an explicit low-confidence fallback
package fusion

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"stride-coach/internal/models"
)

// ErrNoAnalysisAvailable is returned when no source produced a result.
var ErrNoAnalysisAvailable = errors.New("no analysis available")

const (
	// DefaultModelWeight applies when the model result carries no confidence.
	DefaultModelWeight = 0.7
	// FallbackConfidence is the confidence of a synthesized fallback result.
	FallbackConfidence = 0.6
)

// Combiner fuses analysis sources.
type Combiner struct {
	logger *zap.Logger
}

// NewCombiner creates a combiner.
func NewCombiner(logger *zap.Logger) *Combiner {
	return &Combiner{logger: logger}
}

// Combine fuses a rule result and a model result for the latest sample.
// Either may be nil. When both are absent (or the model result is incomplete
// and no rule result exists) it returns Fallback(latest) and ErrNoAnalysisAvailable.
func (c *Combiner) Combine(rule *models.AnalysisResult, model *models.PartialResult, latest models.SensorSample) (models.AnalysisResult, error) {
	if model != nil && !complete(model) {
		c.logger.Warn("Discarding incomplete model result")
		model = nil
	}

	switch {
	case rule != nil && model == nil:
		return rule.Clone(), nil
	case rule == nil && model != nil:
		return fromModel(model), nil
	case rule != nil && model != nil:
		return blend(*rule, model), nil
	default:
		c.logger.Error("No analysis source produced a result, using fallback",
			zap.Int64("timestamp", latest.Timestamp),
		)
		return Fallback(latest), ErrNoAnalysisAvailable
	}
}

// Fallback is the documented placeholder result used when no source is available.
func Fallback(latest models.SensorSample) models.AnalysisResult {
	return models.AnalysisResult{
		Phase:         models.PhaseMidStance,
		FootStrike:    models.DominantFootStrike(latest.Pressure),
		Abnormalities: []models.Abnormality{},
		Metrics: models.Metrics{
			Cadence:             latest.Cadence,
			StrideLength:        latest.StrideLength,
			ContactTime:         250,
			FlightTime:          400,
			VerticalOscillation: 5.0,
			ImpactForce:         2.0,
			PronationAngle:      8.0,
		},
		Scores: models.Scores{
			Efficiency: 75,
			Stability:  75,
			Impact:     75,
			Overall:    75,
		},
		Confidence: FallbackConfidence,
	}
}

func complete(p *models.PartialResult) bool {
	return p.Metrics != nil && p.Scores != nil && p.Confidence != nil
}

func fromModel(p *models.PartialResult) models.AnalysisResult {
	res := models.AnalysisResult{
		Phase:         models.PhaseMidStance,
		FootStrike:    models.StrikeMidfoot,
		Abnormalities: models.UnionAbnormalities(p.Abnormalities),
		Metrics:       *p.Metrics,
		Scores:        *p.Scores,
		Confidence:    *p.Confidence,
	}
	if p.Phase != nil {
		res.Phase = *p.Phase
	}
	if p.FootStrike != nil {
		res.FootStrike = *p.FootStrike
	}
	return res
}

func blend(base models.AnalysisResult, p *models.PartialResult) models.AnalysisResult {
	out := base.Clone()
	out.Abnormalities = models.UnionAbnormalities(base.Abnormalities, p.Abnormalities)

	w := DefaultModelWeight
	if p.Confidence != nil {
		w = *p.Confidence
	}
	if p.Scores != nil {
		out.Scores = models.Scores{
			Efficiency: weigh(base.Scores.Efficiency, p.Scores.Efficiency, w),
			Stability:  weigh(base.Scores.Stability, p.Scores.Stability, w),
			Impact:     weigh(base.Scores.Impact, p.Scores.Impact, w),
			Overall:    weigh(base.Scores.Overall, p.Scores.Overall, w),
		}
	}
	if p.Confidence != nil {
		out.Confidence = math.Max(base.Confidence, *p.Confidence)
	}
	return out
}

func weigh(base, model, w float64) float64 {
	return base*(1-w) + model*w
}
