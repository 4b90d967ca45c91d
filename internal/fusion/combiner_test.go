package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/models"
)

func ruleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Phase:         models.PhaseInitialContact,
		FootStrike:    models.StrikeForefoot,
		Abnormalities: []models.Abnormality{models.CadenceIrregularity},
		Metrics:       models.Metrics{Cadence: 200, StrideLength: 120, ContactTime: 120, FlightTime: 180, VerticalOscillation: 4, ImpactForce: 3, PronationAngle: 2},
		Scores:        models.Scores{Efficiency: 80, Stability: 90, Impact: 70, Overall: 81},
		Confidence:    0.88,
	}
}

func modelResult(confidence *float64) *models.PartialResult {
	phase := models.PhaseMidSwing
	metrics := models.Metrics{Cadence: 200, ContactTime: 250}
	scores := models.Scores{Efficiency: 60, Stability: 70, Impact: 90, Overall: 70}
	return &models.PartialResult{
		Phase:         &phase,
		Abnormalities: []models.Abnormality{models.CadenceIrregularity, models.TrunkLean},
		Metrics:       &metrics,
		Scores:        &scores,
		Confidence:    confidence,
	}
}

func ptr(f float64) *float64 { return &f }

func TestCombine_RuleOnlyIsIdentity(t *testing.T) {
	c := NewCombiner(zap.NewNop())
	rule := ruleResult()

	got, err := c.Combine(rule, nil, models.SensorSample{})
	require.NoError(t, err)
	assert.Equal(t, *rule, got)

	got.Abnormalities[0] = models.KneeCollapse
	assert.Equal(t, models.CadenceIrregularity, rule.Abnormalities[0], "result does not alias input")
}

func TestCombine_ModelOnly(t *testing.T) {
	c := NewCombiner(zap.NewNop())

	got, err := c.Combine(nil, modelResult(ptr(0.85)), models.SensorSample{})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseMidSwing, got.Phase)
	assert.Equal(t, models.StrikeMidfoot, got.FootStrike)
	assert.Equal(t, 70.0, got.Scores.Overall)
	assert.Equal(t, 0.85, got.Confidence)
}

func TestCombine_Both(t *testing.T) {
	c := NewCombiner(zap.NewNop())

	got, err := c.Combine(ruleResult(), modelResult(ptr(0.85)), models.SensorSample{})
	require.NoError(t, err)

	assert.Equal(t, models.PhaseInitialContact, got.Phase, "rule result is the base")
	assert.Equal(t, models.StrikeForefoot, got.FootStrike)
	assert.Equal(t, 120.0, got.Metrics.ContactTime)
	assert.Equal(t, []models.Abnormality{models.CadenceIrregularity, models.TrunkLean}, got.Abnormalities)

	assert.InDelta(t, 80*0.15+60*0.85, got.Scores.Efficiency, 1e-9)
	assert.InDelta(t, 90*0.15+70*0.85, got.Scores.Stability, 1e-9)
	assert.InDelta(t, 70*0.15+90*0.85, got.Scores.Impact, 1e-9)
	assert.InDelta(t, 81*0.15+70*0.85, got.Scores.Overall, 1e-9)
	assert.Equal(t, 0.88, got.Confidence)
}

func TestCombine_IncompleteModelResultIsDiscarded(t *testing.T) {
	c := NewCombiner(zap.NewNop())

	got, err := c.Combine(ruleResult(), modelResult(nil), models.SensorSample{})
	require.NoError(t, err)
	assert.Equal(t, *ruleResult(), got)

	_, err = c.Combine(nil, modelResult(nil), models.SensorSample{})
	assert.ErrorIs(t, err, ErrNoAnalysisAvailable)
}

func TestCombine_BlendDefaultWeight(t *testing.T) {
	rule := ruleResult()
	p := modelResult(nil)
	got := blend(*rule, p)
	assert.InDelta(t, 80*0.3+60*0.7, got.Scores.Efficiency, 1e-9)
	assert.Equal(t, 0.88, got.Confidence)
}

func TestCombine_NoSource(t *testing.T) {
	c := NewCombiner(zap.NewNop())
	latest := models.SensorSample{
		Cadence:      168,
		StrideLength: 105,
		Pressure:     models.PressureZones{Forefoot: 0.2, Midfoot: 0.3, Rearfoot: 1.4},
	}

	got, err := c.Combine(nil, nil, latest)
	assert.ErrorIs(t, err, ErrNoAnalysisAvailable)
	assert.Equal(t, FallbackConfidence, got.Confidence)
	assert.Equal(t, models.StrikeRearfoot, got.FootStrike)
	assert.Equal(t, 168.0, got.Metrics.Cadence)
	assert.Equal(t, 250.0, got.Metrics.ContactTime)
	assert.Equal(t, 75.0, got.Scores.Overall)
}
