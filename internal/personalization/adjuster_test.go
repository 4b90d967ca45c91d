package personalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/models"
)

func resultWithOverall(overall float64) models.AnalysisResult {
	return models.AnalysisResult{
		Phase:         models.PhaseMidStance,
		FootStrike:    models.StrikeMidfoot,
		Abnormalities: []models.Abnormality{},
		Scores:        models.Scores{Efficiency: overall, Stability: overall, Impact: overall, Overall: overall},
		Confidence:    0.88,
	}
}

func profileWith(exp models.ExperienceLevel, issues ...models.Abnormality) *models.RunnerProfile {
	p := models.DefaultProfile("runner-1")
	p.Experience = exp
	p.KnownIssues = issues
	return p
}

func TestPersonalize_OutlierSmoothing(t *testing.T) {
	a := NewAdjuster(profileWith(models.ExperienceIntermediate), nil, zap.NewNop())
	for i := 0; i < 10; i++ {
		got := a.Personalize(resultWithOverall(80))
		assert.Equal(t, 80.0, got.Scores.Overall)
		assert.Equal(t, 0.88, got.Confidence)
	}

	got := a.Personalize(resultWithOverall(20))
	assert.InDelta(t, 38.0, got.Scores.Overall, 1e-9)
	assert.InDelta(t, 0.88*0.85, got.Confidence, 1e-9)
	assert.Equal(t, 11, a.WindowLen())
}

func TestPersonalize_NoSmoothingWithinTwoSigma(t *testing.T) {
	a := NewAdjuster(profileWith(models.ExperienceIntermediate), nil, zap.NewNop())
	for i := 0; i < 10; i++ {
		a.Personalize(resultWithOverall(float64(70 + i%2*10)))
	}
	// mean 75, std 5
	got := a.Personalize(resultWithOverall(84))
	assert.Equal(t, 84.0, got.Scores.Overall)
	assert.Equal(t, 0.88, got.Confidence)
}

func TestPersonalize_ConfidenceFloor(t *testing.T) {
	a := NewAdjuster(profileWith(models.ExperienceIntermediate), nil, zap.NewNop())
	for i := 0; i < 10; i++ {
		a.Personalize(resultWithOverall(80))
	}
	r := resultWithOverall(10)
	r.Confidence = 0.55
	got := a.Personalize(r)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestPersonalize_ProfileRescoring(t *testing.T) {
	beginner := NewAdjuster(profileWith(models.ExperienceBeginner), nil, zap.NewNop())
	assert.Equal(t, 100.0, beginner.Personalize(resultWithOverall(95)).Scores.Overall)
	assert.InDelta(t, 66.0, beginner.Personalize(resultWithOverall(60)).Scores.Overall, 1e-9)

	advanced := NewAdjuster(profileWith(models.ExperienceAdvanced), nil, zap.NewNop())
	assert.InDelta(t, 76.0, advanced.Personalize(resultWithOverall(80)).Scores.Overall, 1e-9)

	known := NewAdjuster(profileWith(models.ExperienceIntermediate, models.Overpronation, models.TrunkLean), nil, zap.NewNop())
	r := resultWithOverall(80)
	r.Abnormalities = []models.Abnormality{models.Overpronation}
	assert.Equal(t, 0.98, known.Personalize(r).Confidence)

	r = resultWithOverall(80)
	r.Confidence = 0.6
	r.Abnormalities = []models.Abnormality{models.Overpronation, models.TrunkLean}
	assert.InDelta(t, 0.6*1.15*1.15, known.Personalize(r).Confidence, 1e-9)
}

func TestPersonalize_DoesNotMutateInput(t *testing.T) {
	a := NewAdjuster(profileWith(models.ExperienceBeginner), nil, zap.NewNop())
	in := resultWithOverall(60)
	_ = a.Personalize(in)
	assert.Equal(t, 60.0, in.Scores.Overall)
}

func TestPersonalize_WindowCapacity(t *testing.T) {
	a := NewAdjuster(nil, nil, zap.NewNop())
	for i := 0; i < WindowCapacity+50; i++ {
		a.Personalize(resultWithOverall(80))
	}
	assert.Equal(t, WindowCapacity, a.WindowLen())
}

func TestSuggest_Goals(t *testing.T) {
	a := NewAdjuster(profileWith(models.ExperienceIntermediate), nil, zap.NewNop())
	r := resultWithOverall(80)
	r.Metrics.ImpactForce = 2.5

	got := a.Suggest(r)
	require.Len(t, got, 2)
	assert.Equal(t, models.SuggestionWarning, got[0].Type)
	assert.Equal(t, 4, got[0].Priority)
	assert.Equal(t, 3, got[1].Priority)

	r.Scores.Efficiency = 90
	r.Metrics.ImpactForce = 1.5
	assert.Empty(t, a.Suggest(r))
}

func TestSuggest_ExperienceTiers(t *testing.T) {
	r := resultWithOverall(90)
	r.FootStrike = models.StrikeRearfoot

	beginner := NewAdjuster(profileWith(models.ExperienceBeginner), nil, zap.NewNop())
	got := beginner.Suggest(r)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Priority)

	advanced := NewAdjuster(profileWith(models.ExperienceAdvanced), nil, zap.NewNop())
	got = advanced.Suggest(r)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Priority)
	assert.Contains(t, got[0].Text, "midfoot")

	r.FootStrike = models.StrikeMidfoot
	assert.Empty(t, advanced.Suggest(r))
}

func TestProfile_ReturnsCopy(t *testing.T) {
	a := NewAdjuster(profileWith(models.ExperienceIntermediate, models.Overpronation), nil, zap.NewNop())
	p := a.Profile()
	p.KnownIssues[0] = models.KneeCollapse
	p.Experience = models.ExperienceAdvanced

	assert.Equal(t, models.Overpronation, a.Profile().KnownIssues[0])
	assert.Equal(t, models.ExperienceIntermediate, a.Profile().Experience)

	a.SetProfile(p)
	assert.Equal(t, models.ExperienceAdvanced, a.Profile().Experience)
}
