package personalization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/models"
)

// sessionsFromOldest builds records from oldest to newest and returns them most recent first.
func sessionsFromOldest(cadence []float64, overall []float64, abn [][]models.Abnormality) []models.SessionRecord {
	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	out := make([]models.SessionRecord, len(cadence))
	for i := range cadence {
		rec := models.SessionRecord{
			ID:              "s" + string(rune('a'+i)),
			Date:            base.AddDate(0, 0, i),
			AvgCadence:      cadence[i],
			AvgOverallScore: 80,
		}
		if overall != nil {
			rec.AvgOverallScore = overall[i]
		}
		if abn != nil {
			rec.Abnormalities = abn[i]
		}
		out[len(cadence)-1-i] = rec
	}
	return out
}

func TestLinearTrend(t *testing.T) {
	assert.InDelta(t, -2.5, LinearTrend([]float64{160, 158, 155}), 1e-9)
	assert.Equal(t, 0.0, LinearTrend([]float64{178, 178, 178}))
	assert.Equal(t, 0.0, LinearTrend([]float64{42}))
	assert.Equal(t, 0.0, LinearTrend(nil))
}

func TestAnalyzeHistory_CadenceDeclining(t *testing.T) {
	got := AnalyzeHistory(sessionsFromOldest([]float64{160, 158, 155}, nil, nil))
	require.Len(t, got, 1)
	assert.Equal(t, models.SuggestionWarning, got[0].Type)
	assert.Equal(t, 4, got[0].Priority)
	assert.Equal(t, models.CadenceIrregularity, got[0].Abnormality)
	assert.Contains(t, got[0].Text, "declining")
}

func TestAnalyzeHistory_StableCadence(t *testing.T) {
	assert.Empty(t, AnalyzeHistory(sessionsFromOldest([]float64{178, 178, 178}, nil, nil)))
}

func TestAnalyzeHistory_CadenceRising(t *testing.T) {
	got := AnalyzeHistory(sessionsFromOldest([]float64{180, 184, 190}, nil, nil))
	require.Len(t, got, 1)
	assert.Equal(t, models.SuggestionInfo, got[0].Type)
	assert.Equal(t, 3, got[0].Priority)
}

func TestAnalyzeHistory_NeedsTwoSessions(t *testing.T) {
	assert.Empty(t, AnalyzeHistory(sessionsFromOldest([]float64{150}, nil, nil)))
	assert.Empty(t, AnalyzeHistory(nil))
}

func TestAnalyzeHistory_UsesFiveMostRecent(t *testing.T) {
	// The three oldest sessions decline sharply but fall outside the window.
	cadence := []float64{200, 190, 180, 176, 176, 176, 176, 176}
	assert.Empty(t, AnalyzeHistory(sessionsFromOldest(cadence, nil, nil)))
}

func TestAnalyzeHistory_RecurringIssues(t *testing.T) {
	abn := [][]models.Abnormality{
		{models.Overpronation},
		{models.Overpronation, models.VerticalOscillation},
		{},
		{models.Overpronation, models.Overstriding, models.Overstriding},
		{models.VerticalOscillation},
	}
	got := AnalyzeHistory(sessionsFromOldest([]float64{178, 178, 178, 178, 178}, nil, abn))
	require.Len(t, got, 1)
	assert.Equal(t, models.Overpronation, got[0].Abnormality)
	assert.Equal(t, 5, got[0].Priority)
}

func TestAnalyzeHistory_ScoreTrend(t *testing.T) {
	got := AnalyzeHistory(sessionsFromOldest([]float64{178, 178, 178}, []float64{70, 75, 82}, nil))
	require.Len(t, got, 1)
	assert.Equal(t, models.SuggestionSuccess, got[0].Type)

	got = AnalyzeHistory(sessionsFromOldest([]float64{178, 178, 178}, []float64{85, 78, 70}, nil))
	require.Len(t, got, 1)
	assert.Equal(t, models.SuggestionWarning, got[0].Type)
	assert.Equal(t, 4, got[0].Priority)

	assert.Empty(t, AnalyzeHistory(sessionsFromOldest([]float64{178, 178}, []float64{60, 90}, nil)), "score trend needs three sessions")
}

func TestAdjuster_HistorySuggestionsFollowRecordedSessions(t *testing.T) {
	a := NewAdjuster(nil, nil, zap.NewNop())
	assert.Empty(t, a.HistorySuggestions())

	for i, c := range []float64{160, 158, 155} {
		a.RecordSession(models.SessionRecord{
			ID:              "s" + string(rune('a'+i)),
			Date:            time.Date(2026, 3, 1+i, 7, 0, 0, 0, time.UTC),
			AvgCadence:      c,
			AvgOverallScore: 80,
		})
	}
	got := a.HistorySuggestions()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "declining")
}
