package personalization

import (
	"sort"

	"stride-coach/internal/models"
)

const (
	// TrendSessions is the maximum number of recent sessions used for trends.
	TrendSessions = 5

	cadenceSlopeThreshold = 2.0
	cadenceIdealLow       = 175
	cadenceIdealHigh      = 185
	recurringShare        = 0.6
	scoreSlopeThreshold   = 3.0
	minScoreTrendSessions = 3
)

// HistorySuggestions analyzes the adjuster's recorded sessions.
func (a *Adjuster) HistorySuggestions() []models.Suggestion {
	a.mu.RLock()
	sessions := a.sessions
	a.mu.RUnlock()
	return AnalyzeHistory(sessions)
}

// AnalyzeHistory derives trend suggestions from sessions ordered most recent first.
// At least two sessions are required.
func AnalyzeHistory(sessions []models.SessionRecord) []models.Suggestion {
	if len(sessions) < 2 {
		return []models.Suggestion{}
	}
	recent := sessions
	if len(recent) > TrendSessions {
		recent = recent[:TrendSessions]
	}
	latest := recent[0]

	// Regression runs oldest to newest so a negative slope means decline.
	chrono := make([]models.SessionRecord, len(recent))
	for i, s := range recent {
		chrono[len(recent)-1-i] = s
	}

	out := make([]models.Suggestion, 0)

	cadence := make([]float64, len(chrono))
	scores := make([]float64, len(chrono))
	for i, s := range chrono {
		cadence[i] = s.AvgCadence
		scores[i] = s.AvgOverallScore
	}

	switch slope := LinearTrend(cadence); {
	case slope < -cadenceSlopeThreshold && latest.AvgCadence < cadenceIdealLow:
		out = append(out, models.NewSuggestion(models.SuggestionWarning,
			"Your cadence is declining and below the ideal range. Try metronome runs to bring it back to 175-185 steps/min.",
			4, models.CadenceIrregularity, 0.75))
	case slope > cadenceSlopeThreshold && latest.AvgCadence > cadenceIdealHigh:
		out = append(out, models.NewSuggestion(models.SuggestionInfo,
			"Your cadence is rising above the ideal range and may cost extra energy. Consider lengthening your stride slightly.",
			3, "", 0.7))
	}

	for _, a := range recurring(recent) {
		out = append(out, recurringSuggestion(a))
	}

	if len(chrono) >= minScoreTrendSessions {
		switch slope := LinearTrend(scores); {
		case slope > scoreSlopeThreshold:
			out = append(out, models.NewSuggestion(models.SuggestionSuccess,
				"Your form score keeps improving. Keep up the current training!",
				3, "", 0.9))
		case slope < -scoreSlopeThreshold:
			out = append(out, models.NewSuggestion(models.SuggestionWarning,
				"Your form score has dropped recently, possibly from fatigue or technique. Consider more rest or drills.",
				4, "", 0.75))
		}
	}
	return out
}

// recurring returns abnormalities present in at least 60% of sessions,
// most frequent first.
func recurring(sessions []models.SessionRecord) []models.Abnormality {
	counts := make(map[models.Abnormality]int)
	for _, s := range sessions {
		for _, a := range models.UnionAbnormalities(s.Abnormalities) {
			counts[a]++
		}
	}
	threshold := recurringShare * float64(len(sessions))
	out := make([]models.Abnormality, 0)
	for _, a := range models.Abnormalities {
		if counts[a] > 0 && float64(counts[a]) >= threshold {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	return out
}

func recurringSuggestion(a models.Abnormality) models.Suggestion {
	switch a {
	case models.Overpronation:
		return models.NewSuggestion(models.SuggestionWarning,
			"Overpronation keeps showing up across sessions. Add foot strengthening drills and consider stability shoes.",
			5, a, 0.85)
	case models.VerticalOscillation:
		return models.NewSuggestion(models.SuggestionInfo,
			"Your vertical oscillation stays high. Shorten your stride and raise cadence to bounce less.",
			4, a, 0.8)
	case models.Overstriding:
		return models.NewSuggestion(models.SuggestionWarning,
			"You overstride in most sessions, which increases impact. Shorten your stride and raise cadence.",
			4, a, 0.8)
	default:
		return models.NewSuggestion(models.SuggestionInfo,
			"Recurring issue across recent sessions: "+string(a)+". Consider a form check with a coach.",
			3, a, 0.7)
	}
}

// LinearTrend returns the ordinary least squares slope of values over x = 0..n-1.
func LinearTrend(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	meanX := float64(n-1) / 2
	var sumY float64
	for _, v := range values {
		sumY += v
	}
	meanY := sumY / float64(n)

	var num, den float64
	for i, v := range values {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func sortByPriority(s []models.Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Priority > s[j].Priority
	})
}
