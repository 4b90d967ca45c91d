package personalization

import "stride-coach/internal/models"

const (
	efficiencyGoalThreshold = 85
	impactGoalThreshold     = 2.0
)

// Suggest returns goal-driven and experience-tier suggestions for res.
func (a *Adjuster) Suggest(res models.AnalysisResult) []models.Suggestion {
	a.mu.RLock()
	p := a.profile
	a.mu.RUnlock()

	out := make([]models.Suggestion, 0, 3)

	for _, goal := range p.Goals {
		switch goal {
		case models.GoalImproveEfficiency:
			if res.Scores.Efficiency < efficiencyGoalThreshold {
				out = append(out, models.NewSuggestion(models.SuggestionInfo,
					"Efficiency: keep a relaxed, natural posture and coordinate your arm swing with your legs.",
					3, "", 0.75))
			}
		case models.GoalInjuryPrevention:
			if res.Metrics.ImpactForce > impactGoalThreshold {
				out = append(out, models.NewSuggestion(models.SuggestionWarning,
					"Injury prevention: high impact detected. Adjust cadence and landing, try a midfoot or forefoot strike to soften impact.",
					4, "", 0.8))
			}
		}
	}

	switch p.Experience {
	case models.ExperienceBeginner:
		out = append(out, models.NewSuggestion(models.SuggestionInfo,
			"Running tip: keep your head up and chest open, and look 5-10 meters ahead.",
			2, "", 0.9))
	case models.ExperienceAdvanced:
		if res.FootStrike == models.StrikeRearfoot {
			out = append(out, models.NewSuggestion(models.SuggestionInfo,
				"Pro tip: you are landing on your heel. A midfoot strike can improve efficiency and reduce knee load.",
				3, "", 0.8))
		}
	}

	sortByPriority(out)
	return out
}
