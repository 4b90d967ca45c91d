package expert

import "stride-coach/internal/models"

const (
	contactPressureBefore = 1.0
	contactPressureAfter  = 1.5

	overpronationLateralRatio = 0.35

	cadenceLow  = 165
	cadenceHigh = 190

	oscillationWindow     = 5
	oscillationAccelRange = 2.5

	overstrideLength  = 140
	overstrideCadence = 170
)

// DefaultRules returns the built-in biomechanics rules in declaration order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "gait-cycle-1",
			Name:        "Initial contact",
			Description: "Longitudinal pressure rises from unloaded to loaded",
			Priority:    10,
			Condition: func(s models.SensorSample, ctx *RuleContext) bool {
				prev, ok := ctx.Previous()
				if !ok {
					return false
				}
				return prev.Pressure.Longitudinal() < contactPressureBefore &&
					s.Pressure.Longitudinal() > contactPressureAfter
			},
			Action: setPhase(models.PhaseInitialContact),
		},
		{
			ID:          "gait-cycle-2",
			Name:        "Loading response",
			Description: "Load moves onto the midfoot after contact",
			Priority:    10,
			Condition: func(s models.SensorSample, ctx *RuleContext) bool {
				p := s.Pressure
				return ctx.Phase == models.PhaseInitialContact &&
					p.Midfoot > p.Rearfoot &&
					p.Midfoot > p.Forefoot
			},
			Action: setPhase(models.PhaseLoadingResponse),
		},
		{
			ID:          "foot-strike-1",
			Name:        "Forefoot strike",
			Description: "Forefoot dominates at contact",
			Priority:    9,
			Condition: func(s models.SensorSample, ctx *RuleContext) bool {
				p := s.Pressure
				return ctx.Phase == models.PhaseInitialContact &&
					p.Forefoot > p.Midfoot*1.5 &&
					p.Forefoot > p.Rearfoot*2.0
			},
			Action: setFootStrike(models.StrikeForefoot),
		},
		{
			ID:          "foot-strike-2",
			Name:        "Midfoot strike",
			Description: "Midfoot load comparable to forefoot and rearfoot at contact",
			Priority:    9,
			Condition: func(s models.SensorSample, ctx *RuleContext) bool {
				p := s.Pressure
				return ctx.Phase == models.PhaseInitialContact &&
					p.Midfoot > p.Forefoot*0.7 &&
					p.Midfoot > p.Rearfoot*0.7
			},
			Action: setFootStrike(models.StrikeMidfoot),
		},
		{
			ID:          "foot-strike-3",
			Name:        "Rearfoot strike",
			Description: "Heel dominates at contact",
			Priority:    9,
			Condition: func(s models.SensorSample, ctx *RuleContext) bool {
				p := s.Pressure
				return ctx.Phase == models.PhaseInitialContact &&
					p.Rearfoot > p.Forefoot*1.5 &&
					p.Rearfoot > p.Midfoot*1.2
			},
			Action: setFootStrike(models.StrikeRearfoot),
		},
		{
			ID:          "abnormality-1",
			Name:        "Overpronation",
			Description: "Lateral zone carries too much of the load",
			Priority:    8,
			Condition: func(s models.SensorSample, _ *RuleContext) bool {
				total := s.Pressure.Total()
				if total <= 0 {
					return false
				}
				return s.Pressure.Lateral/total > overpronationLateralRatio
			},
			Action: func(_ models.SensorSample, ctx *RuleContext) (*models.Suggestion, error) {
				ctx.Flag(models.Overpronation)
				sg := models.NewSuggestion(models.SuggestionWarning,
					"Excessive foot roll detected. Adjust your foot landing and consider stability running shoes.",
					4, models.Overpronation, 0.85)
				return &sg, nil
			},
		},
		{
			ID:          "abnormality-2",
			Name:        "Cadence out of range",
			Description: "Cadence outside the 165-190 steps/min band",
			Priority:    7,
			Condition: func(s models.SensorSample, _ *RuleContext) bool {
				return s.Cadence < cadenceLow || s.Cadence > cadenceHigh
			},
			Action: func(s models.SensorSample, ctx *RuleContext) (*models.Suggestion, error) {
				ctx.Flag(models.CadenceIrregularity)
				text := "Cadence is high and may waste energy. Try reducing your cadence slightly and lengthening your stride."
				if s.Cadence < cadenceLow {
					text = "Cadence is low. Raise it to 175-185 steps/min to reduce impact."
				}
				sg := models.NewSuggestion(models.SuggestionInfo, text, 3, models.CadenceIrregularity, 0.9)
				return &sg, nil
			},
		},
		{
			ID:          "abnormality-3",
			Name:        "Vertical oscillation",
			Description: "Vertical acceleration swings too widely over recent samples",
			Priority:    6,
			Condition: func(_ models.SensorSample, ctx *RuleContext) bool {
				if len(ctx.History) < oscillationWindow {
					return false
				}
				return verticalRange(ctx.Recent(oscillationWindow)) > oscillationAccelRange
			},
			Action: func(_ models.SensorSample, ctx *RuleContext) (*models.Suggestion, error) {
				ctx.Flag(models.VerticalOscillation)
				sg := models.NewSuggestion(models.SuggestionWarning,
					"Vertical oscillation is too high. Reduce bouncing to run more efficiently.",
					3, models.VerticalOscillation, 0.8)
				return &sg, nil
			},
		},
		{
			ID:          "abnormality-4",
			Name:        "Overstriding",
			Description: "Long stride combined with low cadence",
			Priority:    5,
			Condition: func(s models.SensorSample, _ *RuleContext) bool {
				return s.StrideLength > overstrideLength && s.Cadence < overstrideCadence
			},
			Action: func(_ models.SensorSample, ctx *RuleContext) (*models.Suggestion, error) {
				ctx.Flag(models.Overstriding)
				sg := models.NewSuggestion(models.SuggestionWarning,
					"Your stride is long for your cadence. Land with your foot closer under your hips.",
					3, models.Overstriding, 0.7)
				return &sg, nil
			},
		},
	}
}

func setPhase(phase models.GaitPhase) Action {
	return func(_ models.SensorSample, ctx *RuleContext) (*models.Suggestion, error) {
		ctx.Phase = phase
		return nil, nil
	}
}

func setFootStrike(pattern models.FootStrikePattern) Action {
	return func(_ models.SensorSample, ctx *RuleContext) (*models.Suggestion, error) {
		ctx.FootStrike = pattern
		return nil, nil
	}
}

func verticalRange(samples []models.SensorSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	lo, hi := samples[0].Acceleration.Z, samples[0].Acceleration.Z
	for _, s := range samples[1:] {
		z := s.Acceleration.Z
		if z < lo {
			lo = z
		}
		if z > hi {
			hi = z
		}
	}
	return hi - lo
}
