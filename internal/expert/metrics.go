package expert

import (
	"math"

	"stride-coach/internal/models"
)

const (
	// DefaultVerticalOscillation is reported when history is too short to measure.
	DefaultVerticalOscillation = 5.0

	oscillationSamples    = 10
	oscillationMinSamples = 5
	oscillationScale      = 2.5
)

// ComputeMetrics derives the gait metrics for the latest sample.
func ComputeMetrics(s models.SensorSample, history []models.SensorSample) models.Metrics {
	var contact, flight float64
	if s.Cadence > 0 {
		stepTime := 60 / s.Cadence
		contact = stepTime * 0.4 * 1000
		flight = stepTime * 0.6 * 1000
	}
	return models.Metrics{
		Cadence:             s.Cadence,
		StrideLength:        s.StrideLength,
		ContactTime:         contact,
		FlightTime:          flight,
		VerticalOscillation: VerticalOscillation(history),
		ImpactForce:         s.Pressure.Longitudinal() * 1.2,
		PronationAngle:      clamp(s.Pressure.Lateral*10, 0, 15),
	}
}

// VerticalOscillation estimates oscillation in cm from the z-acceleration range
// of the last 10 samples.
func VerticalOscillation(history []models.SensorSample) float64 {
	if len(history) < oscillationMinSamples {
		return DefaultVerticalOscillation
	}
	recent := history
	if len(recent) > oscillationSamples {
		recent = recent[len(recent)-oscillationSamples:]
	}
	return verticalRange(recent) * oscillationScale
}

// ComputeScores rates the latest sample against the final rule context.
func ComputeScores(s models.SensorSample, ctx *RuleContext) models.Scores {
	vo := VerticalOscillation(ctx.History)

	cadenceFactor := 100.0
	if s.Cadence < 170 || s.Cadence > 185 {
		cadenceFactor = clamp(100-math.Abs(175-s.Cadence)*2, 0, 100)
	}
	efficiency := mean(
		cadenceFactor,
		clamp(100-vo*10, 0, 100),
		strikeEfficiency(ctx.FootStrike),
	)

	stability := mean(
		flagPenalty(ctx.HasFlag(models.Overpronation), 70),
		flagPenalty(ctx.HasFlag(models.CadenceIrregularity), 75),
		flagPenalty(!PressureBalanced(s.Pressure), 75),
	)

	impact := mean(
		strikeImpact(ctx.FootStrike),
		clamp(60+s.Cadence/4, 0, 100),
		clamp(100-vo*12, 0, 100),
	)

	return models.NewScores(efficiency, stability, impact)
}

// PressureBalanced reports whether the lateral share is at most 30% of the
// longitudinal load and the front/mid/rear split stays near 40/30/30.
func PressureBalanced(p models.PressureZones) bool {
	longitudinal := p.Longitudinal()
	if longitudinal <= 0 {
		return false
	}
	if p.Lateral/longitudinal > 0.3 {
		return false
	}
	deviation := math.Abs(p.Forefoot/longitudinal-0.4) +
		math.Abs(p.Midfoot/longitudinal-0.3) +
		math.Abs(p.Rearfoot/longitudinal-0.3)
	return deviation < 0.25
}

func strikeEfficiency(fs models.FootStrikePattern) float64 {
	switch fs {
	case models.StrikeMidfoot:
		return 100
	case models.StrikeForefoot:
		return 90
	default:
		return 70
	}
}

func strikeImpact(fs models.FootStrikePattern) float64 {
	switch fs {
	case models.StrikeForefoot:
		return 100
	case models.StrikeMidfoot:
		return 90
	default:
		return 70
	}
}

func flagPenalty(flagged bool, penalized float64) float64 {
	if flagged {
		return penalized
	}
	return 100
}

func mean(values ...float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
