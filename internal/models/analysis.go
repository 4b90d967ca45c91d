package models

import "math"

// Metrics are the derived gait measurements of one tick.
type Metrics struct {
	Cadence             float64 `json:"cadence"`
	StrideLength        float64 `json:"stride_length"`
	ContactTime         float64 `json:"contact_time"`         // ms
	FlightTime          float64 `json:"flight_time"`          // ms
	VerticalOscillation float64 `json:"vertical_oscillation"` // cm
	ImpactForce         float64 `json:"impact_force"`
	PronationAngle      float64 `json:"pronation_angle"` // degrees
}

// Scores are 0-100 quality ratings.
type Scores struct {
	Efficiency float64 `json:"efficiency"`
	Stability  float64 `json:"stability"`
	Impact     float64 `json:"impact"`
	Overall    float64 `json:"overall"`
}

// Overall weights are fixed across the pipeline.
const (
	EfficiencyWeight = 0.4
	StabilityWeight  = 0.35
	ImpactWeight     = 0.25
)

// NewScores rounds each component and derives the overall score.
func NewScores(efficiency, stability, impact float64) Scores {
	e, s, i := math.Round(efficiency), math.Round(stability), math.Round(impact)
	return Scores{
		Efficiency: e,
		Stability:  s,
		Impact:     i,
		Overall:    math.Round(e*EfficiencyWeight + s*StabilityWeight + i*ImpactWeight),
	}
}

// AnalysisResult is the gait assessment of one tick.
type AnalysisResult struct {
	Phase         GaitPhase         `json:"phase"`
	FootStrike    FootStrikePattern `json:"foot_strike"`
	Abnormalities []Abnormality     `json:"abnormalities"`
	Metrics       Metrics           `json:"metrics"`
	Scores        Scores            `json:"scores"`
	Confidence    float64           `json:"confidence"`
}

// Has reports whether a is present.
func (r *AnalysisResult) Has(a Abnormality) bool {
	for _, x := range r.Abnormalities {
		if x == a {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.Abnormalities != nil {
		out.Abnormalities = make([]Abnormality, len(r.Abnormalities))
		copy(out.Abnormalities, r.Abnormalities)
	}
	return out
}

// UnionAbnormalities merges sets keeping first-seen order.
func UnionAbnormalities(sets ...[]Abnormality) []Abnormality {
	seen := make(map[Abnormality]struct{})
	out := make([]Abnormality, 0)
	for _, set := range sets {
		for _, a := range set {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// PartialResult is what a model-based scorer may produce. Nil fields are absent.
type PartialResult struct {
	Phase         *GaitPhase
	FootStrike    *FootStrikePattern
	Abnormalities []Abnormality
	Metrics       *Metrics
	Scores        *Scores
	Confidence    *float64
}
