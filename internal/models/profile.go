package models

import "time"

// ExperienceLevel of a runner.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// Goal a runner trains toward.
type Goal string

const (
	GoalImproveEfficiency Goal = "improve_efficiency"
	GoalInjuryPrevention  Goal = "injury_prevention"
	GoalSpeed             Goal = "speed"
	GoalEndurance         Goal = "endurance"
)

// Baseline is the runner's habitual form.
type Baseline struct {
	Cadence      float64           `json:"cadence"`
	StrideLength float64           `json:"stride_length"`
	FootStrike   FootStrikePattern `json:"foot_strike"`
}

// TrainingHistory summarizes recorded sessions.
type TrainingHistory struct {
	SessionsCount   int        `json:"sessions_count"`
	TotalDistance   float64    `json:"total_distance"` // km
	LastSessionDate *time.Time `json:"last_session_date,omitempty"`
}

// RunnerProfile is the per-runner personalization state.
type RunnerProfile struct {
	ID              string          `json:"id"`
	Height          *float64        `json:"height,omitempty"` // cm
	Weight          *float64        `json:"weight,omitempty"` // kg
	Age             *int            `json:"age,omitempty"`
	Experience      ExperienceLevel `json:"experience"`
	Goals           []Goal          `json:"goals"`
	KnownIssues     []Abnormality   `json:"known_issues"`
	Baseline        Baseline        `json:"baseline"`
	TrainingHistory TrainingHistory `json:"training_history"`
}

// HasGoal reports whether g is among the profile goals.
func (p *RunnerProfile) HasGoal(g Goal) bool {
	for _, x := range p.Goals {
		if x == g {
			return true
		}
	}
	return false
}

// DefaultProfile is used when no stored profile exists.
func DefaultProfile(id string) *RunnerProfile {
	return &RunnerProfile{
		ID:          id,
		Experience:  ExperienceIntermediate,
		Goals:       []Goal{GoalImproveEfficiency, GoalInjuryPrevention},
		KnownIssues: []Abnormality{},
		Baseline: Baseline{
			Cadence:      175,
			StrideLength: 110,
			FootStrike:   StrikeMidfoot,
		},
	}
}
