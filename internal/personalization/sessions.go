package personalization

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"stride-coach/internal/models"
)

// ErrNoResults is returned when a session has no analysis results to summarize.
var ErrNoResults = errors.New("no analysis results for session")

const baselineNewWeight = 0.2

// BuildSession summarizes results into a session record.
func BuildSession(runnerID string, results []models.AnalysisResult, duration int, distance float64, at time.Time) (models.SessionRecord, error) {
	if len(results) == 0 {
		return models.SessionRecord{}, ErrNoResults
	}

	n := float64(len(results))
	var cadence, stride, overall float64
	var m models.SessionMetrics
	sets := make([][]models.Abnormality, 0, len(results))
	for _, r := range results {
		cadence += r.Metrics.Cadence
		stride += r.Metrics.StrideLength
		overall += r.Scores.Overall
		m.ContactTime += r.Metrics.ContactTime
		m.FlightTime += r.Metrics.FlightTime
		m.VerticalOscillation += r.Metrics.VerticalOscillation
		m.ImpactForce += r.Metrics.ImpactForce
		m.PronationAngle += r.Metrics.PronationAngle
		sets = append(sets, r.Abnormalities)
	}

	return models.SessionRecord{
		ID:              uuid.NewString(),
		RunnerID:        runnerID,
		Date:            at,
		Duration:        duration,
		Distance:        distance,
		AvgCadence:      cadence / n,
		AvgStrideLength: stride / n,
		AvgOverallScore: overall / n,
		Abnormalities:   models.UnionAbnormalities(sets...),
		Metrics: models.SessionMetrics{
			ContactTime:         m.ContactTime / n,
			FlightTime:          m.FlightTime / n,
			VerticalOscillation: m.VerticalOscillation / n,
			ImpactForce:         m.ImpactForce / n,
			PronationAngle:      m.PronationAngle / n,
		},
	}, nil
}

// RecordSession adds rec to the history and folds it into the profile:
// training totals are incremented and the baseline moves 20% toward the session averages.
// It returns the updated profile.
func (a *Adjuster) RecordSession(rec models.SessionRecord) models.RunnerProfile {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sessions = append([]models.SessionRecord{rec}, a.sessions...)

	h := &a.profile.TrainingHistory
	h.SessionsCount++
	h.TotalDistance += rec.Distance
	date := rec.Date
	h.LastSessionDate = &date

	b := &a.profile.Baseline
	b.Cadence = (1-baselineNewWeight)*b.Cadence + baselineNewWeight*rec.AvgCadence
	b.StrideLength = (1-baselineNewWeight)*b.StrideLength + baselineNewWeight*rec.AvgStrideLength

	return copyProfile(a.profile)
}
