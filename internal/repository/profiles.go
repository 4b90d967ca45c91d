package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"stride-coach/internal/models"
)

// ProfileRepository stores runner profiles in runner_profiles.
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a profile repository.
func NewProfileRepository(db *sql.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Load returns the stored profile or models.ErrProfileNotFound.
func (r *ProfileRepository) Load(ctx context.Context, runnerID string) (*models.RunnerProfile, error) {
	if runnerID == "" {
		return nil, fmt.Errorf("runner_id is required")
	}

	query := `
		SELECT
			runner_id,
			height,
			weight,
			age,
			experience,
			goals,
			known_issues,
			baseline,
			sessions_count,
			total_distance,
			last_session_date
		FROM runner_profiles
		WHERE runner_id = $1
	`

	var p models.RunnerProfile
	var height, weight sql.NullFloat64
	var age sql.NullInt64
	var lastSession sql.NullTime
	var goals, issues, baseline []byte

	err := r.db.QueryRowContext(ctx, query, runnerID).Scan(
		&p.ID,
		&height,
		&weight,
		&age,
		&p.Experience,
		&goals,
		&issues,
		&baseline,
		&p.TrainingHistory.SessionsCount,
		&p.TrainingHistory.TotalDistance,
		&lastSession,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get runner profile: %w", err)
	}

	if height.Valid {
		p.Height = &height.Float64
	}
	if weight.Valid {
		p.Weight = &weight.Float64
	}
	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	if lastSession.Valid {
		t := lastSession.Time
		p.TrainingHistory.LastSessionDate = &t
	}

	if err := unmarshalJSON(goals, &p.Goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}
	if err := unmarshalJSON(issues, &p.KnownIssues); err != nil {
		return nil, fmt.Errorf("failed to decode known issues: %w", err)
	}
	if err := unmarshalJSON(baseline, &p.Baseline); err != nil {
		return nil, fmt.Errorf("failed to decode baseline: %w", err)
	}
	if p.Goals == nil {
		p.Goals = []models.Goal{}
	}
	if p.KnownIssues == nil {
		p.KnownIssues = []models.Abnormality{}
	}
	return &p, nil
}

// Save inserts or replaces the profile.
func (r *ProfileRepository) Save(ctx context.Context, p *models.RunnerProfile) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("runner_id is required")
	}

	goals, err := json.Marshal(nonNilGoals(p.Goals))
	if err != nil {
		return fmt.Errorf("failed to encode goals: %w", err)
	}
	issues, err := json.Marshal(nonNilAbnormalities(p.KnownIssues))
	if err != nil {
		return fmt.Errorf("failed to encode known issues: %w", err)
	}
	baseline, err := json.Marshal(p.Baseline)
	if err != nil {
		return fmt.Errorf("failed to encode baseline: %w", err)
	}

	query := `
		INSERT INTO runner_profiles (
			runner_id, height, weight, age, experience,
			goals, known_issues, baseline,
			sessions_count, total_distance, last_session_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (runner_id) DO UPDATE SET
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			age = EXCLUDED.age,
			experience = EXCLUDED.experience,
			goals = EXCLUDED.goals,
			known_issues = EXCLUDED.known_issues,
			baseline = EXCLUDED.baseline,
			sessions_count = EXCLUDED.sessions_count,
			total_distance = EXCLUDED.total_distance,
			last_session_date = EXCLUDED.last_session_date,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		nullFloat(p.Height),
		nullFloat(p.Weight),
		nullInt(p.Age),
		string(p.Experience),
		goals,
		issues,
		baseline,
		p.TrainingHistory.SessionsCount,
		p.TrainingHistory.TotalDistance,
		nullTime(p.TrainingHistory.LastSessionDate),
	)
	if err != nil {
		return fmt.Errorf("failed to save runner profile: %w", err)
	}

	r.logger.Debug("Runner profile saved", zap.String("runner_id", p.ID))
	return nil
}
