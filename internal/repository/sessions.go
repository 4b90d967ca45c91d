package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"stride-coach/internal/models"
)

// HistoryLimit caps the number of sessions returned by List.
const HistoryLimit = 100

// SessionRepository is the append-only training_sessions store.
type SessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts rec.
func (r *SessionRepository) Append(ctx context.Context, rec *models.SessionRecord) error {
	if rec == nil || rec.ID == "" || rec.RunnerID == "" {
		return fmt.Errorf("session_id and runner_id are required")
	}

	abnormalities, err := json.Marshal(nonNilAbnormalities(rec.Abnormalities))
	if err != nil {
		return fmt.Errorf("failed to encode abnormalities: %w", err)
	}
	metrics, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	query := `
		INSERT INTO training_sessions (
			session_id, runner_id, session_date, duration, distance,
			avg_cadence, avg_stride_length, avg_overall_score,
			abnormalities, metrics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.RunnerID,
		rec.Date,
		rec.Duration,
		rec.Distance,
		rec.AvgCadence,
		rec.AvgStrideLength,
		rec.AvgOverallScore,
		abnormalities,
		metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to insert training session: %w", err)
	}

	r.logger.Info("Training session stored",
		zap.String("session_id", rec.ID),
		zap.String("runner_id", rec.RunnerID),
	)
	return nil
}

// List returns the runner's sessions, most recent first.
func (r *SessionRepository) List(ctx context.Context, runnerID string) ([]models.SessionRecord, error) {
	if runnerID == "" {
		return nil, fmt.Errorf("runner_id is required")
	}

	query := `
		SELECT
			session_id,
			runner_id,
			session_date,
			duration,
			distance,
			avg_cadence,
			avg_stride_length,
			avg_overall_score,
			abnormalities,
			metrics
		FROM training_sessions
		WHERE runner_id = $1
		ORDER BY session_date DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, runnerID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training sessions: %w", err)
	}
	defer rows.Close()

	out := make([]models.SessionRecord, 0)
	for rows.Next() {
		var rec models.SessionRecord
		var abnormalities, metrics []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.RunnerID,
			&rec.Date,
			&rec.Duration,
			&rec.Distance,
			&rec.AvgCadence,
			&rec.AvgStrideLength,
			&rec.AvgOverallScore,
			&abnormalities,
			&metrics,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training session: %w", err)
		}
		if err := unmarshalJSON(abnormalities, &rec.Abnormalities); err != nil {
			return nil, fmt.Errorf("failed to decode abnormalities: %w", err)
		}
		if err := unmarshalJSON(metrics, &rec.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode metrics: %w", err)
		}
		if rec.Abnormalities == nil {
			rec.Abnormalities = []models.Abnormality{}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate training sessions: %w", err)
	}
	return out, nil
}
