package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS runner_profiles (
	runner_id         TEXT PRIMARY KEY,
	height            DOUBLE PRECISION,
	weight            DOUBLE PRECISION,
	age               INTEGER,
	experience        TEXT NOT NULL,
	goals             JSONB NOT NULL DEFAULT '[]',
	known_issues      JSONB NOT NULL DEFAULT '[]',
	baseline          JSONB NOT NULL DEFAULT '{}',
	sessions_count    INTEGER NOT NULL DEFAULT 0,
	total_distance    DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_session_date TIMESTAMPTZ,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS training_sessions (
	session_id        UUID PRIMARY KEY,
	runner_id         TEXT NOT NULL,
	session_date      TIMESTAMPTZ NOT NULL,
	duration          INTEGER NOT NULL,
	distance          DOUBLE PRECISION NOT NULL,
	avg_cadence       DOUBLE PRECISION NOT NULL,
	avg_stride_length DOUBLE PRECISION NOT NULL,
	avg_overall_score DOUBLE PRECISION NOT NULL,
	abnormalities     JSONB NOT NULL DEFAULT '[]',
	metrics           JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_training_sessions_runner_date
	ON training_sessions (runner_id, session_date DESC);
`

// EnsureSchema creates the tables used by the repositories when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
