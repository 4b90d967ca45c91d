package engine

import (
	"context"

	"stride-coach/internal/models"
)

// ProfileStore persists runner profiles. Load returns models.ErrProfileNotFound
// when the runner has no stored profile.
type ProfileStore interface {
	Load(ctx context.Context, runnerID string) (*models.RunnerProfile, error)
	Save(ctx context.Context, profile *models.RunnerProfile) error
}

// SessionStore is an append-only session history.
type SessionStore interface {
	Append(ctx context.Context, rec *models.SessionRecord) error
	// List returns the runner's sessions, most recent first.
	List(ctx context.Context, runnerID string) ([]models.SessionRecord, error)
}
