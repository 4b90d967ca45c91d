package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stride-coach/internal/models"
	"stride-coach/internal/personalization"
)

// CompleteSession summarizes the results collected since the last session,
// persists the record and the updated profile, and starts a new session.
// duration is in seconds, distance in km.
//
// Once the record is appended the session is committed: the results are
// cleared and the in-memory profile is updated even if the profile save
// fails. That case returns the record together with ErrProfileNotSaved; the
// totals are persisted by the next successful save.
func (c *Controller) CompleteSession(ctx context.Context, duration int, distance float64) (*models.SessionRecord, error) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()

	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return nil, ErrNotInitialized
	}
	results := c.results
	runnerID := c.cfg.RunnerID
	adjuster := c.adjuster
	c.mu.Unlock()

	rec, err := personalization.BuildSession(runnerID, results, duration, distance, c.deps.Clock())
	if err != nil {
		return nil, err
	}

	if c.deps.Sessions != nil {
		if err := c.deps.Sessions.Append(ctx, &rec); err != nil {
			return nil, fmt.Errorf("failed to append session: %w", err)
		}
	}

	profile := adjuster.RecordSession(rec)
	c.mu.Lock()
	c.results = nil
	c.mu.Unlock()

	c.logger.Info("Session completed",
		zap.String("runner_id", runnerID),
		zap.String("session_id", rec.ID),
		zap.Int("results", len(results)),
		zap.Float64("avg_overall_score", rec.AvgOverallScore),
	)

	if c.deps.Profiles != nil {
		if err := c.deps.Profiles.Save(ctx, &profile); err != nil {
			c.logger.Error("Failed to save profile after session",
				zap.String("runner_id", runnerID),
				zap.String("session_id", rec.ID),
				zap.Error(err),
			)
			return &rec, fmt.Errorf("%w: %w", ErrProfileNotSaved, err)
		}
	}
	return &rec, nil
}

// Profile returns the runner profile used for personalization.
func (c *Controller) Profile() (models.RunnerProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready() {
		return models.RunnerProfile{}, ErrNotInitialized
	}
	return c.adjuster.Profile(), nil
}

// Sessions returns the known sessions, most recent first.
func (c *Controller) Sessions() ([]models.SessionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready() {
		return nil, ErrNotInitialized
	}
	return c.adjuster.Sessions(), nil
}

// UpdateProfile replaces the runner profile and persists it. The profile ID
// is forced to the controller's runner.
func (c *Controller) UpdateProfile(ctx context.Context, p models.RunnerProfile) error {
	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	p.ID = c.cfg.RunnerID
	adjuster := c.adjuster
	c.mu.Unlock()

	if c.deps.Profiles != nil {
		if err := c.deps.Profiles.Save(ctx, &p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
	}
	adjuster.SetProfile(p)
	return nil
}
