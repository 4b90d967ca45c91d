package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"stride-coach/internal/models"
)

// MemoryProfileRepo keeps profiles in memory when the database is disabled.
type MemoryProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string][]byte // runnerID -> JSON
}

func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{profiles: map[string][]byte{}}
}

func (r *MemoryProfileRepo) Load(_ context.Context, runnerID string) (*models.RunnerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.profiles[runnerID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	var p models.RunnerProfile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

func (r *MemoryProfileRepo) Save(_ context.Context, p *models.RunnerProfile) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("runner_id is required")
	}
	// stored as JSON so callers never share slices with the repo
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = b
	return nil
}

// MemorySessionRepo keeps session history in memory when the database is disabled.
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string][]models.SessionRecord // runnerID -> records
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: map[string][]models.SessionRecord{}}
}

func (r *MemorySessionRepo) Append(_ context.Context, rec *models.SessionRecord) error {
	if rec == nil || rec.ID == "" || rec.RunnerID == "" {
		return fmt.Errorf("session_id and runner_id are required")
	}
	cp := *rec
	cp.Abnormalities = append([]models.Abnormality{}, rec.Abnormalities...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[rec.RunnerID] = append(r.sessions[rec.RunnerID], cp)
	return nil
}

func (r *MemorySessionRepo) List(_ context.Context, runnerID string) ([]models.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.sessions[runnerID]
	all := make([]models.SessionRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		rec := stored[i]
		rec.Abnormalities = append([]models.Abnormality{}, rec.Abnormalities...)
		all = append(all, rec)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})
	if len(all) > HistoryLimit {
		all = all[:HistoryLimit]
	}
	return all, nil
}
