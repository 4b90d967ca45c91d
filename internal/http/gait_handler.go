package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stride-coach/internal/consumer"
	"stride-coach/internal/engine"
	"stride-coach/internal/models"
	"stride-coach/internal/personalization"
)

// Engine is the controller surface exposed over HTTP.
type Engine interface {
	Status() engine.Status
	MetricsSnapshot() engine.MetricsSnapshot
	AddSample(s models.SensorSample) error
	LastUpdate() *engine.Update
	Sessions() ([]models.SessionRecord, error)
	CompleteSession(ctx context.Context, duration int, distance float64) (*models.SessionRecord, error)
	Profile() (models.RunnerProfile, error)
	UpdateProfile(ctx context.Context, p models.RunnerProfile) error
}

// LatestCache serves the last update when the engine has none in memory.
type LatestCache interface {
	Latest(ctx context.Context, runnerID string) (*engine.Update, error)
}

// GaitHandler serves the analysis API.
type GaitHandler struct {
	engine Engine
	cache  LatestCache // optional
	logger *zap.Logger
}

func NewGaitHandler(e Engine, cache LatestCache, logger *zap.Logger) *GaitHandler {
	return &GaitHandler{engine: e, cache: cache, logger: logger}
}

type statusResponse struct {
	engine.Status
	Metrics engine.MetricsSnapshot `json:"metrics"`
}

func (h *GaitHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(statusResponse{
		Status:  h.engine.Status(),
		Metrics: h.engine.MetricsSnapshot(),
	}))
}

type ingestResponse struct {
	Received int `json:"received"`
	Accepted int `json:"accepted"`
}

func (h *GaitHandler) PostSamples(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, maxBodyBytes)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "failed to read body")
		return
	}
	samples, err := consumer.DecodeSamples(body, time.Now())
	if err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted, err := consumer.Ingest(h.engine, samples)
	if errors.Is(err, engine.ErrNotInitialized) {
		writeFail(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if accepted == 0 && err != nil {
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, Ok(ingestResponse{Received: len(samples), Accepted: accepted}))
}

func (h *GaitHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if u := h.engine.LastUpdate(); u != nil {
		writeJSON(w, http.StatusOK, Ok(u))
		return
	}
	if h.cache != nil {
		u, err := h.cache.Latest(r.Context(), h.engine.Status().RunnerID)
		if err == nil {
			writeJSON(w, http.StatusOK, Ok(u))
			return
		}
		if !errors.Is(err, consumer.ErrNoCachedUpdate) {
			h.logger.Warn("Failed to read cached update", zap.Error(err))
		}
	}
	writeFail(w, http.StatusNotFound, "no analysis available yet")
}

func (h *GaitHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.engine.Sessions()
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), len(sessions))
	if limit >= 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": sessions,
		"total": len(sessions),
	}))
}

type completeSessionRequest struct {
	Duration int     `json:"duration"` // seconds
	Distance float64 `json:"distance"` // km
}

func (h *GaitHandler) PostCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Duration < 0 || req.Distance < 0 {
		writeFail(w, http.StatusBadRequest, "duration and distance must not be negative")
		return
	}

	rec, err := h.engine.CompleteSession(r.Context(), req.Duration, req.Distance)
	if errors.Is(err, engine.ErrProfileNotSaved) && rec != nil {
		h.logger.Warn("Session stored without profile update", zap.String("session_id", rec.ID), zap.Error(err))
		err = nil
	}
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rec))
}

func (h *GaitHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Profile()
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *GaitHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var p models.RunnerProfile
	if err := readBodyJSON(r, maxBodyBytes, &p); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid body")
		return
	}
	switch p.Experience {
	case models.ExperienceBeginner, models.ExperienceIntermediate, models.ExperienceAdvanced:
	default:
		writeFail(w, http.StatusBadRequest, "experience must be beginner, intermediate or advanced")
		return
	}
	if p.Goals == nil {
		p.Goals = []models.Goal{}
	}
	if p.KnownIssues == nil {
		p.KnownIssues = []models.Abnormality{}
	}

	if err := h.engine.UpdateProfile(r.Context(), p); err != nil {
		h.writeEngineError(w, err)
		return
	}
	updated, err := h.engine.Profile()
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(updated))
}

func (h *GaitHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotInitialized):
		writeFail(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, personalization.ErrNoResults):
		writeFail(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Engine request failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
	}
}
