package inference

import (
	"context"
	"errors"
)

// ErrModelUnavailable covers every inference failure: no model, model not
// ready, transport errors and malformed outputs.
var ErrModelUnavailable = errors.New("inference: model unavailable")

// ModelStatus is the lifecycle state of the backing model.
type ModelStatus string

const (
	StatusInactive ModelStatus = "inactive"
	StatusLoading  ModelStatus = "loading"
	StatusReady    ModelStatus = "ready"
	StatusError    ModelStatus = "error"
)

// ModelOutput holds the raw outputs of the three model heads.
type ModelOutput struct {
	// PhaseScores has one score per gait phase in cycle order.
	PhaseScores []float64 `json:"phase_scores"`
	// AbnormalityProbs has one probability per abnormality in model order.
	AbnormalityProbs []float64 `json:"abnormality_probs"`
	// StrideOutputs: contact time, flight time, vertical oscillation,
	// impact force, pronation angle, efficiency (0-1), stability (0-1).
	StrideOutputs []float64 `json:"stride_outputs"`
}

// Model is a gait scoring model.
type Model interface {
	Predict(ctx context.Context, features FeatureWindow) (*ModelOutput, error)
	Close() error
}
