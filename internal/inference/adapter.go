package inference

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"stride-coach/internal/models"
)

const (
	// AbnormalityThreshold is the probability above which an abnormality is reported.
	AbnormalityThreshold = 0.7
	// Confidence is attached to every model-based result.
	Confidence = 0.85

	modelImpactScore = 85
	minStrideOutputs = 7
)

// Adapter turns sample windows into partial analysis results through a Model.
type Adapter struct {
	model  Model
	logger *zap.Logger

	mu     sync.RWMutex
	status ModelStatus
}

// NewAdapter creates an adapter. The model must be loaded before Predict succeeds.
func NewAdapter(model Model, logger *zap.Logger) *Adapter {
	return &Adapter{
		model:  model,
		logger: logger,
		status: StatusInactive,
	}
}

// Load warms the model with an all-zero window and marks it ready.
func (a *Adapter) Load(ctx context.Context) error {
	a.mu.Lock()
	if a.status == StatusLoading || a.status == StatusReady {
		a.mu.Unlock()
		return nil
	}
	a.status = StatusLoading
	a.mu.Unlock()

	err := a.warmup(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.status = StatusError
		a.logger.Error("Failed to load gait model", zap.Error(err))
		return err
	}
	a.status = StatusReady
	a.logger.Info("Gait model ready")
	return nil
}

func (a *Adapter) warmup(ctx context.Context) error {
	if a.model == nil {
		return fmt.Errorf("%w: no model configured", ErrModelUnavailable)
	}
	out, err := a.model.Predict(ctx, ExtractFeatures([]models.SensorSample{{}}))
	if err != nil {
		return fmt.Errorf("%w: warmup failed: %v", ErrModelUnavailable, err)
	}
	return validate(out)
}

// Status returns the model status.
func (a *Adapter) Status() ModelStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Predict runs the model over window (oldest first) and decodes its outputs.
func (a *Adapter) Predict(ctx context.Context, window []models.SensorSample) (*models.PartialResult, error) {
	if a.Status() != StatusReady {
		return nil, fmt.Errorf("%w: model status %s", ErrModelUnavailable, a.Status())
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: empty window", ErrModelUnavailable)
	}

	out, err := a.model.Predict(ctx, ExtractFeatures(window))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if err := validate(out); err != nil {
		return nil, err
	}
	return decode(out, window[len(window)-1]), nil
}

// Close releases the model.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = StatusInactive
	if a.model == nil {
		return nil
	}
	return a.model.Close()
}

func validate(out *ModelOutput) error {
	switch {
	case out == nil:
		return fmt.Errorf("%w: empty model output", ErrModelUnavailable)
	case len(out.PhaseScores) == 0:
		return fmt.Errorf("%w: missing phase scores", ErrModelUnavailable)
	case len(out.StrideOutputs) < minStrideOutputs:
		return fmt.Errorf("%w: expected %d stride outputs, got %d", ErrModelUnavailable, minStrideOutputs, len(out.StrideOutputs))
	}
	return nil
}

func decode(out *ModelOutput, latest models.SensorSample) *models.PartialResult {
	phase := models.PhaseMidStance
	if idx := argmax(out.PhaseScores); idx < len(models.GaitPhases) {
		phase = models.GaitPhases[idx]
	}
	strike := models.DominantFootStrike(latest.Pressure)

	abnormalities := make([]models.Abnormality, 0)
	for i, p := range out.AbnormalityProbs {
		if i >= len(models.Abnormalities) {
			break
		}
		if p > AbnormalityThreshold {
			abnormalities = append(abnormalities, models.Abnormalities[i])
		}
	}

	so := out.StrideOutputs
	metrics := models.Metrics{
		Cadence:             latest.Cadence,
		StrideLength:        latest.StrideLength,
		ContactTime:         so[0],
		FlightTime:          so[1],
		VerticalOscillation: so[2],
		ImpactForce:         so[3],
		PronationAngle:      so[4],
	}
	// Unrounded: the combiner blends these with the rule scores.
	efficiency, stability := so[5]*100, so[6]*100
	scores := models.Scores{
		Efficiency: efficiency,
		Stability:  stability,
		Impact:     modelImpactScore,
		Overall: efficiency*models.EfficiencyWeight +
			stability*models.StabilityWeight +
			modelImpactScore*models.ImpactWeight,
	}
	confidence := Confidence

	return &models.PartialResult{
		Phase:         &phase,
		FootStrike:    &strike,
		Abnormalities: abnormalities,
		Metrics:       &metrics,
		Scores:        &scores,
		Confidence:    &confidence,
	}
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
