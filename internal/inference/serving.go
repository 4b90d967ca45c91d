package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ServingConfig configures a TensorFlow-Serving style REST backend.
type ServingConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RetryCount       int
	GaitCycleModel   string
	AbnormalityModel string
	StrideModel      string
}

type predictRequest struct {
	Instances []interface{} `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// ServingModel calls one remote model per output head.
type ServingModel struct {
	httpClient *resty.Client
	cfg        ServingConfig
	logger     *zap.Logger
}

// NewServingModel creates a REST model client.
func NewServingModel(cfg ServingConfig, logger *zap.Logger) *ServingModel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ServingModel{
		httpClient: client,
		cfg:        cfg,
		logger:     logger,
	}
}

// Predict queries the gait-cycle, abnormality and stride heads in turn.
func (m *ServingModel) Predict(ctx context.Context, features FeatureWindow) (*ModelOutput, error) {
	phase, err := m.predict(ctx, m.cfg.GaitCycleModel, features.Phase)
	if err != nil {
		return nil, err
	}
	abnormality, err := m.predict(ctx, m.cfg.AbnormalityModel, features.Abnormality)
	if err != nil {
		return nil, err
	}
	stride, err := m.predict(ctx, m.cfg.StrideModel, features.Metric)
	if err != nil {
		return nil, err
	}
	return &ModelOutput{
		PhaseScores:      phase,
		AbnormalityProbs: abnormality,
		StrideOutputs:    stride,
	}, nil
}

func (m *ServingModel) predict(ctx context.Context, model string, instance interface{}) ([]float64, error) {
	var result predictResponse
	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetBody(predictRequest{Instances: []interface{}{instance}}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/v1/models/%s:predict", model))
	if err != nil {
		m.logger.Warn("Model server call failed", zap.String("model", model), zap.Error(err))
		return nil, fmt.Errorf("failed to call model %s: %w", model, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("model %s returned status %d: %s", model, resp.StatusCode(), result.Error)
	}
	if len(result.Predictions) == 0 {
		return nil, fmt.Errorf("model %s returned no predictions", model)
	}
	return result.Predictions[0], nil
}

// Close is a no-op; the HTTP client holds no per-model resources.
func (m *ServingModel) Close() error {
	return nil
}
