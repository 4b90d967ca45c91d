package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stride-coach/internal/models"
)

func readyAdapter(t *testing.T, model Model) *Adapter {
	t.Helper()
	a := NewAdapter(model, zap.NewNop())
	require.NoError(t, a.Load(context.Background()))
	require.Equal(t, StatusReady, a.Status())
	return a
}

func TestAdapter_Decode(t *testing.T) {
	stub := NewStubModel()
	stub.Output.PhaseScores = []float64{0.9, 0.1, 0, 0, 0, 0, 0, 0}
	stub.Output.AbnormalityProbs = []float64{0.71, 0.2, 0.7, 0.95, 0, 0, 0, 0, 0.8}
	stub.Output.StrideOutputs = []float64{240, 380, 7.2, 2.1, 9.0, 0.813, 0.876}
	a := readyAdapter(t, stub)

	window := makeWindow(6)
	window[5].Pressure = models.PressureZones{Forefoot: 0.5, Midfoot: 0.5, Rearfoot: 2.0}

	res, err := a.Predict(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, models.PhaseInitialContact, *res.Phase)
	assert.Equal(t, models.StrikeRearfoot, *res.FootStrike)
	assert.Equal(t, []models.Abnormality{models.Overpronation, models.CadenceIrregularity, models.KneeCollapse}, res.Abnormalities)

	require.NotNil(t, res.Metrics)
	assert.Equal(t, 176.0, res.Metrics.Cadence)
	assert.Equal(t, 240.0, res.Metrics.ContactTime)
	assert.Equal(t, 9.0, res.Metrics.PronationAngle)

	require.NotNil(t, res.Scores)
	assert.InDelta(t, 81.3, res.Scores.Efficiency, 1e-9)
	assert.InDelta(t, 87.6, res.Scores.Stability, 1e-9)
	assert.Equal(t, 85.0, res.Scores.Impact)
	// 32.52 + 30.66 + 21.25, not rounded
	assert.InDelta(t, 84.43, res.Scores.Overall, 1e-9)
	assert.Equal(t, Confidence, *res.Confidence)
}

func TestAdapter_PhaseOutOfRangeFallsBack(t *testing.T) {
	stub := NewStubModel()
	stub.Output.PhaseScores = []float64{0, 0, 0, 0, 0, 0, 0, 0, 1}
	a := readyAdapter(t, stub)

	res, err := a.Predict(context.Background(), makeWindow(5))
	require.NoError(t, err)
	assert.Equal(t, models.PhaseMidStance, *res.Phase)
}

func TestAdapter_NotLoaded(t *testing.T) {
	a := NewAdapter(NewStubModel(), zap.NewNop())
	assert.Equal(t, StatusInactive, a.Status())

	_, err := a.Predict(context.Background(), makeWindow(5))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestAdapter_LoadFailures(t *testing.T) {
	a := NewAdapter(nil, zap.NewNop())
	err := a.Load(context.Background())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, StatusError, a.Status())

	stub := NewStubModel()
	stub.Output.StrideOutputs = []float64{1, 2, 3}
	a = NewAdapter(stub, zap.NewNop())
	assert.ErrorIs(t, a.Load(context.Background()), ErrModelUnavailable)
	assert.Equal(t, StatusError, a.Status())
}

func TestAdapter_PredictError(t *testing.T) {
	stub := NewStubModel()
	a := readyAdapter(t, stub)

	stub.PredictFunc = func(context.Context, FeatureWindow) (*ModelOutput, error) {
		return nil, errors.New("connection refused")
	}
	_, err := a.Predict(context.Background(), makeWindow(5))
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAdapter_Close(t *testing.T) {
	stub := NewStubModel()
	a := readyAdapter(t, stub)

	require.NoError(t, a.Close())
	assert.True(t, stub.Closed())
	assert.Equal(t, StatusInactive, a.Status())
}
