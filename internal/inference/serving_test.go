package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newModelServer(t *testing.T, outputs map[string][]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Instances) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(predictResponse{Error: "bad request"})
			return
		}
		out, ok := outputs[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(predictResponse{Error: "model not found"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(predictResponse{Predictions: [][]float64{out}})
	}))
}

func servingConfig(url string) ServingConfig {
	return ServingConfig{
		BaseURL:          url,
		GaitCycleModel:   "gait_cycle",
		AbnormalityModel: "abnormality_detection",
		StrideModel:      "stride_analysis",
	}
}

func TestServingModel_Predict(t *testing.T) {
	srv := newModelServer(t, map[string][]float64{
		"/v1/models/gait_cycle:predict":            {0, 1, 0, 0, 0, 0, 0, 0},
		"/v1/models/abnormality_detection:predict": {0.9, 0, 0, 0, 0, 0, 0, 0, 0},
		"/v1/models/stride_analysis:predict":       {250, 400, 5, 2, 8, 0.75, 0.8},
	})
	defer srv.Close()

	m := NewServingModel(servingConfig(srv.URL), zap.NewNop())
	out, err := m.Predict(context.Background(), ExtractFeatures(makeWindow(5)))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0, 0, 0}, out.PhaseScores)
	assert.Len(t, out.AbnormalityProbs, 9)
	assert.Equal(t, 0.75, out.StrideOutputs[5])
}

func TestServingModel_ServerError(t *testing.T) {
	srv := newModelServer(t, map[string][]float64{
		"/v1/models/gait_cycle:predict": {1, 0, 0, 0, 0, 0, 0, 0},
	})
	defer srv.Close()

	m := NewServingModel(servingConfig(srv.URL), zap.NewNop())
	_, err := m.Predict(context.Background(), ExtractFeatures(makeWindow(5)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abnormality_detection")
	assert.Contains(t, err.Error(), "404")
}

func TestServingModel_WithAdapter(t *testing.T) {
	srv := newModelServer(t, map[string][]float64{
		"/v1/models/gait_cycle:predict":            {0, 0, 1, 0, 0, 0, 0, 0},
		"/v1/models/abnormality_detection:predict": {0, 0, 0, 0, 0, 0, 0, 0, 0},
		"/v1/models/stride_analysis:predict":       {250, 400, 5, 2, 8, 0.9, 0.9},
	})
	defer srv.Close()

	a := NewAdapter(NewServingModel(servingConfig(srv.URL), zap.NewNop()), zap.NewNop())
	require.NoError(t, a.Load(context.Background()))

	res, err := a.Predict(context.Background(), makeWindow(10))
	require.NoError(t, err)
	assert.Empty(t, res.Abnormalities)
	assert.InDelta(t, 90.0, res.Scores.Efficiency, 1e-9)
}
