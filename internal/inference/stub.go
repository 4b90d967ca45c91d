package inference

import (
	"context"
	"sync"
)

// StubModel is an in-process Model returning fixed outputs.
type StubModel struct {
	// PredictFunc overrides Output when set.
	PredictFunc func(ctx context.Context, features FeatureWindow) (*ModelOutput, error)
	Output      ModelOutput

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewStubModel returns a stub reporting a clean mid-stance midfoot stride.
func NewStubModel() *StubModel {
	return &StubModel{
		Output: ModelOutput{
			PhaseScores:      []float64{0.05, 0.1, 0.6, 0.1, 0.05, 0.04, 0.03, 0.03},
			AbnormalityProbs: []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1},
			StrideOutputs:    []float64{250, 400, 6.5, 1.8, 7.0, 0.82, 0.88},
		},
	}
}

func (m *StubModel) Predict(ctx context.Context, features FeatureWindow) (*ModelOutput, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, features)
	}
	out := m.Output
	return &out, nil
}

func (m *StubModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns the number of Predict invocations.
func (m *StubModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *StubModel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
