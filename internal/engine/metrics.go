package engine

import (
	"sync"
	"time"
)

// Metrics counts controller activity.
type Metrics struct {
	mu sync.RWMutex

	SamplesReceived   int64
	SamplesRejected   int64
	TicksCompleted    int64
	TicksSkipped      int64 // insufficient data
	TicksFailed       int64 // no analysis source
	InferenceFailures int64
	RuleFaults        int64

	TotalTickTime time.Duration
	LastTickTime  time.Time
}

// Snapshot returns a copy of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		SamplesReceived:   m.SamplesReceived,
		SamplesRejected:   m.SamplesRejected,
		TicksCompleted:    m.TicksCompleted,
		TicksSkipped:      m.TicksSkipped,
		TicksFailed:       m.TicksFailed,
		InferenceFailures: m.InferenceFailures,
		RuleFaults:        m.RuleFaults,
		TotalTickTime:     m.TotalTickTime,
		LastTickTime:      m.LastTickTime,
	}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	SamplesReceived   int64         `json:"samples_received"`
	SamplesRejected   int64         `json:"samples_rejected"`
	TicksCompleted    int64         `json:"ticks_completed"`
	TicksSkipped      int64         `json:"ticks_skipped"`
	TicksFailed       int64         `json:"ticks_failed"`
	InferenceFailures int64         `json:"inference_failures"`
	RuleFaults        int64         `json:"rule_faults"`
	TotalTickTime     time.Duration `json:"total_tick_time"`
	LastTickTime      time.Time     `json:"last_tick_time"`
}

func (m *Metrics) sample(accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accepted {
		m.SamplesReceived++
	} else {
		m.SamplesRejected++
	}
}

func (m *Metrics) tickCompleted(d time.Duration, inferenceFailed bool, ruleFaults int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TicksCompleted++
	m.TotalTickTime += d
	m.LastTickTime = time.Now()
	if inferenceFailed {
		m.InferenceFailures++
	}
	m.RuleFaults += int64(ruleFaults)
}

func (m *Metrics) tickSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TicksSkipped++
}

func (m *Metrics) tickFailed(inferenceFailed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TicksFailed++
	if inferenceFailed {
		m.InferenceFailures++
	}
}
