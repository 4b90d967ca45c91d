package consumer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"stride-coach/internal/models"
)

// SampleSink receives decoded samples. *engine.Controller implements it.
type SampleSink interface {
	AddSample(s models.SensorSample) error
}

// DecodeSamples accepts a single JSON sample or a JSON array of samples.
// A zero timestamp is replaced with the receive time.
func DecodeSamples(payload []byte, now time.Time) ([]models.SensorSample, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var samples []models.SensorSample
	if payload[0] == '[' {
		if err := json.Unmarshal(payload, &samples); err != nil {
			return nil, fmt.Errorf("failed to unmarshal samples: %w", err)
		}
	} else {
		var s models.SensorSample
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
		}
		samples = []models.SensorSample{s}
	}

	for i := range samples {
		if samples[i].Timestamp == 0 {
			samples[i].Timestamp = now.UnixMilli()
		}
	}
	return samples, nil
}

// Ingest pushes samples into sink in order and returns how many were accepted.
// Invalid samples are skipped; the first rejection error is returned.
func Ingest(sink SampleSink, samples []models.SensorSample) (int, error) {
	accepted := 0
	var firstErr error
	for _, s := range samples {
		if err := sink.AddSample(s); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		accepted++
	}
	return accepted, firstErr
}
