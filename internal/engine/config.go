package engine

import (
	"time"

	"stride-coach/internal/buffer"
)

const (
	// DefaultMinSamples is the number of buffered samples a tick needs.
	DefaultMinSamples = 5
	// DefaultTickInterval is the analysis cadence while running.
	DefaultTickInterval = time.Second
)

// Config selects the enabled pipeline stages.
type Config struct {
	RunnerID           string
	UseInference       bool
	UseRules           bool
	UsePersonalization bool
	Debug              bool
	BufferCapacity     int
	MinSamples         int
	TickInterval       time.Duration
}

// DefaultConfig enables rules and personalization.
func DefaultConfig() Config {
	return Config{
		RunnerID:           "default",
		UseRules:           true,
		UsePersonalization: true,
		BufferCapacity:     buffer.DefaultCapacity,
		MinSamples:         DefaultMinSamples,
		TickInterval:       DefaultTickInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.RunnerID == "" {
		c.RunnerID = "default"
	}
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = buffer.DefaultCapacity
	}
	if c.MinSamples <= 0 {
		c.MinSamples = DefaultMinSamples
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c
}
