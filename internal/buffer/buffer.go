package buffer

import (
	"errors"

	"stride-coach/internal/models"
)

// DefaultCapacity is the number of samples kept when none is configured.
const DefaultCapacity = 100

// ErrInsufficientData is returned when the buffer holds too few samples.
var ErrInsufficientData = errors.New("insufficient sensor data")

// SensorBuffer is a bounded FIFO of samples. Not safe for concurrent use;
// the engine controller serializes access.
type SensorBuffer struct {
	samples  []models.SensorSample
	head     int // index of the oldest sample
	size     int
	capacity int
}

// New creates a buffer holding at most capacity samples.
func New(capacity int) *SensorBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &SensorBuffer{
		samples:  make([]models.SensorSample, capacity),
		capacity: capacity,
	}
}

// Push appends s, evicting the oldest sample when full.
func (b *SensorBuffer) Push(s models.SensorSample) {
	idx := (b.head + b.size) % b.capacity
	b.samples[idx] = s
	if b.size < b.capacity {
		b.size++
		return
	}
	b.head = (b.head + 1) % b.capacity
}

// Latest returns the newest sample.
func (b *SensorBuffer) Latest() (models.SensorSample, error) {
	if b.size == 0 {
		return models.SensorSample{}, ErrInsufficientData
	}
	return b.samples[(b.head+b.size-1)%b.capacity], nil
}

// Windowed returns a copy of the last n samples, oldest first.
// Fewer are returned when fewer are held; the window is never padded.
func (b *SensorBuffer) Windowed(n int) []models.SensorSample {
	if n <= 0 || b.size == 0 {
		return []models.SensorSample{}
	}
	if n > b.size {
		n = b.size
	}
	out := make([]models.SensorSample, n)
	start := b.head + b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.samples[(start+i)%b.capacity]
	}
	return out
}

// Snapshot returns a copy of every held sample, oldest first.
func (b *SensorBuffer) Snapshot() []models.SensorSample {
	return b.Windowed(b.size)
}

// Len returns the number of held samples.
func (b *SensorBuffer) Len() int { return b.size }

// Cap returns the capacity.
func (b *SensorBuffer) Cap() int { return b.capacity }

// Reset drops every sample.
func (b *SensorBuffer) Reset() {
	b.head = 0
	b.size = 0
}
