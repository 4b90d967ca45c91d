package engine

import (
	"errors"

	"stride-coach/internal/buffer"
	"stride-coach/internal/fusion"
)

var (
	// ErrNotInitialized is returned by operations that require Initialize first.
	ErrNotInitialized = errors.New("engine not initialized")
	// ErrInitialization wraps any failure while wiring enabled components.
	ErrInitialization = errors.New("engine initialization failed")
	// ErrProfileNotSaved is returned by CompleteSession when the session was
	// recorded but the updated profile could not be persisted.
	ErrProfileNotSaved = errors.New("session recorded, profile not saved")

	// ErrInsufficientData is returned by AnalyzeTick with fewer than MinSamples buffered.
	ErrInsufficientData = buffer.ErrInsufficientData
	// ErrNoAnalysisAvailable is returned when neither rules nor inference produced a result.
	ErrNoAnalysisAvailable = fusion.ErrNoAnalysisAvailable
)
