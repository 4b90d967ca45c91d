package models

import "errors"

var (
	// ErrInvalidSample is returned for samples with non-finite or negative values.
	ErrInvalidSample = errors.New("invalid sensor sample")
	// ErrProfileNotFound is returned by profile stores when no profile exists.
	ErrProfileNotFound = errors.New("runner profile not found")
)
