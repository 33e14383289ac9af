package cache

import "errors"

var (
	// ErrInvalidKey is returned for a zero-length key. Nothing is mutated.
	ErrInvalidKey = errors.New("cache: key must not be empty")

	// ErrAllocation is returned when the payload cannot be stored. The
	// operation is abandoned before the index, records or arena change.
	ErrAllocation = errors.New("cache: allocation failed")

	// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
)
