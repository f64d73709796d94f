package domain

import (
	"errors"
	"fmt"
)

// StageResult is the output of one analysis stage, or the reason it is unavailable.
type StageResult[T any] struct {
	Value T
	Err   error
}

// Available reports whether the stage produced output.
func (s StageResult[T]) Available() bool {
	return s.Err == nil
}

// Reason describes why the stage is unavailable; empty when available.
// Insufficient-data errors report their reason with the threshold missed.
func (s StageResult[T]) Reason() string {
	if s.Err == nil {
		return ""
	}
	var insufficient *InsufficientDataError
	if errors.As(s.Err, &insufficient) {
		return fmt.Sprintf("%s (required %d, got %d)",
			insufficient.Reason, insufficient.Required, insufficient.Actual)
	}
	return s.Err.Error()
}

// Ok wraps a stage value.
func Ok[T any](v T) StageResult[T] {
	return StageResult[T]{Value: v}
}

// Unavailable wraps a stage failure.
func Unavailable[T any](err error) StageResult[T] {
	return StageResult[T]{Err: err}
}
