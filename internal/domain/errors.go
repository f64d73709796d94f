package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrDataFormat       = errors.New("data format error")
	ErrInsufficientData = errors.New("insufficient data")
)

// DataFormatError is fatal: the dataset cannot be turned into canonical records.
type DataFormatError struct {
	Reason         string
	MissingColumns []string
	Rows           int // data rows seen
}

func (e *DataFormatError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("data format error: missing required columns [%s] (%d rows)",
			strings.Join(e.MissingColumns, ", "), e.Rows)
	}
	return fmt.Sprintf("data format error: %s (%d rows)", e.Reason, e.Rows)
}

// Is matches ErrDataFormat.
func (e *DataFormatError) Is(target error) bool {
	return target == ErrDataFormat
}

// InsufficientDataError marks one stage's output as unavailable.
type InsufficientDataError struct {
	Stage    string
	Reason   string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s (required %d, got %d)",
		e.Stage, e.Reason, e.Required, e.Actual)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
