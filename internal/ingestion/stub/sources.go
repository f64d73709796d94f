// Package stub provides fixed in-memory record sources for testing.
package stub

import (
	"context"

	"retail-sales-lab/internal/domain"
)

// StubRecordSource returns fixed in-memory records for testing.
// Records can be intentionally unordered to test sorting.
// Implements ingestion.RecordSource interface.
type StubRecordSource struct {
	records []domain.RawRecord
	err     error
	calls   int
}

// NewStubRecordSource creates a new stub source with the given records.
func NewStubRecordSource(records []domain.RawRecord) *StubRecordSource {
	return &StubRecordSource{records: records}
}

// NewFailingSource creates a stub source whose Fetch always fails with err.
func NewFailingSource(err error) *StubRecordSource {
	return &StubRecordSource{err: err}
}

// Fetch returns a copy of the records to prevent mutation.
func (s *StubRecordSource) Fetch(_ context.Context) ([]domain.RawRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.RawRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Calls returns how many times Fetch was called.
func (s *StubRecordSource) Calls() int {
	return s.calls
}
