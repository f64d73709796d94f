package ingestion

import (
	"errors"
	"sort"

	"retail-sales-lab/internal/domain"
)

// ErrInvalidOrdering is returned when records are not properly ordered.
var ErrInvalidOrdering = errors.New("records are not in source order")

// SortRawRecords orders records by row number ASC, restoring source order.
func SortRawRecords(records []domain.RawRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RowNumber < records[j].RowNumber
	})
}

// ValidateRawOrdering checks that row numbers are strictly increasing.
// Returns ErrInvalidOrdering if not.
func ValidateRawOrdering(records []domain.RawRecord) error {
	for i := 1; i < len(records); i++ {
		if records[i-1].RowNumber >= records[i].RowNumber {
			return ErrInvalidOrdering
		}
	}
	return nil
}
