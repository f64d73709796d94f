package normalization

import (
	"sort"

	"retail-sales-lab/internal/domain"
)

// SortCanonical orders records by (entity_id ASC, timestamp ASC).
// This is the canonical order every analysis stage relies on.
func SortCanonical(records []domain.CanonicalRecord) {
	sort.Slice(records, func(i, j int) bool {
		return compareCanonical(records[i], records[j]) < 0
	})
}

// compareCanonical returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareCanonical(a, b domain.CanonicalRecord) int {
	if a.EntityID != b.EntityID {
		if a.EntityID < b.EntityID {
			return -1
		}
		return 1
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		if a.Timestamp.Before(b.Timestamp) {
			return -1
		}
		return 1
	}
	return 0
}

// IsCanonicalOrder reports whether records are strictly ordered by (entity, timestamp).
func IsCanonicalOrder(records []domain.CanonicalRecord) bool {
	for i := 1; i < len(records); i++ {
		if compareCanonical(records[i-1], records[i]) >= 0 {
			return false
		}
	}
	return true
}
