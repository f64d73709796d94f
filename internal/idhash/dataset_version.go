package idhash

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/mr-tron/base58"

	"retail-sales-lab/internal/domain"
)

// ComputeDatasetVersion fingerprints canonical records.
// Formula: SHA256 over "len(entity):entity|rfc3339nano|sales|price|promotion|base_price\n"
// per record, in the order given (callers pass canonical order). Floats use the
// shortest exact representation; a missing base price is "-".
// Returns the base58-encoded hash.
func ComputeDatasetVersion(records []domain.CanonicalRecord) string {
	h := sha256.New()
	for _, r := range records {
		basePrice := "-"
		if r.HasBasePrice {
			basePrice = formatFloat(r.BasePrice)
		}
		fmt.Fprintf(h, "%d:%s|%s|%s|%s|%t|%s\n",
			len(r.EntityID),
			r.EntityID,
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			formatFloat(r.Sales),
			formatFloat(r.Price),
			r.Promotion,
			basePrice,
		)
	}
	return base58.Encode(h.Sum(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ShortVersion returns the first 12 characters of a dataset version.
func ShortVersion(version string) string {
	if len(version) <= 12 {
		return version
	}
	return version[:12]
}
