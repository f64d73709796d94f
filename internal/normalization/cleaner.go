// Package normalization turns raw tabular sales rows into canonical records.
package normalization

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"retail-sales-lab/internal/domain"
)

// Cleaner validates and normalizes raw records.
//
// Row policy:
//   - sales or price not a finite number: dropped
//   - negative sales or non-positive price: dropped
//   - sales * price overflows: dropped
//   - unparsable timestamp or empty entity id: dropped
//   - missing or unrecognized promotion flag: false
//   - duplicate (entity, timestamp): first occurrence in input order kept
type Cleaner struct {
	logger zerolog.Logger
}

// NewCleaner creates a cleaner that logs nothing.
func NewCleaner() *Cleaner {
	return &Cleaner{logger: zerolog.Nop()}
}

// WithLogger sets the logger used for the dropped-row summary.
func (c *Cleaner) WithLogger(logger zerolog.Logger) *Cleaner {
	c.logger = logger
	return c
}

type recordKey struct {
	entityID string
	ts       time.Time
}

// Clean returns canonical records sorted by (entity, timestamp).
// Returns *domain.DataFormatError if there are no rows or none survive.
func (c *Cleaner) Clean(records []domain.RawRecord) ([]domain.CanonicalRecord, domain.CleanStats, error) {
	stats := domain.CleanStats{TotalRows: len(records)}
	if len(records) == 0 {
		return nil, stats, &domain.DataFormatError{Reason: "dataset has no data rows"}
	}

	seen := make(map[recordKey]struct{}, len(records))
	out := make([]domain.CanonicalRecord, 0, len(records))

	for _, raw := range records {
		rec, ok := c.cleanRow(raw, &stats)
		if !ok {
			continue
		}

		key := recordKey{entityID: rec.EntityID, ts: rec.Timestamp.UTC()}
		if _, dup := seen[key]; dup {
			stats.DroppedDuplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	stats.KeptRows = len(out)
	c.logStats(stats)

	if len(out) == 0 {
		return nil, stats, &domain.DataFormatError{Reason: "no parsable rows", Rows: stats.TotalRows}
	}

	SortCanonical(out)
	return out, stats, nil
}

// cleanRow validates one row, counting the drop reason in stats.
func (c *Cleaner) cleanRow(raw domain.RawRecord, stats *domain.CleanStats) (domain.CanonicalRecord, bool) {
	if raw.EntityID == "" {
		stats.DroppedMissingID++
		return domain.CanonicalRecord{}, false
	}

	sales, okSales := parseNumber(raw.Sales)
	price, okPrice := parseNumber(raw.Price)
	if !okSales || !okPrice {
		stats.DroppedNonNumeric++
		return domain.CanonicalRecord{}, false
	}
	if sales < 0 || price <= 0 || math.IsInf(sales*price, 0) {
		stats.DroppedOutOfRange++
		return domain.CanonicalRecord{}, false
	}

	ts, okTs := parseTimestamp(raw.Timestamp)
	if !okTs {
		stats.DroppedTimestamp++
		return domain.CanonicalRecord{}, false
	}

	promoted, okPromo := parsePromotion(raw.Promotion)
	if !okPromo {
		stats.PromotionDefaulted++
	}

	rec := domain.CanonicalRecord{
		EntityID:  raw.EntityID,
		Timestamp: ts,
		Sales:     sales,
		Price:     price,
		Promotion: promoted,
	}

	// Base price is optional; an unusable value only disables profit for the row.
	if bp, ok := parseNumber(raw.BasePrice); ok && bp >= 0 && !math.IsInf(sales*bp, 0) {
		rec.BasePrice = bp
		rec.HasBasePrice = true
	}

	return rec, true
}

func (c *Cleaner) logStats(stats domain.CleanStats) {
	event := c.logger.Info()
	if stats.DroppedRows() > 0 {
		event = c.logger.Warn()
	}
	event.
		Int("total_rows", stats.TotalRows).
		Int("kept_rows", stats.KeptRows).
		Int("dropped_rows", stats.DroppedRows()).
		Int("dropped_non_numeric", stats.DroppedNonNumeric).
		Int("dropped_out_of_range", stats.DroppedOutOfRange).
		Int("dropped_timestamp", stats.DroppedTimestamp).
		Int("dropped_missing_id", stats.DroppedMissingID).
		Int("dropped_duplicates", stats.DroppedDuplicates).
		Int("promotion_defaulted", stats.PromotionDefaulted).
		Msg("cleaned sales records")
}

// Load extracts records from table using cols and cleans them.
func (c *Cleaner) Load(table *domain.RawTable, cols ColumnMapping) ([]domain.CanonicalRecord, domain.CleanStats, error) {
	raw, err := ExtractRecords(table, cols)
	if err != nil {
		return nil, domain.CleanStats{TotalRows: rowCount(table)}, err
	}
	return c.Clean(raw)
}

func rowCount(table *domain.RawTable) int {
	if table == nil {
		return 0
	}
	return len(table.Rows)
}

// TimeRange returns the earliest and latest timestamps of canonical records.
func TimeRange(records []domain.CanonicalRecord) (time.Time, time.Time) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}
	}
	minTs, maxTs := records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(minTs) {
			minTs = r.Timestamp
		}
		if r.Timestamp.After(maxTs) {
			maxTs = r.Timestamp
		}
	}
	return minTs, maxTs
}
