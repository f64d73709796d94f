package metrics

import (
	"time"

	"retail-sales-lab/internal/domain"
)

// Summarize computes dataset-level totals over canonical records.
func Summarize(records []domain.CanonicalRecord, granularity domain.Granularity) domain.Overview {
	ov := domain.Overview{RecordCount: len(records), MeanProfit: domain.None()}
	if len(records) == 0 {
		return ov
	}

	entities := make(map[string]struct{})
	buckets := make(map[time.Time]struct{})
	var profits []float64

	ov.Start, ov.End = records[0].Timestamp, records[0].Timestamp
	for _, r := range records {
		entities[r.EntityID] = struct{}{}
		buckets[granularity.Bucket(r.Timestamp)] = struct{}{}
		ov.TotalSales = SaturatingAdd(ov.TotalSales, r.Sales)
		ov.TotalRevenue = SaturatingAdd(ov.TotalRevenue, r.Revenue())
		if p := r.Profit(); p.Valid {
			profits = append(profits, p.Value)
		}
		if r.Timestamp.Before(ov.Start) {
			ov.Start = r.Timestamp
		}
		if r.Timestamp.After(ov.End) {
			ov.End = r.Timestamp
		}
	}

	ov.EntityCount = len(entities)
	ov.BucketCount = len(buckets)
	if len(profits) > 0 {
		ov.MeanProfit = domain.Some(Mean(profits))
	}
	return ov
}
