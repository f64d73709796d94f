package metrics

import (
	"sort"
	"time"

	"retail-sales-lab/internal/domain"
)

// bucketAcc accumulates one time bucket.
type bucketAcc struct {
	sales    float64
	revenue  float64
	prices   []float64
	promoted int
	count    int
}

// ComputeTrend aggregates records by time bucket.
// Output has one point per bucket present in the input, sorted by bucket ASC.
// Buckets with no records are absent (the series is not densified).
// Records should be in canonical order so sums are accumulated in a fixed order.
// Sums that overflow saturate at math.MaxFloat64.
func ComputeTrend(records []domain.CanonicalRecord, granularity domain.Granularity) []domain.TrendPoint {
	if len(records) == 0 {
		return nil
	}

	buckets := make(map[time.Time]*bucketAcc)
	for _, r := range records {
		key := granularity.Bucket(r.Timestamp)
		acc, ok := buckets[key]
		if !ok {
			acc = &bucketAcc{}
			buckets[key] = acc
		}
		acc.sales = SaturatingAdd(acc.sales, r.Sales)
		acc.revenue = SaturatingAdd(acc.revenue, r.Revenue())
		acc.prices = append(acc.prices, r.Price)
		acc.count++
		if r.Promotion {
			acc.promoted++
		}
	}

	points := make([]domain.TrendPoint, 0, len(buckets))
	for bucket, acc := range buckets {
		points = append(points, domain.TrendPoint{
			Bucket:        bucket,
			TotalSales:    acc.sales,
			MeanPrice:     Mean(acc.prices),
			PromotionRate: float64(acc.promoted) / float64(acc.count),
			RecordCount:   acc.count,
			TotalRevenue:  acc.revenue,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Bucket.Before(points[j].Bucket)
	})

	return points
}
