package domain

import "time"

// Granularity selects the time bucket used by trend aggregation.
type Granularity string

const (
	GranularityRaw   Granularity = "raw"   // bucket = timestamp itself
	GranularityDay   Granularity = "day"   // calendar day, UTC
	GranularityWeek  Granularity = "week"  // ISO week, starting Monday UTC
	GranularityMonth Granularity = "month" // calendar month, UTC
)

// IsValid checks if the granularity is a known value.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityRaw, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Bucket truncates t to the start of its bucket.
func (g Granularity) Bucket(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7 // days since Monday
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// TrendPoint is the aggregate of all records in one time bucket.
type TrendPoint struct {
	Bucket        time.Time // bucket start, UTC
	TotalSales    float64   // sum of sales
	MeanPrice     float64   // mean of unit price
	PromotionRate float64   // share of promoted records, in [0, 1]
	RecordCount   int       // records in bucket, always > 0
	TotalRevenue  float64   // sum of sales * price
}
