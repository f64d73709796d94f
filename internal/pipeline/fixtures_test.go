package pipeline

import (
	"time"

	"retail-sales-lab/internal/domain"
)

var (
	week1 = time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)
	week2 = time.Date(2011, 1, 12, 0, 0, 0, 0, time.UTC)
)

func canonical(entity string, ts time.Time, sales, price float64, promo bool) domain.CanonicalRecord {
	return domain.CanonicalRecord{EntityID: entity, Timestamp: ts, Sales: sales, Price: price, Promotion: promo}
}

// scenarioCanonical is the two-store reference dataset in canonical order.
func scenarioCanonical() []domain.CanonicalRecord {
	return []domain.CanonicalRecord{
		canonical("A", week1, 100, 10, false),
		canonical("A", week2, 150, 10, true),
		canonical("B", week1, 50, 8, false),
		canonical("B", week2, 40, 8, false),
	}
}

// scenarioRaw is the same dataset as read from a file, deliberately unordered.
func scenarioRaw() []domain.RawRecord {
	return []domain.RawRecord{
		{RowNumber: 1, EntityID: "B", Timestamp: "20110112", Sales: "40", Price: "8", Promotion: "0"},
		{RowNumber: 2, EntityID: "A", Timestamp: "20110105", Sales: "100", Price: "10", Promotion: "0"},
		{RowNumber: 3, EntityID: "B", Timestamp: "20110105", Sales: "50", Price: "8", Promotion: "0"},
		{RowNumber: 4, EntityID: "A", Timestamp: "20110112", Sales: "150", Price: "10", Promotion: "1"},
	}
}
