package domain

import "time"

// RawRecord is one observation as read from the source dataset.
// All fields keep their source text; validation happens in normalization.
type RawRecord struct {
	RowNumber int    // 1-based data row index in source order
	EntityID  string // store or customer identifier
	Timestamp string // week, e.g. "20110105" or "2011-01-05"
	Sales     string // sales amount (units)
	Price     string // unit price
	Promotion string // promotion indicator, may be empty
	BasePrice string // optional base (list) price, empty when not provided
}

// RawTable is a tabular dataset: a header row plus string cells.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// CanonicalRecord is a validated, normalized sales observation.
// Invariants: Sales >= 0, Price > 0, Timestamp is UTC.
type CanonicalRecord struct {
	EntityID     string
	Timestamp    time.Time
	Sales        float64
	Price        float64
	Promotion    bool
	BasePrice    float64 // valid only when HasBasePrice
	HasBasePrice bool
}

// Revenue returns sales * price.
func (r CanonicalRecord) Revenue() float64 {
	return r.Sales * r.Price
}

// Profit returns revenue minus cost at base price.
// Undefined when the dataset carries no base price.
func (r CanonicalRecord) Profit() OptFloat {
	if !r.HasBasePrice {
		return None()
	}
	return Some(r.Revenue() - r.Sales*r.BasePrice)
}

// CleanStats summarizes the loader's row-level recovery.
type CleanStats struct {
	TotalRows          int
	KeptRows           int
	DroppedNonNumeric  int // sales or price not a finite number
	DroppedOutOfRange  int // negative sales, non-positive price or overflowing revenue
	DroppedTimestamp   int // timestamp not parseable
	DroppedMissingID   int // empty entity id
	DroppedDuplicates  int // repeated (entity, timestamp)
	PromotionDefaulted int // missing or unrecognized flag resolved to false
}

// DroppedRows returns the total number of rows removed.
func (s CleanStats) DroppedRows() int {
	return s.DroppedNonNumeric + s.DroppedOutOfRange + s.DroppedTimestamp +
		s.DroppedMissingID + s.DroppedDuplicates
}

// Overview is the dataset-level performance summary.
type Overview struct {
	RecordCount  int
	EntityCount  int
	BucketCount  int
	TotalSales   float64
	TotalRevenue float64
	MeanProfit   OptFloat // mean per-record profit; undefined without base price
	Start        time.Time
	End          time.Time
}
