package domain

// SegmentLabel names a behavioral segment.
type SegmentLabel string

const (
	SegmentHighValue       SegmentLabel = "high-value"
	SegmentPromotionDriven SegmentLabel = "promotion-driven"
	SegmentPriceSensitive  SegmentLabel = "price-sensitive"
	SegmentLowEngagement   SegmentLabel = "low-engagement"
	SegmentSteady          SegmentLabel = "steady"
)

// Feature names a field of EntityFeatures usable in segment rules.
type Feature string

const (
	FeatureMeanSales     Feature = "mean_sales"
	FeatureTotalSales    Feature = "total_sales"
	FeatureVolatility    Feature = "volatility"
	FeatureMeanPrice     Feature = "mean_price"
	FeaturePromotionLift Feature = "promotion_lift"
)

// IsValid checks if the feature is a known value.
func (f Feature) IsValid() bool {
	switch f {
	case FeatureMeanSales, FeatureTotalSales, FeatureVolatility, FeatureMeanPrice, FeaturePromotionLift:
		return true
	}
	return false
}

// VolumeTier is the tercile of an entity's total sales.
type VolumeTier string

const (
	TierLow    VolumeTier = "Low"
	TierMedium VolumeTier = "Medium"
	TierHigh   VolumeTier = "High"
)

// EntityFeatures is the behavioral feature vector of one entity.
type EntityFeatures struct {
	EntityID      string
	RecordCount   int
	TotalSales    float64
	TotalRevenue  float64
	MeanSales     float64
	Volatility    float64 // stddev / mean; 0 when mean is 0
	MeanPrice     float64
	PromotionLift float64 // mean(sales | promo) - mean(sales | no promo); 0 if a side is empty
	Tier          VolumeTier
}

// Value returns the named feature.
func (f EntityFeatures) Value(name Feature) float64 {
	switch name {
	case FeatureMeanSales:
		return f.MeanSales
	case FeatureTotalSales:
		return f.TotalSales
	case FeatureVolatility:
		return f.Volatility
	case FeatureMeanPrice:
		return f.MeanPrice
	case FeaturePromotionLift:
		return f.PromotionLift
	}
	return 0
}

// FeatureSummary is the centroid of a segment's members.
// Zero-valued for an empty segment.
type FeatureSummary struct {
	MeanSales     float64
	Volatility    float64
	MeanPrice     float64
	PromotionLift float64
	TotalSales    float64 // sum over members
	TotalRevenue  float64 // sum over members
}

// Segment is one class of the entity partition.
type Segment struct {
	Label    SegmentLabel
	Members  []string // sorted entity ids, may be empty
	Centroid FeatureSummary
}

// Segmentation is the Segmenter's result.
type Segmentation struct {
	Features    []EntityFeatures              // sorted by entity id
	Assignments map[string]SegmentLabel       // entity id -> segment
	Segments    []Segment                     // rule priority order, fallback last
	CutPoints   map[string]float64            // "<feature>@q<quantile>" -> threshold
	Tiers       map[VolumeTier]FeatureSummary // revenue/sales totals by volume tier
}

// Segment returns the segment with the given label.
func (s *Segmentation) Segment(label SegmentLabel) (Segment, bool) {
	for _, seg := range s.Segments {
		if seg.Label == label {
			return seg, true
		}
	}
	return Segment{}, false
}
