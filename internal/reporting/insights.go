package reporting

import (
	"fmt"
	"sort"

	"retail-sales-lab/internal/domain"
)

// Promotion impact values.
const (
	ImpactPositive = "Positive"
	ImpactNegative = "Negative"
)

// KeyInsights are the headline findings of a report.
type KeyInsights struct {
	TopSegments     []SegmentRevenue // non-empty segments by revenue DESC
	TopTier         domain.VolumeTier
	TopTierRevenue  float64
	PromotionImpact string // ImpactPositive, ImpactNegative, or empty when unavailable
	ImpactOnProfit  bool   // false when impact was judged on sales
	Recommendations []string
}

// MostValuableSegment returns the segment with the highest revenue.
func (k KeyInsights) MostValuableSegment() (SegmentRevenue, bool) {
	if len(k.TopSegments) == 0 {
		return SegmentRevenue{}, false
	}
	return k.TopSegments[0], true
}

// ComputeInsights derives headline findings from the segment and promotion stages.
// topN limits the ranked segment list; values below 1 keep one.
func ComputeInsights(
	segments domain.StageResult[*domain.Segmentation],
	promotion domain.StageResult[*domain.PromotionEffect],
	topN int,
) KeyInsights {
	var k KeyInsights
	if topN < 1 {
		topN = 1
	}

	if segments.Available() && segments.Value != nil {
		k.TopSegments = rankSegments(segments.Value, topN)
		k.TopTier, k.TopTierRevenue = topTier(segments.Value)
	}

	if promotion.Available() && promotion.Value != nil {
		p := promotion.Value
		k.ImpactOnProfit = p.MeanProfitPromoted.Valid && p.MeanProfitNonPromoted.Valid
		if p.PositiveProfitImpact() {
			k.PromotionImpact = ImpactPositive
		} else {
			k.PromotionImpact = ImpactNegative
		}
	}

	if top, ok := k.MostValuableSegment(); ok {
		k.Recommendations = append(k.Recommendations,
			fmt.Sprintf("Focus on the %s segment for immediate revenue", top.Label))
	}
	switch k.PromotionImpact {
	case ImpactPositive:
		k.Recommendations = append(k.Recommendations, "Increase promotional activities")
	case ImpactNegative:
		k.Recommendations = append(k.Recommendations, "Decrease promotional activities")
	}
	return k
}

// rankSegments orders non-empty segments by revenue DESC, ties by segment order.
func rankSegments(s *domain.Segmentation, topN int) []SegmentRevenue {
	ranked := make([]SegmentRevenue, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if len(seg.Members) == 0 {
			continue
		}
		ranked = append(ranked, SegmentRevenue{
			Label:   seg.Label,
			Members: len(seg.Members),
			Revenue: seg.Centroid.TotalRevenue,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Revenue > ranked[j].Revenue
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// tierOrder is the display and tie-break order of volume tiers.
var tierOrder = []domain.VolumeTier{domain.TierHigh, domain.TierMedium, domain.TierLow}

func topTier(s *domain.Segmentation) (domain.VolumeTier, float64) {
	var (
		best    domain.VolumeTier
		revenue float64
	)
	for _, tier := range tierOrder {
		summary, ok := s.Tiers[tier]
		if !ok {
			continue
		}
		if best == "" || summary.TotalRevenue > revenue {
			best, revenue = tier, summary.TotalRevenue
		}
	}
	return best, revenue
}
