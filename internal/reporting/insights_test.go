package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
)

func TestComputeInsights_Scenario(t *testing.T) {
	k := scenarioReport(t).Insights

	top, ok := k.MostValuableSegment()
	require.True(t, ok)
	assert.Equal(t, domain.SegmentHighValue, top.Label)
	assert.InDelta(t, 2500, top.Revenue, 1e-9)
	assert.Equal(t, 1, top.Members)

	assert.Equal(t, domain.TierHigh, k.TopTier)
	assert.InDelta(t, 2500, k.TopTierRevenue, 1e-9)

	assert.Equal(t, ImpactPositive, k.PromotionImpact)
	assert.True(t, k.ImpactOnProfit)
	assert.Equal(t, []string{
		"Focus on the high-value segment for immediate revenue",
		"Increase promotional activities",
	}, k.Recommendations)
}

func TestComputeInsights_Unavailable(t *testing.T) {
	k := unavailableReport(t).Insights

	_, ok := k.MostValuableSegment()
	assert.False(t, ok)
	assert.Empty(t, k.PromotionImpact)
	assert.Empty(t, k.Recommendations)
}

func TestComputeInsights_NegativeImpactJudgedOnSales(t *testing.T) {
	promo := domain.Ok(&domain.PromotionEffect{
		PromotedCount: 2, NonPromotedCount: 2,
		MeanSalesPromoted: 10, MeanSalesNonPromoted: 20, Delta: -10,
		Lift: domain.Some(-0.5),
	})
	k := ComputeInsights(domain.StageResult[*domain.Segmentation]{}, promo, 3)

	assert.Equal(t, ImpactNegative, k.PromotionImpact)
	assert.False(t, k.ImpactOnProfit)
	assert.Equal(t, []string{"Decrease promotional activities"}, k.Recommendations)
}

func TestComputeInsights_TopSegmentsRankedAndLimited(t *testing.T) {
	seg := &domain.Segmentation{
		Segments: []domain.Segment{
			{Label: domain.SegmentHighValue, Members: []string{"A"}, Centroid: domain.FeatureSummary{TotalRevenue: 100}},
			{Label: domain.SegmentPromotionDriven, Members: nil},
			{Label: domain.SegmentPriceSensitive, Members: []string{"B", "C"}, Centroid: domain.FeatureSummary{TotalRevenue: 300}},
			{Label: domain.SegmentSteady, Members: []string{"D"}, Centroid: domain.FeatureSummary{TotalRevenue: 200}},
		},
	}
	k := ComputeInsights(domain.Ok(seg), domain.StageResult[*domain.PromotionEffect]{Err: domain.ErrInsufficientData}, 2)

	require.Len(t, k.TopSegments, 2)
	assert.Equal(t, domain.SegmentPriceSensitive, k.TopSegments[0].Label)
	assert.Equal(t, domain.SegmentSteady, k.TopSegments[1].Label)
	assert.Equal(t, []string{"Focus on the price-sensitive segment for immediate revenue"}, k.Recommendations)
}
