package segmentation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
)

var (
	week1 = time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)
	week2 = time.Date(2011, 1, 12, 0, 0, 0, 0, time.UTC)
)

func scenarioRecords() []domain.CanonicalRecord {
	return []domain.CanonicalRecord{
		{EntityID: "A", Timestamp: week1, Sales: 100, Price: 10},
		{EntityID: "A", Timestamp: week2, Sales: 150, Price: 10, Promotion: true},
		{EntityID: "B", Timestamp: week1, Sales: 50, Price: 8},
		{EntityID: "B", Timestamp: week2, Sales: 40, Price: 8},
	}
}

// randomRecords generates n entities with weeks observations each.
func randomRecords(seed int64, n, weeks int) []domain.CanonicalRecord {
	rng := rand.New(rand.NewSource(seed))
	var records []domain.CanonicalRecord
	for e := 0; e < n; e++ {
		base := 20 + rng.Float64()*200
		price := 1 + rng.Float64()*9
		for w := 0; w < weeks; w++ {
			promo := rng.Intn(4) == 0
			sales := base * (0.5 + rng.Float64())
			if promo {
				sales *= 1 + rng.Float64()
			}
			records = append(records, domain.CanonicalRecord{
				EntityID:  fmt.Sprintf("store-%03d", e),
				Timestamp: week1.AddDate(0, 0, 7*w),
				Sales:     sales,
				Price:     price,
				Promotion: promo,
			})
		}
	}
	return records
}

func newDefaultSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	s, err := NewSegmenter(DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestComputeFeatures_Scenario(t *testing.T) {
	features := ComputeFeatures(scenarioRecords())
	require.Len(t, features, 2)

	a, b := features[0], features[1]
	assert.Equal(t, "A", a.EntityID)
	assert.Equal(t, 2, a.RecordCount)
	assert.Equal(t, 250.0, a.TotalSales)
	assert.Equal(t, 125.0, a.MeanSales)
	assert.Equal(t, 50.0, a.PromotionLift)
	assert.Equal(t, 10.0, a.MeanPrice)
	assert.Equal(t, 2500.0, a.TotalRevenue)
	assert.InDelta(t, 35.3553/125, a.Volatility, 1e-4)

	assert.Equal(t, "B", b.EntityID)
	assert.Equal(t, 45.0, b.MeanSales)
	// No promoted observations: lift is 0
	assert.Equal(t, 0.0, b.PromotionLift)

	assert.Equal(t, domain.TierHigh, a.Tier)
	assert.Equal(t, domain.TierLow, b.Tier)
}

func TestComputeFeatures_SingleObservationVolatility(t *testing.T) {
	features := ComputeFeatures([]domain.CanonicalRecord{
		{EntityID: "A", Timestamp: week1, Sales: 10, Price: 1},
	})
	require.Len(t, features, 1)
	assert.Equal(t, 0.0, features[0].Volatility)
}

func TestComputeFeatures_ZeroMeanVolatility(t *testing.T) {
	features := ComputeFeatures([]domain.CanonicalRecord{
		{EntityID: "A", Timestamp: week1, Sales: 0, Price: 1},
		{EntityID: "A", Timestamp: week2, Sales: 0, Price: 1},
	})
	require.Len(t, features, 1)
	assert.Equal(t, 0.0, features[0].Volatility)
}

func TestSegment_Scenario(t *testing.T) {
	seg, err := newDefaultSegmenter(t).Segment(scenarioRecords())
	require.NoError(t, err)

	assert.Equal(t, domain.SegmentHighValue, seg.Assignments["A"])
	assert.Equal(t, domain.SegmentLowEngagement, seg.Assignments["B"])

	assert.InDelta(t, 105.0, seg.CutPoints["mean_sales@q0.75"], 1e-9)
	assert.InDelta(t, 65.0, seg.CutPoints["mean_sales@q0.25"], 1e-9)
	assert.InDelta(t, 8.5, seg.CutPoints["mean_price@q0.25"], 1e-9)

	high, ok := seg.Segment(domain.SegmentHighValue)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, high.Members)
	assert.Equal(t, 125.0, high.Centroid.MeanSales)
}

func TestSegment_EmptySegmentsReported(t *testing.T) {
	seg, err := newDefaultSegmenter(t).Segment(scenarioRecords())
	require.NoError(t, err)

	labels := make([]domain.SegmentLabel, 0, len(seg.Segments))
	for _, s := range seg.Segments {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []domain.SegmentLabel{
		domain.SegmentHighValue,
		domain.SegmentPromotionDriven,
		domain.SegmentPriceSensitive,
		domain.SegmentLowEngagement,
		domain.SegmentSteady,
	}, labels)

	steady, ok := seg.Segment(domain.SegmentSteady)
	require.True(t, ok)
	assert.Empty(t, steady.Members)
	assert.Equal(t, domain.FeatureSummary{}, steady.Centroid)
}

func TestSegment_PartitionCompleteness(t *testing.T) {
	records := randomRecords(7, 40, 10)
	seg, err := newDefaultSegmenter(t).Segment(records)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, s := range seg.Segments {
		for _, id := range s.Members {
			seen[id]++
			assert.Equal(t, s.Label, seg.Assignments[id])
		}
	}

	require.Len(t, seen, 40)
	for id, n := range seen {
		assert.Equal(t, 1, n, "entity %s in %d segments", id, n)
	}
	assert.Len(t, seg.Assignments, 40)
}

func TestSegment_OrderIndependent(t *testing.T) {
	records := randomRecords(11, 25, 8)
	expected, err := newDefaultSegmenter(t).Segment(records)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 5; i++ {
		shuffled := make([]domain.CanonicalRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := newDefaultSegmenter(t).Segment(shuffled)
		require.NoError(t, err)
		assert.Equal(t, expected.Assignments, got.Assignments)
		assert.Equal(t, expected.Segments, got.Segments)
	}
}

func TestSegment_ScaleInvariant(t *testing.T) {
	records := randomRecords(5, 30, 6)
	expected, err := newDefaultSegmenter(t).Segment(records)
	require.NoError(t, err)

	// Powers of two keep the arithmetic exact.
	scaled := make([]domain.CanonicalRecord, len(records))
	for i, r := range records {
		r.Sales *= 4
		r.Price *= 2
		scaled[i] = r
	}

	got, err := newDefaultSegmenter(t).Segment(scaled)
	require.NoError(t, err)
	assert.Equal(t, expected.Assignments, got.Assignments)
}

func TestSegment_TooFewEntities(t *testing.T) {
	records := []domain.CanonicalRecord{
		{EntityID: "A", Timestamp: week1, Sales: 10, Price: 1},
		{EntityID: "A", Timestamp: week2, Sales: 20, Price: 1},
	}

	seg, err := newDefaultSegmenter(t).Segment(records)
	assert.Nil(t, seg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))

	var insErr *domain.InsufficientDataError
	require.True(t, errors.As(err, &insErr))
	assert.Equal(t, domain.StageSegments, insErr.Stage)
	assert.Equal(t, 2, insErr.Required)
	assert.Equal(t, 1, insErr.Actual)
}

func TestSegment_ConfiguredMinEntities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinEntities = 5
	s, err := NewSegmenter(cfg)
	require.NoError(t, err)

	_, err = s.Segment(scenarioRecords())
	var insErr *domain.InsufficientDataError
	require.True(t, errors.As(err, &insErr))
	assert.Equal(t, 5, insErr.Required)
	assert.Equal(t, 2, insErr.Actual)
}

func TestSegment_FirstMatchWins(t *testing.T) {
	// Both rules match every entity; the first one takes all.
	cfg := Config{
		MinEntities: 2,
		Fallback:    domain.SegmentSteady,
		Rules: []Rule{
			{Segment: "first", Conditions: []Condition{{Feature: domain.FeatureMeanSales, Op: OpGTE, Value: q(0)}}},
			{Segment: "second", Conditions: []Condition{{Feature: domain.FeatureMeanSales, Op: OpGTE, Value: q(0)}}},
		},
	}
	s, err := NewSegmenter(cfg)
	require.NoError(t, err)

	seg, err := s.Segment(scenarioRecords())
	require.NoError(t, err)
	first, _ := seg.Segment("first")
	second, _ := seg.Segment("second")
	assert.Equal(t, []string{"A", "B"}, first.Members)
	assert.Empty(t, second.Members)
}

func TestSegment_Tiers(t *testing.T) {
	seg, err := newDefaultSegmenter(t).Segment(scenarioRecords())
	require.NoError(t, err)

	require.Len(t, seg.Tiers, 3)
	assert.Equal(t, 2500.0, seg.Tiers[domain.TierHigh].TotalRevenue)
	assert.Equal(t, 720.0, seg.Tiers[domain.TierLow].TotalRevenue)
	assert.Equal(t, 0.0, seg.Tiers[domain.TierMedium].TotalRevenue)
}

func TestSegment_LargeValuesStayFinite(t *testing.T) {
	records := []domain.CanonicalRecord{
		{EntityID: "A", Timestamp: week1, Sales: 1e308, Price: 1, Promotion: true},
		{EntityID: "A", Timestamp: week2, Sales: 1.5e308, Price: 1, Promotion: true},
		{EntityID: "B", Timestamp: week1, Sales: 1e-300, Price: 1},
		{EntityID: "B", Timestamp: week2, Sales: 1e-300, Price: 1},
	}

	seg, err := newDefaultSegmenter(t).Segment(records)
	require.NoError(t, err)

	for _, f := range seg.Features {
		for name, v := range map[string]float64{
			"TotalSales":    f.TotalSales,
			"TotalRevenue":  f.TotalRevenue,
			"MeanSales":     f.MeanSales,
			"Volatility":    f.Volatility,
			"MeanPrice":     f.MeanPrice,
			"PromotionLift": f.PromotionLift,
		} {
			assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "%s.%s = %g", f.EntityID, name, v)
		}
	}
	for key, v := range seg.CutPoints {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "cut point %s = %g", key, v)
	}

	a := seg.Features[0]
	require.Equal(t, "A", a.EntityID)
	assert.InDelta(t, (0.5/math.Sqrt2)/1.25, a.Volatility, 1e-9)
	assert.Equal(t, domain.TierHigh, a.Tier)
	assert.Equal(t, domain.TierLow, seg.Features[1].Tier)
	assert.Equal(t, domain.SegmentHighValue, seg.Assignments["A"])
}
