package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/segmentation"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	seg, err := segmentation.NewSegmenter(segmentation.DefaultConfig())
	require.NoError(t, err)
	return NewAnalyzer(domain.GranularityWeek, seg)
}

func TestAnalyzer_Scenario(t *testing.T) {
	a := newTestAnalyzer(t).Analyze(scenarioCanonical())

	require.True(t, a.Trend.Available())
	require.Len(t, a.Trend.Value, 2)
	assert.InDelta(t, 150, a.Trend.Value[0].TotalSales, 1e-9)
	assert.InDelta(t, 0, a.Trend.Value[0].PromotionRate, 1e-9)
	assert.InDelta(t, 190, a.Trend.Value[1].TotalSales, 1e-9)
	assert.InDelta(t, 0.5, a.Trend.Value[1].PromotionRate, 1e-9)

	require.True(t, a.Promotion.Available())
	p := a.Promotion.Value
	assert.InDelta(t, 150, p.MeanSalesPromoted, 1e-9)
	assert.InDelta(t, 63.333333, p.MeanSalesNonPromoted, 1e-5)
	require.True(t, p.Lift.Valid)
	assert.InDelta(t, 1.368421, p.Lift.Value, 1e-5)

	require.True(t, a.Segments.Available())
	assert.Len(t, a.Segments.Value.Assignments, 2)

	assert.Equal(t, map[string]string{
		domain.StageTrend:     domain.StageStatusOK,
		domain.StageSegments:  domain.StageStatusOK,
		domain.StagePromotion: domain.StageStatusOK,
	}, a.StageStatus())
}

func TestAnalyzer_StageIsolation(t *testing.T) {
	// One entity, never promoted: segmentation and promotion fail, trend does not.
	records := []domain.CanonicalRecord{
		canonical("A", week1, 100, 10, false),
		canonical("A", week2, 120, 10, false),
	}

	a := newTestAnalyzer(t).Analyze(records)

	assert.True(t, a.Trend.Available())
	assert.Len(t, a.Trend.Value, 2)

	assert.False(t, a.Segments.Available())
	assert.True(t, errors.Is(a.Segments.Err, domain.ErrInsufficientData))

	assert.False(t, a.Promotion.Available())
	assert.True(t, errors.Is(a.Promotion.Err, domain.ErrInsufficientData))

	status := a.StageStatus()
	assert.Equal(t, domain.StageStatusOK, status[domain.StageTrend])
	assert.Equal(t, domain.StageStatusUnavailable, status[domain.StageSegments])
	assert.Equal(t, domain.StageStatusUnavailable, status[domain.StagePromotion])
}

func TestAnalyzer_NoRecords(t *testing.T) {
	a := newTestAnalyzer(t).Analyze(nil)

	assert.False(t, a.Trend.Available())
	assert.False(t, a.Segments.Available())
	assert.False(t, a.Promotion.Available())
	assert.Equal(t, 0, a.Overview.RecordCount)
}

func TestAnalyzer_DoesNotMutateInput(t *testing.T) {
	records := scenarioCanonical()
	before := scenarioCanonical()

	newTestAnalyzer(t).Analyze(records)

	assert.Equal(t, before, records)
}
