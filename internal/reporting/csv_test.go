package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
)

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestRenderTrendCSV(t *testing.T) {
	out, err := RenderTrendCSV(scenarioReport(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"period,total_units,mean_price,promotion_rate,record_count,total_revenue",
		"2011-01-03,150.000000,9.000000,0.000000,2,1400.000000",
		"2011-01-10,190.000000,9.000000,0.500000,2,1820.000000",
	}, lines(out))
}

func TestRenderSegmentsCSV(t *testing.T) {
	out, err := RenderSegmentsCSV(scenarioReport(t))
	require.NoError(t, err)

	l := lines(out)
	require.Len(t, l, 3)
	assert.True(t, strings.HasPrefix(l[1], "A,high-value,High,2,250.000000,2500.000000,125.000000,"))
	assert.True(t, strings.HasPrefix(l[2], "B,low-engagement,Low,2,90.000000,720.000000,45.000000,"))
}

func TestRenderSegmentsCSV_QuotesEntityIDs(t *testing.T) {
	r := scenarioReport(t)
	seg := *r.Segments.Value
	seg.Features = []domain.EntityFeatures{{EntityID: "Store 1, North", Tier: domain.TierLow}}
	seg.Assignments = map[string]domain.SegmentLabel{"Store 1, North": domain.SegmentSteady}
	r.Segments.Value = &seg

	out, err := RenderSegmentsCSV(r)
	require.NoError(t, err)
	assert.Contains(t, out, `"Store 1, North",steady,Low`)
}

func TestRenderPromotionCSV(t *testing.T) {
	r := scenarioReport(t)
	out, err := RenderPromotionCSV(r)
	require.NoError(t, err)

	l := lines(out)
	require.Len(t, l, 3)
	assert.Equal(t, "promoted,1,150.000000,1500.000000,300.000000", l[1])
	assert.True(t, strings.HasPrefix(l[2], "not_promoted,3,63.333333,"))

	p := *r.Promotion.Value
	p.MeanProfitPromoted = domain.None()
	r.Promotion.Value = &p
	out, err = RenderPromotionCSV(r)
	require.NoError(t, err)
	assert.Equal(t, "promoted,1,150.000000,1500.000000,", lines(out)[1])
}

func TestRenderCSV_UnavailableStagesHeaderOnly(t *testing.T) {
	r := unavailableReport(t)

	for name, render := range map[string]func(*Report) (string, error){
		"trend":     RenderTrendCSV,
		"segments":  RenderSegmentsCSV,
		"promotion": RenderPromotionCSV,
	} {
		out, err := render(r)
		require.NoError(t, err, name)
		assert.Len(t, lines(out), 1, name)
	}
}
