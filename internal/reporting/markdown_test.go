package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_ContainsRequiredSections(t *testing.T) {
	md := RenderMarkdown(scenarioReport(t))

	sections := []string{
		"# Retail Sales Analysis Report",
		"## Overall Performance",
		"## Data Quality",
		"### Sufficiency Checks",
		"### Integrity Warnings",
		"## Sales Trend (week)",
		"## Customer Segments",
		"### Cut Points",
		"### Volume Tiers",
		"## Promotion Effectiveness",
		"## Key Insights",
		"## Recommendations",
		"## Reproducibility",
	}
	for _, s := range sections {
		assert.Contains(t, md, s)
	}
}

func TestRenderMarkdown_ScenarioValues(t *testing.T) {
	md := RenderMarkdown(scenarioReport(t))

	assert.Contains(t, md, "Generated: 2024-03-01T12:00:00Z")
	assert.Contains(t, md, "| Total Revenue | 3,220.00 |")
	assert.Contains(t, md, "| 2011-01-03 | 150.00 | 9.0000 | 0.0000 | 2 | 1400.00 |")
	assert.Contains(t, md, "| 2011-01-10 | 190.00 | 9.0000 | 0.5000 | 2 | 1820.00 |")
	assert.Contains(t, md, "| Records | 1 | 3 |")
	assert.Contains(t, md, "| Mean Units | 150.00 | 63.33 |")
	assert.Contains(t, md, "- Lift: +136.84%")
	assert.Contains(t, md, "- Most valuable segment: high-value")
	assert.Contains(t, md, "- Promotional effectiveness: Positive impact on profits")
	assert.Contains(t, md, "| mean_sales@q0.75 |")
}

func TestRenderMarkdown_UnavailableStages(t *testing.T) {
	md := RenderMarkdown(unavailableReport(t))

	assert.Contains(t, md, "unavailable: no records")
	assert.Contains(t, md, "unavailable: too few distinct entities (required 2, got 1)")
	assert.Contains(t, md, "unavailable: no promoted records")
	assert.Contains(t, md, "- Most valuable segment: unavailable")
	assert.Contains(t, md, "No recommendations available.")
	assert.NotContains(t, md, "### Cut Points")
}

func TestRenderMarkdown_UndefinedLift(t *testing.T) {
	r := scenarioReport(t)
	p := *r.Promotion.Value
	p.MeanSalesNonPromoted = 0
	p.Lift.Valid = false
	r.Promotion.Value = &p

	md := RenderMarkdown(r)
	assert.Contains(t, md, "- Lift: undefined")
	assert.NotContains(t, md, "NaN")
	assert.NotContains(t, md, "Inf")
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	r := scenarioReport(t)
	first := RenderMarkdown(r)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, RenderMarkdown(r))
	}
	assert.True(t, strings.HasSuffix(first, "\n"))
}
