package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"retail-sales-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Retail Sales Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Source: %s | Dataset: %s | Run: %s\n\n", r.Source, r.Run.DatasetID, r.Run.RunID))

	writeOverview(&sb, r)
	writeDataQuality(&sb, r)
	writeTrend(&sb, r)
	writeSegments(&sb, r)
	writePromotion(&sb, r)
	writeInsights(&sb, r)

	// Reproducibility
	sb.WriteString("## Reproducibility\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Report Timestamp | %s |\n", r.Reproducibility.ReportTimestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Generator Version | %s |\n", r.Reproducibility.GeneratorVersion))
	sb.WriteString(fmt.Sprintf("| Dataset Version | %s |\n", r.Reproducibility.DatasetVersion))
	sb.WriteString(fmt.Sprintf("| Replay Command | `%s` |\n", r.Reproducibility.ReplayCommand))
	sb.WriteString("\n")

	return sb.String()
}

func writeOverview(sb *strings.Builder, r *Report) {
	o := r.Overview
	sb.WriteString("## Overall Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Records | %d |\n", o.RecordCount))
	sb.WriteString(fmt.Sprintf("| Entities | %d |\n", o.EntityCount))
	sb.WriteString(fmt.Sprintf("| Periods (%s) | %d |\n", r.Granularity, o.BucketCount))
	if o.RecordCount > 0 {
		sb.WriteString(fmt.Sprintf("| Date Range | %s to %s |\n", o.Start.Format("2006-01-02"), o.End.Format("2006-01-02")))
	}
	sb.WriteString(fmt.Sprintf("| Total Units Sold | %s |\n", formatAmount(o.TotalSales)))
	sb.WriteString(fmt.Sprintf("| Total Revenue | %s |\n", formatAmount(o.TotalRevenue)))
	sb.WriteString(fmt.Sprintf("| Average Profit per Sale | %s |\n", formatOpt(o.MeanProfit)))
	sb.WriteString("\n")
}

func writeDataQuality(sb *strings.Builder, r *Report) {
	c := r.Cleaning
	sb.WriteString("## Data Quality\n\n")
	sb.WriteString("### Cleaning\n\n")
	sb.WriteString("| Rows | Count |\n")
	sb.WriteString("|------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Read | %d |\n", c.TotalRows))
	sb.WriteString(fmt.Sprintf("| Kept | %d |\n", c.KeptRows))
	sb.WriteString(fmt.Sprintf("| Dropped: non-numeric sales or price | %d |\n", c.DroppedNonNumeric))
	sb.WriteString(fmt.Sprintf("| Dropped: negative sales or non-positive price | %d |\n", c.DroppedOutOfRange))
	sb.WriteString(fmt.Sprintf("| Dropped: unparsable timestamp | %d |\n", c.DroppedTimestamp))
	sb.WriteString(fmt.Sprintf("| Dropped: missing entity id | %d |\n", c.DroppedMissingID))
	sb.WriteString(fmt.Sprintf("| Dropped: duplicate entity and timestamp | %d |\n", c.DroppedDuplicates))
	sb.WriteString(fmt.Sprintf("| Promotion flag defaulted to false | %d |\n", c.PromotionDefaulted))
	sb.WriteString("\n")

	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Affected sections are marked unavailable or should be read with care.\n\n")
		}
	}

	// Integrity warnings (always shown if present)
	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Warnings\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}
}

func writeTrend(sb *strings.Builder, r *Report) {
	sb.WriteString(fmt.Sprintf("## Sales Trend (%s)\n\n", r.Granularity))
	if !r.Trend.Available() {
		sb.WriteString(fmt.Sprintf("unavailable: %s\n\n", r.Trend.Reason()))
		return
	}
	if len(r.Trend.Value) == 0 {
		sb.WriteString("No trend points.\n\n")
		return
	}
	sb.WriteString("| Period | Units | Mean Price | Promotion Rate | Records | Revenue |\n")
	sb.WriteString("|--------|-------|------------|----------------|---------|---------|\n")
	for _, p := range r.Trend.Value {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.4f | %.4f | %d | %.2f |\n",
			formatBucket(r.Granularity, p.Bucket), p.TotalSales, p.MeanPrice,
			p.PromotionRate, p.RecordCount, p.TotalRevenue))
	}
	sb.WriteString("\n")
}

func writeSegments(sb *strings.Builder, r *Report) {
	sb.WriteString("## Customer Segments\n\n")
	if !r.Segments.Available() || r.Segments.Value == nil {
		sb.WriteString(fmt.Sprintf("unavailable: %s\n\n", r.Segments.Reason()))
		return
	}
	s := r.Segments.Value

	sb.WriteString("| Segment | Entities | Mean Sales | Volatility | Mean Price | Promotion Lift | Total Units | Total Revenue |\n")
	sb.WriteString("|---------|----------|------------|------------|------------|----------------|-------------|---------------|\n")
	for _, seg := range s.Segments {
		c := seg.Centroid
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.4f | %.4f | %.2f | %.2f | %.2f |\n",
			seg.Label, len(seg.Members), c.MeanSales, c.Volatility, c.MeanPrice,
			c.PromotionLift, c.TotalSales, c.TotalRevenue))
	}
	sb.WriteString("\n")

	if len(s.CutPoints) > 0 {
		sb.WriteString("### Cut Points\n\n")
		sb.WriteString("| Feature Quantile | Threshold |\n")
		sb.WriteString("|------------------|-----------|\n")
		for _, key := range sortedKeys(s.CutPoints) {
			sb.WriteString(fmt.Sprintf("| %s | %.4f |\n", key, s.CutPoints[key]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Volume Tiers\n\n")
	sb.WriteString("| Tier | Entities | Total Units | Total Revenue |\n")
	sb.WriteString("|------|----------|-------------|---------------|\n")
	counts := tierCounts(s.Features)
	for _, tier := range tierOrder {
		t := s.Tiers[tier]
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f |\n", tier, counts[tier], t.TotalSales, t.TotalRevenue))
	}
	sb.WriteString("\n")
}

func writePromotion(sb *strings.Builder, r *Report) {
	sb.WriteString("## Promotion Effectiveness\n\n")
	if !r.Promotion.Available() || r.Promotion.Value == nil {
		sb.WriteString(fmt.Sprintf("unavailable: %s\n\n", r.Promotion.Reason()))
		return
	}
	p := r.Promotion.Value

	sb.WriteString("| Metric | Promoted | Not Promoted |\n")
	sb.WriteString("|--------|----------|--------------|\n")
	sb.WriteString(fmt.Sprintf("| Records | %d | %d |\n", p.PromotedCount, p.NonPromotedCount))
	sb.WriteString(fmt.Sprintf("| Mean Units | %.2f | %.2f |\n", p.MeanSalesPromoted, p.MeanSalesNonPromoted))
	sb.WriteString(fmt.Sprintf("| Mean Revenue | %.2f | %.2f |\n", p.MeanRevenuePromoted, p.MeanRevenueNonPromoted))
	sb.WriteString(fmt.Sprintf("| Mean Profit | %s | %s |\n", formatOpt(p.MeanProfitPromoted), formatOpt(p.MeanProfitNonPromoted)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("- Delta (mean units): %.2f\n", p.Delta))
	sb.WriteString(fmt.Sprintf("- Lift: %s\n", formatPercent(p.Lift)))
	sb.WriteString("\n")
}

func writeInsights(sb *strings.Builder, r *Report) {
	k := r.Insights
	sb.WriteString("## Key Insights\n\n")
	if top, ok := k.MostValuableSegment(); ok {
		sb.WriteString(fmt.Sprintf("- Most valuable segment: %s (revenue %s, %d entities)\n",
			top.Label, formatAmount(top.Revenue), top.Members))
	} else {
		sb.WriteString("- Most valuable segment: unavailable\n")
	}
	if k.TopTier != "" {
		sb.WriteString(fmt.Sprintf("- Most valuable volume tier: %s (revenue %s)\n", k.TopTier, formatAmount(k.TopTierRevenue)))
	}
	if k.PromotionImpact != "" {
		basis := "profits"
		if !k.ImpactOnProfit {
			basis = "units sold"
		}
		sb.WriteString(fmt.Sprintf("- Promotional effectiveness: %s impact on %s\n", k.PromotionImpact, basis))
	} else {
		sb.WriteString("- Promotional effectiveness: unavailable\n")
	}
	sb.WriteString("\n")

	if len(k.TopSegments) > 1 {
		sb.WriteString("### Top Segments by Revenue\n\n")
		for i, s := range k.TopSegments {
			sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, s.Label, formatAmount(s.Revenue)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Recommendations\n\n")
	if len(k.Recommendations) == 0 {
		sb.WriteString("No recommendations available.\n\n")
		return
	}
	for _, rec := range k.Recommendations {
		sb.WriteString(fmt.Sprintf("- %s\n", rec))
	}
	sb.WriteString("\n")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tierCounts(features []domain.EntityFeatures) map[domain.VolumeTier]int {
	counts := make(map[domain.VolumeTier]int, len(tierOrder))
	for _, f := range features {
		counts[f.Tier]++
	}
	return counts
}
