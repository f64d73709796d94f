package reporting

import (
	_ "embed"
	"fmt"

	"github.com/osteele/liquid"
)

//go:embed templates/analysis_report.txt.liquid
var textTemplate string

// TextRenderer renders the plain-text analysis report from a Liquid template.
type TextRenderer struct {
	tpl *liquid.Template
}

// NewTextRenderer parses the built-in template.
func NewTextRenderer() (*TextRenderer, error) {
	return NewTextRendererFromSource(textTemplate)
}

// NewTextRendererFromSource parses a custom template. The bindings are
// documented by textBindings.
func NewTextRendererFromSource(source string) (*TextRenderer, error) {
	tpl, err := liquid.NewEngine().ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("parse text report template: %w", err)
	}
	return &TextRenderer{tpl: tpl}, nil
}

// Render renders report as text.
func (t *TextRenderer) Render(r *Report) (string, error) {
	out, err := t.tpl.RenderString(textBindings(r))
	if err != nil {
		return "", fmt.Errorf("render text report: %w", err)
	}
	return out, nil
}

// textBindings flattens the report into template variables.
// Numbers are preformatted so templates need no number filters.
func textBindings(r *Report) liquid.Bindings {
	o := r.Overview
	b := liquid.Bindings{
		"generated_on":    r.GeneratedAt.Format("2006-01-02"),
		"source":          r.Source,
		"run_id":          r.Run.RunID,
		"dataset_id":      r.Run.DatasetID,
		"dataset_version": r.Reproducibility.DatasetVersion,
		"records":         formatCount(o.RecordCount),
		"dropped":         formatCount(r.Cleaning.DroppedRows()),
		"entities":        formatCount(o.EntityCount),
		"periods":         formatCount(o.BucketCount),
		"granularity":     string(r.Granularity),
		"total_revenue":   formatAmount(o.TotalRevenue),
		"total_units":     formatAmount(o.TotalSales),
		"mean_profit":     formatOpt(o.MeanProfit),

		"trend_available":     r.Trend.Available(),
		"trend_reason":        r.Trend.Reason(),
		"segments_available":  r.Segments.Available() && r.Segments.Value != nil,
		"segments_reason":     r.Segments.Reason(),
		"promotion_available": r.Promotion.Available() && r.Promotion.Value != nil,
		"promotion_reason":    r.Promotion.Reason(),
	}

	trend := make([]map[string]any, 0, len(r.Trend.Value))
	for _, p := range r.Trend.Value {
		trend = append(trend, map[string]any{
			"period":         formatBucket(r.Granularity, p.Bucket),
			"units":          formatAmount(p.TotalSales),
			"revenue":        formatAmount(p.TotalRevenue),
			"promotion_rate": fmt.Sprintf("%.2f", p.PromotionRate),
		})
	}
	b["trend"] = trend

	var segments, tiers []map[string]any
	if s := r.Segments.Value; s != nil {
		for _, seg := range s.Segments {
			segments = append(segments, map[string]any{
				"label":   string(seg.Label),
				"members": len(seg.Members),
				"units":   formatAmount(seg.Centroid.TotalSales),
				"revenue": formatAmount(seg.Centroid.TotalRevenue),
			})
		}
		for _, tier := range tierOrder {
			t := s.Tiers[tier]
			tiers = append(tiers, map[string]any{
				"tier":    string(tier),
				"units":   formatAmount(t.TotalSales),
				"revenue": formatAmount(t.TotalRevenue),
			})
		}
	}
	b["segments"] = segments
	b["tiers"] = tiers

	if p := r.Promotion.Value; p != nil {
		b["promo_count"] = formatCount(p.PromotedCount)
		b["promo_units"] = formatAmount(p.MeanSalesPromoted)
		b["promo_revenue"] = formatAmount(p.MeanRevenuePromoted)
		b["promo_profit"] = formatOpt(p.MeanProfitPromoted)
		b["base_count"] = formatCount(p.NonPromotedCount)
		b["base_units"] = formatAmount(p.MeanSalesNonPromoted)
		b["base_revenue"] = formatAmount(p.MeanRevenueNonPromoted)
		b["base_profit"] = formatOpt(p.MeanProfitNonPromoted)
		b["lift"] = formatPercent(p.Lift)
	}

	b["top_segment"] = "unavailable"
	if top, ok := r.Insights.MostValuableSegment(); ok {
		b["top_segment"] = string(top.Label)
	}
	b["promotion_impact"] = impactText(r.Insights)
	b["recommendations"] = r.Insights.Recommendations
	b["has_recommendations"] = len(r.Insights.Recommendations) > 0

	return b
}

func impactText(k KeyInsights) string {
	if k.PromotionImpact == "" {
		return "unavailable"
	}
	if k.ImpactOnProfit {
		return k.PromotionImpact + " impact on profits"
	}
	return k.PromotionImpact + " impact on units sold"
}
