package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSV headers. An unavailable stage yields a header-only file.
var (
	trendCSVHeader     = []string{"period", "total_units", "mean_price", "promotion_rate", "record_count", "total_revenue"}
	segmentsCSVHeader  = []string{"entity_id", "segment", "volume_tier", "record_count", "total_units", "total_revenue", "mean_sales", "volatility", "mean_price", "promotion_lift"}
	promotionCSVHeader = []string{"group", "record_count", "mean_units", "mean_revenue", "mean_profit"}
)

// RenderTrendCSV renders the trend series, one row per period.
func RenderTrendCSV(r *Report) (string, error) {
	rows := [][]string{trendCSVHeader}
	if r.Trend.Available() {
		for _, p := range r.Trend.Value {
			rows = append(rows, []string{
				formatBucket(r.Granularity, p.Bucket),
				formatFloat(p.TotalSales),
				formatFloat(p.MeanPrice),
				formatFloat(p.PromotionRate),
				strconv.Itoa(p.RecordCount),
				formatFloat(p.TotalRevenue),
			})
		}
	}
	return writeCSV(rows)
}

// RenderSegmentsCSV renders one row per entity, ordered by entity id.
func RenderSegmentsCSV(r *Report) (string, error) {
	rows := [][]string{segmentsCSVHeader}
	if s := r.Segments.Value; r.Segments.Available() && s != nil {
		for _, f := range s.Features {
			rows = append(rows, []string{
				f.EntityID,
				string(s.Assignments[f.EntityID]),
				string(f.Tier),
				strconv.Itoa(f.RecordCount),
				formatFloat(f.TotalSales),
				formatFloat(f.TotalRevenue),
				formatFloat(f.MeanSales),
				formatFloat(f.Volatility),
				formatFloat(f.MeanPrice),
				formatFloat(f.PromotionLift),
			})
		}
	}
	return writeCSV(rows)
}

// RenderPromotionCSV renders the promoted and non-promoted groups.
// Undefined profit is an empty cell.
func RenderPromotionCSV(r *Report) (string, error) {
	rows := [][]string{promotionCSVHeader}
	if p := r.Promotion.Value; r.Promotion.Available() && p != nil {
		rows = append(rows,
			[]string{"promoted", strconv.Itoa(p.PromotedCount), formatFloat(p.MeanSalesPromoted),
				formatFloat(p.MeanRevenuePromoted), optCell(p.MeanProfitPromoted.Ptr())},
			[]string{"not_promoted", strconv.Itoa(p.NonPromotedCount), formatFloat(p.MeanSalesNonPromoted),
				formatFloat(p.MeanRevenueNonPromoted), optCell(p.MeanProfitNonPromoted.Ptr())},
		)
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return sb.String(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func optCell(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
