// Package verification checks that stored analysis results can be reproduced
// from the dataset they were computed from.
package verification

import (
	"context"
	"fmt"
	"math"

	"retail-sales-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name, e.g. "trend[2].TotalSales"
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID           string            // verified run ID
	Match           bool              // true if all fields match
	Divergences     []FieldDivergence // list of divergent fields
	StoredVersion   string            // dataset version recorded with the run
	ReplayedVersion string            // dataset version of the reloaded records
}

// Verifier verifies stored analysis runs.
type Verifier interface {
	// VerifyRun reloads the run's dataset, re-runs the analysis and compares
	// every stored result.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)
}

// divergences collects mismatches under a field prefix.
type divergences struct {
	list []FieldDivergence
}

func (d *divergences) add(field string, expected, actual interface{}) {
	d.list = append(d.list, FieldDivergence{Field: field, Expected: expected, Actual: actual})
}

func (d *divergences) compareFloat(field string, expected, actual float64) {
	if !floatEquals(expected, actual) {
		d.add(field, expected, actual)
	}
}

func (d *divergences) compareOpt(field string, expected, actual domain.OptFloat) {
	if expected.Valid != actual.Valid || (expected.Valid && !floatEquals(expected.Value, actual.Value)) {
		d.add(field, expected.Sprintf("%g"), actual.Sprintf("%g"))
	}
}

// CompareTrend compares a stored trend series with a replayed one.
func CompareTrend(stored, replayed []domain.TrendPoint) []FieldDivergence {
	var d divergences

	if len(stored) != len(replayed) {
		d.add("trend.len", len(stored), len(replayed))
		return d.list
	}

	for i := range stored {
		s, r := stored[i], replayed[i]
		prefix := fmt.Sprintf("trend[%d].", i)

		if !s.Bucket.Equal(r.Bucket) {
			d.add(prefix+"Bucket", s.Bucket, r.Bucket)
		}
		if s.RecordCount != r.RecordCount {
			d.add(prefix+"RecordCount", s.RecordCount, r.RecordCount)
		}
		d.compareFloat(prefix+"TotalSales", s.TotalSales, r.TotalSales)
		d.compareFloat(prefix+"MeanPrice", s.MeanPrice, r.MeanPrice)
		d.compareFloat(prefix+"PromotionRate", s.PromotionRate, r.PromotionRate)
		d.compareFloat(prefix+"TotalRevenue", s.TotalRevenue, r.TotalRevenue)
	}

	return d.list
}

// CompareSegments compares stored assignments with a replayed segmentation.
// Stored rows must be ordered by entity id, as the stores return them.
func CompareSegments(stored []domain.SegmentAssignment, replayed *domain.Segmentation) []FieldDivergence {
	var d divergences

	if len(stored) != len(replayed.Features) {
		d.add("segments.len", len(stored), len(replayed.Features))
		return d.list
	}

	for i, s := range stored {
		f := replayed.Features[i]
		prefix := fmt.Sprintf("segments[%s].", s.Features.EntityID)

		if s.Features.EntityID != f.EntityID {
			d.add(fmt.Sprintf("segments[%d].EntityID", i), s.Features.EntityID, f.EntityID)
			continue
		}
		if label := replayed.Assignments[f.EntityID]; s.Segment != label {
			d.add(prefix+"Segment", s.Segment, label)
		}
		if s.Features.Tier != f.Tier {
			d.add(prefix+"Tier", s.Features.Tier, f.Tier)
		}
		if s.Features.RecordCount != f.RecordCount {
			d.add(prefix+"RecordCount", s.Features.RecordCount, f.RecordCount)
		}
		d.compareFloat(prefix+"TotalSales", s.Features.TotalSales, f.TotalSales)
		d.compareFloat(prefix+"TotalRevenue", s.Features.TotalRevenue, f.TotalRevenue)
		d.compareFloat(prefix+"MeanSales", s.Features.MeanSales, f.MeanSales)
		d.compareFloat(prefix+"Volatility", s.Features.Volatility, f.Volatility)
		d.compareFloat(prefix+"MeanPrice", s.Features.MeanPrice, f.MeanPrice)
		d.compareFloat(prefix+"PromotionLift", s.Features.PromotionLift, f.PromotionLift)
	}

	return d.list
}

// ComparePromotion compares a stored promotion effect with a replayed one.
func ComparePromotion(stored, replayed *domain.PromotionEffect) []FieldDivergence {
	var d divergences

	if stored.PromotedCount != replayed.PromotedCount {
		d.add("promotion.PromotedCount", stored.PromotedCount, replayed.PromotedCount)
	}
	if stored.NonPromotedCount != replayed.NonPromotedCount {
		d.add("promotion.NonPromotedCount", stored.NonPromotedCount, replayed.NonPromotedCount)
	}
	d.compareFloat("promotion.MeanSalesPromoted", stored.MeanSalesPromoted, replayed.MeanSalesPromoted)
	d.compareFloat("promotion.MeanSalesNonPromoted", stored.MeanSalesNonPromoted, replayed.MeanSalesNonPromoted)
	d.compareFloat("promotion.Delta", stored.Delta, replayed.Delta)
	d.compareOpt("promotion.Lift", stored.Lift, replayed.Lift)
	d.compareFloat("promotion.MeanRevenuePromoted", stored.MeanRevenuePromoted, replayed.MeanRevenuePromoted)
	d.compareFloat("promotion.MeanRevenueNonPromoted", stored.MeanRevenueNonPromoted, replayed.MeanRevenueNonPromoted)
	d.compareOpt("promotion.MeanProfitPromoted", stored.MeanProfitPromoted, replayed.MeanProfitPromoted)
	d.compareOpt("promotion.MeanProfitNonPromoted", stored.MeanProfitNonPromoted, replayed.MeanProfitNonPromoted)

	return d.list
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
