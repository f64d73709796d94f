package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/metrics"
	"retail-sales-lab/internal/segmentation"
)

var (
	week1       = time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC)
	week2       = time.Date(2011, 1, 12, 0, 0, 0, 0, time.UTC)
	generatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func rec(entity string, ts time.Time, sales, price, base float64, promo bool) domain.CanonicalRecord {
	return domain.CanonicalRecord{
		EntityID: entity, Timestamp: ts, Sales: sales, Price: price,
		Promotion: promo, BasePrice: base, HasBasePrice: true,
	}
}

func scenarioRecords() []domain.CanonicalRecord {
	return []domain.CanonicalRecord{
		rec("A", week1, 100, 10, 8, false),
		rec("A", week2, 150, 10, 8, true),
		rec("B", week1, 50, 8, 7, false),
		rec("B", week2, 40, 8, 7, false),
	}
}

// scenarioReport builds a complete report from the two-store scenario.
func scenarioReport(t *testing.T) *Report {
	t.Helper()
	records := scenarioRecords()

	seg, err := segmentation.NewSegmenter(segmentation.DefaultConfig())
	require.NoError(t, err)
	segments, err := seg.Segment(records)
	require.NoError(t, err)

	promo, err := metrics.EvaluatePromotion(records)
	require.NoError(t, err)

	r := &Report{
		GeneratedAt: generatedAt,
		Source:      "sales.csv",
		Granularity: domain.GranularityWeek,
		Run:         domain.AnalysisRun{RunID: "run-1", DatasetID: "ds-1", DatasetVersion: "v1"},
		Overview:    metrics.Summarize(records, domain.GranularityWeek),
		Cleaning:    domain.CleanStats{TotalRows: 5, KeptRows: 4, DroppedDuplicates: 1},
		DataQuality: DataQualitySection{
			SufficiencyChecks: []SufficiencyCheckRow{{Name: "Distinct entities", Threshold: ">= 2", Actual: "2", Pass: true}},
			IntegrityErrors:   []string{"1 duplicate (entity, timestamp) rows dropped"},
			AllChecksPassed:   true,
		},
		Trend:     domain.Ok(metrics.ComputeTrend(records, domain.GranularityWeek)),
		Segments:  domain.Ok(segments),
		Promotion: domain.Ok(promo),
		Reproducibility: ReproducibilityMetadata{
			ReportTimestamp:  generatedAt,
			GeneratorVersion: "test",
			DatasetVersion:   "v1",
			ReplayCommand:    "report --input sales.csv",
		},
	}
	r.Insights = ComputeInsights(r.Segments, r.Promotion, 3)
	return r
}

// unavailableReport has every stage unavailable.
func unavailableReport(t *testing.T) *Report {
	t.Helper()
	r := scenarioReport(t)
	r.Trend = domain.Unavailable[[]domain.TrendPoint](&domain.InsufficientDataError{
		Stage: domain.StageTrend, Reason: "no records", Required: 1,
	})
	r.Segments = domain.Unavailable[*domain.Segmentation](&domain.InsufficientDataError{
		Stage: domain.StageSegments, Reason: "too few distinct entities", Required: 2, Actual: 1,
	})
	r.Promotion = domain.Unavailable[*domain.PromotionEffect](&domain.InsufficientDataError{
		Stage: domain.StagePromotion, Reason: "no promoted records", Required: 1,
	})
	r.Insights = ComputeInsights(r.Segments, r.Promotion, 3)
	return r
}
