package reporting

import (
	"time"

	"retail-sales-lab/internal/domain"
)

// Report is the assembled analysis output rendered by all writers.
// Unavailable stages carry their reason and are rendered explicitly.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Source      string
	Granularity domain.Granularity
	Run         domain.AnalysisRun

	// Dataset
	Overview domain.Overview
	Cleaning domain.CleanStats

	// Data Quality (sufficiency checks)
	DataQuality DataQualitySection

	// Stages
	Trend     domain.StageResult[[]domain.TrendPoint]
	Segments  domain.StageResult[*domain.Segmentation]
	Promotion domain.StageResult[*domain.PromotionEffect]

	Insights        KeyInsights
	Reproducibility ReproducibilityMetadata
}

// DataQualitySection contains data sufficiency checks and integrity warnings.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// ReproducibilityMetadata identifies the inputs of a report.
type ReproducibilityMetadata struct {
	ReportTimestamp  time.Time
	GeneratorVersion string
	DatasetVersion   string
	ReplayCommand    string
}

// SegmentRevenue ranks a segment by total revenue.
type SegmentRevenue struct {
	Label   domain.SegmentLabel
	Members int
	Revenue float64
}
