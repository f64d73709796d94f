package domain

import "time"

// Stage names used in errors, metrics and stored run metadata.
const (
	StageTrend     = "trend"
	StageSegments  = "segmentation"
	StagePromotion = "promotion"
)

// Stage status values.
const (
	StageStatusOK          = "ok"
	StageStatusUnavailable = "unavailable"
)

// AnalysisRun is the metadata of one pipeline invocation.
type AnalysisRun struct {
	RunID          string
	DatasetID      string
	DatasetVersion string // fingerprint of the canonical records
	StartedAt      time.Time
	RowsTotal      int
	RowsKept       int
	EntityCount    int
	StageStatus    map[string]string // stage -> ok | unavailable
}

// SegmentAssignment is a stored (entity, segment) row of a run.
type SegmentAssignment struct {
	RunID    string
	Features EntityFeatures
	Segment  SegmentLabel
}
