package storage

import (
	"context"

	"retail-sales-lab/internal/domain"
)

// SalesRecordStore provides access to sales_records storage.
// Rows are kept verbatim; cleaning happens when a dataset is analyzed.
type SalesRecordStore interface {
	// InsertBulk adds all rows of a dataset atomically.
	// Returns ErrDuplicateKey if any (dataset_id, row_number) exists.
	InsertBulk(ctx context.Context, datasetID string, records []domain.RawRecord) error

	// GetByDataset retrieves all rows of a dataset ordered by row_number ASC.
	// Returns ErrNotFound if the dataset has no rows.
	GetByDataset(ctx context.Context, datasetID string) ([]domain.RawRecord, error)

	// ListDatasets returns all dataset ids, sorted ASC.
	ListDatasets(ctx context.Context) ([]string, error)
}

// AnalysisRunStore provides access to analysis_runs storage.
type AnalysisRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.AnalysisRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// GetByDataset retrieves all runs of a dataset, ordered by started_at ASC.
	GetByDataset(ctx context.Context, datasetID string) ([]*domain.AnalysisRun, error)
}

// TrendStore provides access to trend_points storage.
type TrendStore interface {
	// InsertBulk adds the trend series of a run. Returns ErrDuplicateKey if the run has points.
	InsertBulk(ctx context.Context, runID string, points []domain.TrendPoint) error

	// GetByRun retrieves the series of a run, ordered by bucket ASC.
	GetByRun(ctx context.Context, runID string) ([]domain.TrendPoint, error)
}

// SegmentStore provides access to segment_assignments storage.
type SegmentStore interface {
	// InsertBulk adds the assignments of a run. Returns ErrDuplicateKey if the run has assignments.
	InsertBulk(ctx context.Context, runID string, assignments []domain.SegmentAssignment) error

	// GetByRun retrieves the assignments of a run, ordered by entity_id ASC.
	GetByRun(ctx context.Context, runID string) ([]domain.SegmentAssignment, error)
}

// PromotionStore provides access to promotion_effects storage.
type PromotionStore interface {
	// Insert adds the promotion effect of a run. Returns ErrDuplicateKey if exists.
	Insert(ctx context.Context, runID string, effect *domain.PromotionEffect) error

	// GetByRun retrieves the effect of a run. Returns ErrNotFound if not exists.
	GetByRun(ctx context.Context, runID string) (*domain.PromotionEffect, error)
}
