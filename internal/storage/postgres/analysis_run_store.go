package postgres

import (
	"context"
	"fmt"
	"time"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// AnalysisRunStore implements storage.AnalysisRunStore using PostgreSQL.
type AnalysisRunStore struct {
	pool *Pool
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(pool *Pool) *AnalysisRunStore {
	return &AnalysisRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(ctx context.Context, run *domain.AnalysisRun) (err error) {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("analysis_runs.insert", start, err) }()

	query := `
		INSERT INTO analysis_runs (
			run_id, dataset_id, dataset_version, started_at,
			rows_total, rows_kept, entity_count, stage_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	status := run.StageStatus
	if status == nil {
		status = map[string]string{}
	}

	_, err = s.pool.Exec(ctx, query,
		run.RunID, run.DatasetID, run.DatasetVersion, run.StartedAt,
		run.RowsTotal, run.RowsKept, run.EntityCount, status,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

const selectRunColumns = `
	SELECT run_id, dataset_id, dataset_version, started_at,
		rows_total, rows_kept, entity_count, stage_status
	FROM analysis_runs
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	err := row.Scan(
		&run.RunID, &run.DatasetID, &run.DatasetVersion, &run.StartedAt,
		&run.RowsTotal, &run.RowsKept, &run.EntityCount, &run.StageStatus,
	)
	if err != nil {
		return nil, err
	}
	run.StartedAt = run.StartedAt.UTC()
	return &run, nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error) {
	row := s.pool.QueryRow(ctx, selectRunColumns+` WHERE run_id = $1`, runID)
	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis run: %w", err)
	}
	return run, nil
}

// GetByDataset retrieves all runs of a dataset, ordered by started_at ASC.
func (s *AnalysisRunStore) GetByDataset(ctx context.Context, datasetID string) ([]*domain.AnalysisRun, error) {
	rows, err := s.pool.Query(ctx, selectRunColumns+` WHERE dataset_id = $1 ORDER BY started_at ASC, run_id ASC`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query analysis runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis runs: %w", err)
	}
	return result, nil
}
