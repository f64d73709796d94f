package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// SalesRecordStore implements storage.SalesRecordStore using PostgreSQL.
type SalesRecordStore struct {
	pool *Pool
}

// NewSalesRecordStore creates a new SalesRecordStore.
func NewSalesRecordStore(pool *Pool) *SalesRecordStore {
	return &SalesRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SalesRecordStore = (*SalesRecordStore)(nil)

var salesRecordColumns = []string{
	"dataset_id", "row_number", "entity_id", "ts", "sales", "price", "promotion", "base_price",
}

// InsertBulk adds all rows of a dataset atomically using COPY.
// Fails entire batch on any duplicate (dataset_id, row_number).
func (s *SalesRecordStore) InsertBulk(ctx context.Context, datasetID string, records []domain.RawRecord) (err error) {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("sales_records.insert_bulk", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"sales_records"},
		salesRecordColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				datasetID, r.RowNumber, r.EntityID, r.Timestamp,
				r.Sales, r.Price, r.Promotion, r.BasePrice,
			}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy sales records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByDataset retrieves all rows of a dataset ordered by row_number ASC.
// Returns ErrNotFound if the dataset has no rows.
func (s *SalesRecordStore) GetByDataset(ctx context.Context, datasetID string) (result []domain.RawRecord, err error) {
	start := time.Now()
	defer func() { observe("sales_records.get_by_dataset", start, err) }()

	query := `
		SELECT row_number, entity_id, ts, sales, price, promotion, base_price
		FROM sales_records
		WHERE dataset_id = $1
		ORDER BY row_number ASC
	`

	rows, err := s.pool.Query(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.RawRecord
		if err := rows.Scan(&r.RowNumber, &r.EntityID, &r.Timestamp, &r.Sales, &r.Price, &r.Promotion, &r.BasePrice); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales records: %w", err)
	}

	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

// ListDatasets returns all dataset ids, sorted ASC.
func (s *SalesRecordStore) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT dataset_id FROM sales_records ORDER BY dataset_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect datasets: %w", err)
	}
	return ids, nil
}
