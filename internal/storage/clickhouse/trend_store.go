package clickhouse

import (
	"context"
	"fmt"
	"time"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// TrendStore implements storage.TrendStore using ClickHouse.
type TrendStore struct {
	conn *Conn
}

// NewTrendStore creates a new TrendStore.
func NewTrendStore(conn *Conn) *TrendStore {
	return &TrendStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TrendStore = (*TrendStore)(nil)

// InsertBulk adds the trend series of a run. Returns ErrDuplicateKey if the run has points.
func (s *TrendStore) InsertBulk(ctx context.Context, runID string, points []domain.TrendPoint) (err error) {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("trend_points.insert_bulk", start, err) }()

	exists, err := runExists(ctx, s.conn, "trend_points", runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trend_points (
			run_id, bucket, total_sales, mean_price, promotion_rate, record_count, total_revenue
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			runID, p.Bucket.UTC(), p.TotalSales, p.MeanPrice, p.PromotionRate,
			int64(p.RecordCount), p.TotalRevenue,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves the series of a run, ordered by bucket ASC.
func (s *TrendStore) GetByRun(ctx context.Context, runID string) ([]domain.TrendPoint, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT bucket, total_sales, mean_price, promotion_rate, record_count, total_revenue
		FROM trend_points
		WHERE run_id = ?
		ORDER BY bucket ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trend points: %w", err)
	}
	defer rows.Close()

	var result []domain.TrendPoint
	for rows.Next() {
		var (
			p     domain.TrendPoint
			count int64
		)
		if err := rows.Scan(&p.Bucket, &p.TotalSales, &p.MeanPrice, &p.PromotionRate, &count, &p.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		p.Bucket = p.Bucket.UTC()
		p.RecordCount = int(count)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend points: %w", err)
	}
	return result, nil
}
