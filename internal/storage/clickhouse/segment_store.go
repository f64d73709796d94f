package clickhouse

import (
	"context"
	"fmt"
	"time"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// SegmentStore implements storage.SegmentStore using ClickHouse.
type SegmentStore struct {
	conn *Conn
}

// NewSegmentStore creates a new SegmentStore.
func NewSegmentStore(conn *Conn) *SegmentStore {
	return &SegmentStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SegmentStore = (*SegmentStore)(nil)

// InsertBulk adds the assignments of a run. Fails entire batch on any duplicate.
func (s *SegmentStore) InsertBulk(ctx context.Context, runID string, assignments []domain.SegmentAssignment) (err error) {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(assignments) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("segment_assignments.insert_bulk", start, err) }()

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if _, exists := seen[a.Features.EntityID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[a.Features.EntityID] = struct{}{}
	}

	exists, err := runExists(ctx, s.conn, "segment_assignments", runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO segment_assignments (
			run_id, entity_id, segment, record_count, total_sales, total_revenue,
			mean_sales, volatility, mean_price, promotion_lift, volume_tier
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range assignments {
		f := a.Features
		err = batch.Append(
			runID, f.EntityID, string(a.Segment), int64(f.RecordCount), f.TotalSales, f.TotalRevenue,
			f.MeanSales, f.Volatility, f.MeanPrice, f.PromotionLift, string(f.Tier),
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

// GetByRun retrieves the assignments of a run, ordered by entity_id ASC.
func (s *SegmentStore) GetByRun(ctx context.Context, runID string) ([]domain.SegmentAssignment, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT entity_id, segment, record_count, total_sales, total_revenue,
			mean_sales, volatility, mean_price, promotion_lift, volume_tier
		FROM segment_assignments
		WHERE run_id = ?
		ORDER BY entity_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query segment assignments: %w", err)
	}
	defer rows.Close()

	var result []domain.SegmentAssignment
	for rows.Next() {
		var (
			a       domain.SegmentAssignment
			segment string
			tier    string
			count   int64
		)
		f := &a.Features
		err := rows.Scan(
			&f.EntityID, &segment, &count, &f.TotalSales, &f.TotalRevenue,
			&f.MeanSales, &f.Volatility, &f.MeanPrice, &f.PromotionLift, &tier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan segment assignment: %w", err)
		}
		a.RunID = runID
		a.Segment = domain.SegmentLabel(segment)
		f.RecordCount = int(count)
		f.Tier = domain.VolumeTier(tier)
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segment assignments: %w", err)
	}
	return result, nil
}
