package clickhouse

import (
	"context"
	"fmt"
	"time"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// PromotionStore implements storage.PromotionStore using ClickHouse.
type PromotionStore struct {
	conn *Conn
}

// NewPromotionStore creates a new PromotionStore.
func NewPromotionStore(conn *Conn) *PromotionStore {
	return &PromotionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PromotionStore = (*PromotionStore)(nil)

// Insert adds the promotion effect of a run. Returns ErrDuplicateKey if exists.
// Undefined lift and profit are stored as NULL.
func (s *PromotionStore) Insert(ctx context.Context, runID string, e *domain.PromotionEffect) (err error) {
	if runID == "" || e == nil {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("promotion_effects.insert", start, err) }()

	exists, err := runExists(ctx, s.conn, "promotion_effects", runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO promotion_effects (
			run_id, promoted_count, non_promoted_count,
			mean_sales_promoted, mean_sales_non_promoted, delta, lift,
			mean_revenue_promoted, mean_revenue_non_promoted,
			mean_profit_promoted, mean_profit_non_promoted
		) VALUES (
			?, ?, ?,
			?, ?, ?, ?,
			?, ?,
			?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		runID, int64(e.PromotedCount), int64(e.NonPromotedCount),
		e.MeanSalesPromoted, e.MeanSalesNonPromoted, e.Delta, e.Lift.Ptr(),
		e.MeanRevenuePromoted, e.MeanRevenueNonPromoted,
		e.MeanProfitPromoted.Ptr(), e.MeanProfitNonPromoted.Ptr(),
	)
	if err != nil {
		return fmt.Errorf("insert promotion effect: %w", err)
	}
	return nil
}

// GetByRun retrieves the effect of a run. Returns ErrNotFound if not exists.
func (s *PromotionStore) GetByRun(ctx context.Context, runID string) (*domain.PromotionEffect, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT promoted_count, non_promoted_count,
			mean_sales_promoted, mean_sales_non_promoted, delta, lift,
			mean_revenue_promoted, mean_revenue_non_promoted,
			mean_profit_promoted, mean_profit_non_promoted
		FROM promotion_effects
		WHERE run_id = ?
		LIMIT 1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query promotion effect: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate promotion effect: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	var (
		e                              domain.PromotionEffect
		promoted, nonPromoted          int64
		lift, profitPromo, profitOther *float64
	)
	err = rows.Scan(
		&promoted, &nonPromoted,
		&e.MeanSalesPromoted, &e.MeanSalesNonPromoted, &e.Delta, &lift,
		&e.MeanRevenuePromoted, &e.MeanRevenueNonPromoted,
		&profitPromo, &profitOther,
	)
	if err != nil {
		return nil, fmt.Errorf("scan promotion effect: %w", err)
	}

	e.PromotedCount = int(promoted)
	e.NonPromotedCount = int(nonPromoted)
	e.Lift = domain.FromPtr(lift)
	e.MeanProfitPromoted = domain.FromPtr(profitPromo)
	e.MeanProfitNonPromoted = domain.FromPtr(profitOther)
	return &e, nil
}
