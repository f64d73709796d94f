package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

func TestAnalysisRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisRunStore(pool)
	ctx := context.Background()

	run := &domain.AnalysisRun{
		RunID:          "run-1",
		DatasetID:      "ds-1",
		DatasetVersion: "3xYz",
		StartedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RowsTotal:      100,
		RowsKept:       97,
		EntityCount:    12,
		StageStatus: map[string]string{
			domain.StageTrend:     domain.StageStatusOK,
			domain.StagePromotion: domain.StageStatusUnavailable,
		},
	}
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	err = store.Insert(ctx, run)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))

	_, err = store.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestAnalysisRunStore_GetByDataset(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAnalysisRunStore(pool)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-b", "run-a", "run-c"} {
		require.NoError(t, store.Insert(ctx, &domain.AnalysisRun{
			RunID:          id,
			DatasetID:      "ds-1",
			DatasetVersion: "v",
			StartedAt:      base.Add(time.Duration(2-i) * time.Hour),
		}))
	}

	runs, err := store.GetByDataset(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, "run-a", runs[1].RunID)
	assert.Equal(t, "run-b", runs[2].RunID)
	assert.Empty(t, runs[0].StageStatus)
}
