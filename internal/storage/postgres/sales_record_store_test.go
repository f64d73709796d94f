package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

func makeRawRecords(n int) []domain.RawRecord {
	records := make([]domain.RawRecord, n)
	for i := range records {
		records[i] = domain.RawRecord{
			RowNumber: i + 1,
			EntityID:  "store-1",
			Timestamp: "20110105",
			Sales:     "12",
			Price:     "3.49",
			Promotion: "0",
		}
	}
	return records
}

func TestSalesRecordStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesRecordStore(pool)
	ctx := context.Background()

	records := makeRawRecords(3)
	records[1].EntityID = "store-2"
	records[2].BasePrice = "3.99"

	require.NoError(t, store.InsertBulk(ctx, "ds-1", records))

	got, err := store.GetByDataset(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, records, got)
}

func TestSalesRecordStore_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesRecordStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "ds-1", makeRawRecords(2)))

	err := store.InsertBulk(ctx, "ds-1", makeRawRecords(3))
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "got %v", err)

	got, err := store.GetByDataset(ctx, "ds-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSalesRecordStore_NotFoundAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSalesRecordStore(pool)
	ctx := context.Background()

	_, err := store.GetByDataset(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, store.InsertBulk(ctx, "ds-b", makeRawRecords(1)))
	require.NoError(t, store.InsertBulk(ctx, "ds-a", makeRawRecords(1)))

	ids, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ds-a", "ds-b"}, ids)
}
