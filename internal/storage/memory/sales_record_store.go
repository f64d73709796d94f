package memory

import (
	"context"
	"sort"
	"sync"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// SalesRecordStore is an in-memory implementation of storage.SalesRecordStore.
type SalesRecordStore struct {
	mu   sync.RWMutex
	data map[string]map[int]domain.RawRecord // dataset_id -> row_number -> record
}

// NewSalesRecordStore creates a new in-memory sales record store.
func NewSalesRecordStore() *SalesRecordStore {
	return &SalesRecordStore{
		data: make(map[string]map[int]domain.RawRecord),
	}
}

// InsertBulk adds all rows of a dataset atomically. Fails entire batch on any duplicate.
func (s *SalesRecordStore) InsertBulk(_ context.Context, datasetID string, records []domain.RawRecord) error {
	if datasetID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[datasetID]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[int]struct{}, len(records))
	for _, r := range records {
		if r.RowNumber <= 0 {
			return storage.ErrInvalidInput
		}
		if _, exists := existing[r.RowNumber]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.RowNumber]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.RowNumber] = struct{}{}
	}

	// Second pass: insert all
	if existing == nil {
		existing = make(map[int]domain.RawRecord, len(records))
		s.data[datasetID] = existing
	}
	for _, r := range records {
		existing[r.RowNumber] = r
	}

	return nil
}

// GetByDataset retrieves all rows of a dataset ordered by row_number ASC.
func (s *SalesRecordStore) GetByDataset(_ context.Context, datasetID string) ([]domain.RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, exists := s.data[datasetID]
	if !exists || len(rows) == 0 {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.RawRecord, 0, len(rows))
	for _, r := range rows {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RowNumber < result[j].RowNumber
	})
	return result, nil
}

// ListDatasets returns all dataset ids, sorted ASC.
func (s *SalesRecordStore) ListDatasets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ storage.SalesRecordStore = (*SalesRecordStore)(nil)
