package memory

import (
	"context"
	"sort"
	"sync"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// AnalysisRunStore is an in-memory implementation of storage.AnalysisRunStore.
type AnalysisRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AnalysisRun // keyed by run_id
}

// NewAnalysisRunStore creates a new in-memory analysis run store.
func NewAnalysisRunStore() *AnalysisRunStore {
	return &AnalysisRunStore{
		data: make(map[string]*domain.AnalysisRun),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(_ context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.RunID] = copyRun(run)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(_ context.Context, runID string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(run), nil
}

// GetByDataset retrieves all runs of a dataset, ordered by started_at ASC.
func (s *AnalysisRunStore) GetByDataset(_ context.Context, datasetID string) ([]*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisRun
	for _, run := range s.data {
		if run.DatasetID == datasetID {
			result = append(result, copyRun(run))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.Before(result[j].StartedAt)
		}
		return result[i].RunID < result[j].RunID
	})
	return result, nil
}

func copyRun(run *domain.AnalysisRun) *domain.AnalysisRun {
	c := *run
	if run.StageStatus != nil {
		c.StageStatus = make(map[string]string, len(run.StageStatus))
		for k, v := range run.StageStatus {
			c.StageStatus[k] = v
		}
	}
	return &c
}

var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)
