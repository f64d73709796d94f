package memory

import (
	"context"
	"sort"
	"sync"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/storage"
)

// TrendStore is an in-memory implementation of storage.TrendStore.
type TrendStore struct {
	mu   sync.RWMutex
	data map[string][]domain.TrendPoint // keyed by run_id
}

// NewTrendStore creates a new in-memory trend store.
func NewTrendStore() *TrendStore {
	return &TrendStore{data: make(map[string][]domain.TrendPoint)}
}

// InsertBulk adds the trend series of a run. Returns ErrDuplicateKey if the run has points.
func (s *TrendStore) InsertBulk(_ context.Context, runID string, points []domain.TrendPoint) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]domain.TrendPoint, len(points))
	copy(stored, points)
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Bucket.Before(stored[j].Bucket)
	})
	s.data[runID] = stored
	return nil
}

// GetByRun retrieves the series of a run, ordered by bucket ASC.
func (s *TrendStore) GetByRun(_ context.Context, runID string) ([]domain.TrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[runID]
	result := make([]domain.TrendPoint, len(points))
	copy(result, points)
	return result, nil
}

// SegmentStore is an in-memory implementation of storage.SegmentStore.
type SegmentStore struct {
	mu   sync.RWMutex
	data map[string][]domain.SegmentAssignment // keyed by run_id
}

// NewSegmentStore creates a new in-memory segment store.
func NewSegmentStore() *SegmentStore {
	return &SegmentStore{data: make(map[string][]domain.SegmentAssignment)}
}

// InsertBulk adds the assignments of a run. Fails entire batch on any duplicate entity.
func (s *SegmentStore) InsertBulk(_ context.Context, runID string, assignments []domain.SegmentAssignment) error {
	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(assignments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}

	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if a.Features.EntityID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[a.Features.EntityID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[a.Features.EntityID] = struct{}{}
	}

	stored := make([]domain.SegmentAssignment, len(assignments))
	for i, a := range assignments {
		a.RunID = runID
		stored[i] = a
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Features.EntityID < stored[j].Features.EntityID
	})
	s.data[runID] = stored
	return nil
}

// GetByRun retrieves the assignments of a run, ordered by entity_id ASC.
func (s *SegmentStore) GetByRun(_ context.Context, runID string) ([]domain.SegmentAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[runID]
	result := make([]domain.SegmentAssignment, len(rows))
	copy(result, rows)
	return result, nil
}

// PromotionStore is an in-memory implementation of storage.PromotionStore.
type PromotionStore struct {
	mu   sync.RWMutex
	data map[string]domain.PromotionEffect // keyed by run_id
}

// NewPromotionStore creates a new in-memory promotion store.
func NewPromotionStore() *PromotionStore {
	return &PromotionStore{data: make(map[string]domain.PromotionEffect)}
}

// Insert adds the promotion effect of a run. Returns ErrDuplicateKey if exists.
func (s *PromotionStore) Insert(_ context.Context, runID string, effect *domain.PromotionEffect) error {
	if runID == "" || effect == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[runID] = *effect
	return nil
}

// GetByRun retrieves the effect of a run. Returns ErrNotFound if not exists.
func (s *PromotionStore) GetByRun(_ context.Context, runID string) (*domain.PromotionEffect, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	effect, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &effect, nil
}

var (
	_ storage.TrendStore     = (*TrendStore)(nil)
	_ storage.SegmentStore   = (*SegmentStore)(nil)
	_ storage.PromotionStore = (*PromotionStore)(nil)
)
