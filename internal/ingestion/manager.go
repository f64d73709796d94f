package ingestion

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"retail-sales-lab/internal/storage"
)

// Manager loads a dataset from a source into the raw record store.
// It enforces source ordering and uses the storage layer for duplicate rejection.
type Manager struct {
	source RecordSource
	store  storage.SalesRecordStore
	logger zerolog.Logger
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Source RecordSource
	Store  storage.SalesRecordStore
	Logger *zerolog.Logger
}

// NewManager creates a new ingestion manager with the provided source and store.
func NewManager(opts ManagerOptions) *Manager {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Manager{
		source: opts.Source,
		store:  opts.Store,
		logger: logger,
	}
}

// Ingest fetches all records and stores them under datasetID.
// Returns count of stored records.
// A dataset that was already ingested is rejected with storage.ErrDuplicateKey.
func (m *Manager) Ingest(ctx context.Context, datasetID string) (int, error) {
	if m.source == nil || m.store == nil {
		return 0, nil
	}
	if datasetID == "" {
		return 0, storage.ErrInvalidInput
	}

	records, err := m.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch dataset: %w", err)
	}

	if len(records) == 0 {
		m.logger.Warn().Str("dataset_id", datasetID).Msg("dataset has no rows, nothing stored")
		return 0, nil
	}

	// Enforce source ordering
	SortRawRecords(records)

	// Store via bulk insert - storage layer handles duplicates
	if err := m.store.InsertBulk(ctx, datasetID, records); err != nil {
		return 0, fmt.Errorf("store dataset %s: %w", datasetID, err)
	}

	m.logger.Info().
		Str("dataset_id", datasetID).
		Int("rows", len(records)).
		Msg("dataset ingested")

	return len(records), nil
}
