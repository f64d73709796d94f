// Package ingestion reads sales datasets from files, URLs and the raw record
// store, and loads them into storage.
package ingestion

import (
	"context"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/normalization"
	"retail-sales-lab/internal/storage"
)

// RecordSource provides raw sales records from an external dataset.
type RecordSource interface {
	// Fetch returns all records of the dataset.
	// Records may be unordered; consumers sort by row number.
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// TableSource reads a CSV or XLSX dataset from a local path or http(s) URL
// and maps its columns onto records.
type TableSource struct {
	location string
	columns  normalization.ColumnMapping
	opts     OpenOptions
}

// NewTableSource creates a source for the dataset at location.
func NewTableSource(location string, columns normalization.ColumnMapping, opts OpenOptions) *TableSource {
	return &TableSource{location: location, columns: columns, opts: opts}
}

// Fetch reads the table and extracts records.
// Returns *domain.DataFormatError for unreadable tables or missing columns.
func (s *TableSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	table, err := Open(ctx, s.location, s.opts)
	if err != nil {
		return nil, err
	}
	return normalization.ExtractRecords(table, s.columns)
}

// StoreSource reads a dataset previously stored by the ingest command.
type StoreSource struct {
	store     storage.SalesRecordStore
	datasetID string
}

// NewStoreSource creates a source for datasetID.
func NewStoreSource(store storage.SalesRecordStore, datasetID string) *StoreSource {
	return &StoreSource{store: store, datasetID: datasetID}
}

// Fetch returns the stored rows. Returns storage.ErrNotFound for unknown datasets.
func (s *StoreSource) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	return s.store.GetByDataset(ctx, s.datasetID)
}
