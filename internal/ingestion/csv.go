package ingestion

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"retail-sales-lab/internal/domain"
)

// utf8BOM prefixes the header of spreadsheet-exported CSV files.
const utf8BOM = "\ufeff"

// ReadCSV parses a CSV table with a header row.
// All cells are kept as text; type checks happen in normalization.
// Returns *domain.DataFormatError for malformed or header-only input.
func ReadCSV(r io.Reader) (*domain.RawTable, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, &domain.DataFormatError{Reason: fmt.Sprintf("parse csv: %v", df.Err)}
	}

	records := df.Records()
	if len(records) < 2 {
		return nil, &domain.DataFormatError{Reason: "dataset has no data rows"}
	}

	return newRawTable(records[0], records[1:]), nil
}

// newRawTable builds a table, trimming a byte order mark from the header.
func newRawTable(header []string, rows [][]string) *domain.RawTable {
	h := make([]string, len(header))
	copy(h, header)
	if len(h) > 0 {
		h[0] = strings.TrimPrefix(h[0], utf8BOM)
	}
	return &domain.RawTable{Header: h, Rows: rows}
}
