package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/observability"
)

// Table formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// OpenOptions configures Open.
type OpenOptions struct {
	Sheet string       // xlsx sheet; first sheet when empty
	Fetch FetchOptions // used for http(s) locations
}

// IsURL reports whether location is an http(s) URL.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DetectFormat picks the table format from the file extension of location.
// Anything other than .xlsx or .xlsm is read as CSV.
func DetectFormat(location string) string {
	p := location
	if IsURL(location) {
		u, _ := url.Parse(location)
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Open reads the table at location, a local path or an http(s) URL.
func Open(ctx context.Context, location string, opts OpenOptions) (*domain.RawTable, error) {
	if location == "" {
		return nil, fmt.Errorf("open dataset: empty location")
	}
	format := DetectFormat(location)

	var (
		table *domain.RawTable
		err   error
	)
	if IsURL(location) {
		var data []byte
		data, err = NewFetcher(opts.Fetch).Fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		table, err = readTable(bytes.NewReader(data), format, opts.Sheet)
	} else {
		table, err = openFile(location, format, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}

	observability.RecordRowsRead(format, len(table.Rows))
	return table, nil
}

func openFile(name, format, sheet string) (*domain.RawTable, error) {
	if format == FormatXLSX {
		if _, err := os.Stat(name); err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		return ReadXLSXFile(name, sheet)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func readTable(r io.Reader, format, sheet string) (*domain.RawTable, error) {
	if format == FormatXLSX {
		return ReadXLSX(r, sheet)
	}
	return ReadCSV(r)
}
