package ingestion

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"retail-sales-lab/internal/domain"
)

// ReadXLSX parses one sheet of a workbook whose first row is the header.
// An empty sheet name selects the first sheet.
// Returns *domain.DataFormatError for unreadable workbooks, unknown sheets or
// sheets without data rows.
func ReadXLSX(r io.Reader, sheet string) (*domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.DataFormatError{Reason: fmt.Sprintf("open xlsx: %v", err)}
	}
	defer f.Close()

	return readSheet(f, sheet)
}

// ReadXLSXFile is ReadXLSX for a workbook on disk.
func ReadXLSXFile(path, sheet string) (*domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &domain.DataFormatError{Reason: fmt.Sprintf("open xlsx %s: %v", path, err)}
	}
	defer f.Close()

	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (*domain.RawTable, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.DataFormatError{Reason: "workbook has no sheets"}
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !containsSheet(sheets, sheet) {
		return nil, &domain.DataFormatError{Reason: fmt.Sprintf("sheet %q not found", sheet)}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &domain.DataFormatError{Reason: fmt.Sprintf("read sheet %q: %v", sheet, err)}
	}
	if len(rows) < 2 {
		return nil, &domain.DataFormatError{Reason: "dataset has no data rows"}
	}

	// Trailing empty cells are omitted by GetRows; short rows are padded on lookup.
	return newRawTable(rows[0], rows[1:]), nil
}

func containsSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}
