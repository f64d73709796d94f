package normalization

import (
	"strings"

	"retail-sales-lab/internal/domain"
)

// ColumnMapping names the source columns holding each record field.
// Matching is case-insensitive and ignores surrounding whitespace.
type ColumnMapping struct {
	Entity    string
	Timestamp string
	Sales     string
	Price     string
	Promotion string
	BasePrice string // optional; empty disables profit metrics
}

// DefaultColumns matches the public retail price/promotion dataset layout.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		Entity:    "store",
		Timestamp: "week",
		Sales:     "units",
		Price:     "price",
		Promotion: "featured",
		BasePrice: "base_price",
	}
}

// ExtractRecords maps table rows onto RawRecords.
// Returns *domain.DataFormatError if a required column is absent.
// A missing optional base price column is not an error.
func ExtractRecords(table *domain.RawTable, cols ColumnMapping) ([]domain.RawRecord, error) {
	if table == nil {
		return nil, &domain.DataFormatError{Reason: "no table"}
	}

	index := make(map[string]int, len(table.Header))
	for i, name := range table.Header {
		key := normalizeColumn(name)
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	required := []string{cols.Entity, cols.Timestamp, cols.Sales, cols.Price, cols.Promotion}
	var missing []string
	for _, name := range required {
		if _, ok := index[normalizeColumn(name)]; !ok || name == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.DataFormatError{MissingColumns: missing, Rows: len(table.Rows)}
	}

	basePriceIdx := -1
	if cols.BasePrice != "" {
		if i, ok := index[normalizeColumn(cols.BasePrice)]; ok {
			basePriceIdx = i
		}
	}

	entityIdx := index[normalizeColumn(cols.Entity)]
	tsIdx := index[normalizeColumn(cols.Timestamp)]
	salesIdx := index[normalizeColumn(cols.Sales)]
	priceIdx := index[normalizeColumn(cols.Price)]
	promoIdx := index[normalizeColumn(cols.Promotion)]

	records := make([]domain.RawRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		records = append(records, domain.RawRecord{
			RowNumber: i + 1,
			EntityID:  cell(row, entityIdx),
			Timestamp: cell(row, tsIdx),
			Sales:     cell(row, salesIdx),
			Price:     cell(row, priceIdx),
			Promotion: cell(row, promoIdx),
			BasePrice: cell(row, basePriceIdx),
		})
	}
	return records, nil
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// cell returns the trimmed cell or "" for short rows and idx < 0.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
