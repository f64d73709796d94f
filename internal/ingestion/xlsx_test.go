package ingestion

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retail-sales-lab/internal/domain"
)

// writeWorkbook creates a workbook with the sales sheet plus a notes sheet.
func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	rows := [][]interface{}{
		{"store", "week", "units", "price", "featured"},
		{"A", "20110105", 100, 10, 0},
		{"B", "20110105", 50, 8, 0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	_, err = f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "source: public dataset"))

	path := filepath.Join(dir, "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSXFile_FirstSheetByDefault(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())

	table, err := ReadXLSXFile(path, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"store", "week", "units", "price", "featured"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"A", "20110105", "100", "10", "0"}, table.Rows[0])
}

func TestReadXLSX_FromReader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"store", "week"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"A", "20110105"}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	table, err := ReadXLSX(&buf, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "20110105"}}, table.Rows)
}

func TestReadXLSX_Errors(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())

	_, err := ReadXLSXFile(path, "Missing")
	assert.ErrorIs(t, err, domain.ErrDataFormat)

	_, err = ReadXLSXFile(path, "Notes")
	assert.ErrorIs(t, err, domain.ErrDataFormat, "header-only sheet")

	_, err = ReadXLSX(bytes.NewReader([]byte("not a workbook")), "")
	assert.ErrorIs(t, err, domain.ErrDataFormat)
}
