package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/normalization"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"data/sales.csv", FormatCSV},
		{"data/sales.XLSX", FormatXLSX},
		{"report.xlsm", FormatXLSX},
		{"https://example.com/files/sales.xlsx?dl=1", FormatXLSX},
		{"https://example.com/download?id=42", FormatCSV},
		{"noext", FormatCSV},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.location), tt.location)
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.csv"))
	assert.True(t, IsURL("http://localhost:8080/a.csv"))
	assert.False(t, IsURL("/tmp/a.csv"))
	assert.False(t, IsURL("file:///tmp/a.csv"))
	assert.False(t, IsURL("C:\\data\\a.csv"))
}

func TestOpen_LocalFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))
	xlsxPath := writeWorkbook(t, dir)

	ctx := context.Background()

	table, err := Open(ctx, csvPath, OpenOptions{})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 4)

	table, err = Open(ctx, xlsxPath, OpenOptions{Sheet: "Sales"})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)

	_, err = Open(ctx, filepath.Join(dir, "missing.csv"), OpenOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(ctx, "", OpenOptions{})
	assert.Error(t, err)
}

func TestOpen_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	table, err := Open(context.Background(), srv.URL+"/sales.csv", OpenOptions{
		Fetch: FetchOptions{Timeout: time.Second, InitialInterval: time.Millisecond},
	})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 4)
}

func TestTableSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	src := NewTableSource(path, normalization.DefaultColumns(), OpenOptions{})
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, domain.RawRecord{
		RowNumber: 2, EntityID: "A", Timestamp: "20110112",
		Sales: "150", Price: "10", Promotion: "1", BasePrice: "8",
	}, records[1])
}

func TestTableSource_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("store,week\nA,20110105\n"), 0o644))

	_, err := NewTableSource(path, normalization.DefaultColumns(), OpenOptions{}).Fetch(context.Background())

	var formatErr *domain.DataFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.ElementsMatch(t, []string{"units", "price", "featured"}, formatErr.MissingColumns)
}
