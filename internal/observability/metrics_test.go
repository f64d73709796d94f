package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStage(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.StageRunsTotal.WithLabelValues("trend", "ok"))
	RecordStage("trend", "ok", 10*time.Millisecond)
	after := testutil.ToFloat64(DefaultMetrics.StageRunsTotal.WithLabelValues("trend", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordRowsDropped_IgnoresZero(t *testing.T) {
	m := DefaultMetrics.RowsDropped.WithLabelValues("test_reason")
	before := testutil.ToFloat64(m)
	RecordRowsDropped("test_reason", 0)
	assert.Equal(t, before, testutil.ToFloat64(m))
	RecordRowsDropped("test_reason", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(m))
}

func TestNewMetrics_IsolatedRegistries(t *testing.T) {
	a := NewMetrics("a")
	b := NewMetrics("a")
	a.ReportsGenerated.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ReportsGenerated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ReportsGenerated))
}

func TestPush(t *testing.T) {
	var (
		mu     sync.Mutex
		path   string
		method string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, method, body = r.URL.Path, r.Method, string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics("push_test")
	m.EntitiesAnalyzed.Set(42)

	err := m.Push(context.Background(), srv.URL, "sales_report", map[string]string{"dataset": "d1"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/sales_report/dataset/d1", path)
	assert.Contains(t, body, "push_test_pipeline_entities_analyzed")
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics("push_err").Push(context.Background(), srv.URL, "job", nil)
	assert.Error(t, err)
}
