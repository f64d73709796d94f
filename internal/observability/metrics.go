// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry so batch runs can push exactly what they recorded.
type Metrics struct {
	Registry *prometheus.Registry

	// Ingestion metrics
	RowsRead        *prometheus.CounterVec
	RowsDropped     *prometheus.CounterVec
	DownloadRetries prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	StageRunsTotal    *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	EntitiesAnalyzed  prometheus.Gauge
	SegmentSize       *prometheus.GaugeVec
	PromotionLift     prometheus.Gauge
	ReportsGenerated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "retail_sales_lab"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		// Ingestion metrics
		RowsRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_read_total",
			Help:      "Total number of raw rows read by source format",
		}, []string{"format"}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped during cleaning by reason",
		}, []string{"reason"}),
		DownloadRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "download_retries_total",
			Help:      "Total number of dataset download retries",
		}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		StageRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Total number of analysis stage runs by stage and status",
		}, []string{"stage", "status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Analysis stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		EntitiesAnalyzed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "entities_analyzed",
			Help:      "Number of distinct entities in the last run",
		}),
		SegmentSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "segment_size",
			Help:      "Number of entities per segment in the last run",
		}, []string{"segment"}),
		PromotionLift: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "promotion_lift",
			Help:      "Relative promotion lift of the last run",
		}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRowsRead adds rows read from a source format (csv, xlsx, postgres).
func RecordRowsRead(format string, n int) {
	DefaultMetrics.RowsRead.WithLabelValues(format).Add(float64(n))
}

// RecordRowsDropped adds rows dropped by the cleaner for one reason.
func RecordRowsDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	DefaultMetrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordDownloadRetry increments the download retry counter.
func RecordDownloadRetry() {
	DefaultMetrics.DownloadRetries.Inc()
}

// RecordStage records one analysis stage run.
func RecordStage(stage, status string, duration time.Duration) {
	DefaultMetrics.StageRunsTotal.WithLabelValues(stage, status).Inc()
	DefaultMetrics.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(status string, duration time.Duration) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.Observe(duration.Seconds())
	if status == "success" {
		DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()
	}
}

// RecordSegmentSizes sets the per-segment entity gauges.
func RecordSegmentSizes(sizes map[string]int) {
	for segment, n := range sizes {
		DefaultMetrics.SegmentSize.WithLabelValues(segment).Set(float64(n))
	}
}

// RecordEntities sets the entity gauge.
func RecordEntities(n int) {
	DefaultMetrics.EntitiesAnalyzed.Set(float64(n))
}

// RecordPromotionLift sets the lift gauge.
func RecordPromotionLift(lift float64) {
	DefaultMetrics.PromotionLift.Set(lift)
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Push sends all metrics of m to a Prometheus pushgateway under job.
// Grouping labels are added to the push URL.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string, grouping map[string]string) error {
	pusher := push.New(gatewayURL, job).Gatherer(m.Registry)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
