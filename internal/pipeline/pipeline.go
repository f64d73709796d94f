// Package pipeline runs the sales analysis end to end: load, clean, analyze,
// report and persist.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/idhash"
	"retail-sales-lab/internal/ingestion"
	"retail-sales-lab/internal/normalization"
	"retail-sales-lab/internal/observability"
	"retail-sales-lab/internal/reporting"
	"retail-sales-lab/internal/segmentation"
	"retail-sales-lab/internal/storage"
)

// GeneratorVersion is recorded in report reproducibility metadata.
const GeneratorVersion = "1.0.0"

// Pipeline run status values for metrics.
const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Options configures a Pipeline.
type Options struct {
	Granularity   domain.Granularity
	Segmentation  segmentation.Config
	TopSegments   int    // ranked segments in key insights
	SourceName    string // dataset location shown in reports
	DatasetID     string // derived from SourceName when empty
	ReplayCommand string // derived from SourceName when empty
}

// Stores receives the results of a run. Nil stores are skipped.
type Stores struct {
	Runs       storage.AnalysisRunStore
	Trends     storage.TrendStore
	Segments   storage.SegmentStore
	Promotions storage.PromotionStore
}

// Result is the outcome of one pipeline run.
type Result struct {
	Run         domain.AnalysisRun
	Records     []domain.CanonicalRecord
	Analysis    *Analysis
	Sufficiency *SufficiencyResult
	Report      *reporting.Report
	Files       []string // written artifacts, empty without a writer
}

// Pipeline orchestrates loading, analysis, report generation and persistence.
type Pipeline struct {
	source      ingestion.RecordSource
	cleaner     *normalization.Cleaner
	analyzer    *Analyzer
	sufficiency *SufficiencyChecker
	writer      *reporting.Writer // optional
	stores      Stores
	opts        Options
	clock       func() time.Time
	newRunID    func() string
	logger      zerolog.Logger
}

// NewPipeline creates a pipeline reading from source.
// Returns an error if the segmentation rules are invalid.
func NewPipeline(source ingestion.RecordSource, opts Options) (*Pipeline, error) {
	if !opts.Granularity.IsValid() {
		opts.Granularity = domain.GranularityWeek
	}
	segmenter, err := segmentation.NewSegmenter(opts.Segmentation)
	if err != nil {
		return nil, err
	}
	if opts.DatasetID == "" {
		opts.DatasetID = idhash.ComputeDatasetID(opts.SourceName)
	}
	if opts.ReplayCommand == "" {
		opts.ReplayCommand = fmt.Sprintf("go run ./cmd/report --input %q --granularity %s", opts.SourceName, opts.Granularity)
	}

	return &Pipeline{
		source:      source,
		cleaner:     normalization.NewCleaner(),
		analyzer:    NewAnalyzer(opts.Granularity, segmenter),
		sufficiency: NewSufficiencyChecker(segmenter.MinEntities()),
		opts:        opts,
		clock:       func() time.Time { return time.Now().UTC() },
		newRunID:    idhash.NewRunID,
		logger:      zerolog.Nop(),
	}, nil
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// WithRunID sets the run id generator.
func (p *Pipeline) WithRunID(newRunID func() string) *Pipeline {
	p.newRunID = newRunID
	return p
}

// WithLogger sets the logger for the pipeline and its stages.
func (p *Pipeline) WithLogger(logger zerolog.Logger) *Pipeline {
	p.logger = logger
	p.cleaner.WithLogger(logger)
	p.analyzer.WithLogger(logger)
	return p
}

// WithWriter enables writing report artifacts.
func (p *Pipeline) WithWriter(w *reporting.Writer) *Pipeline {
	p.writer = w
	return p
}

// WithStores enables persisting run metadata and stage results.
func (p *Pipeline) WithStores(stores Stores) *Pipeline {
	p.stores = stores
	return p
}

// Run executes the full pipeline:
//   - load and clean records (a *domain.DataFormatError aborts the run)
//   - trend, segmentation and promotion stages, each isolated
//   - sufficiency checks and report assembly
//   - artifact writing and result persistence when configured
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	started := p.clock()
	timer := time.Now()
	defer func() {
		status := statusSuccess
		if err != nil {
			status = statusFailure
		}
		observability.RecordPipelineRun(status, time.Since(timer))
	}()

	// 1. Load
	raw, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	// 2. Clean
	records, stats, err := p.cleaner.Clean(raw)
	recordDropped(stats)
	if err != nil {
		return nil, err
	}

	// 3. Analyze
	analysis := p.analyzer.Analyze(records)
	suff := p.sufficiency.Check(records, analysis.Overview, stats)

	run := domain.AnalysisRun{
		RunID:          p.newRunID(),
		DatasetID:      p.opts.DatasetID,
		DatasetVersion: idhash.ComputeDatasetVersion(records),
		StartedAt:      started,
		RowsTotal:      stats.TotalRows,
		RowsKept:       stats.KeptRows,
		EntityCount:    analysis.Overview.EntityCount,
		StageStatus:    analysis.StageStatus(),
	}

	res = &Result{
		Run:         run,
		Records:     records,
		Analysis:    analysis,
		Sufficiency: suff,
		Report:      p.buildReport(run, stats, analysis, suff),
	}
	recordAnalysis(analysis)

	// 4. Write artifacts
	if p.writer != nil {
		files, err := p.writer.WriteAll(res.Report)
		if err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		res.Files = files
		observability.RecordReportGenerated()
	}

	// 5. Persist
	if err := p.persist(ctx, run, analysis); err != nil {
		return res, fmt.Errorf("persist results: %w", err)
	}

	p.logger.Info().
		Str("run_id", run.RunID).
		Str("dataset_id", run.DatasetID).
		Str("dataset_version", idhash.ShortVersion(run.DatasetVersion)).
		Int("records", len(records)).
		Int("entities", run.EntityCount).
		Interface("stages", run.StageStatus).
		Msg("analysis complete")

	return res, nil
}

// buildReport assembles the report from stage outputs.
func (p *Pipeline) buildReport(run domain.AnalysisRun, stats domain.CleanStats, a *Analysis, suff *SufficiencyResult) *reporting.Report {
	return &reporting.Report{
		GeneratedAt: run.StartedAt,
		Source:      p.opts.SourceName,
		Granularity: p.opts.Granularity,
		Run:         run,
		Overview:    a.Overview,
		Cleaning:    stats,
		DataQuality: convertToDataQuality(suff),
		Trend:       a.Trend,
		Segments:    a.Segments,
		Promotion:   a.Promotion,
		Insights:    reporting.ComputeInsights(a.Segments, a.Promotion, p.opts.TopSegments),
		Reproducibility: reporting.ReproducibilityMetadata{
			ReportTimestamp:  run.StartedAt,
			GeneratorVersion: GeneratorVersion,
			DatasetVersion:   run.DatasetVersion,
			ReplayCommand:    p.opts.ReplayCommand,
		},
	}
}

// convertToDataQuality converts SufficiencyResult to reporting.DataQualitySection.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	checks := make([]reporting.SufficiencyCheckRow, len(result.Checks))
	for i, c := range result.Checks {
		checks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return reporting.DataQualitySection{
		SufficiencyChecks: checks,
		IntegrityErrors:   result.Errors,
		AllChecksPassed:   result.AllPass,
	}
}

func recordDropped(stats domain.CleanStats) {
	observability.RecordRowsDropped("non_numeric", stats.DroppedNonNumeric)
	observability.RecordRowsDropped("out_of_range", stats.DroppedOutOfRange)
	observability.RecordRowsDropped("timestamp", stats.DroppedTimestamp)
	observability.RecordRowsDropped("missing_id", stats.DroppedMissingID)
	observability.RecordRowsDropped("duplicate", stats.DroppedDuplicates)
}

func recordAnalysis(a *Analysis) {
	observability.RecordEntities(a.Overview.EntityCount)
	if a.Segments.Available() {
		sizes := make(map[string]int, len(a.Segments.Value.Segments))
		for _, seg := range a.Segments.Value.Segments {
			sizes[string(seg.Label)] = len(seg.Members)
		}
		observability.RecordSegmentSizes(sizes)
	}
	if a.Promotion.Available() && a.Promotion.Value.Lift.Valid {
		observability.RecordPromotionLift(a.Promotion.Value.Lift.Value)
	}
}
