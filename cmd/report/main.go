// Command report runs the sales analysis pipeline over one dataset and writes
// the report artifacts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"retail-sales-lab/internal/config"
	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/ingestion"
	"retail-sales-lab/internal/observability"
	"retail-sales-lab/internal/pipeline"
	"retail-sales-lab/internal/publish"
	"retail-sales-lab/internal/reporting"
	chstore "retail-sales-lab/internal/storage/clickhouse"
	"retail-sales-lab/internal/storage/migrations"
	pgstore "retail-sales-lab/internal/storage/postgres"
	"retail-sales-lab/internal/verification"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "Env file loaded before SALES_* overrides")
	input := flag.String("input", "", "Dataset path or http(s) URL (csv, xlsx)")
	sheet := flag.String("sheet", "", "XLSX sheet name (first sheet when empty)")
	datasetID := flag.String("dataset-id", "", "Analyze a dataset stored by the ingest command")
	outputDir := flag.String("output-dir", "", "Output directory for generated files")
	granularity := flag.String("granularity", "", "Trend bucket: raw, day, week or month")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (stored datasets, run metadata)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (analysis results)")
	pushgateway := flag.String("pushgateway", "", "Prometheus pushgateway URL")
	noCharts := flag.Bool("no-charts", false, "Skip PNG charts")
	upload := flag.Bool("publish", false, "Upload artifacts to the configured S3 bucket")
	verifyRun := flag.String("verify-run", "", "Replay a stored run against its dataset instead of reporting")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override config values
	overrideString(&cfg.Input.Path, *input)
	overrideString(&cfg.Input.Sheet, *sheet)
	overrideString(&cfg.Input.DatasetID, *datasetID)
	overrideString(&cfg.Output.Dir, *outputDir)
	overrideString(&cfg.Trend.Granularity, *granularity)
	overrideString(&cfg.Storage.PostgresDSN, *postgresDSN)
	overrideString(&cfg.Storage.ClickHouseDSN, *clickhouseDSN)
	overrideString(&cfg.Metrics.PushgatewayURL, *pushgateway)
	if *noCharts {
		cfg.Output.Charts = false
	}
	if *upload {
		cfg.Publish.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Logger = logger

	if cfg.Metrics.Namespace != "" {
		observability.DefaultMetrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *verifyRun); err != nil {
		if errors.Is(err, domain.ErrDataFormat) {
			logger.Error().Err(err).Msg("dataset rejected")
		} else {
			logger.Error().Err(err).Msg("report failed")
		}
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, verifyRunID string) error {
	var (
		pool   *pgstore.Pool
		chConn *chstore.Conn
		stores pipeline.Stores
	)

	// Connect to PostgreSQL (stored datasets, run metadata)
	if cfg.Storage.PostgresDSN != "" {
		var err error
		pool, err = pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}
		stores.Runs = pgstore.NewAnalysisRunStore(pool)
	}

	// Connect to ClickHouse (analysis results)
	if cfg.Storage.ClickHouseDSN != "" {
		var err error
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer chConn.Close()
		stores.Trends = chstore.NewTrendStore(chConn)
		stores.Segments = chstore.NewSegmentStore(chConn)
		stores.Promotions = chstore.NewPromotionStore(chConn)
	}

	source, opts, err := resolveSource(cfg, pool, logger)
	if err != nil {
		return err
	}

	if verifyRunID != "" {
		return verify(ctx, verifyRunID, source, opts, stores)
	}

	writer, err := reporting.NewWriter(reporting.WriterOptions{
		Dir:         cfg.Output.Dir,
		Charts:      cfg.Output.Charts,
		ChartWidth:  cfg.Output.ChartWidth,
		ChartHeight: cfg.Output.ChartHeight,
	})
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(source, opts)
	if err != nil {
		return err
	}
	p.WithLogger(logger).WithWriter(writer).WithStores(stores)

	res, runErr := p.Run(ctx)
	pushMetrics(ctx, cfg, res, logger)
	if runErr != nil {
		return runErr
	}

	if cfg.Publish.Enabled {
		pub, err := publish.NewS3Publisher(ctx, publish.Options{
			Bucket: cfg.Publish.Bucket,
			Prefix: cfg.Publish.Prefix,
			Region: cfg.Publish.Region,
		})
		if err != nil {
			return err
		}
		if _, err := pub.WithLogger(logger).Upload(ctx, res.Run.RunID, res.Files); err != nil {
			return err
		}
	}

	fmt.Println("Report generated successfully:")
	for _, f := range res.Files {
		fmt.Printf("  - %s\n", f)
	}
	if !res.Sufficiency.AllPass {
		fmt.Println("Warning: some data sufficiency checks failed; see REPORT.md")
	}
	return nil
}

// verify replays a stored run and prints every divergence.
func verify(ctx context.Context, runID string, source ingestion.RecordSource, opts pipeline.Options, stores pipeline.Stores) error {
	if stores.Runs == nil {
		return errors.New("--verify-run requires --postgres-dsn")
	}
	v, err := verification.NewRunVerifier(verification.RunVerifierOptions{
		Source:       source,
		Runs:         stores.Runs,
		Trends:       stores.Trends,
		Segments:     stores.Segments,
		Promotions:   stores.Promotions,
		Granularity:  opts.Granularity,
		Segmentation: opts.Segmentation,
	})
	if err != nil {
		return err
	}

	result, err := v.VerifyRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("verify run %s: %w", runID, err)
	}
	if result.Match {
		fmt.Printf("Run %s reproduced: dataset version %s\n", runID, result.ReplayedVersion)
		return nil
	}

	fmt.Printf("Run %s diverged (%d fields):\n", runID, len(result.Divergences))
	for _, d := range result.Divergences {
		fmt.Printf("  - %s: stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
	}
	return fmt.Errorf("run %s is not reproducible", runID)
}

// resolveSource picks the stored dataset when a dataset id is set, the file
// or URL otherwise.
func resolveSource(cfg *config.Config, pool *pgstore.Pool, logger zerolog.Logger) (ingestion.RecordSource, pipeline.Options, error) {
	opts := pipeline.Options{
		Granularity:  cfg.Granularity(),
		Segmentation: cfg.SegmenterConfig(),
		TopSegments:  cfg.Output.TopSegmentsN,
	}

	if id := cfg.Input.DatasetID; id != "" {
		if pool == nil {
			return nil, opts, errors.New("--dataset-id requires --postgres-dsn")
		}
		opts.SourceName = "postgres:sales_records/" + id
		opts.DatasetID = id
		opts.ReplayCommand = fmt.Sprintf("go run ./cmd/report --dataset-id %s --granularity %s", id, opts.Granularity)
		return ingestion.NewStoreSource(pgstore.NewSalesRecordStore(pool), id), opts, nil
	}

	if cfg.Input.Path == "" {
		return nil, opts, errors.New("--input or --dataset-id is required")
	}
	opts.SourceName = cfg.Input.Path
	source := ingestion.NewTableSource(cfg.Input.Path, cfg.ColumnMapping(), ingestion.OpenOptions{
		Sheet: cfg.Input.Sheet,
		Fetch: ingestion.FetchOptions{
			Timeout:         cfg.Input.FetchTimeout,
			MaxRetryElapsed: cfg.Input.MaxRetryElapsed,
			MaxBodyBytes:    cfg.Input.MaxBodyBytes,
			Logger:          &logger,
		},
	})
	return source, opts, nil
}

// pushMetrics sends the run's metrics when a pushgateway is configured.
// Failures are logged; they never fail the run.
func pushMetrics(ctx context.Context, cfg *config.Config, res *pipeline.Result, logger zerolog.Logger) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	grouping := map[string]string{}
	if res != nil {
		grouping["dataset_id"] = res.Run.DatasetID
	}
	if err := observability.DefaultMetrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, grouping); err != nil {
		logger.Warn().Err(err).Msg("metrics push failed")
		return
	}
	logger.Debug().Str("gateway", cfg.Metrics.PushgatewayURL).Msg("metrics pushed")
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
