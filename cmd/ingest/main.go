// Command ingest reads a CSV or XLSX sales dataset and stores its raw rows in
// PostgreSQL under a dataset id, for later analysis with the report command.
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
	"retail-sales-lab/internal/idhash"
	"retail-sales-lab/internal/ingestion"
	"retail-sales-lab/internal/storage"
	"retail-sales-lab/internal/storage/memory"
	"retail-sales-lab/internal/storage/migrations"
	pgstore "retail-sales-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "Env file loaded before SALES_* overrides")
	input := flag.String("input", "", "Dataset path or http(s) URL (csv, xlsx)")
	sheet := flag.String("sheet", "", "XLSX sheet name (first sheet when empty)")
	datasetID := flag.String("dataset-id", "", "Dataset id (derived from --input when empty)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Validate and count rows without PostgreSQL")
	list := flag.Bool("list", false, "List stored dataset ids and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *sheet != "" {
		cfg.Input.Sheet = *sheet
	}
	if *datasetID != "" {
		cfg.Input.DatasetID = *datasetID
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}

	logger, err := cfg.Logging.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *useMemory, *list); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("ingest failed")
			stop()
			os.Exit(1)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, useMemory, list bool) error {
	// Require --postgres-dsn unless --use-memory is explicitly set
	if !useMemory && cfg.Storage.PostgresDSN == "" {
		return errors.New("--postgres-dsn is required (use --use-memory to validate only)")
	}

	var store storage.SalesRecordStore = memory.NewSalesRecordStore()
	if !useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return err
		}
		store = pgstore.NewSalesRecordStore(pool)
	}

	if list {
		ids, err := store.ListDatasets(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if cfg.Input.Path == "" {
		return errors.New("--input is required")
	}
	id := cfg.Input.DatasetID
	if id == "" {
		id = idhash.ComputeDatasetID(cfg.Input.Path)
	}

	source := ingestion.NewTableSource(cfg.Input.Path, cfg.ColumnMapping(), ingestion.OpenOptions{
		Sheet: cfg.Input.Sheet,
		Fetch: ingestion.FetchOptions{
			Timeout:         cfg.Input.FetchTimeout,
			MaxRetryElapsed: cfg.Input.MaxRetryElapsed,
			MaxBodyBytes:    cfg.Input.MaxBodyBytes,
			Logger:          &logger,
		},
	})

	manager := ingestion.NewManager(ingestion.ManagerOptions{
		Source: source,
		Store:  store,
		Logger: &logger,
	})

	n, err := manager.Ingest(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("dataset %s is already stored: %w", id, err)
		}
		return err
	}

	fmt.Printf("Stored %d rows as dataset %s\n", n, id)
	fmt.Printf("Analyze with: go run ./cmd/report --dataset-id %s --postgres-dsn <dsn>\n", id)
	return nil
}
