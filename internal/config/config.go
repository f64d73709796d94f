// Package config loads run configuration from a YAML file, an optional .env
// file and SALES_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/normalization"
	"retail-sales-lab/internal/segmentation"
)

// EnvPrefix prefixes every environment override, e.g. SALES_OUTPUT_DIR.
const EnvPrefix = "SALES"

// Config represents the complete run configuration.
type Config struct {
	Input        InputConfig        `yaml:"input" envconfig:"INPUT"`
	Columns      ColumnsConfig      `yaml:"columns" envconfig:"COLUMNS"`
	Trend        TrendConfig        `yaml:"trend" envconfig:"TREND"`
	Segmentation SegmentationConfig `yaml:"segmentation" envconfig:"SEGMENTATION"`
	Output       OutputConfig       `yaml:"output" envconfig:"OUTPUT"`
	Storage      StorageConfig      `yaml:"storage" envconfig:"STORAGE"`
	Metrics      MetricsConfig      `yaml:"metrics" envconfig:"METRICS"`
	Publish      PublishConfig      `yaml:"publish" envconfig:"PUBLISH"`
	Logging      LoggingConfig      `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig locates the dataset. Path is a local file or an http(s) URL;
// DatasetID selects rows stored by the ingest command; Sheet picks an xlsx
// sheet (first sheet when empty).
type InputConfig struct {
	Path            string        `yaml:"path" envconfig:"PATH"`
	DatasetID       string        `yaml:"dataset_id" envconfig:"DATASET_ID"`
	Sheet           string        `yaml:"sheet" envconfig:"SHEET"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	MaxRetryElapsed time.Duration `yaml:"max_retry_elapsed" envconfig:"MAX_RETRY_ELAPSED" validate:"gte=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gt=0"`
}

// ColumnsConfig maps dataset columns onto record fields.
type ColumnsConfig struct {
	Entity    string `yaml:"entity" envconfig:"ENTITY" validate:"required"`
	Timestamp string `yaml:"timestamp" envconfig:"TIMESTAMP" validate:"required"`
	Sales     string `yaml:"sales" envconfig:"SALES" validate:"required"`
	Price     string `yaml:"price" envconfig:"PRICE" validate:"required"`
	Promotion string `yaml:"promotion" envconfig:"PROMOTION" validate:"required"`
	BasePrice string `yaml:"base_price" envconfig:"BASE_PRICE"`
}

// TrendConfig configures trend aggregation.
type TrendConfig struct {
	Granularity string `yaml:"granularity" envconfig:"GRANULARITY" validate:"oneof=raw day week month"`
}

// SegmentationConfig configures the decision table.
// Rules are file-only; an absent rules key keeps the built-in table.
type SegmentationConfig struct {
	MinEntities int                 `yaml:"min_entities" envconfig:"MIN_ENTITIES" validate:"min=1"`
	Fallback    string              `yaml:"fallback" envconfig:"FALLBACK" validate:"required"`
	Rules       []segmentation.Rule `yaml:"rules" ignored:"true"`
}

// OutputConfig configures report artifacts.
type OutputConfig struct {
	Dir          string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Charts       bool   `yaml:"charts" envconfig:"CHARTS"`
	ChartWidth   int    `yaml:"chart_width" envconfig:"CHART_WIDTH" validate:"min=200"`
	ChartHeight  int    `yaml:"chart_height" envconfig:"CHART_HEIGHT" validate:"min=150"`
	TopSegmentsN int    `yaml:"top_segments" envconfig:"TOP_SEGMENTS" validate:"min=1"`
}

// StorageConfig holds database DSNs. Empty DSNs disable the store.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn" envconfig:"POSTGRES_DSN"`
	ClickHouseDSN string `yaml:"clickhouse_dsn" envconfig:"CLICKHOUSE_DSN"`
}

// MetricsConfig configures pushgateway export. Empty URL disables it.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	Job            string `yaml:"job" envconfig:"JOB" validate:"required"`
	Namespace      string `yaml:"namespace" envconfig:"NAMESPACE"`
}

// PublishConfig configures S3 upload of report artifacts.
type PublishConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Bucket  string `yaml:"bucket" envconfig:"BUCKET" validate:"required_if=Enabled true"`
	Prefix  string `yaml:"prefix" envconfig:"PREFIX"`
	Region  string `yaml:"region" envconfig:"REGION" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cols := normalization.DefaultColumns()
	seg := segmentation.DefaultConfig()
	return &Config{
		Input: InputConfig{
			FetchTimeout:    30 * time.Second,
			MaxRetryElapsed: 2 * time.Minute,
			MaxBodyBytes:    256 << 20,
		},
		Columns: ColumnsConfig{
			Entity:    cols.Entity,
			Timestamp: cols.Timestamp,
			Sales:     cols.Sales,
			Price:     cols.Price,
			Promotion: cols.Promotion,
			BasePrice: cols.BasePrice,
		},
		Trend: TrendConfig{Granularity: string(domain.GranularityWeek)},
		Segmentation: SegmentationConfig{
			MinEntities: seg.MinEntities,
			Fallback:    string(seg.Fallback),
			Rules:       seg.Rules,
		},
		Output: OutputConfig{
			Dir:          "output",
			Charts:       true,
			ChartWidth:   960,
			ChartHeight:  540,
			TopSegmentsN: 3,
		},
		Metrics: MetricsConfig{Job: "retail_sales_report"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load builds the configuration.
// configPath may be empty; envFile is loaded only if it exists.
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}

	cfg := Default()

	if configPath != "" {
		if err := loadFromFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks field constraints and the segment decision table.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := segmentation.ValidateRules(c.Segmentation.Rules, domain.SegmentLabel(c.Segmentation.Fallback)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ColumnMapping converts the columns section for the loader.
func (c *Config) ColumnMapping() normalization.ColumnMapping {
	return normalization.ColumnMapping{
		Entity:    c.Columns.Entity,
		Timestamp: c.Columns.Timestamp,
		Sales:     c.Columns.Sales,
		Price:     c.Columns.Price,
		Promotion: c.Columns.Promotion,
		BasePrice: c.Columns.BasePrice,
	}
}

// Granularity returns the trend bucket granularity.
func (c *Config) Granularity() domain.Granularity {
	return domain.Granularity(c.Trend.Granularity)
}

// SegmenterConfig converts the segmentation section.
func (c *Config) SegmenterConfig() segmentation.Config {
	return segmentation.Config{
		MinEntities: c.Segmentation.MinEntities,
		Rules:       c.Segmentation.Rules,
		Fallback:    domain.SegmentLabel(c.Segmentation.Fallback),
	}
}
