package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/segmentation"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, domain.GranularityWeek, cfg.Granularity())
	assert.Equal(t, "store", cfg.Columns.Entity)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, segmentation.DefaultMinEntities, cfg.Segmentation.MinEntities)
	assert.Equal(t, segmentation.DefaultRules(), cfg.Segmentation.Rules)
	assert.Equal(t, 30*time.Second, cfg.Input.FetchTimeout)
	assert.Equal(t, int64(256<<20), cfg.Input.MaxBodyBytes)
}

func TestLoad_FileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
input:
  path: data/sales.csv
columns:
  entity: customer_id
  sales: quantity
trend:
  granularity: month
segmentation:
  min_entities: 3
  fallback: other
  rules:
    - segment: big
      conditions:
        - feature: total_sales
          op: ">="
          quantile: 0.9
output:
  dir: /tmp/out
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "data/sales.csv", cfg.Input.Path)
	assert.Equal(t, "customer_id", cfg.Columns.Entity)
	assert.Equal(t, "quantity", cfg.Columns.Sales)
	// Unset keys keep their defaults
	assert.Equal(t, "price", cfg.Columns.Price)
	assert.Equal(t, domain.GranularityMonth, cfg.Granularity())

	sc := cfg.SegmenterConfig()
	assert.Equal(t, 3, sc.MinEntities)
	assert.Equal(t, domain.SegmentLabel("other"), sc.Fallback)
	require.Len(t, sc.Rules, 1)
	assert.Equal(t, domain.SegmentLabel("big"), sc.Rules[0].Segment)
	require.NotNil(t, sc.Rules[0].Conditions[0].Quantile)
	assert.Equal(t, 0.9, *sc.Rules[0].Conditions[0].Quantile)
	assert.Equal(t, segmentation.OpGTE, sc.Rules[0].Conditions[0].Op)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "output:\n  dir: from-file\n")

	t.Setenv("SALES_OUTPUT_DIR", "from-env")
	t.Setenv("SALES_TREND_GRANULARITY", "day")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Output.Dir)
	assert.Equal(t, domain.GranularityDay, cfg.Granularity())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "SALES_STORAGE_POSTGRES_DSN=postgres://u:p@localhost/sales\n")
	t.Cleanup(func() { os.Unsetenv("SALES_STORAGE_POSTGRES_DSN") })

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/sales", cfg.Storage.PostgresDSN)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad granularity", func(c *Config) { c.Trend.Granularity = "hour" }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"zero min entities", func(c *Config) { c.Segmentation.MinEntities = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad pushgateway url", func(c *Config) { c.Metrics.PushgatewayURL = "not a url" }},
		{"publish without bucket", func(c *Config) { c.Publish.Enabled = true; c.Publish.Region = "us-east-1" }},
		{"empty entity column", func(c *Config) { c.Columns.Entity = "" }},
		{"invalid rule", func(c *Config) {
			c.Segmentation.Rules = []segmentation.Rule{{Segment: "x"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestValidate_PublishComplete(t *testing.T) {
	cfg := Default()
	cfg.Publish = PublishConfig{Enabled: true, Bucket: "reports", Region: "eu-west-1"}
	assert.NoError(t, cfg.Validate())
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestLoggingConfig_InvalidLevel(t *testing.T) {
	_, err := LoggingConfig{Level: "loud", Format: "json"}.NewLogger(&bytes.Buffer{})
	assert.Error(t, err)
}
