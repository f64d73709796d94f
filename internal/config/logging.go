package config

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=console json"`
}

// NewLogger builds a logger writing to w.
func (l LoggingConfig) NewLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}

	out := w
	if l.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
