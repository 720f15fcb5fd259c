// Package logging provides structured logging for pricesync using zerolog.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("product_id", "P1").Msg("Upserting product")
//
//	ctx = logging.WithField(ctx, "run_id", runID)
//	logging.FromContext(ctx).Debug().Msg("Using logger from context")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration options
type Config struct {
	// Level is the minimum log level to output
	Level string

	// Format is the output format (json, console, auto)
	Format string

	// Output is where to write logs (stderr, stdout, discard, or file path)
	Output string
}

var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "auto",
		Output: "stderr",
	}
}

// NewLoggerFromConfig creates a new logger from configuration.
// The returned closer releases a log file, if one was opened.
func NewLoggerFromConfig(cfg *Config) (zerolog.Logger, io.Closer) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	output, closer := openOutput(cfg.Output)

	logger := zerolog.New(writer(output, cfg.Format)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, closer
}

// Configure replaces the default logger with one built from cfg.
func Configure(cfg *Config) io.Closer {
	logger, closer := NewLoggerFromConfig(cfg)
	SetDefault(logger)
	return closer
}

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openOutput(output string) (*os.File, io.Closer) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nopCloser{}
	case "stdout":
		return os.Stdout, nopCloser{}
	case "discard", "none":
		return nil, nopCloser{}
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		// Fall back to stderr
		return os.Stderr, nopCloser{}
	}
	return file, file
}

func writer(output *os.File, format string) io.Writer {
	if output == nil {
		return io.Discard
	}
	format = strings.ToLower(format)
	if format == "auto" || format == "" {
		format = "json"
		if info, err := output.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			format = "console"
		}
	}
	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}
	return output
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "none", "off":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}
