// Package config holds the run configuration for the on-time loader. Values
// come from environment variables (optionally seeded from .env files) with
// defaults for every setting, and are checked by Validate before a run.
package config

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Config holds all application configuration.
type Config struct {
	Pipeline PipelineConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// PipelineConfig holds the source, destination and transform settings.
type PipelineConfig struct {
	// SourcePath is the CSV file to load.
	SourcePath string `env:"ETL_SOURCE_PATH" default:"Data/Raw Input/ot_delaycause1_DL (1)/Airline_Delay_Cause.csv"`

	// DBPath is the SQLite file for the sqlite backend, or the connection
	// string for postgres and mssql.
	DBPath string `env:"ETL_DB_PATH" envAlt:"DATABASE_URL" default:"Data/On_Time_Performance.db"`

	// Table is the destination table name.
	Table string `env:"ETL_TABLE" default:"On_Time_Performance"`

	// StorageKind selects the backend: sqlite, postgres or mssql.
	StorageKind string `env:"ETL_STORAGE_KIND" default:"sqlite"`

	// OnCollision is the normalized-label collision policy: reject or suffix.
	OnCollision string `env:"ETL_ON_COLLISION" default:"reject"`

	// Delimiter is the CSV field separator. "\t" and "tab" mean a tab.
	Delimiter string `env:"ETL_CSV_DELIMITER" default:","`

	// TrimSpace trims surrounding whitespace from text cells.
	TrimSpace bool `env:"ETL_CSV_TRIM_SPACE" default:"false"`

	// Timeout bounds the whole run; zero means no limit.
	Timeout time.Duration `env:"ETL_TIMEOUT" default:"0s"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`

	// SeqURL, when set, also ships records to a Seq server.
	SeqURL string `env:"SEQ_URL"`
}

// MetricsConfig selects and configures the metrics backend.
type MetricsConfig struct {
	// Backend is none, pushgateway or datadog.
	Backend string `env:"METRICS_BACKEND" default:"none"`

	PushgatewayURL string   `env:"PUSHGATEWAY_URL"`
	DogStatsDAddr  string   `env:"DOGSTATSD_ADDR" default:"127.0.0.1:8125"`
	Tags           []string `env:"METRICS_TAGS"`

	// Job labels every metric and is the Pushgateway grouping key.
	Job string `env:"ETL_JOB" default:"ontime"`
}

// Comma returns the delimiter as a rune, or 0 when it is not a single
// character (Validate reports that case).
func (p PipelineConfig) Comma() rune {
	switch strings.ToLower(p.Delimiter) {
	case `\t`, "tab":
		return '\t'
	}
	r, size := utf8.DecodeRuneInString(p.Delimiter)
	if size == 0 || size != len(p.Delimiter) || r == utf8.RuneError {
		return 0
	}
	return r
}
