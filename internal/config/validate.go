package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ontime/internal/datasource/file"
	"ontime/internal/storage"
	"ontime/internal/transformer/builtin"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path names the environment variable the value came from, e.g. "ETL_TABLE".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static checks over c. It does not mutate c and does not
// touch any database.
func Validate(c Config) []Issue {
	var issues []Issue
	issues = append(issues, validatePipeline(c.Pipeline)...)
	issues = append(issues, validateLogging(c.Logging)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

// Err joins the error-severity issues into one error, or returns nil when
// there are none. Warnings never block.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

func validatePipeline(p PipelineConfig) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, msg string) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: msg})
	}

	if strings.TrimSpace(p.SourcePath) == "" {
		add(SeverityError, "ETL_SOURCE_PATH", "source path must not be empty")
	} else if !file.Exists(p.SourcePath) {
		add(SeverityWarning, "ETL_SOURCE_PATH", fmt.Sprintf("%s is not a readable file; the run will stop at the existence check", p.SourcePath))
	}

	if err := storage.ValidateIdentifier(p.Table); err != nil {
		add(SeverityError, "ETL_TABLE", err.Error())
	}

	switch p.StorageKind {
	case "sqlite":
		if strings.TrimSpace(p.DBPath) == "" {
			add(SeverityError, "ETL_DB_PATH", "database path must not be empty")
		} else if p.DBPath != ":memory:" {
			if fi, err := os.Stat(filepath.Dir(p.DBPath)); err != nil || !fi.IsDir() {
				add(SeverityWarning, "ETL_DB_PATH", fmt.Sprintf("directory %s does not exist; the store will be unavailable", filepath.Dir(p.DBPath)))
			}
		}
	case "postgres", "mssql":
		if strings.TrimSpace(p.DBPath) == "" {
			add(SeverityError, "ETL_DB_PATH", "connection string must not be empty for "+p.StorageKind)
		}
	default:
		add(SeverityError, "ETL_STORAGE_KIND", fmt.Sprintf("unsupported storage kind %q (want sqlite, postgres or mssql)", p.StorageKind))
	}

	if _, err := builtin.ParseCollisionPolicy(p.OnCollision); err != nil {
		add(SeverityError, "ETL_ON_COLLISION", err.Error())
	}

	switch r := p.Comma(); r {
	case 0:
		add(SeverityError, "ETL_CSV_DELIMITER", fmt.Sprintf("delimiter %q must be a single character", p.Delimiter))
	case '"', '\r', '\n':
		add(SeverityError, "ETL_CSV_DELIMITER", fmt.Sprintf("delimiter %q cannot be a quote or line break", r))
	}

	if p.Timeout < 0 {
		add(SeverityError, "ETL_TIMEOUT", "timeout must not be negative")
	}
	return issues
}

func validateLogging(l LoggingConfig) []Issue {
	var issues []Issue

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, Issue{SeverityError, "LOG_LEVEL",
			fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", l.Level)})
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		issues = append(issues, Issue{SeverityError, "LOG_FORMAT",
			fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", l.Format)})
	}
	if l.SeqURL != "" && !isHTTPURL(l.SeqURL) {
		issues = append(issues, Issue{SeverityError, "SEQ_URL",
			fmt.Sprintf("%q is not an http(s) URL", l.SeqURL)})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if !isHTTPURL(m.PushgatewayURL) {
			issues = append(issues, Issue{SeverityError, "PUSHGATEWAY_URL",
				"an http(s) Pushgateway URL is required when METRICS_BACKEND=pushgateway"})
		}
	case "datadog":
		if strings.TrimSpace(m.DogStatsDAddr) == "" {
			issues = append(issues, Issue{SeverityError, "DOGSTATSD_ADDR",
				"a DogStatsD address is required when METRICS_BACKEND=datadog"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "METRICS_BACKEND",
			fmt.Sprintf("unsupported metrics backend %q (want none, pushgateway or datadog)", m.Backend)})
	}

	if m.Backend != "" && m.Backend != "none" && strings.TrimSpace(m.Job) == "" {
		issues = append(issues, Issue{SeverityWarning, "ETL_JOB",
			"job is empty; metrics will be grouped under the backend default"})
	}
	for _, tag := range m.Tags {
		if !strings.Contains(tag, ":") {
			issues = append(issues, Issue{SeverityWarning, "METRICS_TAGS",
				fmt.Sprintf("tag %q is not in key:value form", tag)})
		}
	}
	return issues
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
