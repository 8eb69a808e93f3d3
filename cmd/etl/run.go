package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"ontime/internal/config"
	"ontime/internal/etl"
	"ontime/internal/etlerr"
	"ontime/internal/logging"
	"ontime/internal/metrics"
	"ontime/internal/metrics/datadog"
	"ontime/internal/metrics/prompush"
	pcsv "ontime/internal/parser/csv"
	"ontime/internal/transformer/builtin"
)

// run parses flags, loads configuration and executes one pipeline run. It
// returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		source      = fs.String("source", "", "CSV file to load (overrides ETL_SOURCE_PATH)")
		db          = fs.String("db", "", "database file or DSN (overrides ETL_DB_PATH)")
		table       = fs.String("table", "", "destination table (overrides ETL_TABLE)")
		kind        = fs.String("storage", "", "storage backend: sqlite, postgres or mssql (overrides ETL_STORAGE_KIND)")
		onCollision = fs.String("on-collision", "", "normalized label collisions: reject or suffix (overrides ETL_ON_COLLISION)")
		envFile     = fs.String("env-file", ".env", "dotenv file to read before the environment")
		asJSON      = fs.Bool("json", false, "print the result as JSON")
		validate    = fs.Bool("validate", false, "validate the configuration and exit")
		verbose     = fs.Bool("v", false, "enable debug logs")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	// Flags win over env, but only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Pipeline.SourcePath = *source
		case "db":
			cfg.Pipeline.DBPath = *db
		case "table":
			cfg.Pipeline.Table = *table
		case "storage":
			cfg.Pipeline.StorageKind = *kind
		case "on-collision":
			cfg.Pipeline.OnCollision = *onCollision
		}
	})
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Err(issues); err != nil {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if *validate {
		fmt.Fprintln(stderr, "configuration is valid")
		return 0
	}

	log, closeLog := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.SeqURL)
	defer closeLog()

	flush, err := setupMetrics(cfg.Metrics)
	if err != nil {
		log.Warn("metrics disabled", "backend", cfg.Metrics.Backend, "err", err)
	} else {
		defer flush(log)
	}

	if cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.Timeout)
		defer cancel()
	}

	params, err := paramsFrom(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	start := time.Now()
	res, err := etl.Run(ctx, params)
	if err != nil {
		fmt.Fprintf(stderr, "etl failed at %s: %v\n", etlerr.StepOf(err), err)
		return 1
	}
	log.Debug("completed", "elapsed", time.Since(start).Truncate(time.Millisecond))

	if err := writeResult(stdout, res, *asJSON); err != nil {
		fmt.Fprintf(stderr, "write result: %v\n", err)
		return 1
	}
	return 0
}

func paramsFrom(cfg *config.Config) (etl.Params, error) {
	policy, err := builtin.ParseCollisionPolicy(cfg.Pipeline.OnCollision)
	if err != nil {
		return etl.Params{}, err
	}
	return etl.Params{
		SourcePath:  cfg.Pipeline.SourcePath,
		DBPath:      cfg.Pipeline.DBPath,
		Table:       cfg.Pipeline.Table,
		StorageKind: cfg.Pipeline.StorageKind,
		Collision:   policy,
		CSV: pcsv.Options{
			Comma:     cfg.Pipeline.Comma(),
			TrimSpace: cfg.Pipeline.TrimSpace,
		},
		Job: cfg.Metrics.Job,
	}, nil
}

// setupMetrics installs the configured backend and returns the function that
// flushes it at exit.
func setupMetrics(m config.MetricsConfig) (func(*slog.Logger), error) {
	var b metrics.Backend
	switch m.Backend {
	case "", "none":
		return func(*slog.Logger) {}, nil
	case "pushgateway":
		pb, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		b = pb
	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DogStatsDAddr,
			Namespace:  "ontime.",
			GlobalTags: append([]string{"job:" + m.Job}, m.Tags...),
		})
		if err != nil {
			return nil, err
		}
		b = db
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}

	metrics.SetBackend(b)
	return func(log *slog.Logger) {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "backend", m.Backend, "err", err)
		}
	}, nil
}

func writeResult(w io.Writer, res etl.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(w, "Loaded %s rows into %q; %s rows in database.\n",
		humanize.Comma(res.RowsLoaded), res.TableName, humanize.Comma(res.RowsInDB))
	return err
}
