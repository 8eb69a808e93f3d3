// Package etl runs the on-time performance load: check that the source file
// exists, load it, normalize the column labels, replace the destination table
// and read the row count back.
//
// Storage backends are resolved through the storage registry, so the binary
// must import the backends it needs (see internal/storage/all).
package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"ontime/internal/dataset"
	"ontime/internal/datasource/file"
	"ontime/internal/etlerr"
	"ontime/internal/logging"
	"ontime/internal/metrics"
	pcsv "ontime/internal/parser/csv"
	"ontime/internal/storage"
	"ontime/internal/transformer"
	"ontime/internal/transformer/builtin"
)

// Step names used in errors, logs and metrics.
const (
	StepExists    = "exists"
	StepLoad      = "load"
	StepNormalize = "normalize"
	StepPersist   = "persist"
	StepVerify    = "verify"
)

// Params configures one run.
type Params struct {
	SourcePath  string
	DBPath      string // file path for sqlite, DSN for postgres
	Table       string
	StorageKind string
	Collision   builtin.CollisionPolicy
	CSV         pcsv.Options

	// Job labels metrics; "ontime" when empty.
	Job string
}

// DefaultParams returns the parameters of the standard on-time load.
func DefaultParams() Params {
	return Params{
		SourcePath:  "Data/Raw Input/ot_delaycause1_DL (1)/Airline_Delay_Cause.csv",
		DBPath:      "Data/On_Time_Performance.db",
		Table:       "On_Time_Performance",
		StorageKind: "sqlite",
		Collision:   builtin.Reject,
		Job:         "ontime",
	}
}

// Result summarizes a successful run.
type Result struct {
	RowsLoaded int64  `json:"rows_loaded"`
	RowsInDB   int64  `json:"rows_in_db"`
	TableName  string `json:"table_name"`
}

// Map returns the result as a string-keyed mapping.
func (r Result) Map() map[string]any {
	return map[string]any{
		"rows_loaded": r.RowsLoaded,
		"rows_in_db":  r.RowsInDB,
		"table_name":  r.TableName,
	}
}

// Run executes the pipeline once. On failure the returned error is a
// *etlerr.StepError naming the failed step and wrapping one of the etlerr
// sentinels (or a context error). A missing source fails before any store
// is opened, so no database file is created.
func Run(ctx context.Context, p Params) (Result, error) {
	if p.Job == "" {
		p.Job = "ontime"
	}
	ctx = logging.WithRunID(ctx, uuid.NewString())
	log := logging.WithFields(ctx, "source", p.SourcePath, "table", p.Table, "storage", p.StorageKind)
	started := time.Now()
	log.Info("run started")

	r := &runner{p: p}

	err := r.step(ctx, StepExists, func(context.Context) error {
		if !file.Exists(p.SourcePath) {
			return fmt.Errorf("%s: %w", p.SourcePath, etlerr.ErrNotFound)
		}
		return nil
	})
	if err == nil {
		err = r.step(ctx, StepLoad, r.load)
	}
	if err == nil {
		err = r.step(ctx, StepNormalize, r.normalize)
	}
	if err == nil {
		err = r.step(ctx, StepPersist, r.persist)
	}
	if err == nil {
		err = r.step(ctx, StepVerify, r.verify)
	}
	if err != nil {
		log.Error("run failed", "step", etlerr.StepOf(err), "err", err, "elapsed", time.Since(started))
		return Result{}, err
	}

	res := Result{RowsLoaded: int64(r.data.Len()), RowsInDB: r.counted, TableName: p.Table}
	log.Info("run finished",
		"rows_loaded", humanize.Comma(res.RowsLoaded),
		"rows_in_db", humanize.Comma(res.RowsInDB),
		"elapsed", time.Since(started),
	)
	return res, nil
}

// runner carries state between steps of one run.
type runner struct {
	p       Params
	data    *dataset.Dataset
	written int64
	counted int64
}

// step times fn, records it and tags a failure with the step name.
func (r *runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return etlerr.Step(name, err)
	}
	start := time.Now()
	err := fn(ctx)
	metrics.RecordStep(r.p.Job, name, err, time.Since(start))
	logging.FromContext(ctx).Debug("step done", "step", name, "elapsed", time.Since(start), "ok", err == nil)
	return etlerr.Step(name, err)
}

func (r *runner) load(ctx context.Context) error {
	d, err := pcsv.Load(ctx, r.p.SourcePath, r.p.CSV)
	if err != nil {
		return err
	}
	r.data = d
	metrics.RecordRow(r.p.Job, "loaded", int64(d.Len()))
	logging.FromContext(ctx).Info("source loaded",
		"rows", humanize.Comma(int64(d.Len())),
		"columns", len(d.Columns),
		"fingerprint", fmt.Sprintf("%016x", d.Fingerprint()),
	)
	return nil
}

func (r *runner) normalize(context.Context) error {
	chain := transformer.Chain{builtin.NormalizeColumns{Policy: r.p.Collision}}
	out, err := chain.Apply(r.data)
	if err != nil {
		return err
	}
	r.data = out
	return nil
}

// persist opens the store, replaces the table and closes the store again so
// that verification reads through a fresh handle.
func (r *runner) persist(ctx context.Context) error {
	if err := storage.ValidateIdentifier(r.p.Table); err != nil {
		return err
	}
	st, err := storage.New(ctx, storage.Config{Kind: r.p.StorageKind, DSN: r.p.DBPath})
	if err != nil {
		return err
	}
	n, err := st.ReplaceTable(ctx, r.data, r.p.Table)
	if cerr := st.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close store: %w", cerr)
	}
	if err != nil {
		return err
	}
	r.written = n
	metrics.RecordRow(r.p.Job, "persisted", n)
	return nil
}

func (r *runner) verify(ctx context.Context) error {
	st, err := storage.New(ctx, storage.Config{Kind: r.p.StorageKind, DSN: r.p.DBPath, ReadOnly: true})
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.CountRows(ctx, r.p.Table)
	if err != nil {
		return err
	}
	r.counted = n
	metrics.RecordRow(r.p.Job, "counted", n)
	metrics.RecordTableRows(r.p.Job, r.p.Table, n)
	if loaded := int64(r.data.Len()); n != loaded || n != r.written {
		return fmt.Errorf("%s: loaded %d rows, wrote %d, counted %d: %w",
			r.p.Table, loaded, r.written, n, etlerr.ErrCountMismatch)
	}
	return nil
}
