// Package logging configures structured logging with log/slog.
//
// Records go to stderr as text or JSON. When a Seq URL is configured they are
// also shipped to Seq through a fan-out handler. Each pipeline run carries a
// run id in its context so every line of one run can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Setup installs the global slog logger and returns it together with a
// cleanup function that flushes any remote sink. The cleanup is always
// non-nil.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format, seqURL string) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	console := NewHandler(os.Stderr, format, opts)

	closeFn := func() {}
	handler := console
	if seqURL != "" {
		_, seqHandler := slogseq.NewLogger(
			seqURL,
			slogseq.WithBatchSize(1),
			slogseq.WithFlushInterval(500*time.Millisecond),
			slogseq.WithHandlerOptions(opts),
		)
		if seqHandler != nil {
			handler = &multiHandler{handlers: []slog.Handler{console, seqHandler}}
			closeFn = func() { seqHandler.Close() }
		}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn
}

// NewHandler returns a text or JSON handler writing to w.
func NewHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type runIDKey struct{}

// WithRunID returns a context carrying id as the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run identifier stored in ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// FromContext returns the default logger, enriched with run_id when ctx
// carries one.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	log := logging.WithFields(ctx, "table", table)
//	log.Info("replace started")
//	// ... later ...
//	log.Info("replace finished", "rows", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
