package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"

	"ontime/internal/etl"
	"ontime/internal/metrics"
)

type discard struct{}

func (discard) IncCounter(string, float64, metrics.Labels)       {}
func (discard) ObserveHistogram(string, float64, metrics.Labels) {}
func (discard) SetGauge(string, float64, metrics.Labels)         {}
func (discard) Flush() error                                     { return nil }

// cleanEnv pins every variable the binary reads so the host environment
// cannot leak into a test. Tests using it cannot be parallel.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ETL_SOURCE_PATH", "ETL_DB_PATH", "DATABASE_URL", "ETL_TABLE", "ETL_STORAGE_KIND",
		"ETL_ON_COLLISION", "ETL_CSV_DELIMITER", "ETL_CSV_TRIM_SPACE", "ETL_TIMEOUT",
		"LOG_FORMAT", "SEQ_URL", "PUSHGATEWAY_URL", "METRICS_TAGS", "ETL_JOB",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("METRICS_BACKEND", "none")
}

func writeCSV(t *testing.T, content string) (src, db string) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "in.csv")
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return src, filepath.Join(dir, "out.db")
}

func baseArgs(src, db string, extra ...string) []string {
	return append([]string{"-env-file", filepath.Join(filepath.Dir(src), "none.env"), "-source", src, "-db", db, "-table", "t"}, extra...)
}

func TestRunJSONOutput(t *testing.T) {
	cleanEnv(t)
	src, db := writeCSV(t, "a,b\n1,2")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), baseArgs(src, db, "-json"), &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}

	var got etl.Result
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v (%q)", err, stdout.String())
	}
	if want := (etl.Result{RowsLoaded: 1, RowsInDB: 1, TableName: "t"}); got != want {
		t.Fatalf("result = %+v, want %+v", got, want)
	}
	if !strings.Contains(stdout.String(), `"rows_in_db": 1`) {
		t.Fatalf("stdout missing rows_in_db key: %q", stdout.String())
	}
}

func TestRunTextOutput(t *testing.T) {
	cleanEnv(t)
	var sb strings.Builder
	sb.WriteString("Year,Carrier Delay (%)\n")
	for i := 0; i < 1200; i++ {
		sb.WriteString("2020,1.5\n")
	}
	src, db := writeCSV(t, sb.String())

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), baseArgs(src, db), &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if want := `Loaded 1,200 rows into "t"; 1,200 rows in database.`; !strings.Contains(stdout.String(), want) {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunMissingSource(t *testing.T) {
	cleanEnv(t)
	src, db := writeCSV(t, "a\n1\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), baseArgs(src+".missing", db), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "etl failed at exists") || !strings.Contains(stderr.String(), "source not found") {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout = %q, want empty", stdout.String())
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Fatalf("database created despite missing source (stat err = %v)", err)
	}
}

func TestRunValidateOnly(t *testing.T) {
	cleanEnv(t)
	src, db := writeCSV(t, "a\n1\n")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), baseArgs(src, db, "-validate"), &stdout, &stderr); code != 0 {
		t.Fatalf("run(-validate) = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "configuration is valid") {
		t.Fatalf("stderr = %q", stderr.String())
	}
	if _, err := os.Stat(db); !os.IsNotExist(err) {
		t.Fatalf("-validate touched the database (stat err = %v)", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cleanEnv(t)
	src, db := writeCSV(t, "a\n1\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), baseArgs(src, db, "-table", "bad name", "-on-collision", "merge"), &stdout, &stderr)
	if code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	for _, want := range []string{"error: ETL_TABLE", "error: ETL_ON_COLLISION", "configuration is invalid"} {
		if !strings.Contains(stderr.String(), want) {
			t.Fatalf("stderr %q does not contain %q", stderr.String(), want)
		}
	}
}

func TestRunBadFlag(t *testing.T) {
	cleanEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-nope"}, &stdout, &stderr); code != 2 {
		t.Fatalf("run(-nope) = %d, want 2", code)
	}
}

// TestRunPushesMetrics points the pushgateway backend at a fake gateway.
func TestRunPushesMetrics(t *testing.T) {
	cleanEnv(t)

	var pushes int32
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&pushes, 1)
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		body.Store(buf.String())
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	t.Cleanup(func() { metrics.SetBackend(discard{}) })

	t.Setenv("METRICS_BACKEND", "pushgateway")
	t.Setenv("PUSHGATEWAY_URL", srv.URL)
	t.Setenv("ETL_JOB", "ontime_test")

	src, db := writeCSV(t, "a\n1\n2\n")
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), baseArgs(src, db), &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, stderr.String())
	}
	if atomic.LoadInt32(&pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", pushes)
	}
	if b, _ := body.Load().(string); !strings.Contains(b, "etl_table_rows") {
		t.Fatalf("push body does not carry etl_table_rows")
	}
}
