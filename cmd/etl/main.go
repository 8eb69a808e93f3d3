package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// Register all backends with the storage factory; ETL_STORAGE_KIND picks
	// one at run time.
	_ "ontime/internal/storage/all"
)

// main is the entry point for the ETL binary. Everything lives in run so the
// flow can be tested without exiting the process.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
