// Package datasource defines where raw input bytes come from. The pipeline
// only needs a local file today; the interface keeps the loader independent
// of that choice.
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh reader over the input. Callers must close it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
