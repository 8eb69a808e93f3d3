// Package parser defines the contract shared by input parsers: turn a stream of
// raw bytes into an in-memory dataset.
package parser

import (
	"context"
	"io"

	"ontime/internal/dataset"
)

// Parser reads the whole of r into a dataset. Failures wrap
// etlerr.ErrMalformedInput when the content itself is at fault.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*dataset.Dataset, error)
}
