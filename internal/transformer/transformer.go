// Package transformer defines dataset-to-dataset steps applied between
// loading and persisting. Transformers never mutate their input; each returns
// a new dataset or an error that aborts the run.
package transformer

import "ontime/internal/dataset"

// Transformer rewrites a dataset.
type Transformer interface {
	Apply(in *dataset.Dataset) (*dataset.Dataset, error)
}

// Func adapts a plain function to Transformer.
type Func func(in *dataset.Dataset) (*dataset.Dataset, error)

// Apply calls f.
func (f Func) Apply(in *dataset.Dataset) (*dataset.Dataset, error) { return f(in) }

// Chain is an ordered list of transformers. The first error stops the chain.
type Chain []Transformer

func (c Chain) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	out := in
	for _, t := range c {
		next, err := t.Apply(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
