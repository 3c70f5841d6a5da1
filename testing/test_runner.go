package testing

import (
	"context"

	"github.com/strata-data/strata"
)

// LocalRunDataset materializes a Dataset locally, recovering panics from
// user-supplied operations as errors
func LocalRunDataset(ctx context.Context, ds strata.Dataset) (result strata.Dataset, err error) {
	// handle panics
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = anErr
			} else {
				panic(r)
			}
		}
	}()
	return ds.Materialize(ctx)
}

// LocalTakeDataset materializes a Dataset locally and returns all output Rows,
// recovering panics from user-supplied operations as errors
func LocalTakeDataset(ctx context.Context, ds strata.Dataset) (result []strata.Row, err error) {
	// handle panics
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = anErr
			} else {
				panic(r)
			}
		}
	}()
	return ds.Take(ctx)
}
