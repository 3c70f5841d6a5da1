package rng

import (
	"context"

	"github.com/strata-data/strata"
	"github.com/strata-data/strata/internal/dataset"
)

// DataSource is a lazy source generating integer Rows in [0, n), one "id"
// column per Row. Being lazy, it is re-read every time the plan it feeds is
// re-executed.
type DataSource struct {
	n         int
	numBlocks int
}

// CreateDataset is a factory for Datasets over an integer range, split into
// numBlocks Blocks
func CreateDataset(n int, numBlocks int, conf *strata.Config) strata.Dataset {
	if numBlocks < 1 {
		numBlocks = 1
	}
	return dataset.CreateDataset(&DataSource{n: n, numBlocks: numBlocks}, conf)
}

// Name returns the read stage suffix for this DataSource
func (s *DataSource) Name() string {
	return "Range"
}

// Analyze returns the number of Blocks this DataSource will produce
func (s *DataSource) Analyze() (int, error) {
	return s.numBlocks, nil
}

// Load generates a single Block of the range
func (s *DataSource) Load(ctx context.Context, block int) (strata.Block, error) {
	chunk := (s.n + s.numBlocks - 1) / s.numBlocks
	start := block * chunk
	if start > s.n {
		start = s.n
	}
	end := start + chunk
	if end > s.n {
		end = s.n
	}
	out := make(strata.Block, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, strata.Row{"id": i})
	}
	return out, nil
}

// IsLazy returns true: every re-execution regenerates the range
func (s *DataSource) IsLazy() bool {
	return true
}
