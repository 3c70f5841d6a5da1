package memory

import (
	"context"

	"github.com/strata-data/strata"
	"github.com/strata-data/strata/errors"
	"github.com/strata-data/strata/internal/dataset"
)

// DataSource is a non-lazy source supplying Blocks directly from memory. Its
// data survives snapshot consumption, so sibling materializations never trigger
// a source re-read.
type DataSource struct {
	blocks []strata.Block
}

// CreateDataset is a factory for Datasets backed by in-memory Rows, split into
// numBlocks Blocks
func CreateDataset(rows []strata.Row, numBlocks int, conf *strata.Config) strata.Dataset {
	if numBlocks < 1 {
		numBlocks = 1
	}
	blocks := make([]strata.Block, numBlocks)
	chunk := (len(rows) + numBlocks - 1) / numBlocks
	for i := 0; i < numBlocks; i++ {
		start := i * chunk
		if start > len(rows) {
			start = len(rows)
		}
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		blocks[i] = strata.Block(rows[start:end])
	}
	return dataset.CreateDataset(&DataSource{blocks: blocks}, conf)
}

// Name returns the read stage suffix for this DataSource
func (s *DataSource) Name() string {
	return "Memory"
}

// Analyze returns the number of Blocks this DataSource will produce
func (s *DataSource) Analyze() (int, error) {
	return len(s.blocks), nil
}

// Load returns a copy of a single Block of source data
func (s *DataSource) Load(ctx context.Context, block int) (strata.Block, error) {
	if block < 0 || block >= len(s.blocks) {
		return nil, errors.NoMoreBlocksError{}
	}
	return s.blocks[block].Clone(), nil
}

// IsLazy returns false: the source data is supplied directly in memory
func (s *DataSource) IsLazy() bool {
	return false
}
