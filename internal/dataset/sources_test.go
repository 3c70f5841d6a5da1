package dataset

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/strata-data/strata"
)

// countingRangeSource is a lazy integer range source which counts how many
// times its blocks are loaded
type countingRangeSource struct {
	n         int
	numBlocks int
	loads     int32
}

func (s *countingRangeSource) Name() string { return "Range" }

func (s *countingRangeSource) Analyze() (int, error) { return s.numBlocks, nil }

func (s *countingRangeSource) Load(ctx context.Context, block int) (strata.Block, error) {
	atomic.AddInt32(&s.loads, 1)
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

func (s *countingRangeSource) IsLazy() bool { return true }

func (s *countingRangeSource) numLoads() int32 { return atomic.LoadInt32(&s.loads) }

// durableItemsSource is a non-lazy source over in-memory rows which counts
// how many times its blocks are loaded
type durableItemsSource struct {
	rows      []strata.Row
	numBlocks int
	loads     int32
}

func (s *durableItemsSource) Name() string { return "Items" }

func (s *durableItemsSource) Analyze() (int, error) { return s.numBlocks, nil }

func (s *durableItemsSource) Load(ctx context.Context, block int) (strata.Block, error) {
	atomic.AddInt32(&s.loads, 1)
	chunk := (len(s.rows) + s.numBlocks - 1) / s.numBlocks
	start := block * chunk
	if start > len(s.rows) {
		start = len(s.rows)
	}
	end := start + chunk
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return strata.Block(s.rows[start:end]), nil
}

func (s *durableItemsSource) IsLazy() bool { return false }

func (s *durableItemsSource) numLoads() int32 { return atomic.LoadInt32(&s.loads) }

// collectSink gathers written blocks for inspection
type collectSink struct {
	mu     sync.Mutex
	blocks map[int]strata.Block
}

func newCollectSink() *collectSink {
	return &collectSink{blocks: make(map[int]strata.Block)}
}

func (s *collectSink) WriteBlock(ctx context.Context, block int, data strata.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[block] = data
	return nil
}

func (s *collectSink) numRows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.blocks {
		n += len(b)
	}
	return n
}

func intValues(rows []strata.Row, column string) []int {
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[column].(int); ok {
			out = append(out, v)
		}
	}
	return out
}
