package dataset

import (
	"context"
	"encoding/binary"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/strata-data/strata"
	serrors "github.com/strata-data/strata/errors"
	istats "github.com/strata-data/strata/internal/stats"
	"github.com/strata-data/strata/logging"
	"golang.org/x/sync/errgroup"
)

// executorImpl executes an optimized stage sequence against a local worker
// pool. Each (possibly fused) stage is one schedulable unit of work per Block
// for task-based compute, or a job fed to persistent workers for actor-pool
// compute.
type executorImpl struct {
	conf         *strata.Config
	logger       *logging.Logger
	runStats     *istats.RunStatistics
	sourceBlocks []strata.Block // durable blocks of a non-lazy source; read stages serve from these instead of re-loading
}

// createExecutor is a factory for executors
func createExecutor(conf *strata.Config, logger *logging.Logger, runStats *istats.RunStatistics) *executorImpl {
	return &executorImpl{
		conf:     conf,
		logger:   logger,
		runStats: runStats,
	}
}

func (e *executorImpl) numWorkers() int {
	if e.conf.NumWorkers > 0 {
		return e.conf.NumWorkers
	}
	return runtime.NumCPU()
}

// execute runs stages in order, starting from startBlocks (or from the
// DataSource when the first stage begins with a read)
func (e *executorImpl) execute(ctx context.Context, source strata.DataSource, startBlocks []strata.Block, stages []*stageImpl) ([]strata.Block, error) {
	blocks := startBlocks
	for i, stage := range stages {
		e.runStats.StartStage()
		var err error
		switch stage.kind {
		case strata.RandomShuffleReduceKind:
			blocks = reduceShuffledBlocks(blocks)
		case strata.RepartitionKind:
			blocks = repartitionBlocks(blocks, stage.numBlocks)
		case strata.SortKind:
			blocks = sortBlocks(blocks, stage.lessFn)
		case strata.ZipKind:
			blocks, err = e.zipBlocks(ctx, blocks, stage)
		default:
			// a per-block pipeline, optionally ending in a block-list operator
			pipeline, terminal := splitStageGroup(stage)
			blocks, err = e.runPipeline(ctx, source, stage.compute, pipeline, blocks)
			if err == nil && terminal != nil {
				switch terminal.kind {
				case strata.RandomizeBlockOrderKind:
					rand.Shuffle(len(blocks), func(a, b int) {
						blocks[a], blocks[b] = blocks[b], blocks[a]
					})
				case strata.RandomShuffleMapKind:
					blocks = bucketRowsRandomly(blocks)
				}
			}
		}
		if err != nil {
			e.logger.Errorf("stage %s failed: %v", stage.name, err)
			return nil, err
		}
		e.runStats.IncrementBlocksProcessed(i, int64(len(blocks)))
		e.runStats.IncrementRowsProcessed(i, countRows(blocks))
		e.runStats.EndStage(i)
		e.logger.Debugf("stage %s produced %d blocks", stage.name, len(blocks))
	}
	return blocks, nil
}

// splitStageGroup separates a (possibly fused) stage into its per-block
// pipeline prefix and its block-list terminal, if any. Fusion only ever places
// a randomize or shuffle-map operator at the end of a group.
func splitStageGroup(stage *stageImpl) ([]*stageImpl, *stageImpl) {
	subs := stage.substages()
	last := subs[len(subs)-1]
	if last.kind == strata.RandomizeBlockOrderKind || last.kind == strata.RandomShuffleMapKind {
		return subs[:len(subs)-1], last
	}
	return subs, nil
}

// runPipeline applies a chain of read/map/write sub-stages to every Block as a
// single unit of work, dispatched per the group's ComputeStrategy
func (e *executorImpl) runPipeline(ctx context.Context, source strata.DataSource, compute strata.ComputeStrategy, subs []*stageImpl, in []strata.Block) ([]strata.Block, error) {
	if len(subs) == 0 {
		return in, nil
	}
	numBlocks := len(in)
	fromSource := subs[0].kind == strata.ReadKind
	if fromSource {
		if e.sourceBlocks != nil {
			numBlocks = len(e.sourceBlocks)
		} else {
			n, err := source.Analyze()
			if err != nil {
				return nil, err
			}
			numBlocks = n
		}
	}
	out := make([]strata.Block, numBlocks)
	work := func(wctx context.Context, idx int) error {
		var block strata.Block
		var err error
		if fromSource {
			if e.sourceBlocks != nil {
				block = e.sourceBlocks[idx].Clone()
			} else {
				block, err = source.Load(wctx, idx)
				if err != nil {
					return err
				}
			}
		} else {
			block = in[idx]
		}
		for _, sub := range subs {
			block, err = applySubStage(wctx, sub, idx, block)
			if err != nil {
				return err
			}
		}
		out[idx] = block
		return nil
	}
	var err error
	if pool, ok := compute.(*strata.ActorPoolCompute); ok {
		err = e.dispatchActorPool(ctx, pool, numBlocks, work)
	} else {
		err = e.dispatchTasks(ctx, numBlocks, work)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applySubStage(ctx context.Context, sub *stageImpl, idx int, block strata.Block) (strata.Block, error) {
	switch sub.kind {
	case strata.ReadKind:
		return block, nil
	case strata.MapKind:
		next := make(strata.Block, 0, len(block))
		for _, row := range block {
			mapped, err := sub.mapFn(row)
			if err != nil {
				return nil, err
			}
			next = append(next, mapped)
		}
		return next, nil
	case strata.MapBatchesKind:
		return sub.batchFn(block)
	case strata.WriteKind:
		if err := sub.sink.WriteBlock(ctx, idx, block); err != nil {
			return nil, err
		}
		return block, nil
	default:
		return block, nil
	}
}

// dispatchTasks schedules each Block as an independent task on a bounded pool
func (e *executorImpl) dispatchTasks(ctx context.Context, numBlocks int, work func(context.Context, int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.numWorkers())
	for i := 0; i < numBlocks; i++ {
		idx := i
		g.Go(func() error {
			return work(gctx, idx)
		})
	}
	return g.Wait()
}

// dispatchActorPool feeds Blocks to a fixed set of persistent workers
func (e *executorImpl) dispatchActorPool(ctx context.Context, pool *strata.ActorPoolCompute, numBlocks int, work func(context.Context, int) error) error {
	size := pool.MaxSize
	if size <= 0 {
		size = e.numWorkers()
	}
	if pool.MinSize > size {
		size = pool.MinSize
	}
	if size > numBlocks && numBlocks > 0 {
		size = numBlocks
	}
	indices := make(chan int)
	var wg sync.WaitGroup
	var errLock sync.Mutex
	var merr *multierror.Error
	for w := 0; w < size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				if err := work(ctx, idx); err != nil {
					errLock.Lock()
					merr = multierror.Append(merr, err)
					errLock.Unlock()
				}
			}
		}()
	}
feed:
	for i := 0; i < numBlocks; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// bucketRowsRandomly implements the shuffle-map phase: every Row is assigned to
// a bucket by hashing a random key, producing one bucket per input Block
func bucketRowsRandomly(blocks []strata.Block) []strata.Block {
	numBuckets := len(blocks)
	if numBuckets == 0 {
		return blocks
	}
	buckets := make([]strata.Block, numBuckets)
	var key [8]byte
	for _, block := range blocks {
		for _, row := range block {
			binary.LittleEndian.PutUint64(key[:], rand.Uint64())
			b := int(xxhash.Sum64(key[:]) % uint64(numBuckets))
			buckets[b] = append(buckets[b], row)
		}
	}
	return buckets
}

// reduceShuffledBlocks implements the shuffle-reduce phase: each bucket becomes
// an output Block with its Rows permuted
func reduceShuffledBlocks(buckets []strata.Block) []strata.Block {
	out := make([]strata.Block, len(buckets))
	for i, bucket := range buckets {
		block := make(strata.Block, len(bucket))
		copy(block, bucket)
		rand.Shuffle(len(block), func(a, b int) {
			block[a], block[b] = block[b], block[a]
		})
		out[i] = block
	}
	return out
}

// repartitionBlocks redistributes all Rows into numBlocks contiguous chunks
func repartitionBlocks(blocks []strata.Block, numBlocks int) []strata.Block {
	rows := flattenBlocks(blocks)
	return splitRows(rows, numBlocks)
}

// sortBlocks gathers all Rows, orders them by less, and resplits them into the
// original number of Blocks
func sortBlocks(blocks []strata.Block, less strata.SortLessOperation) []strata.Block {
	rows := flattenBlocks(blocks)
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i], rows[j])
	})
	numBlocks := len(blocks)
	if numBlocks == 0 {
		numBlocks = 1
	}
	return splitRows(rows, numBlocks)
}

// zipBlocks joins this plan's Rows pairwise with the other Dataset's Rows.
// Colliding column names take the other Dataset's value.
func (e *executorImpl) zipBlocks(ctx context.Context, blocks []strata.Block, stage *stageImpl) ([]strata.Block, error) {
	otherRows, err := stage.zipWith.Take(ctx)
	if err != nil {
		return nil, err
	}
	rows := flattenBlocks(blocks)
	if len(rows) != len(otherRows) {
		return nil, serrors.ZipLengthMismatchError{Left: len(rows), Right: len(otherRows)}
	}
	zipped := make([]strata.Row, len(rows))
	for i, row := range rows {
		merged := row.Clone()
		for k, v := range otherRows[i] {
			merged[k] = v
		}
		zipped[i] = merged
	}
	out := make([]strata.Block, 0, len(blocks))
	offset := 0
	for _, block := range blocks {
		out = append(out, zipped[offset:offset+len(block)])
		offset += len(block)
	}
	return out, nil
}

func flattenBlocks(blocks []strata.Block) []strata.Row {
	var rows []strata.Row
	for _, block := range blocks {
		rows = append(rows, block...)
	}
	return rows
}

func splitRows(rows []strata.Row, numBlocks int) []strata.Block {
	out := make([]strata.Block, numBlocks)
	if numBlocks == 0 {
		return out
	}
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
		out[i] = strata.Block(rows[start:end])
	}
	return out
}

func countRows(blocks []strata.Block) int64 {
	var n int64
	for _, block := range blocks {
		n += int64(len(block))
	}
	return n
}
