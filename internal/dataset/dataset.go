package dataset

import (
	"context"
	"log"

	uuid "github.com/gofrs/uuid"
	"github.com/strata-data/strata"
	serrors "github.com/strata-data/strata/errors"
	"github.com/strata-data/strata/internal/bstore"
	istats "github.com/strata-data/strata/internal/stats"
	"github.com/strata-data/strata/logging"
	"github.com/strata-data/strata/stats"
)

// A datasetImpl implements Dataset internally for Strata. Datasets are
// immutable: every derivation returns a new datasetImpl sharing the source,
// configuration and block store of its parent.
type datasetImpl struct {
	conf     *strata.Config
	source   strata.DataSource
	sourceID string // block-store key for a non-lazy source's durable blocks
	plan     *executionPlan
	store    *bstore.Store
	logger   *logging.Logger
	runStats *istats.RunStatistics // most recent execution, nil if never materialized
}

// CreateDataset is a factory for Datasets. This function is not intended to be
// used directly, as Datasets are returned by DataSource packages.
func CreateDataset(source strata.DataSource, conf *strata.Config) strata.Dataset {
	if conf == nil {
		conf = strata.DefaultConfig()
	}
	id, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("failed to generate UUID: %v", err)
	}
	return &datasetImpl{
		conf:     conf,
		source:   source,
		sourceID: id.String(),
		plan:     createPlan(source),
		store:    bstore.CreateStore(&bstore.Config{MaxUncompressed: conf.SnapshotRetention}),
		logger:   logging.New("dataset", conf.LogLevel),
	}
}

func (d *datasetImpl) derive(stages ...*stageImpl) *datasetImpl {
	return &datasetImpl{
		conf:     d.conf,
		source:   d.source,
		sourceID: d.sourceID,
		plan:     d.plan.derive(stages...),
		store:    d.store,
		logger:   d.logger,
	}
}

// Map appends a stage transforming Rows one at a time
func (d *datasetImpl) Map(name string, fn strata.MapOperation, opts ...strata.StageOption) strata.Dataset {
	stage := createStage(formatStageName("Map", name), strata.MapKind, opts...)
	stage.mapFn = fn
	return d.derive(stage)
}

// MapBatches appends a stage transforming whole Blocks at once
func (d *datasetImpl) MapBatches(name string, fn strata.BatchOperation, opts ...strata.StageOption) strata.Dataset {
	stage := createStage(formatStageName("MapBatches", name), strata.MapBatchesKind, opts...)
	stage.batchFn = fn
	return d.derive(stage)
}

// RandomShuffle appends a shuffle-map and shuffle-reduce stage pair. The pair
// is an all-to-all barrier and is always planned as two stages.
func (d *datasetImpl) RandomShuffle(opts ...strata.StageOption) strata.Dataset {
	mapStage := createStage("RandomShuffleMap", strata.RandomShuffleMapKind, opts...)
	reduceStage := createStage("RandomShuffleReduce", strata.RandomShuffleReduceKind, opts...)
	return d.derive(mapStage, reduceStage)
}

// Repartition appends a stage redistributing Rows into numBlocks Blocks
func (d *datasetImpl) Repartition(numBlocks int) strata.Dataset {
	stage := createStage("Repartition", strata.RepartitionKind)
	stage.numBlocks = numBlocks
	return d.derive(stage)
}

// RandomizeBlockOrder appends a stage permuting the order of Blocks
func (d *datasetImpl) RandomizeBlockOrder() strata.Dataset {
	return d.derive(createStage("RandomizeBlockOrder", strata.RandomizeBlockOrderKind))
}

// Sort appends a stage globally ordering Rows by less
func (d *datasetImpl) Sort(less strata.SortLessOperation) strata.Dataset {
	stage := createStage("Sort", strata.SortKind)
	stage.lessFn = less
	stage.requiresOrder = true
	return d.derive(stage)
}

// Zip appends a stage joining Rows pairwise with other
func (d *datasetImpl) Zip(other strata.Dataset) strata.Dataset {
	stage := createStage("Zip", strata.ZipKind)
	stage.zipWith = other
	stage.requiresOrder = true
	return d.derive(stage)
}

// Write appends a stage handing output Blocks to sink
func (d *datasetImpl) Write(sink strata.Sink, opts ...strata.StageOption) strata.Dataset {
	stage := createStage("Write", strata.WriteKind, opts...)
	stage.sink = sink
	return d.derive(stage)
}

// Materialize executes this Dataset's pending stages and commits them into a
// snapshot. If the nearest materialized ancestor's snapshot is still retained,
// execution starts from its Blocks, consuming them under move semantics;
// otherwise the whole plan re-executes from the DataSource.
func (d *datasetImpl) Materialize(ctx context.Context) (strata.Dataset, error) {
	mat, _, err := d.materialize(ctx)
	if err != nil {
		return nil, err
	}
	return mat, nil
}

// Take materializes this Dataset and returns all output Rows in order
func (d *datasetImpl) Take(ctx context.Context) ([]strata.Row, error) {
	mat, blocks, err := d.materialize(ctx)
	if err != nil {
		return nil, err
	}
	// the materialized view is discarded, so its snapshot is reclaimed immediately
	d.store.Release(mat.plan.snapshotID)
	var rows []strata.Row
	for _, b := range blocks {
		rows = append(rows, b...)
	}
	return rows, nil
}

func (d *datasetImpl) materialize(ctx context.Context) (*datasetImpl, []strata.Block, error) {
	optimizer := createFusionOptimizer(d.conf.Fusion)
	var startBlocks []strata.Block
	var toRun []*stageImpl
	fromSnapshot := false
	if d.plan.snapshotID != "" {
		if blocks, err := d.store.Take(d.plan.snapshotID); err == nil {
			startBlocks = blocks
			toRun = optimizer.Optimize(d.plan.pending)
			fromSnapshot = true
			d.logger.Debugf("materializing from snapshot %s (%d pending stages)", d.plan.snapshotID, len(d.plan.pending))
		} else {
			d.logger.Debugf("snapshot %s consumed, re-executing from source: %v", d.plan.snapshotID, err)
		}
	}
	if !fromSnapshot {
		full := append([]*stageImpl{d.plan.readStage()}, d.plan.fullStages()...)
		toRun = optimizer.Optimize(full)
	}
	if err := validateStages(toRun); err != nil {
		return nil, nil, err
	}
	var sourceBlocks []strata.Block
	if !fromSnapshot && !d.source.IsLazy() {
		// a non-lazy source's blocks are durable: load them exactly once per
		// chain and serve every re-execution from the retained copy
		blocks, err := d.loadDurableSource(ctx)
		if err != nil {
			return nil, nil, err
		}
		sourceBlocks = blocks
	}
	runStats := &istats.RunStatistics{}
	runStats.Start(stageNames(toRun))
	exec := createExecutor(d.conf, d.logger, runStats)
	exec.sourceBlocks = sourceBlocks
	out, err := exec.execute(ctx, d.source, startBlocks, toRun)
	if err != nil {
		return nil, nil, err
	}
	runStats.Finish()
	id, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("failed to generate UUID: %v", err)
	}
	// snapshots of anything beyond a non-lazy source's own data follow move
	// semantics: the first descendant materialization consumes them
	consumable := d.source.IsLazy() || len(d.plan.fullStages()) > 0
	d.store.Put(id.String(), out, consumable)
	mat := &datasetImpl{
		conf:     d.conf,
		source:   d.source,
		sourceID: d.sourceID,
		plan:     d.plan.commit(toRun, id.String()),
		store:    d.store,
		logger:   d.logger,
		runStats: runStats,
	}
	return mat, out, nil
}

// loadDurableSource returns the non-lazy source's blocks, loading them on
// first use and retaining them non-consumably in the block store
func (d *datasetImpl) loadDurableSource(ctx context.Context) ([]strata.Block, error) {
	if blocks, err := d.store.Take(d.sourceID); err == nil {
		return blocks, nil
	}
	n, err := d.source.Analyze()
	if err != nil {
		return nil, err
	}
	blocks := make([]strata.Block, n)
	for i := 0; i < n; i++ {
		block, err := d.source.Load(ctx, i)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}
	d.store.Put(d.sourceID, blocks, false)
	return blocks, nil
}

// Plan exposes this Dataset's derivation history
func (d *datasetImpl) Plan() strata.StagePlan {
	return d.plan
}

// Stats returns the per-stage summary of the most recent execution, or ""
func (d *datasetImpl) Stats() string {
	if d.runStats == nil {
		return ""
	}
	return d.runStats.Summary()
}

// RuntimeStats returns detailed statistics for the most recent execution, or nil
func (d *datasetImpl) RuntimeStats() stats.RuntimeStatistics {
	if d.runStats == nil {
		return nil
	}
	return d.runStats
}

func validateStages(stages []*stageImpl) error {
	for _, stage := range stages {
		for _, sub := range stage.substages() {
			switch sub.kind {
			case strata.RepartitionKind:
				if sub.numBlocks < 1 {
					return serrors.InvalidRepartitionError{NumBlocks: sub.numBlocks}
				}
			case strata.WriteKind:
				if sub.sink == nil {
					return serrors.MissingSinkError{}
				}
			}
		}
	}
	return nil
}

func formatStageName(op string, name string) string {
	if name == "" {
		return op
	}
	return op + "(" + name + ")"
}
