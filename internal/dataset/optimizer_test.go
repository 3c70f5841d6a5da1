package dataset

import (
	"testing"

	"github.com/strata-data/strata"
	"github.com/stretchr/testify/require"
)

func readRangeStage() *stageImpl {
	return createStage("ReadRange", strata.ReadKind)
}

func mapBatchesStage(name string, opts ...strata.StageOption) *stageImpl {
	s := createStage("MapBatches("+name+")", strata.MapBatchesKind, opts...)
	s.batchFn = func(block strata.Block) (strata.Block, error) { return block, nil }
	return s
}

func randomizeStage() *stageImpl {
	return createStage("RandomizeBlockOrder", strata.RandomizeBlockOrderKind)
}

func repartitionStage(n int) *stageImpl {
	s := createStage("Repartition", strata.RepartitionKind)
	s.numBlocks = n
	return s
}

func shufflePair(opts ...strata.StageOption) []*stageImpl {
	return []*stageImpl{
		createStage("RandomShuffleMap", strata.RandomShuffleMapKind, opts...),
		createStage("RandomShuffleReduce", strata.RandomShuffleReduceKind, opts...),
	}
}

func writeStage() *stageImpl {
	return createStage("Write", strata.WriteKind)
}

func requireStageNames(t *testing.T, stages []*stageImpl, names []string) {
	t.Helper()
	require.Equal(t, names, stageNames(stages))
}

func TestOptimizeEmptyPlan(t *testing.T) {
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	require.Empty(t, o.Optimize(nil))
}

func TestOptimizeFuseChain(t *testing.T) {
	// a chain of compatible task-based stages collapses to a single stage
	stages := []*stageImpl{
		readRangeStage(),
		mapBatchesStage("a"),
		mapBatchesStage("b"),
		mapBatchesStage("c"),
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(a)->MapBatches(b)->MapBatches(c)",
	})

	// with read fusion off, the read stays separate
	opts := strata.DefaultFusionOptions()
	opts.FuseReadStages = false
	o = createFusionOptimizer(opts)
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange",
		"MapBatches(a)->MapBatches(b)->MapBatches(c)",
	})
}

func TestOptimizeFuseFlagMatrix(t *testing.T) {
	buildStages := func() []*stageImpl {
		stages := []*stageImpl{
			readRangeStage(),
			mapBatchesStage("dummy_map"),
			mapBatchesStage("dummy_map"),
		}
		return append(stages, shufflePair()...)
	}

	opts := strata.FusionOptions{FuseStages: true, FuseReadStages: true, FuseShuffleStages: true}
	requireStageNames(t, createFusionOptimizer(opts).Optimize(buildStages()), []string{
		"ReadRange->MapBatches(dummy_map)->MapBatches(dummy_map)->RandomShuffleMap",
		"RandomShuffleReduce",
	})

	opts = strata.FusionOptions{FuseStages: true, FuseReadStages: false, FuseShuffleStages: true}
	requireStageNames(t, createFusionOptimizer(opts).Optimize(buildStages()), []string{
		"ReadRange",
		"MapBatches(dummy_map)->MapBatches(dummy_map)->RandomShuffleMap",
		"RandomShuffleReduce",
	})

	opts = strata.FusionOptions{FuseStages: true, FuseReadStages: false, FuseShuffleStages: false}
	requireStageNames(t, createFusionOptimizer(opts).Optimize(buildStages()), []string{
		"ReadRange",
		"MapBatches(dummy_map)->MapBatches(dummy_map)",
		"RandomShuffleMap",
		"RandomShuffleReduce",
	})

	opts = strata.FusionOptions{}
	requireStageNames(t, createFusionOptimizer(opts).Optimize(buildStages()), []string{
		"ReadRange",
		"MapBatches(dummy_map)",
		"MapBatches(dummy_map)",
		"RandomShuffleMap",
		"RandomShuffleReduce",
	})
}

func TestOptimizeReorderRandomize(t *testing.T) {
	// randomize slides past the map, letting the read fuse with it
	stages := []*stageImpl{
		readRangeStage(),
		randomizeStage(),
		mapBatchesStage("dummy_map"),
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(dummy_map)",
		"RandomizeBlockOrder",
	})
}

func TestOptimizeReorderBlockedByRepartition(t *testing.T) {
	// randomize never commutes past an all-to-all stage
	stages := []*stageImpl{
		readRangeStage(),
		randomizeStage(),
		repartitionStage(10),
		mapBatchesStage("dummy_map"),
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->RandomizeBlockOrder",
		"Repartition",
		"MapBatches(dummy_map)",
	})
}

func TestOptimizeWriteFusion(t *testing.T) {
	stages := []*stageImpl{
		readRangeStage(),
		mapBatchesStage("f"),
		writeStage(),
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(f)->Write",
	})

	stages = []*stageImpl{readRangeStage(), mapBatchesStage("f")}
	stages = append(stages, shufflePair()...)
	stages = append(stages, mapBatchesStage("g"), writeStage())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(f)->RandomShuffleMap",
		"RandomShuffleReduce",
		"MapBatches(g)->Write",
	})
}

func TestOptimizeWriteNeverReordered(t *testing.T) {
	// randomize switches places with the map but stays ahead of the write
	stages := []*stageImpl{
		readRangeStage(),
		randomizeStage(),
		mapBatchesStage("f"),
		writeStage(),
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(f)",
		"RandomizeBlockOrder",
		"Write",
	})
}

func TestOptimizeActorBoundary(t *testing.T) {
	// a read fuses into an actor-pool stage, but an actor-pool stage never
	// fuses with a task-based one, in either direction
	pool := strata.WithCompute(&strata.ActorPoolCompute{MinSize: 1, MaxSize: 2})
	stages := []*stageImpl{
		readRangeStage(),
		mapBatchesStage("dummy_map", pool),
		mapBatchesStage("dummy_map"),
	}
	stages = append(stages, shufflePair()...)
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(dummy_map)",
		"MapBatches(dummy_map)->RandomShuffleMap",
		"RandomShuffleReduce",
	})
}

func TestOptimizeActorPoolPairFuses(t *testing.T) {
	// adjacent actor-pool stages with identical pool parameters merge
	pool := strata.WithCompute(&strata.ActorPoolCompute{MinSize: 1, MaxSize: 2})
	stages := []*stageImpl{
		readRangeStage(),
		mapBatchesStage("a", pool),
		mapBatchesStage("b", pool),
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(a)->MapBatches(b)",
	})

	// differing pool parameters keep the stages apart
	wider := strata.WithCompute(&strata.ActorPoolCompute{MinSize: 1, MaxSize: 8})
	stages = []*stageImpl{
		readRangeStage(),
		mapBatchesStage("a", pool),
		mapBatchesStage("b", wider),
	}
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(a)",
		"MapBatches(b)",
	})
}

func TestOptimizeResourceMismatchBlocksFusion(t *testing.T) {
	stages := []*stageImpl{
		readRangeStage(),
		mapBatchesStage("dummy_map"),
		mapBatchesStage("dummy_map", strata.WithResources(strata.ResourceRequest{"num_cpus": strata.Amount(0.75)})),
	}
	stages = append(stages, shufflePair()...)
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	requireStageNames(t, o.Optimize(stages), []string{
		"ReadRange->MapBatches(dummy_map)",
		"MapBatches(dummy_map)",
		"RandomShuffleMap",
		"RandomShuffleReduce",
	})
}

func TestOptimizeEquivalentResourcesFuse(t *testing.T) {
	equivalent := []strata.ResourceRequest{
		nil,
		{"blah": strata.Amount(0)},
		{"blah": nil},
		{"num_cpus": nil},
	}
	o := createFusionOptimizer(strata.DefaultFusionOptions())
	for _, ra := range equivalent {
		for _, rb := range equivalent {
			stages := []*stageImpl{
				readRangeStage(),
				mapBatchesStage("dummy_map", strata.WithResources(ra)),
				mapBatchesStage("dummy_map", strata.WithResources(rb)),
			}
			requireStageNames(t, o.Optimize(stages), []string{
				"ReadRange->MapBatches(dummy_map)->MapBatches(dummy_map)",
			})
		}
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	combos := []strata.FusionOptions{
		strata.DefaultFusionOptions(),
		{FuseStages: true},
		{FuseStages: true, FuseShuffleStages: true},
		{ReorderStages: true},
		{},
	}
	for _, opts := range combos {
		stages := []*stageImpl{
			readRangeStage(),
			randomizeStage(),
			mapBatchesStage("a"),
			mapBatchesStage("b"),
		}
		stages = append(stages, shufflePair()...)
		o := createFusionOptimizer(opts)
		once := o.Optimize(stages)
		twice := o.Optimize(once)
		require.Equal(t, stageNames(once), stageNames(twice))
	}
}

func TestOptimizeDisabledIsIdentity(t *testing.T) {
	stages := []*stageImpl{
		readRangeStage(),
		mapBatchesStage("a"),
		mapBatchesStage("b"),
	}
	o := createFusionOptimizer(strata.FusionOptions{})
	requireStageNames(t, o.Optimize(stages), []string{"ReadRange", "MapBatches(a)", "MapBatches(b)"})
}
