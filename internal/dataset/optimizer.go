package dataset

import (
	"github.com/strata-data/strata"
)

// fusionOptimizer rewrites a stage sequence into an equivalent, shorter one by
// reordering commutative stages and merging adjacent compatible stages. It is a
// pure, synchronous planning step: it never performs I/O and never errors, since
// an incompatible pair simply stays unfused.
type fusionOptimizer struct {
	opts strata.FusionOptions
}

// createFusionOptimizer is a factory for fusionOptimizers
func createFusionOptimizer(opts strata.FusionOptions) *fusionOptimizer {
	return &fusionOptimizer{opts: opts}
}

// Optimize returns the fused, reordered equivalent of stages. Optimizing an
// already-optimized sequence is a no-op.
func (o *fusionOptimizer) Optimize(stages []*stageImpl) []*stageImpl {
	if len(stages) == 0 {
		return []*stageImpl{}
	}
	if o.opts.ReorderStages {
		stages = o.reorder(stages)
	}
	return o.fuse(stages)
}

// reorder slides RandomizeBlockOrder stages rightward past consecutive
// one-to-one stages, exposing more fusable adjacent pairs. A randomize never
// moves past an all-to-all stage, and never past a Write. Write always remains
// last and keeps its immediate predecessor.
func (o *fusionOptimizer) reorder(stages []*stageImpl) []*stageImpl {
	out := make([]*stageImpl, len(stages))
	copy(out, stages)
	for i := 0; i < len(out); i++ {
		if out[i].kind != strata.RandomizeBlockOrderKind || len(out[i].fused) > 0 {
			continue
		}
		for j := i; j+1 < len(out) && out[j+1].kind.OneToOne(); j++ {
			out[j], out[j+1] = out[j+1], out[j]
		}
	}
	return out
}

// fuse walks the sequence left to right, merging each stage into the group
// before it whenever the pair is fusable
func (o *fusionOptimizer) fuse(stages []*stageImpl) []*stageImpl {
	result := make([]*stageImpl, 0, len(stages))
	var current *stageImpl
	for _, next := range stages {
		if current == nil {
			current = next
			continue
		}
		if o.canFuse(current, next) {
			current = fuseStages(current, next)
		} else {
			result = append(result, current)
			current = next
		}
	}
	if current != nil {
		result = append(result, current)
	}
	return result
}

// canFuse decides whether downstream may merge into the group ending in
// upstream, per the kind compatibility table, the compute-strategy fusability
// relation, and resource-request equivalence
func (o *fusionOptimizer) canFuse(upstream *stageImpl, downstream *stageImpl) bool {
	if !o.opts.FuseStages {
		return false
	}
	up := upstream.terminalKind()
	switch {
	case up == strata.ReadKind:
		if !o.opts.FuseReadStages {
			return false
		}
		switch downstream.kind {
		case strata.MapKind, strata.MapBatchesKind, strata.RandomizeBlockOrderKind, strata.WriteKind:
		case strata.RandomShuffleMapKind:
			if !o.opts.FuseShuffleStages {
				return false
			}
		default:
			return false
		}
	case up.OneToOne():
		switch downstream.kind {
		case strata.MapKind, strata.MapBatchesKind, strata.WriteKind:
		case strata.RandomShuffleMapKind:
			if !o.opts.FuseShuffleStages {
				return false
			}
		default:
			return false
		}
	default:
		// shuffle pairs are a barrier, and all-to-all, randomize and write
		// stages never fuse forward
		return false
	}
	if !computeFusable(upstream.compute, downstream.compute) {
		return false
	}
	return strata.EquivalentResources(upstream.resources, downstream.resources)
}

// computeFusable applies the task/actor-pool fusability relation. A Read stage
// carries no strategy and fuses with either.
func computeFusable(upstream strata.ComputeStrategy, downstream strata.ComputeStrategy) bool {
	if upstream == nil || downstream == nil {
		return true
	}
	return upstream.FusableWith(downstream)
}

// fuseStages merges downstream into the group ending in upstream, producing a
// single stage which executes both in one schedulable unit
func fuseStages(upstream *stageImpl, downstream *stageImpl) *stageImpl {
	subs := make([]*stageImpl, 0, len(upstream.substages())+len(downstream.substages()))
	subs = append(subs, upstream.substages()...)
	subs = append(subs, downstream.substages()...)
	compute := upstream.compute
	if compute == nil {
		compute = downstream.compute
	}
	resources := upstream.resources
	if len(resources) == 0 {
		resources = downstream.resources
	}
	return &stageImpl{
		name:          upstream.name + "->" + downstream.name,
		kind:          downstream.kind,
		compute:       compute,
		resources:     resources,
		requiresOrder: upstream.requiresOrder || downstream.requiresOrder,
		fused:         subs,
	}
}
