package dataset

import (
	"github.com/strata-data/strata"
)

// executionPlan records a Dataset's derivation history as an append-only stage
// log split at a commit pointer: stages already folded into a materialized
// snapshot, and stages appended since. Plans are immutable: derivation and
// commits produce new plans sharing the committed prefix.
type executionPlan struct {
	source        strata.DataSource
	committed     []*stageImpl
	pending       []*stageImpl
	lastOptimized []*stageImpl
	snapshotID    string // block-store key of the snapshot backing committed; "" if none
}

// createPlan produces an empty plan over a DataSource. The read stage itself is
// synthesized at optimization time, so a fresh plan holds no stages.
func createPlan(source strata.DataSource) *executionPlan {
	return &executionPlan{source: source}
}

// derive returns a new plan with stages appended to the pending suffix
func (p *executionPlan) derive(stages ...*stageImpl) *executionPlan {
	pending := make([]*stageImpl, 0, len(p.pending)+len(stages))
	pending = append(pending, p.pending...)
	pending = append(pending, stages...)
	return &executionPlan{
		source:        p.source,
		committed:     p.committed,
		pending:       pending,
		lastOptimized: p.lastOptimized,
		snapshotID:    p.snapshotID,
	}
}

// commit returns a new plan with the pending suffix folded into the committed
// prefix, recording the optimizer's output and the snapshot backing it
func (p *executionPlan) commit(optimized []*stageImpl, snapshotID string) *executionPlan {
	committed := make([]*stageImpl, 0, len(p.committed)+len(p.pending))
	committed = append(committed, p.committed...)
	committed = append(committed, p.pending...)
	return &executionPlan{
		source:        p.source,
		committed:     committed,
		pending:       nil,
		lastOptimized: optimized,
		snapshotID:    snapshotID,
	}
}

// fullStages returns committed followed by pending stages
func (p *executionPlan) fullStages() []*stageImpl {
	full := make([]*stageImpl, 0, len(p.committed)+len(p.pending))
	full = append(full, p.committed...)
	full = append(full, p.pending...)
	return full
}

// readStage synthesizes the Read stage for this plan's DataSource
func (p *executionPlan) readStage() *stageImpl {
	return createStage("Read"+p.source.Name(), strata.ReadKind)
}

// CommittedStageNames returns the names of stages already folded into a snapshot
func (p *executionPlan) CommittedStageNames() []string {
	return stageNames(p.committed)
}

// PendingStageNames returns the names of stages appended since the last snapshot
func (p *executionPlan) PendingStageNames() []string {
	return stageNames(p.pending)
}

// LastOptimizedStageNames returns the stage names produced by the most recent
// optimization, or nil if the plan has never been optimized
func (p *executionPlan) LastOptimizedStageNames() []string {
	if p.lastOptimized == nil {
		return nil
	}
	return stageNames(p.lastOptimized)
}

// RequirePreserveOrder returns true iff a stage anywhere in the plan demands
// that upstream row order be retained. The requirement propagates right to
// left: a Sort or Zip downstream obliges every stage before it to preserve
// order, whereas a plan ending in Repartition with no such consumer does not.
func (p *executionPlan) RequirePreserveOrder() bool {
	full := p.fullStages()
	for i := len(full) - 1; i >= 0; i-- {
		if full[i].requiresOrder {
			return true
		}
	}
	return false
}
