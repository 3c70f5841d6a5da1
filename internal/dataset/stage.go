package dataset

import (
	"github.com/strata-data/strata"
)

// stageImpl is one logical transformation step in a Dataset's derivation plan.
// A fused stage carries its original stages, upstream first, in fused.
type stageImpl struct {
	name          string
	kind          strata.OperatorKind
	compute       strata.ComputeStrategy // nil for Read stages, which adopt their downstream's strategy
	resources     strata.ResourceRequest
	requiresOrder bool // set for stages whose semantics demand upstream row order

	mapFn     strata.MapOperation
	batchFn   strata.BatchOperation
	lessFn    strata.SortLessOperation
	numBlocks int // repartition target
	sink      strata.Sink
	zipWith   strata.Dataset

	fused []*stageImpl
}

// createStage is a factory for Stages. Non-read stages default to task-based compute.
func createStage(name string, kind strata.OperatorKind, opts ...strata.StageOption) *stageImpl {
	conf := &strata.StageConfig{}
	for _, opt := range opts {
		opt(conf)
	}
	if conf.Compute == nil && kind != strata.ReadKind {
		conf.Compute = &strata.TaskCompute{}
	}
	return &stageImpl{
		name:      name,
		kind:      kind,
		compute:   conf.Compute,
		resources: conf.Resources,
	}
}

// Name returns the name of this Stage, which for a fused Stage is the
// "->"-joined concatenation of the original stage names
func (s *stageImpl) Name() string {
	return s.name
}

// Kind returns the OperatorKind of this Stage. A fused Stage reports the kind
// of its final original stage.
func (s *stageImpl) Kind() strata.OperatorKind {
	return s.kind
}

// substages returns the original stages composing this Stage, upstream first
func (s *stageImpl) substages() []*stageImpl {
	if len(s.fused) > 0 {
		return s.fused
	}
	return []*stageImpl{s}
}

// terminalKind returns the kind of this Stage's final original stage
func (s *stageImpl) terminalKind() strata.OperatorKind {
	subs := s.substages()
	return subs[len(subs)-1].kind
}

func stageNames(stages []*stageImpl) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.name
	}
	return names
}
