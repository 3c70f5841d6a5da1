package strata

import (
	"context"

	"github.com/strata-data/strata/stats"
)

// A Dataset is a tool for constructing a chain of lazy transformations over a
// DataSource. Derivations are recorded as pending stages on a StagePlan and only
// executed when the Dataset is materialized.
type Dataset interface {
	Map(name string, fn MapOperation, opts ...StageOption) Dataset        // Map transforms Rows one at a time
	MapBatches(name string, fn BatchOperation, opts ...StageOption) Dataset // MapBatches transforms whole Blocks at once
	RandomShuffle(opts ...StageOption) Dataset                            // RandomShuffle globally permutes Rows via an all-to-all exchange
	Repartition(numBlocks int) Dataset                                    // Repartition redistributes Rows into numBlocks Blocks. Output order is not guaranteed.
	RandomizeBlockOrder() Dataset                                         // RandomizeBlockOrder permutes the order of Blocks without touching Rows
	Sort(less SortLessOperation) Dataset                                  // Sort globally orders Rows. Requires upstream order preservation.
	Zip(other Dataset) Dataset                                            // Zip joins Rows pairwise with another Dataset. Requires upstream order preservation.
	Write(sink Sink, opts ...StageOption) Dataset                         // Write hands output Blocks to a Sink when materialized
	Materialize(ctx context.Context) (Dataset, error)                     // Materialize executes pending stages, committing them into a snapshot
	Take(ctx context.Context) ([]Row, error)                              // Take materializes and returns all output Rows
	Plan() StagePlan                                                      // Plan exposes this Dataset's derivation history
	Stats() string                                                        // Stats returns the per-stage summary of the most recent execution, or ""
	RuntimeStats() stats.RuntimeStatistics                                // RuntimeStats returns detailed statistics for the most recent execution, or nil
}

// StagePlan exposes a Dataset's derivation history for introspection: the stages
// already folded into a materialized snapshot, the stages appended since, and the
// fused sequence produced by the most recent optimization.
type StagePlan interface {
	CommittedStageNames() []string
	PendingStageNames() []string
	LastOptimizedStageNames() []string
	RequirePreserveOrder() bool // true iff a downstream stage demands that upstream Row order be retained
}
