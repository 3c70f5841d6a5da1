package stats

import "time"

// RuntimeStatistics facilitates the retrieval of statistics about an executed Strata plan
type RuntimeStatistics interface {
	// GetStartTime returns the start time of the execution
	GetStartTime() time.Time
	// GetRuntime returns the total running time of the execution
	GetRuntime() time.Duration
	// GetStageNames returns the names of the executed stages, fused names included, in execution order
	GetStageNames() []string
	// GetNumBlocksProcessed returns the number of Blocks processed, counted by stage
	GetNumBlocksProcessed() []int64
	// GetNumRowsProcessed returns the number of Rows processed, counted by stage
	GetNumRowsProcessed() []int64
	// GetStageRuntimes returns the recorded runtime of each executed stage
	GetStageRuntimes() []time.Duration
	// Summary returns a human-readable per-stage summary of the execution
	Summary() string
}
