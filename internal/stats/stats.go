package stats

import (
	"fmt"
	"strings"
	"time"
)

// RunStatistics contains statistics about an executed Strata plan
type RunStatistics struct {
	started         bool
	finished        bool
	startTime       time.Time
	totalRuntime    time.Duration
	stageNames      []string
	blocksProcessed []int64
	rowsProcessed   []int64
	stageRuntimes   []time.Duration

	// temp vars
	currentStageStartTime time.Time
}

// Start triggers statistics tracking, if it hasn't been started already
func (rs *RunStatistics) Start(stageNames []string) {
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
		rs.stageNames = stageNames
		rs.blocksProcessed = make([]int64, len(stageNames))
		rs.rowsProcessed = make([]int64, len(stageNames))
		rs.stageRuntimes = make([]time.Duration, len(stageNames))
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.finished = true
	rs.totalRuntime = time.Since(rs.startTime)
}

// StartStage tracks the beginning of a Stage
func (rs *RunStatistics) StartStage() {
	rs.currentStageStartTime = time.Now()
}

// EndStage tracks the completion of a Stage
func (rs *RunStatistics) EndStage(idx int) {
	rs.stageRuntimes[idx] = time.Since(rs.currentStageStartTime)
}

// IncrementBlocksProcessed tracks Blocks processed by a Stage
func (rs *RunStatistics) IncrementBlocksProcessed(idx int, blocks int64) {
	rs.blocksProcessed[idx] += blocks
}

// IncrementRowsProcessed tracks Rows processed by a Stage
func (rs *RunStatistics) IncrementRowsProcessed(idx int, rows int64) {
	rs.rowsProcessed[idx] += rows
}

// GetStartTime returns the start time of the execution
func (rs *RunStatistics) GetStartTime() time.Time {
	return rs.startTime
}

// GetRuntime returns the total running time of the execution
func (rs *RunStatistics) GetRuntime() time.Duration {
	if !rs.finished {
		return time.Since(rs.startTime)
	}
	return rs.totalRuntime
}

// GetStageNames returns the names of the executed stages, in execution order
func (rs *RunStatistics) GetStageNames() []string {
	return rs.stageNames
}

// GetNumBlocksProcessed returns the number of Blocks processed, counted by stage
func (rs *RunStatistics) GetNumBlocksProcessed() []int64 {
	return rs.blocksProcessed
}

// GetNumRowsProcessed returns the number of Rows processed, counted by stage
func (rs *RunStatistics) GetNumRowsProcessed() []int64 {
	return rs.rowsProcessed
}

// GetStageRuntimes returns the recorded runtime of each executed stage
func (rs *RunStatistics) GetStageRuntimes() []time.Duration {
	return rs.stageRuntimes
}

// Summary returns a human-readable per-stage summary of the execution. Each
// executed stage contributes one line beginning with " <StageName>:", where a
// fused stage's name is the "->"-joined concatenation of its original names.
func (rs *RunStatistics) Summary() string {
	var sb strings.Builder
	for i, name := range rs.stageNames {
		fmt.Fprintf(&sb, " %s: %d/%d blocks executed in %s, %d rows\n",
			name, rs.blocksProcessed[i], rs.blocksProcessed[i], rs.stageRuntimes[i], rs.rowsProcessed[i])
	}
	return sb.String()
}
