package strata

import "fmt"

// ComputeStrategy describes how a Stage's units of work are dispatched to workers.
// Fusion never crosses between task-based and actor-pool-based execution.
type ComputeStrategy interface {
	Describe() string                        // a human-readable description of this strategy, for logging
	FusableWith(other ComputeStrategy) bool  // whether a Stage using this strategy may fuse with a Stage using other
}

// TaskCompute dispatches each Block as an independently-scheduled task on a shared worker pool
type TaskCompute struct{}

// Describe returns a human-readable description of this TaskCompute
func (c *TaskCompute) Describe() string {
	return "tasks"
}

// FusableWith returns true iff other is also task-based
func (c *TaskCompute) FusableWith(other ComputeStrategy) bool {
	_, ok := other.(*TaskCompute)
	return ok
}

// ActorPoolCompute dispatches Blocks to a pool of long-lived, persistent workers
type ActorPoolCompute struct {
	MinSize int // minimum number of persistent workers in the pool
	MaxSize int // maximum number of persistent workers in the pool
}

// Describe returns a human-readable description of this ActorPoolCompute
func (c *ActorPoolCompute) Describe() string {
	return fmt.Sprintf("actor_pool(%d,%d)", c.MinSize, c.MaxSize)
}

// FusableWith returns true iff other is an ActorPoolCompute with identical pool parameters
func (c *ActorPoolCompute) FusableWith(other ComputeStrategy) bool {
	o, ok := other.(*ActorPoolCompute)
	return ok && o.MinSize == c.MinSize && o.MaxSize == c.MaxSize
}
