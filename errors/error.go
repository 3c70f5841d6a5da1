package errors

import (
	"fmt"
)

// NoSuchSnapshotError occurs when a snapshot is requested from the block store
// after it has been released or consumed by another materialization
type NoSuchSnapshotError struct{ ID string }

// Error returns a textual representation of this NoSuchSnapshotError
func (e NoSuchSnapshotError) Error() string {
	return fmt.Sprintf("Snapshot %s does not exist or has been consumed", e.ID)
}

// ZipLengthMismatchError occurs when Zip combines Datasets with differing row counts
type ZipLengthMismatchError struct {
	Left  int
	Right int
}

// Error returns a textual representation of this ZipLengthMismatchError
func (e ZipLengthMismatchError) Error() string {
	return fmt.Sprintf("Cannot zip %d rows with %d rows", e.Left, e.Right)
}

// InvalidRepartitionError occurs when Repartition is asked for a non-positive number of Blocks
type InvalidRepartitionError struct{ NumBlocks int }

// Error returns a textual representation of this InvalidRepartitionError
func (e InvalidRepartitionError) Error() string {
	return fmt.Sprintf("Cannot repartition into %d blocks", e.NumBlocks)
}

// MissingSinkError occurs when a Write stage is materialized without a Sink
type MissingSinkError struct{}

// Error returns a textual representation of this MissingSinkError
func (e MissingSinkError) Error() string {
	return "Write stage has no Sink"
}

// NoMoreBlocksError occurs when a Block is requested beyond the end of a DataSource
type NoMoreBlocksError struct{}

// Error returns a textual representation of this NoMoreBlocksError
func (e NoMoreBlocksError) Error() string {
	return "No more blocks"
}
