package strata

// OperatorKind describes the type of a Stage, used internally to control fusion and execution behaviour
type OperatorKind string

const (
	// ReadKind indicates that this stage sources Blocks from a DataSource
	ReadKind OperatorKind = "read"
	// MapKind indicates that this stage transforms individual Rows
	MapKind OperatorKind = "map"
	// MapBatchesKind indicates that this stage transforms whole Blocks of Rows at once
	MapBatchesKind OperatorKind = "map_batches"
	// RandomShuffleMapKind indicates that this stage buckets Rows for an all-to-all shuffle
	RandomShuffleMapKind OperatorKind = "random_shuffle_map"
	// RandomShuffleReduceKind indicates that this stage gathers shuffled buckets into Blocks
	RandomShuffleReduceKind OperatorKind = "random_shuffle_reduce"
	// RepartitionKind indicates that this stage redistributes Rows into a new number of Blocks
	RepartitionKind OperatorKind = "repartition"
	// RandomizeBlockOrderKind indicates that this stage permutes the order of Blocks
	RandomizeBlockOrderKind OperatorKind = "randomize_block_order"
	// WriteKind indicates that this stage hands Blocks to a Sink
	WriteKind OperatorKind = "write"
	// SortKind indicates that this stage globally sorts Rows
	SortKind OperatorKind = "sort"
	// ZipKind indicates that this stage joins Rows pairwise with another Dataset
	ZipKind OperatorKind = "zip"
)

// OneToOne returns true iff stages of this kind transform each input Block
// independently, without moving Rows between Blocks
func (k OperatorKind) OneToOne() bool {
	return k == MapKind || k == MapBatchesKind
}

// AllToAll returns true iff stages of this kind redistribute Rows across Blocks,
// acting as a barrier which fusion and reordering may not cross
func (k OperatorKind) AllToAll() bool {
	switch k {
	case RandomShuffleMapKind, RandomShuffleReduceKind, RepartitionKind, SortKind, ZipKind:
		return true
	default:
		return false
	}
}
