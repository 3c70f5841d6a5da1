package strata

import "context"

// DataSource is a source of Blocks which will be manipulated according to the
// transformations defined on a Dataset. Lazy sources are re-loaded every time the
// plan they feed is re-executed; non-lazy sources supply durable, in-memory data
// which survives snapshot consumption.
type DataSource interface {
	Name() string                                       // suffix for the read stage name, e.g. "Range" yields a "ReadRange" stage
	Analyze() (int, error)                              // the number of Blocks this source will produce
	Load(ctx context.Context, block int) (Block, error) // loads a single Block by index
	IsLazy() bool                                       // true iff re-execution re-loads from the underlying source
}

// Sink receives output Blocks from a Write stage
type Sink interface {
	WriteBlock(ctx context.Context, block int, data Block) error
}
