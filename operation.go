package strata

// MapOperation - A generic function for transforming a single Row, producing its replacement
type MapOperation func(row Row) (Row, error)

// BatchOperation - A generic function for transforming a whole Block of Rows at once
type BatchOperation func(block Block) (Block, error)

// SortLessOperation - A generic function reporting whether Row a orders before Row b
type SortLessOperation func(a Row, b Row) bool

// StageConfig carries per-stage execution settings supplied at Dataset derivation time
type StageConfig struct {
	Compute   ComputeStrategy
	Resources ResourceRequest
}

// StageOption mutates a StageConfig
type StageOption func(*StageConfig)

// WithCompute sets the ComputeStrategy for a stage
func WithCompute(c ComputeStrategy) StageOption {
	return func(conf *StageConfig) {
		conf.Compute = c
	}
}

// WithResources sets the ResourceRequest for a stage
func WithResources(r ResourceRequest) StageOption {
	return func(conf *StageConfig) {
		conf.Resources = r
	}
}
