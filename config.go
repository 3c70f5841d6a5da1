package strata

import (
	"github.com/strata-data/strata/logging"
)

// Config configures the optimization and execution of a Dataset. A nil Config
// selects DefaultConfig().
type Config struct {
	Fusion            FusionOptions // controls the plan optimizer
	NumWorkers        int           // parallelism for task-based stages. Defaults to runtime.NumCPU().
	SnapshotRetention int           // snapshots kept uncompressed before older ones are compressed
	LogLevel          int           // minimum log level, per the logging package. Defaults to WarnLevel.
}

// DefaultConfig returns a Config with every fusion optimization enabled and
// sensible execution defaults
func DefaultConfig() *Config {
	return &Config{
		Fusion:   DefaultFusionOptions(),
		LogLevel: logging.WarnLevel,
	}
}
