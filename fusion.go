package strata

// FusionOptions configures the plan optimizer. All flag combinations are legal;
// they only change how aggressively adjacent stages are merged, never whether a
// plan is executable.
type FusionOptions struct {
	FuseStages        bool // enables stage fusion globally
	FuseReadStages    bool // allows a Read stage to merge into the stage which follows it
	FuseShuffleStages bool // allows stages to merge into a following shuffle-map stage
	ReorderStages     bool // allows commuting RandomizeBlockOrder stages past order-insensitive stages
}

// DefaultFusionOptions returns a FusionOptions with every optimization enabled
func DefaultFusionOptions() FusionOptions {
	return FusionOptions{
		FuseStages:        true,
		FuseReadStages:    true,
		FuseShuffleStages: true,
		ReorderStages:     true,
	}
}
