package sifplan

import "time"

// RuntimeStatistics facilitates the retrieval of statistics about a running Job
type RuntimeStatistics interface {
	// GetStartTime returns the start time of the Job
	GetStartTime() time.Time
	// GetRuntime returns the running time of the Job
	GetRuntime() time.Duration
	// GetNumOperatorsProcessed returns the number of Operators which have been run so far, counted by Stage
	GetNumOperatorsProcessed() []int64
	// GetStagePlatforms returns the platform of every Stage which has started
	GetStagePlatforms() []string
	// GetStageRuntimes returns all recorded Stage runtimes
	GetStageRuntimes() []time.Duration
}

// EnumerationStatistics facilitates the retrieval of statistics about a plan enumeration
type EnumerationStatistics interface {
	// GetRuntime returns the duration of the enumeration
	GetRuntime() time.Duration
	// GetSteps returns the number of replacements applied, including those of loop bodies
	GetSteps() int
	// GetCandidates returns the number of candidate replacements costed
	GetCandidates() int
	// GetRejections returns the number of candidate replacements discarded
	GetRejections() int
	// GetStepRuntimes returns the duration of every applied step
	GetStepRuntimes() []time.Duration
}
