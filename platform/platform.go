package platform

import (
	"context"

	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
)

// Platform is an execution engine which can realize logical Operators. Platforms are
// process-wide singletons, initialized lazily on first reference.
type Platform interface {
	Name() string                          // Name returns the unique name of this Platform
	Mappings() []*mapping.Mapping          // Mappings returns the ordered Mapping rules this Platform contributes
	CreateChannelManager() channel.Manager // CreateChannelManager returns this Platform's channel negotiation policy
	IsExecutable() bool                    // IsExecutable returns false for purely logical placeholder Platforms
	ExecutorFactory() ExecutorFactory      // ExecutorFactory produces Executors for this Platform's Stages
}

// An Executor runs the Stages of a FullyBound Plan which are bound to its Platform.
// Execution may be multi-threaded or distributed, and may block.
type Executor interface {
	Execute(ctx context.Context, stage *plan.Stage) error // Execute runs one Stage to completion
	Dispose() error                                       // Dispose releases the resources of this Executor
}

// ExecutorFactory creates an Executor for a Job
type ExecutorFactory func(job *Job) (Executor, error)

// OperatorRunner applies the user functions of an execution Operator to its input datasets,
// producing one dataset per output slot. Sources receive no inputs.
type OperatorRunner interface {
	Run(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error)
}

// RunnerFunc adapts a function to the OperatorRunner interface
type RunnerFunc func(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error)

// Run implements OperatorRunner
func (f RunnerFunc) Run(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error) {
	return f(ctx, op, inputs)
}
