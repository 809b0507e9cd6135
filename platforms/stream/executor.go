package stream

import (
	"context"

	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// executor evaluates the operators of a Stage one after the other
type executor struct {
	id          uuid.UUID
	job         *platform.Job
	interpreter *platform.Interpreter
}

func createExecutor(job *platform.Job) (platform.Executor, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &executor{id: id, job: job, interpreter: platform.NewInterpreter(job)}, nil
}

// Execute implements platform.Executor
func (e *executor) Execute(ctx context.Context, stage *plan.Stage) error {
	for _, op := range stage.Operators() {
		logging.Logger().Debug("running operator",
			zap.String("executor", e.id.String()), zap.Int("stage", stage.ID()), zap.String("operator", op.String()))
		if err := e.interpreter.Run(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// Dispose implements platform.Executor
func (e *executor) Dispose() error {
	return nil
}
