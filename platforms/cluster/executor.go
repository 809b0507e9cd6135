package cluster

import (
	"context"

	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/gofrs/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// executor runs the Operators of a Stage level by level. Operators whose producers have all
// completed run in parallel, at most cluster.parallelism at a time.
type executor struct {
	id          uuid.UUID
	job         *platform.Job
	session     *Session
	interpreter *platform.Interpreter
	parallelism int64
	completed   *atomic.Int64
}

func createExecutor(job *platform.Job) (platform.Executor, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	s, err := AcquireSession(job)
	if err != nil {
		return nil, err
	}
	parallelism := job.Config.GetInt64("cluster.parallelism", 4)
	if parallelism < 1 {
		parallelism = 1
	}
	return &executor{
		id:          id,
		job:         job,
		session:     s,
		interpreter: platform.NewInterpreter(job),
		parallelism: parallelism,
		completed:   atomic.NewInt64(0),
	}, nil
}

// levels groups the Operators of a Stage so that every Operator comes after the Operators of
// the same Stage it consumes from
func levels(stage *plan.Stage) [][]*plan.Operator {
	depth := make(map[*plan.Operator]int, stage.Size())
	var res [][]*plan.Operator
	for _, op := range stage.Operators() {
		d := 0
		for _, producer := range op.Producers() {
			if pd, ok := depth[producer]; ok && pd+1 > d {
				d = pd + 1
			}
		}
		depth[op] = d
		for len(res) <= d {
			res = append(res, nil)
		}
		res[d] = append(res[d], op)
	}
	return res
}

// Execute implements platform.Executor
func (e *executor) Execute(ctx context.Context, stage *plan.Stage) error {
	sem := semaphore.NewWeighted(e.parallelism)
	for level, ops := range levels(stage) {
		g, gctx := errgroup.WithContext(ctx)
		for _, op := range ops {
			op := op
			if err := sem.Acquire(gctx, 1); err != nil {
				// a running operator failed or the context is done
				break
			}
			g.Go(func() error {
				defer sem.Release(1)
				logging.Logger().Debug("running operator",
					zap.String("executor", e.id.String()), zap.String("session", e.session.ID().String()),
					zap.Int("stage", stage.ID()), zap.Int("level", level), zap.String("operator", op.String()))
				if err := e.interpreter.Run(gctx, op); err != nil {
					return err
				}
				e.completed.Inc()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Dispose implements platform.Executor
func (e *executor) Dispose() error {
	logging.Logger().Debug("disposing cluster executor",
		zap.String("executor", e.id.String()), zap.Int64("operators", e.completed.Load()))
	ReleaseSession(e.job, e.session)
	return nil
}
