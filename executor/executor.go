// Package executor drives the execution of FullyBound Plans. A Plan is split into Stages of
// consecutive Operators on the same platform, and every Stage is handed to the Executor of its
// platform.
package executor

import (
	"context"
	"fmt"

	"github.com/go-sif/sifplan"
	serrors "github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/internal/stats"
	iutil "github.com/go-sif/sifplan/internal/util"
	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/metrics"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// runner holds the Executors created for one run, in creation order
type runner struct {
	job       *platform.Job
	snapshot  *platform.Snapshot
	executors map[string]platform.Executor
	order     []string
}

// Run executes a FullyBound Plan within a Job. Executors are created on first use, once per
// platform, and are all disposed before Run returns. Errors returned by an Executor are passed
// through unmodified.
func Run(ctx context.Context, job *platform.Job, p *plan.Plan, snapshot *platform.Snapshot) (sifplan.RuntimeStatistics, error) {
	if state := p.BindingState(); state != plan.FullyBound {
		return nil, serrors.NotFullyBoundError{State: string(state)}
	}
	stages, err := p.SplitStages()
	if err != nil {
		return nil, err
	}
	r := &runner{job: job, snapshot: snapshot, executors: make(map[string]platform.Executor)}
	rs := &stats.RunStatistics{}
	rs.Start(len(stages))
	runErr := r.runStages(ctx, stages, rs)
	disposeErr := r.dispose()
	rs.Finish()
	if runErr != nil {
		if disposeErr != nil {
			logging.Logger().Warn("unable to dispose executors after a failure",
				zap.String("job", job.ID.String()), zap.Error(disposeErr))
		}
		return rs, runErr
	}
	return rs, disposeErr
}

func (r *runner) runStages(ctx context.Context, stages []*plan.Stage, rs *stats.RunStatistics) error {
	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		exec, err := r.executorFor(stage.Platform())
		if err != nil {
			return err
		}
		logging.Logger().Debug("running stage",
			zap.String("job", r.job.ID.String()), zap.Int("stage", stage.ID()),
			zap.String("platform", stage.Platform()), zap.Int("operators", stage.Size()))
		rs.StartStage(i, stage.Platform())
		err = exec.Execute(ctx, stage)
		elapsed := rs.EndStage(i, stage.Size())
		metrics.StageLatency.WithLabelValues(stage.Platform()).Observe(elapsed.Seconds())
		if err != nil {
			metrics.StagesCounter.WithLabelValues(stage.Platform(), metrics.FailStatusLabel).Inc()
			return err
		}
		metrics.StagesCounter.WithLabelValues(stage.Platform(), metrics.SuccessStatusLabel).Inc()
	}
	return nil
}

func (r *runner) executorFor(name string) (platform.Executor, error) {
	if exec, ok := r.executors[name]; ok {
		return exec, nil
	}
	p, ok := r.snapshot.Platform(name)
	if !ok {
		return nil, fmt.Errorf("platform %s is not registered", name)
	}
	factory := p.ExecutorFactory()
	if !p.IsExecutable() || factory == nil {
		return nil, fmt.Errorf("platform %s cannot execute operators", name)
	}
	exec, err := factory(r.job)
	if err != nil {
		return nil, err
	}
	r.executors[name] = exec
	r.order = append(r.order, name)
	return exec, nil
}

// dispose disposes every Executor, in reverse creation order, combining their errors
func (r *runner) dispose() error {
	var res *multierror.Error
	for i := len(r.order) - 1; i >= 0; i-- {
		if err := r.executors[r.order[i]].Dispose(); err != nil {
			res = multierror.Append(res, fmt.Errorf("unable to dispose the %s executor: %w", r.order[i], err))
		}
	}
	if res == nil {
		return nil
	}
	res.ErrorFormat = iutil.FormatMultiError
	return res
}
