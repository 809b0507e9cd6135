package testing

import (
	"context"
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/executor"
	"github.com/go-sif/sifplan/optimizer"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/go-sif/sifplan/platforms/basic"
	"github.com/go-sif/sifplan/platforms/cluster"
	"github.com/go-sif/sifplan/platforms/stream"
)

// Result is the outcome of LocalRunPlan
type Result struct {
	Optimization *optimizer.Result
	Statistics   sifplan.RuntimeStatistics
}

// LocalRegistry returns a Registry holding the built-in platforms, in their canonical order
func LocalRegistry() *platform.Registry {
	return platform.NewRegistry(basic.Instance(), stream.Instance(), cluster.Instance())
}

// LocalRunPlan optimizes a Plan against the built-in platforms and runs it in the local process.
// The cluster platform runs with a local master unless conf says otherwise.
func LocalRunPlan(ctx context.Context, p *plan.Plan, runner platform.OperatorRunner, conf *config.Configuration) (result *Result, err error) {
	// handle panics
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = anErr
			} else {
				err = fmt.Errorf("panic while running plan: %v", r)
			}
		}
	}()

	// platform defaults are merged into config.Default() when the platforms are first created
	registry := LocalRegistry()
	if conf == nil {
		conf = config.Default().Fork()
	}
	if _, ok := conf.GetOptionalString("cluster.master"); !ok {
		conf.Set("cluster.master", "local")
	}
	if _, ok := conf.GetOptionalString("cluster.app.name"); !ok {
		conf.Set("cluster.app.name", "sifplan-test")
	}
	snapshot := registry.Snapshot()
	optimized, err := optimizer.Optimize(p, snapshot, &optimizer.Options{Config: conf})
	if err != nil {
		return nil, err
	}
	job, err := platform.NewJob("local", conf, runner)
	if err != nil {
		return nil, err
	}
	defer job.Close()
	stats, err := executor.Run(ctx, job, optimized.Plan, snapshot)
	if err != nil {
		return nil, err
	}
	return &Result{Optimization: optimized, Statistics: stats}, nil
}
