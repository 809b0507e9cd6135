package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/config"
	serrors "github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var intType = sifplan.DataSetOf(sifplan.IntElement)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	events []string
	fail   map[string]error
}

type recordingPlatform struct {
	name       string
	executable bool
	rec        *recorder
	created    int
}

func (p *recordingPlatform) Name() string { return p.name }
func (p *recordingPlatform) Mappings() []*mapping.Mapping { return nil }
func (p *recordingPlatform) IsExecutable() bool { return p.executable }
func (p *recordingPlatform) CreateChannelManager() channel.Manager {
	return channel.NewStaticManager(p.name, nil, nil)
}
func (p *recordingPlatform) ExecutorFactory() platform.ExecutorFactory {
	return func(job *platform.Job) (platform.Executor, error) {
		p.created++
		return &recordingExecutor{platform: p.name, rec: p.rec}, nil
	}
}

type recordingExecutor struct {
	platform string
	rec      *recorder
}

func (e *recordingExecutor) Execute(ctx context.Context, stage *plan.Stage) error {
	e.rec.events = append(e.rec.events, fmt.Sprintf("execute %s %d", e.platform, stage.Size()))
	return e.rec.fail["execute "+e.platform]
}

func (e *recordingExecutor) Dispose() error {
	e.rec.events = append(e.rec.events, "dispose "+e.platform)
	return e.rec.fail["dispose "+e.platform]
}

// createBoundPlan chains execution Operators on the given platforms, from a source to a sink
func createBoundPlan(t *testing.T, platforms ...string) *plan.Plan {
	var ops []*plan.Operator
	for i, name := range platforms {
		var op *plan.Operator
		switch i {
		case 0:
			op = plan.NewExecutionOperator(sifplan.CollectionSourceKind, name, name+".collection_source", nil, nil, []sifplan.DataSetType{intType})
		case len(platforms) - 1:
			op = plan.NewExecutionOperator(sifplan.LocalCallbackSinkKind, name, name+".local_callback_sink", nil, []sifplan.DataSetType{intType}, nil)
		default:
			op = plan.NewExecutionOperator(sifplan.MapKind, name, name+".map", nil, []sifplan.DataSetType{intType}, []sifplan.DataSetType{intType})
		}
		if i > 0 {
			require.Nil(t, plan.Connect(ops[i-1].Output(0), op.Input(0)))
			c := plan.NewDirectChannel()
			if platforms[i-1] != name {
				c = &plan.Channel{Descriptor: "file.object", Medium: string(channel.FileMedium)}
			}
			require.Nil(t, ops[i-1].Output(0).SetChannel(c))
		}
		ops = append(ops, op)
	}
	p, err := plan.New(ops[len(ops)-1])
	require.Nil(t, err)
	return p
}

func createJob(t *testing.T) *platform.Job {
	conf := config.New()
	conf.Set("job.spill.dir", t.TempDir())
	job, err := platform.NewJob(t.Name(), conf, nil)
	require.Nil(t, err)
	t.Cleanup(func() { _ = job.Close() })
	return job
}

func TestRunRequiresFullyBoundPlan(t *testing.T) {
	src := plan.NewCollectionSource([]interface{}{int64(1)}, intType)
	sink := plan.NewLocalCallbackSink(intType, "collect")
	require.Nil(t, plan.Connect(src.Output(0), sink.Input(0)))
	p, err := plan.New(sink)
	require.Nil(t, err)
	_, err = Run(context.Background(), createJob(t), p, platform.NewRegistry().Snapshot())
	var notBound serrors.NotFullyBoundError
	require.ErrorAs(t, err, &notBound)
	require.Equal(t, string(plan.Unbound), notBound.State)
}

func TestRunStages(t *testing.T) {
	rec := &recorder{}
	a := &recordingPlatform{name: "a", executable: true, rec: rec}
	b := &recordingPlatform{name: "b", executable: true, rec: rec}
	p := createBoundPlan(t, "a", "a", "b", "a")
	stats, err := Run(context.Background(), createJob(t), p, platform.NewRegistry(a, b).Snapshot())
	require.Nil(t, err)
	require.Equal(t, []string{
		"execute a 2",
		"execute b 1",
		"execute a 1",
		"dispose b",
		"dispose a",
	}, rec.events)
	require.Equal(t, 1, a.created)
	require.Equal(t, 1, b.created)
	require.Equal(t, []int64{2, 1, 1}, stats.GetNumOperatorsProcessed())
	require.Equal(t, []string{"a", "b", "a"}, stats.GetStagePlatforms())
	require.Len(t, stats.GetStageRuntimes(), 3)
}

func TestExecutorErrorsPassThrough(t *testing.T) {
	failure := fmt.Errorf("worker lost")
	rec := &recorder{fail: map[string]error{"execute b": failure, "dispose a": fmt.Errorf("still busy")}}
	a := &recordingPlatform{name: "a", executable: true, rec: rec}
	b := &recordingPlatform{name: "b", executable: true, rec: rec}
	p := createBoundPlan(t, "a", "b", "a")
	_, err := Run(context.Background(), createJob(t), p, platform.NewRegistry(a, b).Snapshot())
	require.Equal(t, failure, err)
	// executors are disposed even after a failure, and the remaining stage never runs
	require.Equal(t, []string{"execute a 1", "execute b 1", "dispose b", "dispose a"}, rec.events)
}

func TestDisposeErrorsAreCombined(t *testing.T) {
	rec := &recorder{fail: map[string]error{"dispose a": fmt.Errorf("a busy"), "dispose b": fmt.Errorf("b busy")}}
	a := &recordingPlatform{name: "a", executable: true, rec: rec}
	b := &recordingPlatform{name: "b", executable: true, rec: rec}
	_, err := Run(context.Background(), createJob(t), createBoundPlan(t, "a", "b"), platform.NewRegistry(a, b).Snapshot())
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "a busy")
	require.Contains(t, err.Error(), "b busy")
}

func TestPlaceholderPlatformCannotExecute(t *testing.T) {
	rec := &recorder{}
	placeholder := &recordingPlatform{name: "a", executable: false, rec: rec}
	_, err := Run(context.Background(), createJob(t), createBoundPlan(t, "a", "a"), platform.NewRegistry(placeholder).Snapshot())
	require.NotNil(t, err)
	require.Equal(t, 0, placeholder.created)

	_, err = Run(context.Background(), createJob(t), createBoundPlan(t, "missing", "missing"), platform.NewRegistry().Snapshot())
	require.NotNil(t, err)
}

func TestRunCancelled(t *testing.T) {
	rec := &recorder{}
	a := &recordingPlatform{name: "a", executable: true, rec: rec}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, createJob(t), createBoundPlan(t, "a", "a"), platform.NewRegistry(a).Snapshot())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, rec.events)
}
