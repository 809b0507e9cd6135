package cluster

import (
	"context"
	"testing"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/config"
	serrors "github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/plan"
	"github.com/go-sif/sifplan/platform"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var intType = sifplan.DataSetOf(sifplan.IntElement)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func createTestJob(t *testing.T, master string, opts ...platform.JobOption) *platform.Job {
	conf := config.New()
	conf.Set("job.spill.dir", t.TempDir())
	if master != "" {
		conf.Set("cluster.master", master)
		conf.Set("cluster.app.name", t.Name())
	}
	job, err := platform.NewJob(t.Name(), conf, nil, opts...)
	require.Nil(t, err)
	t.Cleanup(func() { _ = job.Close() })
	return job
}

func candidatesFor(t *testing.T, p *plan.Plan, mappingName string) []*plan.Subplan {
	for _, m := range Instance().Mappings() {
		if m.Name() != mappingName {
			continue
		}
		matches := m.Match(p)
		require.Len(t, matches, 1)
		candidates, err := m.Candidates(matches[0], nil)
		require.Nil(t, err)
		return candidates
	}
	require.FailNow(t, "no cluster mapping named", mappingName)
	return nil
}

func TestInstance(t *testing.T) {
	p := Instance()
	require.Equal(t, p, Instance())
	require.Equal(t, Name, p.Name())
	require.True(t, p.IsExecutable())
	require.Equal(t, int64(4), config.Default().GetInt64("cluster.parallelism", 0))

	m := p.CreateChannelManager()
	require.Contains(t, m.Producible(), channel.Collection)
	require.NotContains(t, m.Consumable(), channel.Collection)
	require.Contains(t, m.Consumable(), channel.ObjectFile)
}

func TestSampleAlternatives(t *testing.T) {
	src := plan.NewCollectionSource([]interface{}{int64(1)}, intType)
	sample := plan.NewSample(intType, 10)
	require.Nil(t, plan.Connect(src.Output(0), sample.Input(0)))
	p, err := plan.New(sample)
	require.Nil(t, err)

	candidates := candidatesFor(t, p, "sample")
	require.Len(t, candidates, 3)
	impls := make([]string, len(candidates))
	for i, c := range candidates {
		impls[i] = c.Operators[0].Implementation()
		require.Equal(t, sifplan.SampleKind, c.Operators[0].Kind())
	}
	require.Equal(t, []string{"cluster.bernoulli_sample", "cluster.random_sample", "cluster.shuffle_sample"}, impls)

	// reading a prefix is the cheapest strategy for large inputs
	conv := func(c *plan.Subplan) float64 {
		profile := c.Operators[0].Estimator().EstimateProfile([]int64{1000000}, []int64{10})
		return profile.CPU.Value
	}
	require.Less(t, conv(candidates[2]), conv(candidates[0]))
	require.Less(t, conv(candidates[0]), conv(candidates[1]))
}

func TestFusedGroupByReduce(t *testing.T) {
	src := plan.NewCollectionSource([]interface{}{int64(1)}, intType)
	group := plan.NewGroupBy(intType, "key")
	reduce := plan.NewReduce(sifplan.GroupedDataSetOf(sifplan.IntElement), intType, "sum")
	require.Nil(t, plan.Connect(src.Output(0), group.Input(0)))
	require.Nil(t, plan.Connect(group.Output(0), reduce.Input(0)))
	p, err := plan.New(reduce)
	require.Nil(t, err)

	candidates := candidatesFor(t, p, "group_by_reduce")
	require.Len(t, candidates, 1)
	fused := candidates[0].Operators[0]
	require.Equal(t, sifplan.ReduceByKind, fused.Kind())
	require.Equal(t, "cluster.reduce_by", fused.Implementation())
	require.Equal(t, "key", fused.Properties().KeyUDF)
	require.Equal(t, "sum", fused.Properties().UDF)
	require.Equal(t, group.InputTypes(), fused.InputTypes())
	require.Equal(t, reduce.OutputTypes(), fused.OutputTypes())

	// a reduction of groups is never bound as a global reduction
	for _, m := range Instance().Mappings() {
		if m.Name() == "global_reduce" {
			require.Empty(t, m.Match(p))
		}
	}
}

func TestGlobalReduce(t *testing.T) {
	src := plan.NewCollectionSource([]interface{}{int64(1)}, intType)
	reduce := plan.NewReduce(intType, intType, "sum")
	require.Nil(t, plan.Connect(src.Output(0), reduce.Input(0)))
	p, err := plan.New(reduce)
	require.Nil(t, err)
	candidates := candidatesFor(t, p, "global_reduce")
	require.Len(t, candidates, 1)
	require.Equal(t, sifplan.GlobalReduceKind, candidates[0].Operators[0].Kind())
	profile := candidates[0].Operators[0].Estimator().EstimateProfile([]int64{100}, []int64{1})
	require.Equal(t, 3000000.0, profile.Overhead)
	require.Equal(t, sifplan.LoadEstimate{Value: 1000, Confidence: 0.7}, profile.Network)
}

func TestSessionRequiresProperties(t *testing.T) {
	job := createTestJob(t, "")
	_, err := AcquireSession(job)
	var missing serrors.MissingPropertyError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "cluster.master", missing.Key)
	require.Nil(t, CurrentSession())
}

func TestSessionLifecycle(t *testing.T) {
	creator := createTestJob(t, "local[2]")
	s, err := AcquireSession(creator)
	require.Nil(t, err)
	master, ok := s.Property("cluster.master")
	require.True(t, ok)
	require.Equal(t, "local[2]", master)

	// a second job reuses the session, ignoring its own settings
	other := createTestJob(t, "remote://elsewhere")
	reused, err := AcquireSession(other)
	require.Nil(t, err)
	require.Equal(t, s.ID(), reused.ID())
	master, _ = reused.Property("cluster.master")
	require.Equal(t, "local[2]", master)

	// only the creator closes it
	ReleaseSession(other, reused)
	require.False(t, s.IsClosed())
	require.Equal(t, s, CurrentSession())
	ReleaseSession(creator, s)
	require.True(t, s.IsClosed())
	require.Nil(t, CurrentSession())

	// the next job creates a new session
	recreated, err := AcquireSession(other)
	require.Nil(t, err)
	require.NotEqual(t, s.ID(), recreated.ID())
	ReleaseSession(other, recreated)
	require.Nil(t, CurrentSession())
}

func TestSessionReuseWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logging.ReplaceLogger(zap.New(core))()

	creator := createTestJob(t, "local")
	s, err := AcquireSession(creator)
	require.Nil(t, err)
	defer ReleaseSession(creator, s)
	require.Equal(t, 0, logs.Len())

	_, err = AcquireSession(createTestJob(t, "local[4]"))
	require.Nil(t, err)
	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "already a cluster session")
	require.Equal(t, s.ID().String(), warnings[0].ContextMap()["session"])
}

func TestSessionShipsUDFs(t *testing.T) {
	job := createTestJob(t, "remote://cluster:7077", platform.WithUDFPaths("/jobs/udfs.so"))
	s, err := AcquireSession(job)
	require.Nil(t, err)
	defer ReleaseSession(job, s)
	require.Equal(t, []string{"/jobs/udfs.so"}, s.UDFPaths())

	local := createTestJob(t, "local", platform.WithUDFPaths("/jobs/udfs.so"))
	ReleaseSession(job, s)
	s, err = AcquireSession(local)
	require.Nil(t, err)
	defer ReleaseSession(local, s)
	require.Empty(t, s.UDFPaths())
}

func TestLevels(t *testing.T) {
	stage, _ := createUnionStage(t)
	lv := levels(stage)
	require.Len(t, lv, 3)
	require.Len(t, lv[0], 2)
	require.Equal(t, sifplan.UnionAllKind, lv[1][0].Kind())
	require.Equal(t, sifplan.LocalCallbackSinkKind, lv[2][0].Kind())
}

func createUnionStage(t *testing.T) (*plan.Stage, *plan.Operator) {
	newSource := func(values ...interface{}) *plan.Operator {
		return plan.NewExecutionOperator(sifplan.CollectionSourceKind, Name, "cluster.collection_source", nil, nil,
			[]sifplan.DataSetType{intType}, plan.WithProperties(plan.Properties{Collection: values}))
	}
	left, right := newSource(int64(1), int64(2)), newSource(int64(3))
	union := plan.NewExecutionOperator(sifplan.UnionAllKind, Name, "cluster.union_all", nil,
		[]sifplan.DataSetType{intType, intType}, []sifplan.DataSetType{intType})
	sink := plan.NewExecutionOperator(sifplan.LocalCallbackSinkKind, Name, "cluster.local_callback_sink", nil, []sifplan.DataSetType{intType}, nil)
	require.Nil(t, plan.Connect(left.Output(0), union.Input(0)))
	require.Nil(t, plan.Connect(right.Output(0), union.Input(1)))
	require.Nil(t, plan.Connect(union.Output(0), sink.Input(0)))
	for _, op := range []*plan.Operator{left, right, union} {
		require.Nil(t, op.Output(0).SetChannel(plan.NewDirectChannel()))
	}
	p, err := plan.New(sink)
	require.Nil(t, err)
	stages, err := p.SplitStages()
	require.Nil(t, err)
	require.Len(t, stages, 1)
	return stages[0], sink
}

func TestExecutor(t *testing.T) {
	stage, _ := createUnionStage(t)
	var collected []interface{}
	runner := platform.RunnerFunc(func(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error) {
		collected = append(collected, inputs[0]...)
		return [][]interface{}{}, nil
	})
	conf := config.New()
	conf.Set("job.spill.dir", t.TempDir())
	conf.Set("cluster.master", "local")
	conf.Set("cluster.app.name", "executor")
	conf.Set("cluster.parallelism", 2)
	job, err := platform.NewJob("cluster", conf, runner)
	require.Nil(t, err)
	defer job.Close()

	exec, err := Instance().ExecutorFactory()(job)
	require.Nil(t, err)
	require.NotNil(t, CurrentSession())
	require.Nil(t, exec.Execute(context.Background(), stage))
	require.Nil(t, exec.Dispose())
	require.Nil(t, CurrentSession())
	require.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, collected)
}

func TestExecutorCancelled(t *testing.T) {
	stage, _ := createUnionStage(t)
	job := createTestJob(t, "local")
	exec, err := Instance().ExecutorFactory()(job)
	require.Nil(t, err)
	defer exec.Dispose()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, exec.Execute(ctx, stage), context.Canceled)
}

func TestEstimatorsReadCandidateConfig(t *testing.T) {
	src := plan.NewCollectionSource([]interface{}{int64(1)}, intType)
	reduce := plan.NewReduce(intType, intType, "sum")
	require.Nil(t, plan.Connect(src.Output(0), reduce.Input(0)))
	p, err := plan.New(reduce)
	require.Nil(t, err)
	conf := config.Default().Fork()
	conf.Set("cluster.estimator.overhead", 10)
	conf.Set("cluster.estimator.confidence", 0.5)
	for _, m := range Instance().Mappings() {
		if m.Name() != "global_reduce" {
			continue
		}
		candidates, err := m.Candidates(m.Match(p)[0], conf)
		require.Nil(t, err)
		profile := candidates[0].Operators[0].Estimator().EstimateProfile([]int64{100}, []int64{1})
		require.Equal(t, 10.0, profile.Overhead)
		require.Equal(t, 0.5, profile.Network.Confidence)
	}
}

func TestReduceWithoutInputs(t *testing.T) {
	op := plan.NewOperator(sifplan.ReduceKind, nil, []sifplan.DataSetType{intType})
	require.False(t, isGlobalReduce(op))
	require.True(t, isGlobalReduce(plan.NewOperator(sifplan.GlobalReduceKind, nil, []sifplan.DataSetType{intType})))
}
