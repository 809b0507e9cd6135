package platform

import (
	"testing"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
	"github.com/stretchr/testify/require"
)

var intType = sifplan.DataSetOf(sifplan.IntElement)

type fakePlatform struct {
	name       string
	executable bool
	mappings   []*mapping.Mapping
	managers   int
}

func newFakePlatform(name string, executable bool, kinds ...sifplan.OperatorKind) *fakePlatform {
	rules := make([]mapping.Rule, len(kinds))
	for i, k := range kinds {
		rules[i] = mapping.Rule{
			Name:    string(k),
			Pattern: mapping.KindPattern(string(k), k),
			Factory: mapping.BindSingle(name, name+"."+string(k), mapping.Static(nil)),
		}
	}
	return &fakePlatform{name: name, executable: executable, mappings: mapping.Build(name, rules)}
}

func (p *fakePlatform) Name() string { return p.name }
func (p *fakePlatform) Mappings() []*mapping.Mapping { return p.mappings }
func (p *fakePlatform) IsExecutable() bool { return p.executable }
func (p *fakePlatform) ExecutorFactory() ExecutorFactory { return nil }
func (p *fakePlatform) CreateChannelManager() channel.Manager {
	p.managers++
	return channel.NewStaticManager(p.name, nil, nil)
}

func createRegistryTestPlan(t *testing.T) *plan.Plan {
	src := plan.NewCollectionSource([]interface{}{1}, intType)
	f := plan.NewFilter(intType, "p")
	sink := plan.NewLocalCallbackSink(intType, "collect")
	require.Nil(t, plan.Connect(src.Output(0), f.Input(0)))
	require.Nil(t, plan.Connect(f.Output(0), sink.Input(0)))
	p, err := plan.New(sink)
	require.Nil(t, err)
	return p
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.Nil(t, r.Register(newFakePlatform("stream", true)))
	require.NotNil(t, r.Register(newFakePlatform("stream", true)))
	require.Equal(t, 1, r.Size())
	require.Equal(t, DefaultRegistry(), DefaultRegistry())
	require.PanicsWithError(t, "platform cluster is already registered", func() {
		NewRegistry(newFakePlatform("cluster", true), newFakePlatform("cluster", true))
	})
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry(newFakePlatform("stream", true, sifplan.FilterKind))
	snap := r.Snapshot()
	require.Nil(t, r.Register(newFakePlatform("cluster", true, sifplan.FilterKind)))
	require.Len(t, snap.Platforms(), 1)
	_, ok := snap.Platform("cluster")
	require.False(t, ok)
	require.Equal(t, -1, snap.Index("cluster"))
	require.Len(t, r.Snapshot().Platforms(), 2)
	require.Equal(t, 1, r.Snapshot().Index("cluster"))
}

func TestMappingsFor(t *testing.T) {
	p := createRegistryTestPlan(t)
	r := NewRegistry(
		newFakePlatform("basic", false, sifplan.FilterKind, sifplan.CollectionSourceKind),
		newFakePlatform("stream", true, sifplan.FilterKind, sifplan.CountKind, sifplan.LocalCallbackSinkKind),
		newFakePlatform("cluster", true, sifplan.CollectionSourceKind, sifplan.FilterKind),
	)
	mappings := r.Snapshot().MappingsFor(p)
	names := make([]string, len(mappings))
	for i, m := range mappings {
		names[i] = m.String()
	}
	// registration order, placeholders and irrelevant mappings skipped
	require.Equal(t, []string{
		"stream/filter",
		"stream/local_callback_sink",
		"cluster/collection_source",
		"cluster/filter",
	}, names)
}

func TestChannelManagerPerSnapshot(t *testing.T) {
	stream := newFakePlatform("stream", true)
	r := NewRegistry(stream)
	snap := r.Snapshot()
	m1, err := snap.ChannelManager("stream")
	require.Nil(t, err)
	m2, err := snap.ChannelManager("stream")
	require.Nil(t, err)
	require.Equal(t, m1, m2)
	require.Equal(t, 1, stream.managers)
	_, err = snap.ChannelManager("missing")
	require.NotNil(t, err)
}

func TestExchange(t *testing.T) {
	conf := config.New()
	conf.Set("job.spill.dir", t.TempDir())
	job, err := NewJob("exchange", conf, nil)
	require.Nil(t, err)
	defer job.Close()

	src := plan.NewExecutionOperator(sifplan.CollectionSourceKind, "stream", "stream.collection_source", nil, nil, []sifplan.DataSetType{intType})
	mid := plan.NewExecutionOperator(sifplan.MapKind, "cluster", "cluster.map", nil, []sifplan.DataSetType{intType}, []sifplan.DataSetType{intType})
	sink := plan.NewExecutionOperator(sifplan.LocalCallbackSinkKind, "cluster", "cluster.local_callback_sink", nil, []sifplan.DataSetType{intType}, nil)
	require.Nil(t, plan.Connect(src.Output(0), mid.Input(0)))
	require.Nil(t, plan.Connect(mid.Output(0), sink.Input(0)))
	require.Nil(t, src.Output(0).SetChannel(&plan.Channel{Descriptor: "file.object", Medium: string(channel.FileMedium)}))
	require.Nil(t, mid.Output(0).SetChannel(plan.NewDirectChannel()))

	_, err = job.Exchange.Get(mid.Input(0))
	require.NotNil(t, err)

	require.Nil(t, job.Exchange.Outputs(src, [][]interface{}{{int64(1), int64(2)}}))
	inputs, err := job.Exchange.Inputs(mid)
	require.Nil(t, err)
	require.Equal(t, [][]interface{}{{int64(1), int64(2)}}, inputs)

	require.Nil(t, job.Exchange.Put(mid.Output(0), []interface{}{int64(3)}))
	values, err := job.Exchange.Get(sink.Input(0))
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(3)}, values)

	require.NotNil(t, job.Exchange.Outputs(src, nil))
	require.NotEqual(t, job.ID.String(), "")
}
