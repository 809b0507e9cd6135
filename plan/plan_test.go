package plan

import (
	"testing"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/errors"
	"github.com/stretchr/testify/require"
)

var (
	intType    = sifplan.DataSetOf(sifplan.IntElement)
	floatType  = sifplan.DataSetOf(sifplan.FloatElement)
	stringType = sifplan.DataSetOf(sifplan.StringElement)
)

// source -> map -> filter -> sink
func createLinearPlan(t *testing.T) (*Plan, []*Operator) {
	src := NewCollectionSource([]interface{}{1, 2, 3}, intType)
	m := NewMap(intType, intType, "double")
	f := NewFilter(intType, "isEven")
	sink := NewLocalCallbackSink(intType, "collect")
	require.Nil(t, Connect(src.Output(0), m.Input(0)))
	require.Nil(t, Connect(m.Output(0), f.Input(0)))
	require.Nil(t, Connect(f.Output(0), sink.Input(0)))
	p, err := New(sink)
	require.Nil(t, err)
	return p, []*Operator{src, m, f, sink}
}

func TestConnect(t *testing.T) {
	src := NewCollectionSource([]interface{}{1}, intType)
	m := NewMap(intType, stringType, "toString")
	require.Nil(t, Connect(src.Output(0), m.Input(0)))
	require.Equal(t, m.Input(0), src.Output(0).Occupant())
	require.Equal(t, src.Output(0), m.Input(0).Occupant())

	// connecting the same pair again fails
	err := Connect(src.Output(0), m.Input(0))
	var occupied errors.SlotOccupiedError
	require.ErrorAs(t, err, &occupied)
	require.Equal(t, src.Output(0).String(), occupied.Slot)

	// as does feeding an occupied input from another producer
	other := NewCollectionSource([]interface{}{2}, intType)
	err = Connect(other.Output(0), m.Input(0))
	require.ErrorAs(t, err, &occupied)
	require.Equal(t, m.Input(0).String(), occupied.Slot)
	require.Nil(t, other.Output(0).Occupant())
}

func TestConnectTypeMismatch(t *testing.T) {
	src := NewCollectionSource([]interface{}{"a"}, stringType)
	m := NewMap(intType, intType, "inc")
	err := Connect(src.Output(0), m.Input(0))
	var mismatch errors.TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "string", mismatch.From)
	require.Equal(t, "int", mismatch.To)
	require.Nil(t, src.Output(0).Occupant())
	require.Nil(t, m.Input(0).Occupant())

	// coercions and wildcards are compatible
	ints := NewCollectionSource([]interface{}{1}, intType)
	toFloat := NewMap(floatType, floatType, "half")
	require.Nil(t, Connect(ints.Output(0), toFloat.Input(0)))
	anySink := NewLocalCallbackSink(sifplan.DataSetOf(sifplan.AnyElement), "print")
	require.Nil(t, Connect(toFloat.Output(0), anySink.Input(0)))

	// grouping never coerces
	group := NewGroupBy(intType, "key")
	flat := NewMap(intType, intType, "inc")
	require.ErrorAs(t, Connect(group.Output(0), flat.Input(0)), &mismatch)
}

func TestDisconnect(t *testing.T) {
	src := NewCollectionSource([]interface{}{1}, intType)
	sink := NewLocalCallbackSink(intType, "collect")
	require.Nil(t, Disconnect(sink.Input(0)))
	require.Nil(t, Connect(src.Output(0), sink.Input(0)))
	require.Equal(t, src.Output(0), Disconnect(sink.Input(0)))
	require.Nil(t, src.Output(0).Occupant())
	require.Nil(t, sink.Input(0).Occupant())
}

func TestNewPlan(t *testing.T) {
	p, ops := createLinearPlan(t)
	require.Equal(t, 4, p.Size())
	require.Equal(t, ops, p.TopologicalOrder())
	require.Equal(t, []*Operator{ops[0]}, p.Sources())
	require.Equal(t, []*Operator{ops[3]}, p.Sinks())
	require.Equal(t, Unbound, p.BindingState())
	require.Len(t, p.Edges(), 3)
	require.Equal(t, ops, p.LogicalOperators())
	require.Equal(t, ops[1], p.Operator(ops[1].ID()))

	_, err := New()
	require.NotNil(t, err)
}

func TestTopologicalOrderIsDeterministic(t *testing.T) {
	left := NewCollectionSource([]interface{}{1}, intType)
	right := NewCollectionSource([]interface{}{2}, intType)
	union := NewUnionAll(intType)
	sink := NewLocalCallbackSink(intType, "collect")
	require.Nil(t, Connect(left.Output(0), union.Input(0)))
	require.Nil(t, Connect(right.Output(0), union.Input(1)))
	require.Nil(t, Connect(union.Output(0), sink.Input(0)))
	for i := 0; i < 10; i++ {
		p, err := New(sink)
		require.Nil(t, err)
		require.Equal(t, []*Operator{left, right, union, sink}, p.TopologicalOrder())
		require.Equal(t, []*Operator{left, right}, p.Sources())
	}
}

func TestReplaceSubplan(t *testing.T) {
	p, ops := createLinearPlan(t)
	m, f := ops[1], ops[2]
	bm := Bind(m, "stream", "stream.map", nil)
	bf := Bind(f, "stream", "stream.filter", nil)
	require.Nil(t, Connect(bm.Output(0), bf.Input(0)))
	repl := NewSubplan([]*Operator{bm, bf}, []*InputSlot{bm.Input(0)}, []*OutputSlot{bf.Output(0)})

	require.Nil(t, p.ReplaceSubplan([]*Operator{m, f}, repl))
	require.Equal(t, 4, p.Size())
	require.False(t, p.Contains(m))
	require.False(t, p.Contains(f))
	require.Equal(t, []*Operator{ops[0], bm, bf, ops[3]}, p.TopologicalOrder())
	require.Equal(t, ops[0].Output(0), bm.Input(0).Occupant())
	require.Equal(t, ops[3].Input(0), bf.Output(0).Occupant())
	require.Equal(t, PartiallyBound, p.BindingState())
	require.Equal(t, []*Operator{ops[0], ops[3]}, p.LogicalOperators())
}

func TestReplaceSubplanSignatureMismatch(t *testing.T) {
	p, ops := createLinearPlan(t)
	m := ops[1]
	bad := NewExecutionOperator(sifplan.MapKind, "stream", "stream.map", nil, []sifplan.DataSetType{intType}, []sifplan.DataSetType{stringType})
	err := p.ReplaceSubplan([]*Operator{m}, SingleOperatorSubplan(bad))
	var mismatch errors.SignatureMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, []string{"in:int", "out:int"}, mismatch.Expected)
	require.Equal(t, []string{"in:int", "out:string"}, mismatch.Actual)

	// nothing was modified
	require.True(t, p.Contains(m))
	require.False(t, p.Contains(bad))
	require.Equal(t, ops[0].Output(0), m.Input(0).Occupant())
	require.Equal(t, ops[2].Input(0), m.Output(0).Occupant())
}

func TestReplaceSubplanInvalid(t *testing.T) {
	p, ops := createLinearPlan(t)
	var invalid errors.InvalidSubplanError
	require.ErrorAs(t, p.ReplaceSubplan(nil, SingleOperatorSubplan(NewMap(intType, intType, "x"))), &invalid)
	require.ErrorAs(t, p.ReplaceSubplan([]*Operator{ops[1]}, nil), &invalid)
	// source and filter are not adjacent
	require.ErrorAs(t, p.ReplaceSubplan([]*Operator{ops[0], ops[2]}, SingleOperatorSubplan(NewMap(intType, intType, "x"))), &invalid)
	// not part of the plan
	stray := NewMap(intType, intType, "stray")
	require.ErrorAs(t, p.ReplaceSubplan([]*Operator{stray}, SingleOperatorSubplan(NewMap(intType, intType, "x"))), &invalid)
}

func TestExternalSlots(t *testing.T) {
	_, ops := createLinearPlan(t)
	ins, outs := ExternalSlots([]*Operator{ops[1], ops[2]})
	require.Equal(t, []*InputSlot{ops[1].Input(0)}, ins)
	require.Equal(t, []*OutputSlot{ops[2].Output(0)}, outs)
}

func bindAll(t *testing.T, p *Plan, platformOf func(op *Operator) string) *Plan {
	for _, op := range p.TopologicalOrder() {
		platform := platformOf(op)
		bound := Bind(op, platform, platform+"."+string(op.Kind()), nil)
		require.Nil(t, p.ReplaceSubplan([]*Operator{op}, SingleOperatorSubplan(bound)))
	}
	for _, out := range p.Edges() {
		require.Nil(t, out.SetChannel(NewDirectChannel()))
	}
	return p
}

func TestSplitStages(t *testing.T) {
	p, _ := createLinearPlan(t)
	_, err := p.SplitStages()
	var notBound errors.NotFullyBoundError
	require.ErrorAs(t, err, &notBound)
	require.Equal(t, string(Unbound), notBound.State)

	bindAll(t, p, func(op *Operator) string {
		if op.Kind() == sifplan.FilterKind || op.Kind() == sifplan.LocalCallbackSinkKind {
			return "cluster"
		}
		return "stream"
	})
	require.Equal(t, FullyBound, p.BindingState())
	stages, err := p.SplitStages()
	require.Nil(t, err)
	require.Len(t, stages, 2)
	require.Equal(t, "stream", stages[0].Platform())
	require.Equal(t, 2, stages[0].Size())
	require.Equal(t, "cluster", stages[1].Platform())
	require.Equal(t, 1, stages[1].ID())
}

func TestSetChannelRequiresBoundEnds(t *testing.T) {
	_, ops := createLinearPlan(t)
	require.NotNil(t, ops[0].Output(0).SetChannel(NewDirectChannel()))
	require.NotNil(t, NewCollectionSource(nil, intType).Output(0).SetChannel(NewDirectChannel()))
	require.Nil(t, ops[0].Output(0).Channel())
}

func TestFingerprint(t *testing.T) {
	p1, _ := createLinearPlan(t)
	p2, _ := createLinearPlan(t)
	require.Equal(t, p1.Fingerprint(), p2.Fingerprint())

	bindAll(t, p1, func(*Operator) string { return "stream" })
	require.NotEqual(t, p1.Fingerprint(), p2.Fingerprint())
	bindAll(t, p2, func(*Operator) string { return "stream" })
	require.Equal(t, p1.Fingerprint(), p2.Fingerprint())
}

func TestLoopBody(t *testing.T) {
	src := NewCollectionSource([]interface{}{1.0}, floatType)
	var inner *Operator
	loop, err := NewLoop(floatType, 3, func(head *Operator) (*Plan, error) {
		inner = NewMap(floatType, floatType, "step", WithParent(head))
		return New(inner)
	})
	require.Nil(t, err)
	require.Equal(t, 3, loop.Properties().Iterations)
	require.Nil(t, Connect(src.Output(0), loop.Input(0)))
	sink := NewLocalCallbackSink(floatType, "collect")
	require.Nil(t, Connect(loop.Output(0), sink.Input(0)))
	p, err := New(sink)
	require.Nil(t, err)
	require.Equal(t, 3, p.Size())

	parent, ok := loop.Body().ParentOf(inner.ID())
	require.True(t, ok)
	require.Equal(t, loop.ID(), parent)
	require.Equal(t, []*Operator{inner}, loop.Body().Children(loop.ID()))

	// binding the head re-indexes its body under the bound head, leaving the logical head's view intact
	bound := Bind(loop, "stream", "stream.loop", nil)
	require.Equal(t, loop.Body().Operators(), bound.Body().Operators())
	parent, _ = bound.Body().ParentOf(inner.ID())
	require.Equal(t, bound.ID(), parent)
	parent, _ = loop.Body().ParentOf(inner.ID())
	require.Equal(t, loop.ID(), parent)

	_, err = NewLoop(floatType, 0, func(head *Operator) (*Plan, error) { return nil, nil })
	require.NotNil(t, err)
	_, err = NewLoop(floatType, 1, func(head *Operator) (*Plan, error) {
		return New(NewMap(floatType, floatType, "orphan"))
	})
	require.NotNil(t, err)
}

func TestCycle(t *testing.T) {
	a := NewMap(intType, intType, "a")
	b := NewMap(intType, intType, "b")
	require.Nil(t, Connect(a.Output(0), b.Input(0)))
	require.Nil(t, Connect(b.Output(0), a.Input(0)))
	_, err := New(b)
	var cycle errors.CycleError
	require.ErrorAs(t, err, &cycle)
}

func TestConstructors(t *testing.T) {
	group := NewGroupBy(intType, "key")
	require.Equal(t, sifplan.GroupedDataSetOf(sifplan.IntElement), group.Output(0).Type())
	require.Equal(t, "key", group.Properties().KeyUDF)
	count := NewCount(stringType)
	require.Equal(t, intType, count.Output(0).Type())
	cart := NewCartesian(intType, stringType)
	require.Equal(t, "input0", cart.Input(0).Name())
	require.Equal(t, "input1", cart.Input(1).Name())
	require.Equal(t, sifplan.DataSetOf(sifplan.RecordElement), cart.Output(0).Type())
	src := NewCollectionSource([]interface{}{1, 2}, intType)
	require.EqualValues(t, 2, src.Properties().Cardinality)
	hinted := NewTsvFileSource("data.tsv", floatType, WithCardinality(50))
	require.EqualValues(t, 50, hinted.Properties().Cardinality)
	require.EqualValues(t, -1, NewFilter(intType, "p").Properties().Selectivity)
	sample := NewSample(intType, 10)
	require.EqualValues(t, 10, sample.Properties().SampleSize)
	jsonl := NewJsonlFileSource("data.jsonl", []string{"a", "b"})
	require.Equal(t, "jsonl", jsonl.Properties().Format)
	require.Equal(t, []string{"a", "b"}, jsonl.Properties().Fields)
}
