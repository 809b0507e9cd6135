package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/plan"
	"github.com/stretchr/testify/require"
)

var (
	floatType  = sifplan.DataSetOf(sifplan.FloatElement)
	stringType = sifplan.DataSetOf(sifplan.StringElement)
)

// doubling multiplies float elements by two, and keeps looping while any element is below 10
var doubling = RunnerFunc(func(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error) {
	switch op.Kind() {
	case sifplan.MapKind:
		res := make([]interface{}, len(inputs[0]))
		for i, v := range inputs[0] {
			res[i] = v.(float64) * 2
		}
		return [][]interface{}{res}, nil
	case sifplan.DoWhileKind:
		for _, v := range inputs[0] {
			if v.(float64) < 10 {
				return [][]interface{}{{true}}, nil
			}
		}
		return [][]interface{}{{false}}, nil
	case sifplan.FilterKind:
		panic(fmt.Errorf("predicate failed"))
	default:
		return nil, fmt.Errorf("unexpected %s", op)
	}
})

func createInterpreter(t *testing.T, runner OperatorRunner) *Interpreter {
	conf := config.New()
	conf.Set("job.spill.dir", t.TempDir())
	job, err := NewJob("interpreter", conf, runner)
	require.Nil(t, err)
	t.Cleanup(func() { job.Close() })
	return NewInterpreter(job)
}

func bound(op *plan.Operator) *plan.Operator {
	return plan.Bind(op, "stream", "stream."+string(op.Kind()), nil)
}

func TestInterpreterBuiltins(t *testing.T) {
	it := createInterpreter(t, nil)
	ctx := context.Background()

	out, err := it.Apply(ctx, bound(plan.NewCollectionSource([]interface{}{int64(1), int64(2)}, intType)), nil)
	require.Nil(t, err)
	require.Equal(t, [][]interface{}{{int64(1), int64(2)}}, out)

	out, err = it.Apply(ctx, bound(plan.NewCount(intType)), [][]interface{}{{1, 2, 3}})
	require.Nil(t, err)
	require.Equal(t, [][]interface{}{{int64(3)}}, out)

	out, err = it.Apply(ctx, bound(plan.NewUnionAll(intType)), [][]interface{}{{1}, {2, 3}})
	require.Nil(t, err)
	require.Equal(t, [][]interface{}{{1, 2, 3}}, out)

	out, err = it.Apply(ctx, bound(plan.NewCartesian(intType, stringType)), [][]interface{}{{1, 2}, {"a"}})
	require.Nil(t, err)
	require.Equal(t, [][]interface{}{{sifplan.Record{1, "a"}, sifplan.Record{2, "a"}}}, out)

	out, err = it.Apply(ctx, bound(plan.NewDistinct(intType)), [][]interface{}{{int64(1), int64(2), int64(1)}})
	require.Nil(t, err)
	require.Equal(t, [][]interface{}{{int64(1), int64(2)}}, out)

	// user functions need a runner
	_, err = it.Apply(ctx, bound(plan.NewMap(intType, intType, "f")), [][]interface{}{{1}})
	require.NotNil(t, err)
}

func TestInterpreterSample(t *testing.T) {
	it := createInterpreter(t, nil)
	values := []interface{}{1, 2, 3, 4, 5, 6, 7, 8}
	for _, impl := range []string{"cluster.shuffle_sample", "cluster.random_sample"} {
		op := plan.Bind(plan.NewSample(intType, 3), "cluster", impl, nil)
		out, err := it.Apply(context.Background(), op, [][]interface{}{values})
		require.Nil(t, err)
		require.Len(t, out[0], 3)
	}
	op := plan.Bind(plan.NewSample(intType, 3), "cluster", "cluster.shuffle_sample", nil)
	out, err := it.Apply(context.Background(), op, [][]interface{}{values})
	require.Nil(t, err)
	require.Equal(t, []interface{}{1, 2, 3}, out[0])
	// small datasets are returned entirely
	out, err = it.Apply(context.Background(), op, [][]interface{}{{1}})
	require.Nil(t, err)
	require.Equal(t, []interface{}{1}, out[0])
}

func TestInterpreterFileSources(t *testing.T) {
	dir := t.TempDir()
	require.Nil(t, os.WriteFile(filepath.Join(dir, "data.tsv"), []byte("42\t\n7\tx\n"), 0644))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "data.jsonl"), []byte("{\"a\": 1}\n"), 0644))
	it := createInterpreter(t, nil)

	out, err := it.Apply(context.Background(), bound(plan.NewTsvFileSource(filepath.Join(dir, "data.tsv"), intType)), nil)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(42), int64(7)}, out[0])

	out, err = it.Apply(context.Background(), bound(plan.NewJsonlFileSource(filepath.Join(dir, "data.jsonl"), []string{"a"})), nil)
	require.Nil(t, err)
	require.Equal(t, []interface{}{sifplan.Record{int64(1)}}, out[0])

	out, err = it.Apply(context.Background(), bound(plan.NewTextFileSource(filepath.Join(dir, "data.tsv"), "text", stringType)), nil)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"42\t", "7\tx"}, out[0])
}

func TestInterpreterLoops(t *testing.T) {
	it := createInterpreter(t, doubling)
	loop, err := plan.NewLoop(floatType, 3, func(head *plan.Operator) (*plan.Plan, error) {
		return plan.New(plan.NewMap(floatType, floatType, "double", plan.WithParent(head)))
	})
	require.Nil(t, err)
	out, err := it.Apply(context.Background(), bound(loop), [][]interface{}{{1.0, 2.0}})
	require.Nil(t, err)
	require.Equal(t, []interface{}{8.0, 16.0}, out[0])

	doWhile, err := plan.NewDoWhile(floatType, "below10", 2, func(head *plan.Operator) (*plan.Plan, error) {
		return plan.New(plan.NewMap(floatType, floatType, "double", plan.WithParent(head)))
	})
	require.Nil(t, err)
	out, err = it.Apply(context.Background(), bound(doWhile), [][]interface{}{{3.0}})
	require.Nil(t, err)
	require.Equal(t, []interface{}{12.0}, out[0])
}

func TestInterpreterRecoversPanics(t *testing.T) {
	it := createInterpreter(t, doubling)
	_, err := it.Apply(context.Background(), bound(plan.NewFilter(intType, "p")), [][]interface{}{{1}})
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "predicate failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = it.Apply(ctx, bound(plan.NewCount(intType)), [][]interface{}{{1}})
	require.ErrorIs(t, err, context.Canceled)
}
