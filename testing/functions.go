// Package testing runs Plans end to end in the local process, for tests of Plans and platforms.
package testing

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/plan"
	"github.com/spf13/cast"
)

// Group is an element of a grouped dataset: the elements sharing a key
type Group struct {
	Key    interface{}
	Values []interface{}
}

// Functions is an OperatorRunner applying user functions registered by name
type Functions struct {
	Maps       map[string]func(v interface{}) interface{}
	FlatMaps   map[string]func(v interface{}) []interface{}
	Filters    map[string]func(v interface{}) bool
	Keys       map[string]func(v interface{}) interface{}
	Reducers   map[string]func(a interface{}, b interface{}) interface{}
	Conditions map[string]func(values []interface{}) bool
	Sinks      map[string]func(values []interface{})
}

func lookup[F any](fns map[string]F, name string, op *plan.Operator) (F, error) {
	fn, ok := fns[name]
	if !ok {
		var zero F
		return zero, fmt.Errorf("no user function %q is registered for %s", name, op)
	}
	return fn, nil
}

// Run implements platform.OperatorRunner
func (f *Functions) Run(ctx context.Context, op *plan.Operator, inputs [][]interface{}) ([][]interface{}, error) {
	props := op.Properties()
	switch op.Kind() {
	case sifplan.MapKind:
		fn, err := lookup(f.Maps, props.UDF, op)
		if err != nil {
			return nil, err
		}
		res := make([]interface{}, len(inputs[0]))
		for i, v := range inputs[0] {
			res[i] = fn(v)
		}
		return [][]interface{}{res}, nil
	case sifplan.FlatMapKind:
		fn, err := lookup(f.FlatMaps, props.UDF, op)
		if err != nil {
			return nil, err
		}
		var res []interface{}
		for _, v := range inputs[0] {
			res = append(res, fn(v)...)
		}
		return [][]interface{}{res}, nil
	case sifplan.FilterKind:
		fn, err := lookup(f.Filters, props.UDF, op)
		if err != nil {
			return nil, err
		}
		var res []interface{}
		for _, v := range inputs[0] {
			if fn(v) {
				res = append(res, v)
			}
		}
		return [][]interface{}{res}, nil
	case sifplan.GroupByKind, sifplan.MaterializedGroupByKind:
		groups, err := f.group(op, inputs[0])
		if err != nil {
			return nil, err
		}
		res := make([]interface{}, len(groups))
		for i, g := range groups {
			res[i] = g
		}
		return [][]interface{}{res}, nil
	case sifplan.ReduceKind, sifplan.GlobalReduceKind:
		return f.reduce(op, inputs[0])
	case sifplan.ReduceByKind:
		groups, err := f.group(op, inputs[0])
		if err != nil {
			return nil, err
		}
		res := make([]interface{}, len(groups))
		for i, g := range groups {
			res[i] = g
		}
		return f.reduce(op, res)
	case sifplan.SortKind:
		fn, err := lookup(f.Keys, props.KeyUDF, op)
		if err != nil {
			return nil, err
		}
		res := append([]interface{}(nil), inputs[0]...)
		sort.SliceStable(res, func(i, j int) bool { return less(fn(res[i]), fn(res[j])) })
		return [][]interface{}{res}, nil
	case sifplan.JoinKind:
		fn, err := lookup(f.Keys, props.KeyUDF, op)
		if err != nil {
			return nil, err
		}
		var res []interface{}
		for _, l := range inputs[0] {
			for _, r := range inputs[1] {
				if fn(l) == fn(r) {
					res = append(res, sifplan.Record{l, r})
				}
			}
		}
		return [][]interface{}{res}, nil
	case sifplan.DoWhileKind:
		fn, err := lookup(f.Conditions, props.UDF, op)
		if err != nil {
			return nil, err
		}
		return [][]interface{}{{fn(inputs[0])}}, nil
	case sifplan.LocalCallbackSinkKind:
		fn, err := lookup(f.Sinks, props.UDF, op)
		if err != nil {
			return nil, err
		}
		fn(inputs[0])
		return [][]interface{}{}, nil
	default:
		return nil, fmt.Errorf("%s has no local implementation", op)
	}
}

// group splits values by key, keeping groups in order of first appearance
func (f *Functions) group(op *plan.Operator, values []interface{}) ([]*Group, error) {
	fn, err := lookup(f.Keys, op.Properties().KeyUDF, op)
	if err != nil {
		return nil, err
	}
	var groups []*Group
	index := make(map[interface{}]*Group)
	for _, v := range values {
		key := fn(v)
		g, ok := index[key]
		if !ok {
			g = &Group{Key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.Values = append(g.Values, v)
	}
	return groups, nil
}

// reduce folds every Group of values, or all values if they are not grouped
func (f *Functions) reduce(op *plan.Operator, values []interface{}) ([][]interface{}, error) {
	fn, err := lookup(f.Reducers, op.Properties().UDF, op)
	if err != nil {
		return nil, err
	}
	fold := func(vs []interface{}) interface{} {
		acc := vs[0]
		for _, v := range vs[1:] {
			acc = fn(acc, v)
		}
		return acc
	}
	if len(values) == 0 {
		return [][]interface{}{nil}, nil
	}
	if _, grouped := values[0].(*Group); !grouped {
		return [][]interface{}{{fold(values)}}, nil
	}
	res := make([]interface{}, 0, len(values))
	for _, v := range values {
		g := v.(*Group)
		res = append(res, fold(g.Values))
	}
	return [][]interface{}{res}, nil
}

// less compares numbers numerically and everything else as strings
func less(a interface{}, b interface{}) bool {
	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return cast.ToString(a) < cast.ToString(b)
}
