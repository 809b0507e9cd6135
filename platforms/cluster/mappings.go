package cluster

import (
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
)

func isGroupBy(op *plan.Operator) bool {
	return op.Kind() == sifplan.GroupByKind || op.Kind() == sifplan.MaterializedGroupByKind
}

// isGlobalReduce is true for reductions over a whole dataset, rather than over groups
func isGlobalReduce(op *plan.Operator) bool {
	if op.Kind() == sifplan.GlobalReduceKind {
		return true
	}
	if op.NumInputs() == 0 {
		return false
	}
	if op.Input(0).Type().Grouped {
		return false
	}
	producer := op.Producers()[0]
	return producer == nil || !isGroupBy(producer)
}

func bindKind(kind sifplan.OperatorKind) mapping.Rule {
	name := string(kind)
	return mapping.Rule{
		Name:    name,
		Pattern: mapping.KindPattern(name, kind),
		Factory: mapping.BindSingle(Name, Name+"."+name, estimatorFor(kind)),
	}
}

// fuseGroupByReduce replaces a GroupBy followed by a Reduce of its groups with a single ReduceBy
func fuseGroupByReduce(m *mapping.Match, conf *config.Configuration) ([]*plan.Subplan, error) {
	group, reduce := m.Operator("group_by"), m.Operator("reduce")
	props := reduce.Properties()
	props.KeyUDF = group.Properties().KeyUDF
	op := plan.NewExecutionOperator(sifplan.ReduceByKind, Name, Name+".reduce_by", estimatorFor(sifplan.ReduceByKind)(reduce, conf),
		group.InputTypes(), reduce.OutputTypes(), plan.WithProperties(props), plan.WithSameParent(reduce))
	return []*plan.Subplan{plan.SingleOperatorSubplan(op)}, nil
}

var groupByReduce = mapping.MustPattern("group_by_reduce", []mapping.Node{
	{Name: "group_by", Kinds: []sifplan.OperatorKind{sifplan.GroupByKind}},
	{Name: "reduce", Kinds: []sifplan.OperatorKind{sifplan.ReduceKind}},
}, []mapping.Edge{{From: 0, FromOutput: 0, To: 1, ToInput: 0}})

// rules is the static mapping table of the cluster platform
var rules = []mapping.Rule{
	bindKind(sifplan.CartesianKind),
	bindKind(sifplan.CollectionSourceKind),
	bindKind(sifplan.CountKind),
	bindKind(sifplan.DistinctKind),
	bindKind(sifplan.FilterKind),
	{
		Name: "global_reduce",
		Pattern: mapping.MustPattern("global_reduce", []mapping.Node{
			{Name: "reduce", Kinds: []sifplan.OperatorKind{sifplan.ReduceKind, sifplan.GlobalReduceKind}, Predicate: isGlobalReduce},
		}, nil),
		Factory: mapping.BindSingleAs(sifplan.GlobalReduceKind, Name, Name+".global_reduce", estimatorFor(sifplan.GlobalReduceKind)),
	},
	bindKind(sifplan.LocalCallbackSinkKind),
	bindKind(sifplan.FlatMapKind),
	bindKind(sifplan.MapKind),
	bindKind(sifplan.MaterializedGroupByKind),
	bindKind(sifplan.ReduceByKind),
	{Name: "group_by_reduce", Pattern: groupByReduce, Factory: fuseGroupByReduce},
	bindKind(sifplan.SortKind),
	bindKind(sifplan.TextFileSourceKind),
	bindKind(sifplan.UnionAllKind),
	bindKind(sifplan.LoopKind),
	bindKind(sifplan.DoWhileKind),
	{
		Name:    "sample",
		Pattern: mapping.KindPattern("sample", sifplan.SampleKind),
		Factory: mapping.BindAlternatives(Name,
			mapping.Alternative{Impl: Name + ".bernoulli_sample", Estimator: sampleEstimator("bernoulli_sample")},
			mapping.Alternative{Impl: Name + ".random_sample", Estimator: sampleEstimator("random_sample")},
			mapping.Alternative{Impl: Name + ".shuffle_sample", Estimator: sampleEstimator("shuffle_sample")},
		),
	},
}
