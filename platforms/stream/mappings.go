package stream

import (
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
)

// hasGroupedInput is true for reductions applied to the groups produced by a GroupBy
func hasGroupedInput(op *plan.Operator) bool {
	if op.NumInputs() == 0 {
		return false
	}
	if op.Input(0).Type().Grouped {
		return true
	}
	producer := op.Producers()[0]
	return producer != nil && (producer.Kind() == sifplan.GroupByKind || producer.Kind() == sifplan.MaterializedGroupByKind)
}

func bindKind(kind sifplan.OperatorKind) mapping.Rule {
	name := string(kind)
	return mapping.Rule{
		Name:    name,
		Pattern: mapping.KindPattern(name, kind),
		Factory: mapping.BindSingle(Name, Name+"."+name, estimatorFor(kind)),
	}
}

// rules is the static mapping table of the stream platform
var rules = []mapping.Rule{
	bindKind(sifplan.CollectionSourceKind),
	bindKind(sifplan.TextFileSourceKind),
	{
		Name:    "tsv_file_source",
		Pattern: mapping.KindPattern("tsv_file_source", sifplan.TsvFileSourceKind),
		Factory: mapping.BindSingle(Name, Name+".tsv_file_source", tsvEstimator),
	},
	bindKind(sifplan.MapKind),
	bindKind(sifplan.FlatMapKind),
	bindKind(sifplan.FilterKind),
	{
		Name: "grouped_reduce",
		Pattern: mapping.MustPattern("grouped_reduce", []mapping.Node{
			{Name: "reduce", Kinds: []sifplan.OperatorKind{sifplan.ReduceKind}, Predicate: hasGroupedInput},
		}, nil),
		Factory: mapping.BindSingle(Name, Name+".grouped_reduce", estimatorFor(sifplan.ReduceKind)),
	},
	{
		Name: "global_reduce",
		Pattern: mapping.MustPattern("global_reduce", []mapping.Node{
			{Name: "reduce", Kinds: []sifplan.OperatorKind{sifplan.ReduceKind, sifplan.GlobalReduceKind}, Predicate: func(op *plan.Operator) bool {
				return op.Kind() == sifplan.GlobalReduceKind || !hasGroupedInput(op)
			}},
		}, nil),
		Factory: mapping.BindSingleAs(sifplan.GlobalReduceKind, Name, Name+".global_reduce", estimatorFor(sifplan.GlobalReduceKind)),
	},
	bindKind(sifplan.ReduceByKind),
	bindKind(sifplan.GroupByKind),
	bindKind(sifplan.MaterializedGroupByKind),
	bindKind(sifplan.CountKind),
	bindKind(sifplan.DistinctKind),
	bindKind(sifplan.SortKind),
	bindKind(sifplan.UnionAllKind),
	bindKind(sifplan.CartesianKind),
	bindKind(sifplan.JoinKind),
	bindKind(sifplan.SampleKind),
	bindKind(sifplan.LoopKind),
	bindKind(sifplan.DoWhileKind),
	bindKind(sifplan.LocalCallbackSinkKind),
}
