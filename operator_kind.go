package sifplan

// OperatorKind describes the kind of an Operator, used to match Operators against mapping patterns
// and to drive cardinality estimation
type OperatorKind string

const (
	// TextFileSourceKind indicates that this operator reads lines from a text file
	TextFileSourceKind OperatorKind = "text_file_source"
	// TsvFileSourceKind indicates that this operator reads values from a tab-separated file
	TsvFileSourceKind OperatorKind = "tsv_file_source"
	// CollectionSourceKind indicates that this operator emits an in-memory collection
	CollectionSourceKind OperatorKind = "collection_source"
	// MapKind indicates that this operator transforms each element
	MapKind OperatorKind = "map"
	// FlatMapKind indicates that this operator turns each element into zero or more elements
	FlatMapKind OperatorKind = "flatmap"
	// FilterKind indicates that this operator retains a subset of elements
	FilterKind OperatorKind = "filter"
	// ReduceKind indicates a context-dependent reduction: grouped after a GroupBy, global otherwise
	ReduceKind OperatorKind = "reduce"
	// ReduceByKind indicates a keyed reduction
	ReduceByKind OperatorKind = "reduce_by"
	// GlobalReduceKind indicates a reduction of the whole dataset to a single element
	GlobalReduceKind OperatorKind = "global_reduce"
	// GroupByKind indicates that this operator groups elements by key
	GroupByKind OperatorKind = "group_by"
	// MaterializedGroupByKind indicates a GroupBy which materializes each group
	MaterializedGroupByKind OperatorKind = "materialized_group_by"
	// CountKind indicates that this operator counts elements
	CountKind OperatorKind = "count"
	// DistinctKind indicates that this operator removes duplicate elements
	DistinctKind OperatorKind = "distinct"
	// SortKind indicates that this operator sorts elements
	SortKind OperatorKind = "sort"
	// UnionAllKind indicates that this operator concatenates two datasets
	UnionAllKind OperatorKind = "union_all"
	// CartesianKind indicates that this operator produces the cross product of two datasets
	CartesianKind OperatorKind = "cartesian"
	// JoinKind indicates that this operator joins two datasets on a key
	JoinKind OperatorKind = "join"
	// SampleKind indicates that this operator draws a sample of elements
	SampleKind OperatorKind = "sample"
	// LoopKind indicates a loop head which repeats its body a fixed number of times
	LoopKind OperatorKind = "loop"
	// DoWhileKind indicates a loop head which repeats its body while a condition holds
	DoWhileKind OperatorKind = "do_while"
	// LocalCallbackSinkKind indicates that this operator hands every element to a local callback
	LocalCallbackSinkKind OperatorKind = "local_callback_sink"
)

// OperatorKinds lists every known OperatorKind, in declaration order
var OperatorKinds = []OperatorKind{
	TextFileSourceKind,
	TsvFileSourceKind,
	CollectionSourceKind,
	MapKind,
	FlatMapKind,
	FilterKind,
	ReduceKind,
	ReduceByKind,
	GlobalReduceKind,
	GroupByKind,
	MaterializedGroupByKind,
	CountKind,
	DistinctKind,
	SortKind,
	UnionAllKind,
	CartesianKind,
	JoinKind,
	SampleKind,
	LoopKind,
	DoWhileKind,
	LocalCallbackSinkKind,
}

// IsValid returns true iff this is one of the known OperatorKinds
func (k OperatorKind) IsValid() bool {
	for _, known := range OperatorKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsSource returns true iff operators of this kind have no inputs
func (k OperatorKind) IsSource() bool {
	switch k {
	case TextFileSourceKind, TsvFileSourceKind, CollectionSourceKind:
		return true
	default:
		return false
	}
}

// IsLoop returns true iff operators of this kind own a nested loop body
func (k OperatorKind) IsLoop() bool {
	return k == LoopKind || k == DoWhileKind
}
