package plan

import (
	"fmt"

	"github.com/go-sif/sifplan"
)

// These constructors are the operator construction API, used to assemble an Unbound Plan.

// NewUnaryToUnary creates a logical Operator with a single input named "input" and a single output named "output"
func NewUnaryToUnary(kind sifplan.OperatorKind, in sifplan.DataSetType, out sifplan.DataSetType, opts ...Option) *Operator {
	return NewOperator(kind, []sifplan.DataSetType{in}, []sifplan.DataSetType{out}, opts...)
}

// NewSource creates a logical Operator with no input and a single output
func NewSource(kind sifplan.OperatorKind, out sifplan.DataSetType, opts ...Option) *Operator {
	return NewOperator(kind, nil, []sifplan.DataSetType{out}, opts...)
}

// NewSink creates a logical Operator with a single input and no output
func NewSink(kind sifplan.OperatorKind, in sifplan.DataSetType, opts ...Option) *Operator {
	return NewOperator(kind, []sifplan.DataSetType{in}, nil, opts...)
}

// NewBinaryToUnary creates a logical Operator with two inputs and a single output
func NewBinaryToUnary(kind sifplan.OperatorKind, left sifplan.DataSetType, right sifplan.DataSetType, out sifplan.DataSetType, opts ...Option) *Operator {
	return NewOperator(kind, []sifplan.DataSetType{left, right}, []sifplan.DataSetType{out}, opts...)
}

// NewTextFileSource creates a source reading the lines of a text file. Lines are parsed as jsonl
// records when the format is "jsonl", and handed over as strings otherwise.
func NewTextFileSource(path string, format string, out sifplan.DataSetType, opts ...Option) *Operator {
	op := NewSource(sifplan.TextFileSourceKind, out, opts...)
	op.props.Path = path
	op.props.Format = format
	return op
}

// NewJsonlFileSource creates a text file source producing one Record per line, from the given fields
func NewJsonlFileSource(path string, fields []string, opts ...Option) *Operator {
	op := NewTextFileSource(path, "jsonl", sifplan.DataSetOf(sifplan.RecordElement), opts...)
	op.props.Fields = append([]string(nil), fields...)
	return op
}

// NewTsvFileSource creates a source reading values of the given type from a tab-separated file
func NewTsvFileSource(path string, out sifplan.DataSetType, opts ...Option) *Operator {
	op := NewSource(sifplan.TsvFileSourceKind, out, opts...)
	op.props.Path = path
	return op
}

// NewCollectionSource creates a source emitting an in-memory collection
func NewCollectionSource(values []interface{}, out sifplan.DataSetType, opts ...Option) *Operator {
	op := NewSource(sifplan.CollectionSourceKind, out, opts...)
	op.props.Collection = append([]interface{}(nil), values...)
	if op.props.Cardinality < 0 {
		op.props.Cardinality = int64(len(values))
	}
	return op
}

// NewMap creates an Operator transforming each element with a user function
func NewMap(in sifplan.DataSetType, out sifplan.DataSetType, udf string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.MapKind, in, out, append(opts, WithUDF(udf))...)
}

// NewFlatMap creates an Operator turning each element into zero or more elements
func NewFlatMap(in sifplan.DataSetType, out sifplan.DataSetType, udf string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.FlatMapKind, in, out, append(opts, WithUDF(udf))...)
}

// NewFilter creates an Operator retaining the elements which satisfy a predicate
func NewFilter(t sifplan.DataSetType, predicate string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.FilterKind, t, t, append(opts, WithUDF(predicate))...)
}

// NewReduce creates a context-dependent reduction. Fed by a GroupBy (in is grouped), it reduces
// each group. Otherwise, it reduces the whole dataset to a single element.
func NewReduce(in sifplan.DataSetType, out sifplan.DataSetType, reducer string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.ReduceKind, in, out, append(opts, WithUDF(reducer))...)
}

// NewReduceBy creates a keyed reduction
func NewReduceBy(t sifplan.DataSetType, key string, reducer string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.ReduceByKind, t, t, append(opts, WithKeyUDF(key), WithUDF(reducer))...)
}

// NewGroupBy creates an Operator grouping elements by key
func NewGroupBy(t sifplan.DataSetType, key string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.GroupByKind, t, sifplan.GroupedDataSetOf(t.Element), append(opts, WithKeyUDF(key))...)
}

// NewCount creates an Operator counting the elements of its input
func NewCount(in sifplan.DataSetType, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.CountKind, in, sifplan.DataSetOf(sifplan.IntElement), opts...)
}

// NewDistinct creates an Operator removing duplicate elements
func NewDistinct(t sifplan.DataSetType, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.DistinctKind, t, t, opts...)
}

// NewSort creates an Operator sorting elements by key
func NewSort(t sifplan.DataSetType, key string, opts ...Option) *Operator {
	return NewUnaryToUnary(sifplan.SortKind, t, t, append(opts, WithKeyUDF(key))...)
}

// NewUnionAll creates an Operator concatenating two datasets of the same type
func NewUnionAll(t sifplan.DataSetType, opts ...Option) *Operator {
	return NewBinaryToUnary(sifplan.UnionAllKind, t, t, t, opts...)
}

// NewCartesian creates an Operator producing the cross product of two datasets, as Records
func NewCartesian(left sifplan.DataSetType, right sifplan.DataSetType, opts ...Option) *Operator {
	return NewBinaryToUnary(sifplan.CartesianKind, left, right, sifplan.DataSetOf(sifplan.RecordElement), opts...)
}

// NewJoin creates an Operator joining two datasets on a key, producing Records
func NewJoin(left sifplan.DataSetType, right sifplan.DataSetType, key string, opts ...Option) *Operator {
	return NewBinaryToUnary(sifplan.JoinKind, left, right, sifplan.DataSetOf(sifplan.RecordElement), append(opts, WithKeyUDF(key))...)
}

// NewSample creates an Operator drawing a sample of the given size
func NewSample(t sifplan.DataSetType, size int64, opts ...Option) *Operator {
	op := NewUnaryToUnary(sifplan.SampleKind, t, t, opts...)
	op.props.SampleSize = size
	return op
}

// NewLocalCallbackSink creates a sink handing every element to a local callback
func NewLocalCallbackSink(in sifplan.DataSetType, callback string, opts ...Option) *Operator {
	return NewSink(sifplan.LocalCallbackSinkKind, in, append(opts, WithUDF(callback))...)
}

// BodyBuilder assembles the body of a loop. Operators of the body should be created
// WithParent(head), and the returned Plan becomes the body of the loop head.
type BodyBuilder func(head *Operator) (*Plan, error)

// NewLoop creates a loop head which runs its body a fixed number of times
func NewLoop(t sifplan.DataSetType, iterations int, build BodyBuilder, opts ...Option) (*Operator, error) {
	head := NewUnaryToUnary(sifplan.LoopKind, t, t, opts...)
	head.props.Iterations = iterations
	return attachBody(head, build)
}

// NewDoWhile creates a loop head which runs its body while a condition holds. expectedIterations
// is used for cost estimation only.
func NewDoWhile(t sifplan.DataSetType, condition string, expectedIterations int, build BodyBuilder, opts ...Option) (*Operator, error) {
	head := NewUnaryToUnary(sifplan.DoWhileKind, t, t, append(opts, WithUDF(condition))...)
	head.props.Iterations = expectedIterations
	return attachBody(head, build)
}

func attachBody(head *Operator, build BodyBuilder) (*Operator, error) {
	if head.props.Iterations < 1 {
		return nil, fmt.Errorf("%s must iterate at least once", head)
	}
	body, err := build(head)
	if err != nil {
		return nil, err
	}
	if body == nil || body.Size() == 0 {
		return nil, fmt.Errorf("%s has an empty body", head)
	}
	for _, op := range body.ops {
		if parent, ok := body.parents[op.id]; !ok || parent != head.id {
			return nil, fmt.Errorf("%s of the body of %s was not created with WithParent", op, head)
		}
	}
	head.body = body
	return head, nil
}
