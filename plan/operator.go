package plan

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"go.uber.org/atomic"
)

// operatorIDs hands out process-wide unique Operator IDs
var operatorIDs = atomic.NewInt64(0)

// Properties are the kind-specific settings of an Operator. Only the fields relevant
// to an Operator's kind are meaningful.
type Properties struct {
	UDF         string        // name of the user function descriptor (map function, predicate, reducer...)
	KeyUDF      string        // name of the key extractor, for keyed operators
	Path        string        // input path, for file sources
	Format      string        // line format, for text file sources ("text" or "jsonl")
	Fields      []string      // record field names, for jsonl text sources
	Collection  []interface{} // elements, for collection sources
	Selectivity float64       // output/input cardinality ratio, or a negative value if unknown
	Cardinality int64         // output cardinality hint, or a negative value if unknown
	SampleSize  int64         // requested sample size, for samplers
	Iterations  int           // (expected) number of iterations, for loops
}

// Clone returns a copy of these Properties
func (p Properties) Clone() Properties {
	res := p
	if p.Fields != nil {
		res.Fields = append([]string(nil), p.Fields...)
	}
	if p.Collection != nil {
		res.Collection = append([]interface{}(nil), p.Collection...)
	}
	return res
}

// An Operator is a node of a Plan, with a fixed, ordered list of typed input and output slots.
// An Operator is either logical (platform-agnostic) or execution-bound (committed to exactly
// one platform's implementation). The platform of an execution-bound Operator is set when
// it is constructed, and never changes.
type Operator struct {
	id        int64
	kind      sifplan.OperatorKind
	impl      string // name of the implementation, e.g. "stream.map". Empty for logical operators.
	platform  string // name of the platform. Empty for logical operators.
	estimator sifplan.ProfileEstimator
	inputs    []*InputSlot
	outputs   []*OutputSlot
	props     Properties
	parentID  int64 // construction-time parent, indexed by the Plan which owns this Operator
	body      *Plan // nested body, for loop heads
}

// Option configures an Operator at construction time
type Option func(op *Operator)

// WithParent declares the enclosing Operator (e.g. a loop head) of a nested Operator
func WithParent(parent *Operator) Option {
	return func(op *Operator) {
		if parent != nil {
			op.parentID = parent.id
		}
	}
}

// WithSameParent declares the same enclosing Operator as a sibling, e.g. for an Operator
// replacing the sibling
func WithSameParent(sibling *Operator) Option {
	return func(op *Operator) {
		op.parentID = sibling.parentID
	}
}

// WithSelectivity declares the expected ratio of output to input cardinality
func WithSelectivity(selectivity float64) Option {
	return func(op *Operator) {
		op.props.Selectivity = selectivity
	}
}

// WithCardinality declares the expected output cardinality
func WithCardinality(cardinality int64) Option {
	return func(op *Operator) {
		op.props.Cardinality = cardinality
	}
}

// WithUDF declares the user function descriptor of an Operator
func WithUDF(name string) Option {
	return func(op *Operator) {
		op.props.UDF = name
	}
}

// WithKeyUDF declares the key extractor of a keyed Operator
func WithKeyUDF(name string) Option {
	return func(op *Operator) {
		op.props.KeyUDF = name
	}
}

// WithProperties replaces all Properties of an Operator
func WithProperties(props Properties) Option {
	return func(op *Operator) {
		op.props = props.Clone()
	}
}

// NewOperator is the general factory for logical Operators, creating one input slot per
// entry in inputs and one output slot per entry in outputs
func NewOperator(kind sifplan.OperatorKind, inputs []sifplan.DataSetType, outputs []sifplan.DataSetType, opts ...Option) *Operator {
	op := &Operator{
		id:    operatorIDs.Inc(),
		kind:  kind,
		props: Properties{Selectivity: -1, Cardinality: -1},
	}
	op.inputs = make([]*InputSlot, len(inputs))
	for i, t := range inputs {
		op.inputs[i] = &InputSlot{name: slotName("input", i, len(inputs)), index: i, owner: op, typ: t}
	}
	op.outputs = make([]*OutputSlot, len(outputs))
	for i, t := range outputs {
		op.outputs[i] = &OutputSlot{name: slotName("output", i, len(outputs)), index: i, owner: op, typ: t}
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

func slotName(prefix string, idx int, total int) string {
	if total == 1 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, idx)
}

// NewExecutionOperator creates an Operator bound to a platform's implementation
func NewExecutionOperator(kind sifplan.OperatorKind, platform string, impl string, estimator sifplan.ProfileEstimator, inputs []sifplan.DataSetType, outputs []sifplan.DataSetType, opts ...Option) *Operator {
	op := NewOperator(kind, inputs, outputs, opts...)
	op.platform = platform
	op.impl = impl
	op.estimator = estimator
	return op
}

// Bind creates an execution-bound copy of a logical Operator, with the same kind, slot types,
// properties, parent and loop body
func Bind(logical *Operator, platform string, impl string, estimator sifplan.ProfileEstimator) *Operator {
	return BindAs(logical, logical.kind, platform, impl, estimator)
}

// BindAs is like Bind, but changes the kind of the resulting Operator
// (e.g. a context-dependent reduce becomes a global reduce)
func BindAs(logical *Operator, kind sifplan.OperatorKind, platform string, impl string, estimator sifplan.ProfileEstimator) *Operator {
	op := NewExecutionOperator(kind, platform, impl, estimator, logical.InputTypes(), logical.OutputTypes(), WithProperties(logical.props))
	op.parentID = logical.parentID
	if logical.body != nil {
		op.body = logical.body.reparented(logical.id, op.id)
	}
	return op
}

// ID returns the process-wide unique ID of this Operator
func (op *Operator) ID() int64 {
	return op.id
}

// Kind returns the OperatorKind of this Operator
func (op *Operator) Kind() sifplan.OperatorKind {
	return op.kind
}

// Implementation returns the name of the platform implementation of this Operator,
// or the empty string if it is logical
func (op *Operator) Implementation() string {
	return op.impl
}

// Platform returns the name of the platform this Operator is bound to,
// or the empty string if it is logical
func (op *Operator) Platform() string {
	return op.platform
}

// IsExecutionBound returns true iff this Operator is bound to a platform
func (op *Operator) IsExecutionBound() bool {
	return op.platform != ""
}

// IsLogical returns true iff this Operator is not bound to any platform
func (op *Operator) IsLogical() bool {
	return op.platform == ""
}

// Estimator returns the load estimator of an execution-bound Operator (nil for logical Operators)
func (op *Operator) Estimator() sifplan.ProfileEstimator {
	return op.estimator
}

// Properties returns a copy of the Properties of this Operator
func (op *Operator) Properties() Properties {
	return op.props.Clone()
}

// NumInputs returns the number of input slots of this Operator
func (op *Operator) NumInputs() int {
	return len(op.inputs)
}

// NumOutputs returns the number of output slots of this Operator
func (op *Operator) NumOutputs() int {
	return len(op.outputs)
}

// Input returns the input slot at the given index
func (op *Operator) Input(idx int) *InputSlot {
	return op.inputs[idx]
}

// Output returns the output slot at the given index
func (op *Operator) Output(idx int) *OutputSlot {
	return op.outputs[idx]
}

// Inputs returns the input slots of this Operator, in order
func (op *Operator) Inputs() []*InputSlot {
	return append([]*InputSlot(nil), op.inputs...)
}

// Outputs returns the output slots of this Operator, in order
func (op *Operator) Outputs() []*OutputSlot {
	return append([]*OutputSlot(nil), op.outputs...)
}

// InputTypes returns the DataSetTypes of the input slots, in order
func (op *Operator) InputTypes() []sifplan.DataSetType {
	res := make([]sifplan.DataSetType, len(op.inputs))
	for i, s := range op.inputs {
		res[i] = s.typ
	}
	return res
}

// OutputTypes returns the DataSetTypes of the output slots, in order
func (op *Operator) OutputTypes() []sifplan.DataSetType {
	res := make([]sifplan.DataSetType, len(op.outputs))
	for i, s := range op.outputs {
		res[i] = s.typ
	}
	return res
}

// Body returns the nested body of a loop head, or nil
func (op *Operator) Body() *Plan {
	return op.body
}

// Producers returns the Operators feeding each input slot (nil entries for unconnected inputs)
func (op *Operator) Producers() []*Operator {
	res := make([]*Operator, len(op.inputs))
	for i, in := range op.inputs {
		if in.occupant != nil {
			res[i] = in.occupant.owner
		}
	}
	return res
}

// Consumers returns the Operators consuming each output slot (nil entries for unconnected outputs)
func (op *Operator) Consumers() []*Operator {
	res := make([]*Operator, len(op.outputs))
	for i, out := range op.outputs {
		if out.occupant != nil {
			res[i] = out.occupant.owner
		}
	}
	return res
}

// String returns a textual representation of this Operator
func (op *Operator) String() string {
	if op.IsLogical() {
		return fmt.Sprintf("%s#%d", op.kind, op.id)
	}
	return fmt.Sprintf("%s#%d", op.impl, op.id)
}
