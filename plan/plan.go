package plan

import (
	"sort"

	"github.com/go-sif/sifplan/errors"
	"github.com/samber/lo"
)

// BindingState describes how far a Plan has progressed towards being executable
type BindingState string

const (
	// Unbound indicates that every operator of a Plan is logical
	Unbound BindingState = "unbound"
	// PartiallyBound indicates a mix of logical and execution-bound operators, or missing channels
	PartiallyBound BindingState = "partially_bound"
	// FullyBound indicates that every operator is execution-bound and every edge has a Channel
	FullyBound BindingState = "fully_bound"
)

// Plan is the owned set of Operators reachable from a set of sinks, back through their
// input edges. Every traversal of a Plan is deterministic: Operators are ordered by the
// sequence in which they joined the Plan, then by ID.
type Plan struct {
	ops     []*Operator
	byID    map[int64]*Operator
	seq     map[int64]int
	nextSeq int
	parents map[int64]int64 // child ID -> parent ID. A lookup index only, never an ownership relation.
}

// New creates a Plan from the Operators reachable from the given sinks
func New(sinks ...*Operator) (*Plan, error) {
	if len(sinks) == 0 {
		return nil, errors.InvalidSubplanError{Reason: "a plan needs at least one sink"}
	}
	p := newEmptyPlan()
	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[int64]int)
	var visit func(op *Operator) error
	visit = func(op *Operator) error {
		switch state[op.id] {
		case visited:
			return nil
		case visiting:
			return errors.CycleError{Operator: op.String()}
		}
		state[op.id] = visiting
		for _, in := range op.inputs {
			if in.occupant != nil {
				if err := visit(in.occupant.owner); err != nil {
					return err
				}
			}
		}
		state[op.id] = visited
		p.add(op)
		return nil
	}
	for _, sink := range sinks {
		if err := visit(sink); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func newEmptyPlan() *Plan {
	return &Plan{
		byID:    make(map[int64]*Operator),
		seq:     make(map[int64]int),
		parents: make(map[int64]int64),
	}
}

// add appends an Operator to this Plan, indexing its parent
func (p *Plan) add(op *Operator) {
	if _, ok := p.byID[op.id]; ok {
		return
	}
	p.ops = append(p.ops, op)
	p.byID[op.id] = op
	p.seq[op.id] = p.nextSeq
	p.nextSeq++
	if op.parentID != 0 {
		p.parents[op.id] = op.parentID
	}
}

// remove drops an Operator from this Plan, without touching its slots
func (p *Plan) remove(op *Operator) {
	if _, ok := p.byID[op.id]; !ok {
		return
	}
	p.ops = lo.Reject(p.ops, func(o *Operator, _ int) bool { return o.id == op.id })
	delete(p.byID, op.id)
	delete(p.seq, op.id)
	delete(p.parents, op.id)
}

// reparented returns a view of this Plan sharing its Operators, in which every child of
// oldParent is indexed under newParent. This Plan is left untouched.
func (p *Plan) reparented(oldParent int64, newParent int64) *Plan {
	res := &Plan{
		ops:     append([]*Operator(nil), p.ops...),
		byID:    make(map[int64]*Operator, len(p.byID)),
		seq:     make(map[int64]int, len(p.seq)),
		nextSeq: p.nextSeq,
		parents: make(map[int64]int64, len(p.parents)),
	}
	for id, op := range p.byID {
		res.byID[id] = op
	}
	for id, s := range p.seq {
		res.seq[id] = s
	}
	for child, parent := range p.parents {
		if parent == oldParent {
			parent = newParent
		}
		res.parents[child] = parent
	}
	return res
}

// Size returns the number of Operators in this Plan
func (p *Plan) Size() int {
	return len(p.ops)
}

// Contains returns true iff the given Operator belongs to this Plan
func (p *Plan) Contains(op *Operator) bool {
	_, ok := p.byID[op.id]
	return ok
}

// Operator returns the Operator with the given ID, or nil
func (p *Plan) Operator(id int64) *Operator {
	return p.byID[id]
}

// Operators returns all Operators of this Plan, in insertion order
func (p *Plan) Operators() []*Operator {
	return append([]*Operator(nil), p.ops...)
}

// ParentOf returns the ID of the enclosing Operator of a nested Operator
func (p *Plan) ParentOf(id int64) (int64, bool) {
	parent, ok := p.parents[id]
	return parent, ok
}

// Children returns the Operators of this Plan nested within the given parent, in insertion order
func (p *Plan) Children(parentID int64) []*Operator {
	return lo.Filter(p.ops, func(op *Operator, _ int) bool {
		parent, ok := p.parents[op.id]
		return ok && parent == parentID
	})
}

// less orders Operators by insertion sequence, then by ID
func (p *Plan) less(a *Operator, b *Operator) bool {
	if p.seq[a.id] != p.seq[b.id] {
		return p.seq[a.id] < p.seq[b.id]
	}
	return a.id < b.id
}

// TopologicalOrder returns the Operators of this Plan such that every producer precedes its
// consumers. Among Operators which are ready at the same time, insertion order wins.
func (p *Plan) TopologicalOrder() []*Operator {
	pending := make(map[int64]int, len(p.ops))
	var ready []*Operator
	for _, op := range p.ops {
		n := 0
		for _, in := range op.inputs {
			if in.occupant != nil && p.Contains(in.occupant.owner) {
				n++
			}
		}
		pending[op.id] = n
		if n == 0 {
			ready = append(ready, op)
		}
	}
	res := make([]*Operator, 0, len(p.ops))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return p.less(ready[i], ready[j]) })
		next := ready[0]
		ready = ready[1:]
		res = append(res, next)
		for _, out := range next.outputs {
			if out.occupant == nil || !p.Contains(out.occupant.owner) {
				continue
			}
			consumer := out.occupant.owner
			pending[consumer.id]--
			if pending[consumer.id] == 0 {
				ready = append(ready, consumer)
			}
		}
	}
	return res
}

// Sources returns the Operators with no producing edge, in insertion order
func (p *Plan) Sources() []*Operator {
	return lo.Filter(p.ops, func(op *Operator, _ int) bool {
		return lo.EveryBy(op.inputs, func(in *InputSlot) bool { return in.occupant == nil })
	})
}

// Sinks returns the Operators with no consuming edge, in insertion order
func (p *Plan) Sinks() []*Operator {
	return lo.Filter(p.ops, func(op *Operator, _ int) bool {
		return lo.EveryBy(op.outputs, func(out *OutputSlot) bool { return out.occupant == nil })
	})
}

// LogicalOperators returns the Operators which are not yet execution-bound, in topological order
func (p *Plan) LogicalOperators() []*Operator {
	return lo.Filter(p.TopologicalOrder(), func(op *Operator, _ int) bool { return op.IsLogical() })
}

// Edges returns every connected OutputSlot of this Plan, in topological order of their producers
func (p *Plan) Edges() []*OutputSlot {
	var res []*OutputSlot
	for _, op := range p.TopologicalOrder() {
		for _, out := range op.outputs {
			if out.occupant != nil {
				res = append(res, out)
			}
		}
	}
	return res
}

// UnresolvedEdges returns the edges between two execution-bound Operators which have no Channel yet
func (p *Plan) UnresolvedEdges() []*OutputSlot {
	return lo.Filter(p.Edges(), func(out *OutputSlot, _ int) bool {
		return out.channel == nil && out.owner.IsExecutionBound() && out.occupant.owner.IsExecutionBound()
	})
}

// BindingState reports whether this Plan is Unbound, PartiallyBound or FullyBound.
// A FullyBound Plan has only execution-bound Operators, a Channel on every edge, and
// FullyBound loop bodies.
func (p *Plan) BindingState() BindingState {
	numLogical := 0
	for _, op := range p.ops {
		if op.IsLogical() {
			numLogical++
		}
	}
	if numLogical > 0 && numLogical == len(p.ops) {
		return Unbound
	}
	if numLogical > 0 {
		return PartiallyBound
	}
	for _, out := range p.Edges() {
		if out.channel == nil {
			return PartiallyBound
		}
	}
	for _, op := range p.ops {
		if op.body != nil && op.body.BindingState() != FullyBound {
			return PartiallyBound
		}
	}
	return FullyBound
}
