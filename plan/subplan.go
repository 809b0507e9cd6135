package plan

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/errors"
	"github.com/samber/lo"
)

// A Subplan is a connected group of Operators which is not (yet) part of a Plan, exposing an
// ordered list of unconnected external input and output slots. Subplans are proposed by
// mappings as replacements for a matched group of logical Operators.
type Subplan struct {
	Operators []*Operator
	Inputs    []*InputSlot
	Outputs   []*OutputSlot
}

// NewSubplan creates a Subplan from Operators whose internal edges are already connected
func NewSubplan(operators []*Operator, inputs []*InputSlot, outputs []*OutputSlot) *Subplan {
	return &Subplan{Operators: operators, Inputs: inputs, Outputs: outputs}
}

// SingleOperatorSubplan creates a Subplan made of a single Operator, exposing all of its slots
func SingleOperatorSubplan(op *Operator) *Subplan {
	return &Subplan{Operators: []*Operator{op}, Inputs: op.Inputs(), Outputs: op.Outputs()}
}

// InputTypes returns the ordered DataSetTypes of the external inputs of this Subplan
func (sp *Subplan) InputTypes() []sifplan.DataSetType {
	return lo.Map(sp.Inputs, func(s *InputSlot, _ int) sifplan.DataSetType { return s.typ })
}

// OutputTypes returns the ordered DataSetTypes of the external outputs of this Subplan
func (sp *Subplan) OutputTypes() []sifplan.DataSetType {
	return lo.Map(sp.Outputs, func(s *OutputSlot, _ int) sifplan.DataSetType { return s.typ })
}

// Platforms returns the distinct platforms of the Operators in this Subplan, in order of appearance
func (sp *Subplan) Platforms() []string {
	return lo.Uniq(lo.Map(sp.Operators, func(op *Operator, _ int) string { return op.platform }))
}

// ExternalSlots computes the external signature of a group of Operators: every input slot which is
// not fed from within the group, and every output slot which does not feed the group, ordered by
// the position of their Operator in ops, then by slot index.
func ExternalSlots(ops []*Operator) ([]*InputSlot, []*OutputSlot) {
	members := lo.SliceToMap(ops, func(op *Operator) (int64, bool) { return op.id, true })
	var ins []*InputSlot
	var outs []*OutputSlot
	for _, op := range ops {
		for _, in := range op.inputs {
			if in.occupant == nil || !members[in.occupant.owner.id] {
				ins = append(ins, in)
			}
		}
	}
	for _, op := range ops {
		for _, out := range op.outputs {
			if out.occupant == nil || !members[out.occupant.owner.id] {
				outs = append(outs, out)
			}
		}
	}
	return ins, outs
}

// signature renders the ordered external dataset types of a group of slots
func signature(ins []sifplan.DataSetType, outs []sifplan.DataSetType) []string {
	res := make([]string, 0, len(ins)+len(outs))
	for _, t := range ins {
		res = append(res, "in:"+t.String())
	}
	for _, t := range outs {
		res = append(res, "out:"+t.String())
	}
	return res
}

func sameTypes(a []sifplan.DataSetType, b []sifplan.DataSetType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// isConnected returns true iff the given Operators form a single weakly connected component
func isConnected(ops []*Operator) bool {
	members := lo.SliceToMap(ops, func(op *Operator) (int64, bool) { return op.id, true })
	seen := map[int64]bool{ops[0].id: true}
	frontier := []*Operator{ops[0]}
	for len(frontier) > 0 {
		op := frontier[0]
		frontier = frontier[1:]
		neighbours := append(op.Producers(), op.Consumers()...)
		for _, n := range neighbours {
			if n != nil && members[n.id] && !seen[n.id] {
				seen[n.id] = true
				frontier = append(frontier, n)
			}
		}
	}
	return len(seen) == len(members)
}

// validateReplacement checks that old can be swapped for repl, without modifying anything
func (p *Plan) validateReplacement(old []*Operator, repl *Subplan) ([]*InputSlot, []*OutputSlot, error) {
	if len(old) == 0 {
		return nil, nil, errors.InvalidSubplanError{Reason: "no operators to replace"}
	}
	if repl == nil || len(repl.Operators) == 0 {
		return nil, nil, errors.InvalidSubplanError{Reason: "empty replacement"}
	}
	if len(lo.UniqBy(old, func(op *Operator) int64 { return op.id })) != len(old) {
		return nil, nil, errors.InvalidSubplanError{Reason: "duplicate operators to replace"}
	}
	for _, op := range old {
		if !p.Contains(op) {
			return nil, nil, errors.InvalidSubplanError{Reason: fmt.Sprintf("%s is not part of the plan", op)}
		}
	}
	if !isConnected(old) {
		return nil, nil, errors.InvalidSubplanError{Reason: "operators to replace are not connected"}
	}
	replMembers := lo.SliceToMap(repl.Operators, func(op *Operator) (int64, bool) { return op.id, true })
	for _, op := range repl.Operators {
		if p.Contains(op) {
			return nil, nil, errors.InvalidSubplanError{Reason: fmt.Sprintf("replacement %s is already part of the plan", op)}
		}
	}
	for _, in := range repl.Inputs {
		if !replMembers[in.owner.id] {
			return nil, nil, errors.InvalidSubplanError{Reason: fmt.Sprintf("replacement input %s does not belong to the replacement", in)}
		}
		if in.occupant != nil {
			return nil, nil, errors.SlotOccupiedError{Slot: in.String()}
		}
	}
	for _, out := range repl.Outputs {
		if !replMembers[out.owner.id] {
			return nil, nil, errors.InvalidSubplanError{Reason: fmt.Sprintf("replacement output %s does not belong to the replacement", out)}
		}
		if out.occupant != nil {
			return nil, nil, errors.SlotOccupiedError{Slot: out.String()}
		}
	}
	extIns, extOuts := ExternalSlots(old)
	oldInTypes := lo.Map(extIns, func(s *InputSlot, _ int) sifplan.DataSetType { return s.typ })
	oldOutTypes := lo.Map(extOuts, func(s *OutputSlot, _ int) sifplan.DataSetType { return s.typ })
	if !sameTypes(oldInTypes, repl.InputTypes()) || !sameTypes(oldOutTypes, repl.OutputTypes()) {
		return nil, nil, errors.SignatureMismatchError{
			Expected: signature(oldInTypes, oldOutTypes),
			Actual:   signature(repl.InputTypes(), repl.OutputTypes()),
		}
	}
	return extIns, extOuts, nil
}

// ReplaceSubplan atomically substitutes a connected group of Operators of this Plan with a
// Subplan exposing the same ordered external signature. Edges crossing the boundary of the
// replaced group are rewired to the corresponding external slots of the replacement, and lose
// their Channels. Nothing is modified if the replacement is rejected.
func (p *Plan) ReplaceSubplan(old []*Operator, repl *Subplan) error {
	extIns, extOuts, err := p.validateReplacement(old, repl)
	if err != nil {
		return err
	}
	for i, in := range extIns {
		if producer := Disconnect(in); producer != nil {
			link(producer, repl.Inputs[i])
		}
	}
	for i, out := range extOuts {
		if consumer := out.occupant; consumer != nil {
			Disconnect(consumer)
			link(repl.Outputs[i], consumer)
		}
	}
	for _, op := range old {
		p.remove(op)
	}
	for _, op := range repl.Operators {
		p.add(op)
	}
	return nil
}

// TopologicalOrder returns the Operators of this Subplan such that every producer within the
// Subplan precedes its consumers, keeping declaration order among independent Operators
func (sp *Subplan) TopologicalOrder() []*Operator {
	members := lo.SliceToMap(sp.Operators, func(op *Operator) (int64, bool) { return op.id, true })
	done := make(map[int64]bool, len(sp.Operators))
	res := make([]*Operator, 0, len(sp.Operators))
	for len(res) < len(sp.Operators) {
		progress := false
		for _, op := range sp.Operators {
			if done[op.id] {
				continue
			}
			ready := lo.EveryBy(op.inputs, func(in *InputSlot) bool {
				return in.occupant == nil || !members[in.occupant.owner.id] || done[in.occupant.owner.id]
			})
			if ready {
				done[op.id] = true
				res = append(res, op)
				progress = true
			}
		}
		if !progress {
			// cyclic subplan
			break
		}
	}
	return res
}
