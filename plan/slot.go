package plan

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/errors"
)

// InputSlot is a typed input port of an Operator. It is fed by at most one OutputSlot.
type InputSlot struct {
	name     string
	index    int
	owner    *Operator
	typ      sifplan.DataSetType
	occupant *OutputSlot
}

// Name returns the name of this InputSlot
func (s *InputSlot) Name() string {
	return s.name
}

// Index returns the position of this InputSlot within its Operator
func (s *InputSlot) Index() int {
	return s.index
}

// Owner returns the Operator this InputSlot belongs to
func (s *InputSlot) Owner() *Operator {
	return s.owner
}

// Type returns the DataSetType accepted by this InputSlot
func (s *InputSlot) Type() sifplan.DataSetType {
	return s.typ
}

// Occupant returns the OutputSlot feeding this InputSlot, or nil
func (s *InputSlot) Occupant() *OutputSlot {
	return s.occupant
}

// String returns a textual representation of this InputSlot
func (s *InputSlot) String() string {
	return fmt.Sprintf("%s.%s", s.owner, s.name)
}

// OutputSlot is a typed output port of an Operator. It feeds at most one InputSlot,
// and carries the Channel realizing that edge once both ends are execution-bound.
type OutputSlot struct {
	name     string
	index    int
	owner    *Operator
	typ      sifplan.DataSetType
	occupant *InputSlot
	channel  *Channel
}

// Name returns the name of this OutputSlot
func (s *OutputSlot) Name() string {
	return s.name
}

// Index returns the position of this OutputSlot within its Operator
func (s *OutputSlot) Index() int {
	return s.index
}

// Owner returns the Operator this OutputSlot belongs to
func (s *OutputSlot) Owner() *Operator {
	return s.owner
}

// Type returns the DataSetType produced by this OutputSlot
func (s *OutputSlot) Type() sifplan.DataSetType {
	return s.typ
}

// Occupant returns the InputSlot fed by this OutputSlot, or nil
func (s *OutputSlot) Occupant() *InputSlot {
	return s.occupant
}

// Channel returns the Channel realizing the edge leaving this OutputSlot, or nil if unresolved
func (s *OutputSlot) Channel() *Channel {
	return s.channel
}

// SetChannel annotates the edge leaving this OutputSlot with a Channel.
// Channels can only be set on edges between two execution-bound Operators.
func (s *OutputSlot) SetChannel(c *Channel) error {
	if s.occupant == nil {
		return fmt.Errorf("cannot set a channel on unconnected slot %s", s)
	}
	if !s.owner.IsExecutionBound() || !s.occupant.owner.IsExecutionBound() {
		return fmt.Errorf("cannot set a channel between %s and %s: both must be execution-bound", s.owner, s.occupant.owner)
	}
	s.channel = c
	return nil
}

// String returns a textual representation of this OutputSlot
func (s *OutputSlot) String() string {
	return fmt.Sprintf("%s.%s", s.owner, s.name)
}

// Connect links an OutputSlot to an InputSlot. The connection is recorded on both slots.
// It fails with a SlotOccupiedError if either slot is already connected (including to each other),
// and with a TypeMismatchError if the produced DataSetType is not compatible with the consumed one.
func Connect(out *OutputSlot, in *InputSlot) error {
	if out.occupant != nil {
		return errors.SlotOccupiedError{Slot: out.String()}
	}
	if in.occupant != nil {
		return errors.SlotOccupiedError{Slot: in.String()}
	}
	if !out.typ.IsCompatibleWith(in.typ) {
		return errors.TypeMismatchError{Output: out.String(), Input: in.String(), From: out.typ.String(), To: in.typ.String()}
	}
	link(out, in)
	return nil
}

// Disconnect removes the edge feeding an InputSlot, along with its Channel. It returns the
// OutputSlot which used to feed it, or nil if the InputSlot was not connected.
func Disconnect(in *InputSlot) *OutputSlot {
	out := in.occupant
	if out == nil {
		return nil
	}
	out.occupant = nil
	out.channel = nil
	in.occupant = nil
	return out
}

func link(out *OutputSlot, in *InputSlot) {
	out.occupant = in
	in.occupant = out
}
