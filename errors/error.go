package errors

import (
	"fmt"
)

// TypeMismatchError occurs when two slots with incompatible DataSetTypes are connected
type TypeMismatchError struct {
	Output string // description of the producing slot
	Input  string // description of the consuming slot
	From   string // dataset type of the producing slot
	To     string // dataset type of the consuming slot
}

// Error returns a textual representation of this TypeMismatchError
func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot connect %s (%s) to %s (%s): incompatible dataset types", e.Output, e.From, e.Input, e.To)
}

// SlotOccupiedError occurs when connecting a slot which already has a counterpart
type SlotOccupiedError struct{ Slot string }

// Error returns a textual representation of this SlotOccupiedError
func (e SlotOccupiedError) Error() string {
	return fmt.Sprintf("slot %s is already connected", e.Slot)
}

// SignatureMismatchError occurs when a replacement subplan does not expose the same
// ordered external dataset types as the subgraph it replaces
type SignatureMismatchError struct {
	Expected []string
	Actual   []string
}

// Error returns a textual representation of this SignatureMismatchError
func (e SignatureMismatchError) Error() string {
	return fmt.Sprintf("replacement signature %v does not match replaced signature %v", e.Actual, e.Expected)
}

// InvalidSubplanError occurs when a subgraph cannot be replaced because it is empty,
// disconnected or not part of the plan
type InvalidSubplanError struct{ Reason string }

// Error returns a textual representation of this InvalidSubplanError
func (e InvalidSubplanError) Error() string {
	return fmt.Sprintf("invalid subplan: %s", e.Reason)
}

// NoCompatibleChannelError occurs when two adjacent execution operators share no channel type
type NoCompatibleChannelError struct {
	Producer string // platform of the producing operator
	Consumer string // platform of the consuming operator
}

// Error returns a textual representation of this NoCompatibleChannelError
func (e NoCompatibleChannelError) Error() string {
	return fmt.Sprintf("no channel type is producible by %s and consumable by %s", e.Producer, e.Consumer)
}

// UnsatisfiableError occurs when no combination of registered platforms can realize a plan
type UnsatisfiableError struct {
	OperatorID int64  // ID of the stranded logical operator
	Operator   string // description of the stranded logical operator
	Cause      error  // the rejected candidates for this operator, if any
}

// Error returns a textual representation of this UnsatisfiableError
func (e UnsatisfiableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plan is unsatisfiable: no mapping can bind %s: %v", e.Operator, e.Cause)
	}
	return fmt.Sprintf("plan is unsatisfiable: no mapping can bind %s", e.Operator)
}

// Unwrap returns the reason the stranded operator's candidates were rejected
func (e UnsatisfiableError) Unwrap() error {
	return e.Cause
}

// UnsupportedElementTypeError occurs when a reader is asked to produce an element type it cannot parse
type UnsupportedElementTypeError struct{ Element string }

// Error returns a textual representation of this UnsupportedElementTypeError
func (e UnsupportedElementTypeError) Error() string {
	return fmt.Sprintf("element type %s is not supported", e.Element)
}

// MalformedLineError occurs when a line of an input file cannot be parsed
type MalformedLineError struct {
	Path   string
	Line   int
	Reason string
}

// Error returns a textual representation of this MalformedLineError
func (e MalformedLineError) Error() string {
	return fmt.Sprintf("%s:%d: malformed line: %s", e.Path, e.Line, e.Reason)
}

// InvalidEstimatorError occurs when a load estimator is configured with out-of-range parameters
type InvalidEstimatorError struct{ Reason string }

// Error returns a textual representation of this InvalidEstimatorError
func (e InvalidEstimatorError) Error() string {
	return fmt.Sprintf("invalid load estimator: %s", e.Reason)
}

// MissingPropertyError occurs when a required configuration property is absent
type MissingPropertyError struct{ Key string }

// Error returns a textual representation of this MissingPropertyError
func (e MissingPropertyError) Error() string {
	return fmt.Sprintf("required property %s is not set", e.Key)
}

// NotFullyBoundError occurs when a plan is executed before every operator is execution-bound
type NotFullyBoundError struct{ State string }

// Error returns a textual representation of this NotFullyBoundError
func (e NotFullyBoundError) Error() string {
	return fmt.Sprintf("plan must be fully bound to execute, but is %s", e.State)
}

// CycleError occurs when the operators of a plan form a cycle outside of a loop construct
type CycleError struct{ Operator string }

// Error returns a textual representation of this CycleError
func (e CycleError) Error() string {
	return fmt.Sprintf("plan contains a cycle through %s; loops must be expressed with a loop operator", e.Operator)
}
