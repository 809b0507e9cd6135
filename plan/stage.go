package plan

import (
	"github.com/go-sif/sifplan/errors"
)

// Stage is a group of execution-bound Operators which run on the same platform.
// Stages block the execution of further stages until they are complete.
type Stage struct {
	id        int
	platform  string
	operators []*Operator
}

// ID returns the ID for this Stage
func (s *Stage) ID() int {
	return s.id
}

// Platform returns the name of the platform running this Stage
func (s *Stage) Platform() string {
	return s.platform
}

// Operators returns the Operators of this Stage, in topological order
func (s *Stage) Operators() []*Operator {
	return append([]*Operator(nil), s.operators...)
}

// Size returns the number of Operators in this Stage
func (s *Stage) Size() int {
	return len(s.operators)
}

// SplitStages splits a FullyBound Plan into Stages. Operators are walked in topological order,
// and a new Stage begins whenever the platform changes.
func (p *Plan) SplitStages() ([]*Stage, error) {
	if state := p.BindingState(); state != FullyBound {
		return nil, errors.NotFullyBoundError{State: string(state)}
	}
	nextID := 0
	var stages []*Stage
	var current *Stage
	for _, op := range p.TopologicalOrder() {
		if current == nil || current.platform != op.platform {
			current = &Stage{id: nextID, platform: op.platform}
			nextID++
			stages = append(stages, current)
		}
		current.operators = append(current.operators, op)
	}
	return stages, nil
}
