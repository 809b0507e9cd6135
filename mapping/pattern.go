package mapping

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/plan"
	"github.com/samber/lo"
)

// Node is a wildcard operator slot of a Pattern
type Node struct {
	Name      string                        // used to look up the matched Operator
	Kinds     []sifplan.OperatorKind        // the kinds this node accepts. Any kind if empty.
	Predicate func(op *plan.Operator) bool // optional additional constraint
}

func (n Node) accepts(op *plan.Operator) bool {
	if len(n.Kinds) > 0 && !lo.Contains(n.Kinds, op.Kind()) {
		return false
	}
	return n.Predicate == nil || n.Predicate(op)
}

// Edge requires output FromOutput of node From to feed input ToInput of node To
type Edge struct {
	From       int
	FromOutput int
	To         int
	ToInput    int
}

// step extends a partial match by one node, reached through an edge from an already-matched node
type step struct {
	node    int
	edge    Edge
	forward bool // true iff the new node is the consumer end of edge
}

// Pattern is a small, connected template graph of wildcard nodes. Node 0 is the anchor,
// and matching starts from every plan Operator accepted by the anchor.
type Pattern struct {
	name  string
	nodes []Node
	edges []Edge
	steps []step
}

// NewPattern creates a Pattern, validating that it is non-empty, that its edges reference
// existing nodes, and that every node is reachable from the anchor
func NewPattern(name string, nodes []Node, edges []Edge) (*Pattern, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("pattern %s has no nodes", name)
	}
	for _, e := range edges {
		if e.From < 0 || e.From >= len(nodes) || e.To < 0 || e.To >= len(nodes) || e.From == e.To {
			return nil, fmt.Errorf("pattern %s has an invalid edge %+v", name, e)
		}
	}
	p := &Pattern{name: name, nodes: append([]Node(nil), nodes...), edges: append([]Edge(nil), edges...)}
	// breadth-first expansion order from the anchor
	reached := map[int]bool{0: true}
	frontier := []int{0}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, e := range edges {
			switch {
			case e.From == current && !reached[e.To]:
				reached[e.To] = true
				p.steps = append(p.steps, step{node: e.To, edge: e, forward: true})
				frontier = append(frontier, e.To)
			case e.To == current && !reached[e.From]:
				reached[e.From] = true
				p.steps = append(p.steps, step{node: e.From, edge: e, forward: false})
				frontier = append(frontier, e.From)
			}
		}
	}
	if len(reached) != len(nodes) {
		return nil, fmt.Errorf("pattern %s is not connected", name)
	}
	return p, nil
}

// MustPattern is like NewPattern, but panics if the Pattern is invalid. It is intended for
// static rule tables.
func MustPattern(name string, nodes []Node, edges []Edge) *Pattern {
	p, err := NewPattern(name, nodes, edges)
	if err != nil {
		panic(err)
	}
	return p
}

// KindPattern creates a single-node Pattern accepting any of the given kinds
func KindPattern(name string, kinds ...sifplan.OperatorKind) *Pattern {
	return MustPattern(name, []Node{{Name: name, Kinds: kinds}}, nil)
}

// Name returns the name of this Pattern
func (p *Pattern) Name() string {
	return p.name
}

// Size returns the number of nodes of this Pattern
func (p *Pattern) Size() int {
	return len(p.nodes)
}

// AnchorAccepts returns true iff the anchor of this Pattern accepts the given Operator
func (p *Pattern) AnchorAccepts(op *plan.Operator) bool {
	return p.nodes[0].accepts(op)
}

// Match finds every occurrence of this Pattern among the logical Operators of a Plan. Anchors
// are tried in topological order, and each occurrence is extended along the template edges
// by backtracking, abandoning a partial match at the first mismatch. Matches are injective.
func (p *Pattern) Match(pl *plan.Plan) []*Match {
	var res []*Match
	for pos, op := range pl.TopologicalOrder() {
		if !op.IsLogical() || !p.nodes[0].accepts(op) {
			continue
		}
		assigned := make([]*plan.Operator, len(p.nodes))
		assigned[0] = op
		if p.extend(pl, assigned, 0) {
			res = append(res, &Match{pattern: p, plan: pl, operators: assigned, anchorPosition: pos})
		}
	}
	return res
}

// extend assigns the remaining nodes of a partial match, starting at steps[idx]
func (p *Pattern) extend(pl *plan.Plan, assigned []*plan.Operator, idx int) bool {
	if idx == len(p.steps) {
		return p.edgesHold(assigned)
	}
	s := p.steps[idx]
	for _, candidate := range p.candidates(assigned, s) {
		if candidate == nil || !pl.Contains(candidate) || !candidate.IsLogical() || !p.nodes[s.node].accepts(candidate) {
			continue
		}
		if lo.Contains(assigned, candidate) {
			continue
		}
		assigned[s.node] = candidate
		if p.extend(pl, assigned, idx+1) {
			return true
		}
		assigned[s.node] = nil
	}
	return false
}

// candidates lists the Operators which may be assigned to the node of a step
func (p *Pattern) candidates(assigned []*plan.Operator, s step) []*plan.Operator {
	if s.forward {
		from := assigned[s.edge.From]
		if s.edge.FromOutput >= from.NumOutputs() {
			return nil
		}
		in := from.Output(s.edge.FromOutput).Occupant()
		if in == nil || in.Index() != s.edge.ToInput {
			return nil
		}
		return []*plan.Operator{in.Owner()}
	}
	to := assigned[s.edge.To]
	if s.edge.ToInput >= to.NumInputs() {
		return nil
	}
	out := to.Input(s.edge.ToInput).Occupant()
	if out == nil || out.Index() != s.edge.FromOutput {
		return nil
	}
	return []*plan.Operator{out.Owner()}
}

// edgesHold checks every template edge against a complete assignment
func (p *Pattern) edgesHold(assigned []*plan.Operator) bool {
	for _, e := range p.edges {
		from, to := assigned[e.From], assigned[e.To]
		if e.FromOutput >= from.NumOutputs() || e.ToInput >= to.NumInputs() {
			return false
		}
		if from.Output(e.FromOutput).Occupant() != to.Input(e.ToInput) {
			return false
		}
	}
	return true
}

// Match is one occurrence of a Pattern in a Plan
type Match struct {
	pattern        *Pattern
	plan           *plan.Plan
	operators      []*plan.Operator // indexed by pattern node
	anchorPosition int              // position of the anchor in the topological order of the Plan
}

// Pattern returns the matched Pattern
func (m *Match) Pattern() *Pattern {
	return m.pattern
}

// Plan returns the Plan in which the match was found
func (m *Match) Plan() *plan.Plan {
	return m.plan
}

// Anchor returns the Operator matched by node 0
func (m *Match) Anchor() *plan.Operator {
	return m.operators[0]
}

// AnchorPosition returns the position of the anchor in the topological order of the Plan
func (m *Match) AnchorPosition() int {
	return m.anchorPosition
}

// Operators returns the matched Operators, in pattern node order
func (m *Match) Operators() []*plan.Operator {
	return append([]*plan.Operator(nil), m.operators...)
}

// Operator returns the Operator matched by the named node, or nil
func (m *Match) Operator(name string) *plan.Operator {
	for i, n := range m.pattern.nodes {
		if n.Name == name {
			return m.operators[i]
		}
	}
	return nil
}

// ExternalSlots returns the external signature of the matched Operators, which any replacement
// Subplan must expose in the same order
func (m *Match) ExternalSlots() ([]*plan.InputSlot, []*plan.OutputSlot) {
	return plan.ExternalSlots(m.operators)
}
