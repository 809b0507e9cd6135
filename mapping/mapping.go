package mapping

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/plan"
)

// Factory proposes one or more execution-bound replacement Subplans for a Match. Factories must
// not modify the Plan, and may only inspect the local context of the Match. conf is the
// Configuration of the enumeration asking for candidates.
type Factory func(m *Match, conf *config.Configuration) ([]*plan.Subplan, error)

// Mapping is an immutable (pattern, factory) pair contributed by a platform
type Mapping struct {
	name     string
	platform string
	pattern  *Pattern
	factory  Factory
}

// New creates a Mapping
func New(name string, platform string, pattern *Pattern, factory Factory) *Mapping {
	return &Mapping{name: name, platform: platform, pattern: pattern, factory: factory}
}

// Name returns the name of this Mapping
func (m *Mapping) Name() string {
	return m.name
}

// Platform returns the name of the platform which contributed this Mapping
func (m *Mapping) Platform() string {
	return m.platform
}

// Pattern returns the Pattern of this Mapping
func (m *Mapping) Pattern() *Pattern {
	return m.pattern
}

// Match finds every occurrence of this Mapping's Pattern in a Plan
func (m *Mapping) Match(p *plan.Plan) []*Match {
	return m.pattern.Match(p)
}

// Candidates runs this Mapping's Factory on a Match under a Configuration (config.Default() if nil).
// Every proposed Subplan must be fully execution-bound to this Mapping's platform.
func (m *Mapping) Candidates(match *Match, conf *config.Configuration) ([]*plan.Subplan, error) {
	if conf == nil {
		conf = config.Default()
	}
	candidates, err := m.factory(match, conf)
	if err != nil {
		return nil, err
	}
	for _, sp := range candidates {
		for _, op := range sp.Operators {
			if op.Platform() != m.platform {
				return nil, fmt.Errorf("mapping %s proposed %s, which is not bound to %s", m.name, op, m.platform)
			}
		}
	}
	return candidates, nil
}

// String returns a textual representation of this Mapping
func (m *Mapping) String() string {
	return fmt.Sprintf("%s/%s", m.platform, m.name)
}

// Rule is one row of a platform's static mapping table
type Rule struct {
	Name    string
	Pattern *Pattern
	Factory Factory
}

// Build turns a static rule table into the platform's ordered Mappings
func Build(platform string, rules []Rule) []*Mapping {
	res := make([]*Mapping, len(rules))
	for i, r := range rules {
		res[i] = New(r.Name, platform, r.Pattern, r.Factory)
	}
	return res
}

// EstimatorFunc chooses the load estimator of an execution Operator, given the logical
// Operator it replaces and the Configuration of the enumeration
type EstimatorFunc func(logical *plan.Operator, conf *config.Configuration) sifplan.ProfileEstimator

// Static returns an EstimatorFunc which always uses the same estimator
func Static(e sifplan.ProfileEstimator) EstimatorFunc {
	return func(*plan.Operator, *config.Configuration) sifplan.ProfileEstimator { return e }
}

// BindSingle is a Factory for single-node patterns which binds the anchor to one
// execution Operator with the same kind, slot types and properties
func BindSingle(platform string, impl string, estimator EstimatorFunc) Factory {
	return func(m *Match, conf *config.Configuration) ([]*plan.Subplan, error) {
		logical := m.Anchor()
		return []*plan.Subplan{plan.SingleOperatorSubplan(plan.Bind(logical, platform, impl, estimator(logical, conf)))}, nil
	}
}

// BindSingleAs is like BindSingle, but the execution Operator has a different kind
func BindSingleAs(kind sifplan.OperatorKind, platform string, impl string, estimator EstimatorFunc) Factory {
	return func(m *Match, conf *config.Configuration) ([]*plan.Subplan, error) {
		logical := m.Anchor()
		return []*plan.Subplan{plan.SingleOperatorSubplan(plan.BindAs(logical, kind, platform, impl, estimator(logical, conf)))}, nil
	}
}

// Alternative is one of several implementations proposed for the same logical Operator
type Alternative struct {
	Kind      sifplan.OperatorKind // kind of the execution Operator. Defaults to the logical kind.
	Impl      string
	Estimator EstimatorFunc
}

// BindAlternatives is a Factory for single-node patterns which proposes one candidate per Alternative
func BindAlternatives(platform string, alternatives ...Alternative) Factory {
	return func(m *Match, conf *config.Configuration) ([]*plan.Subplan, error) {
		logical := m.Anchor()
		res := make([]*plan.Subplan, 0, len(alternatives))
		for _, alt := range alternatives {
			kind := alt.Kind
			if kind == "" {
				kind = logical.Kind()
			}
			res = append(res, plan.SingleOperatorSubplan(plan.BindAs(logical, kind, platform, alt.Impl, alt.Estimator(logical, conf))))
		}
		return res, nil
	}
}
