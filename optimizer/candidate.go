package optimizer

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
)

// candidate is one proposed replacement of a Match, with its estimated cost
type candidate struct {
	mapping        *mapping.Mapping
	match          *mapping.Match
	subplan        *plan.Subplan
	platformIndex  int // registration position of the mapping's platform
	mappingIndex   int // position of the mapping among the applicable mappings
	candidateIndex int // position of the subplan among the mapping's proposals
	profile        *sifplan.LoadProfile
	cost           sifplan.LoadEstimate
}

// lessCandidate orders candidates by cost, then by registration order of their platform,
// declaration order of their mapping, position of their anchor and proposal order
func lessCandidate(a *candidate, b *candidate) bool {
	switch {
	case a.cost.Value != b.cost.Value:
		return a.cost.Value < b.cost.Value
	case a.platformIndex != b.platformIndex:
		return a.platformIndex < b.platformIndex
	case a.mappingIndex != b.mappingIndex:
		return a.mappingIndex < b.mappingIndex
	case a.match.AnchorPosition() != b.match.AnchorPosition():
		return a.match.AnchorPosition() < b.match.AnchorPosition()
	default:
		return a.candidateIndex < b.candidateIndex
	}
}

func (c *candidate) platform() string {
	return c.mapping.Platform()
}

// String returns a textual representation of this candidate
func (c *candidate) String() string {
	return fmt.Sprintf("%s@%s#%d(cost=%.2f)", c.mapping, c.match.Anchor(), c.candidateIndex, c.cost.Value)
}
