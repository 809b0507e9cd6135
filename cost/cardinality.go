package cost

import (
	"math"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/plan"
)

// Cardinalities maps Operator IDs to their estimated output cardinality
type Cardinalities map[int64]int64

// EstimateCardinalities propagates output cardinalities through a Plan in topological order,
// starting from source hints
func EstimateCardinalities(p *plan.Plan, conf *config.Configuration) Cardinalities {
	cards := make(Cardinalities, p.Size())
	for _, op := range p.TopologicalOrder() {
		cards[op.ID()] = OutputCardinality(op, InputCardinalities(op, cards, conf), conf)
	}
	return cards
}

// EstimateSubplanCardinalities propagates cardinalities through a Subplan, given the
// cardinalities flowing into its external inputs (in the order of sp.Inputs)
func EstimateSubplanCardinalities(sp *plan.Subplan, inputCards []int64, conf *config.Configuration) Cardinalities {
	external := make(map[*plan.InputSlot]int64, len(sp.Inputs))
	for i, in := range sp.Inputs {
		if i < len(inputCards) {
			external[in] = inputCards[i]
		}
	}
	cards := make(Cardinalities, len(sp.Operators))
	for _, op := range sp.TopologicalOrder() {
		in := make([]int64, op.NumInputs())
		for i, slot := range op.Inputs() {
			if card, ok := external[slot]; ok {
				in[i] = card
				continue
			}
			in[i] = producerCardinality(slot, cards, conf)
		}
		cards[op.ID()] = OutputCardinality(op, in, conf)
	}
	return cards
}

// InputCardinalities returns the cardinalities flowing into each input slot of an Operator
func InputCardinalities(op *plan.Operator, cards Cardinalities, conf *config.Configuration) []int64 {
	res := make([]int64, op.NumInputs())
	for i, in := range op.Inputs() {
		res[i] = producerCardinality(in, cards, conf)
	}
	return res
}

func producerCardinality(in *plan.InputSlot, cards Cardinalities, conf *config.Configuration) int64 {
	producer := in.Occupant()
	if producer == nil {
		return conf.GetInt64("cardinality.source.default", 1000)
	}
	if card, ok := cards[producer.Owner().ID()]; ok {
		return card
	}
	return conf.GetInt64("cardinality.source.default", 1000)
}

// OutputCardinality estimates the output cardinality of an Operator from its input cardinalities.
// Explicit cardinality and selectivity hints on the Operator take precedence over per-kind defaults.
func OutputCardinality(op *plan.Operator, inputCards []int64, conf *config.Configuration) int64 {
	props := op.Properties()
	if props.Cardinality >= 0 {
		return props.Cardinality
	}
	total := int64(0)
	for _, c := range inputCards {
		total = saturatingAdd(total, nonNegative(c))
	}
	if props.Selectivity >= 0 {
		return scale(total, props.Selectivity)
	}
	selectivity := func(name string, def float64) float64 {
		return conf.GetFloat64("cardinality.selectivity."+name, def)
	}
	switch op.Kind() {
	case sifplan.TextFileSourceKind, sifplan.TsvFileSourceKind:
		return conf.GetInt64("cardinality.source.default", 1000)
	case sifplan.CollectionSourceKind:
		return int64(len(props.Collection))
	case sifplan.FilterKind:
		return scale(total, selectivity("filter", 0.5))
	case sifplan.FlatMapKind:
		return scale(total, selectivity("flatmap", 1))
	case sifplan.GroupByKind, sifplan.MaterializedGroupByKind:
		return scale(total, selectivity("group_by", 0.1))
	case sifplan.ReduceByKind:
		return scale(total, selectivity("reduce_by", 0.1))
	case sifplan.DistinctKind:
		return scale(total, selectivity("distinct", 0.5))
	case sifplan.ReduceKind:
		// one element per group after a GroupBy, a single element otherwise
		if op.NumInputs() > 0 && op.Input(0).Type().Grouped {
			return total
		}
		return 1
	case sifplan.GlobalReduceKind, sifplan.CountKind:
		return 1
	case sifplan.UnionAllKind:
		return total
	case sifplan.CartesianKind:
		product := int64(1)
		for _, c := range inputCards {
			product = saturatingMul(product, nonNegative(c))
		}
		return product
	case sifplan.JoinKind:
		largest := int64(0)
		for _, c := range inputCards {
			if c > largest {
				largest = c
			}
		}
		return scale(largest, selectivity("join", 1))
	case sifplan.SampleKind:
		if props.SampleSize >= 0 && props.SampleSize < total {
			return props.SampleSize
		}
		return total
	case sifplan.MapKind, sifplan.SortKind, sifplan.LoopKind, sifplan.DoWhileKind, sifplan.LocalCallbackSinkKind:
		return total
	default:
		return total
	}
}

func scale(card int64, selectivity float64) int64 {
	scaled := math.Round(float64(card) * selectivity)
	if scaled >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(scaled)
}

// saturatingAdd adds two non-negative cardinalities, saturating at math.MaxInt64
func saturatingAdd(a int64, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// saturatingMul multiplies two non-negative cardinalities, saturating at math.MaxInt64
func saturatingMul(a int64, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
