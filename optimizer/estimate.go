package optimizer

import (
	"fmt"

	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/cost"
	"github.com/go-sif/sifplan/plan"
	"github.com/samber/lo"
)

// estimate computes the cost of a candidate: the load of its Operators and internal edges, plus
// the load of the Channels it introduces towards execution-bound neighbours
func (e *enumerator) estimate(c *candidate, cards cost.Cardinalities) error {
	sp := c.subplan
	extIns, extOuts := c.match.ExternalSlots()
	if len(extIns) != len(sp.Inputs) || len(extOuts) != len(sp.Outputs) {
		return fmt.Errorf("%s exposes %d inputs and %d outputs instead of %d and %d",
			c, len(sp.Inputs), len(sp.Outputs), len(extIns), len(extOuts))
	}
	inCards := make([]int64, len(extIns))
	for i, in := range extIns {
		inCards[i] = cost.InputCardinalities(in.Owner(), cards, e.conf)[in.Index()]
	}
	profile, subCards, err := e.subplanProfile(sp, inCards)
	if err != nil {
		return err
	}
	for i, in := range extIns {
		producer := in.Occupant()
		if producer == nil || !producer.Owner().IsExecutionBound() {
			continue
		}
		ch, err := e.negotiate(producer.Owner(), sp.Inputs[i].Owner(), inCards[i])
		if err != nil {
			return err
		}
		profile.Nest(ch.Profile)
	}
	for i, out := range extOuts {
		consumer := out.Occupant()
		if consumer == nil || !consumer.Owner().IsExecutionBound() {
			continue
		}
		owner := sp.Outputs[i].Owner()
		ch, err := e.negotiate(owner, consumer.Owner(), subCards[owner.ID()])
		if err != nil {
			return err
		}
		profile.Nest(ch.Profile)
	}
	c.profile = profile
	c.cost = e.conv.Convert(profile)
	return nil
}

// subplanProfile estimates the load of the Operators of a Subplan and of the edges between them.
// Edges which already carry a Channel keep its estimate.
func (e *enumerator) subplanProfile(sp *plan.Subplan, inCards []int64) (*sifplan.LoadProfile, cost.Cardinalities, error) {
	cards := cost.EstimateSubplanCardinalities(sp, inCards, e.conf)
	external := make(map[*plan.InputSlot]int64, len(sp.Inputs))
	for i, in := range sp.Inputs {
		if i < len(inCards) {
			external[in] = inCards[i]
		}
	}
	profile := sifplan.NewLoadProfile()
	for _, op := range sp.TopologicalOrder() {
		ins := make([]int64, op.NumInputs())
		for i, in := range op.Inputs() {
			if card, ok := external[in]; ok {
				ins[i] = card
			} else if out := in.Occupant(); out != nil {
				ins[i] = cards[out.Owner().ID()]
			} else {
				ins[i] = e.conf.GetInt64("cardinality.source.default", 1000)
			}
		}
		opProfile, err := e.operatorProfile(op, ins, cards[op.ID()])
		if err != nil {
			return nil, nil, err
		}
		profile.Nest(opProfile)
		for _, out := range op.Outputs() {
			consumer := out.Occupant()
			if consumer == nil || !lo.Contains(sp.Operators, consumer.Owner()) {
				continue
			}
			ch := out.Channel()
			if ch == nil {
				if ch, err = e.negotiate(op, consumer.Owner(), cards[op.ID()]); err != nil {
					return nil, nil, err
				}
			}
			profile.Nest(ch.Profile)
		}
	}
	return profile, cards, nil
}

// operatorProfile estimates the load of one execution Operator. A loop head also carries the
// load of its body, repeated once per expected iteration.
func (e *enumerator) operatorProfile(op *plan.Operator, ins []int64, outCard int64) (*sifplan.LoadProfile, error) {
	outs := make([]int64, op.NumOutputs())
	for i := range outs {
		outs[i] = outCard
	}
	profile := sifplan.NewLoadProfile()
	if est := op.Estimator(); est != nil {
		profile.Nest(est.EstimateProfile(ins, outs))
	}
	body := op.Body()
	if body == nil {
		return profile, nil
	}
	if state := body.BindingState(); state != plan.FullyBound {
		return nil, fmt.Errorf("the body of %s is %s", op, state)
	}
	bodyIns, bodyOuts := plan.ExternalSlots(body.TopologicalOrder())
	bodyCards := make([]int64, len(bodyIns))
	if len(ins) > 0 {
		for i := range bodyCards {
			bodyCards[i] = ins[0]
		}
	}
	bodyProfile, _, err := e.subplanProfile(plan.NewSubplan(body.TopologicalOrder(), bodyIns, bodyOuts), bodyCards)
	if err != nil {
		return nil, err
	}
	profile.Nest(cost.Repeat(bodyProfile, op.Properties().Iterations))
	return profile, nil
}

// planCost estimates the total load of a Plan and converts it into a single cost figure
func (e *enumerator) planCost(p *plan.Plan) (sifplan.LoadEstimate, error) {
	ops := p.TopologicalOrder()
	ins, outs := plan.ExternalSlots(ops)
	profile, _, err := e.subplanProfile(plan.NewSubplan(ops, ins, outs), nil)
	if err != nil {
		return sifplan.ZeroLoad, err
	}
	return e.conv.Convert(profile), nil
}
