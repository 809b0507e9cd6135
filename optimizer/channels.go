package optimizer

import (
	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/cost"
	"github.com/go-sif/sifplan/logging"
	"github.com/go-sif/sifplan/plan"
	"go.uber.org/zap"
)

// channelKey identifies a negotiation. Negotiations only depend on the platforms of both ends
// and the number of records crossing the edge.
type channelKey struct {
	producer string
	consumer string
	card     int64
}

// negotiate selects the Channel between two execution-bound Operators, reusing earlier
// negotiations of this enumeration
func (e *enumerator) negotiate(producer *plan.Operator, consumer *plan.Operator, card int64) (*plan.Channel, error) {
	key := channelKey{producer: producer.Platform(), consumer: consumer.Platform(), card: card}
	if c, ok := e.channels.Get(key); ok {
		res := *c
		return &res, nil
	}
	pm, err := e.snapshot.ChannelManager(key.producer)
	if err != nil {
		return nil, err
	}
	cm, err := e.snapshot.ChannelManager(key.consumer)
	if err != nil {
		return nil, err
	}
	c, err := channel.Negotiate(pm, cm, card, e.conv)
	if err != nil {
		return nil, err
	}
	e.channels.Add(key, c)
	res := *c
	return &res, nil
}

// resolveChannels sets a Channel on every edge between two execution-bound Operators which has none
func (e *enumerator) resolveChannels(p *plan.Plan) error {
	unresolved := p.UnresolvedEdges()
	if len(unresolved) == 0 {
		return nil
	}
	cards := cost.EstimateCardinalities(p, e.conf)
	for _, out := range unresolved {
		c, err := e.negotiate(out.Owner(), out.Occupant().Owner(), cards[out.Owner().ID()])
		if err != nil {
			return err
		}
		if err := out.SetChannel(c); err != nil {
			return err
		}
	}
	return nil
}

// refineChannels renegotiates every Channel between platforms with the final cardinalities,
// keeping the cheaper one
func (e *enumerator) refineChannels(p *plan.Plan) {
	cards := cost.EstimateCardinalities(p, e.conf)
	for _, out := range p.Edges() {
		current := out.Channel()
		if current == nil || current.Direct {
			continue
		}
		c, err := e.negotiate(out.Owner(), out.Occupant().Owner(), cards[out.Owner().ID()])
		if err != nil || c.Cost.Value >= current.Cost.Value {
			continue
		}
		logging.Logger().Debug("refined channel",
			zap.String("edge", out.String()), zap.String("from", current.String()), zap.String("to", c.String()))
		// both ends are execution-bound, so this cannot fail
		_ = out.SetChannel(c)
	}
}
