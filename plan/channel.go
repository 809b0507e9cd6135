package plan

import (
	"fmt"

	"github.com/go-sif/sifplan"
)

// DirectChannelName is the name of the zero-cost channel between two operators of the same platform
const DirectChannelName = "direct"

// A Channel is the realized data-transfer medium on an edge between two execution-bound
// Operators. Channels are owned by the Plan, as an annotation of the edge's OutputSlot.
type Channel struct {
	Descriptor string               // name of the channel type, e.g. "file.object"
	Medium     string               // how data is handed over: "memory", "file" or "network"
	Direct     bool                 // true iff both ends run on the same platform
	Profile    *sifplan.LoadProfile // the estimated load of transferring data over this channel
	Cost       sifplan.LoadEstimate // Profile, converted to a single cost figure
}

// NewDirectChannel creates the zero-cost channel connecting two operators on the same platform
func NewDirectChannel() *Channel {
	return &Channel{
		Descriptor: DirectChannelName,
		Medium:     "memory",
		Direct:     true,
		Profile:    sifplan.NewLoadProfile(),
		Cost:       sifplan.ZeroLoad,
	}
}

// String returns a textual representation of this Channel
func (c *Channel) String() string {
	return fmt.Sprintf("%s(%s, cost=%.2f)", c.Descriptor, c.Medium, c.Cost.Value)
}
