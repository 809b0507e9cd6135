package plan

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the structure of this Plan: the kind, implementation and platform of every
// Operator in topological order, every edge, every Channel, and every loop body. Two Plans with
// the same operator and channel choices have the same Fingerprint, regardless of Operator IDs.
func (p *Plan) Fingerprint() uint64 {
	hasher := xxhash.New()
	p.writeFingerprint(hasher)
	return hasher.Sum64()
}

func (p *Plan) writeFingerprint(hasher *xxhash.Digest) {
	order := p.TopologicalOrder()
	position := make(map[int64]int, len(order))
	for i, op := range order {
		position[op.id] = i
	}
	for _, op := range order {
		_, _ = hasher.WriteString(string(op.kind))
		_, _ = hasher.WriteString("|" + op.impl + "|" + op.platform + "|")
		for _, t := range op.InputTypes() {
			_, _ = hasher.WriteString(t.String() + ",")
		}
		for _, in := range op.inputs {
			if in.occupant == nil {
				_, _ = hasher.WriteString("<-nil;")
				continue
			}
			_, _ = hasher.WriteString("<-" + strconv.Itoa(position[in.occupant.owner.id]) + "." + strconv.Itoa(in.occupant.index))
			if c := in.occupant.channel; c != nil {
				_, _ = hasher.WriteString("@" + c.Descriptor)
			}
			_, _ = hasher.WriteString(";")
		}
		if op.body != nil {
			_, _ = hasher.WriteString("{")
			op.body.writeFingerprint(hasher)
			_, _ = hasher.WriteString("}")
		}
		_, _ = hasher.WriteString("\n")
	}
}
