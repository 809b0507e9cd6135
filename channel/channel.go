package channel

import (
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/cost"
	"github.com/go-sif/sifplan/errors"
	"github.com/go-sif/sifplan/plan"
	"github.com/samber/lo"
)

// Medium describes how a channel hands data over
type Medium string

const (
	// MemoryMedium channels hand data over in memory
	MemoryMedium Medium = "memory"
	// FileMedium channels hand data over through files
	FileMedium Medium = "file"
	// NetworkMedium channels hand data over the network
	NetworkMedium Medium = "network"
)

// Descriptor describes a type of channel which a platform can produce or consume
type Descriptor struct {
	Name           string
	Medium         Medium
	Reusable       bool    // whether the data can be consumed more than once
	BytesPerRecord float64 // average serialized size of a record on this channel
}

// Manager is a platform's channel negotiation policy
type Manager interface {
	// Platform returns the name of the platform this Manager belongs to
	Platform() string
	// Producible returns the channel types the platform can write, in order of preference
	Producible() []Descriptor
	// Consumable returns the channel types the platform can read
	Consumable() []Descriptor
	// Estimator returns the estimator for the load of transferring data over a channel type
	Estimator(d Descriptor) sifplan.ProfileEstimator
}

// Negotiate selects the channel realizing an edge from an Operator on the producer's platform
// to an Operator on the consumer's platform, carrying card records. Operators on the same
// platform always use the zero-cost direct channel. Otherwise, the cheapest channel type
// which is producible by the producer and consumable by the consumer wins, with ties going
// to the producer's order of preference.
func Negotiate(producer Manager, consumer Manager, card int64, conv *cost.Converter) (*plan.Channel, error) {
	if producer.Platform() == consumer.Platform() {
		return plan.NewDirectChannel(), nil
	}
	consumable := lo.SliceToMap(consumer.Consumable(), func(d Descriptor) (string, bool) { return d.Name, true })
	var best *plan.Channel
	for _, d := range producer.Producible() {
		if !consumable[d.Name] {
			continue
		}
		candidate := Estimate(producer, d, card, conv)
		if best == nil || candidate.Cost.Value < best.Cost.Value {
			best = candidate
		}
	}
	if best == nil {
		return nil, errors.NoCompatibleChannelError{Producer: producer.Platform(), Consumer: consumer.Platform()}
	}
	return best, nil
}

// Estimate builds a Channel of the given type, with its load estimated by the producer's Manager
func Estimate(producer Manager, d Descriptor, card int64, conv *cost.Converter) *plan.Channel {
	profile := producer.Estimator(d).EstimateProfile([]int64{card}, []int64{card})
	return &plan.Channel{
		Descriptor: d.Name,
		Medium:     string(d.Medium),
		Profile:    profile,
		Cost:       conv.Convert(profile),
	}
}

// DefaultEstimator estimates the transfer of data over a channel type from its medium:
// memory handoff is (almost) free, while file and network handoff scale with the data volume
func DefaultEstimator(d Descriptor) sifplan.ProfileEstimator {
	bytes := d.BytesPerRecord
	if bytes <= 0 {
		bytes = 100
	}
	perRecord := func(coefficient float64, confidence float64) sifplan.LoadEstimator {
		return cost.MustLinear(cost.LinearConf{
			EstimatorConf:     cost.EstimatorConf{Confidence: confidence},
			InputCoefficients: []float64{coefficient},
		})
	}
	switch d.Medium {
	case FileMedium:
		// written once, read once
		return cost.NewProfileEstimator(perRecord(10, 0.9), perRecord(2*bytes, 0.9), nil)
	case NetworkMedium:
		return cost.NewProfileEstimator(perRecord(10, 0.8), nil, perRecord(bytes, 0.8))
	case MemoryMedium:
		return cost.NewProfileEstimator(perRecord(1, 0.99), nil, nil)
	default:
		return cost.NewProfileEstimator(nil, nil, nil)
	}
}

// StaticManager is a Manager built from fixed lists of channel types
type StaticManager struct {
	platform   string
	producible []Descriptor
	consumable []Descriptor
	estimators map[string]sifplan.ProfileEstimator
}

// NewStaticManager creates a StaticManager. Channel types without a dedicated estimator
// are estimated with DefaultEstimator.
func NewStaticManager(platform string, producible []Descriptor, consumable []Descriptor) *StaticManager {
	return &StaticManager{
		platform:   platform,
		producible: append([]Descriptor(nil), producible...),
		consumable: append([]Descriptor(nil), consumable...),
		estimators: make(map[string]sifplan.ProfileEstimator),
	}
}

// WithEstimator overrides the estimator of a channel type
func (m *StaticManager) WithEstimator(name string, e sifplan.ProfileEstimator) *StaticManager {
	m.estimators[name] = e
	return m
}

// Platform implements Manager
func (m *StaticManager) Platform() string {
	return m.platform
}

// Producible implements Manager
func (m *StaticManager) Producible() []Descriptor {
	return append([]Descriptor(nil), m.producible...)
}

// Consumable implements Manager
func (m *StaticManager) Consumable() []Descriptor {
	return append([]Descriptor(nil), m.consumable...)
}

// Estimator implements Manager
func (m *StaticManager) Estimator(d Descriptor) sifplan.ProfileEstimator {
	if e, ok := m.estimators[d.Name]; ok {
		return e
	}
	return DefaultEstimator(d)
}
