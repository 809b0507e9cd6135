package cost

import (
	"github.com/go-sif/sifplan"
)

// NestedProfileEstimator produces a LoadProfile with one LoadEstimator per resource, plus the
// nested profiles of any sub-estimators. Sub-profiles keep their structure, so composing an
// uncertain estimator degrades the confidence of the whole profile multiplicatively.
type NestedProfileEstimator struct {
	cpu      sifplan.LoadEstimator
	disk     sifplan.LoadEstimator
	network  sifplan.LoadEstimator
	overhead float64
	nested   []sifplan.ProfileEstimator
}

// ProfileOption configures a NestedProfileEstimator
type ProfileOption func(e *NestedProfileEstimator)

// WithOverhead adds a fixed cost to every profile, independent of cardinalities
func WithOverhead(overhead float64) ProfileOption {
	return func(e *NestedProfileEstimator) {
		e.overhead = overhead
	}
}

// WithNested nests sub-estimators, whose profiles are nested in every produced profile
func WithNested(sub ...sifplan.ProfileEstimator) ProfileOption {
	return func(e *NestedProfileEstimator) {
		e.nested = append(e.nested, sub...)
	}
}

// NewProfileEstimator creates a NestedProfileEstimator. Any of cpu, disk and network may be
// nil, in which case that resource carries no load.
func NewProfileEstimator(cpu sifplan.LoadEstimator, disk sifplan.LoadEstimator, network sifplan.LoadEstimator, opts ...ProfileOption) *NestedProfileEstimator {
	e := &NestedProfileEstimator{cpu: cpu, disk: disk, network: network}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateProfile implements sifplan.ProfileEstimator
func (e *NestedProfileEstimator) EstimateProfile(inputCards []int64, outputCards []int64) *sifplan.LoadProfile {
	profile := sifplan.NewLoadProfile()
	profile.CPU = estimateOrZero(e.cpu, inputCards, outputCards)
	profile.Disk = estimateOrZero(e.disk, inputCards, outputCards)
	profile.Network = estimateOrZero(e.network, inputCards, outputCards)
	profile.Overhead = e.overhead
	for _, sub := range e.nested {
		profile.Nest(sub.EstimateProfile(inputCards, outputCards))
	}
	return profile
}

func estimateOrZero(e sifplan.LoadEstimator, inputCards []int64, outputCards []int64) sifplan.LoadEstimate {
	if e == nil {
		return sifplan.ZeroLoad
	}
	return e.Estimate(inputCards, outputCards)
}

// Repeat flattens a LoadProfile and multiplies its load by a number of repetitions,
// e.g. the iterations of a loop body
func Repeat(profile *sifplan.LoadProfile, times int) *sifplan.LoadProfile {
	flat := profile.Flatten()
	factor := float64(times)
	if factor < 1 {
		factor = 1
	}
	return &sifplan.LoadProfile{
		CPU:      flat.CPU.Times(factor),
		Disk:     flat.Disk.Times(factor),
		Network:  flat.Network.Times(factor),
		Overhead: flat.Overhead * factor,
	}
}
