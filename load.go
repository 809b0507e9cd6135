package sifplan

// LoadEstimate is an estimated amount of some resource, annotated with
// the confidence (in [0,1]) that the estimate is correct
type LoadEstimate struct {
	Value      float64
	Confidence float64
}

// ZeroLoad is a certain estimate of no load at all
var ZeroLoad = LoadEstimate{Value: 0, Confidence: 1}

// Plus combines two estimates. Values add, while confidences multiply.
func (e LoadEstimate) Plus(other LoadEstimate) LoadEstimate {
	return LoadEstimate{Value: e.Value + other.Value, Confidence: e.Confidence * other.Confidence}
}

// Times scales the value of an estimate, leaving its confidence untouched
func (e LoadEstimate) Times(factor float64) LoadEstimate {
	return LoadEstimate{Value: e.Value * factor, Confidence: e.Confidence}
}

// LoadEstimator turns input and output cardinalities into a LoadEstimate
type LoadEstimator interface {
	Estimate(inputCards []int64, outputCards []int64) LoadEstimate
}

// LoadProfile is a structured load estimate for an operator or a channel, split by resource.
// Profiles nest, so the load of a composite (e.g. a loop and its body) keeps its structure.
type LoadProfile struct {
	CPU      LoadEstimate
	Disk     LoadEstimate
	Network  LoadEstimate
	Overhead float64 // a fixed cost, independent of the data volume
	Nested   []*LoadProfile
}

// NewLoadProfile returns a LoadProfile with certain zero estimates for every resource
func NewLoadProfile() *LoadProfile {
	return &LoadProfile{CPU: ZeroLoad, Disk: ZeroLoad, Network: ZeroLoad}
}

// Nest adds a sub-profile to this profile
func (lp *LoadProfile) Nest(sub *LoadProfile) {
	if sub != nil {
		lp.Nested = append(lp.Nested, sub)
	}
}

// Flatten combines this profile with all of its nested profiles, returning
// a profile without nesting
func (lp *LoadProfile) Flatten() *LoadProfile {
	res := &LoadProfile{CPU: lp.CPU, Disk: lp.Disk, Network: lp.Network, Overhead: lp.Overhead}
	for _, sub := range lp.Nested {
		flat := sub.Flatten()
		res.CPU = res.CPU.Plus(flat.CPU)
		res.Disk = res.Disk.Plus(flat.Disk)
		res.Network = res.Network.Plus(flat.Network)
		res.Overhead += flat.Overhead
	}
	return res
}

// Confidence returns the combined confidence of this profile and its nested profiles
func (lp *LoadProfile) Confidence() float64 {
	flat := lp.Flatten()
	return flat.CPU.Confidence * flat.Disk.Confidence * flat.Network.Confidence
}

// ProfileEstimator produces LoadProfiles from input and output cardinalities
type ProfileEstimator interface {
	EstimateProfile(inputCards []int64, outputCards []int64) *LoadProfile
}
