package cost

import (
	"github.com/go-sif/sifplan"
	"github.com/go-sif/sifplan/config"
)

// Converter turns a LoadProfile into a single cost figure, weighting each resource
type Converter struct {
	CPUWeight     float64
	DiskWeight    float64
	NetworkWeight float64
}

// NewConverter creates a Converter from the cost.weight.* properties of a Configuration
func NewConverter(conf *config.Configuration) *Converter {
	return &Converter{
		CPUWeight:     conf.GetFloat64("cost.weight.cpu", 1),
		DiskWeight:    conf.GetFloat64("cost.weight.disk", 1),
		NetworkWeight: conf.GetFloat64("cost.weight.network", 1),
	}
}

// Convert flattens a LoadProfile and combines its resources into a single LoadEstimate.
// A nil profile costs nothing.
func (c *Converter) Convert(profile *sifplan.LoadProfile) sifplan.LoadEstimate {
	if profile == nil {
		return sifplan.ZeroLoad
	}
	flat := profile.Flatten()
	return sifplan.LoadEstimate{
		Value: c.CPUWeight*flat.CPU.Value +
			c.DiskWeight*flat.Disk.Value +
			c.NetworkWeight*flat.Network.Value +
			flat.Overhead,
		Confidence: flat.CPU.Confidence * flat.Disk.Confidence * flat.Network.Confidence,
	}
}
