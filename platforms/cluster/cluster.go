// Package cluster provides a distributed platform. Its executors share one process-wide Session,
// and run the independent operators of a Stage in parallel.
package cluster

import (
	"bytes"
	_ "embed" // embeds defaults.properties
	"sync"

	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/platform"
)

// Name is the name of the cluster Platform
const Name = "cluster"

//go:embed defaults.properties
var defaultProperties []byte

// Platform is the cluster platform
type Platform struct {
	mappings []*mapping.Mapping
}

var (
	instance     *Platform
	instanceOnce sync.Once
)

// Instance returns the cluster Platform, initializing it on first use
func Instance() *Platform {
	instanceOnce.Do(func() {
		if err := config.Default().LoadProperties(bytes.NewReader(defaultProperties)); err != nil {
			panic(err)
		}
		instance = &Platform{mappings: mapping.Build(Name, rules)}
	})
	return instance
}

// Name implements platform.Platform
func (p *Platform) Name() string {
	return Name
}

// Mappings implements platform.Platform
func (p *Platform) Mappings() []*mapping.Mapping {
	return append([]*mapping.Mapping(nil), p.mappings...)
}

// CreateChannelManager implements platform.Platform. Datasets enter the cluster through spilled
// files, and leave it either collected to the driving process or spilled.
func (p *Platform) CreateChannelManager() channel.Manager {
	return channel.NewStaticManager(Name,
		[]channel.Descriptor{channel.Collection, channel.ObjectFile},
		[]channel.Descriptor{channel.ObjectFile},
	)
}

// IsExecutable implements platform.Platform
func (p *Platform) IsExecutable() bool {
	return true
}

// ExecutorFactory implements platform.Platform
func (p *Platform) ExecutorFactory() platform.ExecutorFactory {
	return createExecutor
}
