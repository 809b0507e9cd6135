// Package stream provides a single-process platform which evaluates every operator of a Stage
// in order, in the memory of the driving process. It is the only platform which reads TSV files.
package stream

import (
	"bytes"
	_ "embed" // embeds defaults.properties
	"sync"

	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/config"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/platform"
)

// Name is the name of the stream Platform
const Name = "stream"

//go:embed defaults.properties
var defaultProperties []byte

// Platform is the stream platform
type Platform struct {
	mappings []*mapping.Mapping
}

var (
	instance     *Platform
	instanceOnce sync.Once
)

// Instance returns the stream Platform, initializing it on first use
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

// CreateChannelManager implements platform.Platform. Stream operators hand datasets over in
// memory, and exchange them with other platforms through collections or spilled files.
func (p *Platform) CreateChannelManager() channel.Manager {
	return channel.NewStaticManager(Name,
		[]channel.Descriptor{channel.Collection, channel.ObjectFile},
		[]channel.Descriptor{channel.Collection, channel.ObjectFile},
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
