// Package basic provides the placeholder platform which owns no executable implementations.
// Registering it reserves its position in a Registry.
package basic

import (
	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/platform"
)

// Name is the name of the basic Platform
const Name = "basic"

// Platform is the basic platform
type Platform struct{}

var instance = &Platform{}

// Instance returns the basic Platform
func Instance() *Platform {
	return instance
}

// Name implements platform.Platform
func (p *Platform) Name() string {
	return Name
}

// Mappings implements platform.Platform
func (p *Platform) Mappings() []*mapping.Mapping {
	return nil
}

// CreateChannelManager implements platform.Platform
func (p *Platform) CreateChannelManager() channel.Manager {
	return channel.NewStaticManager(Name, nil, nil)
}

// IsExecutable implements platform.Platform
func (p *Platform) IsExecutable() bool {
	return false
}

// ExecutorFactory implements platform.Platform
func (p *Platform) ExecutorFactory() platform.ExecutorFactory {
	return nil
}
