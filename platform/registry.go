package platform

import (
	"fmt"
	"sync"

	"github.com/go-sif/sifplan/channel"
	"github.com/go-sif/sifplan/mapping"
	"github.com/go-sif/sifplan/plan"
	"github.com/samber/lo"
)

// Registry is an ordered set of Platforms. Registration order is significant: it breaks ties
// between equally cheap candidates during optimization.
type Registry struct {
	lock      sync.RWMutex
	platforms []Platform
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide Registry
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a Registry holding the given Platforms, in order. It panics if two of
// them share a name. Use Register to add Platforms whose names are not known to be unique.
func NewRegistry(platforms ...Platform) *Registry {
	r := &Registry{}
	for _, p := range platforms {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register appends a Platform to this Registry. Platform names must be unique.
func (r *Registry) Register(p Platform) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if lo.ContainsBy(r.platforms, func(existing Platform) bool { return existing.Name() == p.Name() }) {
		return fmt.Errorf("platform %s is already registered", p.Name())
	}
	r.platforms = append(r.platforms, p)
	return nil
}

// Size returns the number of registered Platforms
func (r *Registry) Size() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.platforms)
}

// Snapshot takes a point-in-time copy of this Registry. Platforms registered afterwards
// are not visible through the Snapshot.
func (r *Registry) Snapshot() *Snapshot {
	r.lock.RLock()
	platforms := append([]Platform(nil), r.platforms...)
	r.lock.RUnlock()
	s := &Snapshot{
		platforms: platforms,
		index:     make(map[string]int, len(platforms)),
		managers:  make(map[string]channel.Manager, len(platforms)),
	}
	for i, p := range platforms {
		s.index[p.Name()] = i
	}
	return s
}

// Snapshot is an immutable, ordered view of the Platforms of a Registry
type Snapshot struct {
	platforms   []Platform
	index       map[string]int
	managerLock sync.Mutex
	managers    map[string]channel.Manager
}

// Platforms returns the Platforms of this Snapshot, in registration order
func (s *Snapshot) Platforms() []Platform {
	return append([]Platform(nil), s.platforms...)
}

// Platform returns the Platform with the given name
func (s *Snapshot) Platform(name string) (Platform, bool) {
	idx, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.platforms[idx], true
}

// Index returns the registration position of the named Platform, or -1
func (s *Snapshot) Index(name string) int {
	idx, ok := s.index[name]
	if !ok {
		return -1
	}
	return idx
}

// ChannelManager returns the channel Manager of the named Platform, created once per Snapshot
func (s *Snapshot) ChannelManager(name string) (channel.Manager, error) {
	p, ok := s.Platform(name)
	if !ok {
		return nil, fmt.Errorf("platform %s is not registered", name)
	}
	s.managerLock.Lock()
	defer s.managerLock.Unlock()
	if m, ok := s.managers[name]; ok {
		return m, nil
	}
	m := p.CreateChannelManager()
	s.managers[name] = m
	return m, nil
}

// MappingsFor concatenates the Mappings of every executable Platform, in registration order,
// keeping those whose anchor accepts at least one logical Operator of the Plan. Placeholder
// Platforms contribute nothing.
func (s *Snapshot) MappingsFor(p *plan.Plan) []*mapping.Mapping {
	logical := p.LogicalOperators()
	var res []*mapping.Mapping
	for _, pl := range s.platforms {
		if !pl.IsExecutable() {
			continue
		}
		for _, m := range pl.Mappings() {
			if lo.ContainsBy(logical, m.Pattern().AnchorAccepts) {
				res = append(res, m)
			}
		}
	}
	return res
}
