package config

import (
	"cmp"
	"slices"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ConfigurationSource = (*Source)(nil)

// Source is the live view of the catalog consumed by the orchestration core.
// Reload swaps the configurations and groups without replacing the graph instance, so
// holders of Graph() observe the new model.
type Source struct {
	mu     sync.RWMutex
	graph  *domain.DependencyGraph
	groups map[string]domain.BuildConfigurationSet
	path   string
}

// NewSource creates a source populated from catalog.
func NewSource(catalog *domain.Catalog) (*Source, error) {
	s := &Source{graph: domain.NewDependencyGraph()}
	if err := s.Reload(catalog); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the configurations and groups. The previous state is kept on error.
func (s *Source) Reload(catalog *domain.Catalog) error {
	groups := make(map[string]domain.BuildConfigurationSet, len(catalog.Groups))
	for _, g := range catalog.Groups {
		groups[g.Name] = domain.BuildConfigurationSet{Name: g.Name, Members: slices.Clone(g.Members)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.graph.Replace(catalog.Configurations); err != nil {
		return err
	}
	s.groups = groups
	s.path = catalog.Path
	return nil
}

// Path returns the catalog file the source was last loaded from.
func (s *Source) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Graph returns the live dependency model.
func (s *Source) Graph() *domain.DependencyGraph {
	return s.graph
}

// Group returns the named configuration set.
func (s *Source) Group(name string) (domain.BuildConfigurationSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.groups[name]
	if !ok {
		return domain.BuildConfigurationSet{}, zerr.With(zerr.Wrap(domain.ErrGroupNotFound, "group lookup failed"), "group", name)
	}
	if len(set.Members) == 0 {
		return domain.BuildConfigurationSet{}, zerr.With(zerr.Wrap(domain.ErrEmptyGroup, "group lookup failed"), "group", name)
	}
	return domain.BuildConfigurationSet{Name: set.Name, Members: slices.Clone(set.Members)}, nil
}

// Groups returns every configuration set, sorted by name.
func (s *Source) Groups() []domain.BuildConfigurationSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BuildConfigurationSet, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, domain.BuildConfigurationSet{Name: g.Name, Members: slices.Clone(g.Members)})
	}
	slices.SortFunc(out, func(a, b domain.BuildConfigurationSet) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
