package domain

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// Edge is a dependency edge: From depends on To.
type Edge struct {
	From ConfigurationID
	To   ConfigurationID
}

// DependencyGraph is the dependency model of build configurations.
//
// Nodes live in an arena keyed by configuration id. The edge list is the single source of
// truth; the dependency and dependent indices are derived from it. Every mutation keeps the
// graph acyclic, so cycles are rejected when an edge is created rather than at build time.
// A DependencyGraph is safe for concurrent use.
type DependencyGraph struct {
	mu           sync.RWMutex
	nodes        map[ConfigurationID]BuildConfiguration
	edges        []Edge
	dependencies map[ConfigurationID][]ConfigurationID
	dependents   map[ConfigurationID][]ConfigurationID
}

// NewDependencyGraph creates a new empty DependencyGraph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:        make(map[ConfigurationID]BuildConfiguration),
		dependencies: make(map[ConfigurationID][]ConfigurationID),
		dependents:   make(map[ConfigurationID][]ConfigurationID),
	}
}

// AddConfiguration registers cfg and the edges to its declared dependencies.
// Registering an existing id updates its attributes and adds any new edges.
// Either every declared edge is added or the graph is left unchanged.
func (g *DependencyGraph) AddConfiguration(cfg BuildConfiguration) error {
	if err := ValidateConfigurationID(cfg.ID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	previous, existed := g.nodes[cfg.ID]
	edgeCount := len(g.edges)

	node := cfg
	node.Dependencies = nil
	g.nodes[cfg.ID] = node

	for _, dep := range cfg.Dependencies {
		if err := g.addDependencyLocked(cfg.ID, dep); err != nil {
			g.rollbackLocked(cfg.ID, previous, existed, edgeCount)
			return err
		}
	}
	return nil
}

func (g *DependencyGraph) rollbackLocked(id ConfigurationID, previous BuildConfiguration, existed bool, edgeCount int) {
	if existed {
		g.nodes[id] = previous
	} else {
		delete(g.nodes, id)
	}
	g.edges = g.edges[:edgeCount]
	g.reindexLocked()
}

// AddDependency declares that config depends on dependency.
// It fails with ErrSelfDependency when both are the same and with ErrCycleDetected when
// dependency already depends on config, directly or transitively.
func (g *DependencyGraph) AddDependency(config, dependency ConfigurationID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addDependencyLocked(config, dependency)
}

func (g *DependencyGraph) addDependencyLocked(config, dependency ConfigurationID) error {
	if config == dependency {
		return zerr.With(zerr.Wrap(ErrSelfDependency, "dependency rejected"), "configuration", config.String())
	}
	if _, ok := g.nodes[config]; !ok {
		return zerr.With(zerr.Wrap(ErrConfigurationNotFound, "dependency rejected"), "configuration", config.String())
	}
	if _, ok := g.nodes[dependency]; !ok {
		return zerr.With(zerr.Wrap(ErrConfigurationNotFound, "dependency rejected"), "configuration", dependency.String())
	}
	if slices.Contains(g.dependencies[config], dependency) {
		return nil
	}

	if path := g.pathLocked(dependency, config); path != nil {
		cycle := make([]string, 0, len(path)+1)
		cycle = append(cycle, config.String())
		for _, id := range path {
			cycle = append(cycle, id.String())
		}
		err := zerr.With(zerr.Wrap(ErrCycleDetected, "dependency rejected"), "configuration", config.String())
		err = zerr.With(err, "dependency", dependency.String())
		return zerr.With(err, "cycle", strings.Join(cycle, " -> "))
	}

	g.edges = append(g.edges, Edge{From: config, To: dependency})
	g.indexEdgeLocked(Edge{From: config, To: dependency})
	return nil
}

// RemoveDependency deletes the edge from config to dependency if present.
func (g *DependencyGraph) RemoveDependency(config, dependency ConfigurationID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return e.From == config && e.To == dependency
	})
	g.reindexLocked()
}

// Replace swaps the whole graph for the given configurations.
// The previous graph stays in place when the new one is invalid.
func (g *DependencyGraph) Replace(configs []BuildConfiguration) error {
	next := NewDependencyGraph()
	for _, cfg := range configs {
		if err := ValidateConfigurationID(cfg.ID); err != nil {
			return err
		}
		node := cfg
		node.Dependencies = nil
		next.nodes[cfg.ID] = node
	}
	for _, cfg := range configs {
		for _, dep := range cfg.Dependencies {
			if err := next.addDependencyLocked(cfg.ID, dep); err != nil {
				return err
			}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = next.nodes
	g.edges = next.edges
	g.dependencies = next.dependencies
	g.dependents = next.dependents
	return nil
}

// pathLocked returns the dependency path from -> ... -> to, or nil if to is unreachable.
func (g *DependencyGraph) pathLocked(from, to ConfigurationID) []ConfigurationID {
	parent := map[ConfigurationID]ConfigurationID{from: from}
	queue := []ConfigurationID{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			var path []ConfigurationID
			for node := to; node != from; node = parent[node] {
				path = append(path, node)
			}
			path = append(path, from)
			slices.Reverse(path)
			return path
		}
		for _, dep := range g.dependencies[current] {
			if _, seen := parent[dep]; !seen {
				parent[dep] = current
				queue = append(queue, dep)
			}
		}
	}
	return nil
}

func (g *DependencyGraph) indexEdgeLocked(e Edge) {
	g.dependencies[e.From] = append(g.dependencies[e.From], e.To)
	g.dependents[e.To] = append(g.dependents[e.To], e.From)
}

func (g *DependencyGraph) reindexLocked() {
	g.dependencies = make(map[ConfigurationID][]ConfigurationID, len(g.nodes))
	g.dependents = make(map[ConfigurationID][]ConfigurationID, len(g.nodes))
	for _, e := range g.edges {
		g.indexEdgeLocked(e)
	}
}

// Has reports whether id is a registered configuration.
func (g *DependencyGraph) Has(id ConfigurationID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Configuration returns the configuration with its direct dependencies.
func (g *DependencyGraph) Configuration(id ConfigurationID) (BuildConfiguration, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cfg, ok := g.nodes[id]
	if !ok {
		return BuildConfiguration{}, false
	}
	cfg.Dependencies = sortedCopy(g.dependencies[id])
	return cfg, true
}

// Configurations returns all registered configuration ids, sorted.
func (g *DependencyGraph) Configurations() []ConfigurationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]ConfigurationID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Edges returns a copy of the authoritative edge list.
func (g *DependencyGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edges)
}

// DirectDependencies returns the immediate dependencies of id, sorted.
func (g *DependencyGraph) DirectDependencies(id ConfigurationID) []ConfigurationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedCopy(g.dependencies[id])
}

// Dependents returns the configurations that directly depend on id, sorted.
func (g *DependencyGraph) Dependents(id ConfigurationID) []ConfigurationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedCopy(g.dependents[id])
}

// AllDependencies returns the transitive closure of the dependencies of id, sorted.
func (g *DependencyGraph) AllDependencies(id ConfigurationID) []ConfigurationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closureLocked(id)
}

// IndirectDependencies returns the dependencies of id that are only reachable through other
// dependencies. A node reachable both directly and indirectly counts as direct.
func (g *DependencyGraph) IndirectDependencies(id ConfigurationID) []ConfigurationID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	direct := g.dependencies[id]
	return slices.DeleteFunc(g.closureLocked(id), func(dep ConfigurationID) bool {
		return slices.Contains(direct, dep)
	})
}

func (g *DependencyGraph) closureLocked(id ConfigurationID) []ConfigurationID {
	visited := make(map[ConfigurationID]bool)
	queue := slices.Clone(g.dependencies[id])
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		queue = append(queue, g.dependencies[current]...)
	}

	closure := make([]ConfigurationID, 0, len(visited))
	for dep := range visited {
		closure = append(closure, dep)
	}
	slices.Sort(closure)
	return closure
}

// Order returns ids sorted so that every configuration follows its dependencies.
// Only edges between members of ids are considered; ties are broken by id.
func (g *DependencyGraph) Order(ids []ConfigurationID) []ConfigurationID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	members := make(map[ConfigurationID]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}

	inDegree := make(map[ConfigurationID]int, len(members))
	for id := range members {
		for _, dep := range g.dependencies[id] {
			if members[dep] {
				inDegree[id]++
			}
		}
	}

	var ready []ConfigurationID
	for id := range members {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]ConfigurationID, 0, len(members))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		var released []ConfigurationID
		for _, dependent := range g.dependents[current] {
			if !members[dependent] {
				continue
			}
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				released = append(released, dependent)
			}
		}
		ready = append(ready, released...)
		slices.Sort(ready)
	}
	return order
}

func sortedCopy(ids []ConfigurationID) []ConfigurationID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
