// Package domain contains the core domain models and business logic of the build orchestrator.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// NodeKind describes how a configuration of the closure is satisfied.
type NodeKind int

const (
	// NodeBuild is satisfied by a new task created in this graph.
	NodeBuild NodeKind = iota
	// NodeInFlight is satisfied by an unfinished task already known to the scheduler.
	NodeInFlight
	// NodeReused is satisfied by an existing successful record.
	NodeReused
)

// String returns a lower case name of the kind.
func (k NodeKind) String() string {
	switch k {
	case NodeInFlight:
		return "in-flight"
	case NodeReused:
		return "reused"
	default:
		return "build"
	}
}

// GraphNode is the resolution of one configuration of the dependency closure.
type GraphNode struct {
	Revision BuildConfigurationRevision
	Kind     NodeKind
	Decision Decision
	// TaskID is set for NodeBuild and NodeInFlight.
	TaskID TaskID
	// Status is ENQUEUED for new tasks, the remote status for in-flight tasks and
	// NO_REBUILD_REQUIRED for reused records.
	Status BuildStatus
}

// TaskGraph is the acyclic set of build tasks produced for one trigger request.
type TaskGraph struct {
	targets   []ConfigurationID
	nodes     map[ConfigurationID]GraphNode
	nodeOrder []ConfigurationID
	tasks     map[TaskID]*BuildTask
	external  map[TaskID]GraphNode

	executionOrder []TaskID
}

// NewTaskGraph creates an empty graph for the requested target configurations.
func NewTaskGraph(targets []ConfigurationID) *TaskGraph {
	return &TaskGraph{
		targets:  slices.Clone(targets),
		nodes:    make(map[ConfigurationID]GraphNode),
		tasks:    make(map[TaskID]*BuildTask),
		external: make(map[TaskID]GraphNode),
	}
}

// AddNode records the resolution of a configuration. Nodes are kept in insertion order,
// which the builder guarantees to be topological.
func (g *TaskGraph) AddNode(node GraphNode) error {
	id := node.Revision.ConfigurationID
	if _, exists := g.nodes[id]; exists {
		return zerr.With(zerr.Wrap(ErrGraphStructure, "configuration resolved twice"), "configuration", id.String())
	}
	g.nodes[id] = node
	g.nodeOrder = append(g.nodeOrder, id)
	if node.Kind == NodeInFlight {
		g.external[node.TaskID] = node
	}
	return nil
}

// AddTask adds a new task to the graph.
// It returns an error if a task with the same id already exists.
func (g *TaskGraph) AddTask(t *BuildTask) error {
	if _, exists := g.tasks[t.ID]; exists {
		return zerr.With(zerr.Wrap(ErrTaskAlreadyExists, "task rejected"), "task_id", t.ID)
	}
	g.tasks[t.ID] = t
	return nil
}

// Validate checks that every dependency resolves and that the tasks are acyclic.
// It populates the execution order used by Walk and Levels.
func (g *TaskGraph) Validate() error {
	g.executionOrder = make([]TaskID, 0, len(g.tasks))
	visited := make(map[TaskID]int) // 0: unvisited, 1: visiting, 2: visited
	var path []TaskID

	var visit func(u TaskID) error
	visit = func(u TaskID) error {
		visited[u] = 1
		path = append(path, u)

		task := g.tasks[u]
		for _, dep := range task.Dependencies {
			if _, ok := g.external[dep]; ok {
				continue
			}
			if _, ok := g.tasks[dep]; !ok {
				err := zerr.With(zerr.Wrap(ErrMissingDependency, "task graph rejected"), "task_id", u)
				return zerr.With(err, "dependency", dep)
			}
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	ids := make([]TaskID, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []TaskID, dep TaskID) error {
	start := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		parts = append(parts, id.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(zerr.Wrap(ErrCycleDetected, "task graph rejected"), "cycle", strings.Join(parts, " -> "))
}

// Walk returns an iterator that yields new tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *TaskGraph) Walk() iter.Seq[*BuildTask] {
	return func(yield func(*BuildTask) bool) {
		for _, id := range g.executionOrder {
			if !yield(g.tasks[id]) {
				return
			}
		}
	}
}

// Levels groups new tasks by depth: level 0 has no dependency inside the graph and every
// other task sits one level above its deepest dependency.
// It assumes Validate() has been called and returned nil.
func (g *TaskGraph) Levels() [][]*BuildTask {
	depth := make(map[TaskID]int, len(g.tasks))
	var levels [][]*BuildTask
	for _, id := range g.executionOrder {
		task := g.tasks[id]
		level := 0
		for _, dep := range task.Dependencies {
			if d, ok := depth[dep]; ok && d+1 > level {
				level = d + 1
			}
		}
		depth[id] = level
		if level == len(levels) {
			levels = append(levels, nil)
		}
		levels[level] = append(levels[level], task)
	}
	return levels
}

// Nodes returns an iterator over the resolved configurations in dependency order.
func (g *TaskGraph) Nodes() iter.Seq[GraphNode] {
	return func(yield func(GraphNode) bool) {
		for _, id := range g.nodeOrder {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// Node returns the resolution of a configuration.
func (g *TaskGraph) Node(id ConfigurationID) (GraphNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Task returns a new task of the graph by id.
func (g *TaskGraph) Task(id TaskID) (*BuildTask, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// IsExternal reports whether id is an unfinished task the graph depends on but did not create.
func (g *TaskGraph) IsExternal(id TaskID) bool {
	_, ok := g.external[id]
	return ok
}

// Targets returns the requested configurations.
func (g *TaskGraph) Targets() []ConfigurationID {
	return slices.Clone(g.targets)
}

// Len returns the number of new tasks.
func (g *TaskGraph) Len() int {
	return len(g.tasks)
}

// Dependents returns the new tasks that depend on id, sorted.
func (g *TaskGraph) Dependents(id TaskID) []TaskID {
	var out []TaskID
	for _, t := range g.tasks {
		if slices.Contains(t.Dependencies, id) {
			out = append(out, t.ID)
		}
	}
	slices.Sort(out)
	return out
}
