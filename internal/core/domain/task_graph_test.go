package domain_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestTaskGraph_ValidateAndWalk(t *testing.T) {
	g := domain.NewTaskGraph(ids("app"))
	require.NoError(t, g.AddTask(newTask("t-lib", "lib")))
	require.NoError(t, g.AddTask(newTask("t-util", "util")))
	require.NoError(t, g.AddTask(newTask("t-api", "api", "t-lib", "t-util")))
	require.NoError(t, g.AddTask(newTask("t-app", "app", "t-api")))

	require.NoError(t, g.Validate())
	assert.Equal(t, 4, g.Len())

	var order []domain.TaskID
	for task := range g.Walk() {
		order = append(order, task.ID)
	}
	require.Len(t, order, 4)
	pos := func(id domain.TaskID) int { return slices.Index(order, id) }
	assert.Less(t, pos("t-lib"), pos("t-api"))
	assert.Less(t, pos("t-util"), pos("t-api"))
	assert.Less(t, pos("t-api"), pos("t-app"))

	levels := g.Levels()
	require.Len(t, levels, 3)
	assert.Len(t, levels[0], 2)
	assert.Equal(t, domain.TaskID("t-api"), levels[1][0].ID)
	assert.Equal(t, domain.TaskID("t-app"), levels[2][0].ID)

	assert.Equal(t, []domain.TaskID{"t-api"}, g.Dependents("t-lib"))
}

func TestTaskGraph_DuplicateTask(t *testing.T) {
	g := domain.NewTaskGraph(nil)
	require.NoError(t, g.AddTask(newTask("t1", "lib")))

	err := g.AddTask(newTask("t1", "lib"))
	require.ErrorIs(t, err, domain.ErrTaskAlreadyExists)
}

func TestTaskGraph_MissingDependency(t *testing.T) {
	g := domain.NewTaskGraph(nil)
	require.NoError(t, g.AddTask(newTask("t-app", "app", "t-ghost")))

	err := g.Validate()
	require.ErrorIs(t, err, domain.ErrMissingDependency)
}

func TestTaskGraph_ExternalDependency(t *testing.T) {
	g := domain.NewTaskGraph(ids("app"))
	require.NoError(t, g.AddNode(domain.GraphNode{
		Revision: domain.BuildConfigurationRevision{ConfigurationID: "lib", Revision: 1},
		Kind:     domain.NodeInFlight,
		TaskID:   "remote-1",
		Status:   domain.StatusBuilding,
	}))
	require.NoError(t, g.AddTask(newTask("t-app", "app", "remote-1")))

	require.NoError(t, g.Validate())
	assert.True(t, g.IsExternal("remote-1"))
	assert.False(t, g.IsExternal("t-app"))
	assert.Equal(t, 1, g.Len())
}

func TestTaskGraph_Cycle(t *testing.T) {
	g := domain.NewTaskGraph(nil)
	require.NoError(t, g.AddTask(newTask("a", "a", "b")))
	require.NoError(t, g.AddTask(newTask("b", "b", "a")))

	err := g.Validate()
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "a -> b -> a", zErr.Metadata()["cycle"])
}

func TestTaskGraph_NodeResolvedTwice(t *testing.T) {
	g := domain.NewTaskGraph(nil)
	node := domain.GraphNode{Revision: domain.BuildConfigurationRevision{ConfigurationID: "lib", Revision: 1}}
	require.NoError(t, g.AddNode(node))

	err := g.AddNode(node)
	require.ErrorIs(t, err, domain.ErrGraphStructure)

	got, ok := g.Node("lib")
	require.True(t, ok)
	assert.Equal(t, domain.NodeBuild, got.Kind)
}
