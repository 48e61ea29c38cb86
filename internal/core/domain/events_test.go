package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

func newTask(id domain.TaskID, cfg domain.ConfigurationID, deps ...domain.TaskID) *domain.BuildTask {
	rev := domain.BuildConfigurationRevision{ConfigurationID: cfg, Revision: 1}
	return domain.NewBuildTask(id, rev, deps, time.Unix(100, 0))
}

func TestTransition(t *testing.T) {
	task := newTask("t1", "core")
	task.BuildSetID = "set-1"
	started := time.Unix(200, 0)
	finished := time.Unix(300, 0)

	ev, err := domain.Transition(task, domain.StatusBuilding, started)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusChangedEvent{
		TaskID:     "t1",
		Revision:   domain.RevisionID{ConfigurationID: "core", Revision: 1},
		BuildSetID: "set-1",
		OldStatus:  domain.StatusEnqueued,
		NewStatus:  domain.StatusBuilding,
		At:         started,
	}, ev)
	assert.Equal(t, started, task.StartTime)
	assert.True(t, task.EndTime.IsZero())

	ev, err = domain.Transition(task, domain.StatusSuccess, finished)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBuilding, ev.OldStatus)
	assert.Equal(t, finished, task.EndTime)
	assert.Equal(t, finished, ev.OccurredAt())
}

func TestTransition_Invalid(t *testing.T) {
	task := newTask("t1", "core")
	task.Status = domain.StatusSuccess

	_, err := domain.Transition(task, domain.StatusBuilding, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusSuccess, task.Status)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "SUCCESS", zErr.Metadata()["from"])
	assert.Equal(t, "BUILDING", zErr.Metadata()["to"])
}

func TestConflictingTaskID(t *testing.T) {
	err := zerr.With(zerr.Wrap(domain.ErrBuildConflict, "trigger rejected"), "task_id", domain.TaskID("t-42"))

	id, ok := domain.ConflictingTaskID(err)
	require.True(t, ok)
	assert.Equal(t, domain.TaskID("t-42"), id)

	_, ok = domain.ConflictingTaskID(domain.ErrCycleDetected)
	assert.False(t, ok)
}

func TestBuildTask_MutationAPI(t *testing.T) {
	task := newTask("t1", "core", "b", "a", "b")
	assert.Equal(t, []domain.TaskID{"a", "b"}, task.Dependencies)
	assert.Equal(t, domain.StatusEnqueued, task.Status)

	artifacts := []domain.Artifact{{Identifier: "core.jar", Checksum: "abc"}}
	task.SetBuiltArtifacts(artifacts)
	artifacts[0].Identifier = "mutated"
	assert.Equal(t, "core.jar", task.BuiltArtifacts()[0].Identifier)

	rec := &domain.BuildRecord{ID: "r1", TaskID: "t1", Status: domain.StatusSuccess}
	task.AttachRecord(rec)
	clone := task.Clone()
	clone.Record().Status = domain.StatusFailed
	clone.Dependencies[0] = "z"
	assert.Equal(t, domain.StatusSuccess, task.Record().Status)
	assert.Equal(t, domain.TaskID("a"), task.Dependencies[0])
}
