package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Event is a notification emitted by the orchestration core.
type Event interface {
	// OccurredAt returns when the change happened.
	OccurredAt() time.Time
}

// StatusChangedEvent reports a single build task transition.
type StatusChangedEvent struct {
	TaskID     TaskID
	Revision   RevisionID
	BuildSetID BuildSetID
	OldStatus  BuildStatus
	NewStatus  BuildStatus
	At         time.Time
}

// OccurredAt implements Event.
func (e StatusChangedEvent) OccurredAt() time.Time {
	return e.At
}

// GroupStatusChangedEvent reports a change of a build set's aggregate status.
type GroupStatusChangedEvent struct {
	BuildSetID BuildSetID
	GroupName  string
	OldStatus  BuildStatus
	NewStatus  BuildStatus
	At         time.Time
}

// OccurredAt implements Event.
func (e GroupStatusChangedEvent) OccurredAt() time.Time {
	return e.At
}

// Transition moves task to status to and returns the resulting event.
// The task is left untouched when the life cycle does not allow the change.
func Transition(task *BuildTask, to BuildStatus, at time.Time) (StatusChangedEvent, error) {
	from := task.Status
	if !CanTransition(from, to) {
		err := zerr.With(zerr.Wrap(ErrInvalidTransition, "status change rejected"), "task_id", task.ID)
		err = zerr.With(err, "from", string(from))
		return StatusChangedEvent{}, zerr.With(err, "to", string(to))
	}

	task.Status = to
	switch {
	case to == StatusBuilding:
		task.StartTime = at
	case to.IsTerminal():
		task.EndTime = at
	}

	return StatusChangedEvent{
		TaskID:     task.ID,
		Revision:   task.Revision.ID(),
		BuildSetID: task.BuildSetID,
		OldStatus:  from,
		NewStatus:  to,
		At:         at,
	}, nil
}
