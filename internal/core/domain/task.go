package domain

import (
	"slices"
	"time"
)

// TaskID is the globally unique identity of a build task. It is generated by the core.
type TaskID string

// String returns the id as a plain string.
func (id TaskID) String() string {
	return string(id)
}

// Artifact is an output produced by a finished build.
type Artifact struct {
	Identifier string `json:"identifier"`
	Checksum   string `json:"checksum,omitzero"`
}

// BuildTask represents one scheduled or running build of a configuration revision.
type BuildTask struct {
	ID           TaskID
	Revision     BuildConfigurationRevision
	Dependencies []TaskID
	Status       BuildStatus
	BuildSetID   BuildSetID
	SubmitTime   time.Time
	StartTime    time.Time
	EndTime      time.Time

	record    *BuildRecord
	artifacts []Artifact
}

// NewBuildTask creates an ENQUEUED task for rev depending on deps.
func NewBuildTask(id TaskID, rev BuildConfigurationRevision, deps []TaskID, submitted time.Time) *BuildTask {
	sorted := slices.Clone(deps)
	slices.Sort(sorted)
	return &BuildTask{
		ID:           id,
		Revision:     rev,
		Dependencies: slices.Compact(sorted),
		Status:       StatusEnqueued,
		SubmitTime:   submitted,
	}
}

// ConfigurationID returns the id of the configuration the task builds.
func (t *BuildTask) ConfigurationID() ConfigurationID {
	return t.Revision.ConfigurationID
}

// SetBuiltArtifacts records the artifacts produced by the build.
func (t *BuildTask) SetBuiltArtifacts(artifacts []Artifact) {
	t.artifacts = slices.Clone(artifacts)
}

// BuiltArtifacts returns a copy of the artifacts produced by the build.
func (t *BuildTask) BuiltArtifacts() []Artifact {
	return slices.Clone(t.artifacts)
}

// AttachRecord links the durable record produced when the task finished.
func (t *BuildTask) AttachRecord(rec *BuildRecord) {
	t.record = rec
}

// Record returns the durable record of the task, if any.
func (t *BuildTask) Record() *BuildRecord {
	return t.record
}

// Clone returns a deep copy that can be handed out without sharing mutable state.
func (t *BuildTask) Clone() *BuildTask {
	c := *t
	c.Dependencies = slices.Clone(t.Dependencies)
	c.Revision.Dependencies = slices.Clone(t.Revision.Dependencies)
	c.artifacts = slices.Clone(t.artifacts)
	if t.record != nil {
		rec := *t.record
		c.record = &rec
	}
	return &c
}

// RemoteTask is an unfinished task as reported by the external scheduler.
type RemoteTask struct {
	Revision RevisionID
	TaskID   TaskID
	Status   BuildStatus
}
