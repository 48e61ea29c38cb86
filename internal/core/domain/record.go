package domain

import (
	"maps"
	"slices"
	"time"
)

// BuildRecord is the durable result of a finished build.
type BuildRecord struct {
	ID        string      `json:"id"`
	TaskID    TaskID      `json:"task_id"`
	Revision  RevisionID  `json:"revision"`
	Status    BuildStatus `json:"status"`
	Artifacts []Artifact  `json:"artifacts,omitempty"`
	StartTime time.Time   `json:"start_time,omitzero"`
	EndTime   time.Time   `json:"end_time,omitzero"`
}

// ConfigurationID returns the configuration the record belongs to.
func (r *BuildRecord) ConfigurationID() ConfigurationID {
	return r.Revision.ConfigurationID
}

// BuildSetID identifies a build set record.
type BuildSetID string

// String returns the id as a plain string.
func (id BuildSetID) String() string {
	return string(id)
}

// BuildConfigSetRecord groups the build tasks of one group trigger.
type BuildConfigSetRecord struct {
	ID        BuildSetID
	GroupName string
	Members   []ConfigurationID
	// Tasks maps members to the task created or reused for them. Members resolved to an
	// existing record have no entry.
	Tasks map[ConfigurationID]TaskID
	// Reused maps members resolved without a task to the reused record's status.
	Reused    map[ConfigurationID]BuildStatus
	Status    BuildStatus
	StartTime time.Time
	EndTime   time.Time
}

// Clone returns a deep copy of the record.
func (r *BuildConfigSetRecord) Clone() *BuildConfigSetRecord {
	c := *r
	c.Members = slices.Clone(r.Members)
	c.Tasks = maps.Clone(r.Tasks)
	c.Reused = maps.Clone(r.Reused)
	return &c
}
