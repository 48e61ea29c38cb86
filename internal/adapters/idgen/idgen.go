// Package idgen allocates task, record and build set identifiers.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

var (
	_ ports.IDGenerator = (*UUID)(nil)
	_ ports.IDGenerator = (*Sequence)(nil)
)

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewUUID creates a new UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// NewTaskID implements ports.IDGenerator.
func (*UUID) NewTaskID() domain.TaskID {
	return domain.TaskID(uuid.NewString())
}

// NewRecordID implements ports.IDGenerator.
func (*UUID) NewRecordID() string {
	return uuid.NewString()
}

// NewBuildSetID implements ports.IDGenerator.
func (*UUID) NewBuildSetID() domain.BuildSetID {
	return domain.BuildSetID(uuid.NewString())
}

// Sequence generates deterministic identifiers such as "task-1", "task-2".
// It is safe for concurrent use.
type Sequence struct {
	prefix string
	next   atomic.Uint64
}

// NewSequence creates a sequence whose ids start with prefix, if any.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) id(kind string) string {
	n := s.next.Add(1)
	if s.prefix == "" {
		return fmt.Sprintf("%s-%d", kind, n)
	}
	return fmt.Sprintf("%s-%s-%d", s.prefix, kind, n)
}

// NewTaskID implements ports.IDGenerator.
func (s *Sequence) NewTaskID() domain.TaskID {
	return domain.TaskID(s.id("task"))
}

// NewRecordID implements ports.IDGenerator.
func (s *Sequence) NewRecordID() string {
	return s.id("record")
}

// NewBuildSetID implements ports.IDGenerator.
func (s *Sequence) NewBuildSetID() domain.BuildSetID {
	return domain.BuildSetID(s.id("set"))
}
