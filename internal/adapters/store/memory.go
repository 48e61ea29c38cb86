package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Store = (*Memory)(nil)

// Memory implements ports.Store in process memory. It backs tests and the "memory" driver.
type Memory struct {
	mu        sync.RWMutex
	now       func() time.Time
	revisions map[domain.ConfigurationID][]domain.BuildConfigurationRevision
	records   []domain.BuildRecord
	sets      map[domain.BuildSetID]*domain.BuildConfigSetRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:       time.Now,
		revisions: make(map[domain.ConfigurationID][]domain.BuildConfigurationRevision),
		sets:      make(map[domain.BuildSetID]*domain.BuildConfigSetRecord),
	}
}

// WithClock replaces the clock used to stamp new revisions.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// LatestRevision returns the newest revision of a configuration, or nil if none exists.
func (m *Memory) LatestRevision(_ context.Context, id domain.ConfigurationID) (*domain.BuildConfigurationRevision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	revs := m.revisions[id]
	if len(revs) == 0 {
		return nil, nil
	}
	return cloneRevision(revs[len(revs)-1]), nil
}

// CreateRevision snapshots cfg as the next revision number.
func (m *Memory) CreateRevision(
	_ context.Context,
	cfg *domain.BuildConfiguration,
	fingerprint string,
) (*domain.BuildConfigurationRevision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rev := domain.NewRevision(cfg, len(m.revisions[cfg.ID])+1, fingerprint, m.now())
	m.revisions[cfg.ID] = append(m.revisions[cfg.ID], rev)
	return cloneRevision(rev), nil
}

// Revision returns a specific revision.
func (m *Memory) Revision(_ context.Context, id domain.RevisionID) (*domain.BuildConfigurationRevision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	revs := m.revisions[id.ConfigurationID]
	if id.Revision < 1 || id.Revision > len(revs) {
		return nil, zerr.With(zerr.Wrap(domain.ErrRevisionNotFound, "revision lookup failed"), "revision", id.String())
	}
	return cloneRevision(revs[id.Revision-1]), nil
}

// LatestBuildRecord returns the newest record of a configuration, or nil if none exists.
func (m *Memory) LatestBuildRecord(_ context.Context, id domain.ConfigurationID) (*domain.BuildRecord, error) {
	return m.latest(func(rec *domain.BuildRecord) bool {
		return rec.ConfigurationID() == id
	}), nil
}

// LatestSuccessfulBuildRecord returns the newest successful record of a configuration.
func (m *Memory) LatestSuccessfulBuildRecord(_ context.Context, id domain.ConfigurationID) (*domain.BuildRecord, error) {
	return m.latest(func(rec *domain.BuildRecord) bool {
		return rec.ConfigurationID() == id && rec.Status.IsSuccessful()
	}), nil
}

// BuildRecordForTask returns the record produced by a task, or nil if none exists.
func (m *Memory) BuildRecordForTask(_ context.Context, id domain.TaskID) (*domain.BuildRecord, error) {
	return m.latest(func(rec *domain.BuildRecord) bool {
		return rec.TaskID == id
	}), nil
}

func (m *Memory) latest(match func(*domain.BuildRecord) bool) *domain.BuildRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		if match(&m.records[i]) {
			return cloneRecord(m.records[i])
		}
	}
	return nil
}

// PutBuildRecord stores a record. A record with the same id is replaced in place.
func (m *Memory) PutBuildRecord(_ context.Context, rec *domain.BuildRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID == rec.ID {
			m.records[i] = *cloneRecord(*rec)
			return nil
		}
	}
	m.records = append(m.records, *cloneRecord(*rec))
	return nil
}

// SaveBuildSet creates or replaces a build set record.
func (m *Memory) SaveBuildSet(_ context.Context, rec *domain.BuildConfigSetRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[rec.ID] = rec.Clone()
	return nil
}

// BuildSet returns a build set record.
func (m *Memory) BuildSet(_ context.Context, id domain.BuildSetID) (*domain.BuildConfigSetRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.sets[id]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrBuildSetNotFound, "build set lookup failed"), "build_set_id", id.String())
	}
	return rec.Clone(), nil
}

// OpenBuildSets returns the ids of build sets whose status is not terminal, sorted.
func (m *Memory) OpenBuildSets(_ context.Context) ([]domain.BuildSetID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []domain.BuildSetID
	for id, rec := range m.sets {
		if !rec.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

func cloneRevision(rev domain.BuildConfigurationRevision) *domain.BuildConfigurationRevision {
	rev.Dependencies = slices.Clone(rev.Dependencies)
	return &rev
}

func cloneRecord(rec domain.BuildRecord) *domain.BuildRecord {
	rec.Artifacts = slices.Clone(rec.Artifacts)
	return &rec
}
