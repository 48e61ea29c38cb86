package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// RevisionStore persists immutable configuration revisions.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type RevisionStore interface {
	// LatestRevision returns the newest revision of a configuration.
	// Returns nil, nil if the configuration has no revision yet.
	LatestRevision(ctx context.Context, id domain.ConfigurationID) (*domain.BuildConfigurationRevision, error)

	// CreateRevision snapshots cfg as the next revision number.
	CreateRevision(ctx context.Context, cfg *domain.BuildConfiguration, fingerprint string) (*domain.BuildConfigurationRevision, error)

	// Revision returns a specific revision or domain.ErrRevisionNotFound.
	Revision(ctx context.Context, id domain.RevisionID) (*domain.BuildConfigurationRevision, error)
}

// BuildRecordStore persists the terminal results of build tasks.
type BuildRecordStore interface {
	// LatestBuildRecord returns the newest record of a configuration, whatever its status.
	// Returns nil, nil if none exists.
	LatestBuildRecord(ctx context.Context, id domain.ConfigurationID) (*domain.BuildRecord, error)

	// LatestSuccessfulBuildRecord returns the newest successful record of a configuration.
	// Returns nil, nil if none exists.
	LatestSuccessfulBuildRecord(ctx context.Context, id domain.ConfigurationID) (*domain.BuildRecord, error)

	// BuildRecordForTask returns the record produced by a task.
	// Returns nil, nil if the task has not terminated.
	BuildRecordForTask(ctx context.Context, id domain.TaskID) (*domain.BuildRecord, error)

	// PutBuildRecord stores a record.
	PutBuildRecord(ctx context.Context, rec *domain.BuildRecord) error
}

// BuildSetStore persists build set records.
type BuildSetStore interface {
	// SaveBuildSet creates or replaces a build set record.
	SaveBuildSet(ctx context.Context, rec *domain.BuildConfigSetRecord) error

	// BuildSet returns a build set record or domain.ErrBuildSetNotFound.
	BuildSet(ctx context.Context, id domain.BuildSetID) (*domain.BuildConfigSetRecord, error)

	// OpenBuildSets returns the ids of build sets whose status is not terminal.
	OpenBuildSets(ctx context.Context) ([]domain.BuildSetID, error)
}

// Store bundles every persistence contract of the orchestrator.
type Store interface {
	RevisionStore
	BuildRecordStore
	BuildSetStore

	// Close releases the underlying resources.
	Close() error
}
