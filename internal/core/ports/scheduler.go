package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// RemoteScheduler is the external scheduler that runs dispatched build tasks.
// It is the source of truth for task liveness; timeouts are reported as SYSTEM_ERROR.
//
//go:generate go run go.uber.org/mock/mockgen -source=scheduler.go -destination=mocks/mock_scheduler.go -package=mocks
type RemoteScheduler interface {
	// UnfinishedTasks lists every dispatched task that has not terminated.
	UnfinishedTasks(ctx context.Context) ([]domain.RemoteTask, error)

	// Submit dispatches a task for execution.
	Submit(ctx context.Context, task *domain.BuildTask) error

	// Cancel stops a dispatched task.
	Cancel(ctx context.Context, id domain.TaskID) error
}

// CompletionFunc receives the terminal status of a dispatched task.
type CompletionFunc func(ctx context.Context, id domain.TaskID, status domain.BuildStatus, artifacts []domain.Artifact) error
