// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// Executor defines the interface for running the build script of a task.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the build script of the task's revision and returns the produced artifacts.
	// A script that runs and fails returns an error wrapping domain.ErrBuildScriptFailed.
	Execute(ctx context.Context, task *domain.BuildTask) ([]domain.Artifact, error)
}
