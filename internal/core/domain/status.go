package domain

import "strings"

// BuildStatus represents the life cycle state of a build task, a build record or a build set.
type BuildStatus string

const (
	// StatusEnqueued indicates the task was created and not yet scheduled.
	StatusEnqueued BuildStatus = "ENQUEUED"
	// StatusWaitingForDependencies indicates the task waits for its dependencies to terminate.
	StatusWaitingForDependencies BuildStatus = "WAITING_FOR_DEPENDENCIES"
	// StatusBuilding indicates the task was dispatched and is running.
	StatusBuilding BuildStatus = "BUILDING"
	// StatusSuccess indicates the build finished successfully.
	StatusSuccess BuildStatus = "SUCCESS"
	// StatusFailed indicates the build script failed.
	StatusFailed BuildStatus = "FAILED"
	// StatusSystemError indicates the build infrastructure failed, including timeouts.
	StatusSystemError BuildStatus = "SYSTEM_ERROR"
	// StatusCancelled indicates the task was cancelled.
	StatusCancelled BuildStatus = "CANCELLED"
	// StatusRejected indicates the task was rejected before scheduling.
	StatusRejected BuildStatus = "REJECTED"
	// StatusRejectedFailedDependencies indicates a dependency did not finish successfully.
	StatusRejectedFailedDependencies BuildStatus = "REJECTED_FAILED_DEPENDENCIES"
	// StatusRejectedAlreadyBuilt indicates an identical build already exists.
	StatusRejectedAlreadyBuilt BuildStatus = "REJECTED_ALREADY_BUILT"
	// StatusNoRebuildRequired indicates an existing build record was reused.
	StatusNoRebuildRequired BuildStatus = "NO_REBUILD_REQUIRED"
)

// AllStatuses lists every status in life cycle order.
var AllStatuses = []BuildStatus{
	StatusEnqueued,
	StatusWaitingForDependencies,
	StatusBuilding,
	StatusSuccess,
	StatusFailed,
	StatusSystemError,
	StatusCancelled,
	StatusRejected,
	StatusRejectedFailedDependencies,
	StatusRejectedAlreadyBuilt,
	StatusNoRebuildRequired,
}

// IsTerminal reports whether no further transition is defined out of s.
func (s BuildStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess,
		StatusFailed,
		StatusSystemError,
		StatusCancelled,
		StatusRejected,
		StatusRejectedFailedDependencies,
		StatusRejectedAlreadyBuilt,
		StatusNoRebuildRequired:
		return true
	default:
		return false
	}
}

// IsSuccessful reports whether dependents may proceed after a dependency ended in s.
func (s BuildStatus) IsSuccessful() bool {
	return s == StatusSuccess || s == StatusNoRebuildRequired
}

// RejectsDependents reports whether a dependency ending in s rejects its dependents.
// Cancellation propagates like a failure.
func (s BuildStatus) RejectsDependents() bool {
	switch s {
	case StatusFailed,
		StatusSystemError,
		StatusCancelled,
		StatusRejected,
		StatusRejectedFailedDependencies,
		StatusRejectedAlreadyBuilt:
		return true
	default:
		return false
	}
}

// IsFailure reports whether s counts as a failed member when aggregating a build set.
func (s BuildStatus) IsFailure() bool {
	switch s {
	case StatusFailed, StatusSystemError, StatusRejected, StatusRejectedFailedDependencies:
		return true
	default:
		return false
	}
}

// ParseBuildStatus converts a string to a BuildStatus, defaulting to ENQUEUED if unknown.
// This is useful for deserialization or API boundaries.
func ParseBuildStatus(s string) BuildStatus {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, status := range AllStatuses {
		if string(status) == normalized {
			return status
		}
	}
	return StatusEnqueued
}

// transitions lists the allowed status changes of the task life cycle.
var transitions = map[BuildStatus][]BuildStatus{
	StatusEnqueued: {
		StatusWaitingForDependencies,
		StatusBuilding,
		StatusCancelled,
		StatusRejected,
		StatusRejectedAlreadyBuilt,
		StatusRejectedFailedDependencies,
	},
	StatusWaitingForDependencies: {
		StatusBuilding,
		StatusRejectedFailedDependencies,
		StatusCancelled,
	},
	StatusBuilding: {
		StatusSuccess,
		StatusFailed,
		StatusSystemError,
		StatusCancelled,
	},
}

// CanTransition reports whether the life cycle allows moving from one status to another.
func CanTransition(from, to BuildStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
