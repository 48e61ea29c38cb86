package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrSelfDependency is returned when a configuration is declared as its own dependency.
	ErrSelfDependency = zerr.New("configuration cannot depend on itself")

	// ErrCycleDetected is returned when adding a dependency edge would close a cycle.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrGraphStructure is returned when the dependency closure of a trigger request is inconsistent.
	ErrGraphStructure = zerr.New("inconsistent build graph structure")

	// ErrBuildConflict is returned when a configuration revision already has an unfinished build task.
	ErrBuildConflict = zerr.New("build already in progress")

	// ErrConfigurationNotFound is returned when a configuration id does not resolve.
	ErrConfigurationNotFound = zerr.New("build configuration not found")

	// ErrGroupNotFound is returned when a build configuration set name does not resolve.
	ErrGroupNotFound = zerr.New("build configuration set not found")

	// ErrEmptyGroup is returned when a build configuration set has no members.
	ErrEmptyGroup = zerr.New("build configuration set has no members")

	// ErrRevisionNotFound is returned when a configuration revision does not resolve.
	ErrRevisionNotFound = zerr.New("build configuration revision not found")

	// ErrTaskAlreadyExists is returned when a task id is registered twice in one graph.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that is not part of its graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrTaskNotFound is returned when a task id is unknown.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrBuildSetNotFound is returned when a build set record is unknown.
	ErrBuildSetNotFound = zerr.New("build set record not found")

	// ErrInvalidTransition is returned when a status change is not allowed by the task life cycle.
	ErrInvalidTransition = zerr.New("invalid status transition")

	// ErrNotTerminalStatus is returned when a completion callback reports a non-terminal status.
	ErrNotTerminalStatus = zerr.New("status is not terminal")

	// ErrInvalidRebuildMode is returned when a rebuild mode name is unknown.
	ErrInvalidRebuildMode = zerr.New(
		"invalid rebuild mode, expected 'force', 'implicit-dependency-check' or 'explicit-dependency-check'",
	)

	// ErrNoTargetsSpecified is returned when a trigger names neither configurations nor a group.
	ErrNoTargetsSpecified = zerr.New("no configurations or group specified")

	// ErrStoreOpenFailed is returned when the persistence backend cannot be opened.
	ErrStoreOpenFailed = zerr.New("failed to open store")

	// ErrStoreMigrationFailed is returned when the persistence schema cannot be applied.
	ErrStoreMigrationFailed = zerr.New("failed to migrate store")

	// ErrStoreReadFailed is returned when a record cannot be read from the store.
	ErrStoreReadFailed = zerr.New("failed to read from store")

	// ErrStoreWriteFailed is returned when a record cannot be written to the store.
	ErrStoreWriteFailed = zerr.New("failed to write to store")

	// ErrUnsupportedStoreDriver is returned when the configured store driver is unknown.
	ErrUnsupportedStoreDriver = zerr.New("unsupported store driver, expected 'memory', 'sqlite' or 'pgx'")

	// ErrConfigReadFailed is returned when the catalog file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the catalog file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no catalog file can be found.
	ErrConfigNotFound = zerr.New("could not find forge.yaml")

	// ErrInvalidConfigurationID is returned when a configuration id contains invalid characters.
	ErrInvalidConfigurationID = zerr.New("invalid configuration id")

	// ErrSubmitFailed is returned when the remote scheduler rejects a submission.
	ErrSubmitFailed = zerr.New("failed to submit build task")

	// ErrRemoteQueryFailed is returned when the remote scheduler cannot list unfinished tasks.
	ErrRemoteQueryFailed = zerr.New("failed to query unfinished tasks")

	// ErrBuildScriptFailed is returned when a build script exits unsuccessfully.
	ErrBuildScriptFailed = zerr.New("build script failed")

	// ErrWatcherFailed is returned when the catalog watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to watch config file")

	// ErrMetricsInitFailed is returned when the metrics exporter cannot be created.
	ErrMetricsInitFailed = zerr.New("failed to initialize metrics")

	// ErrBuildSetFailed is returned when a waited-for build set ends without success.
	ErrBuildSetFailed = zerr.New("build set did not succeed")
)

// ConflictingTaskID extracts the id of the unfinished task referenced by an ErrBuildConflict error.
func ConflictingTaskID(err error) (TaskID, bool) {
	if !errors.Is(err, ErrBuildConflict) {
		return "", false
	}
	for current := err; current != nil; current = errors.Unwrap(current) {
		zErr, ok := current.(*zerr.Error)
		if !ok {
			continue
		}
		if id, ok := zErr.Metadata()["task_id"].(TaskID); ok {
			return id, true
		}
	}
	return "", false
}
