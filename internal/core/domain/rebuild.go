package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// RebuildMode controls whether unchanged configurations are rebuilt.
type RebuildMode string

const (
	// RebuildForce always builds.
	RebuildForce RebuildMode = "FORCE"
	// RebuildImplicit builds when the revision has no successful build or a dependency is rebuilt.
	RebuildImplicit RebuildMode = "IMPLICIT_DEPENDENCY_CHECK"
	// RebuildExplicit also builds when a dependency was built more recently than the configuration.
	RebuildExplicit RebuildMode = "EXPLICIT_DEPENDENCY_CHECK"
)

// ParseRebuildMode converts s to a RebuildMode. Matching ignores case and treats "-" as "_".
func ParseRebuildMode(s string) (RebuildMode, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch RebuildMode(normalized) {
	case RebuildForce:
		return RebuildForce, nil
	case RebuildImplicit, "IMPLICIT":
		return RebuildImplicit, nil
	case RebuildExplicit, "EXPLICIT":
		return RebuildExplicit, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidRebuildMode, "rebuild mode rejected"), "mode", s)
	}
}

// Action is the outcome of a rebuild decision.
type Action int

const (
	// ActionBuild means a new build task is created.
	ActionBuild Action = iota
	// ActionReuse means the latest successful record is reused and no task is created.
	ActionReuse
)

// String returns a lower case name of the action.
func (a Action) String() string {
	if a == ActionReuse {
		return "reuse"
	}
	return "build"
}

// Rebuild reasons.
const (
	ReasonForced            = "rebuild forced"
	ReasonNoSuccessfulBuild = "no successful build of this revision"
	ReasonDependencyRebuilt = "dependency rebuilt"
	ReasonDependencyNewer   = "dependency built after last successful build"
	ReasonUpToDate          = "up to date"
	ReasonInFlight          = "unfinished build reused"
)

// Decision is the result of evaluating the rebuild policy for one revision.
type Decision struct {
	Action Action
	Reason string
	// Record is the reused record when Action is ActionReuse.
	Record *BuildRecord
}

// DependencyOutcome describes a dependency already decided in the current pass.
type DependencyOutcome struct {
	ConfigurationID ConfigurationID
	// Rebuilt is true when the dependency produced a task in this pass.
	Rebuilt bool
	// LatestSuccess is the latest successful record of the dependency, if any.
	LatestSuccess *BuildRecord
}

// RebuildInput is everything the policy needs to decide about one revision.
type RebuildInput struct {
	Revision      BuildConfigurationRevision
	LatestSuccess *BuildRecord
	Dependencies  []DependencyOutcome
}

// RebuildPolicy decides per revision whether a build is required.
// Dependencies must be decided before their dependents.
type RebuildPolicy struct {
	Mode RebuildMode
}

// NewRebuildPolicy creates a policy for mode.
func NewRebuildPolicy(mode RebuildMode) RebuildPolicy {
	return RebuildPolicy{Mode: mode}
}

// Decide evaluates the policy. Missing history means build; the policy never fails.
func (p RebuildPolicy) Decide(in RebuildInput) Decision {
	if p.Mode == RebuildForce {
		return Decision{Action: ActionBuild, Reason: ReasonForced}
	}

	last := in.LatestSuccess
	if last == nil || !last.Status.IsSuccessful() || last.Revision != in.Revision.ID() {
		return Decision{Action: ActionBuild, Reason: ReasonNoSuccessfulBuild}
	}

	for _, dep := range in.Dependencies {
		if dep.Rebuilt {
			return Decision{Action: ActionBuild, Reason: ReasonDependencyRebuilt}
		}
	}

	if p.Mode == RebuildExplicit {
		for _, dep := range in.Dependencies {
			if dep.LatestSuccess != nil && dep.LatestSuccess.EndTime.After(last.EndTime) {
				return Decision{Action: ActionBuild, Reason: ReasonDependencyNewer}
			}
		}
	}

	return Decision{Action: ActionReuse, Reason: ReasonUpToDate, Record: last}
}
