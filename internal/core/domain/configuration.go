package domain

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"go.trai.ch/zerr"
)

// ConfigurationID is the opaque identity of a build configuration.
type ConfigurationID string

// String returns the id as a plain string.
func (id ConfigurationID) String() string {
	return string(id)
}

var configurationIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:/-]*$`)

// ValidateConfigurationID checks that id is non-empty and only uses id-safe characters.
func ValidateConfigurationID(id ConfigurationID) error {
	if !configurationIDPattern.MatchString(string(id)) {
		return zerr.With(zerr.Wrap(ErrInvalidConfigurationID, "configuration id rejected"), "configuration", string(id))
	}
	return nil
}

// BuildConfiguration is the live, mutable definition of a buildable unit.
// It is owned by configuration management and read-only to the orchestration core.
type BuildConfiguration struct {
	ID           ConfigurationID
	Name         InternedString
	BuildScript  InternedString
	// WorkDir is the absolute directory the build script runs in.
	WorkDir      InternedString
	Dependencies []ConfigurationID
}

// RevisionID identifies one immutable snapshot of a configuration.
type RevisionID struct {
	ConfigurationID ConfigurationID `json:"configuration_id"`
	Revision        int             `json:"revision"`
}

// String renders the revision id as "<configuration>@<revision>".
func (r RevisionID) String() string {
	return fmt.Sprintf("%s@%d", r.ConfigurationID, r.Revision)
}

// BuildConfigurationRevision is an immutable snapshot of a configuration taken when a build
// was triggered. Graph construction only ever reads revisions.
type BuildConfigurationRevision struct {
	ConfigurationID ConfigurationID
	Revision        int
	Name            InternedString
	BuildScript     InternedString
	WorkDir         InternedString
	Dependencies    []ConfigurationID
	Fingerprint     string
	CreatedAt       time.Time
}

// ID returns the revision identity.
func (r *BuildConfigurationRevision) ID() RevisionID {
	return RevisionID{ConfigurationID: r.ConfigurationID, Revision: r.Revision}
}

// NewRevision snapshots cfg as revision number rev.
func NewRevision(cfg *BuildConfiguration, rev int, fingerprint string, at time.Time) BuildConfigurationRevision {
	deps := slices.Clone(cfg.Dependencies)
	slices.Sort(deps)
	return BuildConfigurationRevision{
		ConfigurationID: cfg.ID,
		Revision:        rev,
		Name:            cfg.Name,
		BuildScript:     cfg.BuildScript,
		WorkDir:         cfg.WorkDir,
		Dependencies:    slices.Compact(deps),
		Fingerprint:     fingerprint,
		CreatedAt:       at,
	}
}

// BuildConfigurationSet is a named group of configurations triggered together.
type BuildConfigurationSet struct {
	Name    string
	Members []ConfigurationID
}
