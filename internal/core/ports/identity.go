package ports

import "go.trai.ch/forge/internal/core/domain"

// IDGenerator allocates globally unique identifiers.
//
//go:generate go run go.uber.org/mock/mockgen -source=identity.go -destination=mocks/mock_identity.go -package=mocks
type IDGenerator interface {
	NewTaskID() domain.TaskID
	NewRecordID() string
	NewBuildSetID() domain.BuildSetID
}

// Fingerprinter computes a stable digest of a configuration's build inputs.
// Two configurations with the same fingerprint produce the same revision.
type Fingerprinter interface {
	Fingerprint(cfg *domain.BuildConfiguration) string
}
