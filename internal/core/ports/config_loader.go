package ports

import "go.trai.ch/forge/internal/core/domain"

// ConfigLoader defines the interface for loading the configuration catalog.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds forge.yaml starting at cwd and returns the parsed catalog.
	Load(cwd string) (*domain.Catalog, error)
}

// ConfigurationSource exposes the live configurations and groups to the orchestration core.
type ConfigurationSource interface {
	// Graph returns the live dependency model.
	Graph() *domain.DependencyGraph
	// Group returns the named configuration set.
	Group(name string) (domain.BuildConfigurationSet, error)
	// Groups returns every configuration set, sorted by name.
	Groups() []domain.BuildConfigurationSet
}
