package config

// Forgefile represents the structure of the forge.yaml configuration file.
type Forgefile struct {
	Version        string                       `yaml:"version"`
	Root           string                       `yaml:"root"`
	Configurations map[string]*ConfigurationDTO `yaml:"configurations"`
	Groups         map[string][]string          `yaml:"groups"`
	Service        ServiceDTO                   `yaml:"service"`
}

// ConfigurationDTO represents a build configuration definition in the catalog.
type ConfigurationDTO struct {
	Name       string   `yaml:"name"`
	Script     string   `yaml:"script"`
	ScriptFile string   `yaml:"scriptFile"`
	WorkingDir string   `yaml:"workingDir"`
	DependsOn  []string `yaml:"dependsOn"`
}

// ServiceDTO holds the runtime settings of the orchestrator.
type ServiceDTO struct {
	Store               StoreDTO `yaml:"store"`
	AggregationInterval string   `yaml:"aggregationInterval"`
	Parallelism         int      `yaml:"parallelism"`
	RebuildMode         string   `yaml:"rebuildMode"`
	LogFormat           string   `yaml:"logFormat"`
	MetricsAddr         string   `yaml:"metricsAddr"`
}

// StoreDTO selects the persistence backend.
type StoreDTO struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}
