package domain

import "time"

// ServiceSettings holds the runtime settings of the orchestrator.
type ServiceSettings struct {
	// StoreDriver selects the persistence backend: memory, sqlite or pgx.
	StoreDriver string
	// StoreDSN is the data source name passed to the SQL driver.
	StoreDSN string
	// AggregationInterval is the period of the build set reconciliation loop.
	AggregationInterval time.Duration
	// Parallelism bounds concurrently running build scripts.
	Parallelism int
	// RebuildMode is the default rebuild mode of trigger requests.
	RebuildMode RebuildMode
	// LogFormat is either pretty or json.
	LogFormat string
	// MetricsAddr is the listen address of the metrics endpoint.
	MetricsAddr string
}

// Catalog is the loaded content of a forge.yaml file.
type Catalog struct {
	// Root is the directory containing the catalog file.
	Root string
	// Path is the absolute path of the catalog file.
	Path           string
	Configurations []BuildConfiguration
	Groups         []BuildConfigurationSet
	Service        ServiceSettings
}
