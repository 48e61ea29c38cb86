// Package config provides the catalog loader and the live configuration source for forge.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Defaults applied to omitted service settings.
const (
	DefaultStoreDriver         = "sqlite"
	DefaultAggregationInterval = 5 * time.Second
	DefaultLogFormat           = "pretty"
	DefaultMetricsAddr         = "127.0.0.1:9464"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load searches cwd and its parents for forge.yaml and returns the parsed catalog.
func (l *Loader) Load(cwd string) (*domain.Catalog, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(configPath)
}

// LoadFile parses the catalog at configPath.
func (l *Loader) LoadFile(configPath string) (*domain.Catalog, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	var forgefile Forgefile
	if err := readAndUnmarshalYAML(absPath, &forgefile); err != nil {
		return nil, err
	}

	root := resolveRoot(absPath, forgefile.Root)
	catalog := &domain.Catalog{Root: root, Path: absPath}

	catalog.Configurations, err = buildConfigurations(root, forgefile.Configurations)
	if err != nil {
		return nil, zerr.With(err, "path", absPath)
	}

	// Replace validates references and rejects cycles before anything is returned.
	if err := domain.NewDependencyGraph().Replace(catalog.Configurations); err != nil {
		return nil, zerr.With(err, "path", absPath)
	}

	catalog.Groups, err = buildGroups(forgefile.Groups, catalog.Configurations)
	if err != nil {
		return nil, zerr.With(err, "path", absPath)
	}

	catalog.Service, err = l.buildService(root, forgefile.Service)
	if err != nil {
		return nil, zerr.With(err, "path", absPath)
	}

	return catalog, nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ForgeFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "catalog lookup failed"), "cwd", cwd)
}

func buildConfigurations(root string, dtos map[string]*ConfigurationDTO) ([]domain.BuildConfiguration, error) {
	ids := make([]string, 0, len(dtos))
	for id := range dtos {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	configs := make([]domain.BuildConfiguration, 0, len(ids))
	for _, id := range ids {
		dto := dtos[id]
		if dto == nil {
			dto = &ConfigurationDTO{}
		}

		cfgID := domain.ConfigurationID(id)
		if err := domain.ValidateConfigurationID(cfgID); err != nil {
			return nil, err
		}

		for _, dep := range dto.DependsOn {
			if _, ok := dtos[dep]; !ok {
				err := zerr.Wrap(domain.ErrConfigurationNotFound, "dependency rejected")
				err = zerr.With(err, "configuration", id)
				return nil, zerr.With(err, "missing_dependency", dep)
			}
		}

		name := dto.Name
		if name == "" {
			name = id
		}

		script := dto.Script
		if dto.ScriptFile != "" {
			script = resolvePath(root, dto.ScriptFile)
		}

		workDir := root
		if dto.WorkingDir != "" {
			workDir = resolvePath(root, dto.WorkingDir)
		}

		configs = append(configs, domain.BuildConfiguration{
			ID:           cfgID,
			Name:         domain.NewInternedString(name),
			BuildScript:  domain.NewInternedString(script),
			WorkDir:      domain.NewInternedString(workDir),
			Dependencies: canonicalizeIDs(dto.DependsOn),
		})
	}
	return configs, nil
}

func buildGroups(groups map[string][]string, configs []domain.BuildConfiguration) ([]domain.BuildConfigurationSet, error) {
	known := make(map[domain.ConfigurationID]bool, len(configs))
	for i := range configs {
		known[configs[i].ID] = true
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)

	sets := make([]domain.BuildConfigurationSet, 0, len(names))
	for _, name := range names {
		members := canonicalizeIDs(groups[name])
		if len(members) == 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrEmptyGroup, "group rejected"), "group", name)
		}
		for _, member := range members {
			if !known[member] {
				err := zerr.With(zerr.Wrap(domain.ErrConfigurationNotFound, "group rejected"), "group", name)
				return nil, zerr.With(err, "configuration", member.String())
			}
		}
		sets = append(sets, domain.BuildConfigurationSet{Name: name, Members: members})
	}
	return sets, nil
}

func (l *Loader) buildService(root string, dto ServiceDTO) (domain.ServiceSettings, error) {
	settings := domain.ServiceSettings{
		StoreDriver:         dto.Store.Driver,
		StoreDSN:            dto.Store.DSN,
		AggregationInterval: DefaultAggregationInterval,
		Parallelism:         dto.Parallelism,
		RebuildMode:         domain.RebuildImplicit,
		LogFormat:           dto.LogFormat,
		MetricsAddr:         dto.MetricsAddr,
	}

	if settings.StoreDriver == "" {
		settings.StoreDriver = DefaultStoreDriver
	}
	if settings.StoreDSN == "" && settings.StoreDriver == DefaultStoreDriver {
		settings.StoreDSN = filepath.Join(root, domain.DefaultDatabasePath())
	}
	if settings.Parallelism <= 0 {
		settings.Parallelism = runtime.NumCPU()
	}
	if settings.LogFormat == "" {
		settings.LogFormat = DefaultLogFormat
	}
	if settings.MetricsAddr == "" {
		settings.MetricsAddr = DefaultMetricsAddr
	}

	if dto.AggregationInterval != "" {
		interval, err := time.ParseDuration(dto.AggregationInterval)
		if err != nil || interval <= 0 {
			if l.Logger != nil {
				l.Logger.Warn("ignoring invalid aggregation interval", "value", dto.AggregationInterval)
			}
		} else {
			settings.AggregationInterval = interval
		}
	}

	if dto.RebuildMode != "" {
		mode, err := domain.ParseRebuildMode(dto.RebuildMode)
		if err != nil {
			return domain.ServiceSettings{}, err
		}
		settings.RebuildMode = mode
	}

	return settings, nil
}

func canonicalizeIDs(ids []string) []domain.ConfigurationID {
	if len(ids) == 0 {
		return nil
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	unique := slices.Compact(sorted)

	res := make([]domain.ConfigurationID, len(unique))
	for i, id := range unique {
		res[i] = domain.ConfigurationID(id)
	}
	return res
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	return resolvePath(configDir, configuredRoot)
}

func resolvePath(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.With(zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}

	return nil
}
