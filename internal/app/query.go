package app

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// MemberReport is the state of one build set member.
type MemberReport struct {
	ConfigurationID domain.ConfigurationID
	// TaskID is empty for members resolved to an existing record.
	TaskID domain.TaskID
	Status domain.BuildStatus
}

// SetReport is a build set record with the state of its members.
type SetReport struct {
	Set     *domain.BuildConfigSetRecord
	Members []MemberReport
}

// Status reads a stored build set and the status of its members.
func (a *App) Status(ctx context.Context, cwd string, overrides Overrides, id domain.BuildSetID) (*SetReport, error) {
	catalog, err := a.loadCatalog(cwd, overrides)
	if err != nil {
		return nil, err
	}
	st, err := a.openStore(ctx, catalog.Service)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			a.logger.Error(zerr.Wrap(err, "failed to close store"))
		}
	}()

	rec, err := st.BuildSet(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSetReport(ctx, st, rec)
}

// newSetReport resolves the members of rec to their record status. Members whose task
// has no record yet report the set's own status.
func newSetReport(ctx context.Context, records ports.BuildRecordStore, rec *domain.BuildConfigSetRecord) (*SetReport, error) {
	report := &SetReport{Set: rec, Members: make([]MemberReport, 0, len(rec.Members))}
	for _, member := range rec.Members {
		m := MemberReport{ConfigurationID: member, Status: rec.Status}
		if status, ok := rec.Reused[member]; ok {
			m.Status = status
		} else if taskID, ok := rec.Tasks[member]; ok {
			m.TaskID = taskID
			record, err := records.BuildRecordForTask(ctx, taskID)
			if err != nil {
				return nil, err
			}
			if record != nil {
				m.Status = record.Status
			}
		}
		report.Members = append(report.Members, m)
	}
	return report, nil
}

// OpenBuildSets lists the stored build sets that have not terminated.
func (a *App) OpenBuildSets(ctx context.Context, cwd string, overrides Overrides) ([]*domain.BuildConfigSetRecord, error) {
	catalog, err := a.loadCatalog(cwd, overrides)
	if err != nil {
		return nil, err
	}
	st, err := a.openStore(ctx, catalog.Service)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			a.logger.Error(zerr.Wrap(err, "failed to close store"))
		}
	}()

	ids, err := st.OpenBuildSets(ctx)
	if err != nil {
		return nil, err
	}
	sets := make([]*domain.BuildConfigSetRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := st.BuildSet(ctx, id)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rec)
	}
	return sets, nil
}

// DependencyReport lists the dependency relations of one configuration.
type DependencyReport struct {
	Configuration domain.BuildConfiguration
	Direct        []domain.ConfigurationID
	Indirect      []domain.ConfigurationID
	All           []domain.ConfigurationID
	Dependents    []domain.ConfigurationID
}

// Dependencies reports the dependencies and dependents of a configuration of the catalog.
func (a *App) Dependencies(cwd string, id domain.ConfigurationID) (*DependencyReport, error) {
	catalog, err := a.loadCatalog(cwd, Overrides{})
	if err != nil {
		return nil, err
	}
	graph := domain.NewDependencyGraph()
	if err := graph.Replace(catalog.Configurations); err != nil {
		return nil, err
	}

	cfg, ok := graph.Configuration(id)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigurationNotFound, "dependency query failed"), "configuration", id.String())
	}
	return &DependencyReport{
		Configuration: cfg,
		Direct:        graph.DirectDependencies(id),
		Indirect:      graph.IndirectDependencies(id),
		All:           graph.AllDependencies(id),
		Dependents:    graph.Dependents(id),
	}, nil
}
