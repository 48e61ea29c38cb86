package graphbuilder

import (
	"context"
	"slices"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// pass holds the state of one graph construction. Nodes are visited dependencies first.
// An unfinished task on a dependency is reused; one on a requested target is a conflict.
type pass struct {
	builder *Builder
	policy  domain.RebuildPolicy
	graph   *domain.TaskGraph
	closure []domain.ConfigurationID
	targets map[domain.ConfigurationID]bool
	now     time.Time

	// produced maps configurations to the new or in-flight task satisfying them.
	produced map[domain.ConfigurationID]domain.TaskID
	// latest caches the latest successful record per visited configuration.
	latest  map[domain.ConfigurationID]*domain.BuildRecord
	decided map[domain.ConfigurationID]bool
}

func (p *pass) visit(ctx context.Context, id domain.ConfigurationID) error {
	cfg, ok := p.builder.source.Graph().Configuration(id)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrGraphStructure, "closure node did not resolve"), "configuration", id.String())
	}

	rev, err := p.builder.resolveRevision(ctx, cfg)
	if err != nil {
		return err
	}
	for _, dep := range rev.Dependencies {
		if !p.decided[dep] {
			err := zerr.With(zerr.Wrap(domain.ErrGraphStructure, "revision dependency outside the closure"), "configuration", id.String())
			return zerr.With(err, "dependency", dep.String())
		}
	}

	latest, err := p.builder.records.LatestSuccessfulBuildRecord(ctx, id)
	if err != nil {
		return zerr.With(err, "configuration", id.String())
	}
	p.latest[id] = latest
	p.decided[id] = true

	if taskID, status, ok := p.builder.inFlight.InFlight(rev.ID()); ok {
		if p.targets[id] {
			err := zerr.With(zerr.Wrap(domain.ErrBuildConflict, "trigger rejected"), "task_id", taskID)
			return zerr.With(err, "revision", rev.ID().String())
		}
		p.produced[id] = taskID
		return p.graph.AddNode(domain.GraphNode{
			Revision: rev,
			Kind:     domain.NodeInFlight,
			Decision: domain.Decision{Action: domain.ActionBuild, Reason: domain.ReasonInFlight},
			TaskID:   taskID,
			Status:   status,
		})
	}

	decision := p.policy.Decide(domain.RebuildInput{
		Revision:      rev,
		LatestSuccess: latest,
		Dependencies:  p.outcomes(rev.Dependencies),
	})

	if decision.Action == domain.ActionReuse {
		return p.graph.AddNode(domain.GraphNode{
			Revision: rev,
			Kind:     domain.NodeReused,
			Decision: decision,
			Status:   domain.StatusNoRebuildRequired,
		})
	}

	var deps []domain.TaskID
	for _, dep := range rev.Dependencies {
		if taskID, ok := p.produced[dep]; ok {
			deps = append(deps, taskID)
		}
	}
	task := domain.NewBuildTask(p.builder.ids.NewTaskID(), rev, deps, p.now)
	if err := p.graph.AddTask(task); err != nil {
		return err
	}
	p.produced[id] = task.ID
	return p.graph.AddNode(domain.GraphNode{
		Revision: rev,
		Kind:     domain.NodeBuild,
		Decision: decision,
		TaskID:   task.ID,
		Status:   task.Status,
	})
}

// outcomes describes the already decided direct dependencies.
func (p *pass) outcomes(deps []domain.ConfigurationID) []domain.DependencyOutcome {
	out := make([]domain.DependencyOutcome, 0, len(deps))
	for _, dep := range slices.Sorted(slices.Values(deps)) {
		_, rebuilt := p.produced[dep]
		out = append(out, domain.DependencyOutcome{
			ConfigurationID: dep,
			Rebuilt:         rebuilt,
			LatestSuccess:   p.latest[dep],
		})
	}
	return out
}
