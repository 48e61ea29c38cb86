// Package graphbuilder turns trigger requests into validated build task graphs.
package graphbuilder

import (
	"context"
	"slices"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// InFlightIndex reports unfinished tasks by revision.
type InFlightIndex interface {
	InFlight(rev domain.RevisionID) (domain.TaskID, domain.BuildStatus, bool)
}

// Request describes what to build.
type Request struct {
	// Configurations are the requested targets. Ignored when Group is set.
	Configurations []domain.ConfigurationID
	// Group names a configuration set whose members are the targets.
	Group string
	// Mode overrides the builder's default rebuild mode when non-empty.
	Mode domain.RebuildMode
}

// Result is the outcome of a successful build.
type Result struct {
	Graph *domain.TaskGraph
	// Group is the resolved group name, empty for configuration requests.
	Group string
	Mode  domain.RebuildMode
}

// Builder resolves revisions, applies the rebuild policy and links new tasks.
type Builder struct {
	source      ports.ConfigurationSource
	revisions   ports.RevisionStore
	records     ports.BuildRecordStore
	fingerprint ports.Fingerprinter
	ids         ports.IDGenerator
	inFlight    InFlightIndex
	tracer      ports.Tracer
	metrics     ports.Metrics
	mode        domain.RebuildMode
	now         func() time.Time

	revisionGroup singleflight.Group
}

// New creates a builder. The default mode is IMPLICIT_DEPENDENCY_CHECK.
func New(
	source ports.ConfigurationSource,
	revisions ports.RevisionStore,
	records ports.BuildRecordStore,
	fingerprint ports.Fingerprinter,
	ids ports.IDGenerator,
	inFlight InFlightIndex,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Builder {
	return &Builder{
		source:      source,
		revisions:   revisions,
		records:     records,
		fingerprint: fingerprint,
		ids:         ids,
		inFlight:    inFlight,
		tracer:      tracer,
		metrics:     metrics,
		mode:        domain.RebuildImplicit,
		now:         time.Now,
	}
}

// WithMode sets the rebuild mode used when a request does not name one.
func (b *Builder) WithMode(mode domain.RebuildMode) *Builder {
	if mode != "" {
		b.mode = mode
	}
	return b
}

// WithClock replaces the time source used for submit times.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build produces the task graph of req. It only creates revision snapshots; no task is
// registered anywhere.
func (b *Builder) Build(ctx context.Context, req Request) (res *Result, err error) {
	mode := req.Mode
	if mode == "" {
		mode = b.mode
	}

	ctx, span := b.tracer.Start(ctx, "graph.build",
		ports.WithAttribute("mode", string(mode)),
		ports.WithAttribute("group", req.Group),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	targets, err := b.targets(req)
	if err != nil {
		return nil, err
	}
	span.SetAttribute("targets", idStrings(targets))

	p := &pass{
		builder:  b,
		policy:   domain.NewRebuildPolicy(mode),
		graph:    domain.NewTaskGraph(targets),
		closure:  b.closure(targets),
		targets:  make(map[domain.ConfigurationID]bool, len(targets)),
		produced: make(map[domain.ConfigurationID]domain.TaskID),
		latest:   make(map[domain.ConfigurationID]*domain.BuildRecord),
		decided:  make(map[domain.ConfigurationID]bool),
		now:      b.now(),
	}

	for _, id := range targets {
		p.targets[id] = true
	}

	graph := b.source.Graph()
	for _, id := range graph.Order(p.closure) {
		if err := p.visit(ctx, id); err != nil {
			return nil, err
		}
	}

	if err := p.graph.Validate(); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrGraphStructure, "task graph rejected"), "cause", err.Error())
	}

	var created, inFlight, reused int
	var plan []string
	for node := range p.graph.Nodes() {
		switch node.Kind {
		case domain.NodeBuild:
			created++
			plan = append(plan, node.Revision.ID().String())
		case domain.NodeInFlight:
			inFlight++
		case domain.NodeReused:
			reused++
		}
	}
	b.tracer.EmitPlan(ctx, plan)
	b.metrics.GraphBuilt(ctx, created, inFlight, reused)
	span.SetAttribute("tasks", created)

	return &Result{Graph: p.graph, Group: req.Group, Mode: mode}, nil
}

// targets returns the requested configurations, verified to exist.
func (b *Builder) targets(req Request) ([]domain.ConfigurationID, error) {
	var targets []domain.ConfigurationID
	if req.Group != "" {
		set, err := b.source.Group(req.Group)
		if err != nil {
			return nil, err
		}
		targets = set.Members
	} else {
		targets = req.Configurations
	}
	if len(targets) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	graph := b.source.Graph()
	out := slices.Clone(targets)
	slices.Sort(out)
	out = slices.Compact(out)
	for _, id := range out {
		if !graph.Has(id) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigurationNotFound, "trigger rejected"), "configuration", id.String())
		}
	}
	return out, nil
}

// closure returns the targets and all their transitive dependencies.
func (b *Builder) closure(targets []domain.ConfigurationID) []domain.ConfigurationID {
	graph := b.source.Graph()
	seen := make(map[domain.ConfigurationID]bool)
	var out []domain.ConfigurationID
	add := func(id domain.ConfigurationID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, t := range targets {
		add(t)
		for _, dep := range graph.AllDependencies(t) {
			add(dep)
		}
	}
	slices.Sort(out)
	return out
}

// resolveRevision returns the current revision of cfg, snapshotting a new one when the
// live configuration diverged from the latest stored revision. Concurrent requests for the
// same configuration share one resolution.
func (b *Builder) resolveRevision(ctx context.Context, cfg domain.BuildConfiguration) (domain.BuildConfigurationRevision, error) {
	fingerprint := b.fingerprint.Fingerprint(&cfg)
	key := cfg.ID.String() + "\x00" + fingerprint

	v, err, _ := b.revisionGroup.Do(key, func() (any, error) {
		latest, err := b.revisions.LatestRevision(ctx, cfg.ID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.Fingerprint == fingerprint {
			return latest, nil
		}
		return b.revisions.CreateRevision(ctx, &cfg, fingerprint)
	})
	if err != nil {
		return domain.BuildConfigurationRevision{}, zerr.With(err, "configuration", cfg.ID.String())
	}
	rev, ok := v.(*domain.BuildConfigurationRevision)
	if !ok || rev == nil {
		return domain.BuildConfigurationRevision{}, zerr.With(
			zerr.Wrap(domain.ErrGraphStructure, "revision did not resolve"), "configuration", cfg.ID.String())
	}
	return *rev, nil
}

func idStrings(ids []domain.ConfigurationID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
