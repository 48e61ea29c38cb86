package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.trai.ch/forge/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/store"     //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/aggregator"
	"go.trai.ch/forge/internal/engine/graphbuilder"
	"go.trai.ch/forge/internal/engine/notify"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// session holds the runtime components built from one loaded catalog.
type session struct {
	cwd        string
	catalog    *domain.Catalog
	settings   domain.ServiceSettings
	source     *config.Source
	store      ports.Store
	runner     *shell.Runner
	scheduler  *scheduler.Scheduler
	builder    *graphbuilder.Builder
	aggregator *aggregator.Aggregator
	events     *notify.Dispatcher
	ids        ports.IDGenerator
	now        func() time.Time

	unsubscribe func()
}

// loadCatalog loads the catalog found from cwd and applies the overrides to its settings.
func (a *App) loadCatalog(cwd string, overrides Overrides) (*domain.Catalog, error) {
	catalog, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	overrides.apply(&catalog.Service)

	if jl, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		jl.SetJSON(catalog.Service.LogFormat == "json")
	}
	return catalog, nil
}

// openStore opens the store selected by the catalog settings.
func (a *App) openStore(ctx context.Context, settings domain.ServiceSettings) (ports.Store, error) {
	st, err := store.Open(ctx, settings.StoreDriver, settings.StoreDSN)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open store")
	}
	return st, nil
}

// openSession wires the orchestration components for the catalog found from cwd.
// A nil metrics records nothing.
func (a *App) openSession(ctx context.Context, cwd string, overrides Overrides, metrics ports.Metrics) (*session, error) {
	catalog, err := a.loadCatalog(cwd, overrides)
	if err != nil {
		return nil, err
	}
	source, err := config.NewSource(catalog)
	if err != nil {
		return nil, err
	}
	st, err := a.openStore(ctx, catalog.Service)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = telemetry.NoOpMetrics{}
	}

	settings := catalog.Service
	runner := shell.NewRunner(a.executor, a.logger, settings.Parallelism).WithTimeout(overrides.BuildTimeout)
	sched := scheduler.NewScheduler(runner, st, a.ids, a.events, a.logger, a.tracer, metrics)
	runner.OnComplete(sched.Complete)

	builder := graphbuilder.New(source, st, st, a.fingerprint, a.ids, sched, a.tracer, metrics).
		WithMode(settings.RebuildMode)
	agg := aggregator.New(st, st, runner, a.events, metrics, a.logger)

	return &session{
		cwd:         cwd,
		catalog:     catalog,
		settings:    settings,
		source:      source,
		store:       st,
		runner:      runner,
		scheduler:   sched,
		builder:     builder,
		aggregator:  agg,
		events:      a.events,
		ids:         a.ids,
		now:         a.now,
		unsubscribe: a.events.Subscribe(agg.Notify),
	}, nil
}

func (a *App) closeSession(s *session) {
	s.unsubscribe()
	if err := s.store.Close(); err != nil {
		a.logger.Error(zerr.Wrap(err, "failed to close store"))
	}
}

// start runs the build runner, event delivery and the aggregation loop until ctx ends.
func (s *session) start(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error { return s.runner.Run(ctx) })
	g.Go(func() error { return s.events.Run(ctx) })
	g.Go(func() error { return s.aggregator.Run(ctx, s.settings.AggregationInterval) })
}

// trigger builds the task graph of req, registers its tasks and records the build set.
func (s *session) trigger(ctx context.Context, req graphbuilder.Request) (*domain.BuildConfigSetRecord, error) {
	if err := s.scheduler.Sync(ctx); err != nil {
		return nil, err
	}

	res, err := s.builder.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	setID := s.ids.NewBuildSetID()
	if err := s.scheduler.Register(ctx, res.Graph, setID); err != nil {
		return nil, err
	}

	rec := newSetRecord(setID, res, s.now())
	if err := s.store.SaveBuildSet(ctx, rec); err != nil {
		return nil, err
	}

	status, err := s.aggregator.Reconcile(ctx, setID)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	return rec, nil
}

// abort cancels every unfinished task of a build set and returns its resulting status.
func (s *session) abort(ctx context.Context, id domain.BuildSetID) (domain.BuildStatus, error) {
	unfinished, err := s.scheduler.UnfinishedTasks(ctx)
	if err != nil {
		return "", err
	}
	for _, rt := range unfinished {
		task, ok := s.scheduler.Task(rt.TaskID)
		if !ok || task.BuildSetID != id {
			continue
		}
		if err := s.scheduler.Cancel(ctx, rt.TaskID); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			return "", err
		}
	}
	return s.aggregator.Reconcile(ctx, id)
}

// newSetRecord creates the BUILDING record of a build set from its task graph.
func newSetRecord(id domain.BuildSetID, res *graphbuilder.Result, now time.Time) *domain.BuildConfigSetRecord {
	rec := &domain.BuildConfigSetRecord{
		ID:        id,
		GroupName: res.Group,
		Members:   res.Graph.Targets(),
		Tasks:     make(map[domain.ConfigurationID]domain.TaskID),
		Reused:    make(map[domain.ConfigurationID]domain.BuildStatus),
		Status:    domain.StatusBuilding,
		StartTime: now,
	}
	for _, member := range rec.Members {
		node, ok := res.Graph.Node(member)
		if !ok {
			continue
		}
		if node.Kind == domain.NodeReused {
			rec.Reused[member] = node.Status
			continue
		}
		rec.Tasks[member] = node.TaskID
	}
	return rec
}

// setWatch records terminal build set statuses announced by the aggregator.
type setWatch struct {
	mu       sync.Mutex
	finished map[domain.BuildSetID]domain.BuildStatus
	changed  chan struct{}
}

func newSetWatch() *setWatch {
	return &setWatch{
		finished: make(map[domain.BuildSetID]domain.BuildStatus),
		changed:  make(chan struct{}, 1),
	}
}

func (w *setWatch) listen(ev domain.Event) {
	e, ok := ev.(domain.GroupStatusChangedEvent)
	if !ok || !e.NewStatus.IsTerminal() {
		return
	}
	w.mu.Lock()
	w.finished[e.BuildSetID] = e.NewStatus
	w.mu.Unlock()

	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// wait blocks until id terminates or ctx ends.
func (w *setWatch) wait(ctx context.Context, id domain.BuildSetID) (domain.BuildStatus, error) {
	for {
		w.mu.Lock()
		status, ok := w.finished[id]
		w.mu.Unlock()
		if ok {
			return status, nil
		}

		select {
		case <-w.changed:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
