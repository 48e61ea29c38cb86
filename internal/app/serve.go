package app

import (
	"context"
	"errors"

	"go.trai.ch/forge/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/engine/graphbuilder"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configuration for the Serve method.
type ServeOptions struct {
	Overrides Overrides
	// Configurations and Group name the targets built at start and after every catalog
	// change. Nothing is triggered when both are empty.
	Configurations []domain.ConfigurationID
	Group          string
	Mode           domain.RebuildMode
	// Restart cancels the previous build set when a catalog change conflicts with it.
	Restart bool
}

func (o ServeOptions) hasTargets() bool {
	return len(o.Configurations) > 0 || o.Group != ""
}

func (o ServeOptions) request() graphbuilder.Request {
	return graphbuilder.Request{
		Configurations: o.Configurations,
		Group:          o.Group,
		Mode:           o.Mode,
	}
}

// Serve runs the orchestrator until ctx ends: the build runner, the aggregation loop, a
// metrics endpoint and a watcher that reloads the catalog when it changes.
func (a *App) Serve(ctx context.Context, cwd string, opts ServeOptions) error {
	metrics, err := telemetry.NewMetrics(ctx, "forge")
	if err != nil {
		return err
	}
	defer func() {
		if err := metrics.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error(err)
		}
	}()

	s, err := a.openSession(ctx, cwd, opts.Overrides, metrics)
	if err != nil {
		return err
	}
	defer a.closeSession(s)

	g, gctx := errgroup.WithContext(ctx)
	if err := a.watcher.Start(gctx, s.catalog.Path); err != nil {
		return err
	}
	defer func() {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Error(err)
		}
	}()

	server := telemetry.NewMetricsServer(s.settings.MetricsAddr, metrics.Handler(), a.logger)
	s.start(gctx, g)
	g.Go(func() error { return server.Serve(gctx) })
	g.Go(func() error { return a.watchCatalog(gctx, s, opts) })

	a.logger.Info("forge serving",
		"catalog", s.catalog.Path,
		"metrics", s.settings.MetricsAddr,
		"store", s.settings.StoreDriver,
	)
	return g.Wait()
}

// watchCatalog triggers the configured targets, then reloads the catalog and triggers
// again on every change until the watcher stops.
func (a *App) watchCatalog(ctx context.Context, s *session, opts ServeOptions) error {
	var last domain.BuildSetID
	if opts.hasTargets() {
		last = a.retrigger(ctx, s, opts, last)
	}

	for range a.watcher.Events() {
		catalog, err := a.loadCatalog(s.cwd, opts.Overrides)
		if err == nil {
			err = s.source.Reload(catalog)
		}
		if err != nil {
			a.logger.Error(zerr.Wrap(err, "catalog reload rejected, keeping previous configurations"))
			continue
		}
		a.logger.Info("catalog reloaded", "configurations", len(catalog.Configurations), "groups", len(catalog.Groups))

		if opts.hasTargets() {
			last = a.retrigger(ctx, s, opts, last)
		}
	}
	return nil
}

// retrigger starts a build set for the serve targets and returns its id. A conflict with
// the previous set is logged, or resolved by cancelling that set when opts.Restart is set.
func (a *App) retrigger(ctx context.Context, s *session, opts ServeOptions, last domain.BuildSetID) domain.BuildSetID {
	rec, err := s.trigger(ctx, opts.request())
	if errors.Is(err, domain.ErrBuildConflict) && opts.Restart && last != "" {
		a.logger.Warn("restarting build set", "build_set_id", last.String())
		if _, abortErr := s.abort(ctx, last); abortErr != nil {
			a.logger.Error(abortErr)
			return last
		}
		rec, err = s.trigger(ctx, opts.request())
	}
	if err != nil {
		if id, ok := domain.ConflictingTaskID(err); ok {
			a.logger.Warn("build already in progress", "task_id", id.String())
		} else {
			a.logger.Error(err)
		}
		return last
	}

	a.logger.Info("build set started",
		"build_set_id", rec.ID.String(),
		"group", rec.GroupName,
		"status", string(rec.Status),
	)
	return rec.ID
}
