// Package app implements the application layer for forge.
package app

import (
	"context"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/graphbuilder"
	"go.trai.ch/forge/internal/engine/notify"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
	executor     ports.Executor
	fingerprint  ports.Fingerprinter
	ids          ports.IDGenerator
	watcher      ports.Watcher
	events       *notify.Dispatcher
	now          func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	tracer ports.Tracer,
	executor ports.Executor,
	fingerprint ports.Fingerprinter,
	ids ports.IDGenerator,
	watcher ports.Watcher,
	events *notify.Dispatcher,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
		executor:     executor,
		fingerprint:  fingerprint,
		ids:          ids,
		watcher:      watcher,
		events:       events,
		now:          time.Now,
	}
}

// WithClock replaces the time source used for build set records.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// Overrides replaces service settings read from the catalog. Zero values keep the
// catalog's value.
type Overrides struct {
	StoreDriver  string
	StoreDSN     string
	Parallelism  int
	RebuildMode  domain.RebuildMode
	LogFormat    string
	MetricsAddr  string
	BuildTimeout time.Duration
}

func (o Overrides) apply(s *domain.ServiceSettings) {
	if o.StoreDriver != "" {
		s.StoreDriver = o.StoreDriver
		s.StoreDSN = ""
	}
	if o.StoreDSN != "" {
		s.StoreDSN = o.StoreDSN
	}
	if o.Parallelism > 0 {
		s.Parallelism = o.Parallelism
	}
	if o.RebuildMode != "" {
		s.RebuildMode = o.RebuildMode
	}
	if o.LogFormat != "" {
		s.LogFormat = o.LogFormat
	}
	if o.MetricsAddr != "" {
		s.MetricsAddr = o.MetricsAddr
	}
}

// TriggerOptions configuration for the Trigger method.
type TriggerOptions struct {
	Overrides Overrides
	// Configurations are the requested targets. Ignored when Group is set.
	Configurations []domain.ConfigurationID
	// Group names the configuration set to build.
	Group string
	// Mode overrides the rebuild mode of this request.
	Mode domain.RebuildMode
}

func (o TriggerOptions) request() graphbuilder.Request {
	return graphbuilder.Request{
		Configurations: o.Configurations,
		Group:          o.Group,
		Mode:           o.Mode,
	}
}

// Trigger builds the requested configurations and waits until the resulting build set
// terminates. It returns the final report of the set; a set that did not succeed is
// reported together with domain.ErrBuildSetFailed. Cancelling ctx cancels the set's
// unfinished tasks.
func (a *App) Trigger(ctx context.Context, cwd string, opts TriggerOptions) (*SetReport, error) {
	s, err := a.openSession(ctx, cwd, opts.Overrides, nil)
	if err != nil {
		return nil, err
	}
	defer a.closeSession(s)

	watch := newSetWatch()
	unsubscribe := a.events.Subscribe(watch.listen)
	defer unsubscribe()

	runCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	g := &errgroup.Group{}
	s.start(runCtx, g)
	defer func() {
		stop()
		if err := g.Wait(); err != nil {
			a.logger.Error(err)
		}
	}()

	// Registration is not interrupted half way, so that a cancelled trigger always leaves
	// a build set that can be cancelled as a whole.
	rec, err := s.trigger(context.WithoutCancel(ctx), opts.request())
	if err != nil {
		return nil, err
	}

	status := rec.Status
	if !status.IsTerminal() {
		status, err = watch.wait(ctx, rec.ID)
		if err != nil {
			status, err = s.abort(context.WithoutCancel(ctx), rec.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	final, err := s.store.BuildSet(context.WithoutCancel(ctx), rec.ID)
	if err != nil {
		return nil, err
	}
	report, err := newSetReport(context.WithoutCancel(ctx), s.store, final)
	if err != nil {
		return nil, err
	}
	if !status.IsSuccessful() {
		err := zerr.With(zerr.Wrap(domain.ErrBuildSetFailed, "trigger finished"), "status", string(status))
		return report, zerr.With(err, "build_set_id", rec.ID.String())
	}
	return report, nil
}
