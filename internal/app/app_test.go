package app_test

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/config"
	"go.trai.ch/forge/internal/adapters/fingerprint"
	"go.trai.ch/forge/internal/adapters/idgen"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/notify"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const catalog = `
configurations:
  lib:
    script: make lib
  api:
    script: make api
    dependsOn: [lib]
  app:
    script: make app
    dependsOn: [api]
  docs:
    script: make docs
groups:
  release: [api, app]
service:
  aggregationInterval: 1h
  parallelism: 2
`

// buildLog records the configurations executed by the mock executor.
type buildLog struct {
	mu    sync.Mutex
	built []domain.ConfigurationID
}

func (b *buildLog) add(id domain.ConfigurationID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.built = append(b.built, id)
}

func (b *buildLog) list() []domain.ConfigurationID {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := slices.Clone(b.built)
	slices.Sort(out)
	return out
}

type fixture struct {
	app       *app.App
	root      string
	overrides app.Overrides
	executor  *mocks.MockExecutor
	watcher   *mocks.MockWatcher
	builds    *buildLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	root := t.TempDir()
	writeCatalog(t, root, catalog)

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()

	f := &fixture{
		root: root,
		overrides: app.Overrides{
			StoreDriver: "sqlite",
			StoreDSN:    filepath.Join(root, "forge.db"),
			MetricsAddr: "127.0.0.1:0",
		},
		executor: mocks.NewMockExecutor(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
		builds:   &buildLog{},
	}
	f.app = app.New(
		config.NewLoader(mockLogger),
		mockLogger,
		telemetry.NewNoOpTracer(),
		f.executor,
		fingerprint.NewHasher(),
		idgen.NewSequence(""),
		f.watcher,
		notify.NewDispatcher(),
	)
	return f
}

func writeCatalog(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.ForgeFileName), []byte(content), domain.FilePerm))
}

// succeed makes every build succeed with one artifact named after the configuration.
func (f *fixture) succeed() {
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, task *domain.BuildTask) ([]domain.Artifact, error) {
			f.builds.add(task.ConfigurationID())
			return []domain.Artifact{{Identifier: task.ConfigurationID().String() + ".tar"}}, nil
		}).AnyTimes()
}

func (f *fixture) trigger(t *testing.T, opts app.TriggerOptions) (*app.SetReport, error) {
	t.Helper()
	opts.Overrides = f.overrides
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return f.app.Trigger(ctx, f.root, opts)
}

func TestApp_Trigger_Group(t *testing.T) {
	f := newFixture(t)
	f.succeed()

	report, err := f.trigger(t, app.TriggerOptions{Group: "release"})
	require.NoError(t, err)

	rec := report.Set
	assert.Equal(t, domain.StatusSuccess, rec.Status)
	assert.Equal(t, "release", rec.GroupName)
	assert.Equal(t, []domain.ConfigurationID{"api", "app"}, rec.Members)
	assert.Len(t, rec.Tasks, 2)
	assert.False(t, rec.EndTime.IsZero())
	assert.Equal(t, []domain.ConfigurationID{"api", "app", "lib"}, f.builds.list())
	for _, m := range report.Members {
		assert.Equal(t, domain.StatusSuccess, m.Status, m.ConfigurationID)
		assert.Equal(t, rec.Tasks[m.ConfigurationID], m.TaskID)
	}
}

func TestApp_Trigger_ReusesUpToDateBuilds(t *testing.T) {
	f := newFixture(t)
	f.succeed()

	_, err := f.trigger(t, app.TriggerOptions{Group: "release"})
	require.NoError(t, err)

	report, err := f.trigger(t, app.TriggerOptions{Group: "release"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoRebuildRequired, report.Set.Status)
	assert.Empty(t, report.Set.Tasks)
	assert.Equal(t, map[domain.ConfigurationID]domain.BuildStatus{
		"api": domain.StatusNoRebuildRequired,
		"app": domain.StatusNoRebuildRequired,
	}, report.Set.Reused)
	assert.Len(t, f.builds.list(), 3)

	report, err = f.trigger(t, app.TriggerOptions{Group: "release", Mode: domain.RebuildForce})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, report.Set.Status)
	assert.Len(t, f.builds.list(), 6)
}

func TestApp_Trigger_ChangedDependencyRebuildsDependents(t *testing.T) {
	f := newFixture(t)
	f.succeed()

	_, err := f.trigger(t, app.TriggerOptions{Configurations: []domain.ConfigurationID{"app"}})
	require.NoError(t, err)

	writeCatalog(t, f.root, `
configurations:
  lib:
    script: make lib VERBOSE=1
  api:
    script: make api
    dependsOn: [lib]
  app:
    script: make app
    dependsOn: [api]
service:
  aggregationInterval: 1h
`)

	report, err := f.trigger(t, app.TriggerOptions{Configurations: []domain.ConfigurationID{"app"}})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, report.Set.Status)
	assert.Empty(t, report.Set.GroupName)
	assert.Equal(t, []domain.ConfigurationID{"api", "api", "app", "app", "lib", "lib"}, f.builds.list())
}

func TestApp_Trigger_Failure(t *testing.T) {
	f := newFixture(t)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, task *domain.BuildTask) ([]domain.Artifact, error) {
			f.builds.add(task.ConfigurationID())
			return nil, zerr.Wrap(domain.ErrBuildScriptFailed, "exit status 2")
		}).Times(1)

	report, err := f.trigger(t, app.TriggerOptions{Group: "release"})
	require.ErrorIs(t, err, domain.ErrBuildSetFailed)
	require.NotNil(t, report)
	assert.Equal(t, domain.StatusFailed, report.Set.Status)
	assert.Equal(t, []domain.ConfigurationID{"lib"}, f.builds.list())

	stored, err := f.app.Status(context.Background(), f.root, f.overrides, report.Set.ID)
	require.NoError(t, err)
	for _, m := range stored.Members {
		assert.Equal(t, domain.StatusRejectedFailedDependencies, m.Status, m.ConfigurationID)
	}
}

func TestApp_Trigger_CancelledContextCancelsSet(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.BuildTask) ([]domain.Artifact, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	opts := app.TriggerOptions{Configurations: []domain.ConfigurationID{"docs"}, Overrides: f.overrides}
	report, err := f.app.Trigger(ctx, f.root, opts)
	require.ErrorIs(t, err, domain.ErrBuildSetFailed)
	require.NotNil(t, report)
	assert.Equal(t, domain.StatusCancelled, report.Set.Status)
	assert.Equal(t, domain.StatusCancelled, report.Members[0].Status)
}

func TestApp_Trigger_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.trigger(t, app.TriggerOptions{Group: "nightly"})
	require.ErrorIs(t, err, domain.ErrGroupNotFound)

	_, err = f.trigger(t, app.TriggerOptions{})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)

	_, err = f.trigger(t, app.TriggerOptions{Configurations: []domain.ConfigurationID{"ghost"}})
	require.ErrorIs(t, err, domain.ErrConfigurationNotFound)

	_, err = f.app.Trigger(context.Background(), t.TempDir(), app.TriggerOptions{})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_StatusAndOpenBuildSets(t *testing.T) {
	f := newFixture(t)
	f.succeed()

	triggered, err := f.trigger(t, app.TriggerOptions{Group: "release"})
	require.NoError(t, err)
	rec := triggered.Set

	report, err := f.app.Status(context.Background(), f.root, f.overrides, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, report.Set.ID)
	require.Len(t, report.Members, 2)
	assert.Equal(t, domain.ConfigurationID("api"), report.Members[0].ConfigurationID)
	assert.Equal(t, rec.Tasks["api"], report.Members[0].TaskID)
	assert.Equal(t, domain.StatusSuccess, report.Members[0].Status)

	open, err := f.app.OpenBuildSets(context.Background(), f.root, f.overrides)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = f.app.Status(context.Background(), f.root, f.overrides, "ghost")
	require.ErrorIs(t, err, domain.ErrBuildSetNotFound)
}

func TestApp_Dependencies(t *testing.T) {
	f := newFixture(t)

	report, err := f.app.Dependencies(f.root, "app")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConfigurationID{"api"}, report.Direct)
	assert.Equal(t, []domain.ConfigurationID{"lib"}, report.Indirect)
	assert.Equal(t, []domain.ConfigurationID{"api", "lib"}, report.All)
	assert.Empty(t, report.Dependents)

	report, err = f.app.Dependencies(f.root, "lib")
	require.NoError(t, err)
	assert.Equal(t, []domain.ConfigurationID{"api"}, report.Dependents)

	_, err = f.app.Dependencies(f.root, "ghost")
	require.ErrorIs(t, err, domain.ErrConfigurationNotFound)
}

func TestApp_Serve_RebuildsOnCatalogChange(t *testing.T) {
	f := newFixture(t)
	f.succeed()

	changes := make(chan ports.WatchEvent)
	f.watcher.EXPECT().Start(gomock.Any(), filepath.Join(f.root, domain.ForgeFileName)).Return(nil)
	f.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
		for ev := range changes {
			if !yield(ev) {
				return
			}
		}
	}))
	f.watcher.EXPECT().Stop().Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.app.Serve(ctx, f.root, app.ServeOptions{
			Overrides:      f.overrides,
			Configurations: []domain.ConfigurationID{"docs"},
		})
	}()

	require.Eventually(t, func() bool {
		return len(f.builds.list()) == 1
	}, 10*time.Second, 10*time.Millisecond)

	writeCatalog(t, f.root, `
configurations:
  docs:
    script: make docs SITE=1
service:
  aggregationInterval: 1h
`)
	changes <- ports.WatchEvent{Path: filepath.Join(f.root, domain.ForgeFileName), Operation: ports.OpWrite}

	require.Eventually(t, func() bool {
		return len(f.builds.list()) == 2
	}, 10*time.Second, 10*time.Millisecond)

	close(changes)
	cancel()
	require.NoError(t, <-done)
}
