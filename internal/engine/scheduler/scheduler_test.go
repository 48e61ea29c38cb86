package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/config"
	"go.trai.ch/forge/internal/adapters/fingerprint"
	"go.trai.ch/forge/internal/adapters/idgen"
	"go.trai.ch/forge/internal/adapters/store"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/graphbuilder"
	"go.trai.ch/forge/internal/engine/notify"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func rev(cfg string, n int) domain.BuildConfigurationRevision {
	return domain.BuildConfigurationRevision{ConfigurationID: domain.ConfigurationID(cfg), Revision: n}
}

// chain builds a graph where every configuration depends on the previous one. The last
// configuration is the target.
func chain(t *testing.T, prefix string, cfgs ...string) *domain.TaskGraph {
	t.Helper()
	g := domain.NewTaskGraph([]domain.ConfigurationID{domain.ConfigurationID(cfgs[len(cfgs)-1])})
	var prev domain.TaskID
	for _, cfg := range cfgs {
		id := domain.TaskID(prefix + cfg)
		var deps []domain.TaskID
		if prev != "" {
			deps = []domain.TaskID{prev}
		}
		require.NoError(t, g.AddTask(domain.NewBuildTask(id, rev(cfg, 1), deps, epoch)))
		prev = id
	}
	require.NoError(t, g.Validate())
	return g
}

type fixture struct {
	sched     *scheduler.Scheduler
	remote    *mocks.MockRemoteScheduler
	store     *store.Memory
	events    *notify.Dispatcher
	mu        sync.Mutex
	submitted []domain.TaskID
	published []domain.StatusChangedEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		remote: mocks.NewMockRemoteScheduler(ctrl),
		store:  store.NewMemory(),
		events: notify.NewDispatcher(),
	}

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()

	f.remote.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, task *domain.BuildTask) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.submitted = append(f.submitted, task.ID)
			return nil
		}).AnyTimes()

	f.events.Subscribe(func(ev domain.Event) {
		if e, ok := ev.(domain.StatusChangedEvent); ok {
			f.published = append(f.published, e)
		}
	})

	f.sched = scheduler.NewScheduler(
		f.remote,
		f.store,
		idgen.NewSequence(""),
		f.events,
		mockLogger,
		telemetry.NewNoOpTracer(),
		telemetry.NoOpMetrics{},
	).WithClock(func() time.Time { return epoch })
	return f
}

func (f *fixture) status(t *testing.T, id domain.TaskID) domain.BuildStatus {
	t.Helper()
	task, ok := f.sched.Task(id)
	require.True(t, ok, "task %s unknown", id)
	return task.Status
}

func (f *fixture) submissions() []domain.TaskID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TaskID(nil), f.submitted...)
}

func TestScheduler_ReleasesDependentsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Register(ctx, chain(t, "t-", "lib", "app"), "set-1"))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "t-lib"))
	assert.Equal(t, domain.StatusWaitingForDependencies, f.status(t, "t-app"))
	assert.Equal(t, []domain.TaskID{"t-lib"}, f.submissions())

	artifacts := []domain.Artifact{{Identifier: "lib.a"}}
	require.NoError(t, f.sched.Complete(ctx, "t-lib", domain.StatusSuccess, artifacts))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "t-app"))
	assert.Equal(t, []domain.TaskID{"t-lib", "t-app"}, f.submissions())

	require.NoError(t, f.sched.Complete(ctx, "t-app", domain.StatusSuccess, nil))

	rec, err := f.store.BuildRecordForTask(ctx, "t-lib")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.StatusSuccess, rec.Status)
	assert.Equal(t, artifacts, rec.Artifacts)
	assert.Equal(t, domain.RevisionID{ConfigurationID: "lib", Revision: 1}, rec.Revision)

	task, _ := f.sched.Task("t-lib")
	require.NotNil(t, task.Record())
	assert.Equal(t, rec.ID, task.Record().ID)
	assert.Equal(t, domain.BuildSetID("set-1"), task.BuildSetID)

	f.events.Drain()
	var transitions []string
	for _, ev := range f.published {
		transitions = append(transitions, ev.TaskID.String()+":"+string(ev.NewStatus))
	}
	assert.Equal(t, []string{
		"t-lib:BUILDING",
		"t-app:WAITING_FOR_DEPENDENCIES",
		"t-lib:SUCCESS",
		"t-app:BUILDING",
		"t-app:SUCCESS",
	}, transitions)

	unfinished, err := f.sched.UnfinishedTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, unfinished)
}

func TestScheduler_FailureRejectsDependentsTransitively(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Register(ctx, chain(t, "t-", "lib", "api", "app"), "set-1"))
	require.NoError(t, f.sched.Complete(ctx, "t-lib", domain.StatusFailed, nil))

	assert.Equal(t, domain.StatusFailed, f.status(t, "t-lib"))
	assert.Equal(t, domain.StatusRejectedFailedDependencies, f.status(t, "t-api"))
	assert.Equal(t, domain.StatusRejectedFailedDependencies, f.status(t, "t-app"))
	assert.Equal(t, []domain.TaskID{"t-lib"}, f.submissions())

	rec, err := f.store.BuildRecordForTask(ctx, "t-app")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.StatusRejectedFailedDependencies, rec.Status)
}

func TestScheduler_ConflictIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Register(ctx, chain(t, "first-", "lib"), "set-1"))

	second := domain.NewTaskGraph([]domain.ConfigurationID{"util", "lib"})
	require.NoError(t, second.AddTask(domain.NewBuildTask("second-util", rev("util", 1), nil, epoch)))
	require.NoError(t, second.AddTask(domain.NewBuildTask("second-lib", rev("lib", 1), nil, epoch)))
	require.NoError(t, second.Validate())

	err := f.sched.Register(ctx, second, "set-2")
	require.ErrorIs(t, err, domain.ErrBuildConflict)
	id, ok := domain.ConflictingTaskID(err)
	require.True(t, ok)
	assert.Equal(t, domain.TaskID("first-lib"), id)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "lib@1", zErr.Metadata()["revision"])

	_, ok = f.sched.Task("second-util")
	assert.False(t, ok)

	// Once the first task completes, the revision can be built again.
	require.NoError(t, f.sched.Complete(ctx, "first-lib", domain.StatusSuccess, nil))
	require.NoError(t, f.sched.Register(ctx, chain(t, "third-", "lib"), "set-3"))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "third-lib"))
}

func TestScheduler_Cancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Register(ctx, chain(t, "t-", "lib", "app"), "set-1"))
	f.remote.EXPECT().Cancel(gomock.Any(), domain.TaskID("t-lib")).Return(nil)

	require.NoError(t, f.sched.Cancel(ctx, "t-lib"))
	assert.Equal(t, domain.StatusCancelled, f.status(t, "t-lib"))
	assert.Equal(t, domain.StatusRejectedFailedDependencies, f.status(t, "t-app"))

	// The runner's late report and repeated cancels are ignored.
	require.NoError(t, f.sched.Complete(ctx, "t-lib", domain.StatusCancelled, nil))
	require.NoError(t, f.sched.Cancel(ctx, "t-lib"))

	err := f.sched.Cancel(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestScheduler_CancelWaitingTaskDoesNotCallRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Register(ctx, chain(t, "t-", "lib", "app"), "set-1"))
	require.NoError(t, f.sched.Cancel(ctx, "t-app"))

	assert.Equal(t, domain.StatusCancelled, f.status(t, "t-app"))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "t-lib"))
}

func TestScheduler_CompleteErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sched.Register(ctx, chain(t, "t-", "lib", "app"), "set-1"))

	err := f.sched.Complete(ctx, "t-lib", domain.StatusBuilding, nil)
	require.ErrorIs(t, err, domain.ErrNotTerminalStatus)

	err = f.sched.Complete(ctx, "ghost", domain.StatusSuccess, nil)
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = f.sched.Complete(ctx, "t-app", domain.StatusSuccess, nil)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusWaitingForDependencies, f.status(t, "t-app"))
}

func TestScheduler_SubmitFailureIsSystemError(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockRemoteScheduler(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).MinTimes(1)

	remote.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(errors.New("queue full"))

	mem := store.NewMemory()
	sched := scheduler.NewScheduler(remote, mem, idgen.NewSequence(""), notify.NewDispatcher(),
		mockLogger, telemetry.NewNoOpTracer(), telemetry.NoOpMetrics{})

	ctx := context.Background()
	require.NoError(t, sched.Register(ctx, chain(t, "t-", "lib", "app"), "set-1"))

	lib, _ := sched.Task("t-lib")
	assert.Equal(t, domain.StatusSystemError, lib.Status)
	app, _ := sched.Task("t-app")
	assert.Equal(t, domain.StatusRejectedFailedDependencies, app.Status)
}

func TestScheduler_SyncAdoptsRemoteTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	libRev := domain.RevisionID{ConfigurationID: "lib", Revision: 3}
	f.remote.EXPECT().UnfinishedTasks(gomock.Any()).Return([]domain.RemoteTask{
		{Revision: libRev, TaskID: "remote-lib", Status: domain.StatusBuilding},
	}, nil).Times(2)

	require.NoError(t, f.sched.Sync(ctx))
	require.NoError(t, f.sched.Sync(ctx))

	id, status, ok := f.sched.InFlight(libRev)
	require.True(t, ok)
	assert.Equal(t, domain.TaskID("remote-lib"), id)
	assert.Equal(t, domain.StatusBuilding, status)

	// A dependent registered against the adopted task waits for it.
	g := domain.NewTaskGraph(nil)
	require.NoError(t, g.AddNode(domain.GraphNode{
		Revision: domain.BuildConfigurationRevision{ConfigurationID: "lib", Revision: 3},
		Kind:     domain.NodeInFlight,
		TaskID:   "remote-lib",
		Status:   domain.StatusBuilding,
	}))
	require.NoError(t, g.AddTask(domain.NewBuildTask("t-app", rev("app", 1), []domain.TaskID{"remote-lib"}, epoch)))
	require.NoError(t, g.Validate())

	require.NoError(t, f.sched.Register(ctx, g, "set-1"))
	assert.Equal(t, domain.StatusWaitingForDependencies, f.status(t, "t-app"))

	unfinished, err := f.sched.UnfinishedTasks(ctx)
	require.NoError(t, err)
	require.Len(t, unfinished, 2)
	assert.Equal(t, domain.TaskID("remote-lib"), unfinished[0].TaskID)

	require.NoError(t, f.sched.Complete(ctx, "remote-lib", domain.StatusSuccess, nil))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "t-app"))
	_, _, ok = f.sched.InFlight(libRev)
	assert.False(t, ok)
}

func TestScheduler_SyncFailure(t *testing.T) {
	f := newFixture(t)
	f.remote.EXPECT().UnfinishedTasks(gomock.Any()).Return(nil, errors.New("unreachable"))

	err := f.sched.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrRemoteQueryFailed.Error())
}

func TestScheduler_ConcurrentRegistrationsAdmitOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := domain.NewTaskGraph([]domain.ConfigurationID{"lib"})
			id := domain.TaskID("t-" + string(rune('a'+i)))
			if err := g.AddTask(domain.NewBuildTask(id, rev("lib", 1), nil, epoch)); err != nil {
				errs[i] = err
				return
			}
			if err := g.Validate(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = f.sched.Register(ctx, g, "set")
		}()
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		require.ErrorIs(t, err, domain.ErrBuildConflict)
	}
	assert.Equal(t, 1, admitted)
	assert.Len(t, f.submissions(), 1)
}

func TestScheduler_InFlightDependencyIsReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sched.Register(ctx, chain(t, "a-", "lib", "app"), "set-1"))

	// Built before set-1 was registered, so it carries its own lib task.
	tool := domain.NewTaskGraph([]domain.ConfigurationID{"tool"})
	require.NoError(t, tool.AddTask(domain.NewBuildTask("t-lib", rev("lib", 1), nil, epoch)))
	require.NoError(t, tool.AddTask(domain.NewBuildTask("t-tool", rev("tool", 1), []domain.TaskID{"t-lib"}, epoch)))
	require.NoError(t, tool.Validate())

	require.NoError(t, f.sched.Register(ctx, tool, "set-2"))

	_, ok := f.sched.Task("t-lib")
	assert.False(t, ok)
	task, ok := f.sched.Task("t-tool")
	require.True(t, ok)
	assert.Equal(t, []domain.TaskID{"a-lib"}, task.Dependencies)
	assert.Equal(t, domain.StatusWaitingForDependencies, task.Status)
	assert.Equal(t, []domain.TaskID{"a-lib"}, f.submissions())

	require.NoError(t, f.sched.Complete(ctx, "a-lib", domain.StatusSuccess, nil))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "a-app"))
	assert.Equal(t, domain.StatusBuilding, f.status(t, "t-tool"))
}

func TestScheduler_OverlappingTriggersShareDependency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	source, err := config.NewSource(&domain.Catalog{Configurations: []domain.BuildConfiguration{
		configuration("lib"),
		configuration("app", "lib"),
		configuration("tool", "lib"),
	}})
	require.NoError(t, err)
	revisions := store.NewMemory()
	builder := graphbuilder.New(
		source,
		revisions,
		revisions,
		fingerprint.NewHasher(),
		idgen.NewSequence("b"),
		f.sched,
		telemetry.NewNoOpTracer(),
		telemetry.NoOpMetrics{},
	)

	// Both passes run before either registers, so each creates a lib task.
	var results []*graphbuilder.Result
	for _, target := range []domain.ConfigurationID{"app", "tool"} {
		res, err := builder.Build(ctx, graphbuilder.Request{Configurations: []domain.ConfigurationID{target}})
		require.NoError(t, err)
		require.Equal(t, 2, res.Graph.Len())
		results = append(results, res)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(results))
	for i, res := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.sched.Register(ctx, res.Graph, domain.BuildSetID(fmt.Sprintf("set-%d", i)))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	unfinished, err := f.sched.UnfinishedTasks(ctx)
	require.NoError(t, err)
	var libTasks []domain.TaskID
	for _, rt := range unfinished {
		if rt.Revision.ConfigurationID == "lib" {
			libTasks = append(libTasks, rt.TaskID)
		}
	}
	require.Len(t, libTasks, 1)
	lib := libTasks[0]
	assert.Equal(t, []domain.TaskID{lib}, f.submissions())

	for i, target := range []domain.ConfigurationID{"app", "tool"} {
		node, ok := results[i].Graph.Node(target)
		require.True(t, ok)
		task, ok := f.sched.Task(node.TaskID)
		require.True(t, ok)
		assert.Equal(t, []domain.TaskID{lib}, task.Dependencies)
		assert.Equal(t, domain.StatusWaitingForDependencies, task.Status)
	}

	require.NoError(t, f.sched.Complete(ctx, lib, domain.StatusSuccess, nil))
	for i, target := range []domain.ConfigurationID{"app", "tool"} {
		node, _ := results[i].Graph.Node(target)
		assert.Equal(t, domain.StatusBuilding, f.status(t, node.TaskID))
	}
}

func configuration(id string, deps ...string) domain.BuildConfiguration {
	c := domain.BuildConfiguration{
		ID:          domain.ConfigurationID(id),
		Name:        domain.NewInternedString(id),
		BuildScript: domain.NewInternedString("make " + id),
	}
	for _, d := range deps {
		c.Dependencies = append(c.Dependencies, domain.ConfigurationID(d))
	}
	return c
}
