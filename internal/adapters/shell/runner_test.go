package shell_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/shell"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// completions collects the reports of a runner.
type completions struct {
	mu     sync.Mutex
	status map[domain.TaskID]domain.BuildStatus
	calls  int
}

func (c *completions) record(_ context.Context, id domain.TaskID, status domain.BuildStatus, _ []domain.Artifact) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == nil {
		c.status = make(map[domain.TaskID]domain.BuildStatus)
	}
	c.status[id] = status
	c.calls++
	return nil
}

func (c *completions) get(id domain.TaskID) domain.BuildStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[id]
}

func TestRunner_ReportsStatuses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)

		executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, task *domain.BuildTask) ([]domain.Artifact, error) {
				switch task.ID {
				case "ok":
					return []domain.Artifact{{Identifier: "lib.a"}}, nil
				case "fail":
					return nil, zerr.Wrap(domain.ErrBuildScriptFailed, "command failed")
				default:
					return nil, zerr.Wrap(context.DeadlineExceeded, "build interrupted")
				}
			}).Times(3)

		var got completions
		runner := shell.NewRunner(executor, quietLogger(t), 2)
		runner.OnComplete(got.record)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- runner.Run(ctx) }()

		for _, id := range []domain.TaskID{"ok", "fail", "timeout"} {
			require.NoError(t, runner.Submit(ctx, scriptTask(id, "make", "")))
		}
		synctest.Wait()

		assert.Equal(t, domain.StatusSuccess, got.get("ok"))
		assert.Equal(t, domain.StatusFailed, got.get("fail"))
		assert.Equal(t, domain.StatusSystemError, got.get("timeout"))

		unfinished, err := runner.UnfinishedTasks(ctx)
		require.NoError(t, err)
		assert.Empty(t, unfinished)

		cancel()
		require.NoError(t, <-done)
	})
}

func TestRunner_BoundsParallelism(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)

		var running, peak atomic.Int32
		executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, *domain.BuildTask) ([]domain.Artifact, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Second)
				running.Add(-1)
				return nil, nil
			}).Times(5)

		var got completions
		runner := shell.NewRunner(executor, quietLogger(t), 2)
		runner.OnComplete(got.record)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = runner.Run(ctx) }()

		for _, id := range []domain.TaskID{"a", "b", "c", "d", "e"} {
			require.NoError(t, runner.Submit(ctx, scriptTask(id, "make", "")))
		}
		synctest.Wait()

		unfinished, err := runner.UnfinishedTasks(ctx)
		require.NoError(t, err)
		assert.Len(t, unfinished, 5)
		assert.Equal(t, domain.TaskID("a"), unfinished[0].TaskID)
		assert.Equal(t, domain.StatusBuilding, unfinished[0].Status)

		time.Sleep(10 * time.Second)
		synctest.Wait()

		assert.Equal(t, int32(2), peak.Load())
		assert.Equal(t, 5, got.calls)
	})
}

func TestRunner_Cancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)

		executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ *domain.BuildTask) ([]domain.Artifact, error) {
				<-ctx.Done()
				return nil, zerr.Wrap(ctx.Err(), "build interrupted")
			})

		var got completions
		runner := shell.NewRunner(executor, quietLogger(t), 1)
		runner.OnComplete(got.record)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = runner.Run(ctx) }()

		require.NoError(t, runner.Submit(ctx, scriptTask("running", "make", "")))
		require.NoError(t, runner.Submit(ctx, scriptTask("queued", "make", "")))
		synctest.Wait()

		require.NoError(t, runner.Cancel(ctx, "queued"))
		require.NoError(t, runner.Cancel(ctx, "running"))
		require.NoError(t, runner.Cancel(ctx, "unknown"))
		synctest.Wait()

		assert.Equal(t, domain.StatusCancelled, got.get("running"))
		assert.Equal(t, domain.StatusCancelled, got.get("queued"))
		assert.Equal(t, 2, got.calls)
	})
}

func TestRunner_Timeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)

		executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ *domain.BuildTask) ([]domain.Artifact, error) {
				<-ctx.Done()
				return nil, zerr.Wrap(ctx.Err(), "build interrupted")
			})

		var got completions
		runner := shell.NewRunner(executor, quietLogger(t), 1).WithTimeout(time.Minute)
		runner.OnComplete(got.record)

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()
		go func() { _ = runner.Run(ctx) }()

		require.NoError(t, runner.Submit(ctx, scriptTask("slow", "make", "")))
		time.Sleep(2 * time.Minute)
		synctest.Wait()

		assert.Equal(t, domain.StatusSystemError, got.get("slow"))
	})
}

func TestRunner_ShutdownCancelsQueued(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		executor := mocks.NewMockExecutor(ctrl)

		executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ *domain.BuildTask) ([]domain.Artifact, error) {
				<-ctx.Done()
				return nil, zerr.Wrap(ctx.Err(), "build interrupted")
			})

		var got completions
		runner := shell.NewRunner(executor, quietLogger(t), 1)
		runner.OnComplete(got.record)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- runner.Run(ctx) }()

		require.NoError(t, runner.Submit(ctx, scriptTask("first", "make", "")))
		require.NoError(t, runner.Submit(ctx, scriptTask("second", "make", "")))
		synctest.Wait()

		cancel()
		require.NoError(t, <-done)

		assert.Equal(t, domain.StatusCancelled, got.get("first"))
		assert.Equal(t, domain.StatusCancelled, got.get("second"))
	})
}
