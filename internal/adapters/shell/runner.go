package shell

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RemoteScheduler = (*Runner)(nil)

// Runner is a local stand-in for the external build scheduler. Submitted tasks are queued
// and executed with bounded parallelism; every dispatched task is reported exactly once
// through the completion callback. A script running longer than the timeout is reported
// as SYSTEM_ERROR.
type Runner struct {
	executor    ports.Executor
	logger      ports.Logger
	parallelism int
	timeout     time.Duration

	mu         sync.Mutex
	runs       map[domain.TaskID]*run
	pending    []domain.TaskID
	onComplete ports.CompletionFunc
	wake       chan struct{}
}

type run struct {
	task      *domain.BuildTask
	running   bool
	cancelled bool
	cancel    context.CancelFunc
}

type result struct {
	id        domain.TaskID
	artifacts []domain.Artifact
	err       error
	cancelled bool
}

// NewRunner creates a runner executing at most parallelism scripts at once.
func NewRunner(executor ports.Executor, logger ports.Logger, parallelism int) *Runner {
	return &Runner{
		executor:    executor,
		logger:      logger,
		parallelism: max(parallelism, 1),
		runs:        make(map[domain.TaskID]*run),
		wake:        make(chan struct{}, 1),
	}
}

// WithTimeout bounds the run time of every script. Zero disables the bound.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

// OnComplete sets the callback receiving the terminal status of dispatched tasks.
func (r *Runner) OnComplete(fn ports.CompletionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onComplete = fn
}

// Submit queues a task. Submitting a task that is already queued or running is a no-op.
func (r *Runner) Submit(_ context.Context, task *domain.BuildTask) error {
	r.mu.Lock()
	if _, exists := r.runs[task.ID]; !exists {
		r.runs[task.ID] = &run{task: task.Clone()}
		r.pending = append(r.pending, task.ID)
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// Cancel stops a queued or running task. Unknown or finished tasks are ignored.
func (r *Runner) Cancel(_ context.Context, id domain.TaskID) error {
	r.mu.Lock()
	rn, ok := r.runs[id]
	if ok {
		rn.cancelled = true
		if rn.running && rn.cancel != nil {
			rn.cancel()
		}
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// UnfinishedTasks lists queued and running tasks, sorted by id.
func (r *Runner) UnfinishedTasks(_ context.Context) ([]domain.RemoteTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.RemoteTask, 0, len(r.runs))
	for id, rn := range r.runs {
		out = append(out, domain.RemoteTask{
			Revision: rn.task.Revision.ID(),
			TaskID:   id,
			Status:   domain.StatusBuilding,
		})
	}
	slices.SortFunc(out, func(a, b domain.RemoteTask) int {
		return cmp.Compare(a.TaskID, b.TaskID)
	})
	return out, nil
}

func (r *Runner) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run executes queued tasks until ctx ends. Running scripts are then interrupted and,
// like tasks still queued, reported as CANCELLED.
func (r *Runner) Run(ctx context.Context) error {
	resultsCh := make(chan result, r.parallelism)
	active := 0

	for {
		active += r.schedule(ctx, resultsCh, active)

		select {
		case res := <-resultsCh:
			active--
			r.handleResult(ctx, res)
		case <-r.wake:
		case <-ctx.Done():
			shutdownCtx := context.WithoutCancel(ctx)
			for ; active > 0; active-- {
				r.handleResult(shutdownCtx, <-resultsCh)
			}
			r.cancelPending(shutdownCtx)
			return nil
		}
	}
}

// schedule starts queued tasks while slots are free and returns how many it started.
func (r *Runner) schedule(ctx context.Context, resultsCh chan<- result, active int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := 0
	for len(r.pending) > 0 && active+started < r.parallelism && ctx.Err() == nil {
		id := r.pending[0]
		r.pending = r.pending[1:]

		rn, ok := r.runs[id]
		if !ok {
			continue
		}
		started++

		if rn.cancelled {
			go func() { resultsCh <- result{id: id, cancelled: true} }()
			continue
		}

		var runCtx context.Context
		var cancel context.CancelFunc
		if r.timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		} else {
			runCtx, cancel = context.WithCancel(ctx)
		}
		rn.running = true
		rn.cancel = cancel

		go func(task *domain.BuildTask) {
			defer cancel()
			artifacts, err := r.executor.Execute(runCtx, task)
			resultsCh <- result{id: task.ID, artifacts: artifacts, err: err}
		}(rn.task)
	}
	return started
}

func (r *Runner) handleResult(ctx context.Context, res result) {
	r.mu.Lock()
	rn, ok := r.runs[res.id]
	delete(r.runs, res.id)
	onComplete := r.onComplete
	r.mu.Unlock()

	cancelled := res.cancelled || (ok && rn.cancelled)
	status := classify(res.err, cancelled)

	switch status {
	case domain.StatusSuccess:
		r.logger.Info("build finished", "task_id", res.id.String(), "artifacts", len(res.artifacts))
	case domain.StatusCancelled:
		r.logger.Warn("build cancelled", "task_id", res.id.String())
	default:
		r.logger.Error(zerr.With(zerr.Wrap(res.err, "build did not succeed"), "status", string(status)))
	}

	if onComplete == nil {
		return
	}
	if err := onComplete(ctx, res.id, status, res.artifacts); err != nil {
		r.logger.Error(zerr.With(zerr.Wrap(err, "failed to report build completion"), "task_id", res.id.String()))
	}
}

func (r *Runner) cancelPending(ctx context.Context) {
	r.mu.Lock()
	ids := slices.Clone(r.pending)
	r.pending = nil
	r.mu.Unlock()

	for _, id := range ids {
		r.handleResult(ctx, result{id: id, cancelled: true})
	}
}

// classify maps the outcome of a script to a terminal build status.
func classify(err error, cancelled bool) domain.BuildStatus {
	switch {
	case err == nil && !cancelled:
		return domain.StatusSuccess
	case cancelled, errors.Is(err, context.Canceled):
		return domain.StatusCancelled
	case errors.Is(err, domain.ErrBuildScriptFailed):
		return domain.StatusFailed
	default:
		// Timeouts and infrastructure failures.
		return domain.StatusSystemError
	}
}
