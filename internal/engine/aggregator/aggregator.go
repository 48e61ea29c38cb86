// Package aggregator keeps the aggregate status of build sets up to date.
package aggregator

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// TaskLister reports the tasks the external scheduler has not finished.
type TaskLister interface {
	UnfinishedTasks(ctx context.Context) ([]domain.RemoteTask, error)
}

// Aggregator recomputes build set statuses from member records and unfinished tasks.
// Reconciliations of the same set are serialized; different sets run concurrently.
type Aggregator struct {
	sets    ports.BuildSetStore
	records ports.BuildRecordStore
	tasks   TaskLister
	events  ports.EventSink
	metrics ports.Metrics
	logger  ports.Logger
	now     func() time.Time
	limit   int

	locks *keyedMutex

	pendingMu sync.Mutex
	pending   map[domain.BuildSetID]struct{}
	wake      chan struct{}
}

// New creates an aggregator.
func New(
	sets ports.BuildSetStore,
	records ports.BuildRecordStore,
	tasks TaskLister,
	events ports.EventSink,
	metrics ports.Metrics,
	logger ports.Logger,
) *Aggregator {
	return &Aggregator{
		sets:    sets,
		records: records,
		tasks:   tasks,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		limit:   runtime.NumCPU(),
		locks:   newKeyedMutex(),
		pending: make(map[domain.BuildSetID]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// WithClock replaces the time source used for end times and events.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// WithLimit bounds how many sets ReconcileAll processes at once.
func (a *Aggregator) WithLimit(limit int) *Aggregator {
	if limit > 0 {
		a.limit = limit
	}
	return a
}

// Reconcile recomputes the status of one build set and saves it when it changed.
// A terminal status is final and is returned without looking at the members again.
func (a *Aggregator) Reconcile(ctx context.Context, id domain.BuildSetID) (domain.BuildStatus, error) {
	unlock := a.locks.Lock(id)
	defer unlock()

	rec, err := a.sets.BuildSet(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.Status.IsTerminal() {
		return rec.Status, nil
	}

	members, err := a.memberStatuses(ctx, rec)
	if err != nil {
		return "", err
	}

	status := domain.AggregateStatus(members)
	if status == rec.Status {
		return status, nil
	}

	now := a.now()
	updated := rec.Clone()
	updated.Status = status
	if status.IsTerminal() {
		updated.EndTime = now
	}
	if err := a.sets.SaveBuildSet(ctx, updated); err != nil {
		return "", err
	}

	a.metrics.GroupStatusChanged(ctx, status)
	a.logger.Info("build set status changed",
		"build_set_id", id.String(),
		"group", rec.GroupName,
		"from", string(rec.Status),
		"to", string(status),
	)
	a.events.Publish(domain.GroupStatusChangedEvent{
		BuildSetID: id,
		GroupName:  rec.GroupName,
		OldStatus:  rec.Status,
		NewStatus:  status,
		At:         now,
	})
	return status, nil
}

// memberStatuses resolves every member to its terminal record status or the status of its
// unfinished task. Members whose task is neither finished nor known to the external
// scheduler count as ENQUEUED.
func (a *Aggregator) memberStatuses(ctx context.Context, rec *domain.BuildConfigSetRecord) ([]domain.MemberStatus, error) {
	unfinished, err := a.tasks.UnfinishedTasks(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrRemoteQueryFailed.Error())
	}
	outstanding := make(map[domain.TaskID]domain.BuildStatus, len(unfinished))
	for _, t := range unfinished {
		outstanding[t.TaskID] = t.Status
	}

	members := make([]domain.MemberStatus, 0, len(rec.Members))
	for _, id := range rec.Members {
		status, err := a.memberStatus(ctx, rec, id, outstanding)
		if err != nil {
			return nil, err
		}
		members = append(members, domain.MemberStatus{ConfigurationID: id, Status: status})
	}
	return members, nil
}

func (a *Aggregator) memberStatus(
	ctx context.Context,
	rec *domain.BuildConfigSetRecord,
	id domain.ConfigurationID,
	outstanding map[domain.TaskID]domain.BuildStatus,
) (domain.BuildStatus, error) {
	if status, ok := rec.Reused[id]; ok {
		return status, nil
	}

	taskID, ok := rec.Tasks[id]
	if !ok {
		latest, err := a.records.LatestBuildRecord(ctx, id)
		if err != nil {
			return "", err
		}
		if latest == nil {
			return domain.StatusEnqueued, nil
		}
		return latest.Status, nil
	}

	record, err := a.records.BuildRecordForTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	if record != nil {
		return record.Status, nil
	}
	if status, ok := outstanding[taskID]; ok {
		return status, nil
	}
	return domain.StatusEnqueued, nil
}

// ReconcileAll reconciles every open build set.
func (a *Aggregator) ReconcileAll(ctx context.Context) error {
	ids, err := a.sets.OpenBuildSets(ctx)
	if err != nil {
		return err
	}
	return a.reconcileEach(ctx, ids)
}

func (a *Aggregator) reconcileEach(ctx context.Context, ids []domain.BuildSetID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)

	for _, id := range ids {
		g.Go(func() error {
			_, err := a.Reconcile(ctx, id)
			if errors.Is(err, domain.ErrBuildSetNotFound) {
				return nil
			}
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to reconcile build set"), "build_set_id", id.String())
			}
			return nil
		})
	}
	return g.Wait()
}

// Notify is an event listener. A terminal task transition schedules its build set for
// reconciliation by Run.
func (a *Aggregator) Notify(ev domain.Event) {
	e, ok := ev.(domain.StatusChangedEvent)
	if !ok || e.BuildSetID == "" || !e.NewStatus.IsTerminal() {
		return
	}

	a.pendingMu.Lock()
	a.pending[e.BuildSetID] = struct{}{}
	a.pendingMu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Aggregator) takePending() []domain.BuildSetID {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()

	ids := make([]domain.BuildSetID, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	clear(a.pending)
	slices.Sort(ids)
	return ids
}

// Run reconciles sets named by Notify as they arrive, and every open set each interval,
// until ctx is done. Reconciliation errors are logged and do not stop the loop.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.wake:
			if err := a.reconcileEach(ctx, a.takePending()); err != nil {
				a.logger.Error(err)
			}
		case <-ticker.C:
			if err := a.ReconcileAll(ctx); err != nil {
				a.logger.Error(err)
			}
		}
	}
}
