// Package scheduler drives build tasks through their life cycle.
package scheduler

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler owns the status of every known build task and the index of unfinished tasks
// per revision. Registration, completion and cancellation are each one critical section
// over that state; store writes, event delivery and calls to the remote scheduler happen
// after the section ends.
type Scheduler struct {
	remote  ports.RemoteScheduler
	records ports.BuildRecordStore
	ids     ports.IDGenerator
	events  ports.EventSink
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics
	now     func() time.Time

	mu         sync.Mutex
	tasks      map[domain.TaskID]*domain.BuildTask
	inFlight   map[domain.RevisionID]domain.TaskID
	dependents map[domain.TaskID][]domain.TaskID
}

// NewScheduler creates a scheduler dispatching to remote.
func NewScheduler(
	remote ports.RemoteScheduler,
	records ports.BuildRecordStore,
	ids ports.IDGenerator,
	events ports.EventSink,
	logger ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
) *Scheduler {
	return &Scheduler{
		remote:     remote,
		records:    records,
		ids:        ids,
		events:     events,
		logger:     logger,
		tracer:     tracer,
		metrics:    metrics,
		now:        time.Now,
		tasks:      make(map[domain.TaskID]*domain.BuildTask),
		inFlight:   make(map[domain.RevisionID]domain.TaskID),
		dependents: make(map[domain.TaskID][]domain.TaskID),
	}
}

// WithClock replaces the time source used for transitions.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// effects collects the side effects of one critical section.
type effects struct {
	events  []domain.StatusChangedEvent
	records []*domain.BuildRecord
	submit  []*domain.BuildTask
	cancel  []domain.TaskID
}

// Register adds the new tasks of graph and dispatches those whose dependencies are met.
// A dependency whose revision gained an unfinished task after the graph was built is not
// registered again: its dependents wait for the unfinished task instead. Registration is
// all-or-nothing: when a target revision already has an unfinished task, it fails with
// domain.ErrBuildConflict carrying that task's id and nothing is registered.
func (s *Scheduler) Register(ctx context.Context, graph *domain.TaskGraph, setID domain.BuildSetID) (err error) {
	ctx, span := s.tracer.Start(ctx, "task.register",
		ports.WithAttribute("build_set_id", setID.String()),
		ports.WithAttribute("tasks", graph.Len()),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	var eff effects

	s.mu.Lock()
	replaced, err := s.checkRegistrableLocked(graph)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	added := make([]*domain.BuildTask, 0, graph.Len())
	for task := range graph.Walk() {
		if _, ok := replaced[task.ID]; ok {
			continue
		}
		t := task.Clone()
		t.BuildSetID = setID
		for i, dep := range t.Dependencies {
			if existing, ok := replaced[dep]; ok {
				t.Dependencies[i] = existing
			}
		}
		s.tasks[t.ID] = t
		s.inFlight[t.Revision.ID()] = t.ID
		for _, dep := range t.Dependencies {
			s.dependents[dep] = append(s.dependents[dep], t.ID)
		}
		added = append(added, t)
	}
	for _, t := range added {
		if t.Status == domain.StatusEnqueued {
			s.advanceLocked(t, &eff)
		}
	}
	s.mu.Unlock()

	s.apply(ctx, &eff)
	return nil
}

// checkRegistrableLocked validates graph against the known tasks. It returns the new tasks
// whose revision is already in flight, mapped to the unfinished task replacing them.
func (s *Scheduler) checkRegistrableLocked(graph *domain.TaskGraph) (map[domain.TaskID]domain.TaskID, error) {
	targets := graph.Targets()
	replaced := make(map[domain.TaskID]domain.TaskID)
	for task := range graph.Walk() {
		rev := task.Revision.ID()
		if existing, ok := s.inFlight[rev]; ok {
			if slices.Contains(targets, task.ConfigurationID()) {
				s.logger.Warn("build conflict", "revision", rev.String(), "task_id", existing.String())
				err := zerr.With(zerr.Wrap(domain.ErrBuildConflict, "trigger rejected"), "task_id", existing)
				return nil, zerr.With(err, "revision", rev.String())
			}
			replaced[task.ID] = existing
		}
		if _, ok := s.tasks[task.ID]; ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrTaskAlreadyExists, "trigger rejected"), "task_id", task.ID)
		}
		for _, dep := range task.Dependencies {
			if !graph.IsExternal(dep) {
				continue
			}
			if _, ok := s.tasks[dep]; !ok {
				err := zerr.With(zerr.Wrap(domain.ErrGraphStructure, "unknown in-flight dependency"), "task_id", task.ID)
				return nil, zerr.With(err, "dependency", dep)
			}
		}
	}

	for id, existing := range replaced {
		s.logger.Info("reusing unfinished task", "task_id", existing.String(), "replaces", id.String())
	}
	return replaced, nil
}

// Complete records the terminal status reported for a dispatched task and releases or
// rejects its dependents. Reports for tasks that already terminated are ignored.
func (s *Scheduler) Complete(ctx context.Context, id domain.TaskID, status domain.BuildStatus, artifacts []domain.Artifact) error {
	if !status.IsTerminal() {
		err := zerr.With(zerr.Wrap(domain.ErrNotTerminalStatus, "completion rejected"), "task_id", id)
		return zerr.With(err, "status", string(status))
	}

	var eff effects

	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "completion rejected"), "task_id", id)
	}
	if t.Status.IsTerminal() {
		s.mu.Unlock()
		return nil
	}
	t.SetBuiltArtifacts(artifacts)
	if err := s.transitionLocked(t, status, &eff); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.apply(ctx, &eff)
	return nil
}

// Cancel stops a task that has not terminated. Dependents that were not dispatched are
// rejected. Cancelling a terminal task is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, id domain.TaskID) error {
	var eff effects

	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "cancel rejected"), "task_id", id)
	}
	if t.Status.IsTerminal() {
		s.mu.Unlock()
		return nil
	}
	if t.Status == domain.StatusBuilding {
		eff.cancel = append(eff.cancel, id)
	}
	if err := s.transitionLocked(t, domain.StatusCancelled, &eff); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.apply(ctx, &eff)
	return nil
}

// Sync adopts the unfinished tasks reported by the remote scheduler, so that later
// triggers reuse or conflict with them.
func (s *Scheduler) Sync(ctx context.Context) error {
	remote, err := s.remote.UnfinishedTasks(ctx)
	if err != nil {
		return zerr.Wrap(err, domain.ErrRemoteQueryFailed.Error())
	}

	s.mu.Lock()
	adopted := 0
	for _, rt := range remote {
		if _, known := s.tasks[rt.TaskID]; known {
			continue
		}
		s.tasks[rt.TaskID] = &domain.BuildTask{
			ID: rt.TaskID,
			Revision: domain.BuildConfigurationRevision{
				ConfigurationID: rt.Revision.ConfigurationID,
				Revision:        rt.Revision.Revision,
			},
			Status: rt.Status,
		}
		if !rt.Status.IsTerminal() {
			s.inFlight[rt.Revision] = rt.TaskID
		}
		adopted++
	}
	s.mu.Unlock()

	if adopted > 0 {
		s.logger.Info("adopted unfinished tasks", "count", adopted)
	}
	return nil
}

// InFlight returns the unfinished task of a revision.
func (s *Scheduler) InFlight(rev domain.RevisionID) (domain.TaskID, domain.BuildStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.inFlight[rev]
	if !ok {
		return "", "", false
	}
	return id, s.tasks[id].Status, true
}

// Task returns a copy of a known task.
func (s *Scheduler) Task(id domain.TaskID) (*domain.BuildTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// UnfinishedTasks lists every known task that has not terminated, sorted by id.
func (s *Scheduler) UnfinishedTasks(_ context.Context) ([]domain.RemoteTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RemoteTask, 0, len(s.inFlight))
	for _, t := range s.tasks {
		if t.Status.IsTerminal() {
			continue
		}
		out = append(out, domain.RemoteTask{Revision: t.Revision.ID(), TaskID: t.ID, Status: t.Status})
	}
	slices.SortFunc(out, func(a, b domain.RemoteTask) int {
		return cmp.Compare(a.TaskID, b.TaskID)
	})
	return out, nil
}

// advanceLocked moves an ENQUEUED or WAITING task according to its dependencies.
func (s *Scheduler) advanceLocked(t *domain.BuildTask, eff *effects) {
	ready := true
	for _, dep := range t.Dependencies {
		d, ok := s.tasks[dep]
		if !ok {
			continue
		}
		if d.Status.RejectsDependents() {
			s.mustTransitionLocked(t, domain.StatusRejectedFailedDependencies, eff)
			return
		}
		if !d.Status.IsSuccessful() {
			ready = false
		}
	}

	switch {
	case ready:
		s.mustTransitionLocked(t, domain.StatusBuilding, eff)
		eff.submit = append(eff.submit, t.Clone())
	case t.Status == domain.StatusEnqueued:
		s.mustTransitionLocked(t, domain.StatusWaitingForDependencies, eff)
	}
}

// transitionLocked applies a status change and, for terminal statuses, creates the
// record and propagates the outcome to waiting dependents.
func (s *Scheduler) transitionLocked(t *domain.BuildTask, to domain.BuildStatus, eff *effects) error {
	ev, err := domain.Transition(t, to, s.now())
	if err != nil {
		return err
	}
	eff.events = append(eff.events, ev)

	if !to.IsTerminal() {
		return nil
	}

	rev := t.Revision.ID()
	if s.inFlight[rev] == t.ID {
		delete(s.inFlight, rev)
	}
	rec := &domain.BuildRecord{
		ID:        s.ids.NewRecordID(),
		TaskID:    t.ID,
		Revision:  rev,
		Status:    to,
		Artifacts: t.BuiltArtifacts(),
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
	}
	t.AttachRecord(rec)
	persisted := *rec
	eff.records = append(eff.records, &persisted)

	for _, id := range s.dependents[t.ID] {
		dep := s.tasks[id]
		if dep.Status == domain.StatusEnqueued || dep.Status == domain.StatusWaitingForDependencies {
			s.advanceLocked(dep, eff)
		}
	}
	return nil
}

// mustTransitionLocked applies a change the scheduler itself decided. Those are always
// allowed by the life cycle.
func (s *Scheduler) mustTransitionLocked(t *domain.BuildTask, to domain.BuildStatus, eff *effects) {
	if err := s.transitionLocked(t, to, eff); err != nil {
		s.logger.Error(err)
	}
}

// apply performs the side effects collected in a critical section. Records are stored
// before events are published so that listeners observe them.
func (s *Scheduler) apply(ctx context.Context, eff *effects) {
	for _, rec := range eff.records {
		if err := s.records.PutBuildRecord(ctx, rec); err != nil {
			s.logger.Error(zerr.With(zerr.Wrap(err, "failed to store build record"), "task_id", rec.TaskID.String()))
		}
	}

	for _, ev := range eff.events {
		s.metrics.TaskTransitioned(ctx, ev.OldStatus, ev.NewStatus)
		s.logger.Info("task status changed",
			"task_id", ev.TaskID.String(),
			"revision", ev.Revision.String(),
			"from", string(ev.OldStatus),
			"to", string(ev.NewStatus),
		)
		s.events.Publish(ev)
	}

	for _, id := range eff.cancel {
		if err := s.remote.Cancel(ctx, id); err != nil {
			s.logger.Error(zerr.With(zerr.Wrap(err, "failed to cancel remote task"), "task_id", id.String()))
		}
	}

	for _, t := range eff.submit {
		if err := s.remote.Submit(ctx, t); err != nil {
			s.logger.Error(zerr.With(zerr.Wrap(err, domain.ErrSubmitFailed.Error()), "task_id", t.ID.String()))
			if err := s.Complete(ctx, t.ID, domain.StatusSystemError, nil); err != nil {
				s.logger.Error(err)
			}
		}
	}
}
