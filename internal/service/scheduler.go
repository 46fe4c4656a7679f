package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/openswarm/swarmer/internal/core"
	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/observability/statsd"
)

// queueEntry tracks a task through the in-memory pending/running lifecycle.
type queueEntry struct {
	jobID string
	name  string
	args  []string
	image string

	// serviceID is set once the backend confirms dispatch.
	serviceID string
	// claimedAt is set when the entry moves from pending to running, so
	// tasks whose dispatch never completed still age out.
	claimedAt time.Time
	// startedAt is set on mark_task_started.
	startedAt time.Time
}

// StartedTask is a snapshot of a dispatched running task.
type StartedTask struct {
	ServiceID string
	StartedAt time.Time
}

// SchedulerOptions groups dependencies for Scheduler.
type SchedulerOptions struct {
	Store     core.JobStore // Required: durable job store
	Capacity  int           // Required: max concurrently running tasks
	Logger    *slog.Logger  // Optional: structured logger
	Metrics   statsd.Sink   // Optional: metrics sink (StatsD-compatible)
	Now       func() time.Time
	RunSignal func() // Optional: invoked when more tasks could be started
}

// Scheduler owns the bounded task queue and the in-flight running set.
//
// One mutex guards all four state collections; HTTP handlers and the two
// sweepers contend on it. Store writes happen under the mutex and are the
// commit point for each transition. Backend calls never happen under the
// mutex: callers dispatch with the entries returned from NextTasks and
// commit via MarkTaskStarted.
type Scheduler struct {
	store     core.JobStore
	capacity  int
	logger    *slog.Logger
	metrics   statsd.Sink
	now       func() time.Time
	runSignal func()

	mu      sync.Mutex
	pending []queueEntry
	running []queueEntry
	jobs    map[string]struct{}
	overdue map[string]struct{}
}

// NewScheduler constructs a Scheduler.
func NewScheduler(opts SchedulerOptions) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Capacity < 1 {
		return nil, errors.New("capacity must be at least 1")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "scheduler")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		store:     opts.Store,
		capacity:  opts.Capacity,
		logger:    logger,
		metrics:   opts.Metrics,
		now:       now,
		runSignal: opts.RunSignal,
		jobs:      make(map[string]struct{}),
		overdue:   make(map[string]struct{}),
	}, nil
}

// SetRunSignal installs the callback invoked when the scheduler believes
// more tasks could be started. It must be set before any background loop
// runs.
func (s *Scheduler) SetRunSignal(fn func()) {
	s.runSignal = fn
}

// AddNewJob writes the job and its initial task list to the store, tracks
// the job, and enqueues one entry per task.
func (s *Scheduler) AddNewJob(ctx context.Context, id, image, callback string, tasks []model.TaskSubmission) error {
	if len(tasks) == 0 {
		return apperrors.ValidationField("tasks", "tasks must be provided with the job")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AddJob(ctx, id, image, callback); err != nil {
		return err
	}
	if err := s.store.AddTasks(ctx, id, tasks); err != nil {
		// The job hash was already written but is not tracked anywhere, so
		// nothing would ever clear it. Best effort; the error that matters
		// is the task write.
		if cerr := s.store.ClearJob(ctx, id); cerr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "clear job after failed task write",
				"job_id", id, "error", cerr)
		}
		return err
	}

	s.jobs[id] = struct{}{}
	for _, t := range tasks {
		s.pending = append(s.pending, queueEntry{
			jobID: id,
			name:  t.TaskName,
			args:  t.TaskArgs,
			image: image,
		})
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job queued", "job_id", id, "tasks", len(tasks))
	}
	s.emitQueueDepth()

	return nil
}

// NextTasks claims up to capacity minus running entries from the pending
// queue, moves them into the running set, and returns them for dispatch.
func (s *Scheduler) NextTasks() []model.RunnableTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	free := s.capacity - len(s.running)
	if free <= 0 || len(s.pending) == 0 {
		return nil
	}

	var claimed []model.RunnableTask
	for range free {
		if len(s.pending) == 0 {
			break
		}
		entry := s.pending[0]
		s.pending = s.pending[1:]
		entry.claimedAt = s.now()
		s.running = append(s.running, entry)
		claimed = append(claimed, model.RunnableTask{
			JobID: entry.jobID,
			Name:  entry.name,
			Args:  entry.args,
			Image: entry.image,
		})
	}

	s.emitQueueDepth()
	return claimed
}

// MarkTaskStarted records the backend service id for a running task and
// commits the PENDING→RUNNING transition to the store.
func (s *Scheduler) MarkTaskStarted(ctx context.Context, jobID, name, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.running {
		if s.running[i].jobID == jobID && s.running[i].name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NotFoundf("no running entry for task %s in job %s", name, jobID)
	}

	// Store writes commit first: a failed write must leave the entry
	// unstarted so the transition can be retried.
	if err := s.store.SetTaskServiceID(ctx, jobID, name, serviceID); err != nil {
		return err
	}
	if _, err := s.store.IncrTaskCount(ctx, jobID, model.FieldTaskCountStarted, 1); err != nil {
		return err
	}

	s.running[idx].serviceID = serviceID
	s.running[idx].startedAt = s.now()

	if s.metrics != nil {
		s.metrics.Count("scheduler.task_started", 1, nil)
	}
	return nil
}

// CompleteTask records a task outcome. It returns the backend service ids
// that should be removed (the completed task's own service plus any drained
// overdue services) and whether more tasks could be started now.
//
// An unknown job id is a not_found error. A known job with no matching
// running entry is a late or duplicate callback: it is logged and dropped
// with no state change.
func (s *Scheduler) CompleteTask(
	ctx context.Context,
	jobID, name string,
	status int,
	result model.TaskResult,
) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return nil, false, apperrors.NotFoundf("job %s not found", jobID)
	}

	idx := -1
	for i := range s.running {
		if s.running[i].jobID == jobID && s.running[i].name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "no running entry for reported task",
				"job_id", jobID, "task", name)
		}
		return nil, false, nil
	}

	// Store writes commit the completion before the entry leaves the
	// running set; a store failure leaves the task running.
	if err := s.store.UpdateTaskResult(ctx, jobID, name, result); err != nil {
		return nil, false, err
	}
	if err := s.store.UpdateTaskStatus(ctx, jobID, name, status); err != nil {
		return nil, false, err
	}
	if _, err := s.store.IncrTaskCount(ctx, jobID, model.FieldTaskCountComplete, 1); err != nil {
		return nil, false, err
	}

	entry := s.running[idx]
	s.running = append(s.running[:idx], s.running[idx+1:]...)

	var removals []string
	if entry.serviceID != "" {
		removals = append(removals, entry.serviceID)
	}
	// Completion is also when stale overdue services get cleaned up.
	for sid := range s.overdue {
		removals = append(removals, sid)
		delete(s.overdue, sid)
	}

	if s.metrics != nil {
		s.metrics.Count("scheduler.task_completed", 1, map[string]string{
			"exit_zero": boolTag(status == 0),
		})
	}
	s.emitQueueDepth()

	return removals, s.shouldRunLocked(), nil
}

// StartedTasks returns a snapshot of running tasks that have been
// dispatched to the backend.
func (s *Scheduler) StartedTasks() []StartedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var started []StartedTask
	for _, entry := range s.running {
		if entry.serviceID != "" && !entry.startedAt.IsZero() {
			started = append(started, StartedTask{
				ServiceID: entry.serviceID,
				StartedAt: entry.startedAt,
			})
		}
	}
	return started
}

// JobDetails returns the store record with the task list deserialized.
func (s *Scheduler) JobDetails(ctx context.Context, id string) (model.JobRecord, error) {
	raw, err := s.store.GetJob(ctx, id)
	if err != nil {
		return model.JobRecord{}, err
	}
	return model.ParseJobRecord(id, raw)
}

// SweepDeadTasks requeues running tasks older than maxAge. Dispatched tasks
// have their service id parked in the overdue set for removal on the next
// completion; tasks that never reached the backend are simply requeued.
// Returns the number of requeued tasks.
func (s *Scheduler) SweepDeadTasks(ctx context.Context, maxAge time.Duration) int {
	s.mu.Lock()

	now := s.now()
	var kept []queueEntry
	requeued := 0
	for _, entry := range s.running {
		age := now.Sub(entry.claimedAt)
		if !entry.startedAt.IsZero() {
			age = now.Sub(entry.startedAt)
		}
		if age <= maxAge {
			kept = append(kept, entry)
			continue
		}

		if entry.serviceID != "" {
			s.overdue[entry.serviceID] = struct{}{}
		}
		s.pending = append(s.pending, queueEntry{
			jobID: entry.jobID,
			name:  entry.name,
			args:  entry.args,
			image: entry.image,
		})
		requeued++

		if s.logger != nil {
			s.logger.WarnContext(ctx, "requeued stalled task",
				"job_id", entry.jobID, "task", entry.name, "service_id", entry.serviceID)
		}
	}
	s.running = kept

	shouldRun := s.shouldRunLocked()
	s.emitQueueDepth()
	s.mu.Unlock()

	if requeued > 0 && s.metrics != nil {
		s.metrics.Count("scheduler.tasks_requeued", int64(requeued), nil)
	}
	if shouldRun {
		s.signalRun()
	}
	return requeued
}

// SweepCompletedJobs collects jobs with no pending or running tasks,
// removes them from tracking, fetches and clears their store records, and
// returns the decoded records for callback delivery.
func (s *Scheduler) SweepCompletedJobs(ctx context.Context) []model.JobRecord {
	s.mu.Lock()

	var completed []string
	for id := range s.jobs {
		if s.hasLiveTasksLocked(id) {
			continue
		}
		completed = append(completed, id)
	}

	var records []model.JobRecord
	for _, id := range completed {
		raw, err := s.store.GetJob(ctx, id)
		if err != nil {
			// Keep the job tracked so the next sweep retries.
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "fetch completed job failed", "job_id", id, "error", err)
			}
			continue
		}
		record, err := model.ParseJobRecord(id, raw)
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "decode completed job failed", "job_id", id, "error", err)
			}
			continue
		}
		if err := s.store.ClearJob(ctx, id); err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "clear completed job failed", "job_id", id, "error", err)
			}
			continue
		}

		delete(s.jobs, id)
		records = append(records, record)
	}

	shouldRun := s.shouldRunLocked()
	s.mu.Unlock()

	if len(records) > 0 && s.metrics != nil {
		s.metrics.Count("scheduler.jobs_completed", int64(len(records)), nil)
	}
	if shouldRun {
		s.signalRun()
	}
	return records
}

// KnowsJob reports whether the job is currently tracked.
func (s *Scheduler) KnowsJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	return ok
}

func (s *Scheduler) hasLiveTasksLocked(jobID string) bool {
	for _, entry := range s.running {
		if entry.jobID == jobID {
			return true
		}
	}
	for _, entry := range s.pending {
		if entry.jobID == jobID {
			return true
		}
	}
	return false
}

func (s *Scheduler) shouldRunLocked() bool {
	return len(s.running) < s.capacity && len(s.pending) > 0
}

func (s *Scheduler) signalRun() {
	if s.runSignal != nil {
		s.runSignal()
	}
}

func (s *Scheduler) emitQueueDepth() {
	if s.metrics == nil {
		return
	}
	s.metrics.Gauge("scheduler.pending_depth", float64(len(s.pending)), nil)
	s.metrics.Gauge("scheduler.running_depth", float64(len(s.running)), nil)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
