package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openswarm/swarmer/internal/core"
	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
	"github.com/openswarm/swarmer/internal/ids"
	"github.com/openswarm/swarmer/internal/observability/statsd"
)

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Scheduler *Scheduler            // Required: task scheduler
	Backend   core.ContainerBackend // Required: container backend
	Logger    *slog.Logger          // Optional: structured logger
	Metrics   statsd.Sink           // Optional: metrics sink
	NewJobID  func() string         // Optional: id generator override for tests
}

// Runner orchestrates the submit→dispatch→complete flow between the HTTP
// API, the scheduler, and the container backend.
//
// Dispatch is the only place backend StartTask calls happen, and it always
// runs outside the scheduler mutex: a slow or wedged backend can delay
// dispatch but can never block result callbacks or the sweepers.
type Runner struct {
	scheduler *Scheduler
	backend   core.ContainerBackend
	logger    *slog.Logger
	metrics   statsd.Sink
	newJobID  func() string

	// wake is nudged by the sweepers (via the scheduler's run signal)
	// whenever capacity may have freed up; Run drains it.
	wake chan struct{}
}

// NewRunner constructs a Runner and installs its wake nudge as the
// scheduler's run signal.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("Scheduler is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("ContainerBackend is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "runner")
	}

	newJobID := opts.NewJobID
	if newJobID == nil {
		newJobID = ids.NewJobID
	}

	r := &Runner{
		scheduler: opts.Scheduler,
		backend:   opts.Backend,
		logger:    logger,
		metrics:   opts.Metrics,
		newJobID:  newJobID,
		wake:      make(chan struct{}, 1),
	}
	opts.Scheduler.SetRunSignal(r.Wake)

	return r, nil
}

// CreateJob generates a fresh sortable identifier, queues the job, and
// dispatches as many of its tasks as capacity allows.
func (r *Runner) CreateJob(ctx context.Context, req model.SubmitJobRequest) (string, error) {
	id := r.newJobID()

	if err := r.scheduler.AddNewJob(ctx, id, req.ImageName, req.CallbackURL, req.Tasks); err != nil {
		return "", err
	}

	r.dispatch(ctx)
	return id, nil
}

// CompleteTask records a reported task outcome, removes the finished
// services from the backend, and dispatches again if capacity freed up.
func (r *Runner) CompleteTask(ctx context.Context, jobID string, req model.TaskResultRequest) error {
	removals, mayRunMore, err := r.scheduler.CompleteTask(ctx, jobID, req.TaskName, req.TaskStatus, req.TaskResult)
	if err != nil {
		return err
	}

	if len(removals) > 0 {
		if err := r.backend.RemoveServices(ctx, removals); err != nil {
			// Removal failures are not fatal to the completion: the
			// services are already recorded and will not be retried.
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "remove services failed",
					"job_id", jobID, "services", removals, "error", err)
			}
		}
	}

	if mayRunMore {
		r.dispatch(ctx)
	}
	return nil
}

// JobStatus returns the decoded job record.
func (r *Runner) JobStatus(ctx context.Context, jobID string) (model.JobRecord, error) {
	return r.scheduler.JobDetails(ctx, jobID)
}

// JobTasks returns the decoded task list for a job.
func (r *Runner) JobTasks(ctx context.Context, jobID string) ([]model.Task, error) {
	record, err := r.scheduler.JobDetails(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return record.Tasks, nil
}

// Wake nudges the dispatch loop. Safe to call from any goroutine; nudges
// coalesce while a dispatch pass is pending.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run drains wake nudges and dispatches until the context is cancelled.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	if r.logger != nil {
		r.logger.InfoContext(ctx, "starting dispatch loop")
	}

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.InfoContext(ctx, "dispatch loop stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-r.wake:
			r.dispatch(ctx)
		}
	}
}

// dispatch claims runnable tasks and starts each through the backend. A
// start failure is logged and the entry is left in the running set without
// a service id; the dead-task sweeper requeues it later.
func (r *Runner) dispatch(ctx context.Context) {
	for _, task := range r.scheduler.NextTasks() {
		serviceID, err := r.backend.StartTask(ctx, task)
		if err != nil {
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "start task failed",
					"job_id", task.JobID, "task", task.Name,
					"error", apperrors.Wrap(err, apperrors.ErrCodeBackend, "start task"))
			}
			if r.metrics != nil {
				r.metrics.Count("runner.start_failed", 1, nil)
			}
			continue
		}

		if err := r.scheduler.MarkTaskStarted(ctx, task.JobID, task.Name, serviceID); err != nil {
			if r.logger != nil {
				r.logger.ErrorContext(ctx, "mark task started failed",
					"job_id", task.JobID, "task", task.Name, "service_id", serviceID, "error", err)
			}
			continue
		}

		if r.logger != nil {
			r.logger.InfoContext(ctx, "task dispatched",
				"job_id", task.JobID, "task", task.Name, "service_id", serviceID)
		}
	}
}
