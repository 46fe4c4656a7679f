// Package core defines the contracts between the scheduling engine and its
// adapters: the durable job store, the container backend, and the result
// poster.
package core

import (
	"context"

	"github.com/openswarm/swarmer/internal/domain/model"
)

// JobStore is the durable record of jobs and their tasks. One record per
// job id; task state lives in a serialized list inside the record, counters
// are updated atomically.
//
// Implementations must return a not_found error for operations on absent
// jobs or tasks, and a store error for infrastructure failures.
type JobStore interface {
	// AddJob creates the record with image, callback, and an empty task list.
	AddJob(ctx context.Context, id, image, callback string) error

	// AddTasks replaces the task list with the given tasks in initial state
	// and resets all three counters. Fails if the job does not exist.
	AddTasks(ctx context.Context, id string, tasks []model.TaskSubmission) error

	// UpdateTaskStatus sets the exit status of a single task.
	UpdateTaskStatus(ctx context.Context, id, taskName string, status int) error

	// UpdateTaskResult sets the captured output of a single task.
	UpdateTaskResult(ctx context.Context, id, taskName string, result model.TaskResult) error

	// SetTaskServiceID records the backend service identifier for a task.
	SetTaskServiceID(ctx context.Context, id, taskName, serviceID string) error

	// GetJob returns the whole record as a string map; the task list stays
	// serialized (callers deserialize via model.ParseJobRecord).
	GetJob(ctx context.Context, id string) (map[string]string, error)

	// GetTasks returns the deserialized task list.
	GetTasks(ctx context.Context, id string) ([]model.Task, error)

	// GetTask returns a single task by name.
	GetTask(ctx context.Context, id, taskName string) (model.Task, error)

	// IncrTaskCount atomically adjusts a counter field and returns the new value.
	IncrTaskCount(ctx context.Context, id, field string, delta int64) (int64, error)

	// GetTaskCount returns the current value of a counter field.
	GetTaskCount(ctx context.Context, id, field string) (int64, error)

	// ClearJob removes the record entirely. Fails if the job does not exist.
	ClearJob(ctx context.Context, id string) error
}

// ContainerBackend starts one-shot task containers and removes their
// services once the scheduler is done with them.
type ContainerBackend interface {
	// StartTask creates a one-shot service for the task and returns its
	// backend service identifier.
	StartTask(ctx context.Context, task model.RunnableTask) (string, error)

	// RemoveServices removes a batch of services, silently skipping
	// identifiers the backend no longer knows.
	RemoveServices(ctx context.Context, serviceIDs []string) error
}

// ResultPoster delivers an aggregated job record to its callback URL.
type ResultPoster interface {
	PostJobResult(ctx context.Context, record model.JobRecord) error
}
