package model

import (
	"encoding/json"
	"strconv"

	"github.com/openswarm/swarmer/internal/errors"
)

// StatusNotReported is the sentinel exit status a task carries until the
// container reports a real one. Chosen outside the 0-255 range of process
// exit codes so it can never collide with a legitimate status.
const StatusNotReported = 500

// Redis hash field names for a job record. Fields with a double-underscore
// prefix are job-level metadata; `tasks` holds the serialized task list.
const (
	FieldImage             = "__image"
	FieldCallback          = "__callback"
	FieldTasks             = "tasks"
	FieldTaskCountTotal    = "__task_count_total"
	FieldTaskCountStarted  = "__task_count_started"
	FieldTaskCountComplete = "__task_count_complete"
)

// TaskResult holds the captured output of a finished task. Both streams are
// null until the task reports back. The validate tags apply only where the
// struct arrives inside a result callback, which must carry both streams.
type TaskResult struct {
	Stdout *string `json:"stdout" validate:"required"`
	Stderr *string `json:"stderr" validate:"required"`
}

// Task is a single unit of work inside a job, persisted as an element of
// the serialized task list.
type Task struct {
	Name   string     `json:"name"`
	Args   []string   `json:"args"`
	Status int        `json:"status"`
	Result TaskResult `json:"result"`
	// ServiceID is the backend service identifier, set once the task is dispatched.
	ServiceID string `json:"__task_id,omitempty"`
}

// NewTask builds a task in its initial, not-yet-reported state.
func NewTask(name string, args []string) Task {
	return Task{
		Name:   name,
		Args:   args,
		Status: StatusNotReported,
	}
}

// RunnableTask describes a claimed task ready to be dispatched to the backend.
type RunnableTask struct {
	JobID string
	Name  string
	Args  []string
	Image string
}

// JobRecord is a fully decoded job: the store hash with counters parsed and
// the task list deserialized. It is the shape posted to callback URLs and
// returned by the status endpoint.
type JobRecord struct {
	ID                string `json:"id"`
	Image             string `json:"__image"`
	Callback          string `json:"__callback"`
	TaskCountTotal    int    `json:"__task_count_total"`
	TaskCountStarted  int    `json:"__task_count_started"`
	TaskCountComplete int    `json:"__task_count_complete"`
	Tasks             []Task `json:"tasks"`
}

// ParseJobRecord decodes the raw hash returned by the store into a JobRecord.
func ParseJobRecord(id string, raw map[string]string) (JobRecord, error) {
	rec := JobRecord{
		ID:       id,
		Image:    raw[FieldImage],
		Callback: raw[FieldCallback],
	}

	if serialized, ok := raw[FieldTasks]; ok && serialized != "" {
		if err := json.Unmarshal([]byte(serialized), &rec.Tasks); err != nil {
			return JobRecord{}, errors.Wrapf(err, errors.ErrCodeInternal, "decode task list for job %s", id)
		}
	}

	for field, dst := range map[string]*int{
		FieldTaskCountTotal:    &rec.TaskCountTotal,
		FieldTaskCountStarted:  &rec.TaskCountStarted,
		FieldTaskCountComplete: &rec.TaskCountComplete,
	} {
		value, ok := raw[field]
		if !ok || value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return JobRecord{}, errors.Wrapf(err, errors.ErrCodeInternal, "decode %s for job %s", field, id)
		}
		*dst = n
	}

	return rec, nil
}
