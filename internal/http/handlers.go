// Package httpx provides the HTTP surface of the swarmer job system.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/openswarm/swarmer/internal/domain/model"
	apperrors "github.com/openswarm/swarmer/internal/errors"
)

// JobRunner is the orchestration surface the handlers talk to.
type JobRunner interface {
	CreateJob(ctx context.Context, req model.SubmitJobRequest) (string, error)
	CompleteTask(ctx context.Context, jobID string, req model.TaskResultRequest) error
	JobStatus(ctx context.Context, jobID string) (model.JobRecord, error)
	JobTasks(ctx context.Context, jobID string) ([]model.Task, error)
}

// JobHandlers provides HTTP handlers for job submission, status, and task
// result reporting.
type JobHandlers struct {
	Runner   JobRunner
	Validate *validator.Validate
	Logger   *slog.Logger
}

// NewJobHandlers constructs handlers with a shared validator instance.
func NewJobHandlers(runner JobRunner, logger *slog.Logger) *JobHandlers {
	return &JobHandlers{
		Runner:   runner,
		Validate: validator.New(validator.WithRequiredStructEnabled()),
		Logger:   logger,
	}
}

// SubmitJob accepts a job with its full task list, queues it, and returns
// the generated job id with a Location pointing at the status endpoint.
func (h *JobHandlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Validate.StructCtx(r.Context(), req); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	// task_args must be present on every task. An empty list is fine; an
	// absent key is not, and the validator cannot tell the two apart.
	for i := range req.Tasks {
		if req.Tasks[i].TaskArgs == nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "validation_failed",
				Err:     fmt.Errorf("tasks[%d]: task_args is required", i),
			})
			return
		}
	}

	id, err := h.Runner.CreateJob(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	w.Header().Set("Location", "/status/"+id)
	WriteJSON(w, http.StatusCreated, model.SubmitJobResponse{ID: id})
}

// JobStatus returns the full job record including per-task state.
func (h *JobHandlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")})
		return
	}

	record, err := h.Runner.JobStatus(r.Context(), jobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

// JobTasks returns just the task list of a job.
func (h *JobHandlers) JobTasks(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")})
		return
	}

	tasks, err := h.Runner.JobTasks(r.Context(), jobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tasks)
}

// TaskResult ingests a result callback from a task container. A report for
// an unknown job is a 404; a late or duplicate report for a known job is
// acknowledged and dropped.
func (h *JobHandlers) TaskResult(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	if jobID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")})
		return
	}

	var req model.TaskResultRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Validate.StructCtx(r.Context(), req); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		return
	}

	if err := h.Runner.CompleteTask(r.Context(), jobID, req); err != nil {
		if h.Logger != nil && !apperrors.IsNotFound(err) {
			h.Logger.ErrorContext(r.Context(), "task result ingest failed",
				"job_id", jobID, "task", req.TaskName, "error", err)
		}
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// aliveHandler is a plain-text liveness probe kept for compatibility with
// task containers that poll it.
func aliveHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("I am ALIVE"))
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
