package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Runner JobRunner
	Logger *slog.Logger
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	handlers := NewJobHandlers(services.Runner, services.Logger)

	mux.HandleFunc("POST /submit", handlers.SubmitJob)
	mux.HandleFunc("GET /status/{job_id}", handlers.JobStatus)
	mux.HandleFunc("GET /status/{job_id}/tasks", handlers.JobTasks)
	mux.HandleFunc("POST /result/{job_id}", handlers.TaskResult)

	mux.HandleFunc("GET /test", aliveHandler)
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	return mux
}
