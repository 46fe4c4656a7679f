package model

// TaskSubmission is a single task inside a job submission.
type TaskSubmission struct {
	TaskName string   `json:"task_name" validate:"required"`
	TaskArgs []string `json:"task_args"`
}

// SubmitJobRequest is the body of POST /submit.
type SubmitJobRequest struct {
	ImageName   string           `json:"image_name"   validate:"required"`
	CallbackURL string           `json:"callback_url" validate:"required,url"`
	Tasks       []TaskSubmission `json:"tasks"        validate:"required,min=1,dive"`
}

// SubmitJobResponse is the body returned for a successful submission.
type SubmitJobResponse struct {
	ID string `json:"id"`
}

// TaskResultRequest is the body of POST /result/{job_id}, sent by the task
// container when it finishes.
type TaskResultRequest struct {
	TaskName   string     `json:"task_name" validate:"required"`
	TaskStatus int        `json:"task_status"`
	TaskResult TaskResult `json:"task_result"`
}
