package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes an ingest job in a transport-friendly format. Field
// names follow the wire format the admin UI already speaks.
type Job struct {
	ID           int64    `json:"id"`
	ArchiveURL   string   `json:"file_url"`
	ArchiveKey   string   `json:"object_key,omitempty"`
	SizeMB       float64  `json:"size_mb,omitempty"`
	Status       string   `json:"status"`
	Phase        string   `json:"phase,omitempty"`
	UploadMbps   *float64 `json:"upload_mbps,omitempty"`
	CreatedCount int      `json:"created"`
	SkippedCount int      `json:"skipped"`
	ErrorMessage string   `json:"error_message,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	StartedAt    string   `json:"started_at,omitempty"`
	FinishedAt   string   `json:"finished_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	QueueStats map[string]int `json:"queue_stats"`
	LastError  string         `json:"last_error,omitempty"`
	LastJobID  int64          `json:"last_job_id,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	JobDBPath     string         `json:"job_db_path"`
	CatalogDBPath string         `json:"catalog_db_path"`
	LockFilePath  string         `json:"lock_file_path"`
	Workflow      WorkflowStatus `json:"workflow"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job for API responses.
type JobResponse struct {
	Job Job `json:"job"`
}

// EnqueueRequest is the payload for creating an ingest job.
type EnqueueRequest struct {
	ArchiveURL string  `json:"file_url"`
	ObjectKey  string  `json:"object_key"`
	SizeMB     float64 `json:"size_mb"`
}

// ProgressRequest is the merge-patch payload workers post while a job
// runs. Absent fields leave the stored value untouched.
type ProgressRequest struct {
	Phase      *string  `json:"phase"`
	UploadMbps *float64 `json:"upload_mbps"`
}

// PresignRequest asks for a browser upload slot.
type PresignRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// ProcessResponse reports the outcome of an explicit process trigger.
type ProcessResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
