package api

import (
	"time"

	"tracklift/internal/queue"
	"tracklift/internal/workflow"
)

// FromJob converts a queue job into its API representation.
func FromJob(job *queue.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:           job.ID,
		ArchiveURL:   job.ArchiveURL,
		ArchiveKey:   job.ArchiveKey,
		SizeMB:       job.SizeMB,
		Status:       string(job.Status),
		Phase:        job.Phase,
		UploadMbps:   job.UploadMbps,
		CreatedCount: job.CreatedCount,
		SkippedCount: job.SkippedCount,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    formatTime(job.CreatedAt),
		UpdatedAt:    formatTime(job.UpdatedAt),
	}
	if job.StartedAt != nil {
		dto.StartedAt = formatTime(*job.StartedAt)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = formatTime(*job.FinishedAt)
	}
	return dto
}

// FromJobs converts a job slice, preserving order.
func FromJobs(jobs []*queue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStatusSummary converts the workflow summary into its API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	return WorkflowStatus{
		Running: summary.Running,
		QueueStats: map[string]int{
			string(queue.StatusQueued):     summary.Queue.Queued,
			string(queue.StatusProcessing): summary.Queue.Processing,
			string(queue.StatusDone):       summary.Queue.Done,
			string(queue.StatusError):      summary.Queue.Errored,
		},
		LastError: summary.LastError,
		LastJobID: summary.LastJobID,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeFormat)
}
