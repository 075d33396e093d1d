package api

import (
	"context"

	"tracklift/internal/queue"
)

// JobReader abstracts queue persistence interactions needed for API queries.
type JobReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error)
	GetByID(ctx context.Context, id int64) (*queue.Job, error)
	HealthSummary(ctx context.Context) (queue.HealthSummary, error)
}

// JobService exposes read-only job operations returning API DTOs.
type JobService struct {
	store JobReader
}

// NewJobService constructs a JobService around the provided reader.
func NewJobService(store JobReader) *JobService {
	if store == nil {
		return nil
	}
	return &JobService{store: store}
}

// List returns jobs filtered by status.
func (s *JobService) List(ctx context.Context, statuses ...queue.Status) ([]Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(jobs), nil
}

// Describe fetches a single job.
func (s *JobService) Describe(ctx context.Context, id int64) (*Job, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	dto := FromJob(job)
	return &dto, nil
}

// Stats returns queue summary counts keyed by status string.
func (s *JobService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	summary, err := s.store.HealthSummary(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		string(queue.StatusQueued):     summary.Queued,
		string(queue.StatusProcessing): summary.Processing,
		string(queue.StatusDone):       summary.Done,
		string(queue.StatusError):      summary.Errored,
	}, nil
}
