package notifications

import (
	"context"
	"log/slog"

	"tracklift/internal/logging"
	"tracklift/internal/queue"
)

// ProcessorNotifier adapts Service to the fire-and-forget surface the
// ingest processor expects. Delivery failures are logged, never
// propagated into job outcomes.
type ProcessorNotifier struct {
	service Service
	logger  *slog.Logger
}

// NewProcessorNotifier wraps a Service for use by the ingest processor.
func NewProcessorNotifier(service Service, logger *slog.Logger) *ProcessorNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProcessorNotifier{
		service: service,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

func (p *ProcessorNotifier) JobCompleted(ctx context.Context, job *queue.Job) {
	if err := p.service.NotifyJobCompleted(ctx, job); err != nil {
		p.logger.WarnContext(ctx, "deliver completion notification", logging.Error(err))
	}
}

func (p *ProcessorNotifier) JobFailed(ctx context.Context, job *queue.Job, message string) {
	if err := p.service.NotifyJobFailed(ctx, job, message); err != nil {
		p.logger.WarnContext(ctx, "deliver failure notification", logging.Error(err))
	}
}
