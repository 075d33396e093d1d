package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	ctxKeyJobID     contextKey = "job_id"
	ctxKeyStage     contextKey = "stage"
	ctxKeyRequestID contextKey = "request_id"
)

// WithJobID attaches a job identifier to the context for log enrichment.
func WithJobID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKeyJobID, id)
}

// WithStage attaches a stage name to the context for log enrichment.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage, stage)
}

// WithRequestID attaches a request identifier to the context for log enrichment.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// WithContext returns a logger enriched with any identifiers carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := ctx.Value(ctxKeyJobID).(int64); ok {
		logger = logger.With(Int64(FieldJobID, id))
	}
	if stage, ok := ctx.Value(ctxKeyStage).(string); ok && stage != "" {
		logger = logger.With(String(FieldStage, stage))
	}
	if id, ok := ctx.Value(ctxKeyRequestID).(string); ok && id != "" {
		logger = logger.With(String(FieldRequestID, id))
	}
	return logger
}
