// Package logging provides slog construction and shared attribute helpers.
//
// Loggers write to stdout plus a rotating-free append file under the
// configured log directory. Context carriage (WithJobID, WithStage,
// WithRequestID) lets the workflow and HTTP layers enrich records without
// threading loggers through every call.
package logging
