package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying why an ingest job failed. Transport
// failures are retryable; content failures need a corrected archive.
var (
	ErrTransport = errors.New("transport error")
	ErrContent   = errors.New("content error")
	ErrSigning   = errors.New("signing error")
)

// wrap tags an error with a classification marker and step context.
func wrap(marker error, step, message string, err error) error {
	detail := buildDetail(step, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(step, message string) string {
	parts := make([]string, 0, 2)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "ingest failure"
	}
	return strings.Join(parts, ": ")
}

// Retryable reports whether a failed job is worth requeueing without an
// operator fixing the archive first.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrContent)
}
