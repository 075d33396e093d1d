package queue

import (
	"context"
	"fmt"
	"time"
)

// ClaimProcessing atomically moves a job from a retryable state into
// processing. The conditional update is the idempotency guard: of two racing
// invocations exactly one observes a row change and wins the claim. Jobs
// already processing or done are never re-entered.
func (s *Store) ClaimProcessing(ctx context.Context, id int64, phase string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_jobs
         SET status = ?, phase = ?, started_at = ?, finished_at = NULL,
             error_message = NULL, upload_mbps = NULL,
             created_count = 0, skipped_count = 0, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusProcessing,
		nullableString(phase),
		now,
		now,
		id,
		StatusQueued,
		StatusError,
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

// UpdateProgress merge-patches the mutable progress fields. Nil pointers
// leave the stored values untouched.
func (s *Store) UpdateProgress(ctx context.Context, id int64, phase *string, uploadMbps *float64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	switch {
	case phase != nil && uploadMbps != nil:
		_, err := s.execWithRetry(ctx,
			`UPDATE ingest_jobs SET phase = ?, upload_mbps = ?, updated_at = ? WHERE id = ?`,
			nullableString(*phase), *uploadMbps, now, id)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
	case phase != nil:
		_, err := s.execWithRetry(ctx,
			`UPDATE ingest_jobs SET phase = ?, updated_at = ? WHERE id = ?`,
			nullableString(*phase), now, id)
		if err != nil {
			return fmt.Errorf("update phase: %w", err)
		}
	case uploadMbps != nil:
		_, err := s.execWithRetry(ctx,
			`UPDATE ingest_jobs SET upload_mbps = ?, updated_at = ? WHERE id = ?`,
			*uploadMbps, now, id)
		if err != nil {
			return fmt.Errorf("update throughput: %w", err)
		}
	}
	return nil
}

// MarkDone records a successful terminal state with final counts and throughput.
func (s *Store) MarkDone(ctx context.Context, id int64, phase string, created, skipped int, uploadMbps *float64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_jobs
         SET status = ?, phase = ?, created_count = ?, skipped_count = ?,
             upload_mbps = ?, finished_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusDone,
		nullableString(phase),
		created,
		skipped,
		nullableFloat(uploadMbps),
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job done: %w", err)
	}
	return nil
}

// MarkError records a failed terminal state with the causing message.
func (s *Store) MarkError(ctx context.Context, id int64, phase, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_jobs
         SET status = ?, phase = ?, error_message = ?, finished_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusError,
		nullableString(phase),
		nullableString(message),
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark job error: %w", err)
	}
	return nil
}

// Retry moves errored jobs back to queued for reprocessing. With no ids every
// errored job is requeued.
func (s *Store) Retry(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE ingest_jobs
            SET status = ?, phase = NULL, error_message = NULL,
                started_at = NULL, finished_at = NULL, updated_at = ?
            WHERE status = ?`,
			StatusQueued,
			now,
			StatusError,
		)
		if err != nil {
			return 0, fmt.Errorf("retry errored jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusQueued, now)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE ingest_jobs
        SET status = ?, phase = NULL, error_message = NULL,
            started_at = NULL, finished_at = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusError) + `'`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing returns jobs stranded in processing back to queued.
// Called on daemon startup so a crash mid-job leaves the job retry-eligible.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_jobs
         SET status = ?, phase = 'Reset from stuck processing', updated_at = ?
         WHERE status = ?`,
		StatusQueued,
		now,
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}
