package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Enqueue inserts a new job for an uploaded archive awaiting processing.
func (s *Store) Enqueue(ctx context.Context, archiveURL, archiveKey string, sizeMB float64) (*Job, error) {
	if archiveURL == "" {
		return nil, errors.New("archive URL is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO ingest_jobs (
            archive_url, archive_key, size_mb, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		archiveURL,
		nullableString(archiveKey),
		sizeMB,
		StatusQueued,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. Returns nil when no job exists.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM ingest_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM ingest_jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// NextQueued returns the oldest queued job, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+jobColumns+` FROM ingest_jobs WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		StatusQueued,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued job: %w", err)
	}
	return job, nil
}

// HealthSummary aggregates job counts per lifecycle state.
func (s *Store) HealthSummary(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	summary := HealthSummary{}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM ingest_jobs GROUP BY status`)
	if err != nil {
		return summary, fmt.Errorf("summarize jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return summary, err
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusQueued:
			summary.Queued = count
		case StatusProcessing:
			summary.Processing = count
		case StatusDone:
			summary.Done = count
		case StatusError:
			summary.Errored = count
		}
	}
	return summary, rows.Err()
}

// Clear removes jobs in the provided statuses, or every job when none are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		res, err := s.execWithRetry(ctx, `DELETE FROM ingest_jobs`)
		if err != nil {
			return 0, fmt.Errorf("clear jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM ingest_jobs WHERE status IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs by status: %w", err)
	}
	return res.RowsAffected()
}

// Health inspects the database file and schema for diagnostics.
func (s *Store) Health(ctx context.Context) DatabaseHealth {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path, DatabaseExists: true, DatabaseReadable: true}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		health.Error = fmt.Sprintf("read schema version: %v", err)
		return health
	}
	health.SchemaVersion = fmt.Sprintf("%d", version)

	var tableCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='ingest_jobs'",
	).Scan(&tableCount); err != nil {
		health.Error = fmt.Sprintf("check ingest_jobs table: %v", err)
		return health
	}
	health.TableExists = tableCount > 0

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = fmt.Sprintf("integrity check: %v", err)
		return health
	}
	health.IntegrityCheck = integrity == "ok"

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM ingest_jobs").Scan(&health.TotalJobs); err != nil {
		health.Error = fmt.Sprintf("count jobs: %v", err)
	}
	return health
}
