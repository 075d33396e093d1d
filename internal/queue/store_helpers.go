package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, archive_url, archive_key, size_mb, status, phase, upload_mbps, created_count, skipped_count, error_message, created_at, started_at, finished_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           int64
		archiveURL   string
		archiveKey   sql.NullString
		sizeMB       sql.NullFloat64
		statusStr    string
		phase        sql.NullString
		uploadMbps   sql.NullFloat64
		createdCount sql.NullInt64
		skippedCount sql.NullInt64
		errorMessage sql.NullString
		createdRaw   sql.NullString
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&archiveURL,
		&archiveKey,
		&sizeMB,
		&statusStr,
		&phase,
		&uploadMbps,
		&createdCount,
		&skippedCount,
		&errorMessage,
		&createdRaw,
		&startedRaw,
		&finishedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:           id,
		ArchiveURL:   archiveURL,
		ArchiveKey:   archiveKey.String,
		SizeMB:       sizeMB.Float64,
		Status:       Status(statusStr),
		Phase:        phase.String,
		CreatedCount: int(createdCount.Int64),
		SkippedCount: int(skippedCount.Int64),
		ErrorMessage: errorMessage.String,
	}
	if uploadMbps.Valid {
		v := uploadMbps.Float64
		job.UploadMbps = &v
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			job.StartedAt = &started
		}
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
