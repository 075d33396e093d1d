package main

import (
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/dustin/go-humanize"

	"tracklift/internal/api"
)

const displayTimeFormat = "2006-01-02T15:04:05.000Z07:00"

var jobListColumns = []tableColumn{
	numericColumn("ID"),
	column("Archive"),
	column("Status"),
	column("Phase"),
	column("Created"),
}

func buildJobListRows(jobs []api.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.ID),
			jobArchiveLabel(job),
			job.Status,
			job.Phase,
			relativeTime(job.CreatedAt),
		})
	}
	return rows
}

// jobArchiveLabel picks the most readable handle on the source archive.
func jobArchiveLabel(job api.Job) string {
	if job.ArchiveKey != "" {
		return job.ArchiveKey
	}
	if parsed, err := url.Parse(job.ArchiveURL); err == nil && parsed.Path != "" {
		return path.Base(parsed.Path)
	}
	return job.ArchiveURL
}

// relativeTime renders an API timestamp as "12 minutes ago". Unparseable
// values pass through unchanged.
func relativeTime(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(displayTimeFormat, value)
	if err != nil {
		return value
	}
	return humanize.Time(parsed)
}

func buildQueueStatsRows(stats map[string]int, order []string) [][]string {
	var rows [][]string
	for _, status := range order {
		if count, ok := stats[status]; ok && count > 0 {
			rows = append(rows, []string{status, fmt.Sprintf("%d", count)})
		}
	}
	return rows
}
