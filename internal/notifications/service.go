package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tracklift/internal/config"
	"tracklift/internal/queue"
)

const userAgent = "Tracklift/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobQueued(ctx context.Context, job *queue.Job) error
	NotifyJobCompleted(ctx context.Context, job *queue.Job) error
	NotifyJobFailed(ctx context.Context, job *queue.Job, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		jobEvents:  cfg.Notifications.Jobs,
		errorAlert: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	jobEvents  bool
	errorAlert bool
}

func (n *ntfyService) NotifyJobQueued(ctx context.Context, job *queue.Job) error {
	if !n.jobEvents {
		return nil
	}
	data := payload{
		title:   "Tracklift - Job Queued",
		message: fmt.Sprintf("Archive queued for ingestion: %s", archiveLabel(job)),
		tags:    []string{"tracklift", "job", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job *queue.Job) error {
	if !n.jobEvents {
		return nil
	}
	message := fmt.Sprintf("Ingestion complete: %s\nCreated %d, skipped %d",
		archiveLabel(job), job.CreatedCount, job.SkippedCount)
	if job.UploadMbps != nil {
		message = fmt.Sprintf("%s at %.2f Mbit/s", message, *job.UploadMbps)
	}
	data := payload{
		title:    "Tracklift - Job Complete",
		message:  message,
		tags:     []string{"tracklift", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job *queue.Job, message string) error {
	if !n.errorAlert {
		return nil
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown"
	}
	data := payload{
		title:    "Tracklift - Job Failed",
		message:  fmt.Sprintf("Ingestion failed: %s\n%s", archiveLabel(job), message),
		tags:     []string{"tracklift", "job", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Tracklift - Test",
		message:  "Notification system test",
		tags:     []string{"tracklift", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func archiveLabel(job *queue.Job) string {
	if job == nil {
		return "unknown archive"
	}
	if job.ArchiveKey != "" {
		return job.ArchiveKey
	}
	return job.ArchiveURL
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobQueued(context.Context, *queue.Job) error         { return nil }
func (noopService) NotifyJobCompleted(context.Context, *queue.Job) error      { return nil }
func (noopService) NotifyJobFailed(context.Context, *queue.Job, string) error { return nil }
func (noopService) TestNotification(context.Context) error                    { return nil }
