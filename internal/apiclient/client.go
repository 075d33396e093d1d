// Package apiclient provides HTTP access to a running tracklift daemon.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracklift/internal/api"
	"tracklift/internal/storage"
)

// Client calls the daemon HTTP API.
type Client struct {
	base   string
	token  string
	client *http.Client
}

// Dial verifies the daemon at address is reachable and returns a client
// bound to it. The address is a host:port pair or a full http URL.
func Dial(ctx context.Context, address, token string) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(address), "/")
	if base == "" {
		return nil, fmt.Errorf("daemon address is required")
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	c := &Client{
		base:   base,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	if _, err := c.Status(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Status retrieves daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.call(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs returns ingest jobs, optionally filtered by status.
func (c *Client) ListJobs(ctx context.Context, statuses []string) ([]api.Job, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		query := url.Values{}
		for _, status := range statuses {
			query.Add("status", status)
		}
		path += "?" + query.Encode()
	}
	var resp api.JobListResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// DescribeJob returns one job, or nil when the daemon does not know it.
func (c *Client) DescribeJob(ctx context.Context, id int64) (*api.Job, error) {
	var resp api.JobResponse
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", id), nil, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &resp.Job, nil
}

// Enqueue registers an uploaded archive for ingestion.
func (c *Client) Enqueue(ctx context.Context, fileURL, objectKey string, sizeMB float64) (*api.Job, error) {
	req := api.EnqueueRequest{ArchiveURL: fileURL, ObjectKey: objectKey, SizeMB: sizeMB}
	var resp api.JobResponse
	if err := c.call(ctx, http.MethodPost, "/api/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Process asks the daemon to run one job immediately.
func (c *Client) Process(ctx context.Context, id int64) (*api.ProcessResponse, error) {
	var resp api.ProcessResponse
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/jobs/%d/process", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Presign requests a browser upload slot for an archive.
func (c *Client) Presign(ctx context.Context, fileName, contentType string) (*storage.PresignResult, error) {
	req := api.PresignRequest{FileName: fileName, ContentType: contentType}
	var resp storage.PresignResult
	if err := c.call(ctx, http.MethodPost, "/api/uploads", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apiError{status: resp.StatusCode, message: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("daemon returned %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("daemon returned %d", e.status)
}

func errorMessage(data []byte) string {
	var payload api.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

func isNotFound(err error) bool {
	apiErr, ok := err.(*apiError)
	return ok && apiErr.status == http.StatusNotFound
}
