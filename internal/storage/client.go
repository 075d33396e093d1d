package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracklift/internal/config"
	"tracklift/internal/logging"
)

// HTTPDoer abstracts the HTTP client so tests can intercept transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transfer reports how many bytes a request moved and how long it took.
type Transfer struct {
	Bytes    int64
	Duration time.Duration
}

// PresignResult describes a presigned browser upload slot.
type PresignResult struct {
	UploadURL string `json:"presigned_url"`
	FileURL   string `json:"file_url"`
	ObjectKey string `json:"object_key"`
}

// Client performs signed requests against one bucket of the object store.
type Client struct {
	endpoint      string
	bucket        string
	signer        *Signer
	presignExpiry time.Duration
	httpClient    HTTPDoer
	logger        *slog.Logger
	now           func() time.Time
}

// NewClient builds a client from the storage configuration. A nil doer
// falls back to a plain http.Client.
func NewClient(cfg *config.Config, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = &http.Client{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		endpoint:      strings.TrimRight(cfg.Storage.Endpoint, "/"),
		bucket:        cfg.Storage.Bucket,
		signer:        NewSigner(cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region),
		presignExpiry: time.Duration(cfg.Storage.PresignExpirySeconds) * time.Second,
		httpClient:    doer,
		logger:        logger.With(logging.String(logging.FieldComponent, "storage")),
		now:           time.Now,
	}
}

// ObjectURL returns the public URL of an object key in the bucket.
func (c *Client) ObjectURL(key string) string {
	return c.endpoint + "/" + c.bucket + "/" + key
}

// Upload PUTs data under key and returns the object's URL along with the
// measured transfer.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) (string, Transfer, error) {
	signed, err := c.signer.Sign(http.MethodPut, c.ObjectURL(key), data, contentType)
	if err != nil {
		return "", Transfer{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.URL, bytes.NewReader(data))
	if err != nil {
		return "", Transfer{}, fmt.Errorf("build upload request: %w", err)
	}
	for name, value := range signed.Headers {
		req.Header.Set(name, value)
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Transfer{}, fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	transfer := Transfer{Bytes: int64(len(data)), Duration: c.now().Sub(start)}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", transfer, &UploadError{
			Path:       key,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	c.logger.DebugContext(ctx, "uploaded object",
		logging.String("key", key),
		logging.Int64("bytes", transfer.Bytes),
		logging.Duration("elapsed", transfer.Duration))
	return c.ObjectURL(key), transfer, nil
}

// Delete removes an object. Callers treat failures as advisory; the
// returned error exists for logging.
func (c *Client) Delete(ctx context.Context, key string) error {
	signed, err := c.signer.Sign(http.MethodDelete, c.ObjectURL(key), nil, "application/octet-stream")
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, signed.URL, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	for name, value := range signed.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("delete %s: status %d", key, resp.StatusCode)
	}
	return nil
}

// PresignPut reserves an upload slot for a browser-side archive upload.
// The object key embeds the current time so repeated uploads of the same
// file never collide.
func (c *Client) PresignPut(fileName, contentType string) (*PresignResult, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if contentType == "" {
		contentType = "application/zip"
	}

	objectKey := fmt.Sprintf("zip-uploads/%d-%s", c.now().UnixMilli(), fileName)
	uploadURL, err := c.signer.Presign(c.ObjectURL(objectKey), contentType, c.presignExpiry)
	if err != nil {
		return nil, err
	}
	return &PresignResult{
		UploadURL: uploadURL,
		FileURL:   c.ObjectURL(objectKey),
		ObjectKey: objectKey,
	}, nil
}

// ObjectKeyFromURL extracts the bucket-relative key from an object URL.
// It returns "" when the URL does not address this client's bucket.
func (c *Client) ObjectKeyFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	prefix := "/" + c.bucket + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return ""
	}
	return parsed.Path[len(prefix):]
}

// MbitsPerSecond converts a byte count over an elapsed duration into
// megabits per second, rounded to two decimals.
func MbitsPerSecond(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	mbits := float64(bytes) * 8 / 1e6
	value := mbits / elapsed.Seconds()
	return math.Round(value*100) / 100
}
