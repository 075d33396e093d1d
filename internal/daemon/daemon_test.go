package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tracklift/internal/api"
	"tracklift/internal/catalog"
	"tracklift/internal/config"
	"tracklift/internal/daemon"
	"tracklift/internal/ingest"
	"tracklift/internal/queue"
	"tracklift/internal/storage"
	"tracklift/internal/testsupport"
	"tracklift/internal/workflow"
)

// fakeBucket emulates the object store for end to end daemon tests.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (b *fakeBucket) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			b.objects[r.URL.Path] = body
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			delete(b.objects, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			data, ok := b.objects[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (b *fakeBucket) put(path string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = data
}

type fixture struct {
	cfg    *config.Config
	bucket *fakeBucket
	jobs   *queue.Store
	tracks *catalog.Store
	daemon *daemon.Daemon
	server *httptest.Server
	base   string
}

// newFixture starts a full daemon on an ephemeral port. The queue poll
// interval is pushed out so only Kick or explicit process calls move
// jobs; the API token is left empty so requests pass auth untouched.
func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	bucket := newFakeBucket()
	server := httptest.NewServer(bucket.handler())
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithStorageEndpoint(server.URL))
	cfg.Workflow.QueuePollInterval = 3600
	for _, fn := range mutate {
		fn(cfg)
	}

	jobs := testsupport.MustOpenJobStore(t, cfg)
	tracks := testsupport.MustOpenCatalogStore(t, cfg)
	objects := storage.NewClient(cfg, server.Client(), nil)
	proc := ingest.NewProcessor(cfg, jobs, tracks, objects, server.Client(), nil, nil)
	manager := workflow.NewManager(cfg, jobs, proc, nil)

	d, err := daemon.New(daemon.Options{
		Config:    cfg,
		Jobs:      jobs,
		Tracks:    tracks,
		Objects:   objects,
		Processor: proc,
		Workflow:  manager,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(d.Stop)

	return &fixture{
		cfg:    cfg,
		bucket: bucket,
		jobs:   jobs,
		tracks: tracks,
		daemon: d,
		server: server,
		base:   "http://" + d.APIAddr(),
	}
}

func (f *fixture) request(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, f.base+path, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		t.Fatalf("decode response %q: %v", data, err)
	}
	return value
}

// waitForStatus polls a job until it reaches the wanted status.
func (f *fixture) waitForStatus(t *testing.T, id int64, want queue.Status) api.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, data := f.request(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d", id), "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("describe returned %d: %s", resp.StatusCode, data)
		}
		job := decode[api.JobResponse](t, data).Job
		if job.Status == string(want) {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %d stuck in %q, wanted %q", id, job.Status, want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func archiveBytes(t *testing.T) []byte {
	t.Helper()
	return testsupport.NewZipBuilder(t).
		AddFile("manifest.csv", []byte("Original Title,ISRC,Catalog No\nNight Drive,AAA000000001,CAT-001\n")).
		AddFile("AAA000000001.wav", []byte("wav payload")).
		AddFile("cover.jpg", []byte("cover payload")).
		Bytes()
}

func TestDaemonSingleInstance(t *testing.T) {
	f := newFixture(t)

	status := f.daemon.Status(context.Background())
	if !status.Running || status.PID <= 0 {
		t.Fatalf("unexpected daemon status: %+v", status)
	}

	second, err := daemon.New(daemon.Options{
		Config:    f.cfg,
		Jobs:      f.jobs,
		Tracks:    f.tracks,
		Processor: ingest.NewProcessor(f.cfg, f.jobs, f.tracks, storage.NewClient(f.cfg, nil, nil), nil, nil, nil),
		Workflow:  workflow.NewManager(f.cfg, f.jobs, nil, nil),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second daemon instance to be rejected")
	} else if !strings.Contains(err.Error(), "already running") {
		t.Fatalf("unexpected start error: %v", err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, data := f.request(t, http.MethodGet, "/api/status", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status returned %d: %s", resp.StatusCode, data)
	}
	status := decode[api.DaemonStatus](t, data)
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon and workflow: %+v", status)
	}
	if status.PID <= 0 || status.JobDBPath == "" || status.CatalogDBPath == "" {
		t.Fatalf("incomplete status payload: %+v", status)
	}
	if status.Workflow.QueueStats == nil {
		t.Fatal("expected queue stats in status payload")
	}
}

func TestEnqueueProcessesArchive(t *testing.T) {
	f := newFixture(t)
	f.bucket.put("/music/zip-uploads/1-release.zip", archiveBytes(t))

	resp, data := f.request(t, http.MethodPost, "/api/jobs", "", api.EnqueueRequest{
		ArchiveURL: f.server.URL + "/music/zip-uploads/1-release.zip",
		ObjectKey:  "zip-uploads/1-release.zip",
		SizeMB:     0.5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("enqueue returned %d: %s", resp.StatusCode, data)
	}
	created := decode[api.JobResponse](t, data).Job
	if created.Status != string(queue.StatusQueued) {
		t.Fatalf("new job should start queued, got %q", created.Status)
	}

	done := f.waitForStatus(t, created.ID, queue.StatusDone)
	if done.Phase != "Kész" || done.CreatedCount != 1 || done.SkippedCount != 0 {
		t.Fatalf("unexpected terminal job: %+v", done)
	}

	resp, data = f.request(t, http.MethodGet, "/api/jobs?status=done", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d: %s", resp.StatusCode, data)
	}
	list := decode[api.JobListResponse](t, data)
	if len(list.Jobs) != 1 || list.Jobs[0].ID != created.ID {
		t.Fatalf("expected the finished job in the done list, got %+v", list.Jobs)
	}

	tracks, err := f.tracks.ListByCatalogNo(context.Background(), "CAT-001")
	if err != nil {
		t.Fatalf("ListByCatalogNo failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected 1 saved track, got %d", len(tracks))
	}
}

func TestEnqueueRejectsMissingURL(t *testing.T) {
	f := newFixture(t)

	resp, data := f.request(t, http.MethodPost, "/api/jobs", "", api.EnqueueRequest{ObjectKey: "zip-uploads/1-release.zip"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, data)
	}
	if !strings.Contains(decode[api.ErrorResponse](t, data).Error, "file_url") {
		t.Fatalf("error should name the missing field: %s", data)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	resp, data := f.request(t, http.MethodGet, "/api/jobs?status=paused", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, data)
	}
}

func TestProgressWebhook(t *testing.T) {
	f := newFixture(t)
	job := testsupport.Enqueue(t, f.jobs, f.server.URL+"/music/zip-uploads/2-release.zip", "zip-uploads/2-release.zip")
	path := fmt.Sprintf("/api/jobs/%d/progress", job.ID)
	phase := "WAV fájlok feltöltése (MinIO) — 1/3"

	resp, _ := f.request(t, http.MethodPost, path, "", api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token should be rejected, got %d", resp.StatusCode)
	}
	resp, _ = f.request(t, http.MethodPost, path, "wrong-token", api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong token should be rejected, got %d", resp.StatusCode)
	}

	resp, data := f.request(t, http.MethodPost, path, f.cfg.Ingest.WebhookToken, api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress returned %d: %s", resp.StatusCode, data)
	}
	updated := decode[api.JobResponse](t, data).Job
	if updated.Phase != phase || updated.UploadMbps != nil {
		t.Fatalf("unexpected merge result: %+v", updated)
	}

	mbps := 14.2
	resp, data = f.request(t, http.MethodPost, path, f.cfg.Ingest.WebhookToken, api.ProgressRequest{UploadMbps: &mbps})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress returned %d: %s", resp.StatusCode, data)
	}
	updated = decode[api.JobResponse](t, data).Job
	if updated.Phase != phase {
		t.Fatalf("phase should survive a throughput-only update, got %q", updated.Phase)
	}
	if updated.UploadMbps == nil || *updated.UploadMbps != mbps {
		t.Fatalf("expected upload_mbps %v, got %+v", mbps, updated.UploadMbps)
	}

	resp, _ = f.request(t, http.MethodPost, path, f.cfg.Ingest.WebhookToken, api.ProgressRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty patch should be rejected, got %d", resp.StatusCode)
	}
	resp, _ = f.request(t, http.MethodPost, "/api/jobs/9999/progress", f.cfg.Ingest.WebhookToken, api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job should 404, got %d", resp.StatusCode)
	}
	resp, _ = f.request(t, http.MethodPost, "/api/jobs/abc/progress", f.cfg.Ingest.WebhookToken, api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad job id should 400, got %d", resp.StatusCode)
	}
}

// With no webhook secret configured the progress route rejects every
// request rather than inheriting the open-when-empty operator behavior.
func TestProgressWebhookClosedWithoutSecret(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Ingest.WebhookToken = ""
		cfg.Paths.APIToken = ""
	})
	job := testsupport.Enqueue(t, f.jobs, f.server.URL+"/music/zip-uploads/5-release.zip", "zip-uploads/5-release.zip")
	path := fmt.Sprintf("/api/jobs/%d/progress", job.ID)
	phase := "ZIP letöltése és kicsomagolása"

	resp, _ := f.request(t, http.MethodPost, path, "", api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated progress should be rejected, got %d", resp.StatusCode)
	}
	resp, _ = f.request(t, http.MethodPost, path, "any-token", api.ProgressRequest{Phase: &phase})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("progress with a guessed token should be rejected, got %d", resp.StatusCode)
	}

	// Operator routes stay open without a token; only the webhook closes.
	resp, _ = f.request(t, http.MethodGet, fmt.Sprintf("/api/jobs/%d", job.ID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("describe should remain reachable, got %d", resp.StatusCode)
	}
}

func TestProcessEndpoint(t *testing.T) {
	f := newFixture(t)
	f.bucket.put("/music/zip-uploads/3-release.zip", archiveBytes(t))
	job := testsupport.Enqueue(t, f.jobs, f.server.URL+"/music/zip-uploads/3-release.zip", "zip-uploads/3-release.zip")

	resp, data := f.request(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/process", job.ID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("process returned %d: %s", resp.StatusCode, data)
	}
	if !decode[api.ProcessResponse](t, data).Started {
		t.Fatalf("expected processing to start: %s", data)
	}

	f.waitForStatus(t, job.ID, queue.StatusDone)

	resp, data = f.request(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/process", job.ID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat process returned %d: %s", resp.StatusCode, data)
	}
	repeat := decode[api.ProcessResponse](t, data)
	if repeat.Started || !strings.Contains(repeat.Message, "done") {
		t.Fatalf("finished job must not restart: %+v", repeat)
	}

	resp, _ = f.request(t, http.MethodPost, "/api/jobs/9999/process", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown job should 404, got %d", resp.StatusCode)
	}
}

func TestUploadsPresign(t *testing.T) {
	f := newFixture(t)

	resp, data := f.request(t, http.MethodPost, "/api/uploads", "", api.PresignRequest{FileName: "release batch.zip"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("presign returned %d: %s", resp.StatusCode, data)
	}
	result := decode[storage.PresignResult](t, data)
	if !strings.HasPrefix(result.ObjectKey, "zip-uploads/") || !strings.HasSuffix(result.ObjectKey, "-release batch.zip") {
		t.Fatalf("unexpected object key: %s", result.ObjectKey)
	}
	if !strings.Contains(result.UploadURL, "X-Amz-Signature=") {
		t.Fatalf("presigned URL missing signature: %s", result.UploadURL)
	}
	if result.FileURL == "" {
		t.Fatal("expected final object URL in response")
	}

	resp, _ = f.request(t, http.MethodPost, "/api/uploads", "", api.PresignRequest{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty file name should 400, got %d", resp.StatusCode)
	}
}
