package main

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"tracklift/internal/queue"
	"tracklift/internal/testsupport"
)

func failJob(t *testing.T, store *queue.Store, id int64) {
	t.Helper()
	ctx := context.Background()
	claimed, err := store.ClaimProcessing(ctx, id, "ZIP letöltése és kicsomagolása")
	if err != nil || !claimed {
		t.Fatalf("claim job %d: claimed=%v err=%v", id, claimed, err)
	}
	if err := store.MarkError(ctx, id, "Hiba", "download failed"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
}

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.Enqueue(t, env.store, "https://minio.test/music/zip-uploads/1-alpha.zip", "zip-uploads/1-alpha.zip")
	beta := testsupport.Enqueue(t, env.store, "https://minio.test/music/zip-uploads/2-beta.zip", "zip-uploads/2-beta.zip")
	failJob(t, env.store, beta.ID)

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "queued")
	requireContains(t, out, "error")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "zip-uploads/1-alpha.zip")
	requireContains(t, out, "zip-uploads/2-beta.zip")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "error"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list filtered: %v", err)
	}
	requireContains(t, out, "zip-uploads/2-beta.zip")
	if strings.Contains(out, "zip-uploads/1-alpha.zip") {
		t.Fatalf("queued job leaked into error filter:\n%s", out)
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)

	job := testsupport.Enqueue(t, env.store, "https://minio.test/music/zip-uploads/3-gamma.zip", "zip-uploads/3-gamma.zip")
	failJob(t, env.store, job.ID)

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 job(s)")

	updated, err := env.store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusQueued {
		t.Fatalf("expected queued after retry, got %s", updated.Status)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 job(s)")
}

func TestQueueHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.Enqueue(t, env.store, "https://minio.test/music/zip-uploads/4-delta.zip", "zip-uploads/4-delta.zip")

	out, _, err := runCLI(t, []string{"queue", "health"}, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Job Database")
	requireContains(t, out, "Schema version")
	requireContains(t, out, "Total jobs")
}

func TestShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	job := testsupport.Enqueue(t, env.store, "https://minio.test/music/zip-uploads/5-epsilon.zip", "zip-uploads/5-epsilon.zip")

	_, _, err := runCLI(t, []string{"show", "999"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}

	out, _, err := runCLI(t, []string{"show", strconv.FormatInt(job.ID, 10)}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "zip-uploads/5-epsilon.zip")
	requireContains(t, out, "queued")
}
