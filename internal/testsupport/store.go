package testsupport

import (
	"context"
	"testing"

	"tracklift/internal/catalog"
	"tracklift/internal/config"
	"tracklift/internal/queue"
)

// MustOpenJobStore opens a queue.Store for tests and registers cleanup.
func MustOpenJobStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenCatalogStore opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalogStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue adds a queued ingest job for tests using the provided store.
func Enqueue(t testing.TB, store *queue.Store, archiveURL, archiveKey string) *queue.Job {
	t.Helper()

	job, err := store.Enqueue(context.Background(), archiveURL, archiveKey, 1)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return job
}
