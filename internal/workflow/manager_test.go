package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"tracklift/internal/queue"
	"tracklift/internal/testsupport"
	"tracklift/internal/workflow"
)

// stubProcessor marks processed jobs done so the queue drains.
type stubProcessor struct {
	store *queue.Store

	mu        sync.Mutex
	processed []int64
}

func (p *stubProcessor) Process(ctx context.Context, jobID int64) error {
	p.mu.Lock()
	p.processed = append(p.processed, jobID)
	p.mu.Unlock()

	if claimed, err := p.store.ClaimProcessing(ctx, jobID, ""); err != nil || !claimed {
		return err
	}
	return p.store.MarkDone(ctx, jobID, "Kész", 0, 0, nil)
}

func (p *stubProcessor) snapshot() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.processed...)
}

func TestManagerDrainsQueueInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenJobStore(t, cfg)

	first := testsupport.Enqueue(t, store, "https://minio.test/music/a.zip", "a.zip")
	second := testsupport.Enqueue(t, store, "https://minio.test/music/b.zip", "b.zip")

	proc := &stubProcessor{store: store}
	manager := workflow.NewManager(cfg, store, proc, nil)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	deadline := time.After(5 * time.Second)
	for {
		processed := proc.snapshot()
		if len(processed) >= 2 {
			if processed[0] != first.ID || processed[1] != second.ID {
				t.Fatalf("expected creation order, got %v", processed)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("queue did not drain, processed %v", processed)
		case <-time.After(10 * time.Millisecond):
		}
	}

	status := manager.Status(context.Background())
	if !status.Running {
		t.Fatal("expected manager to report running")
	}
	if status.LastJobID != second.ID {
		t.Fatalf("expected last job %d, got %d", second.ID, status.LastJobID)
	}
}

func TestManagerKickWakesIdleLoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// Long poll interval so only Kick can wake the loop promptly.
	cfg.Workflow.QueuePollInterval = 60
	store := testsupport.MustOpenJobStore(t, cfg)

	proc := &stubProcessor{store: store}
	manager := workflow.NewManager(cfg, store, proc, nil)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	// Let the loop reach its idle wait before enqueueing.
	time.Sleep(50 * time.Millisecond)
	job := testsupport.Enqueue(t, store, "https://minio.test/music/c.zip", "c.zip")
	manager.Kick()

	deadline := time.After(5 * time.Second)
	for {
		processed := proc.snapshot()
		if len(processed) == 1 && processed[0] == job.ID {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("kick did not wake the loop, processed %v", processed)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestManagerStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	manager := workflow.NewManager(cfg, store, &stubProcessor{store: store}, nil)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJobStore(t, cfg)

	manager := workflow.NewManager(cfg, store, &stubProcessor{store: store}, nil)
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	manager.Stop()
	manager.Stop()

	if status := manager.Status(context.Background()); status.Running {
		t.Fatal("expected manager to report stopped")
	}
}
