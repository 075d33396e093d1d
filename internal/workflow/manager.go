package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tracklift/internal/config"
	"tracklift/internal/logging"
	"tracklift/internal/queue"
)

// JobProcessor executes a single ingest job to a terminal state.
type JobProcessor interface {
	Process(ctx context.Context, jobID int64) error
}

// Manager coordinates queue processing with a single worker loop.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	processor     JobProcessor
	logger        *slog.Logger
	pollInterval  time.Duration
	retryInterval time.Duration
	wake          chan struct{}

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastJobID int64
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, processor JobProcessor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		processor:     processor,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		wake:          make(chan struct{}, 1),
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Kick wakes the worker loop early, typically right after an enqueue.
func (m *Manager) Kick() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.NextQueued(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.ErrorContext(ctx, "fetch next queued job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"))
			m.sleep(ctx, m.retryInterval)
			continue
		}
		if job == nil {
			m.sleep(ctx, m.pollInterval)
			continue
		}

		m.setLastJob(job.ID)
		if err := m.processor.Process(ctx, job.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
		}
		// Chain directly to the next queued job.
	}
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(d):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(id int64) {
	m.mu.Lock()
	m.lastJobID = id
	m.mu.Unlock()
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool                `json:"running"`
	LastError string              `json:"last_error,omitempty"`
	LastJobID int64               `json:"last_job_id,omitempty"`
	Queue     queue.HealthSummary `json:"queue"`
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJobID := m.lastJobID
	m.mu.RUnlock()

	summary := StatusSummary{Running: running, LastJobID: lastJobID}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	stats, err := m.store.HealthSummary(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "read queue summary", logging.Error(err))
		return summary
	}
	summary.Queue = stats
	return summary
}
