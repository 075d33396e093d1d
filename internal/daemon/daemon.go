package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tracklift/internal/catalog"
	"tracklift/internal/config"
	"tracklift/internal/ingest"
	"tracklift/internal/logging"
	"tracklift/internal/notifications"
	"tracklift/internal/queue"
	"tracklift/internal/storage"
	"tracklift/internal/workflow"
)

// Options collects the collaborators a daemon needs.
type Options struct {
	Config    *config.Config
	Logger    *slog.Logger
	Jobs      *queue.Store
	Tracks    *catalog.Store
	Objects   *storage.Client
	Processor *ingest.Processor
	Workflow  *workflow.Manager
	Notifier  notifications.Service
}

// Daemon coordinates the background services and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	jobs      *queue.Store
	tracks    *catalog.Store
	objects   *storage.Client
	processor *ingest.Processor
	workflow  *workflow.Manager
	notifier  notifications.Service

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Workflow      workflow.StatusSummary
	JobDBPath     string
	CatalogDBPath string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Jobs == nil || opts.Tracks == nil ||
		opts.Processor == nil || opts.Workflow == nil {
		return nil, errors.New("daemon requires config, stores, processor, and workflow manager")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(opts.Config.Paths.DataDir, "trackliftd.lock")
	d := &Daemon{
		cfg:       opts.Config,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		jobs:      opts.Jobs,
		tracks:    opts.Tracks,
		objects:   opts.Objects,
		processor: opts.Processor,
		workflow:  opts.Workflow,
		notifier:  opts.Notifier,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}

	api, err := newAPIServer(opts.Config, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, and
// launches the workflow manager and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tracklift daemon instance is already running")
	}

	// Jobs stranded in processing by a crash go back to queued.
	if reset, err := d.jobs.ResetStuckProcessing(ctx); err != nil {
		d.logger.Warn("reset interrupted jobs", logging.Error(err))
	} else if reset > 0 {
		d.logger.Info("requeued interrupted jobs", logging.Int64("count", reset))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.workflow.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("tracklift daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("tracklift daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.jobs != nil {
		errs = append(errs, d.jobs.Close())
	}
	if d.tracks != nil {
		errs = append(errs, d.tracks.Close())
	}
	return errors.Join(errs...)
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Workflow:      d.workflow.Status(ctx),
		JobDBPath:     d.jobs.Path(),
		CatalogDBPath: d.tracks.Path(),
		LockFilePath:  d.lockPath,
	}
}

// APIAddr returns the bound API address, or "" before Start.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}
