// Package daemonrun boots the tracklift daemon process: logging, stores,
// object storage, the ingest processor, and the HTTP API, then blocks
// until the process receives a termination signal.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"tracklift/internal/catalog"
	"tracklift/internal/config"
	"tracklift/internal/daemon"
	"tracklift/internal/ingest"
	"tracklift/internal/logging"
	"tracklift/internal/notifications"
	"tracklift/internal/queue"
	"tracklift/internal/storage"
	"tracklift/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the tracklift daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("tracklift-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update tracklift.log link: %v\n", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "trackliftd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	jobs, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer jobs.Close()

	tracks, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog store", logging.Error(err))
		return err
	}
	defer tracks.Close()

	objects := storage.NewClient(cfg, nil, logger)
	notifier := notifications.NewService(cfg)
	processor := ingest.NewProcessor(cfg, jobs, tracks, objects, nil,
		notifications.NewProcessorNotifier(notifier, logger), logger)
	manager := workflow.NewManager(cfg, jobs, processor, logger)

	d, err := daemon.New(daemon.Options{
		Config:    cfg,
		Logger:    logger,
		Jobs:      jobs,
		Tracks:    tracks,
		Objects:   objects,
		Processor: processor,
		Workflow:  manager,
		Notifier:  notifier,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("tracklift daemon shutting down")
	return nil
}

// ensureCurrentLogPointer keeps log_dir/tracklift.log pointing at the
// newest run log.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "tracklift.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, current)
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
