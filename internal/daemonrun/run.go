package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"reelhouse/internal/config"
	"reelhouse/internal/conversion"
	"reelhouse/internal/daemon"
	"reelhouse/internal/ffmpeg"
	"reelhouse/internal/logging"
	"reelhouse/internal/preflight"
	"reelhouse/internal/queue"
	"reelhouse/internal/services/tagging"
	"reelhouse/internal/tags"
	"reelhouse/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the reelhouse daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "reelhouse.log")},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	ffmpegPath, err := ResolveFFmpegPath(signalCtx, cfg, store)
	if err != nil {
		logging.ErrorWithContext(logger, "ffmpeg location is not configured", "config_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set tools.ffmpeg_path or FFMPEG_PATH"),
		)
		store.Close()
		return err
	}

	logPreflight(signalCtx, logger, cfg, ffmpegPath)

	dispatcher, err := NewDispatcher(cfg, store, ffmpegPath, logger)
	if err != nil {
		store.Close()
		return err
	}
	manager := workflow.NewManager(cfg, store, dispatcher, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for another running daemon and queue database access"),
		)
		return err
	}

	// Only the lock holder writes or removes the pid file.
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer removePIDFile(pidPath)

	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logStatusSummary(signalCtx, logger, d, "daemon status", "daemon_status")
		case <-signalCtx.Done():
			logger.Info("reelhouse daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
			d.Stop()
			logStatusSummary(context.WithoutCancel(signalCtx), logger, d, "daemon summary", "daemon_summary")
			return nil
		}
	}
}

// summaryInterval spaces the periodic status lines of a running daemon.
var summaryInterval = 15 * time.Minute

func logStatusSummary(ctx context.Context, logger *slog.Logger, d *daemon.Daemon, msg, eventType string) {
	status := d.Status(ctx)
	wf := status.Workflow
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, eventType),
		logging.Bool("running", status.Running),
		logging.Int("jobs_completed", wf.Completed),
		logging.Int("jobs_failed", wf.Failed),
		logging.Int("queue_pending", wf.QueueStats[queue.StatusPending]),
		logging.Int("queue_running", wf.QueueStats[queue.StatusRunning]),
	}
	if wf.LastJob != nil {
		attrs = append(attrs,
			logging.Int64("last_job_id", wf.LastJob.ID),
			logging.String("last_job_status", string(wf.LastJob.Status)),
		)
	}
	if wf.LastError != "" {
		attrs = append(attrs, logging.String("last_error", wf.LastError))
	}
	logger.Info(msg, logging.Args(attrs...)...)
}

// ResolveFFmpegPath applies the tool lookup order: config (including
// FFMPEG_PATH), then the settings table.
func ResolveFFmpegPath(ctx context.Context, cfg *config.Config, store *queue.Store) (string, error) {
	stored, err := store.FFmpegPath(ctx)
	if err != nil {
		return "", err
	}
	return cfg.ResolveFFmpegPath(stored)
}

// NewDispatcher wires the tool runner, tagging client and tag store into a
// dispatcher sharing store's database handle.
func NewDispatcher(cfg *config.Config, store *queue.Store, ffmpegPath string, logger *slog.Logger) (*conversion.Dispatcher, error) {
	dcfg, err := conversion.NewDispatcherConfig(cfg, ffmpegPath)
	if err != nil {
		return nil, err
	}
	client := tagging.NewClient(tagging.Config{
		Endpoint:       cfg.Tagging.Endpoint,
		APIKey:         cfg.Tagging.APIKey,
		Model:          cfg.Tagging.Model,
		TimeoutSeconds: cfg.Tagging.TimeoutSeconds,
	})
	return conversion.NewDispatcher(
		dcfg,
		ffmpeg.NewRunner(cfg.ToolTimeout()),
		client,
		tags.NewStore(store.DB()),
		logger,
	), nil
}

// PIDPath returns the file the running daemon records its process id in.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "reelhouse.pid")
}

// ReadPID returns the pid recorded by a running daemon, or 0.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(PIDPath(cfg))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// removePIDFile deletes path only while it still names this process.
func removePIDFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid == os.Getpid() {
		_ = os.Remove(path)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, ffmpegPath string) {
	results := preflight.RunAll(ctx, cfg, ffmpegPath)
	for _, failed := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this may fail"),
		)
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("ffmpeg_binary", ffmpegPath),
		logging.Bool("tagging_key_present", strings.TrimSpace(cfg.Tagging.APIKey) != ""),
		logging.String("tagging_model", cfg.Tagging.Model),
		logging.String("public_base_url", cfg.Tagging.PublicBaseURL),
		logging.Int("preflight_checks", len(results)),
	)
}
