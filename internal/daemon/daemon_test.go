package daemon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelhouse/internal/config"
	"reelhouse/internal/daemon"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
	"reelhouse/internal/testsupport"
	"reelhouse/internal/workflow"
)

type noopExecutor struct{}

func (noopExecutor) Execute(context.Context, *queue.Job) error { return nil }

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	mgr := workflow.NewManager(cfg, store, noopExecutor{}, logging.NewNop())
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, _ := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	held, err := daemon.LockHeld(cfg)
	if err != nil {
		t.Fatalf("LockHeld: %v", err)
	}
	if !held {
		t.Fatal("expected lock to be held while running")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	held, err = daemon.LockHeld(cfg)
	if err != nil {
		t.Fatalf("LockHeld: %v", err)
	}
	if held {
		t.Fatal("expected lock to be released after stop")
	}
}

func TestSecondDaemonIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _ := newDaemon(t, cfg)
	second, _ := newDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestStartResetsOrphanedRunningJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, store := newDaemon(t, cfg)

	ctx := context.Background()
	job := testsupport.InsertJob(t, store, "a.mp4", "thumbnail", time.Now().Unix())
	if err := store.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	got, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// the worker may already have finished the reset job
	if got.Status != queue.StatusPending && got.Status != queue.StatusCompleted {
		t.Fatalf("expected orphaned job to leave running, got %s", got.Status)
	}
	if got.TimeRequested != job.TimeRequested || got.TimesTried != job.TimesTried {
		t.Fatalf("sweep must preserve request time and tries: %+v", got)
	}
}
