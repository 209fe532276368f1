package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"reelhouse/internal/config"
	"reelhouse/internal/daemon"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
	"reelhouse/internal/testsupport"
)

func TestResolveFFmpegPathPrefersConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithFFmpegPath("/opt/ffmpeg/bin/ffmpeg"))
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.SetFFmpegPath(context.Background(), "/usr/local/bin/ffmpeg"); err != nil {
		t.Fatalf("SetFFmpegPath: %v", err)
	}

	got, err := ResolveFFmpegPath(context.Background(), cfg, store)
	if err != nil {
		t.Fatalf("ResolveFFmpegPath: %v", err)
	}
	if got != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected config path, got %q", got)
	}
}

func TestResolveFFmpegPathFallsBackToSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	if err := store.SetFFmpegPath(context.Background(), "/usr/local/bin/ffmpeg"); err != nil {
		t.Fatalf("SetFFmpegPath: %v", err)
	}

	got, err := ResolveFFmpegPath(context.Background(), cfg, store)
	if err != nil {
		t.Fatalf("ResolveFFmpegPath: %v", err)
	}
	if got != "/usr/local/bin/ffmpeg" {
		t.Fatalf("expected stored path, got %q", got)
	}
}

func TestResolveFFmpegPathMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := ResolveFFmpegPath(context.Background(), cfg, store)
	if !errors.Is(err, config.ErrFFmpegPathMissing) {
		t.Fatalf("expected ErrFFmpegPathMissing, got %v", err)
	}
}

func TestRunFailsFastWithoutFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"

	err := Run(context.Background(), cfg, Options{})
	if !errors.Is(err, config.ErrFFmpegPathMissing) {
		t.Fatalf("expected ErrFFmpegPathMissing, got %v", err)
	}
	if _, statErr := os.Stat(PIDPath(cfg)); !os.IsNotExist(statErr) {
		t.Fatalf("expected pid file to be removed, got %v", statErr)
	}
}

func TestNewDispatcherRejectsBadTemplate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	cfg.Tools.CategorizeArgs = `-i '{input}`

	if _, err := NewDispatcher(cfg, store, "/usr/bin/ffmpeg", logging.NewNop()); err == nil {
		t.Fatal("expected template error")
	}
}

func TestReadPID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if pid := ReadPID(cfg); pid != 0 {
		t.Fatalf("expected 0 without a pid file, got %d", pid)
	}
	if err := writePIDFile(PIDPath(cfg)); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	if pid := ReadPID(cfg); pid != os.Getpid() {
		t.Fatalf("expected %d, got %d", os.Getpid(), pid)
	}
}

func TestRunRejectedByLockLeavesPIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg(0))
	cfg.Logging.Level = "error"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	holder := flock.New(cfg.LockPath())
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()
	if err := os.WriteFile(PIDPath(cfg), []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	err = Run(context.Background(), cfg, Options{})
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if pid := ReadPID(cfg); pid != 4242 {
		t.Fatalf("expected running daemon's pid 4242 to survive, got %d", pid)
	}
}

func TestRunLogsSummaryAndCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg(0))
	previous := summaryInterval
	summaryInterval = 20 * time.Millisecond
	t.Cleanup(func() { summaryInterval = previous })

	store := testsupport.MustOpenStore(t, cfg)
	source := testsupport.WriteSource(t, filepath.Join(testsupport.BaseDir(cfg), "media", "movie.mp4"))
	job := testsupport.InsertJob(t, store, source, "thumbnail", time.Now().Unix())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, Options{}) }()

	deadline := time.Now().Add(10 * time.Second)
	for {
		got, err := store.GetByID(context.Background(), job.ID)
		if err == nil && got.Status == queue.StatusCompleted && ReadPID(cfg) == os.Getpid() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete while daemon was running (err=%v)", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(60 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if _, err := os.Stat(PIDPath(cfg)); !os.IsNotExist(err) {
		t.Fatalf("expected pid file to be removed, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "reelhouse.log"))
	if err != nil {
		t.Fatalf("read daemon log: %v", err)
	}
	logText := string(data)
	for _, want := range []string{"daemon status", "daemon summary", "jobs_completed=1", "jobs_failed=0"} {
		if !strings.Contains(logText, want) {
			t.Fatalf("daemon log missing %q:\n%s", want, logText)
		}
	}
}

func TestRemovePIDFileKeepsForeignPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelhouse.pid")
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	removePIDFile(path)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("foreign pid file was removed: %v", err)
	}

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	removePIDFile(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("own pid file should be removed, got %v", err)
	}
}
