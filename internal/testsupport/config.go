package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"reelhouse/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Intervals are shortened so worker tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.SegmentsDir = filepath.Join(base, "segments")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Tagging.APIKey = "test"
	cfgVal.Tagging.PublicBaseURL = "http://media.test"
	cfgVal.Workflow.QueuePollInterval = 1
	cfgVal.Workflow.ErrorRetryInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithFFmpegPath sets the tool path on the test config.
func WithFFmpegPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.FFmpegPath = path
	}
}

// WithStubFFmpeg writes a stub ffmpeg that exits with exitCode and points the
// config at it.
func WithStubFFmpeg(exitCode int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.FFmpegPath = WriteStubScript(b.t, filepath.Join(b.baseDir, "bin"), "ffmpeg", exitCode)
	}
}

// WriteStubScript writes an executable shell script named name into dir that
// exits with exitCode, and returns its path.
func WriteStubScript(t testing.TB, dir, name string, exitCode int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	script := fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
