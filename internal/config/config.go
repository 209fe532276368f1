package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrFFmpegPathMissing reports that no ffmpeg executable could be resolved
// from configuration, environment, or the settings table.
var ErrFFmpegPathMissing = errors.New("ffmpeg path not configured")

// Paths contains directory configuration.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	SegmentsDir string `toml:"segments_dir"`
	LogDir      string `toml:"log_dir"`
}

// Tools configures the external media tool and its argument templates.
type Tools struct {
	FFmpegPath     string `toml:"ffmpeg_path"`
	ThumbnailArgs  string `toml:"thumbnail_args"`
	CategorizeArgs string `toml:"categorize_args"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tagging contains the remote image tagging service settings.
type Tagging struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	PublicBaseURL  string `toml:"public_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains configuration for worker timing and deduplication.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	StaleAfterSeconds  int `toml:"stale_after_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelhouse.
//
// Configuration sections by subsystem:
//   - Paths: queue database, frame output, and log directories
//   - Tools: ffmpeg location and per-operation argument templates
//   - Tagging: remote image tagging endpoint and credentials
//   - Workflow: worker polling intervals and the staleness window
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Tools    Tools    `toml:"tools"`
	Tagging  Tagging  `toml:"tagging"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelhouse/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelhouse.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The segments directory is left to the dispatcher, which creates its
// conversion subdirectory on first use.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file backing the job store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "reelhouse.db")
}

// LockPath returns the single-instance lock file used by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "reelhouse.lock")
}

// ConversionsDir returns the directory categorize frames are written to.
func (c *Config) ConversionsDir() string {
	return filepath.Join(c.Paths.SegmentsDir, "ai", "conversions")
}

// PollInterval returns the idle sleep between queue polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.QueuePollInterval) * time.Second
}

// ErrorRetryInterval returns the backoff after a failed queue query.
func (c *Config) ErrorRetryInterval() time.Duration {
	return time.Duration(c.Workflow.ErrorRetryInterval) * time.Second
}

// StaleAfter returns the age at which an active job no longer suppresses a
// new request for the same source and operation.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Workflow.StaleAfterSeconds) * time.Second
}

// ToolTimeout returns the per-invocation bound for the media tool, or zero
// when invocations are unbounded.
func (c *Config) ToolTimeout() time.Duration {
	if c.Tools.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// ResolveFFmpegPath picks the ffmpeg executable from the config file (which
// already absorbed FFMPEG_PATH during normalization) and falls back to the
// stored setting. An empty result yields ErrFFmpegPathMissing.
func (c *Config) ResolveFFmpegPath(stored string) (string, error) {
	if path := strings.TrimSpace(c.Tools.FFmpegPath); path != "" {
		return path, nil
	}
	if path := strings.TrimSpace(stored); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: set tools.ffmpeg_path, FFMPEG_PATH, or the settings table", ErrFFmpegPathMissing)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
