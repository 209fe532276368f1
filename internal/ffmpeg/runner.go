package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrorKind classifies a failed tool invocation.
type ErrorKind int

const (
	// SpawnFailed means the process could not be started.
	SpawnFailed ErrorKind = iota + 1
	// NonZeroExit means the process ran and exited unsuccessfully.
	NonZeroExit
)

func (k ErrorKind) String() string {
	switch k {
	case SpawnFailed:
		return "spawn_failed"
	case NonZeroExit:
		return "non_zero_exit"
	default:
		return "unknown"
	}
}

var (
	// ErrSpawnFailed matches any ToolError of kind SpawnFailed via errors.Is.
	ErrSpawnFailed = errors.New("tool spawn failed")
	// ErrNonZeroExit matches any ToolError of kind NonZeroExit via errors.Is.
	ErrNonZeroExit = errors.New("tool exited with non-zero status")
)

// ToolError describes why a tool invocation failed. Code is the exit status
// for NonZeroExit (-1 when the process was killed by a signal); Message
// carries the spawn error text for SpawnFailed.
type ToolError struct {
	Kind       ErrorKind
	Executable string
	Code       int
	Message    string
}

func (e *ToolError) Error() string {
	switch e.Kind {
	case NonZeroExit:
		return fmt.Sprintf("%s exited with code %d", e.Executable, e.Code)
	case SpawnFailed:
		return fmt.Sprintf("start %s: %s", e.Executable, e.Message)
	default:
		return fmt.Sprintf("%s failed", e.Executable)
	}
}

// Is lets callers match on the kind sentinels.
func (e *ToolError) Is(target error) bool {
	switch target {
	case ErrSpawnFailed:
		return e.Kind == SpawnFailed
	case ErrNonZeroExit:
		return e.Kind == NonZeroExit
	}
	return false
}

// Runner executes the media tool. The zero value runs without a timeout.
type Runner struct {
	// Timeout bounds each invocation when positive.
	Timeout time.Duration
}

// NewRunner returns a Runner with the given per-invocation timeout.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run starts executable with args and waits for it to exit. Stdin, stdout,
// and stderr are left unset so the process gets the null device for each.
func (r *Runner) Run(ctx context.Context, executable string, args []string) error {
	executable = strings.TrimSpace(executable)
	if executable == "" {
		return &ToolError{Kind: SpawnFailed, Executable: "<empty>", Message: "executable path is empty"}
	}
	if r != nil && r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, executable, args...)
	if err := cmd.Start(); err != nil {
		return &ToolError{Kind: SpawnFailed, Executable: executable, Message: err.Error()}
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ToolError{Kind: NonZeroExit, Executable: executable, Code: exitErr.ExitCode()}
		}
		return &ToolError{Kind: SpawnFailed, Executable: executable, Message: err.Error()}
	}
	return nil
}
