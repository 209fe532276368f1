package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// Requirement names an external executable reelhouse shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of checking one Requirement. Command holds the
// resolved executable path when the check succeeds.
type Status struct {
	Requirement
	Available bool
	Detail    string
}

// Check resolves a single requirement. Commands containing a path separator
// are checked in place; bare names are looked up on PATH.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}

	switch {
	case req.Command == "":
		status.Detail = "command not configured"
	case strings.ContainsRune(req.Command, os.PathSeparator):
		status.Detail = checkExecutable(req.Command)
	default:
		resolved, err := exec.LookPath(req.Command)
		if err != nil {
			status.Detail = fmt.Sprintf("%q not found on PATH", req.Command)
			break
		}
		status.Command = resolved
	}
	status.Available = status.Detail == ""
	return status
}

// CheckBinaries evaluates each requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}

func checkExecutable(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("%s does not exist", path)
	case err != nil:
		return fmt.Sprintf("stat %s: %v", path, err)
	case info.IsDir():
		return fmt.Sprintf("%s is a directory", path)
	case info.Mode().Perm()&0o111 == 0:
		return fmt.Sprintf("%s is not executable", path)
	}
	return ""
}
