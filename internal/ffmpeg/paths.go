package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ThumbnailPath returns <dir(source)>/thumbs/<stem(source)>.webp.
func ThumbnailPath(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(source), "thumbs", stem+".webp")
}

// FramePath returns the categorize frame location for a job inside dir.
func FramePath(dir string, jobID int64) string {
	return filepath.Join(dir, strconv.FormatInt(jobID, 10)+".jpg")
}

// EnsureParent creates the directory that will hold path.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return nil
}
