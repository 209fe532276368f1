package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSource creates a placeholder media file at path. The stub tool never
// reads it; it only has to exist so paths derived from it are realistic.
func WriteSource(t testing.TB, path string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
