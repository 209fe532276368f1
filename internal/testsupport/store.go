package testsupport

import (
	"context"
	"testing"

	"reelhouse/internal/config"
	"reelhouse/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// InsertJob stores a Pending job with the given request time and returns it.
func InsertJob(t testing.TB, store *queue.Store, source, operation string, requested int64) *queue.Job {
	t.Helper()

	job := &queue.Job{
		SourceFilename: source,
		Operation:      operation,
		TimeRequested:  requested,
	}
	if _, err := store.Insert(context.Background(), job); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return job
}
