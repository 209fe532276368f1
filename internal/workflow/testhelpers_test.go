package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reelhouse/internal/queue"
	"reelhouse/internal/services/tagging"
	"reelhouse/internal/workflow"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// stopWithin fails the test if Stop blocks longer than limit.
func stopWithin(t *testing.T, stop func(), limit time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(limit):
		t.Fatalf("Stop did not return within %s", limit)
	}
}

type recordingTagger struct {
	mu     sync.Mutex
	urls   []string
	result tagging.Result
	err    error
}

func (r *recordingTagger) TagImage(_ context.Context, imageURL string) (tagging.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, imageURL)
	return r.result, r.err
}

func (r *recordingTagger) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.urls)
}

// recordingExecutor remembers the order jobs were executed in.
type recordingExecutor struct {
	mu   sync.Mutex
	ids  []int64
	err  error
	hook func(ctx context.Context, job *queue.Job)
}

func (r *recordingExecutor) Execute(ctx context.Context, job *queue.Job) error {
	if r.hook != nil {
		r.hook(ctx, job)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, job.ID)
	return r.err
}

func (r *recordingExecutor) executed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

// flakyStore wraps a JobStore and injects failures.
type flakyStore struct {
	inner workflow.JobStore

	mu             sync.Mutex
	nextErr        error
	nextCalls      int
	updateFailures int
	updateAttempts int
}

var errDatabaseUnavailable = errors.New("database unavailable")

func (f *flakyStore) NextEligible(ctx context.Context) (*queue.Job, error) {
	f.mu.Lock()
	f.nextCalls++
	err := f.nextErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if f.inner == nil {
		return nil, nil
	}
	return f.inner.NextEligible(ctx)
}

func (f *flakyStore) MarkRunning(ctx context.Context, id int64) error {
	return f.inner.MarkRunning(ctx, id)
}

func (f *flakyStore) UpdateStatus(ctx context.Context, id int64, status queue.Status, completedAt time.Time) error {
	f.mu.Lock()
	f.updateAttempts++
	fail := f.updateFailures > 0
	if fail {
		f.updateFailures--
	}
	f.mu.Unlock()
	if fail {
		return errDatabaseUnavailable
	}
	return f.inner.UpdateStatus(ctx, id, status, completedAt)
}

func (f *flakyStore) Stats(ctx context.Context) (map[queue.Status]int, error) {
	if f.inner == nil {
		return map[queue.Status]int{}, nil
	}
	return f.inner.Stats(ctx)
}

func (f *flakyStore) counts() (next, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextCalls, f.updateAttempts
}
