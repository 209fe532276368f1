package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelhouse/internal/config"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
)

const (
	defaultPollInterval  = 3 * time.Second
	defaultRetryInterval = 5 * time.Second
)

// JobStore is the queue surface the worker drives.
type JobStore interface {
	NextEligible(ctx context.Context) (*queue.Job, error)
	MarkRunning(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status queue.Status, completedAt time.Time) error
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

// Executor performs a job's operation. A nil error marks the job Completed.
type Executor interface {
	Execute(ctx context.Context, job *queue.Job) error
}

// Manager runs the single conversion worker.
type Manager struct {
	store         JobStore
	executor      Executor
	logger        *slog.Logger
	pollInterval  time.Duration
	retryInterval time.Duration
	now           func() time.Time

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastJob   *queue.Job
	completed int
	failed    int
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithIntervals overrides the idle and store-error sleeps.
func WithIntervals(poll, retry time.Duration) ManagerOption {
	return func(m *Manager) {
		if poll > 0 {
			m.pollInterval = poll
		}
		if retry > 0 {
			m.retryInterval = retry
		}
	}
}

// WithClock overrides the time source used for completion timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a worker using the intervals from cfg.
func NewManager(cfg *config.Config, store JobStore, executor Executor, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:         store,
		executor:      executor,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  defaultPollInterval,
		retryInterval: defaultRetryInterval,
		now:           time.Now,
	}
	if cfg != nil {
		m.pollInterval = cfg.PollInterval()
		m.retryInterval = cfg.ErrorRetryInterval()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
