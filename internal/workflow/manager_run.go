package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reelhouse/internal/logging"
)

// Start begins background processing on a single worker goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.store == nil || m.executor == nil {
		m.mu.Unlock()
		return errors.New("workflow store and executor are required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop requests shutdown and waits for the worker to exit. A job that is
// already executing runs to completion first.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Info("conversion worker started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.Duration("error_retry_interval", m.retryInterval),
		logging.String(logging.FieldEventType, "worker_start"),
	)
	defer m.logger.Info("conversion worker stopped", logging.String(logging.FieldEventType, "worker_stop"))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.iterate(ctx)
	}
}

// iterate performs one pass of the worker loop: fetch, then either sleep or
// process one job.
func (m *Manager) iterate(ctx context.Context) {
	job, err := m.store.NextEligible(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.handleNextJobError(ctx, m.logger, err)
		return
	}
	if job == nil {
		m.waitForJobOrShutdown(ctx)
		return
	}
	m.processJob(ctx, job)
}

func (m *Manager) handleNextJobError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logging.ErrorWithContext(logger, "failed to fetch next conversion job", "queue_fetch_failed",
		logging.Error(err),
		logging.Duration("retry_in", m.retryInterval),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	sleep(ctx, m.retryInterval)
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	sleep(ctx, m.pollInterval)
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
