package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
)

// processJob runs one job to a terminal status. The dispatcher gets a context
// that ignores shutdown so an in-flight tool process or HTTP call is never cut
// short; cancellation is honored between jobs.
func (m *Manager) processJob(ctx context.Context, job *queue.Job) {
	requestID := uuid.NewString()
	jobCtx := logging.WithRequestID(logging.WithJobID(context.WithoutCancel(ctx), job.ID), requestID)
	logger := logging.WithContext(jobCtx, m.logger).With(
		logging.String(logging.FieldSource, job.SourceFilename),
		logging.String(logging.FieldOperation, job.Operation),
	)

	if job.Status != queue.StatusRunning {
		if err := m.store.MarkRunning(jobCtx, job.ID); err != nil {
			logging.WarnWithContext(logger, "failed to mark job running", "job_mark_running_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "status shows pending while the job runs"),
			)
		} else {
			job.Status = queue.StatusRunning
		}
	}

	started := time.Now()
	logger.Info("job started",
		logging.Int("times_tried", job.TimesTried),
		logging.String(logging.FieldEventType, "job_start"),
	)

	execErr := m.execute(jobCtx, job)

	status := queue.StatusCompleted
	if execErr != nil {
		status = queue.StatusFailed
	}
	completedAt := m.now()
	if err := m.store.UpdateStatus(jobCtx, job.ID, status, completedAt); err != nil {
		wrapped := fmt.Errorf("persist job %d result: %w", job.ID, err)
		m.setLastError(wrapped)
		logging.ErrorWithContext(logger, "failed to persist job result", "job_persist_failed",
			logging.Error(wrapped),
			logging.String("intended_status", string(status)),
			logging.String(logging.FieldErrorHint, "the job stays eligible and will run again"),
		)
		m.sleepAfterStoreError(ctx)
		return
	}

	job.Status = status
	done := completedAt.Unix()
	job.TimeCompleted = &done
	m.recordResult(job, execErr)

	if execErr != nil {
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(execErr),
			logging.Duration("duration", time.Since(started)),
			logging.String(logging.FieldErrorHint, failureHint(execErr)),
		)
		return
	}
	logger.Info("job completed",
		logging.Duration("duration", time.Since(started)),
		logging.String(logging.FieldEventType, "job_complete"),
	)
}

// execute guards the loop against a panicking executor; a panic fails the job.
func (m *Manager) execute(ctx context.Context, job *queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return m.executor.Execute(ctx, job)
}

func (m *Manager) sleepAfterStoreError(ctx context.Context) {
	sleep(ctx, m.retryInterval)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "raise tools.timeout_seconds or tagging.timeout_seconds"
	default:
		return "request the conversion again once the cause is fixed"
	}
}
