package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
)

// DefaultStaleAfter is the age beyond which an active job no longer
// suppresses a new request for the same source and operation.
const DefaultStaleAfter = time.Hour

// ErrInvalidRequest is returned for requests missing a source or operation.
var ErrInvalidRequest = errors.New("invalid conversion request")

// JobStore is the subset of the queue store that intake needs.
type JobStore interface {
	FindActive(ctx context.Context, sourceFilename, operation string) (*queue.Job, error)
	Insert(ctx context.Context, job *queue.Job) (int64, error)
}

// Intake accepts conversion requests and deduplicates them.
//
// The active-job check and the insert are separate statements, so two
// concurrent requests for the same key can both insert. A single process
// with one worker tolerates that: the duplicate job just runs twice.
type Intake struct {
	store      JobStore
	logger     *slog.Logger
	now        func() time.Time
	staleAfter time.Duration
}

// IntakeOption customizes an Intake.
type IntakeOption func(*Intake)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) IntakeOption {
	return func(i *Intake) {
		if now != nil {
			i.now = now
		}
	}
}

// WithStaleAfter overrides the staleness window.
func WithStaleAfter(d time.Duration) IntakeOption {
	return func(i *Intake) {
		if d > 0 {
			i.staleAfter = d
		}
	}
}

// NewIntake constructs an Intake backed by store.
func NewIntake(store JobStore, logger *slog.Logger, opts ...IntakeOption) *Intake {
	intake := &Intake{
		store:      store,
		logger:     logging.NewComponentLogger(logger, "intake"),
		now:        time.Now,
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(intake)
	}
	return intake
}

// RequestConversion queues operation for source unless an equivalent job is
// already in flight. It returns true when a new job row was created.
func (i *Intake) RequestConversion(ctx context.Context, source, operation string) (bool, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return false, fmt.Errorf("%w: source filename is required", ErrInvalidRequest)
	}
	op := queue.CanonicalOperation(operation)
	if op == "" {
		return false, fmt.Errorf("%w: operation is required", ErrInvalidRequest)
	}

	existing, err := i.store.FindActive(ctx, source, op)
	if err != nil {
		return false, fmt.Errorf("request conversion: %w", err)
	}

	now := i.now()
	triesSoFar := 0
	if existing != nil {
		age := existing.Age(now)
		if age < i.staleAfter {
			i.logger.Debug("conversion already queued",
				logging.Int64(logging.FieldJobID, existing.ID),
				logging.String(logging.FieldSource, source),
				logging.String(logging.FieldOperation, op),
				logging.String(logging.FieldEventType, "conversion_duplicate"),
			)
			return false, nil
		}
		triesSoFar = existing.TimesTried
		logging.WarnWithContext(i.logger, "active conversion is stale; queueing a new attempt", "conversion_stale",
			logging.Int64(logging.FieldJobID, existing.ID),
			logging.String(logging.FieldSource, source),
			logging.String(logging.FieldOperation, op),
			logging.Duration("age", age.Truncate(time.Second)),
			logging.String(logging.FieldErrorHint, "the previous attempt may have hung; check the worker"),
			logging.String(logging.FieldImpact, "the stale row stays in the queue and will also be processed"),
		)
	}

	job := &queue.Job{
		SourceFilename: source,
		Operation:      op,
		Status:         queue.StatusPending,
		TimeRequested:  now.Unix(),
		TimesTried:     triesSoFar + 1,
	}
	if _, err := i.store.Insert(ctx, job); err != nil {
		return false, fmt.Errorf("request conversion: %w", err)
	}
	i.logger.Info("conversion queued",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldSource, source),
		logging.String(logging.FieldOperation, op),
		logging.Int("times_tried", job.TimesTried),
		logging.String(logging.FieldEventType, "conversion_queued"),
	)
	return true, nil
}
