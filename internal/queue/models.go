package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every known job status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user or database input to a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status carries a completion time.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActive reports whether the status is eligible for the worker.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusRunning
}

// Operation names the kind of conversion a job performs.
type Operation string

const (
	OperationThumbnail  Operation = "thumbnail"
	OperationScaledown  Operation = "scaledown"
	OperationMakeClip   Operation = "makeclip"
	OperationCategorize Operation = "categorize"
	// OperationUnknown marks stored values outside the known set. Such jobs
	// are accepted but do no work.
	OperationUnknown Operation = ""
)

var knownOperations = []Operation{
	OperationThumbnail,
	OperationScaledown,
	OperationMakeClip,
	OperationCategorize,
}

// KnownOperations returns the operations the dispatcher implements or reserves.
func KnownOperations() []Operation {
	out := make([]Operation, len(knownOperations))
	copy(out, knownOperations)
	return out
}

// ParseOperation matches value case-insensitively against the known
// operations. It never fails: unrecognized input yields OperationUnknown and
// false.
func ParseOperation(value string) (Operation, bool) {
	normalized := Operation(strings.ToLower(strings.TrimSpace(value)))
	for _, op := range knownOperations {
		if op == normalized {
			return op, true
		}
	}
	return OperationUnknown, false
}

// CanonicalOperation returns the stored form of an operation request: the
// lowercase name for known operations, the trimmed input otherwise.
func CanonicalOperation(value string) string {
	if op, ok := ParseOperation(value); ok {
		return string(op)
	}
	return strings.TrimSpace(value)
}

// Job is a persisted request to perform one conversion on one source file.
type Job struct {
	ID             int64
	SourceFilename string
	// Operation holds the stored text; use Kind for the parsed value.
	Operation     string
	Status        Status
	TimeRequested int64
	TimeCompleted *int64
	TimesTried    int
}

// Kind parses the stored operation.
func (j *Job) Kind() Operation {
	op, _ := ParseOperation(j.Operation)
	return op
}

// RequestedAt returns time_requested as a time.Time.
func (j *Job) RequestedAt() time.Time {
	return time.Unix(j.TimeRequested, 0)
}

// CompletedAt returns time_completed as a time.Time, or the zero time when
// the job has not finished.
func (j *Job) CompletedAt() time.Time {
	if j.TimeCompleted == nil {
		return time.Time{}
	}
	return time.Unix(*j.TimeCompleted, 0)
}

// Age reports how long ago the job was requested relative to now.
func (j *Job) Age(now time.Time) time.Duration {
	return now.Sub(j.RequestedAt())
}
