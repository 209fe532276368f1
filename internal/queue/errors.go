package queue

import "errors"

var (
	// ErrNotFound is returned when a job ID does not match any row.
	ErrNotFound = errors.New("conversion job not found")
	// ErrInvalidJob is returned when a job is missing required fields.
	ErrInvalidJob = errors.New("invalid conversion job")
)
