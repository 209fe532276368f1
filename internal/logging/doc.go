// Package logging assembles structured slog loggers and formatting helpers used
// across reelhouse.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so the worker can tag every log line
// of a job attempt with the job ID and a per-attempt request ID. A no-op
// logger is provided for tests and wiring code that cannot fail.
package logging
