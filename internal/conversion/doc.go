// Package conversion holds the two entry points of the conversion subsystem
// that sit on either side of the queue.
//
// Intake decides whether a request needs a new job: an active job for the same
// source and operation suppresses it unless that job was requested longer ago
// than the staleness window, in which case a fresh attempt is queued alongside
// it. Dispatcher turns a dequeued job into tool invocations, tagging calls, and
// tag records. Both depend on small interfaces so the worker and tests can
// supply their own collaborators.
package conversion
