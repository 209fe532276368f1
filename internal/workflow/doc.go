// Package workflow runs the conversion worker.
//
// The Manager owns one goroutine that repeatedly asks the queue for the oldest
// eligible job (Pending or Running), marks it Running, hands it to the
// dispatcher and records Completed or Failed with a completion timestamp.
// Jobs execute strictly one at a time. When the queue is idle the worker
// sleeps for the poll interval; after a store error it sleeps for the retry
// interval. Both sleeps return as soon as the run context is cancelled, but a
// job that has already started is allowed to finish.
package workflow
