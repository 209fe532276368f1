// Package preflight provides readiness checks for the filesystem paths and
// external services reelhouse depends on.
//
// The daemon runs RunAll once at startup and logs every failed check; it does
// not refuse to start because the worker records per-job failures anyway. The
// CLI "reelhouse status" command uses the same checks plus CheckTagging to
// display service health.
package preflight
