// Package main hosts the reelhouse CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the conversion daemon, queues conversion
// requests, and inspects the job and tag tables. There is no daemon socket:
// every command opens the SQLite store directly, which is safe alongside a
// running daemon because the store uses WAL mode and retries on SQLITE_BUSY.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
