// Package queue persists conversion jobs in SQLite and exposes the narrow set
// of queries the intake, dispatcher, and worker need.
//
// The Store owns the database connection, applies goose migrations embedded in
// the binary, and enforces that a completion time is recorded exactly when a
// job reaches a terminal status. Jobs are never deleted here; retention is an
// operator concern.
//
// The same database carries the tags and settings tables. Other packages reach
// them through Store.DB so a single connection is shared by the whole process.
package queue
