// Package sqlite contains SQLite repository implementations for the
// irradiation domain types.
//
// All database read/write operations for sessions, beam samples, scan rows
// and reconstruction runs belong here rather than in the analysis packages.
// This keeps the engine free of SQL noise and makes it easier to swap
// storage backends for testing. The schema itself is owned by the embedded
// migrations in internal/db.
package sqlite
