// Package sqlite implements the scheduler storage interfaces on a single
// SQLite database: the event journal, the relay outbox, participant status
// rows, projection watermarks, and telemetry.
package sqlite
