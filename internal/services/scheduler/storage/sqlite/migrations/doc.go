// Package migrations embeds SQL migration scripts used by the SQLite backend.
//
// Why this package exists:
// - It centralizes schema history for the journal, outbox, and projection rows.
// - It allows upgrade and replay-safe evolution without manual operator SQL.
// - It supports both development bootstrap and production migration workflows.
package migrations
