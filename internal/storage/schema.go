// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema creates the event history tables.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per recorded question; agents is a comma-joined list of names
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at INTEGER NOT NULL, -- Unix nanoseconds, insertion order tiebreak
    time TEXT NOT NULL,
    date TEXT NOT NULL,
    question TEXT NOT NULL,
    agents TEXT NOT NULL DEFAULT '',
    resources TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
`

// InitMetadata records the schema version on first open.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
