// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for synced records, datastore rows, and sync bookkeeping
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS synced_records (
	table_name TEXT NOT NULL,
	record_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	synced_at DATETIME NOT NULL,
	PRIMARY KEY (table_name, record_id)
);

CREATE INDEX IF NOT EXISTS idx_synced_records_synced_at ON synced_records(table_name, synced_at DESC);

CREATE TABLE IF NOT EXISTS datastore_rows (
	rowid TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	data TEXT NOT NULL,
	created_time DATETIME NOT NULL,
	modified_time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_datastore_rows_table ON datastore_rows(table_name, created_time);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_run_id TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	environment TEXT NOT NULL,
	total_operations INTEGER NOT NULL,
	failed_operations INTEGER NOT NULL,
	report TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_created_at ON sync_runs(created_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// SchemaTables lists the tables InitSchema creates.
var SchemaTables = []string{"synced_records", "datastore_rows", "sync_state", "sync_runs"}

// MissingTables returns the schema tables not present in db.
func MissingTables(db *sql.DB) ([]string, error) {
	var missing []string
	for _, table := range SchemaTables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err == sql.ErrNoRows {
			missing = append(missing, table)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
		}
	}
	return missing, nil
}
