// ABOUTME: Tests for database schema creation and migrations
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}
	return db
}

func TestInitSchema(t *testing.T) {
	db := setupTestDB(t)

	tables := []string{"synced_records", "datastore_rows", "sync_state", "sync_runs"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	indexes := []string{
		"idx_synced_records_synced_at",
		"idx_datastore_rows_table",
		"idx_sync_runs_created_at",
	}
	for _, idx := range indexes {
		var indexName string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&indexName)
		if err != nil {
			t.Errorf("Index %s not found: %v", idx, err)
		}
	}

	// Re-running is a no-op.
	if err := InitSchema(db); err != nil {
		t.Errorf("second InitSchema failed: %v", err)
	}
}

func TestMissingTables(t *testing.T) {
	db := setupTestDB(t)

	missing, err := MissingTables(db)
	if err != nil {
		t.Fatalf("MissingTables failed: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected no missing tables, got %v", missing)
	}

	if _, err := db.Exec("DROP TABLE sync_runs"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	missing, err = MissingTables(db)
	if err != nil {
		t.Fatalf("MissingTables failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "sync_runs" {
		t.Errorf("expected [sync_runs], got %v", missing)
	}
}
