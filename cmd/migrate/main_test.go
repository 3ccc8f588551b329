package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/logging"
	"github.com/harperreed/zohosync/models"
)

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

// legacyDB creates a database with only the sync_state table.
func legacyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zohosync.db")
	database, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = database.Exec(`CREATE TABLE sync_state (service TEXT PRIMARY KEY, last_sync_time DATETIME, last_run_id TEXT,
		status TEXT, error_message TEXT, created_at DATETIME, updated_at DATETIME)`)
	require.NoError(t, err)
	require.NoError(t, database.Close())
	return path
}

func missingTables(t *testing.T, path string) []string {
	t.Helper()
	database, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer database.Close()
	missing, err := db.MissingTables(database)
	require.NoError(t, err)
	return missing
}

func TestMigrateMissingFile(t *testing.T) {
	err := migrate(filepath.Join(t.TempDir(), "nope.db"), migrateOptions{now: fixedNow}, logging.Discard())
	assert.ErrorContains(t, err, "does not exist")
}

func TestMigrateDryRunChangesNothing(t *testing.T) {
	path := legacyDB(t)

	require.NoError(t, migrate(path, migrateOptions{dryRun: true, backup: true, keepRuns: -1, now: fixedNow}, logging.Discard()))

	assert.Equal(t, []string{"synced_records", "datastore_rows", "sync_runs"}, missingTables(t, path))
	_, err := os.Stat(path + ".backup.20240501-100000")
	assert.True(t, os.IsNotExist(err))
}

func TestMigrateCreatesTablesAndBacksUp(t *testing.T) {
	path := legacyDB(t)

	require.NoError(t, migrate(path, migrateOptions{backup: true, keepRuns: -1, now: fixedNow}, logging.Discard()))

	assert.Empty(t, missingTables(t, path))
	_, err := os.Stat(path + ".backup.20240501-100000")
	assert.NoError(t, err)
}

func TestMigrateBackupIncludesUncheckpointedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zohosync.db")
	live, err := db.OpenDatabase(path)
	require.NoError(t, err)
	defer live.Close()

	// The live handle stays open, so these commits sit in the WAL file.
	require.NoError(t, db.NewRecordStore(live).InsertRows(context.Background(), models.TableContacts, []db.Record{
		{ID: "c1", Payload: map[string]any{"full_name": "Ada"}},
		{ID: "c2", Payload: map[string]any{"full_name": "Grace"}},
	}))

	require.NoError(t, migrate(path, migrateOptions{backup: true, keepRuns: -1, now: fixedNow}, logging.Discard()))

	backup, err := sql.Open("sqlite3", path+".backup.20240501-100000")
	require.NoError(t, err)
	defer backup.Close()
	count, err := db.NewRecordStore(backup).CountRows(context.Background(), models.TableContacts)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMigratePrunesRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zohosync.db")
	database, err := db.OpenDatabase(path)
	require.NoError(t, err)
	base := fixedNow()
	for i, id := range []string{"01AAA", "01BBB", "01CCC"} {
		require.NoError(t, db.SaveRun(database, &models.SyncReport{ID: id, Timestamp: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, database.Close())

	require.NoError(t, migrate(path, migrateOptions{keepRuns: 1, now: fixedNow}, logging.Discard()))

	database, err = db.OpenDatabase(path)
	require.NoError(t, err)
	defer database.Close()
	runs, err := db.ListRuns(database, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "01CCC", runs[0].ID)
}
