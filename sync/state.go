// ABOUTME: SQLite-backed sync bookkeeping
// ABOUTME: Adapts the db sync_state and sync_runs helpers to the orchestrator
package sync

import (
	"database/sql"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/models"
)

// SQLState records sync bookkeeping in the local database.
type SQLState struct {
	DB *sql.DB
}

func (s SQLState) SetStatus(resource, status string, errMsg *string) error {
	return db.UpdateSyncStatus(s.DB, resource, status, errMsg)
}

func (s SQLState) MarkSynced(resource, runID string) error {
	return db.MarkSynced(s.DB, resource, runID)
}

func (s SQLState) SaveRun(report *models.SyncReport) error {
	return db.SaveRun(s.DB, report)
}

// States lists the recorded state of every resource.
func (s SQLState) States() ([]models.SyncState, error) {
	return db.GetAllSyncStates(s.DB)
}

// LatestRun returns the newest stored report, or nil.
func (s SQLState) LatestRun() (*models.SyncReport, error) {
	return db.LatestRun(s.DB)
}
