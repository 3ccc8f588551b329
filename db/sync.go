// ABOUTME: Database operations for sync_state and sync_runs tables
// ABOUTME: Tracks per-resource sync status and stores every orchestration report
package db

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/harperreed/zohosync/models"
)

// GetSyncState retrieves the sync state for a service.
func GetSyncState(db *sql.DB, service string) (*models.SyncState, error) {
	row := db.QueryRow(`
		SELECT service, last_sync_time, last_run_id, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service)

	state, err := scanSyncState(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

// UpdateSyncStatus updates the sync status for a service.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// MarkSynced records a successful sync of service as part of run runID.
func MarkSynced(db *sql.DB, service, runID string) error {
	var runIDVal sql.NullString
	if runID != "" {
		runIDVal = sql.NullString{String: runID, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, last_run_id, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			last_run_id = COALESCE(excluded.last_run_id, sync_state.last_run_id),
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, runIDVal)

	if err != nil {
		return fmt.Errorf("failed to mark sync complete: %w", err)
	}

	return nil
}

// GetAllSyncStates retrieves the sync state for all services.
func GetAllSyncStates(db *sql.DB) ([]models.SyncState, error) {
	rows, err := db.Query(`
		SELECT service, last_sync_time, last_run_id, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY service
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	states := []models.SyncState{}
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}

	return states, nil
}

func scanSyncState(s scanner) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var lastRunID sql.NullString
	var status sql.NullString
	var errorMessage sql.NullString

	err := s.Scan(
		&state.Service,
		&lastSyncTime,
		&lastRunID,
		&status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	state.LastRunID = lastRunID.String
	state.Status = status.String
	state.ErrorMessage = errorMessage.String

	return &state, nil
}

// SaveRun stores a sync report under its ID.
func SaveRun(db *sql.DB, report *models.SyncReport) error {
	if report.ID == "" {
		return fmt.Errorf("sync report has no id")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode sync report: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO sync_runs (id, environment, total_operations, failed_operations, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.ID, report.Environment, report.Summary.TotalOperations, report.Summary.FailedOperations,
		string(payload), report.Timestamp.UTC())

	if err != nil {
		return fmt.Errorf("failed to save sync run: %w", err)
	}

	return nil
}

// LatestRun returns the most recent sync report, or nil if none exist.
func LatestRun(db *sql.DB) (*models.SyncReport, error) {
	runs, err := ListRuns(db, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns up to limit reports, newest first.
func ListRuns(db *sql.DB, limit int) ([]models.SyncReport, error) {
	if limit <= 0 {
		limit = 20
	}

	// ULIDs sort by creation time, so id breaks timestamp ties.
	rows, err := db.Query(`
		SELECT report FROM sync_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reports := []models.SyncReport{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		var report models.SyncReport
		if err := json.Unmarshal([]byte(payload), &report); err != nil {
			return nil, fmt.Errorf("failed to decode sync run: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return reports, nil
}

// PruneRuns deletes all but the newest keep reports and returns how many
// were removed.
func PruneRuns(db *sql.DB, keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative: %d", keep)
	}

	res, err := db.Exec(`
		DELETE FROM sync_runs
		WHERE id NOT IN (
			SELECT id FROM sync_runs
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync runs: %w", err)
	}
	return res.RowsAffected()
}
