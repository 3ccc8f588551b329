// ABOUTME: Persistence for enriched records produced by a sync
// ABOUTME: Upserts batches into synced_records keyed by table and record id
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Record is one row to persist. Payload is stored as JSON.
type Record struct {
	ID      string
	Payload any
}

// RecordStore writes synced records to SQLite.
type RecordStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewRecordStore wraps an open database.
func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db, now: time.Now}
}

// InsertRows upserts rows into table inside one transaction. A row with an
// existing (table, id) pair replaces the stored payload.
func (s *RecordStore) InsertRows(ctx context.Context, table string, rows []Record) error {
	if table == "" {
		return errors.New("table name is required")
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO synced_records (table_name, record_id, payload, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_name, record_id) DO UPDATE SET
			payload = excluded.payload,
			synced_at = excluded.synced_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now().UTC()
	for _, row := range rows {
		if row.ID == "" {
			return fmt.Errorf("record in %s has no id", table)
		}
		payload, err := json.Marshal(row.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode record %s: %w", row.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, table, row.ID, string(payload), now); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// CountRows returns how many records table holds.
func (s *RecordStore) CountRows(ctx context.Context, table string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synced_records WHERE table_name = ?`, table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// GetRecord decodes the stored payload for id into out. It returns false if
// no such record exists.
func (s *RecordStore) GetRecord(ctx context.Context, table, id string, out any) (bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM synced_records WHERE table_name = ? AND record_id = ?
	`, table, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get record: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return true, nil
}
