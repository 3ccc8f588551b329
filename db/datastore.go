// ABOUTME: Generic table/row datastore backing the resource endpoints
// ABOUTME: Rows carry a uuid ROWID, JSON column data, and created/modified timestamps
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/harperreed/zohosync/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("row not found")

// system columns are owned by the datastore and never stored in data.
var systemColumns = []string{"ROWID", "CREATEDTIME", "MODIFIEDTIME"}

// Datastore stores schemaless rows grouped by table name.
type Datastore struct {
	db  *sql.DB
	now func() time.Time
}

// NewDatastore wraps an open database.
func NewDatastore(db *sql.DB) *Datastore {
	return &Datastore{db: db, now: time.Now}
}

// Insert adds a row to table and returns it with its generated ROWID.
func (d *Datastore) Insert(ctx context.Context, table string, data map[string]any) (*models.Row, error) {
	data = stripSystemColumns(data)
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}

	now := d.now().UTC().Truncate(time.Second)
	row := &models.Row{
		ROWID:        uuid.New().String(),
		Table:        table,
		Data:         data,
		CreatedTime:  now,
		ModifiedTime: now,
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO datastore_rows (rowid, table_name, data, created_time, modified_time)
		VALUES (?, ?, ?, ?, ?)
	`, row.ROWID, table, string(payload), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert row: %w", err)
	}
	return row, nil
}

// Get returns one row or ErrNotFound.
func (d *Datastore) Get(ctx context.Context, table, rowID string) (*models.Row, error) {
	r := d.db.QueryRowContext(ctx, `
		SELECT rowid, table_name, data, created_time, modified_time
		FROM datastore_rows
		WHERE table_name = ? AND rowid = ?
	`, table, rowID)

	row, err := scanRow(r)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get row: %w", err)
	}
	return row, nil
}

// List returns every row in table, oldest first.
func (d *Datastore) List(ctx context.Context, table string) ([]models.Row, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT rowid, table_name, data, created_time, modified_time
		FROM datastore_rows
		WHERE table_name = ?
		ORDER BY created_time, rowid
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []models.Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// Update merges data into an existing row. Keys not in data are kept.
func (d *Datastore) Update(ctx context.Context, table, rowID string, data map[string]any) (*models.Row, error) {
	row, err := d.Get(ctx, table, rowID)
	if err != nil {
		return nil, err
	}

	if row.Data == nil {
		row.Data = make(map[string]any)
	}
	for k, v := range stripSystemColumns(data) {
		row.Data[k] = v
	}
	row.ModifiedTime = d.now().UTC().Truncate(time.Second)

	payload, err := json.Marshal(row.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		UPDATE datastore_rows SET data = ?, modified_time = ?
		WHERE table_name = ? AND rowid = ?
	`, string(payload), row.ModifiedTime, table, rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to update row: %w", err)
	}
	return row, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*models.Row, error) {
	var row models.Row
	var data string
	if err := s.Scan(&row.ROWID, &row.Table, &data, &row.CreatedTime, &row.ModifiedTime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &row.Data); err != nil {
		return nil, fmt.Errorf("failed to decode row %s: %w", row.ROWID, err)
	}
	return &row, nil
}

func stripSystemColumns(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, col := range systemColumns {
		delete(out, col)
	}
	return out
}
