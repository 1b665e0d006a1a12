package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const entryColumns = `id, request_id, operation, scsi_id, params, outcome, message, endpoint,
	error_kind, attempts, duration_ms, timestamp`

// RecordCommand appends e to the journal and fills in its ID
func (d *DB) RecordCommand(ctx context.Context, e *Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	var params sql.NullString
	if len(e.Params) > 0 {
		b, err := json.Marshal(e.Params)
		if err == nil {
			params = sql.NullString{String: string(b), Valid: true}
		}
	}

	res, err := d.conn.ExecContext(ctx, `
		INSERT INTO commands (request_id, operation, scsi_id, params, outcome, message, endpoint,
			error_kind, attempts, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RequestID, e.Operation, e.SCSIID, params, e.Outcome, nullString(e.Message),
		nullString(e.Endpoint), nullString(e.ErrorKind), e.Attempts, e.Duration.Milliseconds(),
		e.Timestamp.UTC())
	if err != nil {
		return errors.Wrap(err, "failed to record command")
	}

	e.ID, _ = res.LastInsertId()
	return nil
}

// RecentCommands returns the most recent journal entries, newest first
func (d *DB) RecentCommands(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM commands
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent commands")
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CommandsByOperation returns entries for one operation, newest first
func (d *DB) CommandsByOperation(ctx context.Context, operation string, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM commands
		WHERE operation = ?
		ORDER BY id DESC
		LIMIT ?
	`, operation, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query commands by operation")
	}
	defer rows.Close()

	return scanEntries(rows)
}

// FailuresSince returns transport failures recorded after since, newest first
func (d *DB) FailuresSince(ctx context.Context, since time.Time) ([]*Entry, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM commands
		WHERE outcome = ? AND timestamp > ?
		ORDER BY id DESC
	`, OutcomeFailed, since.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query failures")
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CommandCount returns totals per outcome
func (d *DB) CommandCount(ctx context.Context) (total, ok, rejected, failed int, err error) {
	err = d.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		FROM commands
	`, OutcomeOK, OutcomeRejected, OutcomeFailed).Scan(&total, &ok, &rejected, &failed)
	return
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var e Entry
		var scsiID sql.NullInt64
		var params, message, endpoint, errorKind sql.NullString
		var durationMs int64

		err := rows.Scan(
			&e.ID, &e.RequestID, &e.Operation, &scsiID, &params, &e.Outcome,
			&message, &endpoint, &errorKind, &e.Attempts, &durationMs, &e.Timestamp,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan command")
		}

		if scsiID.Valid {
			id := int(scsiID.Int64)
			e.SCSIID = &id
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &e.Params); err != nil {
				return nil, errors.Wrapf(err, "failed to decode params of command %d", e.ID)
			}
		}
		e.Message = message.String
		e.Endpoint = endpoint.String
		e.ErrorKind = errorKind.String
		e.Duration = time.Duration(durationMs) * time.Millisecond

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
