// database/run_log_store.go
package database

import (
	"context"
	"database/sql"

	"github.com/gewnthar/trainboard/models"
)

// InsertRunLog appends one audit row. Run logs are never updated.
func (s *Store) InsertRunLog(ctx context.Context, r models.RunLog) error {
	var errText sql.NullString
	if r.ErrorText != "" {
		errText = sql.NullString{String: r.ErrorText, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_logs (
			id, trigger_source, status, started_at, finished_at, duration_ms,
			stations_requested, stations_failed, rows_fetched, rows_written, rows_skipped, rows_failed,
			error_kind, error_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, string(r.TriggerSource), string(r.Status), r.StartedAt.UTC(), r.FinishedAt.UTC(), r.DurationMS,
		r.StationsRequested, r.StationsFailed, r.RowsFetched, r.RowsWritten, r.RowsSkipped, r.RowsFailed,
		string(r.ErrorKind), errText,
	)
	if err != nil {
		return &StorageError{Op: "insert run log", Err: err}
	}
	return nil
}

// ListRunLogs returns the most recent run logs first.
func (s *Store) ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_source, status, started_at, finished_at, duration_ms,
		       stations_requested, stations_failed, rows_fetched, rows_written, rows_skipped, rows_failed,
		       error_kind, error_text
		FROM run_logs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, &StorageError{Op: "query run logs", Err: err}
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var r models.RunLog
		var trigger, status, kind string
		var errText sql.NullString
		if err := rows.Scan(
			&r.ID, &trigger, &status, &r.StartedAt, &r.FinishedAt, &r.DurationMS,
			&r.StationsRequested, &r.StationsFailed, &r.RowsFetched, &r.RowsWritten, &r.RowsSkipped, &r.RowsFailed,
			&kind, &errText,
		); err != nil {
			return nil, &StorageError{Op: "scan run log", Err: err}
		}
		r.TriggerSource = models.TriggerSource(trigger)
		r.Status = models.RunState(status)
		r.ErrorKind = models.ErrorKind(kind)
		r.ErrorText = errText.String
		logs = append(logs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate run logs", Err: err}
	}
	return logs, nil
}
