// database/departure_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gewnthar/trainboard/models"
)

const upsertVehicleSQL = `
	INSERT INTO vehicles (id, short_name, number, vehicle_type, uri, updated_at)
	VALUES (?, ?, ?, ?, ?, UTC_TIMESTAMP())
	ON DUPLICATE KEY UPDATE
		short_name = IF(VALUES(short_name) = '', short_name, VALUES(short_name)),
		number = IF(VALUES(number) = '', number, VALUES(number)),
		vehicle_type = IF(VALUES(vehicle_type) = '', vehicle_type, VALUES(vehicle_type)),
		uri = IF(VALUES(uri) = '', uri, VALUES(uri)),
		updated_at = UTC_TIMESTAMP()
`

const upsertDepartureSQL = `
	INSERT INTO departures (
		station_id, station_name, vehicle_id, vehicle_name, destination, platform,
		scheduled_time, actual_time, delay_seconds, canceled, occupancy,
		departure_connection, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		station_name = VALUES(station_name),
		vehicle_name = VALUES(vehicle_name),
		destination = VALUES(destination),
		platform = VALUES(platform),
		actual_time = VALUES(actual_time),
		delay_seconds = VALUES(delay_seconds),
		canceled = VALUES(canceled),
		occupancy = VALUES(occupancy),
		departure_connection = VALUES(departure_connection),
		recorded_at = VALUES(recorded_at)
`

// UpsertDepartures writes a batch in one transaction. Every row runs under its own
// savepoint: a failing row is rolled back alone and the rest of the batch is kept.
func (s *Store) UpsertDepartures(ctx context.Context, rows []models.Departure) (models.UpsertResult, error) {
	var result models.UpsertResult
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, &StorageError{Op: "begin departures batch", Err: err}
	}
	defer tx.Rollback()

	for i, row := range rows {
		err, fatal := s.upsertDepartureRow(ctx, tx, i, row)
		if fatal != nil {
			s.logger.Printf("ERROR Database: departures batch abandoned at row %d: %v", i, fatal)
			return models.UpsertResult{Failed: len(rows)}, &StorageError{Op: "write departures batch", Err: fatal}
		}
		if err != nil {
			key := row.Key()
			s.logger.Printf("WARN Database: departure %s/%s@%s not written: %v",
				key.StationID, key.VehicleID, key.ScheduledTime.Format("2006-01-02T15:04:05Z"), err)
			result.Failed++
			result.Errors = append(result.Errors, models.RowError{Key: key, ID: rowLabel(key), Err: err.Error()})
			continue
		}
		result.Written++
	}

	if err := tx.Commit(); err != nil {
		return models.UpsertResult{Failed: len(rows)}, &StorageError{Op: "commit departures batch", Err: err}
	}

	s.logger.Printf("Database: upserted %d departures (%d failed)", result.Written, result.Failed)
	return result, nil
}

// upsertDepartureRow returns the row's own error, or fatal when the transaction can no longer
// be trusted and nothing written so far in the batch will survive.
func (s *Store) upsertDepartureRow(ctx context.Context, tx *sql.Tx, i int, row models.Departure) (rowErr, fatal error) {
	if err := row.CheckKey(); err != nil {
		return err, nil
	}

	savepoint := fmt.Sprintf("departure_%d", i)
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return nil, fmt.Errorf("savepoint: %w", err)
	}

	writeErr := func() error {
		v := row.Vehicle()
		if _, err := tx.ExecContext(ctx, upsertVehicleSQL, v.ID, v.ShortName, v.Number, v.VehicleType, v.URI); err != nil {
			return fmt.Errorf("upsert vehicle: %w", err)
		}
		var actual sql.NullTime
		if !row.ActualTime.IsZero() {
			actual = sql.NullTime{Time: row.ActualTime.UTC(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, upsertDepartureSQL,
			row.StationID, row.StationName, row.VehicleID, row.VehicleName, row.Destination, row.Platform,
			row.ScheduledTime.UTC(), actual, row.DelaySeconds, row.Canceled, row.Occupancy,
			row.DepartureConnection, row.RecordedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upsert departure: %w", err)
		}
		return nil
	}()
	if writeErr != nil {
		if txLost(writeErr) {
			return nil, writeErr
		}
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); err != nil {
			return nil, errors.Join(writeErr, fmt.Errorf("rollback to savepoint: %w", err))
		}
		return writeErr, nil
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		return nil, fmt.Errorf("release savepoint: %w", err)
	}
	return nil, nil
}

// ListDepartures returns departures newest scheduled first.
func (s *Store) ListDepartures(ctx context.Context, filter models.DepartureFilter) ([]models.Departure, error) {
	var (
		where []string
		args  []any
	)
	if filter.StationID != "" {
		where = append(where, "station_id = ?")
		args = append(args, filter.StationID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "scheduled_time >= ?")
		args = append(args, filter.Since.UTC())
	}
	if !filter.RecordedSince.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, filter.RecordedSince.UTC())
	}

	query := `
		SELECT id, station_id, station_name, vehicle_id, vehicle_name, destination, platform,
		       scheduled_time, actual_time, delay_seconds, canceled, occupancy,
		       departure_connection, recorded_at
		FROM departures`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY scheduled_time DESC, id DESC"
	if filter.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "query departures", Err: err}
	}
	defer rows.Close()

	var departures []models.Departure
	for rows.Next() {
		var d models.Departure
		var actual sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.StationID, &d.StationName, &d.VehicleID, &d.VehicleName, &d.Destination, &d.Platform,
			&d.ScheduledTime, &actual, &d.DelaySeconds, &d.Canceled, &d.Occupancy,
			&d.DepartureConnection, &d.RecordedAt,
		); err != nil {
			return nil, &StorageError{Op: "scan departure", Err: err}
		}
		if actual.Valid {
			d.ActualTime = actual.Time
		}
		departures = append(departures, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate departures", Err: err}
	}
	return departures, nil
}

func rowLabel(k models.DepartureKey) string {
	return fmt.Sprintf("%s/%s@%s", k.StationID, k.VehicleID, k.ScheduledTime.Format("2006-01-02T15:04:05Z"))
}
