// database/stats_store.go
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/gewnthar/trainboard/models"
)

// DepartureSummary aggregates departures recorded since the given time.
func (s *Store) DepartureSummary(ctx context.Context, since time.Time) (models.Analytics, error) {
	var (
		a    models.Analytics
		last sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT station_id), COUNT(DISTINCT vehicle_id),
		       COALESCE(ROUND(AVG(delay_seconds), 2), 0), COALESCE(SUM(canceled), 0), MAX(recorded_at)
		FROM departures
		WHERE recorded_at >= ?
	`, since.UTC()).Scan(&a.TotalDepartures, &a.UniqueStations, &a.UniqueVehicles, &a.AvgDelaySeconds, &a.CanceledDepartures, &last)
	if err != nil {
		return a, &StorageError{Op: "summarize departures", Err: err}
	}
	if last.Valid {
		t := last.Time.UTC()
		a.LastUpdate = &t
	}
	return a, nil
}

// DelayStats returns the average delay per station per scheduled day, newest day first.
func (s *Store) DelayStats(ctx context.Context, since time.Time) ([]models.DelayRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT station_name, DATE_FORMAT(scheduled_time, '%Y-%m-%d') AS day,
		       ROUND(AVG(delay_seconds), 2), COUNT(*)
		FROM departures
		WHERE recorded_at >= ?
		GROUP BY station_name, day
		ORDER BY day DESC, station_name
	`, since.UTC())
	if err != nil {
		return nil, &StorageError{Op: "query delay stats", Err: err}
	}
	defer rows.Close()

	out := []models.DelayRow{}
	for rows.Next() {
		var r models.DelayRow
		if err := rows.Scan(&r.StationName, &r.Date, &r.AvgDelay, &r.DepartureCount); err != nil {
			return nil, &StorageError{Op: "scan delay stats", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate delay stats", Err: err}
	}
	return out, nil
}

// PeakHours counts departures per station per UTC hour of the scheduled time.
func (s *Store) PeakHours(ctx context.Context, since time.Time) ([]models.PeakHourRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT station_name, HOUR(scheduled_time) AS hour_of_day, COUNT(*)
		FROM departures
		WHERE recorded_at >= ?
		GROUP BY station_name, hour_of_day
		ORDER BY station_name, hour_of_day
	`, since.UTC())
	if err != nil {
		return nil, &StorageError{Op: "query peak hours", Err: err}
	}
	defer rows.Close()

	out := []models.PeakHourRow{}
	for rows.Next() {
		var r models.PeakHourRow
		if err := rows.Scan(&r.StationName, &r.Hour, &r.Departures); err != nil {
			return nil, &StorageError{Op: "scan peak hours", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate peak hours", Err: err}
	}
	return out, nil
}

// VehicleMix counts departures per vehicle type, most frequent first. Vehicles without a
// known type are counted as "unknown".
func (s *Store) VehicleMix(ctx context.Context, since time.Time) ([]models.VehicleMixRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(v.vehicle_type, ''), 'unknown') AS kind, COUNT(*) AS departures
		FROM departures d
		LEFT JOIN vehicles v ON v.id = d.vehicle_id
		WHERE d.recorded_at >= ?
		GROUP BY kind
		ORDER BY departures DESC, kind
	`, since.UTC())
	if err != nil {
		return nil, &StorageError{Op: "query vehicle mix", Err: err}
	}
	defer rows.Close()

	out := []models.VehicleMixRow{}
	for rows.Next() {
		var r models.VehicleMixRow
		if err := rows.Scan(&r.VehicleType, &r.Count); err != nil {
			return nil, &StorageError{Op: "scan vehicle mix", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate vehicle mix", Err: err}
	}
	return out, nil
}
