// database/station_store.go
package database

import (
	"context"
	"fmt"

	"github.com/gewnthar/trainboard/models"
)

// UpsertStations writes the station reference list, one savepoint per row.
func (s *Store) UpsertStations(ctx context.Context, stations []models.Station) (models.UpsertResult, error) {
	var result models.UpsertResult
	if len(stations) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, &StorageError{Op: "begin stations batch", Err: err}
	}
	defer tx.Rollback()

	for i, st := range stations {
		if st.ID == "" {
			result.Failed++
			result.Errors = append(result.Errors, models.RowError{ID: st.Name, Err: models.ErrMissingStationID.Error()})
			continue
		}
		savepoint := fmt.Sprintf("station_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
			return models.UpsertResult{Failed: len(stations)}, &StorageError{Op: "create savepoint", Err: err}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stations (id, name, standard_name, location_x, location_y, uri, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())
			ON DUPLICATE KEY UPDATE
				name = VALUES(name),
				standard_name = VALUES(standard_name),
				location_x = VALUES(location_x),
				location_y = VALUES(location_y),
				uri = VALUES(uri),
				updated_at = UTC_TIMESTAMP()
		`, st.ID, st.Name, st.StandardName, st.LocationX, st.LocationY, st.URI)
		if err != nil {
			if txLost(err) {
				return models.UpsertResult{Failed: len(stations)}, &StorageError{Op: "write stations batch", Err: err}
			}
			s.logger.Printf("WARN Database: station %s not written: %v", st.ID, err)
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
				return models.UpsertResult{Failed: len(stations)}, &StorageError{Op: "rollback to savepoint", Err: rbErr}
			}
			result.Failed++
			result.Errors = append(result.Errors, models.RowError{ID: st.ID, Err: err.Error()})
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
			return models.UpsertResult{Failed: len(stations)}, &StorageError{Op: "release savepoint", Err: err}
		}
		result.Written++
	}

	if err := tx.Commit(); err != nil {
		return models.UpsertResult{Failed: len(stations)}, &StorageError{Op: "commit stations batch", Err: err}
	}
	s.logger.Printf("Database: upserted %d stations (%d failed)", result.Written, result.Failed)
	return result, nil
}

// ListStations returns all stations ordered by name.
func (s *Store) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, standard_name, location_x, location_y, uri, updated_at
		FROM stations
		ORDER BY name
	`)
	if err != nil {
		return nil, &StorageError{Op: "query stations", Err: err}
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.StandardName, &st.LocationX, &st.LocationY, &st.URI, &st.UpdatedAt); err != nil {
			return nil, &StorageError{Op: "scan station", Err: err}
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "iterate stations", Err: err}
	}
	return stations, nil
}
