// database/memory_store.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gewnthar/trainboard/models"
)

// MemoryStore keeps everything in process memory. It is used when no database is
// configured and as the store behind service and handler tests.
type MemoryStore struct {
	mu         sync.RWMutex
	stations   map[string]models.Station
	vehicles   map[string]models.Vehicle
	departures map[models.DepartureKey]models.Departure
	runLogs    []models.RunLog
	nextID     int64

	pingErr  error
	rowCheck func(models.Departure) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stations:   make(map[string]models.Station),
		vehicles:   make(map[string]models.Vehicle),
		departures: make(map[models.DepartureKey]models.Departure),
	}
}

// SetPingError makes Ping report err (nil restores health).
func (m *MemoryStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// SetRowCheck installs a hook run before each departure write; a non-nil error fails that row.
func (m *MemoryStore) SetRowCheck(check func(models.Departure) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowCheck = check
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.pingErr
}

func (m *MemoryStore) UpsertStations(ctx context.Context, stations []models.Station) (models.UpsertResult, error) {
	var result models.UpsertResult
	if err := ctx.Err(); err != nil {
		return result, &StorageError{Op: "begin stations batch", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, st := range stations {
		if st.ID == "" {
			result.Failed++
			result.Errors = append(result.Errors, models.RowError{ID: st.Name, Err: models.ErrMissingStationID.Error()})
			continue
		}
		st.UpdatedAt = now
		m.stations[st.ID] = st
		result.Written++
	}
	return result, nil
}

func (m *MemoryStore) ListStations(ctx context.Context) ([]models.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "query stations", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Station, 0, len(m.stations))
	for _, st := range m.stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) UpsertDepartures(ctx context.Context, rows []models.Departure) (models.UpsertResult, error) {
	var result models.UpsertResult
	if len(rows) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, &StorageError{Op: "begin departures batch", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		key := row.Key()
		err := row.CheckKey()
		if err == nil && m.rowCheck != nil {
			err = m.rowCheck(row)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, models.RowError{Key: key, ID: rowLabel(key), Err: err.Error()})
			continue
		}

		m.mergeVehicle(row.Vehicle())
		if existing, ok := m.departures[key]; ok {
			row.ID = existing.ID
		} else {
			m.nextID++
			row.ID = m.nextID
		}
		row.ScheduledTime = key.ScheduledTime
		m.departures[key] = row
		result.Written++
	}
	return result, nil
}

// mergeVehicle keeps known attributes when the incoming value is empty, like the SQL upsert.
func (m *MemoryStore) mergeVehicle(v models.Vehicle) {
	old, ok := m.vehicles[v.ID]
	if ok {
		if v.ShortName == "" {
			v.ShortName = old.ShortName
		}
		if v.Number == "" {
			v.Number = old.Number
		}
		if v.VehicleType == "" {
			v.VehicleType = old.VehicleType
		}
		if v.URI == "" {
			v.URI = old.URI
		}
	}
	m.vehicles[v.ID] = v
}

func (m *MemoryStore) ListDepartures(ctx context.Context, filter models.DepartureFilter) ([]models.Departure, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "query departures", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Departure
	for _, d := range m.departures {
		if filter.StationID != "" && d.StationID != filter.StationID {
			continue
		}
		if !filter.Since.IsZero() && d.ScheduledTime.Before(filter.Since) {
			continue
		}
		if !filter.RecordedSince.IsZero() && d.RecordedAt.Before(filter.RecordedSince) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.After(out[j].ScheduledTime)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Vehicles returns a copy of the known vehicles, keyed by id.
func (m *MemoryStore) Vehicles() map[string]models.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.Vehicle, len(m.vehicles))
	for k, v := range m.vehicles {
		out[k] = v
	}
	return out
}

func (m *MemoryStore) InsertRunLog(ctx context.Context, r models.RunLog) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "insert run log", Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runLogs = append(m.runLogs, r)
	return nil
}

func (m *MemoryStore) ListRunLogs(ctx context.Context, limit int) ([]models.RunLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "query run logs", Err: err}
	}
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.RunLog, len(m.runLogs))
	copy(out, m.runLogs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
