// database/memory_stats.go
package database

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/gewnthar/trainboard/models"
)

// recordedSince must be called with m.mu held.
func (m *MemoryStore) recordedSince(since time.Time) []models.Departure {
	var out []models.Departure
	for _, d := range m.departures {
		if !d.RecordedAt.Before(since) {
			out = append(out, d)
		}
	}
	return out
}

func (m *MemoryStore) DepartureSummary(ctx context.Context, since time.Time) (models.Analytics, error) {
	var a models.Analytics
	if err := ctx.Err(); err != nil {
		return a, &StorageError{Op: "summarize departures", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.recordedSince(since)
	stations := make(map[string]struct{})
	vehicles := make(map[string]struct{})
	var delaySum int
	for _, r := range rows {
		stations[r.StationID] = struct{}{}
		vehicles[r.VehicleID] = struct{}{}
		delaySum += r.DelaySeconds
		if r.Canceled {
			a.CanceledDepartures++
		}
		if a.LastUpdate == nil || r.RecordedAt.After(*a.LastUpdate) {
			last := r.RecordedAt.UTC()
			a.LastUpdate = &last
		}
	}
	a.TotalDepartures = len(rows)
	a.UniqueStations = len(stations)
	a.UniqueVehicles = len(vehicles)
	if len(rows) > 0 {
		a.AvgDelaySeconds = round2(float64(delaySum) / float64(len(rows)))
	}
	return a, nil
}

func (m *MemoryStore) DelayStats(ctx context.Context, since time.Time) ([]models.DelayRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "query delay stats", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct{ station, date string }
	type agg struct{ sum, count int }
	groups := make(map[key]*agg)
	for _, r := range m.recordedSince(since) {
		k := key{r.StationName, r.ScheduledTime.UTC().Format("2006-01-02")}
		g, ok := groups[k]
		if !ok {
			g = &agg{}
			groups[k] = g
		}
		g.sum += r.DelaySeconds
		g.count++
	}

	out := make([]models.DelayRow, 0, len(groups))
	for k, g := range groups {
		out = append(out, models.DelayRow{
			StationName:    k.station,
			Date:           k.date,
			AvgDelay:       round2(float64(g.sum) / float64(g.count)),
			DepartureCount: g.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].StationName < out[j].StationName
	})
	return out, nil
}

func (m *MemoryStore) PeakHours(ctx context.Context, since time.Time) ([]models.PeakHourRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "query peak hours", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct {
		station string
		hour    int
	}
	counts := make(map[key]int)
	for _, r := range m.recordedSince(since) {
		counts[key{r.StationName, r.ScheduledTime.UTC().Hour()}]++
	}

	out := make([]models.PeakHourRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.PeakHourRow{StationName: k.station, Hour: k.hour, Departures: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StationName != out[j].StationName {
			return out[i].StationName < out[j].StationName
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

func (m *MemoryStore) VehicleMix(ctx context.Context, since time.Time) ([]models.VehicleMixRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "query vehicle mix", Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range m.recordedSince(since) {
		kind := m.vehicles[r.VehicleID].VehicleType
		if kind == "" {
			kind = "unknown"
		}
		counts[kind]++
	}
	out := make([]models.VehicleMixRow, 0, len(counts))
	for kind, n := range counts {
		out = append(out, models.VehicleMixRow{VehicleType: kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].VehicleType < out[j].VehicleType
	})
	return out, nil
}

// round2 rounds half away from zero, like MySQL ROUND(x, 2) on a DECIMAL.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
