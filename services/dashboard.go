// services/dashboard.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gewnthar/trainboard/models"
)

// ErrUnknownDataType is returned by PowerBI for an unsupported data type.
var ErrUnknownDataType = errors.New("invalid data type")

// PowerBIDataTypes lists the accepted data types in display order.
var PowerBIDataTypes = []string{
	models.PowerBIDepartures,
	models.PowerBIStations,
	models.PowerBIDelays,
	models.PowerBIPeakHours,
	models.PowerBIVehicles,
}

// maxPowerBIDepartures caps the raw departures export; aggregates are computed by the store.
const maxPowerBIDepartures = 10000

// Dashboard shapes stored departures for the dashboard and Power BI.
type Dashboard struct {
	store Store
	now   func() time.Time
}

func NewDashboard(store Store) *Dashboard {
	return &Dashboard{store: store, now: time.Now}
}

// Analytics summarizes departures recorded within window.
func (d *Dashboard) Analytics(ctx context.Context, window time.Duration) (models.Analytics, error) {
	return d.store.DepartureSummary(ctx, d.since(window))
}

// PowerBI returns the rows for one data type as a typed slice.
func (d *Dashboard) PowerBI(ctx context.Context, dataType string, window time.Duration) (any, error) {
	since := d.since(window)
	switch dataType {
	case models.PowerBIStations:
		stations, err := d.store.ListStations(ctx)
		if err != nil {
			return nil, err
		}
		if stations == nil {
			stations = []models.Station{}
		}
		return stations, nil
	case models.PowerBIDepartures:
		rows, err := d.store.ListDepartures(ctx, models.DepartureFilter{RecordedSince: since, Limit: maxPowerBIDepartures})
		if err != nil {
			return nil, err
		}
		return departureRows(rows), nil
	case models.PowerBIDelays:
		return d.store.DelayStats(ctx, since)
	case models.PowerBIPeakHours:
		return d.store.PeakHours(ctx, since)
	case models.PowerBIVehicles:
		return d.store.VehicleMix(ctx, since)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDataType, dataType)
}

func (d *Dashboard) since(window time.Duration) time.Time {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return d.now().UTC().Add(-window)
}

func departureRows(rows []models.Departure) []models.DepartureRow {
	out := make([]models.DepartureRow, 0, len(rows))
	for _, r := range rows {
		row := models.DepartureRow{
			StationName:   r.StationName,
			VehicleName:   r.VehicleName,
			Destination:   r.Destination,
			Platform:      r.Platform,
			ScheduledTime: r.ScheduledTime.UTC().Format(time.RFC3339),
			DelaySeconds:  r.DelaySeconds,
			IsCanceled:    r.Canceled,
			Occupancy:     r.Occupancy,
			RecordedAt:    r.RecordedAt.UTC().Format(time.RFC3339),
		}
		if !r.ActualTime.IsZero() {
			row.ActualTime = r.ActualTime.UTC().Format(time.RFC3339)
		}
		out = append(out, row)
	}
	return out
}
