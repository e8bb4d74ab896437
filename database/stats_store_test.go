// database/stats_store_test.go
package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/trainboard/models"
)

func TestStore_DepartureSummary(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	last := since.Add(23 * time.Hour)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT station_id\), COUNT\(DISTINCT vehicle_id\).*FROM departures\s+WHERE recorded_at >= \?`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "stations", "vehicles", "avg", "canceled", "last"}).
			AddRow(42, 3, 17, 95.24, 2, last))

	a, err := store.DepartureSummary(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 42, a.TotalDepartures)
	assert.Equal(t, 3, a.UniqueStations)
	assert.Equal(t, 17, a.UniqueVehicles)
	assert.Equal(t, 95.24, a.AvgDelaySeconds)
	assert.Equal(t, 2, a.CanceledDepartures)
	require.NotNil(t, a.LastUpdate)
	assert.Equal(t, last, *a.LastUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DepartureSummaryEmptyWindow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM departures").
		WillReturnRows(sqlmock.NewRows([]string{"total", "stations", "vehicles", "avg", "canceled", "last"}).
			AddRow(0, 0, 0, 0, 0, nil))

	a, err := store.DepartureSummary(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, a.TotalDepartures)
	assert.Nil(t, a.LastUpdate)
}

func TestStore_DelayStatsGroupsInSQL(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`GROUP BY station_name, day\s+ORDER BY day DESC, station_name`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"station_name", "day", "avg", "n"}).
			AddRow("Antwerp-Central", "2025-01-06", 180.0, 1).
			AddRow("Brussels-Central", "2025-01-06", 30.5, 2))

	rows, err := store.DelayStats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []models.DelayRow{
		{StationName: "Antwerp-Central", Date: "2025-01-06", AvgDelay: 180, DepartureCount: 1},
		{StationName: "Brussels-Central", Date: "2025-01-06", AvgDelay: 30.5, DepartureCount: 2},
	}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PeakHours(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`HOUR\(scheduled_time\).*GROUP BY station_name, hour_of_day`).
		WillReturnRows(sqlmock.NewRows([]string{"station_name", "hour_of_day", "n"}).
			AddRow("Brussels-Central", 8, 14))

	rows, err := store.PeakHours(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []models.PeakHourRow{{StationName: "Brussels-Central", Hour: 8, Departures: 14}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_VehicleMixJoinsVehicles(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`LEFT JOIN vehicles v ON v.id = d.vehicle_id.*GROUP BY kind`).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "departures"}).
			AddRow("IC", 20).
			AddRow("unknown", 1))

	rows, err := store.VehicleMix(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []models.VehicleMixRow{{VehicleType: "IC", Count: 20}, {VehicleType: "unknown", Count: 1}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_StatsQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM departures").WillReturnError(assert.AnError)

	_, err := store.PeakHours(context.Background(), time.Now())
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "query peak hours", storageErr.Op)
}
