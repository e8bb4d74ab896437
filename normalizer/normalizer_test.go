package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/trainboard/irail"
)

var (
	board = irail.StationInfo{ID: "BE.NMBS.008812005", Name: "Brussels-Central"}
	now   = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
)

func TestDepartureMapsAllFields(t *testing.T) {
	dep := irail.Departure{
		Station:             "Antwerp-Central",
		Time:                "1700000400",
		Delay:               "120",
		Canceled:            "0",
		Vehicle:             "BE.NMBS.IC1832",
		VehicleInfo:         irail.VehicleInfo{ShortName: "IC 1832", Number: "1832", Type: "IC", URI: "http://irail.be/vehicle/IC1832"},
		Platform:            "3",
		Occupancy:           irail.Occupancy{URI: "http://api.irail.be/terms/high"},
		DepartureConnection: "http://irail.be/connections/8812005/20231114/IC1832",
	}

	row, err := Departure(board, dep, now)
	require.NoError(t, err)

	scheduled := time.Unix(1700000400, 0).UTC()
	assert.Equal(t, "BE.NMBS.008812005", row.StationID)
	assert.Equal(t, "Brussels-Central", row.StationName)
	assert.Equal(t, "BE.NMBS.IC1832", row.VehicleID)
	assert.Equal(t, "IC 1832", row.VehicleName)
	assert.Equal(t, "IC", row.VehicleType)
	assert.Equal(t, "Antwerp-Central", row.Destination)
	assert.Equal(t, "3", row.Platform)
	assert.Equal(t, scheduled, row.ScheduledTime)
	assert.Equal(t, scheduled.Add(2*time.Minute), row.ActualTime)
	assert.Equal(t, 120, row.DelaySeconds)
	assert.False(t, row.Canceled)
	assert.Equal(t, "high", row.Occupancy)
	assert.Equal(t, now, row.RecordedAt)
}

func TestDepartureDefaultsOptionalFields(t *testing.T) {
	dep := irail.Departure{Time: "1700000400", Vehicle: "BE.NMBS.S11234"}

	row, err := Departure(board, dep, now)
	require.NoError(t, err)

	assert.Equal(t, 0, row.DelaySeconds)
	assert.Equal(t, "", row.Platform)
	assert.False(t, row.Canceled)
	assert.Equal(t, row.ScheduledTime, row.ActualTime)
	assert.Equal(t, "S11234", row.VehicleName)
	assert.Equal(t, "S", row.VehicleType)
	assert.Equal(t, "", row.Occupancy)
}

func TestDepartureFallsBackToInfoBlocks(t *testing.T) {
	dep := irail.Departure{
		Time:         "1700000400",
		VehicleInfo:  irail.VehicleInfo{Name: "BE.NMBS.L2960"},
		StationInfo:  irail.StationInfo{Name: "Mechelen"},
		PlatformInfo: irail.PlatformInfo{Name: "12"},
		Canceled:     "1",
	}

	row, err := Departure(board, dep, now)
	require.NoError(t, err)
	assert.Equal(t, "BE.NMBS.L2960", row.VehicleID)
	assert.Equal(t, "Mechelen", row.Destination)
	assert.Equal(t, "12", row.Platform)
	assert.True(t, row.Canceled)
}

func TestDepartureRejectsMissingKeys(t *testing.T) {
	cases := []struct {
		name  string
		board irail.StationInfo
		dep   irail.Departure
		field string
	}{
		{"station", irail.StationInfo{Name: "Nowhere"}, irail.Departure{Time: "1700000400", Vehicle: "BE.NMBS.IC1"}, "station id"},
		{"vehicle", board, irail.Departure{Time: "1700000400"}, "vehicle id"},
		{"time", board, irail.Departure{Vehicle: "BE.NMBS.IC1"}, "scheduled time"},
		{"garbage time", board, irail.Departure{Time: "soon", Vehicle: "BE.NMBS.IC1"}, "scheduled time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Departure(tc.board, tc.dep, now)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestDepartureToleratesGarbageDelay(t *testing.T) {
	row, err := Departure(board, irail.Departure{Time: "1700000400", Vehicle: "BE.NMBS.IC1", Delay: "n/a"}, now)
	require.NoError(t, err)
	assert.Equal(t, 0, row.DelaySeconds)
}

func TestStation(t *testing.T) {
	st, err := Station(irail.StationInfo{
		URI:          "http://irail.be/stations/NMBS/008833001",
		Name:         "Leuven",
		StandardName: "Leuven",
		LocationX:    "4.715866",
		LocationY:    "50.88228",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "BE.NMBS.008833001", st.ID)
	assert.InDelta(t, 4.715866, st.LocationX, 1e-9)
	assert.InDelta(t, 50.88228, st.LocationY, 1e-9)

	_, err = Station(irail.StationInfo{Name: "Ghost"}, now)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
