// models/departure.go
package models

import (
	"errors"
	"time"
)

// Departure is one row of the departures table.
// (StationID, VehicleID, ScheduledTime) is unique; re-ingesting it updates the row.
type Departure struct {
	ID                  int64     `db:"id" json:"id"`
	StationID           string    `db:"station_id" json:"station_id"`
	StationName         string    `db:"station_name" json:"station_name"`
	VehicleID           string    `db:"vehicle_id" json:"vehicle_id"`
	VehicleName         string    `db:"vehicle_name" json:"vehicle_name"`
	VehicleType         string    `db:"-" json:"vehicle_type,omitempty"`
	VehicleURI          string    `db:"-" json:"-"`
	VehicleNumber       string    `db:"-" json:"-"`
	Destination         string    `db:"destination" json:"destination"`
	Platform            string    `db:"platform" json:"platform"`
	ScheduledTime       time.Time `db:"scheduled_time" json:"scheduled_time"`
	ActualTime          time.Time `db:"actual_time" json:"actual_time"`
	DelaySeconds        int       `db:"delay_seconds" json:"delay_seconds"`
	Canceled            bool      `db:"canceled" json:"canceled"`
	Occupancy           string    `db:"occupancy" json:"occupancy,omitempty"`
	DepartureConnection string    `db:"departure_connection" json:"departure_connection,omitempty"`
	RecordedAt          time.Time `db:"recorded_at" json:"recorded_at"`
}

// DepartureKey is the composite unique key of a departure.
type DepartureKey struct {
	StationID     string
	VehicleID     string
	ScheduledTime time.Time
}

// Key returns the composite key, with the scheduled time normalized to UTC seconds.
func (d Departure) Key() DepartureKey {
	return DepartureKey{
		StationID:     d.StationID,
		VehicleID:     d.VehicleID,
		ScheduledTime: d.ScheduledTime.UTC().Truncate(time.Second),
	}
}

var (
	ErrMissingStationID     = errors.New("missing station id")
	ErrMissingVehicleID     = errors.New("missing vehicle id")
	ErrMissingScheduledTime = errors.New("missing scheduled time")
)

// CheckKey reports the first missing key field, if any.
func (d Departure) CheckKey() error {
	switch {
	case d.StationID == "":
		return ErrMissingStationID
	case d.VehicleID == "":
		return ErrMissingVehicleID
	case d.ScheduledTime.IsZero():
		return ErrMissingScheduledTime
	}
	return nil
}

// Vehicle extracts the vehicle reference carried by the departure.
func (d Departure) Vehicle() Vehicle {
	return Vehicle{
		ID:          d.VehicleID,
		ShortName:   d.VehicleName,
		Number:      d.VehicleNumber,
		VehicleType: d.VehicleType,
		URI:         d.VehicleURI,
	}
}

// DepartureFilter narrows ListDepartures. Zero values mean "no constraint".
type DepartureFilter struct {
	StationID     string
	Since         time.Time // on scheduled_time
	RecordedSince time.Time // on recorded_at
	Limit         int
}

// RowError describes one row that could not be written.
type RowError struct {
	Key DepartureKey `json:"-"`
	ID  string       `json:"id"`
	Err string       `json:"error"`
}

// UpsertResult summarizes a batch write. Each row is attempted independently.
type UpsertResult struct {
	Written int        `json:"written"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors,omitempty"`
}
