// models/api_models.go
package models

import "time"

// Analytics is the dashboard summary over a recent window of departures.
type Analytics struct {
	TotalDepartures    int        `json:"total_departures"`
	UniqueStations     int        `json:"unique_stations"`
	UniqueVehicles     int        `json:"unique_vehicles"`
	AvgDelaySeconds    float64    `json:"avg_delay_seconds"`
	CanceledDepartures int        `json:"canceled_departures"`
	LastUpdate         *time.Time `json:"last_update"`
}

// PowerBI data types accepted by /api/powerbi.
const (
	PowerBIDepartures = "departures"
	PowerBIStations   = "stations"
	PowerBIDelays     = "delays"
	PowerBIPeakHours  = "peak_hours"
	PowerBIVehicles   = "vehicles"
)

// DepartureRow is the flat departure shape handed to Power BI.
type DepartureRow struct {
	StationName   string `json:"station_name" csv:"station_name"`
	VehicleName   string `json:"vehicle_name" csv:"vehicle_name"`
	Destination   string `json:"destination" csv:"destination"`
	Platform      string `json:"platform" csv:"platform"`
	ScheduledTime string `json:"scheduled_time" csv:"scheduled_time"`
	ActualTime    string `json:"actual_time" csv:"actual_time"`
	DelaySeconds  int    `json:"delay_seconds" csv:"delay_seconds"`
	IsCanceled    bool   `json:"is_canceled" csv:"is_canceled"`
	Occupancy     string `json:"occupancy_level" csv:"occupancy_level"`
	RecordedAt    string `json:"recorded_at" csv:"recorded_at"`
}

// DelayRow aggregates delays per station per day.
type DelayRow struct {
	StationName    string  `json:"station_name" csv:"station_name"`
	Date           string  `json:"date" csv:"date"`
	AvgDelay       float64 `json:"avg_delay" csv:"avg_delay"`
	DepartureCount int     `json:"departure_count" csv:"departure_count"`
}

// PeakHourRow counts departures per station per hour of day.
type PeakHourRow struct {
	StationName string `json:"station_name" csv:"station_name"`
	Hour        int    `json:"hour" csv:"hour"`
	Departures  int    `json:"departures" csv:"departures"`
}

// VehicleMixRow counts departures per vehicle type.
type VehicleMixRow struct {
	VehicleType string `json:"vehicle_type" csv:"vehicle_type"`
	Count       int    `json:"count" csv:"count"`
}
