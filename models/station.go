// models/station.go
package models

import "time"

// Station is reference data for a railway station, refreshed by a periodic full resync.
// ID looks like "BE.NMBS.008812005"; LocationX is the longitude, LocationY the latitude.
type Station struct {
	ID           string    `db:"id" json:"id" csv:"id"`
	Name         string    `db:"name" json:"name" csv:"name"`
	StandardName string    `db:"standard_name" json:"standard_name" csv:"standard_name"`
	LocationX    float64   `db:"location_x" json:"location_x" csv:"location_x"`
	LocationY    float64   `db:"location_y" json:"location_y" csv:"location_y"`
	URI          string    `db:"uri" json:"uri" csv:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at" csv:"-"`
}

// Vehicle identifies a train run, e.g. "BE.NMBS.IC1832".
type Vehicle struct {
	ID          string `db:"id" json:"id"`
	ShortName   string `db:"short_name" json:"short_name"`
	Number      string `db:"number" json:"number"`
	VehicleType string `db:"vehicle_type" json:"vehicle_type"`
	URI         string `db:"uri" json:"uri"`
}
