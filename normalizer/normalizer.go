// normalizer/normalizer.go
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/models"
)

// ValidationError reports an upstream record that cannot be mapped to a row.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s %s", e.Field, e.Reason)
}

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is missing"}
}

// Departure maps one liveboard departure of board to the departures row schema.
// Optional fields fall back to zero values; a missing key field is a ValidationError.
func Departure(board irail.StationInfo, dep irail.Departure, recordedAt time.Time) (models.Departure, error) {
	stationID := strings.TrimSpace(board.ID.String())
	if stationID == "" {
		return models.Departure{}, missing("station id")
	}

	vehicleID := firstNonEmpty(dep.Vehicle.String(), dep.VehicleInfo.Name.String())
	if vehicleID == "" {
		return models.Departure{}, missing("vehicle id")
	}

	if dep.Time == "" {
		return models.Departure{}, missing("scheduled time")
	}
	unix, err := strconv.ParseInt(dep.Time.String(), 10, 64)
	if err != nil || unix <= 0 {
		return models.Departure{}, &ValidationError{Field: "scheduled time", Reason: fmt.Sprintf("is not a unix timestamp: %q", dep.Time)}
	}
	scheduled := time.Unix(unix, 0).UTC()

	delay := parseIntOr(dep.Delay.String(), 0)

	return models.Departure{
		StationID:           stationID,
		StationName:         firstNonEmpty(board.Name.String(), board.StandardName.String()),
		VehicleID:           vehicleID,
		VehicleName:         firstNonEmpty(dep.VehicleInfo.ShortName.String(), shortVehicleName(vehicleID)),
		VehicleType:         firstNonEmpty(dep.VehicleInfo.Type.String(), vehicleType(vehicleID)),
		VehicleNumber:       dep.VehicleInfo.Number.String(),
		VehicleURI:          dep.VehicleInfo.URI.String(),
		Destination:         firstNonEmpty(dep.Station.String(), dep.StationInfo.Name.String()),
		Platform:            firstNonEmpty(dep.Platform.String(), dep.PlatformInfo.Name.String()),
		ScheduledTime:       scheduled,
		ActualTime:          scheduled.Add(time.Duration(delay) * time.Second),
		DelaySeconds:        delay,
		Canceled:            parseFlag(dep.Canceled.String()),
		Occupancy:           occupancyLevel(dep.Occupancy),
		DepartureConnection: dep.DepartureConnection.String(),
		RecordedAt:          recordedAt.UTC(),
	}, nil
}

// Station maps a /stations entry to the stations row schema.
func Station(s irail.StationInfo, updatedAt time.Time) (models.Station, error) {
	id := strings.TrimSpace(s.ID.String())
	if id == "" {
		id = stationIDFromURI(s.URI.String())
	}
	if id == "" {
		return models.Station{}, missing("station id")
	}
	name := firstNonEmpty(s.Name.String(), s.StandardName.String())
	if name == "" {
		return models.Station{}, missing("station name")
	}
	return models.Station{
		ID:           id,
		Name:         name,
		StandardName: s.StandardName.String(),
		LocationX:    parseFloatOr(s.LocationX.String(), 0),
		LocationY:    parseFloatOr(s.LocationY.String(), 0),
		URI:          s.URI.String(),
		UpdatedAt:    updatedAt.UTC(),
	}, nil
}

// stationIDFromURI turns "http://irail.be/stations/NMBS/008812005" into "BE.NMBS.008812005".
func stationIDFromURI(uri string) string {
	parts := strings.Split(strings.TrimRight(uri, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	code := parts[len(parts)-1]
	if _, err := strconv.Atoi(code); err != nil {
		return ""
	}
	return "BE." + parts[len(parts)-2] + "." + code
}

// shortVehicleName turns "BE.NMBS.IC1832" into "IC1832".
func shortVehicleName(vehicleID string) string {
	if i := strings.LastIndex(vehicleID, "."); i >= 0 {
		return vehicleID[i+1:]
	}
	return vehicleID
}

// vehicleType extracts the leading letters of the short name, e.g. "IC" from "IC1832".
func vehicleType(vehicleID string) string {
	short := shortVehicleName(vehicleID)
	end := strings.IndexFunc(short, func(r rune) bool { return r >= '0' && r <= '9' })
	if end <= 0 {
		return ""
	}
	return short[:end]
}

func occupancyLevel(o irail.Occupancy) string {
	if name := o.Name.String(); name != "" {
		return name
	}
	uri := strings.TrimRight(o.URI.String(), "/")
	if uri == "" {
		return ""
	}
	return uri[strings.LastIndex(uri, "/")+1:]
}

func parseIntOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return fallback
}

func parseFloatOr(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
