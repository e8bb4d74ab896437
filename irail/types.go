// irail/types.go
package irail

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString accepts a JSON string, number or boolean. iRail encodes most numeric
// fields as strings, but not consistently.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
	case '{', '[':
		// Unexpected nested value where a scalar was expected; treat as absent.
		*f = ""
	default:
		*f = FlexString(string(b))
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// StationInfo is the station shape shared by /stations and liveboard responses.
type StationInfo struct {
	ID           FlexString `json:"id"`
	URI          FlexString `json:"@id"`
	Name         FlexString `json:"name"`
	StandardName FlexString `json:"standardname"`
	LocationX    FlexString `json:"locationX"`
	LocationY    FlexString `json:"locationY"`
}

type VehicleInfo struct {
	Name      FlexString `json:"name"`
	ShortName FlexString `json:"shortname"`
	Number    FlexString `json:"number"`
	Type      FlexString `json:"type"`
	URI       FlexString `json:"@id"`
}

type Occupancy struct {
	URI  FlexString `json:"@id"`
	Name FlexString `json:"name"`
}

type PlatformInfo struct {
	Name   FlexString `json:"name"`
	Normal FlexString `json:"normal"`
}

// Departure is one upcoming departure as returned by the liveboard API.
// Station and StationInfo describe the destination, not the board's station.
type Departure struct {
	ID                  FlexString   `json:"id"`
	Station             FlexString   `json:"station"`
	StationInfo         StationInfo  `json:"stationinfo"`
	Time                FlexString   `json:"time"`
	Delay               FlexString   `json:"delay"`
	Canceled            FlexString   `json:"canceled"`
	Left                FlexString   `json:"left"`
	Vehicle             FlexString   `json:"vehicle"`
	VehicleInfo         VehicleInfo  `json:"vehicleinfo"`
	Platform            FlexString   `json:"platform"`
	PlatformInfo        PlatformInfo `json:"platforminfo"`
	Occupancy           Occupancy    `json:"occupancy"`
	DepartureConnection FlexString   `json:"departureConnection"`
}

// DepartureList decodes either an array of departures or a single departure object.
type DepartureList []Departure

func (l *DepartureList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '{' {
		var d Departure
		if err := json.Unmarshal(b, &d); err != nil {
			return err
		}
		*l = DepartureList{d}
		return nil
	}
	var ds []Departure
	if err := json.Unmarshal(b, &ds); err != nil {
		return err
	}
	*l = ds
	return nil
}

// Liveboard is the response of GET /liveboard/.
type Liveboard struct {
	Version     FlexString     `json:"version"`
	Timestamp   FlexString     `json:"timestamp"`
	Station     FlexString     `json:"station"`
	StationInfo StationInfo    `json:"stationinfo"`
	Departures  DepartureBoard `json:"departures"`
}

type DepartureBoard struct {
	Number    FlexString    `json:"number"`
	Departure DepartureList `json:"departure"`
}

type stationsResponse struct {
	Version   FlexString    `json:"version"`
	Timestamp FlexString    `json:"timestamp"`
	Station   []StationInfo `json:"station"`
}
