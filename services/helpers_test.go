// services/helpers_test.go
package services

import (
	"context"
	"io"
	"log"
	"strconv"
	"sync"

	"github.com/gewnthar/trainboard/irail"
)

var quietLogger = log.New(io.Discard, "", 0)

type fakeFetcher struct {
	mu       sync.Mutex
	boards   map[string]*irail.Liveboard
	errs     map[string]error
	stations []irail.StationInfo
	calls    []string
	times    []irail.BoardTime
	closed   int
}

func (f *fakeFetcher) GetLiveboard(_ context.Context, stationID string, at irail.BoardTime) (*irail.Liveboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, stationID)
	f.times = append(f.times, at)
	if err := f.errs[stationID]; err != nil {
		return nil, err
	}
	if b, ok := f.boards[stationID]; ok {
		return b, nil
	}
	return &irail.Liveboard{StationInfo: irail.StationInfo{ID: irail.FlexString(stationID)}}, nil
}

func (f *fakeFetcher) GetStations(context.Context) ([]irail.StationInfo, error) {
	if err := f.errs["stations"]; err != nil {
		return nil, err
	}
	return f.stations, nil
}

func (f *fakeFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeFetcher) factory() FetcherFactory {
	return func() (Fetcher, error) { return f, nil }
}

func board(stationID, name string, deps ...irail.Departure) *irail.Liveboard {
	return &irail.Liveboard{
		Station:     irail.FlexString(name),
		StationInfo: irail.StationInfo{ID: irail.FlexString(stationID), Name: irail.FlexString(name)},
		Departures:  irail.DepartureBoard{Number: irail.FlexString(strconv.Itoa(len(deps))), Departure: deps},
	}
}

func departure(vehicle string, unix int64, delay int) irail.Departure {
	return irail.Departure{
		Station:  "Oostende",
		Time:     irail.FlexString(strconv.FormatInt(unix, 10)),
		Delay:    irail.FlexString(strconv.Itoa(delay)),
		Canceled: "0",
		Vehicle:  irail.FlexString("BE.NMBS." + vehicle),
		Platform: "4",
	}
}
