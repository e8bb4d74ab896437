package irail

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/trainboard/config"
)

const liveboardJSON = `{
  "version": "1.3",
  "timestamp": "1700000000",
  "station": "Brussels-Central",
  "stationinfo": {"id": "BE.NMBS.008812005", "@id": "http://irail.be/stations/NMBS/008812005", "name": "Brussels-Central", "locationX": "4.356801", "locationY": "50.845658", "standardname": "Brussel-Centraal/Bruxelles-Central"},
  "departures": {
    "number": "2",
    "departure": [
      {"id": "0", "station": "Antwerp-Central", "time": "1700000400", "delay": "120", "canceled": "0", "vehicle": "BE.NMBS.IC1832",
       "vehicleinfo": {"name": "BE.NMBS.IC1832", "shortname": "IC 1832", "number": "1832", "type": "IC", "@id": "http://irail.be/vehicle/IC1832"},
       "platform": "3", "occupancy": {"@id": "http://api.irail.be/terms/low", "name": "low"}},
      {"id": "1", "station": "Leuven", "time": 1700000700, "delay": 0, "canceled": "1", "vehicle": "BE.NMBS.S1234", "platform": ""}
    ]
  }
}`

func testConfig(baseURL string) config.IRailConfig {
	return config.IRailConfig{
		BaseURL:        baseURL,
		UserAgent:      "trainboard-test",
		Format:         "json",
		Lang:           "en",
		Timeout:        2 * time.Second,
		RetryDelay:     time.Millisecond,
		MaxRetries:     2,
		RequestsPerSec: 1000,
	}
}

func newTestClient(t *testing.T, cfg config.IRailConfig) *Client {
	t.Helper()
	c, err := NewClient(cfg, WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetLiveboardDecodesDepartures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/liveboard/", r.URL.Path)
		assert.Equal(t, "BE.NMBS.008812005", r.URL.Query().Get("id"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "trainboard-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, liveboardJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	board, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})
	require.NoError(t, err)

	assert.Equal(t, FlexString("BE.NMBS.008812005"), board.StationInfo.ID)
	require.Len(t, board.Departures.Departure, 2)
	first := board.Departures.Departure[0]
	assert.Equal(t, FlexString("1700000400"), first.Time)
	assert.Equal(t, FlexString("IC"), first.VehicleInfo.Type)
	second := board.Departures.Departure[1]
	assert.Equal(t, FlexString("1700000700"), second.Time)
	assert.Equal(t, FlexString("0"), second.Delay)
	assert.Equal(t, FlexString("1"), second.Canceled)
}

func TestGetLiveboardSingleDepartureObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"station":"Leuven","departures":{"number":"1","departure":{"time":"1700000000","vehicle":"BE.NMBS.P8000"}}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	board, err := c.GetLiveboard(context.Background(), "BE.NMBS.008833001", BoardTime{})
	require.NoError(t, err)

	require.Len(t, board.Departures.Departure, 1)
	assert.Equal(t, FlexString("BE.NMBS.P8000"), board.Departures.Departure[0].Vehicle)
	// The requested id fills in for a missing stationinfo block.
	assert.Equal(t, FlexString("BE.NMBS.008833001"), board.StationInfo.ID)
	assert.Equal(t, FlexString("Leuven"), board.StationInfo.Name)
}

func TestGetLiveboardRetriesThenFailsOn503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	_, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream), "got %T", err)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestGetLiveboardRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, liveboardJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	board, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})
	require.NoError(t, err)
	assert.Len(t, board.Departures.Departure, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetLiveboardDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	_, err := c.GetLiveboard(context.Background(), "nope", BoardTime{})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetLiveboardTimeoutIsNetworkError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := newTestClient(t, cfg)

	_, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "got %T: %v", err, err)
	assert.True(t, netErr.Timeout)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetLiveboardUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, testConfig(url))
	_, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "got %T", err)
	assert.False(t, netErr.Timeout)
}

func TestGetLiveboardMalformedBodyIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>oops</html>`)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	_, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusOK, upstream.StatusCode)
}

func TestGetStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stations/", r.URL.Path)
		io.WriteString(w, `{"station":[{"id":"BE.NMBS.008812005","name":"Brussels-Central","locationX":"4.356801","locationY":"50.845658"},{"id":"BE.NMBS.008833001","name":"Leuven","locationX":4.7,"locationY":50.88}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	stations, err := c.GetStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, FlexString("4.7"), stations[1].LocationX)
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"departures":{"departure":[]}}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RequestsPerSec = 20
	c := newTestClient(t, cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})
		require.NoError(t, err)
	}
	// Burst of one: the second and third calls each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestGetLiveboardPassesDateAndTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "060125", r.URL.Query().Get("date"))
		assert.Equal(t, "0830", r.URL.Query().Get("time"))
		io.WriteString(w, liveboardJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	board, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{Date: "060125", Time: "0830"})
	require.NoError(t, err)
	assert.Len(t, board.Departures.Departure, 2)
}

func TestGetLiveboardOmitsDateAndTimeByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDate := r.URL.Query()["date"]
		_, hasTime := r.URL.Query()["time"]
		assert.False(t, hasDate)
		assert.False(t, hasTime)
		io.WriteString(w, liveboardJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	_, err := c.GetLiveboard(context.Background(), "BE.NMBS.008812005", BoardTime{})
	require.NoError(t, err)
}

func TestBoardTimeValidate(t *testing.T) {
	assert.NoError(t, BoardTime{}.Validate())
	assert.NoError(t, BoardTime{Date: "311224", Time: "2359"}.Validate())
	assert.Error(t, BoardTime{Date: "2024-12-31"}.Validate())
	assert.Error(t, BoardTime{Time: "8:30"}.Validate())
	assert.True(t, BoardTime{}.IsZero())
}
