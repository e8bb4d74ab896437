// handlers/departure_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gewnthar/trainboard/models"
)

const (
	defaultDepartureLimit = 100
	maxDepartureLimit     = 1000
	defaultRunLimit       = 20
	maxRunLimit           = 500
)

// HealthHandler reports whether the database is reachable.
// Expects GET to /api/health.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := h.now().UTC().Format(time.RFC3339)
	if err := h.store.Ping(ctx); err != nil {
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":    "unhealthy",
			"database":  "unreachable",
			"message":   err.Error(),
			"timestamp": now,
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": now,
	})
}

// StationsHandler lists stored stations.
// Expects GET to /api/stations.
func (h *Handler) StationsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	stations, err := h.cachedStations(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list stations: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"count":    len(stations),
		"stations": stations,
	})
}

// DeparturesHandler lists stored departures of one station, newest first.
// Expects GET to /api/departures?station=BE.NMBS.008812005[&limit=N][&since=RFC3339].
func (h *Handler) DeparturesHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	filter := models.DepartureFilter{StationID: strings.TrimSpace(q.Get("station"))}
	if filter.StationID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'station' query parameter")
		return
	}

	limit, err := parseLimit(q.Get("limit"), defaultDepartureLimit, maxDepartureLimit)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Limit = limit

	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'since' format. Use RFC3339, e.g. 2025-01-06T08:00:00Z")
			return
		}
		filter.Since = since
	}

	departures, err := h.store.ListDepartures(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list departures: "+err.Error())
		return
	}
	if departures == nil {
		departures = []models.Departure{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"station":    filter.StationID,
		"count":      len(departures),
		"departures": departures,
	})
}

// RunsHandler lists recent run logs, newest first.
// Expects GET to /api/runs[?limit=N].
func (h *Handler) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultRunLimit, maxRunLimit)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := h.store.ListRunLogs(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []models.RunLog{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"count":  len(runs),
		"runs":   runs,
	})
}

func parseLimit(raw string, fallback, max int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("Invalid 'limit': must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}
