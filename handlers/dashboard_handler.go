// handlers/dashboard_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/services"
)

const (
	defaultWindowHours = 24
	maxWindowHours     = 24 * 30
)

// AnalyticsHandler returns summary figures over the last N hours.
// Expects GET to /api/analytics[?hours=N].
func (h *Handler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	hours, err := parseHours(r.URL.Query().Get("hours"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	analytics, err := h.dashboard.Analytics(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute analytics: "+err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "success",
		"window_hours": hours,
		"analytics":    analytics,
	})
}

// PowerBIHandler serves dashboard datasets as JSON, or CSV with format=csv.
// Expects GET to /api/powerbi?data_type=departures|stations|delays|peak_hours|vehicles[&hours=N][&format=csv].
func (h *Handler) PowerBIHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	dataType := strings.ToLower(strings.TrimSpace(q.Get("data_type")))
	if dataType == "" {
		dataType = models.PowerBIDepartures
	}
	hours, err := parseHours(q.Get("hours"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := strings.ToLower(q.Get("format"))
	if format != "" && format != "json" && format != "csv" {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid format '%s'. Use 'json' or 'csv'.", format))
		return
	}

	data, err := h.dashboard.PowerBI(r.Context(), dataType, time.Duration(hours)*time.Hour)
	if errors.Is(err, services.ErrUnknownDataType) {
		respondWithError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid data type '%s'. Use one of: %s.", dataType, strings.Join(services.PowerBIDataTypes, ", ")))
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build Power BI data: "+err.Error())
		return
	}

	if format == "csv" {
		body, err := csvutil.Marshal(data)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to encode CSV: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, dataType))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"data_type": dataType,
		"count":     rowCount(data),
		"data":      data,
	})
}

func parseHours(raw string) (int, error) {
	if raw == "" {
		return defaultWindowHours, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxWindowHours {
		return 0, fmt.Errorf("Invalid 'hours': must be an integer between 1 and %d", maxWindowHours)
	}
	return n, nil
}

func rowCount(data any) int {
	switch rows := data.(type) {
	case []models.DepartureRow:
		return len(rows)
	case []models.Station:
		return len(rows)
	case []models.DelayRow:
		return len(rows)
	case []models.PeakHourRow:
		return len(rows)
	case []models.VehicleMixRow:
		return len(rows)
	}
	return 0
}
