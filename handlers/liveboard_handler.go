// handlers/liveboard_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gewnthar/trainboard/irail"
	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/services"
)

type liveboardFetcher interface {
	Fetch(ctx context.Context, stationID string, at irail.BoardTime) (*services.LiveboardResult, error)
}

type liveboardRequest struct {
	Station string `json:"station"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// LiveboardHandler fetches one station board from iRail and stores its departures.
// Expects GET or POST to /api/liveboard?station=ID[&date=ddmmyy][&time=hhmm].
// A POST may carry the same fields as a JSON body instead.
func (h *Handler) LiveboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET and POST methods are allowed")
		return
	}
	if h.liveboard == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Liveboard lookups are not configured")
		return
	}

	q := r.URL.Query()
	req := liveboardRequest{Station: q.Get("station"), Date: q.Get("date"), Time: q.Get("time")}
	if r.Method == http.MethodPost && r.ContentLength != 0 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body liveboardRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
			return
		}
		if req.Station == "" {
			req.Station = body.Station
		}
		if req.Date == "" {
			req.Date = body.Date
		}
		if req.Time == "" {
			req.Time = body.Time
		}
	}

	stationID := strings.TrimSpace(req.Station)
	if stationID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'station' parameter")
		return
	}
	at := irail.BoardTime{Date: strings.TrimSpace(req.Date), Time: strings.TrimSpace(req.Time)}
	if err := at.Validate(); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.liveboard.Fetch(r.Context(), stationID, at)
	if err != nil {
		code := http.StatusInternalServerError
		if kind := services.ClassifyError(err); kind == models.ErrorKindUpstream || kind == models.ErrorKindNetwork {
			code = http.StatusBadGateway
		}
		respondWithError(w, code, "Failed to fetch liveboard: "+err.Error())
		return
	}

	payload := map[string]interface{}{
		"status":  "success",
		"station": stationID,
		"data":    res.Board,
		"stored":  res.Stored.Written,
		"failed":  res.Stored.Failed,
		"skipped": res.Skipped,
	}
	if res.StoreErr != nil {
		log.Printf("WARN Handler: liveboard for %s returned without storing: %v", stationID, res.StoreErr)
		payload["storage_error"] = res.StoreErr.Error()
	}
	respondWithJSON(w, http.StatusOK, payload)
}
