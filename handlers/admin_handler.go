// handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gewnthar/trainboard/models"
	"github.com/gewnthar/trainboard/services"
)

const stationsCacheKey = "stations"

type collector interface {
	Run(ctx context.Context, trigger models.TriggerSource) models.RunLog
}

type stationSyncer interface {
	Sync(ctx context.Context) (models.UpsertResult, error)
}

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Store       services.Store
	Collector   collector
	StationSync stationSyncer
	Liveboard   liveboardFetcher
	Dashboard   *services.Dashboard
	Gatherer    prometheus.Gatherer
	StationsTTL time.Duration
	CacheSize   int
}

// Handler serves the JSON API.
type Handler struct {
	store     services.Store
	collector collector
	sync      stationSyncer
	liveboard liveboardFetcher
	dashboard *services.Dashboard
	gatherer  prometheus.Gatherer
	stations  gcache.Cache
	now       func() time.Time
}

func New(d Deps) *Handler {
	size := d.CacheSize
	if size <= 0 {
		size = 16
	}
	ttl := d.StationsTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		store:     d.Store,
		collector: d.Collector,
		sync:      d.StationSync,
		liveboard: d.Liveboard,
		dashboard: d.Dashboard,
		gatherer:  gatherer,
		stations:  gcache.New(size).LRU().Expiration(ttl).Build(),
		now:       time.Now,
	}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.HealthHandler)
	mux.HandleFunc("/api/stations", h.StationsHandler)
	mux.HandleFunc("/api/departures", h.DeparturesHandler)
	mux.HandleFunc("/api/liveboard", h.LiveboardHandler)
	mux.HandleFunc("/api/runs", h.RunsHandler)
	mux.HandleFunc("/api/collect", h.CollectHandler)
	mux.HandleFunc("/api/admin/sync-stations", h.SyncStationsHandler)
	mux.HandleFunc("/api/analytics", h.AnalyticsHandler)
	mux.HandleFunc("/api/powerbi", h.PowerBIHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR Handler: marshalling JSON response: %v", err)
		http.Error(w, `{"status":"error","message":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("Handler: API error %d: %s", code, message)
	respondWithJSON(w, code, map[string]string{"status": "error", "message": message})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		respondWithError(w, http.StatusMethodNotAllowed, "Only "+method+" method is allowed")
		return false
	}
	return true
}

type collectResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	ErrorKind models.ErrorKind `json:"error_kind,omitempty"`
	Run       models.RunLog    `json:"run"`
}

// CollectHandler runs one collection synchronously.
// Expects POST to /api/collect.
func (h *Handler) CollectHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	run := h.collector.Run(r.Context(), models.TriggerHTTP)
	if run.Succeeded() {
		respondWithJSON(w, http.StatusOK, collectResponse{Status: "success", Message: run.ErrorText, ErrorKind: run.ErrorKind, Run: run})
		return
	}

	code := http.StatusInternalServerError
	if run.ErrorKind == models.ErrorKindUpstream || run.ErrorKind == models.ErrorKindNetwork {
		code = http.StatusBadGateway
	}
	log.Printf("Handler: manual collection %s failed with %s", run.ID, run.ErrorKind)
	respondWithJSON(w, code, collectResponse{Status: "error", Message: run.ErrorText, ErrorKind: run.ErrorKind, Run: run})
}

// SyncStationsHandler refreshes the station reference data from iRail.
// Expects POST to /api/admin/sync-stations.
func (h *Handler) SyncStationsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	result, err := h.sync.Sync(r.Context())
	h.stations.Remove(stationsCacheKey)
	if err != nil {
		code := http.StatusInternalServerError
		if kind := services.ClassifyError(err); kind == models.ErrorKindUpstream || kind == models.ErrorKindNetwork {
			code = http.StatusBadGateway
		}
		respondWithError(w, code, "Failed to sync stations: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"written": result.Written,
		"failed":  result.Failed,
	})
}

func (h *Handler) cachedStations(ctx context.Context) ([]models.Station, error) {
	if v, err := h.stations.Get(stationsCacheKey); err == nil {
		return v.([]models.Station), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		log.Printf("WARN Handler: stations cache lookup failed: %v", err)
	}

	stations, err := h.store.ListStations(ctx)
	if err != nil {
		return nil, err
	}
	if stations == nil {
		stations = []models.Station{}
	}
	if err := h.stations.Set(stationsCacheKey, stations); err != nil {
		log.Printf("WARN Handler: failed to cache stations: %v", err)
	}
	return stations, nil
}
