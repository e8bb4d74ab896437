// metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles collector metrics.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	RowsTotal        *prometheus.CounterVec
	FetchesTotal     *prometheus.CounterVec
	LastSuccess      prometheus.Gauge
	StationSyncTotal *prometheus.CounterVec
}

// New constructs metrics and registers them on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainboard_runs_total",
				Help: "Total collection runs by trigger, status and error kind",
			},
			[]string{"trigger", "status", "error_kind"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainboard_run_duration_seconds",
			Help:    "Collection run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainboard_rows_total",
				Help: "Departure rows by outcome (fetched, written, skipped, failed)",
			},
			[]string{"outcome"},
		),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainboard_liveboard_fetches_total",
				Help: "Liveboard fetches by result",
			},
			[]string{"result"},
		),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainboard_last_success_timestamp_seconds",
			Help: "Unix time of the last successful collection run",
		}),
		StationSyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trainboard_station_syncs_total",
				Help: "Station resyncs by status",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.RunsTotal,
			m.RunDuration,
			m.RowsTotal,
			m.FetchesTotal,
			m.LastSuccess,
			m.StationSyncTotal,
		)
	}
	return m
}

// ObserveRun records the outcome of one collection run.
func (m *Metrics) ObserveRun(trigger, status, errorKind string, d time.Duration, fetched, written, skipped, failed int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(trigger, status, errorKind).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.RowsTotal.WithLabelValues("fetched").Add(float64(fetched))
	m.RowsTotal.WithLabelValues("written").Add(float64(written))
	m.RowsTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.RowsTotal.WithLabelValues("failed").Add(float64(failed))
	if status == "SUCCEEDED" {
		m.LastSuccess.SetToCurrentTime()
	}
}

// ObserveFetch counts one liveboard fetch.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
}

// ObserveStationSync counts one station resync.
func (m *Metrics) ObserveStationSync(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StationSyncTotal.WithLabelValues(status).Inc()
}
