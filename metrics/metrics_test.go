// metrics/metrics_test.go
package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, c.Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRun("timer", "SUCCEEDED", "", 2*time.Second, 30, 28, 1, 1)
	m.ObserveRun("http", "FAILED", "NetworkError", time.Second, 0, 0, 0, 0)

	assert.Equal(t, 1.0, value(t, m.RunsTotal.WithLabelValues("timer", "SUCCEEDED", "")))
	assert.Equal(t, 1.0, value(t, m.RunsTotal.WithLabelValues("http", "FAILED", "NetworkError")))
	assert.Equal(t, 28.0, value(t, m.RowsTotal.WithLabelValues("written")))
	assert.Greater(t, value(t, m.LastSuccess), 0.0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveFetchAndSync(t *testing.T) {
	m := New(nil)
	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("boom"))
	m.ObserveStationSync(nil)

	assert.Equal(t, 1.0, value(t, m.FetchesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, value(t, m.FetchesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, value(t, m.StationSyncTotal.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("cli", "SUCCEEDED", "", time.Second, 1, 1, 0, 0)
		m.ObserveFetch(nil)
		m.ObserveStationSync(nil)
	})
}
