package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.JobRuns.WithLabelValues("signals", "ok").Inc()
	m.SignalsEmitted.WithLabelValues("free").Add(2)

	var out dto.Metric
	require.NoError(t, m.SignalsEmitted.WithLabelValues("free").Write(&out))
	assert.Equal(t, 2.0, out.GetCounter().GetValue())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `signal_club_job_runs_total{job="signals",status="ok"} 1`)
}

func TestNewDefault_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = NewDefault()
		_ = NewDefault()
	})
}
