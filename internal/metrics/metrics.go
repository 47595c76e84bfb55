// Package metrics содержит коллекторы Prometheus, общие для процессов клуба.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signal_club"

// Metrics набор коллекторов.
type Metrics struct {
	JobRuns        *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	Deliveries     *prometheus.CounterVec
	SignalsEmitted *prometheus.CounterVec
	registry       prometheus.Gatherer
}

// New регистрирует коллекторы в reg. Для тестов передаётся prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		JobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled and forced job runs by outcome.",
		}, []string{"job", "status"}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Job run duration.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		Deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_requests_total",
			Help:      "Messaging transport requests by kind and result.",
		}, []string{"kind", "result"}),
		SignalsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_emitted_total",
			Help:      "BUY signals delivered by tier.",
		}, []string{"tier"}),
		registry: reg,
	}
}

// NewDefault регистрирует коллекторы в новом реестре вместе с коллекторами процесса и Go.
func NewDefault() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

// Handler отдаёт метрики реестра.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
