package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PassesTotal          *prometheus.CounterVec
	PassDuration         *prometheus.HistogramVec
	RecordsPerPass       prometheus.Histogram
	SizeResolutionsTotal *prometheus.CounterVec
	ErrorsTotal          *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		PassesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "imgaudit_passes_total",
			Help: "The total number of audit passes executed",
		}, []string{"status"}), // 'completed', 'failed'
		PassDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imgaudit_pass_duration_seconds",
			Help:    "Duration of audit passes",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
		}, []string{"domain"}),
		RecordsPerPass: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "imgaudit_records_per_pass",
			Help:    "Image usage records produced per completed pass",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250},
		}),
		SizeResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "imgaudit_size_resolutions_total",
			Help: "The total number of intrinsic size re-measurements",
		}, []string{"outcome"}), // 'resolved', 'failed'
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "imgaudit_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'pass_failed', 'db_save_failed'
	}
}

func (m *Metrics) ObservePass(status, domain string, seconds float64) {
	m.PassesTotal.WithLabelValues(status).Inc()
	m.PassDuration.WithLabelValues(domain).Observe(seconds)
}

func (m *Metrics) ObserveRecords(count int) {
	m.RecordsPerPass.Observe(float64(count))
}

func (m *Metrics) IncSizeResolutions(outcome string) {
	m.SizeResolutionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
