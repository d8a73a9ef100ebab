package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records per-horizon forecast run outcomes.
type PipelineMetrics struct {
	duration     *prometheus.HistogramVec
	success      *prometheus.CounterVec
	failure      *prometheus.CounterVec
	skippedDates *prometheus.CounterVec
	persisted    *prometheus.CounterVec
}

// NewPipelineMetrics registers the forecast pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_run_duration_seconds",
		Help:    "Duration of forecast runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"horizon"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_run_success",
		Help: "Successful forecast runs.",
	}, []string{"horizon"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_run_failure",
		Help: "Failed forecast runs.",
	}, []string{"horizon"})
	skippedDates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_run_skipped_dates",
		Help: "Target dates skipped inside a run after a per-date prediction failure.",
	}, []string{"horizon"})
	persisted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_rows_persisted",
		Help: "Forecast rows written by the upsert path.",
	}, []string{"horizon"})
	reg.MustRegister(duration, success, failure, skippedDates, persisted)
	return &PipelineMetrics{
		duration:     duration,
		success:      success,
		failure:      failure,
		skippedDates: skippedDates,
		persisted:    persisted,
	}
}

// ObserveDuration records the duration for the given horizon.
func (p *PipelineMetrics) ObserveDuration(horizon string, duration time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(horizon)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the given horizon.
func (p *PipelineMetrics) IncSuccess(horizon string) {
	if p == nil || p.success == nil {
		return
	}
	p.success.WithLabelValues(normalizeLabel(horizon)).Inc()
}

// IncFailure increments the failure counter for the given horizon.
func (p *PipelineMetrics) IncFailure(horizon string) {
	if p == nil || p.failure == nil {
		return
	}
	p.failure.WithLabelValues(normalizeLabel(horizon)).Inc()
}

// IncSkippedDate counts one target date dropped from a run.
func (p *PipelineMetrics) IncSkippedDate(horizon string) {
	if p == nil || p.skippedDates == nil {
		return
	}
	p.skippedDates.WithLabelValues(normalizeLabel(horizon)).Inc()
}

// AddPersisted counts rows written by the forecast upsert.
func (p *PipelineMetrics) AddPersisted(horizon string, rows int) {
	if p == nil || p.persisted == nil || rows <= 0 {
		return
	}
	p.persisted.WithLabelValues(normalizeLabel(horizon)).Add(float64(rows))
}

func normalizeLabel(horizon string) string {
	if horizon == "" {
		return "unknown"
	}
	return horizon
}
