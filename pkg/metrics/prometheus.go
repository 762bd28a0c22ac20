package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects pipeline metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	rowsProcessed *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	cvAUC         *prometheus.GaugeVec
	eligible      *prometheus.GaugeVec
	runErrors     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		rowsProcessed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_nse_rows_processed_total",
				Help: "Panel rows processed per stage",
			},
			[]string{"stage"},
		),
		rowsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_nse_rows_dropped_total",
				Help: "Rows removed by the eligibility filter",
			},
			[]string{"horizon", "reason"},
		),
		cvAUC: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aegis_nse_cv_auc_mean",
				Help: "Mean cross-validated ROC-AUC of the last training run",
			},
			[]string{"horizon"},
		),
		eligible: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aegis_nse_prediction_eligible_symbols",
				Help: "Symbols passing the eligibility filter at prediction time",
			},
			[]string{"horizon"},
		),
		runErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aegis_nse_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aegis_nse_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRows(stage string, n int) {
	r.rowsProcessed.WithLabelValues(stage).Add(float64(n))
}

func (r *Recorder) RecordDropped(horizon, reason string, n int) {
	r.rowsDropped.WithLabelValues(horizon, reason).Add(float64(n))
}

func (r *Recorder) RecordCVAUC(horizon string, auc float64) {
	r.cvAUC.WithLabelValues(horizon).Set(auc)
}

func (r *Recorder) RecordEligible(horizon string, n int) {
	r.eligible.WithLabelValues(horizon).Set(float64(n))
}

func (r *Recorder) RecordError(kind string) {
	r.runErrors.WithLabelValues(kind).Inc()
}

// Time observes the duration since start for op.
func (r *Recorder) Time(op string, start time.Time) {
	r.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Registry exposes the underlying registry (tests, custom exporters)
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
