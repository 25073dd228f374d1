// Package metrics exposes Prometheus counters for the survey bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several instances can coexist in tests.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	events             *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	surveys            *prometheus.CounterVec
	saves              *prometheus.CounterVec
	saveDuration       prometheus.Histogram
	transportErrors    *prometheus.CounterVec
	panics             prometheus.Counter
}

// New creates a Recorder. sessions, when non-nil, backs the active sessions gauge.
func New(sessions func() int) *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_events_total",
			Help: "Inbound events by kind",
		}, []string{"kind"}),
		validationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_validation_failures_total",
			Help: "Rejected answers by field and reason",
		}, []string{"field", "reason"}),
		surveys: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_surveys_total",
			Help: "Survey lifecycle transitions by outcome",
		}, []string{"outcome"}),
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_saves_total",
			Help: "Record sink saves by status",
		}, []string{"status"}),
		saveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "questionnaire_save_duration_seconds",
			Help:    "Duration of record sink saves",
			Buckets: prometheus.DefBuckets,
		}),
		transportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "questionnaire_transport_errors_total",
			Help: "Outbound chat operation failures by op and code",
		}, []string{"op", "code"}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Name: "questionnaire_handler_panics_total",
			Help: "Recovered panics in event handling",
		}),
	}
	if sessions != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "questionnaire_active_sessions",
			Help: "Surveys currently in progress",
		}, func() float64 { return float64(sessions()) })
	}
	return r
}

// Survey outcomes.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
)

func (r *Recorder) Event(kind string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(kind).Inc()
}

func (r *Recorder) ValidationFailed(field, reason string) {
	if r == nil {
		return
	}
	r.validationFailures.WithLabelValues(field, reason).Inc()
}

func (r *Recorder) Survey(outcome string) {
	if r == nil {
		return
	}
	r.surveys.WithLabelValues(outcome).Inc()
}

// Save records one sink call.
func (r *Recorder) Save(err error, took time.Duration) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.saves.WithLabelValues(status).Inc()
	r.saveDuration.Observe(took.Seconds())
}

func (r *Recorder) TransportError(op, code string) {
	if r == nil {
		return
	}
	r.transportErrors.WithLabelValues(op, code).Inc()
}

func (r *Recorder) Panic() {
	if r == nil {
		return
	}
	r.panics.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
