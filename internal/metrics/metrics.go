// Package metrics provides Prometheus metrics for the formkit service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formkit/pkg/forms"
)

const namespace = "formkit"

// Validation outcome labels.
const (
	OutcomeValid     = "valid"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
)

// Collector holds all Prometheus metrics for formkit.
type Collector struct {
	registry *prometheus.Registry

	// Validation metrics
	ValidationsTotal *prometheus.CounterVec
	AsyncChecksTotal *prometheus.CounterVec
	AsyncDuration    *prometheus.HistogramVec

	// Directory metrics
	LookupsTotal   *prometheus.CounterVec
	LookupDuration prometheus.Histogram

	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Session metrics
	SessionsActive prometheus.Gauge
	Submissions    *prometheus.CounterVec

	// Config metrics
	ConfigReloads prometheus.Counter
}

// New creates a collector on a fresh registry that also carries the Go and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Synchronous validator runs by tag and outcome",
			},
			[]string{"tag", "outcome"},
		),
		AsyncChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "async_checks_total",
				Help:      "Asynchronous validator runs by tag and outcome",
			},
			[]string{"tag", "outcome"},
		),
		AsyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "async_check_duration_seconds",
				Help:      "Asynchronous validator duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"tag"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "directory_lookups_total",
				Help:      "Remote directory lookups by outcome",
			},
			[]string{"outcome"},
		),
		LookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "directory_lookup_duration_seconds",
				Help:      "Remote directory lookup duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Open form sessions",
			},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Form submissions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of applied config reloads",
			},
		),
	}
}

// Registry returns the registry the collector is registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Validator counts each run of v by outcome.
func (c *Collector) Validator(v forms.Validator) forms.Validator {
	if v.Validate == nil {
		return v
	}
	inner := v.Validate
	tag := label(v.Tag)
	return forms.NewValidator(v.Tag, func(ctrl forms.Control) forms.Errors {
		errs := inner(ctrl)
		c.ValidationsTotal.WithLabelValues(tag, outcome(errs)).Inc()
		return errs
	})
}

// AsyncValidator counts and times each run of v. Runs whose context ended
// before they returned are counted as cancelled.
func (c *Collector) AsyncValidator(v forms.AsyncValidator) forms.AsyncValidator {
	if v.Validate == nil {
		return v
	}
	inner := v.Validate
	tag := label(v.Tag)
	return forms.NewAsyncValidator(v.Tag, func(ctx context.Context, value any) forms.Errors {
		start := time.Now()
		errs := inner(ctx, value)
		c.AsyncDuration.WithLabelValues(tag).Observe(time.Since(start).Seconds())
		result := outcome(errs)
		if ctx.Err() != nil {
			result = OutcomeCancelled
		}
		c.AsyncChecksTotal.WithLabelValues(tag, result).Inc()
		return errs
	})
}

// ObserveLookup records one remote directory lookup. Its signature matches
// directory.LookupObserver.
func (c *Collector) ObserveLookup(outcome string, elapsed time.Duration) {
	c.LookupsTotal.WithLabelValues(outcome).Inc()
	c.LookupDuration.Observe(elapsed.Seconds())
}

// Middleware records request counts and durations labelled by chi route
// pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.RequestsInFlight.Inc()
		defer c.RequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		c.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func outcome(errs forms.Errors) string {
	if len(errs) == 0 {
		return OutcomeValid
	}
	return OutcomeInvalid
}

func label(tag string) string {
	if tag == "" {
		return "untagged"
	}
	return tag
}
