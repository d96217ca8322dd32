package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Quote sources recorded by QuoteComputed.
const (
	SourcePreview = "preview"
	SourceSubmit  = "submit"
	SourceAdmin   = "admin"
	SourceCLI     = "cli"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	quotesComputed  *prometheus.CounterVec
	leadsSubmitted  prometheus.Counter
	quoteValue      prometheus.Histogram
}

// NewMetrics initialises the registry with HTTP and quoting metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "venuedesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_quotes_computed_total",
		Help: "Quote totals computed, by caller.",
	}, []string{"source"})
	leads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "venuedesk_leads_submitted_total",
		Help: "Quote requests persisted.",
	})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "venuedesk_lead_total_ttc_euros",
		Help:    "Total TTC of submitted quote requests.",
		Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 25000},
	})
	registry.MustRegister(requests, duration, quotes, leads, value)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		quotesComputed:  quotes,
		leadsSubmitted:  leads,
		quoteValue:      value,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// QuoteComputed counts one totals computation.
func (m *Metrics) QuoteComputed(source string) {
	if m == nil {
		return
	}
	m.quotesComputed.WithLabelValues(source).Inc()
}

// LeadSubmitted counts a persisted quote request and observes its value.
func (m *Metrics) LeadSubmitted(totalTTC float64) {
	if m == nil {
		return
	}
	m.leadsSubmitted.Inc()
	m.quoteValue.Observe(totalTTC)
}

// Registerer exposes the registry for custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
