package middlewares

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mbolis/quick-forms/log"
)

// Instrument logs one line per request and records it in the metrics.
type Instrument struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewInstrument() *Instrument {
	in := &Instrument{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qforms_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qforms_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	in.registry.MustRegister(
		in.requests,
		in.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return in
}

func (in *Instrument) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := strconv.Itoa(m.Code)
		in.requests.WithLabelValues(r.Method, route, status).Inc()
		in.duration.WithLabelValues(r.Method, route).Observe(m.Duration.Seconds())

		entry := log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"remote":     r.RemoteAddr,
			"status":     m.Code,
			"bytes":      m.Written,
			"duration":   m.Duration.String(),
		})
		if m.Code >= http.StatusInternalServerError {
			entry.Warnf("%s %s", r.Method, r.URL.Path)
		} else {
			entry.Infof("%s %s", r.Method, r.URL.Path)
		}
	})
}

// MetricsHandler serves the collected metrics in the Prometheus text format.
func (in *Instrument) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(in.registry, promhttp.HandlerOpts{})
}
