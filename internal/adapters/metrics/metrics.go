package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bnema/kol-credits/internal/domain"
	"github.com/bnema/kol-credits/internal/ports"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kol_credits"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	consumed      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications emitted by kind",
			},
			[]string{"kind"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_decisions_total",
				Help:      "Permission decisions by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		consumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Metered queries by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(m.httpRequests, m.httpDuration, m.notifications, m.decisions, m.consumed)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDecision(action string, decision domain.Decision) {
	m.decisions.WithLabelValues(action, string(decision.Outcome)).Inc()
}

// ObserveQuery records the result of a metered query: "unlimited", "free", "charged" or
// "denied".
func (m *Metrics) ObserveQuery(result string) {
	m.consumed.WithLabelValues(result).Inc()
}

// Middleware tracks request counts and latency. Routes are labelled by their mux path
// template so IDs in the URL do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.statusCode)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Notifier counts each notification by kind before handing it to next.
func (m *Metrics) Notifier(next ports.Notifier) ports.Notifier {
	if next == nil {
		next = ports.NopNotifier{}
	}
	return countingNotifier{next: next, counter: m.notifications}
}

type countingNotifier struct {
	next    ports.Notifier
	counter *prometheus.CounterVec
}

func (n countingNotifier) Notify(ctx context.Context, notification domain.Notification) {
	n.counter.WithLabelValues(string(notification.Kind)).Inc()
	n.next.Notify(ctx, notification)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
