// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus instrumentation for the registry.

A private [prometheus.Registry] is used instead of the global default so tests
can build independent instances. Every recording method is nil-safe: services
constructed without metrics simply skip instrumentation.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/scholaris/internal/platform/middleware"
)

const namespace = "scholaris"

// Registry owns every collector the API publishes.
type Registry struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	reviewsTotal         *prometheus.CounterVec
	allocationCollisions *prometheus.CounterVec
	verificationsTotal   *prometheus.CounterVec
	notifyFailures       *prometheus.CounterVec
}

// New builds a registry with HTTP and domain collectors registered.
func New() *Registry {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	reviewsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "reviews_total",
			Help:      "Committed review decisions by submission kind and outcome.",
		},
		[]string{"kind", "decision"},
	)
	allocationCollisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "allocation_collisions_total",
			Help:      "Reference numbers that collided at insert and were re-allocated.",
		},
		[]string{"type_code"},
	)
	verificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "verifications_total",
			Help:      "Reference number verification lookups by result.",
		},
		[]string{"result"},
	)
	notifyFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "delivery_failures_total",
			Help:      "Notification deliveries that failed, by sink.",
		},
		[]string{"sink"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		reviewsTotal,
		allocationCollisions,
		verificationsTotal,
		notifyFailures,
	)

	return &Registry{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		reviewsTotal:         reviewsTotal,
		allocationCollisions: allocationCollisions,
		verificationsTotal:   verificationsTotal,
		notifyFailures:       notifyFailures,
	}
}

// Handler serves the Prometheus scrape endpoint.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Middleware records request count, latency and in-flight gauge.
// The route label is chi's matched pattern so IDs never explode cardinality.
func (m *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		recorder := &middleware.StatusRecorder{ResponseWriter: writer, Status: http.StatusOK}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.requestTotal.WithLabelValues(request.Method, route, strconv.Itoa(recorder.Status)).Inc()
		m.requestDuration.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}

// # Domain Counters

// RecordReview counts a committed review decision.
func (m *Registry) RecordReview(kind, decision string) {
	if m == nil {
		return
	}
	m.reviewsTotal.WithLabelValues(kind, decision).Inc()
}

// RecordAllocationCollision counts a reference number that lost an insert race.
func (m *Registry) RecordAllocationCollision(typeCode string) {
	if m == nil {
		return
	}
	m.allocationCollisions.WithLabelValues(typeCode).Inc()
}

// RecordVerification counts a verification lookup; found distinguishes hits from misses.
func (m *Registry) RecordVerification(found bool) {
	if m == nil {
		return
	}
	result := "not_found"
	if found {
		result = "found"
	}
	m.verificationsTotal.WithLabelValues(result).Inc()
}

// RecordNotificationFailure counts a failed delivery for one sink.
func (m *Registry) RecordNotificationFailure(sink string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(sink).Inc()
}
