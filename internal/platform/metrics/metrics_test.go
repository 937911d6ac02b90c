// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/platform/metrics"
)

// counterValue sums a counter family, optionally restricted to one label value.
func counterValue(t *testing.T, registry *metrics.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := registry.Gatherer().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if label == "" || (pair.GetName() == label && pair.GetValue() == value) {
					total += metric.GetCounter().GetValue()
					break
				}
			}
		}
	}
	return total
}

/*
TestMiddleware_UsesRoutePattern checks that request counters are labelled with
the chi pattern rather than the concrete path.
*/
func TestMiddleware_UsesRoutePattern(t *testing.T) {
	registry := metrics.New()

	router := chi.NewRouter()
	router.Use(registry.Middleware)
	router.Get("/thesis/{id}", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusTeapot)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/thesis/0190a8c4-6a3e-7b6c-9d2e-4f5a6b7c8d9e", nil))
	require.Equal(t, http.StatusTeapot, recorder.Code)

	assert.Equal(t, 1.0, counterValue(t, registry, "scholaris_http_requests_total", "route", "/thesis/{id}"))
	assert.Equal(t, 1.0, counterValue(t, registry, "scholaris_http_requests_total", "status", "418"))
}

func TestDomainCounters(t *testing.T) {
	registry := metrics.New()
	registry.RecordReview("thesis", "approved")
	registry.RecordVerification(false)
	registry.RecordVerification(true)
	registry.RecordVerification(true)

	assert.Equal(t, 2.0, counterValue(t, registry, "scholaris_registry_verifications_total", "result", "found"))
	assert.Equal(t, 1.0, counterValue(t, registry, "scholaris_registry_verifications_total", "result", "not_found"))
	assert.Equal(t, 1.0, counterValue(t, registry, "scholaris_registry_reviews_total", "decision", "approved"))

	var nilRegistry *metrics.Registry
	assert.NotPanics(t, func() { nilRegistry.RecordReview("research", "rejected") })
}
