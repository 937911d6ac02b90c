// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/api"
	"github.com/taibuivan/scholaris/internal/platform/config"
	"github.com/taibuivan/scholaris/internal/platform/metrics"
	"github.com/taibuivan/scholaris/internal/platform/sec"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type readinessBody struct {
	Data struct {
		Status string `json:"status"`
		Checks []struct {
			Name string `json:"name"`
			IsOK bool   `json:"ok"`
		} `json:"checks"`
	} `json:"data"`
}

func pingResult(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

/*
TestReadiness reports 200 when every dependency answers and 503 otherwise.
*/
func TestReadiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		_, readiness := api.NewHealthHandlers([]api.Check{
			{Name: "postgres", Ping: pingResult(nil)},
			{Name: "redis", Ping: pingResult(nil)},
		}, discard)

		recorder := httptest.NewRecorder()
		readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, recorder.Code)
		var body readinessBody
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "ready", body.Data.Status)
		assert.Len(t, body.Data.Checks, 2)
	})

	t.Run("degraded", func(t *testing.T) {
		_, readiness := api.NewHealthHandlers([]api.Check{
			{Name: "postgres", Ping: pingResult(nil)},
			{Name: "amqp", Ping: pingResult(errors.New("connection closed"))},
		}, discard)

		recorder := httptest.NewRecorder()
		readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
		var body readinessBody
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body.Data.Status)
		assert.False(t, body.Data.Checks[1].IsOK)
		assert.Equal(t, "amqp", body.Data.Checks[1].Name)
	})
}

/*
TestRouter_Guards checks that health endpoints are public and the API requires a bearer token.
*/
func TestRouter_Guards(t *testing.T) {
	liveness, readiness := api.NewHealthHandlers(nil, discard)
	router := api.NewRouter(t.Context(), &config.Config{Environment: "test"}, discard, sec.NewTokenVerifierFromKey(nil, ""), api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.New(),
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/v1/research", http.StatusUnauthorized},
		{"/api/v1/thesis/supervised", http.StatusUnauthorized},
		{"/api/v1/references", http.StatusUnauthorized},
		{"/api/v1/notifications/unread-count", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}
