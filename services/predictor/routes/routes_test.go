// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somnuslabs/somnus/services/predictor/accounts"
	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/encoding"
	"github.com/somnuslabs/somnus/services/predictor/inference"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type echoBackend struct{}

func (echoBackend) Run(context.Context, []byte) ([]byte, error) {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, 1)
	return out, nil
}

func (echoBackend) Ready(context.Context) bool { return true }

func testRouter(t *testing.T, demoMode bool) *gin.Engine {
	t.Helper()
	require.NoError(t, RegisterValidators())

	trail, err := audit.New(audit.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { trail.Close() })

	store, err := accounts.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	scaler := &encoding.ScalerState{}
	for i := range scaler.Stds {
		scaler.Stds[i] = 1
	}

	router := gin.New()
	SetupRoutes(router, Deps{
		Dispatcher:     inference.NewDispatcher(echoBackend{}, nil, scaler, trail, nil),
		Trail:          trail,
		Accounts:       store,
		ClientFilesDir: t.TempDir(),
		MetricsPath:    "missing.json",
		DemoMode:       demoMode,
	})
	return router
}

func do(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func predictBody() map[string]any {
	return map[string]any{
		"gender":                  "Female",
		"age":                     29,
		"sleep_duration":          8,
		"quality_of_sleep":        8,
		"physical_activity_level": 45,
		"stress_level":            3,
		"bmi_category":            "Normal",
		"blood_pressure":          "110/70",
		"heart_rate":              62,
		"daily_steps":             10000,
	}
}

func TestRouteTable(t *testing.T) {
	router := testRouter(t, true)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/v1/predict", predictBody()).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/audit/events", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/v1/report", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/v1/fhe/client-files", nil).Code)
}

func TestV1RequiresIdentityOutsideDemoMode(t *testing.T) {
	router := testRouter(t, false)

	// /health and /metrics stay open.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", nil).Code)

	// Everything under /v1 needs a token.
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/v1/predict", predictBody()).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/v1/audit/events", nil).Code)
}

func TestBloodPressureBindingTag(t *testing.T) {
	router := testRouter(t, true)

	body := predictBody()
	body["blood_pressure"] = "not-a-reading"
	w := do(router, http.MethodPost, "/v1/predict", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDEchoedOnResponses(t *testing.T) {
	router := testRouter(t, true)

	w := do(router, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
