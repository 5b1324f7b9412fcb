// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/somnuslabs/somnus/services/predictor/accounts"
	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/inference"
)

// healthProbeTimeout bounds the sidecar readiness probe so /health
// stays fast even when the sidecar is hanging.
const healthProbeTimeout = 2 * time.Second

// Health handles GET /health, reporting readiness of the identity
// provider, the inference backends, and the scaler artifact. The
// service is "healthy" as long as it can serve any inference at all.
func Health(dispatcher *inference.Dispatcher, trail *audit.Trail, store *accounts.Store, demoMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()

		fheReady := dispatcher.FHEReady(ctx)
		plaintextReady := dispatcher.PlaintextReady()
		// Demo mode needs no identity infrastructure; otherwise requests
		// are attributed via the account store.
		identityReady := demoMode || store != nil

		status := "healthy"
		code := http.StatusOK
		if !fheReady && !plaintextReady {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":          status,
			"identity_ready":  identityReady,
			"fhe_ready":       fheReady,
			"plaintext_ready": plaintextReady,
			"scaler_loaded":   dispatcher.ScalerLoaded(),
			"audit_events":    trail.Len(),
		})
	}
}

// Report handles GET /v1/report, returning the training-time model
// evaluation report persisted alongside the deployment artifacts.
func Report(metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := os.ReadFile(metricsPath)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "model report not available"})
			return
		}
		var report map[string]any
		if err := json.Unmarshal(data, &report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "model report is corrupt"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// clientBundleName is the client-side encryption bundle file.
const clientBundleName = "client.zip"

// ClientFiles handles GET /v1/fhe/client-files, serving the bundle a
// client needs to generate keys and encrypt inputs locally.
func ClientFiles(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := filepath.Join(dir, clientBundleName)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "client files not available"})
			return
		}
		c.FileAttachment(path, clientBundleName)
	}
}
