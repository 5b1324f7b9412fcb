// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP handlers for the predictor API.
//
// Handlers are gin.HandlerFunc closures over their dependencies. They
// translate transport concerns (binding, status codes, content types)
// and leave pipeline semantics to the inference dispatcher. Error
// bodies never echo submitted health measurements.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/datatypes"
	"github.com/somnuslabs/somnus/services/predictor/inference"
	"github.com/somnuslabs/somnus/services/predictor/observability"
)

var predictTracer = otel.Tracer("somnus/predictor/handlers")

// maxCiphertextBytes caps encrypted request bodies. Concrete-ML
// ciphertexts for an 11-slot vector run well under this.
const maxCiphertextBytes = 32 << 20

// Predict handles POST /v1/predict: server-computed inference over
// plaintext JSON input.
//
// Responses:
//   - 200: full PredictResponse envelope
//   - 400: validation or encoding failure, per-field errors included
//   - 503: no inference backend available (retryable)
func Predict(dispatcher *inference.Dispatcher, trail *audit.Trail) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := predictTracer.Start(c.Request.Context(), "handlers.Predict")
		defer span.End()
		if m := observability.DefaultMetrics; m != nil {
			m.RequestStarted()
			defer m.RequestEnded()
		}

		var req datatypes.PredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			recordOutcome(observability.EndpointPredict, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		raw := req.Raw()
		trail.Record(audit.EventServerReceived, map[string]any{
			"endpoint": "predict",
			"fields":   len(raw),
		})

		resp, err := dispatcher.Predict(ctx, raw)
		if err != nil {
			status := predictErrorStatus(err)
			recordOutcome(observability.EndpointPredict, false)
			if status == http.StatusBadRequest {
				if m := observability.DefaultMetrics; m != nil {
					m.RecordValidationFailure()
				}
			}
			trail.Record(audit.EventServerResponse, map[string]any{
				"endpoint": "predict",
				"status":   status,
			})
			c.JSON(status, predictErrorBody(err))
			return
		}

		if m := observability.DefaultMetrics; m != nil {
			m.RecordInference(string(resp.Mode), resp.LatencyMs/1000.0, true)
			if dispatcher.FHEConfigured() && resp.Mode == datatypes.ModePlaintext {
				m.RecordFallback()
			}
		}
		recordOutcome(observability.EndpointPredict, true)
		trail.Record(audit.EventServerResponse, map[string]any{
			"endpoint": "predict",
			"status":   http.StatusOK,
			"mode":     string(resp.Mode),
		})
		c.JSON(http.StatusOK, resp)
	}
}

// PredictEncrypted handles POST /v1/predict/encrypted: client-encrypted
// inference over an opaque octet-stream body.
//
// The ciphertext passes through the dispatcher untouched and the
// response body is the opaque encrypted result. Backend failures return
// 503 so clients retry or degrade to the plaintext endpoint themselves.
func PredictEncrypted(dispatcher *inference.Dispatcher, trail *audit.Trail) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := predictTracer.Start(c.Request.Context(), "handlers.PredictEncrypted")
		defer span.End()
		if m := observability.DefaultMetrics; m != nil {
			m.RequestStarted()
			defer m.RequestEnded()
		}

		ciphertext, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCiphertextBytes+1))
		if err != nil {
			recordOutcome(observability.EndpointPredictEncrypted, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		if len(ciphertext) == 0 {
			recordOutcome(observability.EndpointPredictEncrypted, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty ciphertext"})
			return
		}
		if len(ciphertext) > maxCiphertextBytes {
			recordOutcome(observability.EndpointPredictEncrypted, false)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "ciphertext too large"})
			return
		}

		trail.Record(audit.EventServerReceived, map[string]any{
			"endpoint": "predict_encrypted",
			"bytes":    len(ciphertext),
		})

		result, err := dispatcher.RunOpaque(ctx, ciphertext)
		if err != nil {
			slog.Error("encrypted inference failed", "error", err)
			recordOutcome(observability.EndpointPredictEncrypted, false)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordInference(string(datatypes.ModeFHE), 0, false)
			}
			trail.Record(audit.EventServerResponse, map[string]any{
				"endpoint": "predict_encrypted",
				"status":   http.StatusServiceUnavailable,
			})
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":     "encrypted inference backend unavailable",
				"retryable": true,
			})
			return
		}

		recordOutcome(observability.EndpointPredictEncrypted, true)
		trail.Record(audit.EventServerResponse, map[string]any{
			"endpoint": "predict_encrypted",
			"status":   http.StatusOK,
			"bytes":    len(result),
		})
		c.Data(http.StatusOK, "application/octet-stream", result)
	}
}

// =============================================================================
// Error Mapping
// =============================================================================

// predictErrorStatus maps pipeline errors to HTTP statuses. Client
// mistakes are 400; missing backends are 503; everything else is 500.
func predictErrorStatus(err error) int {
	var valErr *datatypes.ValidationError
	var encErr *datatypes.EncodingError
	var infErr *datatypes.InferenceError
	switch {
	case errors.As(err, &valErr), errors.As(err, &encErr):
		return http.StatusBadRequest
	case errors.As(err, &infErr):
		if infErr.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func predictErrorBody(err error) gin.H {
	var valErr *datatypes.ValidationError
	if errors.As(err, &valErr) {
		return gin.H{"error": "validation failed", "fields": valErr.Fields}
	}
	var encErr *datatypes.EncodingError
	if errors.As(err, &encErr) {
		return gin.H{"error": encErr.Error()}
	}
	var infErr *datatypes.InferenceError
	if errors.As(err, &infErr) {
		return gin.H{"error": "inference backend unavailable", "retryable": infErr.Retryable}
	}
	return gin.H{"error": "internal error"}
}

func recordOutcome(endpoint observability.Endpoint, success bool) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRequest(endpoint, success)
	}
}
