// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and tracing for the predictor.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the predict
// pipeline. Metrics include:
//   - Request counters (by endpoint, status)
//   - Inference counters and latency histograms (by mode)
//   - Fallback counter (encrypted path degraded to plaintext)
//   - Audit event counter (by event type)
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "somnus"

// Subsystem for predict-pipeline metrics
const predictorSubsystem = "predictor"

// PredictorMetrics holds all Prometheus metrics for the predict pipeline.
//
// Initialize once at startup via InitMetrics(); registering twice panics
// on duplicate registration.
type PredictorMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (predict, predict_encrypted, audit, auth), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// InferencesTotal counts completed inferences by mode and status.
	// Labels: mode (fhe, plaintext), status (success, error)
	InferencesTotal *prometheus.CounterVec

	// InferenceDurationSeconds measures backend latency by mode.
	// Labels: mode (fhe, plaintext)
	InferenceDurationSeconds *prometheus.HistogramVec

	// FallbacksTotal counts encrypted requests served by the plaintext path.
	FallbacksTotal prometheus.Counter

	// ValidationFailuresTotal counts requests rejected during validation.
	ValidationFailuresTotal prometheus.Counter

	// AuditEventsTotal counts audit trail records by event type.
	// Labels: type (VALIDATION, DATA_FLOW, FHE_INFERENCE, ...)
	AuditEventsTotal *prometheus.CounterVec

	// ActiveRequests tracks predict requests currently in flight.
	ActiveRequests prometheus.Gauge
}

// DefaultMetrics is the singleton instance of PredictorMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PredictorMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once at
// application startup.
func InitMetrics() *PredictorMetrics {
	DefaultMetrics = &PredictorMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "requests_total",
				Help:      "Total API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		InferencesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "inferences_total",
				Help:      "Total completed inferences by mode and status",
			},
			[]string{"mode", "status"},
		),

		InferenceDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "inference_duration_seconds",
				Help:      "Inference backend latency in seconds by mode",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"mode"},
		),

		FallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "fallbacks_total",
				Help:      "Encrypted inference requests served by the plaintext fallback",
			},
		),

		ValidationFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "validation_failures_total",
				Help:      "Requests rejected by parameter validation",
			},
		),

		AuditEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "audit_events_total",
				Help:      "Audit trail events recorded by type",
			},
			[]string{"type"},
		),

		ActiveRequests: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: predictorSubsystem,
				Name:      "active_requests",
				Help:      "Predict requests currently in flight",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint labels API surfaces for metrics.
type Endpoint string

const (
	EndpointPredict          Endpoint = "predict"
	EndpointPredictEncrypted Endpoint = "predict_encrypted"
	EndpointAudit            Endpoint = "audit"
	EndpointAuth             Endpoint = "auth"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed API request.
func (m *PredictorMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordInference records one backend round trip.
func (m *PredictorMetrics) RecordInference(mode string, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.InferencesTotal.WithLabelValues(mode, status).Inc()
	if success {
		m.InferenceDurationSeconds.WithLabelValues(mode).Observe(seconds)
	}
}

// RecordFallback counts an encrypted request served by the plaintext path.
func (m *PredictorMetrics) RecordFallback() {
	m.FallbacksTotal.Inc()
}

// RecordValidationFailure counts a rejected request.
func (m *PredictorMetrics) RecordValidationFailure() {
	m.ValidationFailuresTotal.Inc()
}

// RecordAuditEvent counts one audit trail record. Suitable as the
// trail's OnRecord hook.
func (m *PredictorMetrics) RecordAuditEvent(eventType string) {
	m.AuditEventsTotal.WithLabelValues(eventType).Inc()
}

// RequestStarted increments the in-flight gauge.
func (m *PredictorMetrics) RequestStarted() {
	m.ActiveRequests.Inc()
}

// RequestEnded decrements the in-flight gauge.
func (m *PredictorMetrics) RequestEnded() {
	m.ActiveRequests.Dec()
}
