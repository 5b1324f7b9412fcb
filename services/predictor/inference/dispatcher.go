// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/datatypes"
	"github.com/somnuslabs/somnus/services/predictor/encoding"
	"github.com/somnuslabs/somnus/services/predictor/params"
	"github.com/somnuslabs/somnus/services/predictor/risk"
)

var dispatchTracer = otel.Tracer("somnus/predictor/inference")

// =============================================================================
// Pipeline Stages
// =============================================================================

// Stage names a phase of the predict pipeline. A request moves strictly
// forward: Idle, Validating, Encoding, Inferring, then Completed or
// Failed. Stage transitions are recorded on the audit trail, never the
// feature values themselves.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageEncoding   Stage = "encoding"
	StageInferring  Stage = "inferring"
	StageCompleted  Stage = "completed"
	StageFailed     Stage = "failed"
)

// =============================================================================
// Dispatcher
// =============================================================================

// Dispatcher owns the backends and runs the predict pipeline.
//
// # Description
//
// For server-computed requests the dispatcher validates and encodes the
// raw input, prefers the encrypted backend when one is configured and
// reachable, and falls back to the local plaintext forest when the
// encrypted round trip fails. Every result is tagged with the mode that
// actually produced it.
//
// For client-encrypted requests (RunOpaque) the dispatcher forwards the
// ciphertext untouched. It cannot decrypt, so there is no plaintext
// fallback and no content-derived output on failure; callers get a
// retryable error instead.
//
// # Thread Safety
//
// All fields are set at construction and read-only afterwards. The
// audit trail serializes its own state. Safe for concurrent use.
type Dispatcher struct {
	backend Backend // encrypted sidecar, may be nil
	forest  *Forest // plaintext classifier, may be nil
	scaler  *encoding.ScalerState
	trail   *audit.Trail
	log     *slog.Logger
}

// NewDispatcher wires a dispatcher. Either backend may be nil; a request
// that reaches inference with no usable backend fails with a retryable
// InferenceError.
func NewDispatcher(backend Backend, forest *Forest, scaler *encoding.ScalerState,
	trail *audit.Trail, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		backend: backend,
		forest:  forest,
		scaler:  scaler,
		trail:   trail,
		log:     log,
	}
}

// FHEConfigured reports whether an encrypted backend is wired at all.
func (d *Dispatcher) FHEConfigured() bool {
	return d.backend != nil
}

// FHEReady reports whether the encrypted backend is configured and
// currently reachable.
func (d *Dispatcher) FHEReady(ctx context.Context) bool {
	return d.backend != nil && d.backend.Ready(ctx)
}

// PlaintextReady reports whether the local forest is loaded.
func (d *Dispatcher) PlaintextReady() bool {
	return d.forest != nil
}

// ScalerLoaded reports whether the scaler artifact is loaded.
func (d *Dispatcher) ScalerLoaded() bool {
	return d.scaler != nil
}

// Predict runs the full server-computed pipeline over raw client input.
//
// Validation or encoding failures return *datatypes.ValidationError or
// *datatypes.EncodingError; inference failures return
// *datatypes.InferenceError. On success the response carries the
// classifier output, the validated feature echo, the independent risk
// assessment, and the warnings accumulated during validation.
func (d *Dispatcher) Predict(ctx context.Context, raw datatypes.RawInput) (*datatypes.PredictResponse, error) {
	ctx, span := dispatchTracer.Start(ctx, "predictor.pipeline")
	defer span.End()
	start := time.Now()

	// ----- Validating -----
	normalized, err := encoding.Normalize(raw)
	if err != nil {
		d.record(StageFailed, map[string]any{"stage": string(StageValidating), "reason": err.Error()})
		return nil, err
	}
	report := params.ValidateAll(normalized)
	d.record(StageValidating, map[string]any{
		"fields":   len(report.Values),
		"warnings": len(report.Warnings),
		"valid":    report.Valid,
	})
	if !report.Valid {
		return nil, &datatypes.ValidationError{Fields: report.Errors}
	}

	// ----- Encoding -----
	vector, err := encoding.Vector(report.Values)
	if err != nil {
		d.record(StageFailed, map[string]any{"stage": string(StageEncoding), "reason": err.Error()})
		return nil, err
	}
	scaled, err := d.scaler.Transform(vector)
	if err != nil {
		d.record(StageFailed, map[string]any{"stage": string(StageEncoding), "reason": err.Error()})
		return nil, err
	}
	d.record(StageEncoding, map[string]any{"slots": datatypes.VectorSize})

	// ----- Inferring -----
	result, err := d.infer(ctx, scaled)
	if err != nil {
		d.record(StageFailed, map[string]any{"stage": string(StageInferring), "reason": err.Error()})
		return nil, err
	}
	span.SetAttributes(
		attribute.String("inference.mode", string(result.Mode)),
		attribute.Int("inference.class", result.ClassIndex),
	)
	d.record(StageCompleted, map[string]any{
		"mode":       string(result.Mode),
		"class":      result.ClassIndex,
		"latency_ms": result.LatencyMs,
	})
	d.trail.Record(audit.EventPerformanceMetrics, map[string]any{
		"pipeline_ms": float64(time.Since(start).Microseconds()) / 1000.0,
		"mode":        string(result.Mode),
	})

	assessment := risk.Assess(report.Values)
	return &datatypes.PredictResponse{
		Prediction:      result.ClassIndex,
		Label:           result.Label,
		Interpretation:  Interpretation(result.Label),
		LatencyMs:       result.LatencyMs,
		Mode:            result.Mode,
		Features:        report.Values,
		RiskAssessment:  assessment,
		Recommendations: risk.Recommend(report.Values),
		Warnings:        report.Warnings,
	}, nil
}

// infer prefers the encrypted backend and degrades to the plaintext
// forest, tagging the result with whichever mode produced it.
func (d *Dispatcher) infer(ctx context.Context, scaled datatypes.FeatureVector) (*datatypes.InferenceResult, error) {
	if d.backend != nil {
		start := time.Now()
		raw, err := d.backend.Run(ctx, EncodeVector(scaled))
		if err == nil {
			class, decErr := DecodeResult(raw)
			if decErr == nil {
				d.recordInference(datatypes.ModeFHE, class, start)
				return &datatypes.InferenceResult{
					Mode:       datatypes.ModeFHE,
					ClassIndex: class,
					Label:      Label(class),
					LatencyMs:  msSince(start),
				}, nil
			}
			err = decErr
		}
		d.log.Warn("encrypted backend failed, falling back to plaintext",
			"error", err)
	}

	if d.forest == nil {
		return nil, &datatypes.InferenceError{
			Mode:      datatypes.ModePlaintext,
			Retryable: true,
			Err:       datatypes.ErrBackendUnavailable,
		}
	}
	start := time.Now()
	class := d.forest.Classify(scaled)
	d.recordInference(datatypes.ModePlaintext, class, start)
	return &datatypes.InferenceResult{
		Mode:       datatypes.ModePlaintext,
		ClassIndex: class,
		Label:      Label(class),
		LatencyMs:  msSince(start),
	}, nil
}

// RunOpaque forwards client-encrypted ciphertext to the encrypted
// backend and returns the opaque result bytes.
//
// The ciphertext is never inspected or logged; the audit trail records
// only its size and a SHA-256 fingerprint. Any failure is a retryable
// InferenceError because the service cannot fall back on data it cannot
// read.
func (d *Dispatcher) RunOpaque(ctx context.Context, ciphertext []byte) ([]byte, error) {
	ctx, span := dispatchTracer.Start(ctx, "predictor.opaque")
	defer span.End()

	digest := sha256.Sum256(ciphertext)
	fingerprint := hex.EncodeToString(digest[:8])
	d.trail.Record(audit.EventDataFlow, map[string]any{
		"direction":   "inbound",
		"bytes":       len(ciphertext),
		"fingerprint": fingerprint,
	})

	if d.backend == nil {
		return nil, &datatypes.InferenceError{
			Mode:      datatypes.ModeFHE,
			Retryable: true,
			Err:       datatypes.ErrBackendUnavailable,
		}
	}

	start := time.Now()
	result, err := d.backend.Run(ctx, ciphertext)
	if err != nil {
		d.record(StageFailed, map[string]any{
			"stage":       string(StageInferring),
			"fingerprint": fingerprint,
		})
		return nil, &datatypes.InferenceError{Mode: datatypes.ModeFHE, Retryable: true, Err: err}
	}
	d.trail.Record(audit.EventInference, map[string]any{
		"mode":        string(datatypes.ModeFHE),
		"latency_ms":  msSince(start),
		"fingerprint": fingerprint,
		"bytes_out":   len(result),
	})
	span.SetAttributes(attribute.Int("ciphertext.bytes", len(ciphertext)))
	return result, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (d *Dispatcher) record(stage Stage, payload map[string]any) {
	switch stage {
	case StageValidating:
		d.trail.Record(audit.EventValidation, payload)
	case StageEncoding:
		d.trail.Record(audit.EventDataFlow, payload)
	default:
		d.trail.Record(audit.EventInference, payload)
	}
}

func (d *Dispatcher) recordInference(mode datatypes.InferenceMode, class int, start time.Time) {
	d.trail.Record(audit.EventInference, map[string]any{
		"mode":       string(mode),
		"class":      class,
		"latency_ms": msSince(start),
	})
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
