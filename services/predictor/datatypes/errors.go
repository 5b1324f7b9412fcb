// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// Pipeline Error Taxonomy
// =============================================================================
//
// The predict pipeline distinguishes five failure classes:
//
//   - ValidationError:     caller input rejected before encoding (4xx)
//   - EncodingError:       input cannot be mapped to the feature space (4xx)
//   - ErrBackendUnavailable: scaler or an inference backend not loaded (5xx)
//   - InferenceError:      a backend call failed at inference time
//   - AuditIOError:        durable audit write failed (logged, never fatal)
//
// Handlers select status codes with errors.As / errors.Is against these
// types; nothing in the pipeline panics on bad input.

// ValidationError reports per-field input validation failures.
//
// Fields maps the encoded parameter name to a human-readable message.
// The request is aborted before encoding when a ValidationError occurs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// EncodingError reports a raw value that cannot be mapped into the frozen
// feature space: an unseen category label, a malformed blood-pressure
// string, a missing slot value, or a zero-variance scaler slot.
type EncodingError struct {
	Feature Feature
	Reason  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode %q: %s", e.Feature, e.Reason)
}

// ErrBackendUnavailable indicates the scaler or an inference backend was
// not loaded at startup. Fatal for the predict path; not retried.
var ErrBackendUnavailable = errors.New("inference backend unavailable")

// InferenceError reports a backend failure at inference time.
//
// In server-computed mode the dispatcher recovers by falling back to the
// plaintext classifier and the caller never sees this error. In
// opaque-ciphertext mode there is nothing to fall back to, so the error is
// surfaced with Retryable set; the transport maps it to a retryable status
// rather than fabricating output.
type InferenceError struct {
	Mode      InferenceMode
	Retryable bool
	Err       error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference failed: %v", e.Mode, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// AuditIOError wraps a durable-log or export write failure. Audit writes
// are best-effort: the error is logged and the in-flight request proceeds.
type AuditIOError struct {
	Op  string // "append" or "export"
	Err error
}

func (e *AuditIOError) Error() string {
	return fmt.Sprintf("audit %s failed: %v", e.Op, e.Err)
}

func (e *AuditIOError) Unwrap() error { return e.Err }
