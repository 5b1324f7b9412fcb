// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package inference dispatches prediction requests to the configured
// backends and normalizes their outputs into tagged results.
package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Backend executes one inference round trip over an opaque byte payload.
//
// Implementations must honor context cancellation and must not retain
// the payload after Run returns.
type Backend interface {
	// Run submits the payload and returns the raw response bytes.
	Run(ctx context.Context, payload []byte) ([]byte, error)

	// Ready reports whether the backend can currently serve requests.
	Ready(ctx context.Context) bool
}

// maxResultBytes caps sidecar response reads. Well-formed responses are
// 8 bytes; anything near the cap is already malformed.
const maxResultBytes = 1 << 16

// HTTPBackend talks to the encrypted-inference sidecar over HTTP with
// application/octet-stream bodies.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend builds a sidecar client. The timeout bounds each full
// round trip; encrypted evaluation is slow, so callers typically pass
// tens of seconds.
func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Run posts the payload to the sidecar's /compute endpoint and returns
// the response body.
func (b *HTTPBackend) Run(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/compute", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build sidecar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sidecar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))
	if err != nil {
		return nil, fmt.Errorf("read sidecar response: %w", err)
	}
	return body, nil
}

// Ready probes the sidecar's /health endpoint.
func (b *HTTPBackend) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
