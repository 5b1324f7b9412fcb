// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package audit implements the privacy-aware audit trail for the predict
// pipeline.
//
// # Description
//
// Every pipeline stage records its observable side effects as structured
// events. Events live in two places with independent retention:
//
//   - a bounded in-memory ring buffer (capacity 100, FIFO eviction) that
//     backs the dashboard's query/export/clear operations, and
//   - a durable, unbounded JSONL log appended synchronously on every
//     record, never evicted or cleared by this package.
//
// # Thread Safety
//
// The Trail is the service's only shared mutable resource. All buffer
// operations (Record, Query, Export, Clear, Len) are serialized by a
// single mutex so concurrent callers never observe partial eviction,
// out-of-order sequence IDs, or lost updates.
//
// # Privacy
//
// Binary payload fields are rendered as hex fingerprints at record time;
// raw ciphertext bytes are never stored or serialized by this package.
//
// # Failure Semantics
//
// Durable-log and export write failures are best-effort: they are logged
// and counted but never abort the in-flight request (AuditIOError).
package audit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/somnuslabs/somnus/services/predictor/datatypes"
)

// =============================================================================
// Event Types
// =============================================================================

// Well-known event types recorded by the pipeline. Client-submitted
// events may carry arbitrary additional types.
const (
	EventValidation         = "VALIDATION"
	EventDataFlow           = "DATA_FLOW"
	EventServerReceived     = "SERVER_RECEIVED"
	EventInference          = "FHE_INFERENCE"
	EventServerResponse     = "SERVER_RESPONSE"
	EventPerformanceMetrics = "PERFORMANCE_METRICS"
)

// DefaultCapacity is the ring-buffer size used when Config.Capacity is 0.
const DefaultCapacity = 100

// durableLogName is the durable JSONL file inside the trail directory.
const durableLogName = "audit_trail.log"

// Event is one structured record of an observable pipeline action.
//
// SequenceID is assigned at record time and increases monotonically for
// the lifetime of the Trail; it is never reused, even after Clear.
type Event struct {
	SequenceID uint64         `json:"sequence_id"`
	Timestamp  time.Time      `json:"timestamp"`
	Type       string         `json:"type"`
	Payload    map[string]any `json:"data"`
}

// =============================================================================
// Trail
// =============================================================================

// Config configures a Trail.
type Config struct {
	// Dir is the directory for the durable log and export snapshots.
	// Created with 0750 permissions if absent.
	Dir string

	// Capacity bounds the in-memory ring buffer. Default: DefaultCapacity.
	Capacity int

	// OnRecord, when non-nil, is invoked (outside the lock) with the type
	// of every recorded event. Used to feed metrics counters.
	OnRecord func(eventType string)

	// Logger receives best-effort failure reports. Default: slog.Default().
	Logger *slog.Logger
}

// Trail is the concurrency-safe, bounded, exportable event log.
//
// Construct with New and release with Close. The zero value is not usable.
type Trail struct {
	mu      sync.Mutex
	buf     []Event // ring storage, len == capacity
	start   int     // index of oldest event
	count   int     // number of live events
	nextSeq uint64

	dir      string
	durable  *os.File
	onRecord func(string)
	log      *slog.Logger
}

// New creates a Trail, ensuring the trail directory exists and opening
// the durable log in append mode.
func New(cfg Config) (*Trail, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("audit: trail directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
		return nil, fmt.Errorf("audit: create trail dir: %w", err)
	}
	durable, err := os.OpenFile(filepath.Join(cfg.Dir, durableLogName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("audit: open durable log: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{
		buf:      make([]Event, capacity),
		dir:      cfg.Dir,
		durable:  durable,
		onRecord: cfg.OnRecord,
		log:      logger,
	}, nil
}

// Record appends an event with a fresh sequence ID and the current time.
//
// When the ring is full the oldest event is evicted first (FIFO). The
// event is also appended synchronously to the durable log; a durable
// write failure is logged and swallowed (audit is best-effort and must
// never block inference delivery).
func (t *Trail) Record(eventType string, payload map[string]any) Event {
	sanitized := sanitizePayload(payload)

	t.mu.Lock()
	t.nextSeq++
	event := Event{
		SequenceID: t.nextSeq,
		Timestamp:  time.Now().UTC(),
		Type:       eventType,
		Payload:    sanitized,
	}
	if t.count == len(t.buf) {
		// Evict oldest.
		t.start = (t.start + 1) % len(t.buf)
		t.count--
	}
	t.buf[(t.start+t.count)%len(t.buf)] = event
	t.count++
	err := t.appendDurableLocked(event)
	t.mu.Unlock()

	if err != nil {
		ioErr := &datatypes.AuditIOError{Op: "append", Err: err}
		t.log.Error("audit durable append failed", "error", ioErr, "type", eventType)
	}
	if t.onRecord != nil {
		t.onRecord(eventType)
	}
	return event
}

// Query returns the most recent limit events in chronological order,
// oldest first. A limit larger than the buffer returns the whole buffer;
// a non-positive limit returns nil.
func (t *Trail) Query(limit int) []Event {
	if limit <= 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	n := limit
	if n > t.count {
		n = t.count
	}
	out := make([]Event, n)
	first := t.count - n
	for i := 0; i < n; i++ {
		out[i] = t.buf[(t.start+first+i)%len(t.buf)]
	}
	return out
}

// Export serializes the current in-memory buffer to a timestamped JSON
// snapshot in the trail directory and returns its path. The durable log
// is not touched.
func (t *Trail) Export() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events := make([]Event, t.count)
	for i := 0; i < t.count; i++ {
		events[i] = t.buf[(t.start+i)%len(t.buf)]
	}

	path := filepath.Join(t.dir,
		fmt.Sprintf("events_%s.json", time.Now().UTC().Format("20060102_150405")))
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", &datatypes.AuditIOError{Op: "export", Err: err}
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", &datatypes.AuditIOError{Op: "export", Err: err}
	}
	return path, nil
}

// Clear empties the in-memory buffer. The durable log and assigned
// sequence IDs are unaffected.
func (t *Trail) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = 0
	t.count = 0
}

// Len reports the number of events currently buffered.
func (t *Trail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Close releases the durable log handle. The Trail must not be used
// after Close.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.durable == nil {
		return nil
	}
	err := t.durable.Close()
	t.durable = nil
	return err
}

// appendDurableLocked writes one event as a JSONL line. Caller holds the
// lock, keeping durable ordering identical to sequence order.
func (t *Trail) appendDurableLocked(event Event) error {
	if t.durable == nil {
		return fmt.Errorf("durable log closed")
	}
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := t.durable.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// Payload Sanitization
// =============================================================================

// sanitizePayload deep-copies a payload, rendering binary fields as hex
// strings so events are always JSON-serializable and never retain raw
// ciphertext. Nested maps and slices are handled recursively.
func sanitizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return hex.EncodeToString(x)
	case map[string]any:
		return sanitizePayload(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}
