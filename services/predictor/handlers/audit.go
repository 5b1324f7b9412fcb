// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/observability"
)

// defaultEventLimit is the event count returned when ?limit is absent.
const defaultEventLimit = 50

// AuditEvents handles GET /v1/audit/events?limit=N, returning the most
// recent buffered events oldest-first.
func AuditEvents(trail *audit.Trail) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultEventLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				recordOutcome(observability.EndpointAudit, false)
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		events := trail.Query(limit)
		recordOutcome(observability.EndpointAudit, true)
		c.JSON(http.StatusOK, gin.H{
			"events": events,
			"count":  len(events),
			"total":  trail.Len(),
		})
	}
}

// AuditExport handles POST /v1/audit/export, snapshotting the buffer to
// a timestamped file and returning its path.
func AuditExport(trail *audit.Trail) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := trail.Export()
		if err != nil {
			slog.Error("audit export failed", "error", err)
			recordOutcome(observability.EndpointAudit, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		recordOutcome(observability.EndpointAudit, true)
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"filepath": path,
		})
	}
}

// AuditClear handles POST /v1/audit/clear. Only the in-memory buffer is
// cleared; the durable log keeps its history.
func AuditClear(trail *audit.Trail) gin.HandlerFunc {
	return func(c *gin.Context) {
		trail.Clear()
		recordOutcome(observability.EndpointAudit, true)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// logEventRequest is a client-submitted audit record.
type logEventRequest struct {
	Type string         `json:"type" binding:"required"`
	Data map[string]any `json:"data"`
}

// AuditLog handles POST /v1/audit/log, letting clients append their own
// observable events (key generation, local decryption) to the trail.
func AuditLog(trail *audit.Trail) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req logEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			recordOutcome(observability.EndpointAudit, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "event type is required"})
			return
		}

		event := trail.Record(req.Type, req.Data)
		recordOutcome(observability.EndpointAudit, true)
		c.JSON(http.StatusCreated, gin.H{
			"success":     true,
			"sequence_id": event.SequenceID,
		})
	}
}
