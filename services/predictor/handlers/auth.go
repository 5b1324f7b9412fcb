// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somnuslabs/somnus/services/predictor/accounts"
	"github.com/somnuslabs/somnus/services/predictor/observability"
)

// credentialsRequest is the body for register and login.
type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register handles POST /v1/auth/register.
func Register(store *accounts.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			recordOutcome(observability.EndpointAuth, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and a password of at least 8 characters are required"})
			return
		}

		if err := store.Register(req.Email, req.Password); err != nil {
			recordOutcome(observability.EndpointAuth, false)
			if errors.Is(err, accounts.ErrAccountExists) {
				c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
				return
			}
			slog.Error("account registration failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration failed"})
			return
		}

		recordOutcome(observability.EndpointAuth, true)
		c.JSON(http.StatusCreated, gin.H{"status": "registered", "email": req.Email})
	}
}

// Login handles POST /v1/auth/login. Unknown emails and wrong passwords
// produce identical responses.
func Login(store *accounts.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			recordOutcome(observability.EndpointAuth, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		if err := store.Verify(req.Email, req.Password); err != nil {
			recordOutcome(observability.EndpointAuth, false)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		recordOutcome(observability.EndpointAuth, true)
		c.JSON(http.StatusOK, gin.H{"status": "authenticated", "email": req.Email})
	}
}
