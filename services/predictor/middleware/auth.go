// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the predictor service.
//
// # Authentication Flow
//
// The identity middleware extracts a bearer token from the Authorization
// header, reads the email claim from the JWT, and stores the resulting
// Identity in the Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	IdentityMiddleware
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► Parse JWT, read "email" claim
//	   │
//	   └─► Store Identity in context
//	           │
//	           ▼
//	       Handler (retrieves via GetIdentity)
//
// Token signatures are verified at the ingress gateway; inside the
// deployment this service reads claims without re-verifying. The
// middleware therefore attributes requests, it does not gatekeep
// secrets.
//
// # Demo Mode
//
// When demo mode is enabled, requests without a token are attributed to
// a shared demo identity instead of being rejected. This keeps local
// development and the public demo deployment working without any
// identity infrastructure.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// Identity
// =============================================================================

// Identity describes the caller attributed to a request.
type Identity struct {
	// Email is the caller's email address from the token's email claim,
	// or DemoEmail for unauthenticated demo-mode requests.
	Email string

	// Demo is true when the identity was assigned by demo mode rather
	// than extracted from a token.
	Demo bool
}

// DemoEmail is the shared identity for demo-mode requests.
const DemoEmail = "demo@somnuslabs.io"

// identityKey is the context key for storing Identity.
const identityKey = "somnus_identity"

// SetIdentity stores the caller identity in the Gin context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity retrieves the caller identity from the Gin context.
// Returns a zero Identity and false if the middleware did not run.
func GetIdentity(c *gin.Context) (Identity, bool) {
	if v, exists := c.Get(identityKey); exists {
		if id, ok := v.(Identity); ok {
			return id, true
		}
	}
	return Identity{}, false
}

// =============================================================================
// Identity Middleware
// =============================================================================

// IdentityMiddleware creates a Gin middleware that attributes requests.
//
// Requests with a bearer token must carry a parseable JWT with a
// non-empty "email" claim; malformed tokens are rejected with 401.
// Requests without a token are attributed to the demo identity when
// demoMode is true and rejected otherwise.
func IdentityMiddleware(demoMode bool) gin.HandlerFunc {
	parser := jwt.NewParser()
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			if demoMode {
				SetIdentity(c, Identity{Email: DemoEmail, Demo: true})
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
			})
			return
		}

		email, err := emailClaim(parser, token)
		if err != nil || email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
			})
			return
		}

		SetIdentity(c, Identity{Email: email})
		c.Next()
	}
}

// emailClaim reads the email claim from a JWT without re-verifying the
// signature (verified upstream at the gateway).
func emailClaim(parser *jwt.Parser, token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return "", err
	}
	email, _ := claims["email"].(string)
	return email, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerToken parses the Authorization header, expecting the
// format "Bearer <token>". The scheme is case-insensitive per RFC 7235.
// Returns "" when the header is missing or malformed.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
