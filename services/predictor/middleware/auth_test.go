// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// signToken builds a signed JWT carrying the given claims. The
// middleware reads claims without verifying, so any key works.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func identityRouter(demoMode bool) *gin.Engine {
	router := gin.New()
	router.Use(IdentityMiddleware(demoMode))
	router.GET("/whoami", func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": id.Email, "demo": id.Demo})
	})
	return router
}

func get(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdentityMiddleware_TokenWithEmail(t *testing.T) {
	router := identityRouter(false)
	token := signToken(t, jwt.MapClaims{"email": "alice@example.com"})

	w := get(router, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
	assert.Contains(t, w.Body.String(), `"demo":false`)
}

func TestIdentityMiddleware_BearerIsCaseInsensitive(t *testing.T) {
	router := identityRouter(false)
	token := signToken(t, jwt.MapClaims{"email": "alice@example.com"})

	w := get(router, "bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdentityMiddleware_MissingTokenRejectedOutsideDemo(t *testing.T) {
	router := identityRouter(false)
	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
}

func TestIdentityMiddleware_DemoModeAssignsSharedIdentity(t *testing.T) {
	router := identityRouter(true)

	w := get(router, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), DemoEmail)
	assert.Contains(t, w.Body.String(), `"demo":true`)
}

func TestIdentityMiddleware_DemoModeStillReadsTokens(t *testing.T) {
	router := identityRouter(true)
	token := signToken(t, jwt.MapClaims{"email": "alice@example.com"})

	w := get(router, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestIdentityMiddleware_RejectsBadTokens(t *testing.T) {
	router := identityRouter(true)

	// Garbage token.
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer not.a.jwt").Code)

	// Valid JWT without an email claim.
	token := signToken(t, jwt.MapClaims{"sub": "user-1"})
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer "+token).Code)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	// Generated when absent.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	// Inbound IDs are preserved.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "gateway-assigned-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "gateway-assigned-id", w.Body.String())
}
