// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes wires the predictor API surface onto a gin engine.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/somnuslabs/somnus/services/predictor/accounts"
	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/encoding"
	"github.com/somnuslabs/somnus/services/predictor/handlers"
	"github.com/somnuslabs/somnus/services/predictor/inference"
	"github.com/somnuslabs/somnus/services/predictor/middleware"
)

// Deps bundles everything the route handlers close over.
type Deps struct {
	Dispatcher     *inference.Dispatcher
	Trail          *audit.Trail
	Accounts       *accounts.Store
	ClientFilesDir string
	MetricsPath    string

	// DemoMode is forwarded to the identity middleware.
	DemoMode bool
}

// RegisterValidators installs the custom binding validators on gin's
// validator engine. Call once before SetupRoutes.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("routes: unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("bloodpressure", func(fl validator.FieldLevel) bool {
		_, _, err := encoding.ParseBloodPressure(fl.Field().String())
		return err == nil
	})
}

// SetupRoutes attaches middleware and the full route table.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware("predictor-service"))

	router.GET("/health", handlers.Health(deps.Dispatcher, deps.Trail, deps.Accounts, deps.DemoMode))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.IdentityMiddleware(deps.DemoMode))
	{
		v1.POST("/predict", handlers.Predict(deps.Dispatcher, deps.Trail))
		v1.POST("/predict/encrypted", handlers.PredictEncrypted(deps.Dispatcher, deps.Trail))
		v1.GET("/fhe/client-files", handlers.ClientFiles(deps.ClientFilesDir))
		v1.GET("/report", handlers.Report(deps.MetricsPath))

		auditGroup := v1.Group("/audit")
		{
			auditGroup.GET("/events", handlers.AuditEvents(deps.Trail))
			auditGroup.POST("/export", handlers.AuditExport(deps.Trail))
			auditGroup.POST("/clear", handlers.AuditClear(deps.Trail))
			auditGroup.POST("/log", handlers.AuditLog(deps.Trail))
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handlers.Register(deps.Accounts))
			authGroup.POST("/login", handlers.Login(deps.Accounts))
		}
	}
}
