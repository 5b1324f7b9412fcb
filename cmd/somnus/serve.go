// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/somnuslabs/somnus/pkg/logging"
	"github.com/somnuslabs/somnus/services/predictor/accounts"
	"github.com/somnuslabs/somnus/services/predictor/audit"
	"github.com/somnuslabs/somnus/services/predictor/config"
	"github.com/somnuslabs/somnus/services/predictor/encoding"
	"github.com/somnuslabs/somnus/services/predictor/inference"
	"github.com/somnuslabs/somnus/services/predictor/observability"
	"github.com/somnuslabs/somnus/services/predictor/params"
	"github.com/somnuslabs/somnus/services/predictor/routes"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if fheURL != "" {
		cfg.FHEBackendURL = fheURL
	}
	if cmd.Flags().Changed("demo") {
		cfg.DemoMode = demoFlag
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Fatalf("FATAL: configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  cfg.LogDir,
		Service: "predictor",
		Quiet:   quietFlag,
	})
	defer logger.Close()
	slogger := logger.Slog()

	cleanup, err := observability.InitTracer("predictor-service")
	if err != nil {
		log.Fatalf("FATAL: tracer setup: %v", err)
	}
	defer cleanup(context.Background())
	metrics := observability.InitMetrics()

	if err := params.CheckRegistry(); err != nil {
		log.Fatalf("FATAL: parameter registry: %v", err)
	}

	scaler, err := encoding.LoadScaler(cfg.ScalerPath)
	if err != nil {
		log.Fatalf("FATAL: scaler artifact: %v", err)
	}
	slogger.Info("scaler loaded", "path", cfg.ScalerPath)

	var forest *inference.Forest
	if forest, err = inference.LoadForest(cfg.ForestPath); err != nil {
		// The plaintext path is the fallback of last resort, so a
		// missing artifact degrades rather than aborts startup.
		slogger.Warn("plaintext classifier unavailable", "path", cfg.ForestPath, "error", err)
		forest = nil
	} else {
		slogger.Info("plaintext classifier loaded", "path", cfg.ForestPath)
	}

	var backend inference.Backend
	if cfg.FHEBackendURL != "" {
		backend = inference.NewHTTPBackend(cfg.FHEBackendURL, cfg.InferenceTimeout)
		slogger.Info("encrypted backend configured",
			"url", cfg.FHEBackendURL, "timeout", cfg.InferenceTimeout)
	} else {
		slogger.Warn("no encrypted backend configured, serving plaintext only")
	}
	if backend == nil && forest == nil {
		log.Fatalf("FATAL: no inference backend available; configure SOMNUS_FHE_URL or provide %s", cfg.ForestPath)
	}

	trail, err := audit.New(audit.Config{
		Dir:      cfg.AuditDir,
		OnRecord: metrics.RecordAuditEvent,
		Logger:   slogger,
	})
	if err != nil {
		log.Fatalf("FATAL: audit trail: %v", err)
	}
	defer trail.Close()

	store, err := accounts.Open(cfg.AccountsDir)
	if err != nil {
		log.Fatalf("FATAL: account store: %v", err)
	}
	defer store.Close()

	if err := routes.RegisterValidators(); err != nil {
		log.Fatalf("FATAL: binding validators: %v", err)
	}

	dispatcher := inference.NewDispatcher(backend, forest, scaler, trail, slogger)

	router := gin.Default()
	routes.SetupRoutes(router, routes.Deps{
		Dispatcher:     dispatcher,
		Trail:          trail,
		Accounts:       store,
		ClientFilesDir: cfg.ClientFilesDir,
		MetricsPath:    cfg.MetricsPath,
		DemoMode:       cfg.DemoMode,
	})

	slogger.Info("starting predictor server", "port", cfg.Port, "demo_mode", cfg.DemoMode)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// runCheck validates configuration and artifacts without serving.
// Useful in deployment pipelines before rolling a new model.
func runCheck(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Fatalf("FAIL: configuration: %v", err)
	}
	if err := params.CheckRegistry(); err != nil {
		log.Fatalf("FAIL: parameter registry: %v", err)
	}
	if _, err := encoding.LoadScaler(cfg.ScalerPath); err != nil {
		log.Fatalf("FAIL: scaler artifact: %v", err)
	}
	if _, err := inference.LoadForest(cfg.ForestPath); err != nil {
		log.Printf("WARN: plaintext classifier: %v", err)
	}
	log.Println("OK: configuration and artifacts are valid")
}
