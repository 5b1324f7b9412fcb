// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads predictor service configuration from the
// environment, with optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultPort             = "8300"
	DefaultModelDir         = "deployment"
	DefaultAuditDir         = "logs"
	DefaultAccountsDir      = "data/accounts"
	DefaultInferenceTimeout = 30 * time.Second
)

// Config holds every runtime setting of the predictor service.
type Config struct {
	// Port is the HTTP listen port (SOMNUS_PORT).
	Port string

	// ModelDir holds the deployment artifacts: scaler parameters,
	// forest artifact, client files, training metrics (SOMNUS_MODEL_DIR).
	ModelDir string

	// ScalerPath locates the scaler artifact (SOMNUS_SCALER_PATH,
	// default {ModelDir}/scaler_params.json).
	ScalerPath string

	// ForestPath locates the plaintext classifier artifact
	// (SOMNUS_FOREST_PATH, default {ModelDir}/forest.json).
	ForestPath string

	// ClientFilesDir holds the client-side encryption bundle served by
	// the API (SOMNUS_CLIENT_FILES_DIR, default {ModelDir}/client).
	ClientFilesDir string

	// MetricsPath locates the training-time metrics report
	// (SOMNUS_METRICS_PATH, default {ModelDir}/metrics.json).
	MetricsPath string

	// AuditDir is the audit trail directory (SOMNUS_AUDIT_DIR).
	AuditDir string

	// AccountsDir is the embedded account database directory
	// (SOMNUS_ACCOUNTS_DIR).
	AccountsDir string

	// FHEBackendURL is the encrypted-inference sidecar base URL
	// (SOMNUS_FHE_URL). Empty disables the encrypted path; the service
	// serves plaintext-only.
	FHEBackendURL string

	// InferenceTimeout bounds one backend round trip
	// (SOMNUS_INFERENCE_TIMEOUT, Go duration syntax).
	InferenceTimeout time.Duration

	// DemoMode attributes tokenless requests to a shared demo identity
	// instead of rejecting them (SOMNUS_DEMO_MODE, default true).
	DemoMode bool

	// LogDir enables file logging when set (SOMNUS_LOG_DIR).
	LogDir string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged first when present; real environment
// variables win over .env entries.
func Load() (*Config, error) {
	// godotenv does not overwrite variables already set in the environment.
	_ = godotenv.Load()

	modelDir := envOr("SOMNUS_MODEL_DIR", DefaultModelDir)

	cfg := &Config{
		Port:             envOr("SOMNUS_PORT", DefaultPort),
		ModelDir:         modelDir,
		ScalerPath:       envOr("SOMNUS_SCALER_PATH", filepath.Join(modelDir, "scaler_params.json")),
		ForestPath:       envOr("SOMNUS_FOREST_PATH", filepath.Join(modelDir, "forest.json")),
		ClientFilesDir:   envOr("SOMNUS_CLIENT_FILES_DIR", filepath.Join(modelDir, "client")),
		MetricsPath:      envOr("SOMNUS_METRICS_PATH", filepath.Join(modelDir, "metrics.json")),
		AuditDir:         envOr("SOMNUS_AUDIT_DIR", DefaultAuditDir),
		AccountsDir:      envOr("SOMNUS_ACCOUNTS_DIR", DefaultAccountsDir),
		FHEBackendURL:    os.Getenv("SOMNUS_FHE_URL"),
		InferenceTimeout: DefaultInferenceTimeout,
		DemoMode:         true,
		LogDir:           os.Getenv("SOMNUS_LOG_DIR"),
	}

	if raw := os.Getenv("SOMNUS_INFERENCE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SOMNUS_INFERENCE_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: SOMNUS_INFERENCE_TIMEOUT must be positive, got %s", d)
		}
		cfg.InferenceTimeout = d
	}

	if raw := os.Getenv("SOMNUS_DEMO_MODE"); raw != "" {
		demo, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SOMNUS_DEMO_MODE %q: %w", raw, err)
		}
		cfg.DemoMode = demo
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
