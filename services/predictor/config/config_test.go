// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultModelDir, cfg.ModelDir)
	assert.Equal(t, filepath.Join(DefaultModelDir, "scaler_params.json"), cfg.ScalerPath)
	assert.Equal(t, filepath.Join(DefaultModelDir, "forest.json"), cfg.ForestPath)
	assert.Equal(t, DefaultInferenceTimeout, cfg.InferenceTimeout)
	assert.True(t, cfg.DemoMode)
	assert.Empty(t, cfg.FHEBackendURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SOMNUS_PORT", "9000")
	t.Setenv("SOMNUS_MODEL_DIR", "/opt/somnus/model")
	t.Setenv("SOMNUS_FHE_URL", "http://fhe-sidecar:5001")
	t.Setenv("SOMNUS_INFERENCE_TIMEOUT", "45s")
	t.Setenv("SOMNUS_DEMO_MODE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/opt/somnus/model", cfg.ModelDir)
	// Derived paths follow the overridden model dir.
	assert.Equal(t, "/opt/somnus/model/scaler_params.json", cfg.ScalerPath)
	assert.Equal(t, "http://fhe-sidecar:5001", cfg.FHEBackendURL)
	assert.Equal(t, 45*time.Second, cfg.InferenceTimeout)
	assert.False(t, cfg.DemoMode)
}

func TestLoad_ExplicitPathsWinOverDerived(t *testing.T) {
	t.Setenv("SOMNUS_MODEL_DIR", "/opt/somnus/model")
	t.Setenv("SOMNUS_SCALER_PATH", "/etc/somnus/scaler.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/somnus/scaler.json", cfg.ScalerPath)
	assert.Equal(t, "/opt/somnus/model/forest.json", cfg.ForestPath)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("SOMNUS_INFERENCE_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SOMNUS_INFERENCE_TIMEOUT", "-5s")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SOMNUS_INFERENCE_TIMEOUT", "30s")
	t.Setenv("SOMNUS_DEMO_MODE", "maybe")
	_, err = Load()
	assert.Error(t, err)
}
