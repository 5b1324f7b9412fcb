// Copyright (C) 2025 Somnus Labs (eng@somnuslabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	portFlag  string
	fheURL    string
	demoFlag  bool
	quietFlag bool

	rootCmd = &cobra.Command{
		Use:   "somnus",
		Short: "Privacy-preserving sleep disorder inference service",
		Long: `Somnus serves sleep disorder predictions over plaintext and
client-encrypted inputs, with a bounded audit trail of every
observable pipeline action.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the predictor HTTP service",
		Run:   runServe, // Defined in serve.go
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and deployment artifacts, then exit",
		Run:   runCheck, // Defined in serve.go
	}
)

func init() {
	serveCmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides SOMNUS_PORT)")
	serveCmd.Flags().StringVar(&fheURL, "fhe-url", "", "encrypted-inference sidecar URL (overrides SOMNUS_FHE_URL)")
	serveCmd.Flags().BoolVar(&demoFlag, "demo", true, "attribute tokenless requests to the demo identity")
	serveCmd.Flags().BoolVar(&quietFlag, "quiet", false, "disable stderr logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}
