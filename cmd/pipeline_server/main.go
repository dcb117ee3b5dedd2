// Package main provides the entry point for the recruit pipeline HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pipeline_server",
	Short: "Recruit Pipeline HTTP API Server",
	Long:  "Recruit Pipeline tracks candidates through screening stages, schedules interviews without double-booking, and keeps an auditable activity log, exposed via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
