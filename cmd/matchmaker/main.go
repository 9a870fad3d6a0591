// Package main provides the entry point for the strategic matchmaker API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "matchmaker",
	Short: "Strategic matchmaking for conference attendees",
	Long: `Matchmaker ranks the other attendees of a conference by how valuable a meeting with them would be,
combining rule-based scores with model-written rationale, and serves the results over a REST API.

Configuration is read from defaults, an optional YAML or JSON file (--config) and MATCHMAKER_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Verbose/debug logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "JSON log encoding")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
