// Package main provides the entry point for the fantasy-league squad
// harvester CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fpl_harvester",
	Short: "Fantasy-league squad harvester",
	Long:  "fpl_harvester crawls the fantasy football player catalog, persisting one JSON record and photo per player, and verifies the collected corpus.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
