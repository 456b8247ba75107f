// Package main provides the entry point for the candidate sourcing CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sourcer",
	Short: "Candidate sourcing pipeline",
	Long:  "Sourcer turns a raw job description into a ranked candidate report: requirement extraction, LinkedIn sourcing, relevance scoring, evidence matching, outreach copy, and an Excel workbook.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
