// Package main provides the entry point for the bias_agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bias_agent",
	Short: "Bias detection and diversity scoring for job descriptions",
	Long: "bias_agent scans text for biased or exclusionary phrasing using a rule catalog, " +
		"scores it per category, and rewrites accepted findings with inclusive alternatives.",
	SilenceUsage: true,
}

var (
	rootConfigFile  string
	rootCatalogFile string
	rootVerbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfigFile, "config", "c", "", "Path to JSON config file")
	rootCmd.PersistentFlags().StringVar(&rootCatalogFile, "catalog", "", "Path to rule catalog (.json, .yaml); overrides config and BIAS_CATALOG")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed output")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
