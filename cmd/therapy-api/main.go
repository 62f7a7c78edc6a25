package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title AAC Therapy API
// @version 1.0.0
// @description Therapy goal tracking, session logging, progress reports and therapist collaboration.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rootCmd := &cobra.Command{
		Use:          "therapy-api",
		Short:        "AAC therapy progress API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
