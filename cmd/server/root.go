package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"snapmeta/internal/config"
)

var envFiles []string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snapmeta",
	Short: "Capture or upload an image, show it in grayscale with its metadata",
	Long: strings.TrimSpace(`
snapmeta normalizes a camera frame or an uploaded file into image bytes,
extracts the embedded EXIF tags (or records where the image came from),
applies a grayscale transform and serves the result to a local viewer.
	`),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the --env files, then the environment.
func loadConfig() *config.Config {
	return config.Load(envFiles...)
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "dotenv files to load (default .env)")
}
