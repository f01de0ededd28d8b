package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"snapmeta/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP host with upload, capture and viewer endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if backend, _ := cmd.Flags().GetString("store"); backend != "" {
			cfg.StoreBackend = backend
		}

		application, err := app.NewApp(cfg, app.Options{})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return application.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("store", "", "store backend override: memory, sqlite or badger")
}
