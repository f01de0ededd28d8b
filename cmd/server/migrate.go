package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"snapmeta/internal/app"
	"snapmeta/internal/config"
	"snapmeta/internal/repository"
)

var errNothingToMigrate = errors.New("source store holds no pending event")

var migrateCmd = &cobra.Command{
	Use:   "migrate --from <backend> --to <backend>",
	Short: "Copy the pending image and metadata slots between store backends",
	Long: `Copies the image and metadata slots from one backend to another, for
example after switching STORE_BACKEND from sqlite to badger. Both backends
live under STORE_PATH.

Example: snapmeta migrate --from sqlite --to badger`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		return runMigrate(cmd.Context(), loadConfig(), from, to, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("from", config.StoreSQLite, "source backend")
	migrateCmd.Flags().String("to", config.StoreBadger, "destination backend")
}

func runMigrate(ctx context.Context, cfg *config.Config, from, to string, w io.Writer) (err error) {
	if from == to {
		return fmt.Errorf("source and destination are both %q", from)
	}
	if from == config.StoreMemory || to == config.StoreMemory {
		return fmt.Errorf("the memory backend does not persist between runs")
	}

	src, err := openBackend(cfg, from)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, src.Close()) }()

	dst, err := openBackend(cfg, to)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dst.Close()) }()

	var slots []repository.Slot
	for _, key := range []string{cfg.ImageSlotKey, cfg.MetadataSlotKey} {
		value, ok, err := src.Read(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to read %s from %s: %w", key, from, err)
		}
		if !ok {
			continue
		}
		slots = append(slots, repository.Slot{Key: key, Value: value})
	}
	if len(slots) == 0 || slots[0].Key != cfg.ImageSlotKey {
		return errNothingToMigrate
	}

	if err := dst.WriteBatch(ctx, slots); err != nil {
		return fmt.Errorf("failed to write to %s: %w", to, err)
	}
	fmt.Fprintf(w, "Migrated %d slot(s) from %s to %s\n", len(slots), from, to)
	return nil
}

func openBackend(cfg *config.Config, backend string) (repository.SlotRepository, error) {
	c := *cfg
	c.StoreBackend = backend
	return app.OpenStore(&c)
}
