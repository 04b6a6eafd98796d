package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rl1809/lot-ledger/internal/adapter/storage"
	"github.com/rl1809/lot-ledger/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lot-ledger",
		Short:         "Lot-level inventory ledger",
		Long:          "lot-ledger tracks stock by item and lot and keeps an append-only history of every movement.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "inventory.yaml", "path to the YAML config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show lot-ledger version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "lot-ledger %s (%s)\n", version, commit)
			return nil
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the inventory and history tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			adapter, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer adapter.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", adapter.Driver())
			return nil
		},
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore connects to the configured database and applies the schema.
func openStore(ctx context.Context, cfg config.Config) (*storage.SQLAdapter, error) {
	adapter, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := adapter.Migrate(ctx); err != nil {
		adapter.Close()
		return nil, err
	}
	return adapter, nil
}
