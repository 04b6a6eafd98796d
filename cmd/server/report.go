package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/lot-ledger/internal/adapter/tui"
	"github.com/rl1809/lot-ledger/internal/config"
	"github.com/rl1809/lot-ledger/internal/core/service"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print inventory reports",
	}
	cmd.AddCommand(newInventoryReportCmd(opts))
	cmd.AddCommand(newHistoryReportCmd(opts))
	return cmd
}

func newInventoryReportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "Show every current lot",
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

			svc := service.NewInventoryService(adapter, cfg.Inventory.LowStockThreshold, 1)
			defer svc.Close()

			lots, err := svc.Inventory(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading inventory: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderInventory(lots, svc.Threshold()))
			return nil
		},
	}
}

func newHistoryReportCmd(opts *rootOptions) *cobra.Command {
	var item string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show ledger entries, newest first",
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

			svc := service.NewInventoryService(adapter, cfg.Inventory.LowStockThreshold, 1)
			defer svc.Close()

			entries, err := svc.History(cmd.Context(), item)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&item, "item", "", "only show movements of this item number")
	return cmd
}
