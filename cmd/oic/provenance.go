package main

import (
	"github.com/Veraticus/oic-ledger/internal/cli"
	"github.com/Veraticus/oic-ledger/internal/storage"
	"github.com/spf13/cobra"
)

func provenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provenance <run-id> [field]",
		Short: "Show where the values of a saved run came from",
		Long: `List the provenance entries recorded for a saved run. A field such as
"utilities" matches every path beneath it, e.g. utilities.electric.

Examples:
  oic provenance 3f2a9c1e
  oic provenance 3f2a9c1e taxpayer.w2`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := ""
			if len(args) == 2 {
				field = args[1]
			}
			return withStorage(cmd, func(store *storage.SQLiteStorage) error {
				ctx := cmd.Context()
				id, err := store.ResolveRunID(ctx, args[0])
				if err != nil {
					return err
				}
				entries, err := store.Provenance(ctx, id, field)
				if err != nil {
					return err
				}
				return cli.RenderProvenance(cmd.OutOrStdout(), entries)
			})
		},
	}
}
