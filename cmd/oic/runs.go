package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/oic-ledger/internal/cli"
	"github.com/Veraticus/oic-ledger/internal/storage"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and inspect saved analysis runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsList,
	}
	cmd.Flags().Int("limit", 20, "maximum runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}
	show.Flags().Bool("audit", false, "print the calculation audit trail")

	del := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsDelete,
	}

	cmd.AddCommand(show, del)
	return cmd
}

func withStorage(cmd *cobra.Command, fn func(*storage.SQLiteStorage) error) error {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()
	return fn(store)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return withStorage(cmd, func(store *storage.SQLiteStorage) error {
		runs, err := store.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return cli.RenderRuns(cmd.OutOrStdout(), runs)
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	showAudit, _ := cmd.Flags().GetBool("audit")
	return withStorage(cmd, func(store *storage.SQLiteStorage) error {
		ctx := cmd.Context()
		id, err := store.ResolveRunID(ctx, args[0])
		if err != nil {
			return err
		}
		run, err := store.GetRun(ctx, id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := cli.RenderReport(out, cli.ReportFromStored(run)); err != nil {
			return err
		}
		if !showAudit {
			return nil
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
		return cli.RenderAudit(out, run.Result.AuditLog)
	})
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	return withStorage(cmd, func(store *storage.SQLiteStorage) error {
		ctx := cmd.Context()
		id, err := store.ResolveRunID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := store.DeleteRun(ctx, id); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+id.String()))
		return err
	})
}
