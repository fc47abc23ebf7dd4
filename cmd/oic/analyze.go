package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/oic-ledger/internal/cli"
	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/config"
	"github.com/Veraticus/oic-ledger/internal/engine"
	"github.com/Veraticus/oic-ledger/internal/intake"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [manifest|ofx...]",
		Short: "Analyze a household's documents and calculate the offer",
		Long: `Aggregate already-extracted documents into a household financial picture,
build the collection information statement, and calculate reasonable
collection potential.

Inputs are JSON or YAML manifests of extracted documents and OFX/QFX bank
downloads. Glob patterns are expanded.

Examples:
  # Analyze a case manifest for a married couple
  oic analyze case/manifest.yaml --taxpayer "John Smith" --spouse "Mary Smith"

  # Add bank downloads and keep the run for later review
  oic analyze case/manifest.yaml ~/Downloads/*.qfx --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("taxpayer", "", "taxpayer full name")
	cmd.Flags().String("spouse", "", "spouse full name")
	cmd.Flags().String("state", "", "two-letter state code, overriding documents")
	cmd.Flags().String("standards", "", "standards version (default: latest)")
	cmd.Flags().String("standards-file", "", "additional standards table (YAML)")
	cmd.Flags().String("unresolved", "", "owner of documents without a readable name (taxpayer, exclude)")
	cmd.Flags().Bool("save", false, "save the run to the history database")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().Bool("audit", false, "print the calculation audit trail")

	_ = viper.BindPFlag("household.taxpayer.name", cmd.Flags().Lookup("taxpayer"))
	_ = viper.BindPFlag("household.spouse.name", cmd.Flags().Lookup("spouse"))
	_ = viper.BindPFlag("household.state", cmd.Flags().Lookup("state"))
	_ = viper.BindPFlag("standards.version", cmd.Flags().Lookup("standards"))
	_ = viper.BindPFlag("standards.file", cmd.Flags().Lookup("standards-file"))
	_ = viper.BindPFlag("attribution.unresolved", cmd.Flags().Lookup("unresolved"))

	return cmd
}

// jsonReport is the --json output.
type jsonReport struct {
	ID       string                   `json:"id"`
	Result   model.CalculationResult  `json:"result"`
	Form     model.FinancialForm      `json:"form"`
	Warnings []string                 `json:"warnings"`
	Errors   []string                 `json:"errors"`
	Excluded []model.ExcludedDocument `json:"excluded"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	asJSON, _ := cmd.Flags().GetBool("json")
	showAudit, _ := cmd.Flags().GetBool("audit")

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return common.NewUserError("Invalid configuration (the taxpayer name is required: set household.taxpayer.name or pass --taxpayer)", err)
	}

	registry, err := loadRegistry(cfg.StandardsFile)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg.Engine, registry)
	if err != nil {
		return err
	}

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	docs, err := intake.NewLoader().Load(ctx, paths...)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	progress := cli.NewDocumentProgress(cmd.ErrOrStderr(), len(docs))
	run, err := eng.Run(ctx, docs, progress)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}
	slog.Debug("Documents processed",
		"included", progress.Included,
		"excluded", progress.Excluded,
		"failed", progress.Failed)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jsonReport{
			ID:       run.ID.String(),
			Result:   run.Result,
			Form:     run.Form,
			Warnings: run.Household.Warnings,
			Errors:   run.Household.Errors,
			Excluded: run.Household.Excluded,
		}); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		if err := cli.RenderReport(out, cli.ReportFromRun(run)); err != nil {
			return err
		}
		if showAudit {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
			if err := cli.RenderAudit(out, run.Result.AuditLog); err != nil {
				return err
			}
		}
	}

	if !save {
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	_, err = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Saved run "+run.ID.String()))
	return err
}
