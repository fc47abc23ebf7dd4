// Package engine runs one end-to-end analysis: attribution and aggregation
// of documents, the financial statement, and the offer calculation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/oic-ledger/internal/aggregate"
	"github.com/Veraticus/oic-ledger/internal/calculator"
	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/form"
	"github.com/Veraticus/oic-ledger/internal/identity"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/standards"
	"github.com/google/uuid"
)

// Config holds everything a run needs besides the documents.
type Config struct {
	Clock            func() time.Time
	TaxpayerName     string
	SpouseName       string
	StateOverride    string
	StandardsVersion string
	UnresolvedPolicy identity.Policy
	Profile          model.HouseholdProfile
}

// Validate checks the configuration before any document is read.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TaxpayerName) == "" {
		return fmt.Errorf("%w: taxpayer name is required", common.ErrMissingConfig)
	}
	if _, err := identity.ParsePolicy(string(c.UnresolvedPolicy)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if s := strings.TrimSpace(c.StateOverride); s != "" && len(s) != 2 {
		return fmt.Errorf("%w: state override %q is not a two-letter code", common.ErrInvalidConfig, s)
	}
	return nil
}

// Progress observes documents as they are processed.
type Progress interface {
	Processed(index, total int, doc model.RawDocument, outcome aggregate.Outcome)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(index, total int, doc model.RawDocument, outcome aggregate.Outcome)

// Processed calls f.
func (f ProgressFunc) Processed(index, total int, doc model.RawDocument, outcome aggregate.Outcome) {
	f(index, total, doc, outcome)
}

// DocumentOutcome summarizes what happened to one input document.
type DocumentOutcome struct {
	Err   error
	File  string
	Type  model.DocumentType
	Owner model.Owner
}

// Run is the complete, immutable result of one analysis.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Household  *model.Household
	Result     model.CalculationResult
	Documents  []DocumentOutcome
	Form       model.FinancialForm
	ID         uuid.UUID
}

// Engine wires the pipeline stages together.
type Engine struct {
	table  *standards.Table
	config Config
	clock  func() time.Time
}

// New validates cfg and resolves the standards table from registry.
func New(cfg Config, registry *standards.Registry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = standards.NewRegistry()
	}
	table, err := registry.Lookup(cfg.StandardsVersion)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{table: table, config: cfg, clock: clock}, nil
}

// Standards returns the table used for calculations.
func (e *Engine) Standards() *standards.Table {
	return e.table
}

// Run processes docs in order. Per-document problems are recorded on the
// household; only cancellation or an empty input stops a run.
func (e *Engine) Run(ctx context.Context, docs []model.RawDocument, progress Progress) (*Run, error) {
	if len(docs) == 0 {
		return nil, common.ErrNoDocuments
	}

	run := &Run{ID: uuid.New(), StartedAt: e.clock()}
	slog.Info("Starting analysis", "run_id", run.ID, "documents", len(docs), "standards", e.table.Version)

	policy, _ := identity.ParsePolicy(string(e.config.UnresolvedPolicy))
	agg := aggregate.New(aggregate.Options{
		Clock:         e.clock,
		TaxpayerName:  e.config.TaxpayerName,
		SpouseName:    e.config.SpouseName,
		StateOverride: e.config.StateOverride,
		Policy:        policy,
		Profile:       e.config.Profile,
	})

	run.Documents = make([]DocumentOutcome, 0, len(docs))
	for i, doc := range docs {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("analysis interrupted after %d of %d documents: %w", i, len(docs), ctx.Err())
		default:
		}

		out := agg.Add(doc)
		run.Documents = append(run.Documents, DocumentOutcome{
			File:  doc.FileID,
			Type:  doc.Type,
			Owner: out.Attribution.Owner,
			Err:   out.Err,
		})
		if progress != nil {
			progress.Processed(i+1, len(docs), doc, out)
		}
	}

	run.Household = agg.Finalize()
	run.Form = form.Build(run.Household)
	run.Result = calculator.New(e.table, e.clock).Calculate(run.Form)
	run.FinishedAt = e.clock()

	slog.Info("Analysis complete",
		"run_id", run.ID,
		"warnings", len(run.Household.Warnings),
		"errors", len(run.Household.Errors),
		"rcp_lump", run.Result.RCPLumpSum.StringFixed(2))
	return run, nil
}

// Failed returns the documents that could not be processed.
func (r *Run) Failed() []DocumentOutcome {
	var failed []DocumentOutcome
	for _, d := range r.Documents {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}
