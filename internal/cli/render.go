package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/oic-ledger/internal/engine"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/standards"
	"github.com/Veraticus/oic-ledger/internal/storage"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04"

var categoryLabels = map[model.ExpenseCategory]string{
	model.ExpenseNationalStandards: "Food, clothing & misc",
	model.ExpenseHousingUtilities:  "Housing & utilities",
	model.ExpenseTransportation:    "Transportation",
	model.ExpenseHealthcare:        "Health care",
	model.ExpenseCourtOrdered:      "Court-ordered payments",
	model.ExpenseOtherNecessary:    "Other necessary",
}

// Report is everything shown for one analysis, live or saved.
type Report struct {
	Result       model.CalculationResult
	ID           string
	TaxpayerName string
	SpouseName   string
	State        string
	Warnings     []string
	Errors       []string
	Excluded     []model.ExcludedDocument
	Documents    int
}

// ReportFromRun builds a Report for a finished run.
func ReportFromRun(run *engine.Run) Report {
	r := Report{
		ID:        run.ID.String(),
		Result:    run.Result,
		Documents: len(run.Documents),
	}
	if h := run.Household; h != nil {
		r.State = h.State
		r.Warnings = h.Warnings
		r.Errors = h.Errors
		r.Excluded = h.Excluded
		if h.Taxpayer != nil {
			r.TaxpayerName = h.Taxpayer.Name
		}
		if h.Spouse != nil {
			r.SpouseName = h.Spouse.Name
		}
	}
	return r
}

// ReportFromStored builds a Report for a saved run.
func ReportFromStored(run *storage.StoredRun) Report {
	return Report{
		ID:           run.ID.String(),
		Result:       run.Result,
		TaxpayerName: run.TaxpayerName,
		SpouseName:   run.SpouseName,
		State:        run.State,
		Warnings:     run.Warnings,
		Errors:       run.Errors,
		Excluded:     run.Excluded,
		Documents:    len(run.Documents),
	}
}

func usd(d decimal.Decimal) string {
	return model.FormatUSD(d)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func lines(rows [][2]string) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("%-*s  %s", width, r[0], r[1]))
	}
	return strings.Join(out, "\n")
}

// RenderReport writes the analysis summary.
func RenderReport(w io.Writer, r Report) error {
	res := r.Result

	names := r.TaxpayerName
	if r.SpouseName != "" {
		names += " & " + r.SpouseName
	}
	header := FormatTitle(fmt.Sprintf("OIC Analysis: %s (%s)", names, orDash(r.State)))
	meta := SubtleStyle.Render(fmt.Sprintf("Run %s · standards %s · %d documents, %d excluded",
		r.ID, res.StandardsVersion, r.Documents, len(r.Excluded)))

	income := RenderBox("Income & Expenses", lines([][2]string{
		{"Gross monthly income", usd(res.GrossMonthlyIncome)},
		{"Net monthly income", usd(res.NetMonthlyIncome)},
		{"Actual expenses", usd(res.TotalActualExpenses)},
		{"Allowed expenses", usd(res.TotalAllowedExpenses)},
		{"Disposable income", usd(res.DisposableIncome)},
	}))

	assets := RenderBox("Assets & Liability", lines([][2]string{
		{"Liquid assets", usd(res.LiquidAssets)},
		{"Asset equity", usd(res.GrossAssetEquity)},
		{"Net realizable equity", usd(res.NetRealizableEquity)},
		{"Total liability", usd(res.TotalLiability)},
	}))

	cnc := "no"
	if res.QualifiesForCNC {
		cnc = WarningStyle.Render("yes")
	}
	offer := RenderBox("Offer", lines([][2]string{
		{"RCP lump sum", AmountStyle.Render(usd(res.RCPLumpSum))},
		{"RCP periodic", AmountStyle.Render(usd(res.RCPPeriodic))},
		{"Minimum offer (lump)", usd(res.MinimumOfferLumpSum)},
		{"Minimum offer (periodic)", usd(res.MinimumOfferPeriodic)},
		{"Currently not collectible", cnc},
		{"Confidence", fmt.Sprintf("%.0f%%", res.Confidence*100)},
	}))

	if _, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left,
		header, meta, "",
		lipgloss.JoinHorizontal(lipgloss.Top, income, " ", assets),
		offer,
	)); err != nil {
		return err
	}

	if res.QualifiesForCNC && res.CNCReason != "" {
		if _, err := fmt.Fprintln(w, InfoStyle.Render("CNC: "+res.CNCReason)); err != nil {
			return err
		}
	}

	if err := renderAllowances(w, res.Allowances); err != nil {
		return err
	}

	sections := []struct {
		title  string
		items  []string
		format func(string) string
	}{
		{"Errors", r.Errors, FormatError},
		{"Warnings", append(append([]string{}, r.Warnings...), res.Warnings...), FormatWarning},
		{"Recommendations", res.Recommendations, FormatInfo},
		{"Excluded documents", excludedLines(r.Excluded), func(s string) string { return SubtleStyle.Render("  " + s) }},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, "\n"+BoldStyle.Render(s.title)); err != nil {
			return err
		}
		for _, item := range s.items {
			if _, err := fmt.Fprintln(w, s.format(item)); err != nil {
				return err
			}
		}
	}
	return nil
}

func excludedLines(excluded []model.ExcludedDocument) []string {
	out := make([]string, 0, len(excluded))
	for _, x := range excluded {
		out = append(out, fmt.Sprintf("%s (%s): %s", x.File, orDash(x.OwnerName), x.Reason))
	}
	return out
}

func renderAllowances(w io.Writer, allowances []model.ExpenseAllowance) error {
	if _, err := fmt.Fprintln(w, "\n"+BoldStyle.Render("Expense allowances")); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Actual"),
		HeaderStyle.Render("Standard"),
		HeaderStyle.Render("Allowed"),
		HeaderStyle.Render("Variance")); err != nil {
		return err
	}
	for _, a := range allowances {
		standard := "-"
		if a.Standard != nil {
			standard = usd(*a.Standard)
		}
		variance := usd(a.Variance)
		if a.Variance.IsPositive() {
			variance = WarningStyle.Render(variance)
		}
		label, ok := categoryLabels[a.Category]
		if !ok {
			label = string(a.Category)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			label, usd(a.Actual), standard, usd(a.Allowed), variance); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderRuns writes the saved run history.
func RenderRuns(w io.Writer, runs []storage.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No saved runs. Use 'oic analyze --save' to keep one."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Started"),
		HeaderStyle.Render("Taxpayer"),
		HeaderStyle.Render("State"),
		HeaderStyle.Render("Docs"),
		HeaderStyle.Render("RCP lump"),
		HeaderStyle.Render("CNC")); err != nil {
		return err
	}
	for _, r := range runs {
		cnc := ""
		if r.QualifiesForCNC {
			cnc = "yes"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID.String()[:8], r.StartedAt.Local().Format(timeLayout), r.TaxpayerName,
			orDash(r.State), r.Documents, usd(r.RCPLumpSum), cnc); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderProvenance writes where each household value came from.
func RenderProvenance(w io.Writer, entries []model.ProvenanceEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No provenance recorded for that field."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Field"),
		HeaderStyle.Render("Value"),
		HeaderStyle.Render("Source"),
		HeaderStyle.Render("Method"),
		HeaderStyle.Render("Confidence"),
		HeaderStyle.Render("Raw")); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
			e.FieldPath, e.Value, e.SourceFile, e.Method, e.Confidence, SubtleStyle.Render(e.RawText)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderAudit writes the calculation audit trail.
func RenderAudit(w io.Writer, entries []model.AuditEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("Step"),
		HeaderStyle.Render("Line"),
		HeaderStyle.Render("Output"),
		HeaderStyle.Render("Input")); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Step, orDash(e.FormLine), e.Output, SubtleStyle.Render(e.Input)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderStandards writes the allowable amounts for one household shape.
func RenderStandards(w io.Writer, a standards.Allowable, offer standards.MinimumOffer) error {
	housing := usd(a.Housing.Amount)
	if a.Housing.StateDefault {
		housing += SubtleStyle.Render(" (default, state not listed)")
	}
	transit := "-"
	if a.Transportation.PublicTransit.IsPositive() {
		transit = usd(a.Transportation.PublicTransit)
	}

	body := lines([][2]string{
		{"National standards", fmt.Sprintf("%s (family of %d)", usd(a.National.Amount), a.National.FamilySize)},
		{"Housing & utilities", fmt.Sprintf("%s (%s)", housing, orDash(a.Housing.State))},
		{"Vehicle ownership", usd(a.Transportation.Ownership)},
		{"Vehicle operating", fmt.Sprintf("%s (%s)", usd(a.Transportation.Operating), a.Transportation.Region)},
		{"Public transit", transit},
		{"Health care", usd(a.Healthcare.Amount)},
		{"Total allowable", AmountStyle.Render(usd(a.Total))},
		{"Minimum offer", usd(offer.Amount)},
		{"Application fee", usd(offer.ApplicationFee)},
	})

	_, err := fmt.Fprintln(w, RenderBox("IRS Collection Financial Standards "+a.Version, body))
	return err
}
