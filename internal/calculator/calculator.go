// Package calculator computes disposable income, reasonable collection
// potential and minimum offers from a financial statement.
package calculator

import (
	"fmt"
	"math"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/standards"
	"github.com/shopspring/decimal"
)

// MethodologyVersion identifies the calculation rules in results.
const MethodologyVersion = "oic-ledger-1.0"

const (
	lumpSumMonths  = 12
	periodicMonths = 24
)

var (
	minimalAssets     = decimal.NewFromInt(1000)
	cncLiabilityShare = decimal.RequireFromString("0.1")
	strongOfferShare  = decimal.RequireFromString("0.5")
)

// Calculator evaluates financial statements against one standards table.
// It holds no per-calculation state and may be shared.
type Calculator struct {
	table *standards.Table
	clock func() time.Time
}

// New creates a calculator. A nil clock uses time.Now.
func New(table *standards.Table, clock func() time.Time) *Calculator {
	if table == nil {
		table = standards.Builtin()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Calculator{table: table, clock: clock}
}

// Table returns the standards table in use.
func (c *Calculator) Table() *standards.Table {
	return c.table
}

// run accumulates the audit trail for one calculation.
type run struct {
	calc            *Calculator
	result          *model.CalculationResult
	warnings        []string
	recommendations []string
	audit           []model.AuditEntry
}

func (r *run) step(entry model.AuditEntry) {
	entry.Timestamp = r.calc.clock()
	r.audit = append(r.audit, entry)
	common.LogDebug("Calculation step", common.Fields{
		"step":   entry.Step,
		"input":  entry.Input,
		"output": entry.Output,
	})
}

// Calculate runs the full analysis. It never fails: missing data yields
// zero totals and warnings.
func (c *Calculator) Calculate(f model.FinancialForm) model.CalculationResult {
	result := model.CalculationResult{
		CalculatedAt:       c.clock(),
		MethodologyVersion: MethodologyVersion,
		StandardsVersion:   c.table.Version,
	}
	r := &run{calc: c, result: &result}

	r.step(model.AuditEntry{
		Step:     "analysis_start",
		Input:    "Financial statement for " + f.Personal.TaxpayerName,
		Output:   fmt.Sprintf("state=%s, family_size=%d", f.Personal.State, f.Personal.FamilySize()),
		Citation: "Taxpayer input",
	})

	gross, net := r.income(f)
	result.GrossMonthlyIncome = gross
	result.NetMonthlyIncome = net
	if gross.IsZero() {
		r.warnings = append(r.warnings,
			"Zero gross income reported. Documentation required (unemployment, disability, etc.)")
	}

	actual, allowed := r.expenses(f)
	result.TotalActualExpenses = actual
	result.TotalAllowedExpenses = allowed

	disposable := gross.Sub(allowed)
	result.DisposableIncome = disposable
	r.step(model.AuditEntry{
		Step:     "monthly_disposable_income",
		Input:    fmt.Sprintf("gross_income=%s - allowed_expenses=%s", usd(gross), usd(allowed)),
		Output:   "disposable=" + usd(disposable),
		Citation: "IRS Form 656 calculation",
		FormLine: "Line 62",
	})
	if disposable.IsNegative() {
		r.warnings = append(r.warnings,
			"Negative monthly disposable income. Consider Currently Not Collectible (CNC) status or hardship OIC.")
		r.recommendations = append(r.recommendations,
			"Document all expenses exceeding IRS standards with receipts and necessity statements.")
	}

	r.assets(f)
	r.collectionPotential(f)

	if result.RCPLumpSum.LessThan(result.TotalLiability.Mul(strongOfferShare)) {
		r.recommendations = append(r.recommendations,
			"Lump sum offer may be significantly below total liability - strong OIC candidate.")
	}
	if actual.GreaterThan(allowed) {
		r.recommendations = append(r.recommendations, fmt.Sprintf(
			"Actual expenses exceed IRS standards by %s. Document necessity to request allowance.",
			usd(actual.Sub(allowed))))
	}

	result.Confidence = confidence(f)
	r.step(model.AuditEntry{
		Step:     "analysis_complete",
		Input:    "Financial statement analysis",
		Output:   fmt.Sprintf("RCP_lump=%s, RCP_periodic=%s, CNC=%t", usd(result.RCPLumpSum), usd(result.RCPPeriodic), result.QualifiesForCNC),
		Citation: "Calculator " + MethodologyVersion,
	})

	result.Warnings = nonNil(r.warnings)
	result.Recommendations = nonNil(r.recommendations)
	result.AuditLog = r.audit

	common.LogInfo("Calculation complete", common.Fields{
		"disposable":  disposable.StringFixed(2),
		"rcp_lump":    result.RCPLumpSum.StringFixed(2),
		"qualify_cnc": result.QualifiesForCNC,
		"standards":   c.table.Version,
	})
	return result
}

func (r *run) income(f model.FinancialForm) (decimal.Decimal, decimal.Decimal) {
	gross, net := decimal.Zero, decimal.Zero

	employment := func(prefix, citation, line string, records []model.Employment) {
		for i, e := range records {
			gross = gross.Add(e.GrossMonthly)
			net = net.Add(e.NetMonthly())
			r.step(model.AuditEntry{
				Step:     fmt.Sprintf("%s_%d_income", prefix, i+1),
				Input:    fmt.Sprintf("%s: gross=%s/%s", e.Employer, usd(e.GrossMonthly), e.Frequency),
				Output:   fmt.Sprintf("monthly_gross=%s, monthly_net=%s", usd(e.GrossMonthly), usd(e.NetMonthly())),
				Citation: citation,
				FormLine: line,
			})
		}
	}
	other := func(prefix, citation, line string, sources []model.IncomeSource) {
		for i, s := range sources {
			m := s.Monthly()
			gross = gross.Add(m)
			net = net.Add(m)
			r.step(model.AuditEntry{
				Step:     fmt.Sprintf("%s_%d", prefix, i+1),
				Input:    fmt.Sprintf("%s: %s/%s", s.Description, usd(s.Amount), s.Frequency),
				Output:   fmt.Sprintf("monthly_gross=%s, monthly_net=%s", usd(m), usd(m)),
				Citation: citation,
				FormLine: line,
			})
		}
	}

	employment("employment", "Form 433-A Section 2", "Line 10-14", f.Employment)
	employment("spouse_employment", "Form 433-A Section 2 (Spouse)", "Line 15-19", f.SpouseEmployment)
	other("other_income", "Form 433-A Section 3", "Line 20-27", f.OtherIncome)
	other("spouse_other_income", "Form 433-A Section 3 (Spouse)", "", f.SpouseOtherIncome)

	r.step(model.AuditEntry{
		Step: "total_monthly_income",
		Input: fmt.Sprintf("%d employment + %d other sources",
			len(f.Employment)+len(f.SpouseEmployment), len(f.OtherIncome)+len(f.SpouseOtherIncome)),
		Output:   fmt.Sprintf("gross=%s, net=%s", usd(gross), usd(net)),
		Citation: "Calculated",
		FormLine: "Line 28",
	})
	return gross, net
}

func (r *run) assets(f model.FinancialForm) {
	res := r.result
	liquid, gross, realizable := decimal.Zero, decimal.Zero, decimal.Zero

	for i, a := range f.BankAccounts {
		entry := model.AuditEntry{
			Step:     fmt.Sprintf("bank_account_%d", i+1),
			Input:    fmt.Sprintf("%s %s", a.Institution, a.Kind),
			Output:   "balance=" + usd(a.Balance),
			Citation: "Form 433-A Section 4",
			FormLine: "Line 42-45",
		}
		if a.Kind == model.AccountRetirement {
			entry.Notes = "Retirement account excluded from liquid assets"
		} else {
			liquid = liquid.Add(a.Balance)
		}
		r.step(entry)
	}
	r.step(model.AuditEntry{
		Step:     "total_liquid_assets",
		Input:    fmt.Sprintf("%d accounts", len(f.BankAccounts)),
		Output:   "liquid=" + usd(liquid),
		Citation: "Calculated",
		Notes:    "Excludes retirement accounts",
	})

	for i, p := range f.RealProperty {
		nre := p.NetRealizableEquity()
		gross = gross.Add(p.FairMarketValue.Sub(p.MortgageBalance).Sub(p.OtherLiens))
		realizable = realizable.Add(nre)
		r.step(model.AuditEntry{
			Step:     fmt.Sprintf("real_property_%d", i+1),
			Input:    fmt.Sprintf("FMV=%s, mortgage=%s, liens=%s", usd(p.FairMarketValue), usd(p.MortgageBalance), usd(p.OtherLiens)),
			Output:   fmt.Sprintf("QSV=%s, net_equity=%s", usd(model.QuickSaleValue(p.FairMarketValue)), usd(nre)),
			Citation: "IRS quick sale value (80% of FMV)",
			Notes:    p.Description,
			FormLine: "Line 46-51",
		})
	}
	for i, v := range f.Vehicles {
		nre := v.NetRealizableEquity()
		gross = gross.Add(v.FairMarketValue.Sub(v.LoanBalance))
		realizable = realizable.Add(nre)
		r.step(model.AuditEntry{
			Step:     fmt.Sprintf("vehicle_%d", i+1),
			Input:    fmt.Sprintf("FMV=%s, loan=%s", usd(v.FairMarketValue), usd(v.LoanBalance)),
			Output:   fmt.Sprintf("QSV=%s, net_equity=%s", usd(model.QuickSaleValue(v.FairMarketValue)), usd(nre)),
			Citation: "IRS quick sale value (80% of FMV)",
			Notes:    v.Description(),
			FormLine: "Line 52-55",
		})
	}
	for i, a := range f.OtherAssets {
		nre := a.NetRealizableEquity()
		gross = gross.Add(a.FairMarketValue.Sub(a.LoanBalance))
		realizable = realizable.Add(nre)
		r.step(model.AuditEntry{
			Step:     fmt.Sprintf("other_asset_%d", i+1),
			Input:    "FMV=" + usd(a.FairMarketValue),
			Output:   "net_equity=" + usd(nre),
			Citation: "IRS asset valuation",
			Notes:    a.Description,
			FormLine: "Line 56-60",
		})
	}

	total := liquid.Add(realizable)
	r.step(model.AuditEntry{
		Step:     "total_asset_equity",
		Input:    fmt.Sprintf("liquid=%s, property_equity=%s", usd(liquid), usd(realizable)),
		Output:   "total_net_realizable_equity=" + usd(total),
		Citation: "IRS OIC asset calculation",
		FormLine: "Line 61",
	})

	res.LiquidAssets = liquid
	res.GrossAssetEquity = gross
	res.NetRealizableEquity = total
}

func (r *run) collectionPotential(f model.FinancialForm) {
	res := r.result
	minimum := r.calc.table.MinimumOffer()
	citation := fmt.Sprintf("IRS OIC minimum offer %s", minimum.Version)

	res.RCPLumpSum = RCP(res.DisposableIncome, res.NetRealizableEquity, lumpSumMonths, minimum.Amount)
	res.RCPPeriodic = RCP(res.DisposableIncome, res.NetRealizableEquity, periodicMonths, minimum.Amount)
	r.step(model.AuditEntry{
		Step:     "rcp_lump_sum",
		Input:    fmt.Sprintf("(disposable=%s x 12) + assets=%s", usd(res.DisposableIncome), usd(res.NetRealizableEquity)),
		Output:   "RCP=" + usd(res.RCPLumpSum),
		Citation: "IRS Form 656 lump sum offer",
		Notes:    "Offer paid in 5 months or less",
	})
	r.step(model.AuditEntry{
		Step:     "rcp_periodic",
		Input:    fmt.Sprintf("(disposable=%s x 24) + assets=%s", usd(res.DisposableIncome), usd(res.NetRealizableEquity)),
		Output:   "RCP=" + usd(res.RCPPeriodic),
		Citation: "IRS Form 656 periodic payment offer",
		Notes:    "Offer paid in 6-24 months",
	})

	res.MinimumOfferLumpSum = decimal.Max(res.RCPLumpSum, minimum.Amount)
	res.MinimumOfferPeriodic = decimal.Max(res.RCPPeriodic, minimum.Amount)
	r.step(model.AuditEntry{
		Step:     "minimum_offer",
		Input:    fmt.Sprintf("max(RCP, %s)", usd(minimum.Amount)),
		Output:   fmt.Sprintf("lump=%s, periodic=%s", usd(res.MinimumOfferLumpSum), usd(res.MinimumOfferPeriodic)),
		Citation: citation,
		Notes:    "Application fee " + usd(minimum.ApplicationFee),
	})

	liability := f.TotalLiability()
	res.TotalLiability = liability
	res.QualifiesForCNC, res.CNCReason = CNC(res.DisposableIncome, res.NetRealizableEquity, res.RCPPeriodic, liability)
	output := "qualifies=false"
	if res.QualifiesForCNC {
		output = "qualifies=true"
		r.recommendations = append(r.recommendations,
			"Consider requesting Currently Not Collectible status: "+res.CNCReason)
	}
	r.step(model.AuditEntry{
		Step:     "cnc_analysis",
		Input:    fmt.Sprintf("disposable=%s, assets=%s, liability=%s", usd(res.DisposableIncome), usd(res.NetRealizableEquity), usd(liability)),
		Output:   output,
		Citation: "IRM 5.16.1 Currently Not Collectible",
		Notes:    res.CNCReason,
	})
}

// RCP is reasonable collection potential: non-negative disposable income
// over the given months plus net equity, never below the minimum offer.
func RCP(disposable, equity decimal.Decimal, months int64, minimum decimal.Decimal) decimal.Decimal {
	income := decimal.Max(disposable, decimal.Zero).Mul(decimal.NewFromInt(months))
	return decimal.Max(income.Add(equity), minimum)
}

// CNC decides Currently Not Collectible eligibility and the reason for it.
func CNC(disposable, assets, periodicRCP, liability decimal.Decimal) (bool, string) {
	if !disposable.IsPositive() {
		if assets.LessThan(minimalAssets) {
			return true, "Negative disposable income with minimal assets - collection would cause hardship"
		}
		return true, "Negative disposable income indicates inability to pay"
	}
	if liability.IsPositive() && periodicRCP.LessThan(liability.Mul(cncLiabilityShare)) {
		return true, fmt.Sprintf("RCP (%s) is less than 10%% of total liability (%s)", usd(periodicRCP), usd(liability))
	}
	return false, ""
}

// confidence scores how complete the statement is. With no income, expense,
// asset or liability evidence at all it returns 0.5.
func confidence(f model.FinancialForm) float64 {
	personal, evidence := 0, 0
	const possible = 80

	if f.Personal.TaxpayerName != "" {
		personal += 5
	}
	if f.Personal.State != "" {
		personal += 5
	}

	if len(f.Employment)+len(f.SpouseEmployment)+len(f.OtherIncome)+len(f.SpouseOtherIncome) > 0 {
		evidence += 10
	}
	if totalGross(f).IsPositive() {
		evidence += 10
	}

	if f.Expenses.Total().IsPositive() {
		evidence += 10
	}
	if f.Expenses.HousingTotal().IsPositive() {
		evidence += 5
	}
	if f.Expenses.TransportationTotal().IsPositive() {
		evidence += 5
	}

	if len(f.BankAccounts) > 0 {
		evidence += 10
	}
	if len(f.Vehicles) > 0 || len(f.RealProperty) > 0 {
		evidence += 10
	}

	if len(f.TaxPeriods) > 0 {
		evidence += 10
	}

	if evidence == 0 {
		return 0.5
	}
	return math.Round(float64(personal+evidence)/possible*100) / 100
}

func totalGross(f model.FinancialForm) decimal.Decimal {
	total := decimal.Zero
	for _, e := range append(append([]model.Employment(nil), f.Employment...), f.SpouseEmployment...) {
		total = total.Add(e.GrossMonthly)
	}
	for _, s := range append(append([]model.IncomeSource(nil), f.OtherIncome...), f.SpouseOtherIncome...) {
		total = total.Add(s.Monthly())
	}
	return total
}

func usd(d decimal.Decimal) string {
	return model.FormatUSD(d)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
