package calculator

import (
	"testing"
	"time"

	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/standards"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCalculator() *Calculator {
	return New(standards.Builtin(), func() time.Time { return fixedNow })
}

// scenarioA is a single New York filer with one W-2, two deposit accounts
// and one financed vehicle.
func scenarioA() model.FinancialForm {
	return model.FinancialForm{
		Personal: model.PersonalInfo{
			TaxpayerName: "John Smith",
			FilingStatus: model.FilingSingle,
			State:        "NY",
		},
		Employment: []model.Employment{{
			Employer:       "Acme Corp",
			Frequency:      model.FrequencyMonthly,
			GrossMonthly:   dec("5000"),
			FederalTax:     dec("500"),
			StateTax:       dec("250"),
			SocialSecurity: dec("310"),
			Medicare:       dec("72.50"),
		}},
		BankAccounts: []model.BankAccount{
			{Institution: "Chase", Kind: model.AccountChecking, Owner: model.OwnerTaxpayer, Balance: dec("1500")},
			{Institution: "Chase", Kind: model.AccountSavings, Owner: model.OwnerTaxpayer, Balance: dec("3000")},
		},
		Vehicles: []model.Vehicle{{Make: "Honda", Model: "Civic", Year: 2019, FairMarketValue: dec("18000"), LoanBalance: dec("8000")}},
	}
}

func TestScenarioA(t *testing.T) {
	res := newCalculator().Calculate(scenarioA())

	assert.True(t, dec("5000").Equal(res.GrossMonthlyIncome))
	assert.True(t, dec("3867.50").Equal(res.NetMonthlyIncome))
	assert.True(t, dec("4500").Equal(res.LiquidAssets))
	assert.True(t, dec("10900").Equal(res.NetRealizableEquity))
	assert.True(t, dec("10000").Equal(res.GrossAssetEquity))

	disposable := res.DisposableIncome
	assert.True(t, dec("5000").Equal(disposable), "no expenses claimed, got %s", disposable)
	want := decimal.Max(disposable.Mul(decimal.NewFromInt(12)).Add(dec("10900")), dec("205"))
	assert.True(t, want.Equal(res.RCPLumpSum), "got %s", res.RCPLumpSum)
	assert.True(t, dec("130900").Equal(res.RCPPeriodic))
	assert.False(t, res.QualifiesForCNC)

	assert.Equal(t, MethodologyVersion, res.MethodologyVersion)
	assert.Equal(t, standards.BuiltinVersion, res.StandardsVersion)
	assert.Equal(t, fixedNow, res.CalculatedAt)
	assert.InDelta(t, 0.63, res.Confidence, 0.001)
}

func TestSixAllowancesAlwaysPresent(t *testing.T) {
	res := newCalculator().Calculate(model.FinancialForm{})

	require.Len(t, res.Allowances, 6)
	for i, category := range model.ExpenseCategories() {
		assert.Equal(t, category, res.Allowances[i].Category)
	}

	steps := make(map[string]int)
	for _, e := range res.AuditLog {
		steps[e.Step]++
		assert.Equal(t, fixedNow, e.Timestamp)
	}
	for _, s := range []string{
		"analysis_start", "total_monthly_income",
		"national_standards_expense", "housing_utilities_expense", "transportation_expense",
		"healthcare_expense", "court_ordered_expense", "other_necessary_expense",
		"total_living_expenses", "monthly_disposable_income", "total_liquid_assets",
		"total_asset_equity", "rcp_lump_sum", "rcp_periodic", "minimum_offer",
		"cnc_analysis", "analysis_complete",
	} {
		assert.Equal(t, 1, steps[s], "step %s", s)
	}
	assert.Equal(t, "analysis_start", res.AuditLog[0].Step)
	assert.Equal(t, "analysis_complete", res.AuditLog[len(res.AuditLog)-1].Step)
}

func TestAllowanceRule(t *testing.T) {
	standard := dec("785")
	tests := []struct {
		name        string
		actual      string
		standard    *decimal.Decimal
		capped      bool
		wantAllowed string
		wantVar     string
	}{
		{"over standard is capped", "1000", &standard, true, "785", "215"},
		{"under standard is allowed", "500", &standard, true, "500", "0"},
		{"uncapped category allows actual", "1000", &standard, false, "1000", "0"},
		{"no standard allows actual", "300", nil, true, "300", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Allowance(model.ExpenseNationalStandards, dec(tt.actual), tt.standard, tt.capped)
			assert.True(t, dec(tt.wantAllowed).Equal(a.Allowed), "allowed %s", a.Allowed)
			assert.True(t, dec(tt.wantVar).Equal(a.Variance), "variance %s", a.Variance)
			if tt.standard == nil {
				assert.Nil(t, a.Standard)
			}
		})
	}
}

func TestExpenseAllowancesAgainstStandards(t *testing.T) {
	f := scenarioA()
	f.Expenses = model.LivingExpenses{
		Food:              dec("900"),
		Rent:              dec("1500"),
		VehiclePayment1:   dec("310"),
		VehicleGas:        dec("150"),
		OutOfPocketHealth: dec("400"),
		ChildSupport:      dec("250"),
		StudentLoan:       dec("200"),
	}
	res := newCalculator().Calculate(f)

	national, ok := res.Allowance(model.ExpenseNationalStandards)
	require.True(t, ok)
	assert.True(t, dec("785").Equal(national.Allowed))
	assert.True(t, dec("115").Equal(national.Variance))

	healthcare, _ := res.Allowance(model.ExpenseHealthcare)
	assert.True(t, dec("400").Equal(healthcare.Allowed), "documented healthcare allowed in full")
	require.NotNil(t, healthcare.Standard)
	assert.True(t, dec("75").Equal(*healthcare.Standard))

	court, _ := res.Allowance(model.ExpenseCourtOrdered)
	assert.Nil(t, court.Standard)
	assert.True(t, dec("250").Equal(court.Allowed))

	for _, a := range res.Allowances {
		if a.Standard != nil && a.Category != model.ExpenseHealthcare {
			assert.True(t, a.Allowed.LessThanOrEqual(*a.Standard), "%s over standard", a.Category)
		}
	}
	assert.True(t, res.DisposableIncome.Equal(res.GrossMonthlyIncome.Sub(res.TotalAllowedExpenses)))
	assert.Contains(t, res.Recommendations,
		"Actual expenses exceed IRS standards by $115.00. Document necessity to request allowance.")
}

func TestRCP(t *testing.T) {
	minimum := dec("205")
	tests := []struct {
		name       string
		disposable string
		equity     string
		months     int64
		want       string
	}{
		{"lump sum", "1000", "500", 12, "12500"},
		{"periodic", "1000", "500", 24, "24500"},
		{"negative income ignored", "-400", "3000", 12, "3000"},
		{"minimum floor", "0", "0", 12, "205"},
		{"tiny equity floored", "0", "50", 24, "205"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RCP(dec(tt.disposable), dec(tt.equity), tt.months, minimum)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRCPMonotonicInIncome(t *testing.T) {
	calc := newCalculator()
	previous := decimal.Zero
	for _, gross := range []string{"0", "1000", "2500", "5000", "9000"} {
		f := scenarioA()
		f.Employment[0].GrossMonthly = dec(gross)
		res := calc.Calculate(f)

		assert.True(t, res.RCPLumpSum.GreaterThanOrEqual(previous), "gross %s", gross)
		assert.True(t, res.RCPLumpSum.GreaterThanOrEqual(dec("205")))
		if res.DisposableIncome.IsPositive() {
			assert.True(t, res.RCPPeriodic.GreaterThanOrEqual(res.RCPLumpSum))
		}
		previous = res.RCPLumpSum
	}
}

func TestCNC(t *testing.T) {
	tests := []struct {
		name       string
		disposable string
		assets     string
		periodic   string
		liability  string
		want       bool
		reason     string
	}{
		{"negative with minimal assets", "-100", "500", "500", "0", true, "Negative disposable income with minimal assets - collection would cause hardship"},
		{"zero with assets", "0", "5000", "5000", "0", true, "Negative disposable income indicates inability to pay"},
		{"rcp below ten percent", "10", "0", "240", "50000", true, "RCP ($240.00) is less than 10% of total liability ($50,000.00)"},
		{"collectible", "500", "1000", "13000", "50000", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := CNC(dec(tt.disposable), dec(tt.assets), dec(tt.periodic), dec(tt.liability))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestNegativeDisposableIncome(t *testing.T) {
	f := model.FinancialForm{
		Personal:   model.PersonalInfo{TaxpayerName: "John Smith", State: "NY"},
		Employment: []model.Employment{{Employer: "Acme", GrossMonthly: dec("1000")}},
		Expenses:   model.LivingExpenses{Rent: dec("1500"), Childcare: dec("400")},
		TaxPeriods: []model.TaxPeriod{{Year: 2022, Balance: dec("20000")}},
	}
	res := newCalculator().Calculate(f)

	assert.True(t, res.DisposableIncome.IsNegative())
	assert.True(t, res.QualifiesForCNC)
	assert.Contains(t, res.Warnings,
		"Negative monthly disposable income. Consider Currently Not Collectible (CNC) status or hardship OIC.")
	assert.Contains(t, res.Recommendations,
		"Consider requesting Currently Not Collectible status: Negative disposable income with minimal assets - collection would cause hardship")
	assert.Contains(t, res.Recommendations,
		"Lump sum offer may be significantly below total liability - strong OIC candidate.")
	assert.True(t, dec("205").Equal(res.MinimumOfferLumpSum))
	assert.True(t, dec("20000").Equal(res.TotalLiability), "got %s", res.TotalLiability)
}

func TestDegenerateForm(t *testing.T) {
	res := newCalculator().Calculate(model.FinancialForm{})

	assert.True(t, res.GrossMonthlyIncome.IsZero())
	assert.True(t, dec("205").Equal(res.RCPLumpSum))
	assert.True(t, res.TotalLiability.IsZero())
	assert.True(t, res.QualifiesForCNC)
	assert.Contains(t, res.Warnings, "Zero gross income reported. Documentation required (unemployment, disability, etc.)")
	assert.InDelta(t, 0.5, res.Confidence, 0.001)
}

func TestRetirementExcludedFromLiquidAssets(t *testing.T) {
	f := scenarioA()
	f.BankAccounts = append(f.BankAccounts, model.BankAccount{
		Institution: "Fidelity", Kind: model.AccountRetirement, Balance: dec("80000"),
	})
	res := newCalculator().Calculate(f)
	assert.True(t, dec("4500").Equal(res.LiquidAssets))
}

func TestDeterministic(t *testing.T) {
	calc := newCalculator()
	assert.Equal(t, calc.Calculate(scenarioA()), calc.Calculate(scenarioA()))
}
