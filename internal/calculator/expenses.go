package calculator

import (
	"fmt"

	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// expenseRule describes how one category is compared with its standard.
// A nil standard means the actual amount is allowed in full.
type expenseRule struct {
	category model.ExpenseCategory
	step     string
	line     string
	citation string
	actual   func(model.LivingExpenses) decimal.Decimal
	standard *decimal.Decimal
	capped   bool
	notes    string
}

// expenses compares every category and always emits six allowances.
func (r *run) expenses(f model.FinancialForm) (decimal.Decimal, decimal.Decimal) {
	p := f.Personal
	size := p.FamilySize()
	under65, over65 := p.AgeCounts()
	std := r.calc.table.All(p.State, size, under65, over65, len(f.Vehicles), f.UsesPublicTransit)

	national := std.National.Amount
	housing := std.Housing.Amount
	transport := std.Transportation.Total
	healthcare := std.Healthcare.Amount

	housingNote := fmt.Sprintf("Local standard for %s, family of %d", p.State, size)
	if std.Housing.StateDefault {
		housingNote = fmt.Sprintf("Default local standard (state %q not listed), family of %d", p.State, size)
	}

	rules := []expenseRule{
		{
			category: model.ExpenseNationalStandards,
			step:     "national_standards_expense",
			line:     "Line 29",
			citation: "IRS National Standards " + std.Version,
			actual:   model.LivingExpenses.NationalStandardsTotal,
			standard: &national,
			capped:   true,
			notes:    fmt.Sprintf("National standard for family of %d", size),
		},
		{
			category: model.ExpenseHousingUtilities,
			step:     "housing_utilities_expense",
			line:     "Line 30-32",
			citation: "IRS Local Standards (Housing) " + std.Version,
			actual:   model.LivingExpenses.HousingTotal,
			standard: &housing,
			capped:   true,
			notes:    housingNote,
		},
		{
			category: model.ExpenseTransportation,
			step:     "transportation_expense",
			line:     "Line 33-34",
			citation: "IRS Local Standards (Transportation) " + std.Version,
			actual:   model.LivingExpenses.TransportationTotal,
			standard: &transport,
			capped:   true,
			notes: fmt.Sprintf("%d vehicle(s), ownership=%s, operating=%s, public transit=%s",
				std.Transportation.Vehicles, usd(std.Transportation.Ownership),
				usd(std.Transportation.Operating), usd(std.Transportation.PublicTransit)),
		},
		{
			category: model.ExpenseHealthcare,
			step:     "healthcare_expense",
			line:     "Line 35",
			citation: "IRS Out-of-Pocket Health Care Standards " + std.Version,
			actual:   model.LivingExpenses.HealthcareTotal,
			standard: &healthcare,
			notes: fmt.Sprintf("Standard %s (%d under 65, %d 65+). Documented expenses allowed.",
				usd(healthcare), under65, over65),
		},
		{
			category: model.ExpenseCourtOrdered,
			step:     "court_ordered_expense",
			line:     "Line 36",
			citation: "Court order documentation",
			actual:   model.LivingExpenses.CourtOrderedTotal,
			notes:    "Court-ordered payments allowed in full",
		},
		{
			category: model.ExpenseOtherNecessary,
			step:     "other_necessary_expense",
			line:     "Line 37-40",
			citation: "Documentation required",
			actual:   model.LivingExpenses.OtherNecessaryTotal,
			notes:    "Childcare, life insurance, current taxes, student loans, professional dues",
		},
	}

	actualTotal, allowedTotal := decimal.Zero, decimal.Zero
	allowances := make([]model.ExpenseAllowance, 0, len(rules))
	for _, rule := range rules {
		a := Allowance(rule.category, rule.actual(f.Expenses), rule.standard, rule.capped)
		a.Notes = rule.notes
		allowances = append(allowances, a)
		actualTotal = actualTotal.Add(a.Actual)
		allowedTotal = allowedTotal.Add(a.Allowed)

		input := "actual=" + usd(a.Actual)
		if a.Standard != nil {
			input += ", standard=" + usd(*a.Standard)
		}
		r.step(model.AuditEntry{
			Step:     rule.step,
			Input:    input,
			Output:   "allowed=" + usd(a.Allowed),
			Citation: rule.citation,
			Notes:    rule.notes,
			FormLine: rule.line,
		})
	}

	r.step(model.AuditEntry{
		Step:     "total_living_expenses",
		Input:    fmt.Sprintf("%d expense categories analyzed", len(allowances)),
		Output:   fmt.Sprintf("actual=%s, allowed=%s", usd(actualTotal), usd(allowedTotal)),
		Citation: "Calculated",
		FormLine: "Line 41",
	})

	r.result.Allowances = allowances
	return actualTotal, allowedTotal
}

// Allowance applies the allowance rule: a capped category allows the lesser
// of actual and standard, any other category allows the actual amount.
func Allowance(category model.ExpenseCategory, actual decimal.Decimal, standard *decimal.Decimal, capped bool) model.ExpenseAllowance {
	allowed := actual
	if capped && standard != nil {
		allowed = decimal.Min(actual, *standard)
	}
	a := model.ExpenseAllowance{
		Category: category,
		Actual:   actual,
		Allowed:  allowed,
		Variance: actual.Sub(allowed),
	}
	if standard != nil {
		s := *standard
		a.Standard = &s
	}
	return a
}
