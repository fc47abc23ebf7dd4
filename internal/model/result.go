package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is one of the six allowable-expense groupings.
type ExpenseCategory string

// Expense categories in the order they are evaluated.
const (
	ExpenseNationalStandards ExpenseCategory = "national_standards"
	ExpenseHousingUtilities  ExpenseCategory = "housing_utilities"
	ExpenseTransportation    ExpenseCategory = "transportation"
	ExpenseHealthcare        ExpenseCategory = "healthcare"
	ExpenseCourtOrdered      ExpenseCategory = "court_ordered"
	ExpenseOtherNecessary    ExpenseCategory = "other_necessary"
)

// ExpenseCategories returns every category in evaluation order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		ExpenseNationalStandards,
		ExpenseHousingUtilities,
		ExpenseTransportation,
		ExpenseHealthcare,
		ExpenseCourtOrdered,
		ExpenseOtherNecessary,
	}
}

// ExpenseAllowance compares an actual expense with its IRS standard.
// Standard is nil when no standard governs the category.
type ExpenseAllowance struct {
	Standard *decimal.Decimal `json:"standard,omitempty"`
	Category ExpenseCategory  `json:"category"`
	Notes    string           `json:"notes,omitempty"`
	Actual   decimal.Decimal  `json:"actual"`
	Allowed  decimal.Decimal  `json:"allowed"`
	Variance decimal.Decimal  `json:"variance"`
}

// AuditEntry is one arithmetic step of a calculation.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Citation  string    `json:"citation,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	FormLine  string    `json:"form_line,omitempty"`
}

// CalculationResult is the complete outcome of an OIC analysis.
type CalculationResult struct {
	CalculatedAt         time.Time          `json:"calculated_at"`
	MethodologyVersion   string             `json:"methodology_version"`
	StandardsVersion     string             `json:"standards_version"`
	CNCReason            string             `json:"cnc_reason,omitempty"`
	Allowances           []ExpenseAllowance `json:"allowances"`
	Warnings             []string           `json:"warnings"`
	Recommendations      []string           `json:"recommendations"`
	AuditLog             []AuditEntry       `json:"audit_log"`
	GrossMonthlyIncome   decimal.Decimal    `json:"gross_monthly_income"`
	NetMonthlyIncome     decimal.Decimal    `json:"net_monthly_income"`
	TotalActualExpenses  decimal.Decimal    `json:"total_actual_expenses"`
	TotalAllowedExpenses decimal.Decimal    `json:"total_allowed_expenses"`
	DisposableIncome     decimal.Decimal    `json:"disposable_income"`
	LiquidAssets         decimal.Decimal    `json:"liquid_assets"`
	GrossAssetEquity     decimal.Decimal    `json:"gross_asset_equity"`
	NetRealizableEquity  decimal.Decimal    `json:"net_realizable_equity"`
	TotalLiability       decimal.Decimal    `json:"total_liability"`
	RCPLumpSum           decimal.Decimal    `json:"rcp_lump_sum"`
	RCPPeriodic          decimal.Decimal    `json:"rcp_periodic"`
	MinimumOfferLumpSum  decimal.Decimal    `json:"minimum_offer_lump_sum"`
	MinimumOfferPeriodic decimal.Decimal    `json:"minimum_offer_periodic"`
	Confidence           float64            `json:"confidence"`
	QualifiesForCNC      bool               `json:"qualifies_for_cnc"`
}

// Allowance returns the comparison for a category.
func (r CalculationResult) Allowance(category ExpenseCategory) (ExpenseAllowance, bool) {
	for _, a := range r.Allowances {
		if a.Category == category {
			return a, true
		}
	}
	return ExpenseAllowance{}, false
}
