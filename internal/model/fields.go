package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// The typed field sets below are the closed per-document-type views of
// RawDocument.Fields. Zero values mean "not extracted".

// W2Fields holds the fields read from a W-2.
type W2Fields struct {
	EmployerName           string
	EmployeeName           string
	State                  string
	Wages                  decimal.Decimal
	FederalWithheld        decimal.Decimal
	StateWithheld          decimal.Decimal
	SocialSecurityWithheld decimal.Decimal
	MedicareWithheld       decimal.Decimal
}

// PayStubFields holds the fields read from a pay stub.
type PayStubFields struct {
	PayPeriodStart time.Time
	PayPeriodEnd   time.Time
	PayDate        time.Time
	EmployerName   string
	EmployeeName   string
	PayFrequency   Frequency
	GrossPay       decimal.Decimal
	YTDGross       decimal.Decimal
	FederalTax     decimal.Decimal
}

// BankFields holds the fields read from a bank statement.
type BankFields struct {
	Institution   string
	AccountType   AccountKind
	AccountLast4  string
	AccountHolder string
	EndingBalance decimal.Decimal
	HasBalance    bool
}

// RetirementFields holds the fields read from a retirement statement.
type RetirementFields struct {
	Institution    string
	AccountLast4   string
	AccountHolder  string
	AccountBalance decimal.Decimal
	HasBalance     bool
}

// UtilityFields holds the fields read from a utility bill.
type UtilityFields struct {
	Provider  string
	Kind      UtilityKind
	AmountDue decimal.Decimal
}

// MortgageFields holds the fields read from a mortgage statement.
type MortgageFields struct {
	Lender           string
	PrincipalBalance decimal.Decimal
	MonthlyPayment   decimal.Decimal
	PropertyValue    decimal.Decimal
}

// PropertyTaxFields holds the fields read from a property tax bill.
type PropertyTaxFields struct {
	AssessedValue decimal.Decimal
	AnnualTax     decimal.Decimal
}

// InsuranceFields holds the fields read from an insurance statement.
type InsuranceFields struct {
	PolicyType       string
	PremiumFrequency Frequency
	PremiumAmount    decimal.Decimal
}

// Form1099Fields holds the fields read from a 1099.
type Form1099Fields struct {
	PayerName   string
	GrossIncome decimal.Decimal
}

// VehicleFields holds the fields read from a vehicle registration or an
// auto loan statement.
type VehicleFields struct {
	Description    string
	Make           string
	Model          string
	Lender         string
	Year           int
	MarketValue    decimal.Decimal
	LoanBalance    decimal.Decimal
	MonthlyPayment decimal.Decimal
}
