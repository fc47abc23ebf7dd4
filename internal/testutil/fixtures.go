package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/oic-ledger/internal/engine"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// FixedNow is the clock reading used by every fixture.
var FixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock returns FixedNow.
func Clock() time.Time {
	return FixedNow
}

// HouseholdConfig is the engine configuration for HouseholdDocuments.
func HouseholdConfig() engine.Config {
	return engine.Config{
		Clock:        Clock,
		TaxpayerName: "John Smith",
		SpouseName:   "Mary Smith",
		Profile: model.HouseholdProfile{
			TaxpayerAge: 45,
			SpouseAge:   43,
			Dependents:  1,
			Declared: model.DeclaredExpenses{
				Food:     decimal.RequireFromString("900"),
				Clothing: decimal.RequireFromString("150"),
			},
		},
	}
}

// HouseholdDocuments is a married household with one document for a third
// party, which is excluded from the analysis.
func HouseholdDocuments() []model.RawDocument {
	return []model.RawDocument{
		{
			Type:   model.DocumentW2,
			FileID: "income/acme/w2-2024.pdf",
			Fields: map[string]string{
				"employee_name":               "John Smith",
				"employer_name":               "Acme Corp",
				"state":                       "NY",
				"wages_tips":                  "72000.00",
				"federal_income_tax_withheld": "7200.00",
				"state_tax":                   "3600.00",
				"social_security":             "4464.00",
				"medicare":                    "1044.00",
			},
		},
		{
			Type:   model.DocumentPayStub,
			FileID: "income/globex/stub-0214.pdf",
			Fields: map[string]string{
				"employee_name": "Mary Smith",
				"employer_name": "Globex",
				"gross_pay":     "2000.00",
				"pay_frequency": "bi-weekly",
				"pay_date":      "02/14/2025",
			},
		},
		{
			Type:   model.DocumentBankStatement,
			FileID: "bank-statements/Chase/checking-1111.pdf",
			Fields: map[string]string{
				"account_holder": "John Smith",
				"account_type":   "checking",
				"account_last4":  "1111",
				"ending_balance": "2400.00",
			},
		},
		{
			Type:   model.DocumentUtilityBill,
			FileID: "utilities/coned-jan.pdf",
			Text:   "Bill for John Smith. Electric service. 612 kWh.",
			Fields: map[string]string{"provider": "Con Edison", "amount_due": "142.17"},
		},
		{
			Type:   model.DocumentIRSTranscript,
			FileID: "transcripts/2022.pdf",
			Text:   "Account transcript for John Smith",
			Amounts: []model.ExtractedAmount{
				{Label: "balance due", Amount: decimal.RequireFromString("18250.00")},
			},
			Dates: []model.ExtractedDate{
				{Label: "assessed", Date: time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			Type:   model.DocumentBankStatement,
			FileID: "bank-statements/Chase/checking-9999.pdf",
			Fields: map[string]string{
				"account_holder": "Robert Jones",
				"account_type":   "checking",
				"ending_balance": "50000.00",
			},
		},
	}
}

// HouseholdRun runs the engine over HouseholdDocuments.
func HouseholdRun(t *testing.T) *engine.Run {
	t.Helper()

	e, err := engine.New(HouseholdConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	run, err := e.Run(context.Background(), HouseholdDocuments(), nil)
	if err != nil {
		t.Fatalf("failed to run engine: %v", err)
	}
	return run
}
