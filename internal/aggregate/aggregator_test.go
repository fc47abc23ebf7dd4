package aggregate

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/identity"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAggregator(spouse string) *Aggregator {
	return New(Options{
		Clock:        func() time.Time { return fixedNow },
		TaxpayerName: "John Smith",
		SpouseName:   spouse,
		Policy:       identity.PolicyTaxpayer,
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func doc(t model.DocumentType, file string, fields map[string]string) model.RawDocument {
	return model.RawDocument{Type: t, FileID: file, Fields: fields, Confidence: 1.0}
}

func countWarnings(h *model.Household, substr string) int {
	n := 0
	for _, w := range h.Warnings {
		if strings.Contains(w, substr) {
			n++
		}
	}
	return n
}

func TestPayStubsInferBiWeekly(t *testing.T) {
	a := newTestAggregator("")

	for _, date := range []string{"01/03/2025", "01/16/2025"} {
		out := a.Add(doc(model.DocumentPayStub, "docs/stub-"+strings.ReplaceAll(date, "/", "")+".pdf", map[string]string{
			"employee_name": "John Smith",
			"gross_pay":     "2000.00",
			"pay_date":      date,
		}))
		require.NoError(t, out.Err)
		assert.True(t, out.Handled)
	}

	h := a.Finalize()
	require.Len(t, h.Taxpayer.W2s, 1)
	rec := h.Taxpayer.W2s[0]
	assert.Equal(t, unknownEmployer, rec.Employer)
	assert.Equal(t, model.FrequencyBiWeekly, rec.Frequency)
	assert.True(t, dec("52000").Equal(rec.Wages), "got %s", rec.Wages)
	assert.Equal(t, time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), rec.LastPayDate)
}

func TestPayStubProvenanceFollowsMergedEstimate(t *testing.T) {
	a := newTestAggregator("")

	for _, stub := range []struct{ file, gross string }{
		{"globex-0110.pdf", "2500.00"},
		{"globex-0124.pdf", "2000.00"},
	} {
		out := a.Add(doc(model.DocumentPayStub, stub.file, map[string]string{
			"employee_name": "John Smith",
			"employer_name": "Globex",
			"gross_pay":     stub.gross,
			"pay_frequency": "bi-weekly",
		}))
		require.NoError(t, out.Err)
	}

	h := a.Finalize()
	require.Len(t, h.Taxpayer.W2s, 1)
	rec := h.Taxpayer.W2s[0]
	assert.True(t, dec("65000").Equal(rec.Wages), "got %s", rec.Wages)

	entries := h.Provenance.ForField("taxpayer.paystub.Globex.wages")
	require.Len(t, entries, 1)
	assert.Equal(t, rec.Wages.StringFixed(2), entries[0].Value)
	assert.Equal(t, "globex-0110.pdf", entries[0].SourceFile)
}

func TestPayFrequencyCascade(t *testing.T) {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		fields   model.PayStubFields
		text     string
		employer string
		previous *model.W2Record
		want     model.Frequency
		by       string
	}{
		{"explicit field", model.PayStubFields{PayFrequency: model.FrequencyWeekly}, "monthly", "", nil, model.FrequencyWeekly, "field"},
		{"gig platform", model.PayStubFields{}, "", "DoorDash", nil, model.FrequencyMonthly, "gig platform"},
		{"biweekly text", model.PayStubFields{}, "Paid Bi-Weekly", "Acme", nil, model.FrequencyBiWeekly, "text"},
		{"semi monthly text", model.PayStubFields{}, "paid twice a month", "Acme", nil, model.FrequencySemiMonthly, "text"},
		{"weekly text", model.PayStubFields{}, "weekly pay", "Acme", nil, model.FrequencyWeekly, "text"},
		{"period length", model.PayStubFields{PayPeriodStart: start, PayPeriodEnd: start.AddDate(0, 0, 18)}, "", "Acme", nil, model.FrequencySemiMonthly, "pay period"},
		{"previous stub", model.PayStubFields{PayDate: start}, "", "Acme", &model.W2Record{LastPayDate: start.AddDate(0, 0, -7)}, model.FrequencyWeekly, "previous stub"},
		{"default", model.PayStubFields{}, "", "Acme", nil, model.FrequencyBiWeekly, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, by := payFrequency(tt.fields, tt.text, tt.employer, tt.previous)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.by, by)
		})
	}
}

func TestAnnualWages(t *testing.T) {
	march := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC) // day 90

	ytd := annualWages(model.PayStubFields{YTDGross: dec("9000"), PayDate: march}, model.FrequencyBiWeekly)
	assert.True(t, dec("36500").Equal(ytd), "got %s", ytd)

	early := annualWages(model.PayStubFields{YTDGross: dec("1500"), PayDate: march.AddDate(0, -2, -20)}, model.FrequencyBiWeekly)
	assert.True(t, dec("1500").Equal(early), "got %s", early)

	periodic := annualWages(model.PayStubFields{GrossPay: dec("1000")}, model.FrequencySemiMonthly)
	assert.True(t, dec("24000").Equal(periodic), "got %s", periodic)
}

func TestPayStubAfterW2IsSkipped(t *testing.T) {
	a := newTestAggregator("")

	a.Add(doc(model.DocumentW2, "w2/acme.pdf", map[string]string{
		"employee_name": "John Smith",
		"employer_name": "Acme Corp",
		"wages_tips":    "60000",
	}))
	a.Add(doc(model.DocumentPayStub, "stubs/acme-jan.pdf", map[string]string{
		"employee_name": "John Smith",
		"employer_name": "Acme Corp",
		"gross_pay":     "3000",
	}))

	h := a.Finalize()
	require.Len(t, h.Taxpayer.W2s, 1)
	assert.Equal(t, model.OriginW2, h.Taxpayer.W2s[0].Origin)
	assert.True(t, dec("60000").Equal(h.Taxpayer.W2s[0].Wages))
	assert.Equal(t, 1, countWarnings(h, "W-2 on file for Acme Corp"))
}

func TestW2Conflicts(t *testing.T) {
	w2 := func(file, wages string) model.RawDocument {
		return doc(model.DocumentW2, file, map[string]string{
			"employee_name": "John Smith",
			"employer_name": "Acme Corp",
			"wages_tips":    wages,
		})
	}

	t.Run("duplicate copy skipped", func(t *testing.T) {
		a := newTestAggregator("")
		a.Add(w2("a.pdf", "50000"))
		a.Add(w2("b.pdf", "50000"))
		h := a.Finalize()
		require.Len(t, h.Taxpayer.W2s, 1)
		assert.Equal(t, "a.pdf", h.Taxpayer.W2s[0].SourceFile)
		assert.Equal(t, 1, countWarnings(h, "Duplicate W-2"))
	})

	t.Run("higher wages kept", func(t *testing.T) {
		a := newTestAggregator("")
		a.Add(w2("a.pdf", "40000"))
		a.Add(w2("b.pdf", "45000"))
		a.Add(w2("c.pdf", "42000"))
		h := a.Finalize()
		require.Len(t, h.Taxpayer.W2s, 1)
		assert.True(t, dec("45000").Equal(h.Taxpayer.W2s[0].Wages))
		assert.Equal(t, 2, countWarnings(h, "Conflicting W-2s"))
	})

	t.Run("w2 supersedes pay stub estimate", func(t *testing.T) {
		a := newTestAggregator("")
		a.Add(doc(model.DocumentPayStub, "stub.pdf", map[string]string{
			"employee_name": "John Smith",
			"employer_name": "Acme Corp",
			"gross_pay":     "1000",
		}))
		a.Add(w2("w2.pdf", "30000"))
		h := a.Finalize()
		require.Len(t, h.Taxpayer.W2s, 1)
		assert.Equal(t, model.OriginW2, h.Taxpayer.W2s[0].Origin)
		assert.Equal(t, 1, countWarnings(h, "supersedes pay stub"))
	})
}

func TestBankStatementDedup(t *testing.T) {
	a := newTestAggregator("")
	statement := func(file, balance string) model.RawDocument {
		return doc(model.DocumentBankStatement, file, map[string]string{
			"account_holder":   "John Smith",
			"institution_name": "Chase",
			"account_type":     "checking",
			"account_number":   "****1234",
			"ending_balance":   balance,
		})
	}

	a.Add(statement("jan.pdf", "1200.00"))
	a.Add(statement("feb.pdf", "1500.00"))

	h := a.Finalize()
	require.Len(t, h.BankAccounts, 1)
	acct := h.BankAccounts[0]
	assert.True(t, dec("1500").Equal(acct.Balance))
	assert.Equal(t, "1234", acct.AccountLast4)
	assert.Equal(t, "feb.pdf", acct.SourceFile)
	assert.Equal(t, 1, countWarnings(h, "Duplicate statement for Chase checking"))

	entries := h.Provenance.ForField("bank_account.Chase.checking")
	require.Len(t, entries, 2)
	assert.Equal(t, "1500.00", entries[1].Value)
	assert.Equal(t, fixedNow, entries[1].Timestamp)
}

func TestBankStatementKind(t *testing.T) {
	amounts := make([]model.ExtractedAmount, 12)
	tests := []struct {
		name string
		doc  model.RawDocument
		want model.AccountKind
	}{
		{
			name: "explicit type wins over keywords",
			doc: model.RawDocument{Text: "Roth conversion", Fields: map[string]string{
				"account_type": "savings", "ending_balance": "10",
			}},
			want: model.AccountSavings,
		},
		{
			name: "retirement keywords",
			doc:  model.RawDocument{Text: "Your 401(k) summary", Fields: map[string]string{"ending_balance": "10"}},
			want: model.AccountRetirement,
		},
		{
			name: "busy account is checking",
			doc:  model.RawDocument{Text: "statement", Amounts: amounts, Fields: map[string]string{"ending_balance": "10"}},
			want: model.AccountChecking,
		},
		{
			name: "quiet account is savings",
			doc:  model.RawDocument{Text: "statement", Fields: map[string]string{"ending_balance": "10"}},
			want: model.AccountSavings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAggregator("")
			tt.doc.Type = model.DocumentBankStatement
			tt.doc.FileID = "bank-statements/Chase/stmt.pdf"
			tt.doc.Fields["account_holder"] = "John Smith"
			a.Add(tt.doc)
			h := a.Finalize()
			require.Len(t, h.BankAccounts, 1)
			assert.Equal(t, tt.want, h.BankAccounts[0].Kind)
			assert.Equal(t, "Chase", h.BankAccounts[0].Institution)
		})
	}
}

func TestInstitutionAndLast4Inference(t *testing.T) {
	assert.Equal(t, "Ally", institutionFromPath("docs/bank_statements/Ally/2025-01.pdf"))
	assert.Equal(t, "", institutionFromPath("docs/statements/unlocked_jan.pdf"))
	assert.Equal(t, "Wells Fargo", institutionFromText("WELLS FARGO BANK, N.A."))
	assert.Equal(t, "USAA", institutionFromText("usaa federal savings"))

	assert.Equal(t, "4321", last4FromPath("Statement_4321_2025.pdf"))
	assert.Equal(t, "9876", last4FromPath("checking-9876.pdf"))
	assert.Equal(t, "5555", last4FromPath("account5555.pdf"))
	assert.Equal(t, "", last4FromPath("january.pdf"))
}

func TestUtilityClassification(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		fields map[string]string
		text   string
		want   model.UtilityKind
	}{
		{"field", "bill.pdf", map[string]string{"utility_type": "Water"}, "", model.UtilityWater},
		{"file name", "verizon-wireless-jan.pdf", nil, "", model.UtilityCell},
		{"text", "bill.pdf", nil, "Usage: 840 kWh", model.UtilityElectric},
		{"internet before cable", "bill.pdf", nil, "Internet and cable bundle", model.UtilityInternet},
		{"gas", "bill.pdf", nil, "Natural gas delivery, 40 therms", model.UtilityGas},
		{"app boilerplate", "bill.pdf", nil, "Con Edison. Pay anytime with our mobile app.", model.UtilityElectric},
		{"fios", "bill.pdf", nil, "Verizon Fios Internet 300 Mbps", model.UtilityInternet},
		{"file name before text", "water_bill.pdf", nil, "Payable at any electric company office", model.UtilityWater},
		{"provider fallback", "bill.pdf", map[string]string{"provider": "T-Mobile"}, "Monthly statement", model.UtilityCell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAggregator("")
			fields := map[string]string{"account_holder": "John Smith", "amount_due": "$85.20"}
			for k, v := range tt.fields {
				fields[k] = v
			}
			d := doc(model.DocumentUtilityBill, tt.file, fields)
			d.Text = tt.text
			a.Add(d)
			h := a.Finalize()
			assert.True(t, dec("85.20").Equal(h.Utilities[tt.want]), "utilities: %v", h.Utilities)
		})
	}
}

func TestUtilityProviderBoilerplate(t *testing.T) {
	a := newTestAggregator("")
	electric := doc(model.DocumentUtilityBill, "coned-jan.pdf", map[string]string{"account_holder": "John Smith", "amount_due": "120"})
	electric.Text = "Pay anytime with our mobile app."
	internet := doc(model.DocumentUtilityBill, "verizon-jan.pdf", map[string]string{"account_holder": "John Smith", "amount_due": "80"})
	internet.Text = "Verizon Fios Internet. Wireless router rental included."
	a.Add(electric)
	a.Add(internet)

	h := a.Finalize()
	assert.Len(t, h.Utilities, 2, "utilities: %v", h.Utilities)
	assert.True(t, dec("120").Equal(h.Utilities[model.UtilityElectric]))
	assert.True(t, dec("80").Equal(h.Utilities[model.UtilityInternet]))
}

func TestUtilityKeepsHighestBill(t *testing.T) {
	a := newTestAggregator("")
	for _, amt := range []string{"110", "140", "95"} {
		a.Add(doc(model.DocumentUtilityBill, "electric-"+amt+".pdf", map[string]string{
			"account_holder": "John Smith",
			"amount_due":     amt,
		}))
	}
	h := a.Finalize()
	assert.True(t, dec("140").Equal(h.Utilities[model.UtilityElectric]))
	assert.Len(t, h.Provenance.ForField("utilities.electric"), 2)
}

func TestUnclassifiedUtilityWarns(t *testing.T) {
	a := newTestAggregator("")
	a.Add(doc(model.DocumentUtilityBill, "bill.pdf", map[string]string{
		"account_holder": "John Smith",
		"amount_due":     "50",
	}))
	h := a.Finalize()
	assert.Empty(t, h.Utilities)
	assert.Equal(t, 1, countWarnings(h, "Could not classify utility bill"))
}

func TestHousingDocuments(t *testing.T) {
	a := newTestAggregator("")
	a.Add(doc(model.DocumentMortgageStatement, "mortgage.pdf", map[string]string{
		"account_holder":    "John Smith",
		"principal_balance": "210000",
		"monthly_payment":   "1650.00",
	}))
	a.Add(doc(model.DocumentPropertyTax, "tax.pdf", map[string]string{
		"taxpayer_name":       "John Smith",
		"assessed_value":      "300000",
		"property_tax_amount": "4800",
	}))
	a.Add(doc(model.DocumentInsuranceStatement, "policy.pdf", map[string]string{
		"account_holder":    "John Smith",
		"policy_type":       "Homeowners",
		"premium_amount":    "1200",
		"premium_frequency": "annually",
	}))
	a.Add(doc(model.DocumentInsuranceStatement, "auto-policy.pdf", map[string]string{
		"account_holder":    "John Smith",
		"premium_amount":    "600",
		"premium_frequency": "semi-annual",
	}))

	h := a.Finalize()
	assert.True(t, dec("210000").Equal(h.Housing.MortgageBalance))
	assert.True(t, dec("1650").Equal(h.Housing.MortgagePayment))
	assert.True(t, dec("300000").Equal(h.Housing.PropertyValue))
	assert.True(t, dec("400").Equal(h.Housing.PropertyTaxMonthly))
	assert.True(t, dec("99.96").Equal(h.Housing.HomeInsurance), "got %s", h.Housing.HomeInsurance)
	// unparseable frequency falls back to monthly
	assert.True(t, dec("600").Equal(h.Vehicle.Insurance), "got %s", h.Vehicle.Insurance)
	assert.Equal(t, 1, countWarnings(h, "Unparseable premium_frequency"))
}

func TestTranscript(t *testing.T) {
	a := newTestAggregator("")
	d := doc(model.DocumentIRSTranscript, "transcript.pdf", map[string]string{"taxpayer_name": "John Smith"})
	d.Amounts = []model.ExtractedAmount{
		{Amount: dec("12000"), Label: "Account balance"},
		{Amount: dec("14500.25"), Label: "Amount due"},
		{Amount: dec("99999"), Label: "Total payments"},
	}
	d.Dates = []model.ExtractedDate{
		{Date: time.Date(2022, 4, 15, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2021, 4, 15, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2015, 4, 15, 0, 0, 0, 0, time.UTC)},
	}
	a.Add(d)

	h := a.Finalize()
	assert.True(t, dec("14500.25").Equal(h.TaxLiability))
	assert.Equal(t, []int{2021, 2022}, h.TaxYears)
}

func TestVehicleDocumentsAndDefaultValue(t *testing.T) {
	a := newTestAggregator("")
	a.Add(doc(model.DocumentAutoLoanStatement, "auto-loan.pdf", map[string]string{
		"account_holder":  "John Smith",
		"year":            "2019",
		"make":            "Honda",
		"model":           "Civic",
		"loan_balance":    "8000",
		"monthly_payment": "310",
	}))

	h := a.Finalize()
	assert.Equal(t, "2019 Honda Civic", h.Vehicle.Description)
	assert.True(t, dec("8000").Equal(h.Vehicle.LoanBalance))
	assert.True(t, DefaultVehicleValue.Equal(h.Vehicle.Value))

	entries := h.Provenance.ForField("vehicle.value")
	require.Len(t, entries, 1)
	assert.Equal(t, model.MethodDefault, entries[0].Method)
	assert.InDelta(t, 0.5, entries[0].Confidence, 0.001)
}

func TestRepossession(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		text     string
		want     bool
		describe string
	}{
		{"file name", "docs/2017 Infiniti QX60 repo notice.pdf", "", true, "2017 Infiniti QX60"},
		{"vehicle text", "letter.pdf", "Your 2018 Toyota Camry was repossessed on 3/2", true, "2018 Toyota Camry"},
		{"report is not repo", "credit-report.pdf", "", false, ""},
		{"repossession without vehicle", "letter.pdf", "furniture repossession notice", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAggregator("")
			d := doc(model.DocumentUnknown, tt.file, map[string]string{"account_holder": "John Smith"})
			d.Text = tt.text
			a.Add(d)
			h := a.Finalize()
			assert.Equal(t, tt.want, h.Vehicle.Repossessed)
			assert.Equal(t, tt.describe, h.Vehicle.Description)
			if tt.want {
				assert.False(t, h.Vehicle.Value.IsPositive(), "repossessed vehicle gets no default value")
			}
		})
	}
}

func TestStatePriority(t *testing.T) {
	a := newTestAggregator("")
	bill := doc(model.DocumentUtilityBill, "electric.pdf", map[string]string{"account_holder": "John Smith", "amount_due": "80"})
	bill.Text = "Service address: 1 Main St, Newark NJ 07102"
	a.Add(bill)
	assert.Equal(t, "NJ", a.Household().State)

	stub := doc(model.DocumentPayStub, "stub.pdf", map[string]string{"employee_name": "John Smith", "gross_pay": "1000"})
	stub.Text = "John Smith\n22 Elm Ave\nAlbany NY 12207"
	a.Add(stub)
	assert.Equal(t, "NY", a.Household().State)
	assert.Equal(t, "12207", a.Household().ZIP)

	later := doc(model.DocumentW2, "w2.pdf", map[string]string{"employee_name": "John Smith", "wages": "1", "state": "ca"})
	a.Add(later)
	assert.Equal(t, "NY", a.Finalize().State)
}

func TestStateOverride(t *testing.T) {
	a := New(Options{TaxpayerName: "John Smith", StateOverride: "tx"})
	stub := doc(model.DocumentPayStub, "stub.pdf", map[string]string{"employee_name": "John Smith", "gross_pay": "1000"})
	stub.Text = "Albany NY 12207"
	a.Add(stub)
	assert.Equal(t, "TX", a.Finalize().State)
}

func TestAttributionOutcomes(t *testing.T) {
	a := newTestAggregator("Mary Smith")

	out := a.Add(doc(model.DocumentW2, "jane.pdf", map[string]string{"employee_name": "Jane Doe", "wages": "100"}))
	assert.Equal(t, model.OwnerExcluded, out.Attribution.Owner)

	out = a.Add(doc(model.DocumentW2, "mary.pdf", map[string]string{
		"employee_name": "Mary Smith",
		"employer_name": "Globex",
		"wages":         "30000",
	}))
	assert.Equal(t, model.OwnerSpouse, out.Attribution.Owner)

	joint := doc(model.DocumentBankStatement, "joint.pdf", map[string]string{"ending_balance": "900"})
	joint.Text = "JOHN SMITH\nMARY SMITH\nJoint checking"
	out = a.Add(joint)
	assert.Equal(t, model.OwnerJoint, out.Attribution.Owner)

	h := a.Finalize()
	require.Len(t, h.Excluded, 1)
	assert.Equal(t, "jane.pdf", h.Excluded[0].File)
	assert.Contains(t, h.Excluded[0].Reason, "Jane Doe")
	require.Len(t, h.Spouse.W2s, 1)
	assert.Empty(t, h.Taxpayer.W2s)
	assert.Contains(t, h.Taxpayer.Documents, "joint.pdf")
	assert.Contains(t, h.Spouse.Documents, "joint.pdf")
	assert.Equal(t, 3, h.DocumentsProcessed)
}

func TestInvalidDocuments(t *testing.T) {
	a := newTestAggregator("")

	out := a.Add(model.RawDocument{Type: model.DocumentW2, Fields: map[string]string{"wages": "1"}})
	assert.ErrorIs(t, out.Err, common.ErrInvalidDocument)

	out = a.Add(model.RawDocument{Type: model.DocumentW2, FileID: "blank.pdf"})
	assert.ErrorIs(t, out.Err, common.ErrInvalidDocument)

	out = a.Add(doc(model.DocumentType("lease"), "lease.pdf", map[string]string{"account_holder": "John Smith"}))
	assert.NoError(t, out.Err)
	assert.False(t, out.Handled)

	h := a.Finalize()
	assert.Len(t, h.Errors, 2)
	assert.Equal(t, 3, h.DocumentsProcessed)
	assert.Equal(t, 1, countWarnings(h, "No handler for lease document"))
}

func TestHandlerErrorIsScopedToDocument(t *testing.T) {
	a := newTestAggregator("")
	a.Register(model.DocumentW2, HandlerFunc(func(c *Context) error {
		return common.ErrUnsupportedInput
	}))

	out := a.Add(doc(model.DocumentW2, "w2.pdf", map[string]string{"employee_name": "John Smith", "wages": "10"}))
	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, common.ErrUnsupportedInput)

	out = a.Add(doc(model.DocumentBankStatement, "bank.pdf", map[string]string{"account_holder": "John Smith", "ending_balance": "10"}))
	assert.NoError(t, out.Err)

	h := a.Finalize()
	require.Len(t, h.Errors, 1)
	assert.Contains(t, h.Errors[0], "w2.pdf")
}

func TestFinalizeClosesProvenance(t *testing.T) {
	a := newTestAggregator("")
	a.Add(doc(model.DocumentBankStatement, "bank.pdf", map[string]string{"account_holder": "John Smith", "ending_balance": "10"}))
	h := a.Finalize()

	assert.True(t, h.Finalized)
	assert.True(t, a.Provenance().Closed())
	assert.InDelta(t, 1.0, h.Confidence, 0.001)
	assert.Same(t, h, a.Finalize())

	out := a.Add(doc(model.DocumentBankStatement, "late.pdf", map[string]string{"ending_balance": "10"}))
	assert.ErrorIs(t, out.Err, ErrFinalized)
}

func TestProvenanceConfidenceCappedByDocument(t *testing.T) {
	a := newTestAggregator("")
	d := doc(model.DocumentBankStatement, "bank.pdf", map[string]string{"account_holder": "John Smith", "ending_balance": "10"})
	d.Confidence = 0.6
	d.Method = model.MethodLLM
	a.Add(d)
	h := a.Finalize()

	entries := h.Provenance.Entries()
	require.NotEmpty(t, entries)
	assert.InDelta(t, 0.6, entries[0].Confidence, 0.001)
	assert.Equal(t, model.MethodLLM, entries[0].Method)
}

func TestEmployersMatch(t *testing.T) {
	assert.True(t, EmployersMatch("Acme Corp", "ACME CORP"))
	assert.True(t, EmployersMatch("Acme", "Acme Corporation"))
	assert.True(t, EmployersMatch("Globex Inc", "Globex Inc."))
	assert.False(t, EmployersMatch("Acme", "Initech"))
	assert.False(t, EmployersMatch("", "Acme"))
}

func TestEmployerFromPath(t *testing.T) {
	assert.Equal(t, "DoorDash", employerFromPath("income/doordash/summary.pdf"))
	assert.Equal(t, "Initech", employerFromPath("Paystubs/Initech/2025-01-15.pdf"))
	assert.Equal(t, "", employerFromPath("Paystubs/unlocked_stub.pdf"))
	assert.Equal(t, "ACME", employerFromPath("docs/ACME Pay 2025-01.pdf"))
	assert.Equal(t, "", employerFromPath("docs/stub.pdf"))
}

func Test1099AddsOtherIncome(t *testing.T) {
	a := newTestAggregator("")
	for _, amt := range []string{"1200", "800"} {
		a.Add(doc(model.Document1099, "1099-"+amt+".pdf", map[string]string{
			"recipient_name": "John Smith",
			"payer_name":     "Client LLC",
			"gross_income":   amt,
		}))
	}
	h := a.Finalize()
	assert.True(t, dec("2000").Equal(h.Taxpayer.OtherIncome))
	assert.Len(t, h.Provenance.ForField("taxpayer.other_income.1099"), 2)
}
