package form

import (
	"testing"

	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleHousehold() *model.Household {
	h := model.NewHousehold("John Smith", "Mary Smith", model.HouseholdProfile{
		Address:     "22 Elm Ave, Albany NY",
		TaxpayerAge: 45,
		SpouseAge:   66,
		Dependents:  1,
		Declared: model.DeclaredExpenses{
			Food:             dec("600"),
			Rent:             dec("1500"),
			VehicleOperating: dec("180"),
			ChildSupport:     dec("250"),
		},
	})
	h.State = "NY"
	h.ZIP = "12207"
	h.DocumentsProcessed = 6
	h.DocumentTypes[model.DocumentW2] = 2
	h.DocumentTypes[model.DocumentBankStatement] = 4
	h.Taxpayer.W2s = []model.W2Record{{
		Employer:               "Acme Corp",
		Origin:                 model.OriginW2,
		Wages:                  dec("60000"),
		FederalWithheld:        dec("6000"),
		StateWithheld:          dec("3000"),
		SocialSecurityWithheld: dec("3720"),
		MedicareWithheld:       dec("870"),
	}}
	h.Spouse.W2s = []model.W2Record{{Employer: "Globex", Origin: model.OriginPayStub, Wages: dec("30000")}}
	h.Spouse.OtherIncome = dec("2400")
	h.BankAccounts = []model.BankAccountRecord{
		{Institution: "Chase", Kind: model.AccountChecking, Owner: model.OwnerTaxpayer, Balance: dec("1500")},
		{Institution: "Ally", Kind: model.AccountSavings, Owner: model.OwnerJoint, Balance: dec("3000")},
		{Institution: "Other", Kind: model.AccountSavings, Owner: model.OwnerExcluded, Balance: dec("9999")},
	}
	h.Utilities[model.UtilityElectric] = dec("120")
	h.Vehicle = model.VehicleState{
		Description:    "2019 Honda Civic",
		Value:          dec("18000"),
		LoanBalance:    dec("8000"),
		MonthlyPayment: dec("310"),
		Insurance:      dec("95"),
		Evidence:       true,
	}
	h.TaxLiability = dec("10000")
	h.TaxYears = []int{2019, 2020, 2021, 2022}
	h.Finalized = true
	return h
}

func TestBuild(t *testing.T) {
	f := Build(sampleHousehold())

	assert.Equal(t, model.FilingMarriedJoint, f.Personal.FilingStatus)
	assert.Equal(t, "Mary Smith", f.Personal.SpouseName)
	assert.Equal(t, "NY", f.Personal.State)
	assert.Equal(t, 3, f.Personal.FamilySize())

	require.Len(t, f.Employment, 1)
	e := f.Employment[0]
	assert.True(t, dec("5000").Equal(e.GrossMonthly))
	assert.True(t, dec("500").Equal(e.FederalTax))
	assert.True(t, dec("250").Equal(e.StateTax))
	assert.True(t, dec("310").Equal(e.SocialSecurity))
	assert.True(t, dec("72.5").Equal(e.Medicare))

	require.Len(t, f.SpouseEmployment, 1)
	assert.True(t, dec("2500").Equal(f.SpouseEmployment[0].GrossMonthly))
	assert.Empty(t, f.OtherIncome)
	require.Len(t, f.SpouseOtherIncome, 1)
	assert.True(t, dec("200").Equal(f.SpouseOtherIncome[0].Monthly()))

	require.Len(t, f.BankAccounts, 2)
	assert.Equal(t, "Chase", f.BankAccounts[0].Institution)
	assert.Equal(t, model.OwnerJoint, f.BankAccounts[1].Owner)

	require.Len(t, f.Vehicles, 1)
	v := f.Vehicles[0]
	assert.Equal(t, 2019, v.Year)
	assert.Equal(t, "Honda", v.Make)
	assert.Equal(t, "Civic", v.Model)
	assert.True(t, dec("6400").Equal(v.NetRealizableEquity()))

	require.Len(t, f.Debts, 1)
	assert.Equal(t, "vehicle_loan", f.Debts[0].Kind)

	assert.True(t, dec("1500").Equal(f.Expenses.Rent))
	assert.True(t, dec("310").Equal(f.Expenses.VehiclePayment1))
	assert.True(t, dec("95").Equal(f.Expenses.VehicleInsurance))
	assert.True(t, dec("180").Equal(f.Expenses.VehicleGas))
	assert.True(t, dec("120").Equal(f.Expenses.UtilitiesTotal()))
	assert.True(t, dec("250").Equal(f.Expenses.CourtOrderedTotal()))
	assert.False(t, f.UsesPublicTransit)

	assert.Equal(t, "Auto-generated from 6 documents. Types: bank_statement, w2.", f.Notes)
}

func TestBuildIsIdempotent(t *testing.T) {
	h := sampleHousehold()
	first := Build(h)
	second := Build(h)
	assert.Equal(t, first, second)

	first.Expenses.Utilities[model.UtilityGas] = dec("1")
	_, leaked := h.Utilities[model.UtilityGas]
	assert.False(t, leaked, "form must not alias household maps")
}

func TestTaxPeriods(t *testing.T) {
	tests := []struct {
		name      string
		liability string
		years     []int
		wantYears []int
	}{
		{"no liability", "0", []int{2021}, nil},
		{"unknown year", "4200", nil, []int{0}},
		{"three most recent", "10000", []int{2022, 2019, 2021, 2020}, []int{2020, 2021, 2022}},
		{"two years", "5000.01", []int{2023, 2022}, []int{2022, 2023}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := taxPeriods(dec(tt.liability), tt.years)
			var years []int
			total := decimal.Zero
			for _, p := range periods {
				years = append(years, p.Year)
				total = total.Add(p.Balance)
			}
			assert.Equal(t, tt.wantYears, years)
			if len(periods) > 0 {
				assert.True(t, dec(tt.liability).Equal(total), "periods sum to %s", total)
			}
		})
	}
}

func TestRepossessedVehicleOmitted(t *testing.T) {
	h := sampleHousehold()
	h.Vehicle.Repossessed = true
	f := Build(h)

	assert.Empty(t, f.Vehicles)
	assert.Empty(t, f.Debts)
	assert.True(t, f.Expenses.VehiclePayment1.IsZero())
	assert.Contains(t, f.Notes, "Vehicle repossessed: 2019 Honda Civic - excluded from assets.")
}

func TestMortgageReplacesRent(t *testing.T) {
	h := sampleHousehold()
	h.Housing = model.HousingState{
		MortgagePayment: dec("1650"),
		MortgageBalance: dec("150000"),
		PropertyValue:   dec("300000"),
	}
	f := Build(h)

	assert.True(t, f.Expenses.Rent.IsZero())
	assert.True(t, dec("1650").Equal(f.Expenses.Mortgage))
	require.Len(t, f.RealProperty, 1)
	assert.True(t, dec("66000").Equal(f.RealProperty[0].NetRealizableEquity()))
	require.Len(t, f.Debts, 2)
	assert.Equal(t, "mortgage", f.Debts[0].Kind)
}

func TestSingleFilerWithoutEvidence(t *testing.T) {
	h := model.NewHousehold("John Smith", "", model.HouseholdProfile{})
	f := Build(h)

	assert.Equal(t, model.FilingSingle, f.Personal.FilingStatus)
	assert.Empty(t, f.Employment)
	assert.Empty(t, f.SpouseEmployment)
	assert.Empty(t, f.Vehicles)
	assert.Empty(t, f.TaxPeriods)
	assert.Equal(t, "Auto-generated from 0 documents. Types: none.", f.Notes)
}
