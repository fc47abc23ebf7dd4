// Package form turns a finalized household into the financial statement the
// calculator consumes.
package form

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// maxTaxPeriods is how many of the most recent tax years carry liability.
const maxTaxPeriods = 3

var (
	twelve             = decimal.NewFromInt(12)
	vehicleDescPattern = regexp.MustCompile(`^(\d{4})\s+(\S+)\s+(\S+)`)
)

// Build snapshots the household into a FinancialForm. It only reads h, so
// calling it twice yields equal forms.
func Build(h *model.Household) model.FinancialForm {
	f := model.FinancialForm{
		Personal:   personalInfo(h),
		Employment: employment(h.Taxpayer),
		Expenses:   livingExpenses(h),
		Notes:      notes(h),
	}
	f.OtherIncome = otherIncome(h.Taxpayer)
	if h.Spouse != nil {
		f.SpouseEmployment = employment(h.Spouse)
		f.SpouseOtherIncome = otherIncome(h.Spouse)
	}
	f.UsesPublicTransit = f.Expenses.PublicTransport.IsPositive()

	for _, acct := range h.BankAccounts {
		if !acct.Owner.Included() {
			continue
		}
		f.BankAccounts = append(f.BankAccounts, model.BankAccount{
			Institution:  acct.Institution,
			Kind:         acct.Kind,
			Owner:        acct.Owner,
			AccountLast4: acct.AccountLast4,
			Balance:      acct.Balance,
		})
	}

	if h.Housing.PropertyValue.IsPositive() {
		desc := h.Profile.Address
		if desc == "" {
			desc = "Primary residence"
		}
		f.RealProperty = append(f.RealProperty, model.RealProperty{
			Description:     desc,
			FairMarketValue: h.Housing.PropertyValue,
			MortgageBalance: h.Housing.MortgageBalance,
		})
	}
	if h.Housing.MortgageBalance.IsPositive() {
		f.Debts = append(f.Debts, model.Debt{
			Creditor:       "Mortgage",
			Kind:           "mortgage",
			Balance:        h.Housing.MortgageBalance,
			MonthlyPayment: h.Housing.MortgagePayment,
		})
	}

	if v, ok := vehicle(h); ok {
		f.Vehicles = append(f.Vehicles, v)
		if v.LoanBalance.IsPositive() {
			f.Debts = append(f.Debts, model.Debt{
				Creditor:       v.Description() + " loan",
				Kind:           "vehicle_loan",
				Balance:        v.LoanBalance,
				MonthlyPayment: v.MonthlyPayment,
			})
		}
	}

	f.TaxPeriods = taxPeriods(h.TaxLiability, h.TaxYears)
	return f
}

func personalInfo(h *model.Household) model.PersonalInfo {
	p := model.PersonalInfo{
		TaxpayerName:  h.Taxpayer.Name,
		FilingStatus:  model.FilingSingle,
		State:         h.State,
		Address:       h.Profile.Address,
		ZIP:           h.ZIP,
		TaxpayerAge:   h.Profile.TaxpayerAge,
		Dependents:    h.Profile.Dependents,
		DependentAges: append([]int(nil), h.Profile.DependentAges...),
	}
	if h.Spouse != nil {
		p.SpouseName = h.Spouse.Name
		p.SpouseAge = h.Profile.SpouseAge
		p.FilingStatus = model.FilingMarriedJoint
	}
	return p
}

func employment(p *model.PersonProfile) []model.Employment {
	if p == nil || len(p.W2s) == 0 {
		return nil
	}
	out := make([]model.Employment, 0, len(p.W2s))
	for _, w := range p.W2s {
		out = append(out, model.Employment{
			Employer:       w.Employer,
			SourceFile:     w.SourceFile,
			Frequency:      model.FrequencyMonthly,
			GrossMonthly:   monthly(w.Wages),
			FederalTax:     monthly(w.FederalWithheld),
			StateTax:       monthly(w.StateWithheld),
			SocialSecurity: monthly(w.SocialSecurityWithheld),
			Medicare:       monthly(w.MedicareWithheld),
		})
	}
	return out
}

func otherIncome(p *model.PersonProfile) []model.IncomeSource {
	if p == nil || !p.OtherIncome.IsPositive() {
		return nil
	}
	return []model.IncomeSource{{
		Description: "1099 Income",
		Frequency:   model.FrequencyMonthly,
		Amount:      monthly(p.OtherIncome),
	}}
}

func livingExpenses(h *model.Household) model.LivingExpenses {
	d := h.Profile.Declared
	l := model.LivingExpenses{
		Utilities:         make(map[model.UtilityKind]decimal.Decimal, len(h.Utilities)),
		Food:              d.Food,
		Housekeeping:      d.Housekeeping,
		Clothing:          d.Clothing,
		PersonalCare:      d.PersonalCare,
		Miscellaneous:     d.Miscellaneous,
		Mortgage:          h.Housing.MortgagePayment,
		PropertyTax:       h.Housing.PropertyTaxMonthly,
		HomeInsurance:     h.Housing.HomeInsurance,
		PublicTransport:   d.PublicTransport,
		HealthInsurance:   h.HealthInsurance,
		OutOfPocketHealth: d.OutOfPocket,
		Prescriptions:     d.Prescriptions,
		ChildSupport:      d.ChildSupport,
		Alimony:           d.Alimony,
		Childcare:         d.Childcare,
		LifeInsurance:     d.LifeInsurance,
		EstimatedTax:      d.EstimatedTax,
		StudentLoan:       d.StudentLoan,
	}
	for kind, amount := range h.Utilities {
		l.Utilities[kind] = amount
	}
	if !h.Housing.MortgageBalance.IsPositive() && !h.Housing.MortgagePayment.IsPositive() {
		l.Rent = d.Rent
	}
	if !h.Vehicle.Repossessed {
		l.VehiclePayment1 = h.Vehicle.MonthlyPayment
		l.VehicleInsurance = h.Vehicle.Insurance
		l.VehicleGas = d.VehicleOperating
	}
	return l
}

func vehicle(h *model.Household) (model.Vehicle, bool) {
	v := h.Vehicle
	if v.Repossessed || !h.HasVehicleEvidence() {
		return model.Vehicle{}, false
	}
	out := model.Vehicle{
		Make:            v.Make,
		Model:           v.Model,
		Year:            v.Year,
		FairMarketValue: v.Value,
		LoanBalance:     v.LoanBalance,
		MonthlyPayment:  v.MonthlyPayment,
	}
	if out.Make == "" {
		if m := vehicleDescPattern.FindStringSubmatch(v.Description); m != nil {
			out.Year, _ = strconv.Atoi(m[1])
			out.Make, out.Model = m[2], m[3]
		}
	}
	if out.Make == "" {
		out.Make, out.Model = "Unknown", "Vehicle"
	}
	return out, true
}

// taxPeriods spreads the liability evenly over the most recent years. The
// last period absorbs rounding so the periods always sum to the liability.
func taxPeriods(liability decimal.Decimal, years []int) []model.TaxPeriod {
	if !liability.IsPositive() {
		return nil
	}
	if len(years) == 0 {
		return []model.TaxPeriod{{Balance: liability}}
	}

	recent := append([]int(nil), years...)
	sort.Ints(recent)
	if len(recent) > maxTaxPeriods {
		recent = recent[len(recent)-maxTaxPeriods:]
	}

	share := liability.Div(decimal.NewFromInt(int64(len(recent)))).Round(2)
	periods := make([]model.TaxPeriod, len(recent))
	remaining := liability
	for i, y := range recent {
		balance := share
		if i == len(recent)-1 {
			balance = remaining
		}
		periods[i] = model.TaxPeriod{Year: y, Balance: balance}
		remaining = remaining.Sub(balance)
	}
	return periods
}

func notes(h *model.Household) string {
	types := make([]string, 0, len(h.DocumentTypes))
	for t := range h.DocumentTypes {
		types = append(types, string(t))
	}
	sort.Strings(types)
	if len(types) == 0 {
		types = append(types, "none")
	}

	parts := []string{
		fmt.Sprintf("Auto-generated from %d documents.", h.DocumentsProcessed),
		"Types: " + strings.Join(types, ", ") + ".",
	}
	if n := len(h.Excluded); n > 0 {
		parts = append(parts, fmt.Sprintf("Excluded: %d documents.", n))
	}
	if h.Vehicle.Repossessed {
		desc := h.Vehicle.Description
		if desc == "" {
			desc = "unknown"
		}
		parts = append(parts, "Vehicle repossessed: "+desc+" - excluded from assets.")
	}
	return strings.Join(parts, " ")
}

func monthly(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve).Round(2)
}
