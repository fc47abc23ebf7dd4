package aggregate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"01/02/2006",
	"01-02-2006",
	"2006-01-02",
	"01/02/06",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var digitsPattern = regexp.MustCompile(`\d`)

// fieldReader converts the untyped extraction map into typed values.
// Values that are present but unparseable produce a warning and are omitted.
type fieldReader struct {
	warn func(string)
	doc  model.RawDocument
}

func (r fieldReader) text(keys ...string) string {
	for _, k := range keys {
		if v, ok := r.doc.Field(k); ok {
			return v
		}
	}
	return ""
}

func (r fieldReader) amount(keys ...string) (decimal.Decimal, bool) {
	for _, k := range keys {
		v, ok := r.doc.Field(k)
		if !ok {
			continue
		}
		d, err := model.ParseAmount(v)
		if err != nil {
			r.unparseable(k, v)
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

func (r fieldReader) money(keys ...string) decimal.Decimal {
	d, _ := r.amount(keys...)
	return d
}

func (r fieldReader) date(keys ...string) time.Time {
	for _, k := range keys {
		v, ok := r.doc.Field(k)
		if !ok {
			continue
		}
		if t, ok := parseDate(v); ok {
			return t
		}
		r.unparseable(k, v)
		return time.Time{}
	}
	return time.Time{}
}

func (r fieldReader) integer(keys ...string) int {
	for _, k := range keys {
		v, ok := r.doc.Field(k)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			r.unparseable(k, v)
			return 0
		}
		return n
	}
	return 0
}

func (r fieldReader) frequency(keys ...string) model.Frequency {
	for _, k := range keys {
		v, ok := r.doc.Field(k)
		if !ok {
			continue
		}
		if f, ok := model.ParseFrequency(v); ok {
			return f
		}
		r.unparseable(k, v)
		return ""
	}
	return ""
}

// last4 keeps the trailing four digits of an account number.
func (r fieldReader) last4(keys ...string) string {
	v := r.text(keys...)
	digits := strings.Join(digitsPattern.FindAllString(v, -1), "")
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

func (r fieldReader) unparseable(key, value string) {
	r.warn(fmt.Sprintf("Unparseable %s in %s: %q", key, r.doc.FileName(), value))
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (r fieldReader) w2() model.W2Fields {
	return model.W2Fields{
		EmployerName:           r.text("employer_name", "employer"),
		EmployeeName:           r.text("employee_name"),
		State:                  strings.ToUpper(r.text("state")),
		Wages:                  r.money("wages_tips", "wages", "gross_income"),
		FederalWithheld:        r.money("federal_income_tax_withheld", "federal_withheld"),
		StateWithheld:          r.money("state_tax", "state_withheld"),
		SocialSecurityWithheld: r.money("social_security", "social_security_withheld"),
		MedicareWithheld:       r.money("medicare", "medicare_withheld"),
	}
}

func (r fieldReader) payStub() model.PayStubFields {
	return model.PayStubFields{
		PayPeriodStart: r.date("pay_period_start"),
		PayPeriodEnd:   r.date("pay_period_end"),
		PayDate:        r.date("pay_date", "check_date"),
		EmployerName:   r.text("employer_name", "employer"),
		EmployeeName:   r.text("employee_name"),
		PayFrequency:   r.frequency("pay_frequency"),
		GrossPay:       r.money("gross_income", "gross_pay"),
		YTDGross:       r.money("ytd_gross"),
		FederalTax:     r.money("federal_tax", "federal_income_tax"),
	}
}

func (r fieldReader) bank() model.BankFields {
	balance, ok := r.amount("ending_balance", "balance")
	kind := model.AccountKind(strings.ToLower(r.text("account_type")))
	switch kind {
	case "", model.AccountChecking, model.AccountSavings, model.AccountRetirement:
	default:
		r.unparseable("account_type", string(kind))
		kind = ""
	}
	return model.BankFields{
		Institution:   r.text("institution_name", "institution", "bank_name"),
		AccountType:   kind,
		AccountLast4:  r.last4("account_last4", "account_number"),
		AccountHolder: r.text("account_holder"),
		EndingBalance: balance,
		HasBalance:    ok,
	}
}

func (r fieldReader) retirement() model.RetirementFields {
	balance, ok := r.amount("account_balance", "ending_balance")
	return model.RetirementFields{
		Institution:    r.text("institution_name", "institution"),
		AccountLast4:   r.last4("account_last4", "account_number"),
		AccountHolder:  r.text("account_holder"),
		AccountBalance: balance,
		HasBalance:     ok,
	}
}

func (r fieldReader) utility() model.UtilityFields {
	kind := model.UtilityKind(strings.ToLower(r.text("utility_type")))
	if kind != "" && !isUtilityKind(kind) {
		r.unparseable("utility_type", string(kind))
		kind = ""
	}
	return model.UtilityFields{
		Provider:  r.text("provider", "provider_name"),
		Kind:      kind,
		AmountDue: r.money("amount_due", "total_due"),
	}
}

func (r fieldReader) mortgage() model.MortgageFields {
	return model.MortgageFields{
		Lender:           r.text("lender", "lender_name"),
		PrincipalBalance: r.money("principal_balance"),
		MonthlyPayment:   r.money("monthly_payment"),
		PropertyValue:    r.money("property_value"),
	}
}

func (r fieldReader) propertyTax() model.PropertyTaxFields {
	return model.PropertyTaxFields{
		AssessedValue: r.money("assessed_value"),
		AnnualTax:     r.money("property_tax_amount", "annual_tax"),
	}
}

func (r fieldReader) insurance() model.InsuranceFields {
	return model.InsuranceFields{
		PolicyType:       strings.ToLower(r.text("policy_type", "insurance_type")),
		PremiumFrequency: r.frequency("premium_frequency"),
		PremiumAmount:    r.money("premium_amount"),
	}
}

func (r fieldReader) form1099() model.Form1099Fields {
	return model.Form1099Fields{
		PayerName:   r.text("payer_name"),
		GrossIncome: r.money("gross_income", "nonemployee_compensation"),
	}
}

func (r fieldReader) vehicle() model.VehicleFields {
	return model.VehicleFields{
		Description:    r.text("description", "vehicle"),
		Make:           r.text("make"),
		Model:          r.text("model"),
		Lender:         r.text("lender", "lender_name"),
		Year:           r.integer("year"),
		MarketValue:    r.money("market_value", "fair_market_value"),
		LoanBalance:    r.money("loan_balance", "payoff_amount"),
		MonthlyPayment: r.money("monthly_payment"),
	}
}

func isUtilityKind(kind model.UtilityKind) bool {
	for _, k := range model.UtilityKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
