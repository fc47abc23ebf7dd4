package aggregate

import (
	"regexp"

	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// applyMortgage tracks the mortgage as running maxima across statements.
func applyMortgage(c *Context) error {
	f := c.fields.mortgage()
	housing := &c.Household.Housing

	if maxInto(&housing.MortgageBalance, f.PrincipalBalance) {
		c.Record("housing.mortgage_balance", f.PrincipalBalance, 1.0, "Principal balance: "+model.FormatUSD(f.PrincipalBalance))
	}
	if maxInto(&housing.MortgagePayment, f.MonthlyPayment) {
		c.Record("housing.mortgage_payment", f.MonthlyPayment, 1.0, "Monthly payment: "+model.FormatUSD(f.MonthlyPayment))
	}
	if maxInto(&housing.PropertyValue, f.PropertyValue) {
		c.Record("housing.property_value", f.PropertyValue, 0.8, "Property value: "+model.FormatUSD(f.PropertyValue))
	}

	if !f.PrincipalBalance.IsPositive() && !f.MonthlyPayment.IsPositive() {
		c.Warn("No mortgage balance or payment extracted from: %s", c.Doc.FileName())
	}
	return nil
}

// applyPropertyTax records the assessed value and the monthly share of the
// annual tax.
func applyPropertyTax(c *Context) error {
	f := c.fields.propertyTax()
	housing := &c.Household.Housing

	if maxInto(&housing.PropertyValue, f.AssessedValue) {
		c.Record("housing.property_value", f.AssessedValue, 0.8, "Assessed value: "+model.FormatUSD(f.AssessedValue))
	}
	if f.AnnualTax.IsPositive() {
		monthly := f.AnnualTax.Div(decimal.NewFromInt(12)).Round(2)
		if maxInto(&housing.PropertyTaxMonthly, monthly) {
			c.Record("property_tax.monthly", monthly, 1.0, "Annual tax: "+model.FormatUSD(f.AnnualTax))
		}
	} else if !f.AssessedValue.IsPositive() {
		c.Warn("No property tax amount extracted from: %s", c.Doc.FileName())
	}
	return nil
}

type insuranceKind string

const (
	insuranceAuto   insuranceKind = "auto"
	insuranceHome   insuranceKind = "home"
	insuranceHealth insuranceKind = "health"
)

var insuranceRules = []struct {
	pattern *regexp.Regexp
	kind    insuranceKind
}{
	{regexp.MustCompile(`(?i)\b(?:auto|vehicle|car)\b`), insuranceAuto},
	{regexp.MustCompile(`(?i)\b(?:home|homeowners?|property|dwelling)\b`), insuranceHome},
	{regexp.MustCompile(`(?i)\b(?:health|medical|dental)\b`), insuranceHealth},
}

func classifyInsurance(s string) insuranceKind {
	for _, rule := range insuranceRules {
		if rule.pattern.MatchString(s) {
			return rule.kind
		}
	}
	return ""
}

// applyInsurance normalizes a premium to monthly and files it under auto,
// home or health coverage.
func applyInsurance(c *Context) error {
	f := c.fields.insurance()
	file := c.Doc.FileName()
	if !f.PremiumAmount.IsPositive() {
		c.Warn("No premium extracted from insurance statement: %s", file)
		return nil
	}

	freq := f.PremiumFrequency
	if freq == "" {
		freq = model.FrequencyMonthly
	}
	monthly := f.PremiumAmount.Mul(freq.MonthlyMultiplier()).Round(2)

	kind := classifyInsurance(f.PolicyType)
	if kind == "" {
		kind = classifyInsurance(file + " " + c.Doc.Text)
	}

	raw := "Premium: " + model.FormatUSD(f.PremiumAmount) + " " + string(freq)
	switch kind {
	case insuranceAuto:
		if maxInto(&c.Household.Vehicle.Insurance, monthly) {
			c.Record("insurance.auto", monthly, 0.9, raw)
		}
	case insuranceHome:
		if maxInto(&c.Household.Housing.HomeInsurance, monthly) {
			c.Record("insurance.home", monthly, 0.9, raw)
		}
	case insuranceHealth:
		if maxInto(&c.Household.HealthInsurance, monthly) {
			c.Record("insurance.health", monthly, 0.9, raw)
		}
	default:
		c.Warn("Could not classify insurance policy: %s", file)
	}
	return nil
}
