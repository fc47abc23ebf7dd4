package aggregate

import (
	"fmt"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const unknownEmployer = "Unknown Employer"

// applyW2 records one authoritative wage record. A W-2 replaces a pay stub
// estimate for the same employer; an identical copy is skipped.
func applyW2(c *Context) error {
	f := c.fields.w2()
	file := c.Doc.FileName()
	if !f.Wages.IsPositive() {
		c.Warn("No wages extracted from W-2: %s", file)
		return nil
	}

	employer := f.EmployerName
	if employer == "" {
		employer = unknownEmployer
	}
	record := model.W2Record{
		Employer:               employer,
		SourceFile:             file,
		Origin:                 model.OriginW2,
		Frequency:              model.FrequencyAnnually,
		Wages:                  f.Wages,
		FederalWithheld:        f.FederalWithheld,
		StateWithheld:          f.StateWithheld,
		SocialSecurityWithheld: f.SocialSecurityWithheld,
		MedicareWithheld:       f.MedicareWithheld,
	}

	person := c.Person()
	index := len(person.W2s)
	for i, existing := range person.W2s {
		if !EmployersMatch(existing.Employer, employer) {
			continue
		}
		switch {
		case existing.Origin == model.OriginPayStub:
			c.Warn("W-2 %s supersedes pay stub estimate for %s", file, existing.Employer)
		case existing.Wages.Equal(f.Wages):
			c.Warn("Duplicate W-2 for %s in %s - skipped", employer, file)
			return nil
		case existing.Wages.GreaterThanOrEqual(f.Wages):
			c.Warn("Conflicting W-2s for %s - used higher wages from %s", employer, existing.SourceFile)
			return nil
		default:
			c.Warn("Conflicting W-2s for %s - used higher wages from %s", employer, file)
		}
		index = i
		break
	}

	if index == len(person.W2s) {
		person.W2s = append(person.W2s, record)
	} else {
		person.W2s[index] = record
	}

	prefix := fmt.Sprintf("%s.w2_%d", c.OwnerPrefix(), index+1)
	c.Record(prefix+".wages", f.Wages, 1.0, "Wages: "+f.Wages.StringFixed(2))
	recordIfPositive(c, prefix+".federal_withheld", f.FederalWithheld, "Federal income tax withheld")
	recordIfPositive(c, prefix+".state_withheld", f.StateWithheld, "State income tax withheld")
	recordIfPositive(c, prefix+".social_security_withheld", f.SocialSecurityWithheld, "Social security tax withheld")
	recordIfPositive(c, prefix+".medicare_withheld", f.MedicareWithheld, "Medicare tax withheld")
	return nil
}

// apply1099 adds non-employee income to the owner's other income.
func apply1099(c *Context) error {
	f := c.fields.form1099()
	if !f.GrossIncome.IsPositive() {
		c.Warn("No income extracted from 1099: %s", c.Doc.FileName())
		return nil
	}

	person := c.Person()
	person.OtherIncome = person.OtherIncome.Add(f.GrossIncome)

	raw := "Gross income: " + f.GrossIncome.StringFixed(2)
	if f.PayerName != "" {
		raw += " from " + f.PayerName
	}
	c.Record(c.OwnerPrefix()+".other_income.1099", f.GrossIncome, 1.0, raw)
	common.LogDebug("1099 income recorded", common.Fields{"file": c.Doc.FileID, "amount": f.GrossIncome.String()})
	return nil
}

func recordIfPositive(c *Context, path string, amount decimal.Decimal, label string) {
	if amount.IsPositive() {
		c.Record(path, amount, 1.0, label+": "+amount.StringFixed(2))
	}
}
