package aggregate

import (
	"slices"
	"strconv"
	"strings"
)

const earliestTaxYear = 2018

// applyTranscript records the balance due and the tax years an IRS account
// transcript covers.
func applyTranscript(c *Context) error {
	h := c.Household
	found := false
	for _, a := range c.Doc.Amounts {
		label := strings.ToLower(a.Label)
		if !strings.Contains(label, "balance") && !strings.Contains(label, "amount due") {
			continue
		}
		found = true
		if maxInto(&h.TaxLiability, a.Amount) {
			c.Record("tax_liability", a.Amount, 0.9, a.Label+": "+a.Amount.StringFixed(2))
		}
	}
	if balance, ok := c.fields.amount("balance_due", "account_balance"); ok {
		found = true
		if maxInto(&h.TaxLiability, balance) {
			c.Record("tax_liability", balance, 1.0, "Balance due: "+balance.StringFixed(2))
		}
	}
	if !found {
		c.Warn("No balance extracted from IRS transcript: %s", c.Doc.FileName())
	}

	years := make([]int, 0, len(c.Doc.Dates)+1)
	for _, d := range c.Doc.Dates {
		years = append(years, d.Date.Year())
	}
	if y := c.fields.integer("tax_year"); y > 0 {
		years = append(years, y)
	}
	for _, y := range years {
		if y < earliestTaxYear || slices.Contains(h.TaxYears, y) {
			continue
		}
		h.TaxYears = append(h.TaxYears, y)
		c.RecordText("tax_years", strconv.Itoa(y), 0.8, "Tax period "+strconv.Itoa(y))
	}
	return nil
}
