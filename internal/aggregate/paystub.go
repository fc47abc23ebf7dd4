package aggregate

import (
	"regexp"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// frequencyRule maps text evidence to a pay frequency.
type frequencyRule struct {
	pattern   *regexp.Regexp
	frequency model.Frequency
}

// frequencyKeywordRules are checked in order against the pay stub text.
var frequencyKeywordRules = []frequencyRule{
	{regexp.MustCompile(`(?i)\b(?:uber|lyft|doordash|grubhub|instacart|postmates)\b|monthly summary|tax summary for`), model.FrequencyMonthly},
	{regexp.MustCompile(`(?i)\bbi[-\s]?weekly\b|every (?:two|2) weeks`), model.FrequencyBiWeekly},
	{regexp.MustCompile(`(?i)\bsemi[-\s]?monthly\b|twice a month`), model.FrequencySemiMonthly},
	{regexp.MustCompile(`(?i)\bweekly\b`), model.FrequencyWeekly},
	{regexp.MustCompile(`(?i)\bmonthly\b`), model.FrequencyMonthly},
}

const defaultPayFrequency = model.FrequencyBiWeekly

// frequencyFromDays buckets the length of a pay interval.
func frequencyFromDays(days int) model.Frequency {
	switch {
	case days <= 7:
		return model.FrequencyWeekly
	case days <= 16:
		return model.FrequencyBiWeekly
	case days <= 20:
		return model.FrequencySemiMonthly
	default:
		return model.FrequencyMonthly
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// payFrequency runs the frequency cascade and names the step that decided.
func payFrequency(f model.PayStubFields, text, employer string, previous *model.W2Record) (model.Frequency, string) {
	if f.PayFrequency != "" {
		return f.PayFrequency, "field"
	}
	if isGigEmployer(employer) {
		return model.FrequencyMonthly, "gig platform"
	}
	for _, rule := range frequencyKeywordRules {
		if rule.pattern.MatchString(text) {
			return rule.frequency, "text"
		}
	}
	if !f.PayPeriodStart.IsZero() && !f.PayPeriodEnd.IsZero() && f.PayPeriodEnd.After(f.PayPeriodStart) {
		return frequencyFromDays(daysBetween(f.PayPeriodStart, f.PayPeriodEnd)), "pay period"
	}
	if previous != nil && !previous.LastPayDate.IsZero() {
		if current := payDate(f); !current.IsZero() && !current.Equal(previous.LastPayDate) {
			days := daysBetween(previous.LastPayDate, current)
			if days < 0 {
				days = -days
			}
			return frequencyFromDays(days), "previous stub"
		}
	}
	return defaultPayFrequency, "default"
}

func payDate(f model.PayStubFields) time.Time {
	if !f.PayDate.IsZero() {
		return f.PayDate
	}
	return f.PayPeriodEnd
}

// annualWages estimates annual pay. Year-to-date gross is extrapolated by
// the elapsed share of the year once the pay date is a month in; otherwise
// it is used as-is. Without YTD the period gross is annualized.
func annualWages(f model.PayStubFields, freq model.Frequency) decimal.Decimal {
	if f.YTDGross.IsPositive() {
		if date := payDate(f); !date.IsZero() && date.YearDay() > 30 {
			return f.YTDGross.Mul(decimal.NewFromInt(365)).
				Div(decimal.NewFromInt(int64(date.YearDay()))).Round(2)
		}
		return f.YTDGross
	}
	return annualize(f.GrossPay, freq)
}

func annualize(amount decimal.Decimal, freq model.Frequency) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(freq.PeriodsPerYear())).Round(2)
}

// applyPayStub estimates annual wages from a pay stub. It defers to a W-2
// for the same employer and otherwise keeps the larger estimate per employer.
func applyPayStub(c *Context) error {
	f := c.fields.payStub()
	file := c.Doc.FileName()

	employer := f.EmployerName
	if employer == "" {
		employer = employerFromPath(c.Doc.FileID)
	}
	if employer == "" {
		employer = unknownEmployer
	}

	person := c.Person()
	var previous *model.W2Record
	for i := range person.W2s {
		rec := &person.W2s[i]
		if !EmployersMatch(rec.Employer, employer) {
			continue
		}
		if rec.Origin == model.OriginW2 {
			c.Warn("Pay stub %s skipped: W-2 on file for %s", file, rec.Employer)
			return nil
		}
		if previous == nil {
			previous = rec
		}
	}

	if !f.GrossPay.IsPositive() && !f.YTDGross.IsPositive() {
		c.Warn("No gross pay extracted from paystub: %s", file)
		return nil
	}

	freq, decidedBy := payFrequency(f, c.Doc.Text, employer, previous)
	annual := annualWages(f, freq)
	if !annual.IsPositive() {
		c.Warn("Pay stub %s has %s frequency; no annual wage estimated", file, freq)
		return nil
	}

	applied := true
	if previous != nil {
		applied = annual.GreaterThan(previous.Wages)
		if applied {
			previous.Wages = annual
			previous.SourceFile = file
			previous.Frequency = freq
		}
		if d := payDate(f); d.After(previous.LastPayDate) {
			previous.LastPayDate = d
		}
	} else {
		person.W2s = append(person.W2s, model.W2Record{
			LastPayDate:     payDate(f),
			Employer:        employer,
			SourceFile:      file,
			Origin:          model.OriginPayStub,
			Frequency:       freq,
			Wages:           annual,
			FederalWithheld: annualize(f.FederalTax, freq),
		})
	}

	if applied {
		confidence := 0.7
		if f.YTDGross.IsPositive() {
			confidence = 0.8
		}
		c.Record(c.OwnerPrefix()+".paystub."+employer+".wages", annual, confidence,
			"Gross: "+f.GrossPay.StringFixed(2)+", YTD: "+f.YTDGross.StringFixed(2)+", Freq: "+string(freq))
	}

	common.LogDebug("Pay stub processed", common.Fields{
		"employer":   employer,
		"annual":     annual.String(),
		"applied":    applied,
		"frequency":  string(freq),
		"decided_by": decidedBy,
	})
	return nil
}
