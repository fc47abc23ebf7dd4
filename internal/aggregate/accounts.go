package aggregate

import (
	"regexp"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
)

const (
	unknownBank           = "Unknown Bank"
	defaultRetirementName = "Retirement Account"
	checkingActivityFloor = 10
)

var retirementPattern = regexp.MustCompile(`(?i)\b401\s?\(?k\)?|\bira\b|\broth\b|\bretirement\b`)

var statementFolders = map[string]bool{
	"bank-statements": true,
	"bank_statements": true,
	"bankstatements":  true,
	"statements":      true,
}

var knownBanks = []string{
	"chase", "wells fargo", "bank of america", "citibank", "capital one",
	"us bank", "pnc", "td bank", "ally", "discover", "schwab", "fidelity",
	"vanguard", "usaa", "navy federal", "sofi", "marcus", "chime",
}

var knownBankPatterns = bankPatterns(knownBanks)

var bankAcronyms = map[string]bool{"us": true, "pnc": true, "td": true, "usaa": true}

var last4FilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)statements?[-_](\d{4})[-_.]`),
	regexp.MustCompile(`(?i)[-_](\d{4})[-_.]pdf`),
	regexp.MustCompile(`(?i)account[-_]?(\d{4})`),
	regexp.MustCompile(`(?i)[_-](\d{4})[_-]`),
}

// applyBankStatement records a deposit account balance. The account kind
// comes from the account_type field when present, then retirement keywords,
// then transaction volume.
func applyBankStatement(c *Context) error {
	f := c.fields.bank()
	if !f.HasBalance {
		c.Warn("No ending balance extracted from bank statement: %s", c.Doc.FileName())
		return nil
	}

	kind := f.AccountType
	if kind == "" {
		switch {
		case retirementPattern.MatchString(c.Doc.Text):
			kind = model.AccountRetirement
		case len(c.Doc.Amounts) > checkingActivityFloor:
			kind = model.AccountChecking
		default:
			kind = model.AccountSavings
		}
	}

	institution := f.Institution
	if institution == "" {
		institution = institutionFromPath(c.Doc.FileID)
	}
	if institution == "" {
		institution = institutionFromText(c.Doc.Text)
	}
	if institution == "" {
		institution = unknownBank
	}

	last4 := f.AccountLast4
	if last4 == "" {
		last4 = last4FromPath(c.Doc.FileName())
	}

	mergeAccount(c, model.BankAccountRecord{
		Institution:  institution,
		Kind:         kind,
		Owner:        c.Attribution.Owner,
		OwnerName:    ownerName(c),
		AccountLast4: last4,
		SourceFile:   c.Doc.FileName(),
		Balance:      f.EndingBalance,
	}, "bank_account."+institution+"."+string(kind))
	return nil
}

// applyRetirement records a retirement account balance.
func applyRetirement(c *Context) error {
	f := c.fields.retirement()
	if !f.HasBalance {
		c.Warn("No account balance extracted from retirement statement: %s", c.Doc.FileName())
		return nil
	}

	institution := f.Institution
	if institution == "" {
		institution = defaultRetirementName
	}
	last4 := f.AccountLast4
	if last4 == "" {
		last4 = last4FromPath(c.Doc.FileName())
	}

	mergeAccount(c, model.BankAccountRecord{
		Institution:  institution,
		Kind:         model.AccountRetirement,
		Owner:        c.Attribution.Owner,
		OwnerName:    ownerName(c),
		AccountLast4: last4,
		SourceFile:   c.Doc.FileName(),
		Balance:      f.AccountBalance,
	}, "retirement."+institution)
	return nil
}

// mergeAccount collapses repeated statements for the same account into the
// higher balance, warning once per collision.
func mergeAccount(c *Context, rec model.BankAccountRecord, path string) {
	h := c.Household
	key := rec.DedupKey()
	for i := range h.BankAccounts {
		existing := &h.BankAccounts[i]
		if existing.DedupKey() != key {
			continue
		}
		c.Warn("Duplicate statement for %s %s - used higher balance", rec.Institution, rec.Kind)
		if rec.Balance.GreaterThan(existing.Balance) {
			existing.Balance = rec.Balance
			existing.SourceFile = rec.SourceFile
			c.Record(path, rec.Balance, 1.0, "Ending balance: "+model.FormatUSD(rec.Balance))
		}
		return
	}

	h.BankAccounts = append(h.BankAccounts, rec)
	c.Record(path, rec.Balance, 1.0, "Ending balance: "+model.FormatUSD(rec.Balance))
}

func ownerName(c *Context) string {
	if c.Attribution.Name != "" {
		return c.Attribution.Name
	}
	return c.Person().Name
}

// institutionFromPath uses the folder a statement was filed under, e.g.
// bank-statements/Chase/march.pdf.
func institutionFromPath(fileID string) string {
	parts := strings.Split(strings.ReplaceAll(fileID, "\\", "/"), "/")
	for i, part := range parts {
		if !statementFolders[strings.ToLower(part)] || i+2 >= len(parts) {
			continue
		}
		folder := parts[i+1]
		lower := strings.ToLower(folder)
		if folder == "" || strings.HasSuffix(lower, ".pdf") || strings.HasPrefix(lower, "unlocked") {
			continue
		}
		return folder
	}
	return ""
}

func bankPatterns(names []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(names))
	for i, name := range names {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	}
	return patterns
}

func institutionFromText(text string) string {
	for i, re := range knownBankPatterns {
		if re.MatchString(text) {
			return titleCase(knownBanks[i])
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if bankAcronyms[w] {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func last4FromPath(file string) string {
	for _, re := range last4FilePatterns {
		if m := re.FindStringSubmatch(file); m != nil {
			return m[1]
		}
	}
	return ""
}
