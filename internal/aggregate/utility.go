package aggregate

import (
	"regexp"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
)

// utilityRule classifies a bill by keyword. Rules are checked in order, so
// more specific services come before the generic ones they overlap with.
type utilityRule struct {
	pattern *regexp.Regexp
	kind    model.UtilityKind
}

var utilityRules = []utilityRule{
	{regexp.MustCompile(`(?i)\bcell\s*phone|\bmobile\s+phone|\bwireless\s+phone|\bcellular\b`), model.UtilityCell},
	{regexp.MustCompile(`(?i)\b(?:internet|broadband|dsl|fiber|fios)\b`), model.UtilityInternet},
	{regexp.MustCompile(`(?i)\bcable\s+tv\b|\b(?:television|hbo|directv|dish)\b`), model.UtilityCable},
	{regexp.MustCompile(`(?i)\b(?:landline|home\s+phone|telephone)\b`), model.UtilityPhone},
	{regexp.MustCompile(`(?i)\b(?:electric(?:ity)?|power|energy|kwh|con\s*ed(?:ison)?|pge|pg&e|duke\s+energy|national\s+grid)\b`), model.UtilityElectric},
	{regexp.MustCompile(`(?i)\b(?:natural\s+gas|gas|therms?|keyspan|national\s+fuel)\b`), model.UtilityGas},
	{regexp.MustCompile(`(?i)\b(?:water|sewer)\b`), model.UtilityWater},
	{regexp.MustCompile(`(?i)\b(?:trash|garbage|waste|refuse|recycling|sanitation)\b`), model.UtilityTrash},
}

// providerRules name the usual service of a provider. They only apply when
// no service keyword matched anywhere.
var providerRules = []utilityRule{
	{regexp.MustCompile(`(?i)\b(?:verizon|at&t|t-mobile|sprint|metro\s*pcs)\b`), model.UtilityCell},
	{regexp.MustCompile(`(?i)\b(?:spectrum|comcast|xfinity|optimum)\b`), model.UtilityInternet},
}

func classify(rules []utilityRule, s string) model.UtilityKind {
	for _, rule := range rules {
		if rule.pattern.MatchString(s) {
			return rule.kind
		}
	}
	return ""
}

// classifyUtility checks the file name first, then the bill body, then the
// provider fallbacks across both.
func classifyUtility(file, body string) model.UtilityKind {
	file = strings.ReplaceAll(file, "_", " ")
	if kind := classify(utilityRules, file); kind != "" {
		return kind
	}
	if kind := classify(utilityRules, body); kind != "" {
		return kind
	}
	return classify(providerRules, file+" "+body)
}

// applyUtility keeps the highest monthly bill seen per utility kind.
func applyUtility(c *Context) error {
	f := c.fields.utility()
	file := c.Doc.FileName()
	if !f.AmountDue.IsPositive() {
		c.Warn("No amount due extracted from utility bill: %s", file)
		return nil
	}

	kind := f.Kind
	if kind == "" {
		kind = classifyUtility(file, f.Provider+" "+c.Doc.Text)
	}
	if kind == "" {
		c.Warn("Could not classify utility bill: %s", file)
		return nil
	}

	current := c.Household.Utilities[kind]
	if maxInto(&current, f.AmountDue) {
		c.Household.Utilities[kind] = current
		c.Record("utilities."+string(kind), f.AmountDue, 0.9, "Amount due: "+model.FormatUSD(f.AmountDue))
	}
	return nil
}
