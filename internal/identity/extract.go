package identity

import (
	"regexp"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
)

// nameRule extracts a candidate owner name from document text.
type nameRule struct {
	pattern *regexp.Regexp
	name    string
	types   []model.DocumentType
	groups  []int
}

func (r nameRule) appliesTo(t model.DocumentType) bool {
	if len(r.types) == 0 {
		return true
	}
	for _, candidate := range r.types {
		if candidate == t {
			return true
		}
	}
	return false
}

const personName = `([A-Z][a-z]+(?:\s+[A-Z]\.?)?\s+[A-Z][a-z]+)`

var payStubOnly = []model.DocumentType{model.DocumentPayStub}

// nameRules are evaluated in order; the first match wins.
var nameRules = []nameRule{
	{
		name:    "pay stub name above address",
		pattern: regexp.MustCompile(personName + `\s*\n\s*\d+\s+[A-Za-z]`),
		types:   payStubOnly,
		groups:  []int{1},
	},
	{
		name:    "pay stub name before SSN",
		pattern: regexp.MustCompile(`(?i)` + personName + `\s*(?:SSN|Social\s+Security)`),
		types:   payStubOnly,
		groups:  []int{1},
	},
	{
		name:    "pay stub paid to",
		pattern: regexp.MustCompile(`(?i)(?:paid\s+to|employee)[:\s]+` + personName),
		types:   payStubOnly,
		groups:  []int{1},
	},
	{
		name:    "pay stub deposit line",
		pattern: regexp.MustCompile(`(?is)(?:deposited|pay\s+date).*?` + personName + `\s*\n`),
		types:   payStubOnly,
		groups:  []int{1},
	},
	{
		name:    "employee name label",
		pattern: regexp.MustCompile(`(?i)(?:employee\s+)?name[:\s]*([A-Za-z]+)\s+([A-Za-z]+)`),
		groups:  []int{1, 2},
	},
	{
		name:    "account holder label",
		pattern: regexp.MustCompile(`(?i)(?:account\s+holder|name|customer)[:\s]*([A-Za-z]+(?:[ \t]+[A-Za-z]+)+)`),
		groups:  []int{1},
	},
	{
		name:    "pay stub name near SSN",
		pattern: regexp.MustCompile(`(?is)` + personName + `.*?(?:XXX-XX-XXXX|\d{3}-\d{2}-\d{4})`),
		types:   payStubOnly,
		groups:  []int{1},
	},
}

// ownerFields are metadata keys that name the document owner directly.
var ownerFields = []string{"employee_name", "account_holder", "taxpayer_name", "recipient_name"}

// CandidateName returns the owner name a document names, and the rule that
// found it. Both are empty when no name can be extracted.
func CandidateName(doc model.RawDocument) (string, string) {
	for _, key := range ownerFields {
		if v, ok := doc.Field(key); ok {
			return collapseDoubled(v), "field " + key
		}
	}

	for _, rule := range nameRules {
		if !rule.appliesTo(doc.Type) {
			continue
		}
		m := rule.pattern.FindStringSubmatch(doc.Text)
		if m == nil {
			continue
		}
		parts := make([]string, 0, len(rule.groups))
		for _, g := range rule.groups {
			parts = append(parts, strings.TrimSpace(m[g]))
		}
		if name := collapseDoubled(strings.Join(parts, " ")); name != "" {
			return name, rule.name
		}
	}
	return "", ""
}
