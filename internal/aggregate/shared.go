package aggregate

import (
	"regexp"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
)

var statePattern = regexp.MustCompile(`\b([A-Z]{2})\s+(\d{5}(?:-\d{4})?)\b`)

var postalCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "DC": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true,
	"IN": true, "IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true,
	"NV": true, "NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true,
	"OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true,
	"TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "PR": true, "GU": true, "VI": true,
}

// isPriorityDocument reports whether the document's address is the
// taxpayer's own: employment records beat bills and statements.
func isPriorityDocument(t model.DocumentType) bool {
	return t == model.DocumentW2 || t == model.DocumentPayStub
}

// extractSharedInfo sets the household state and ZIP. A configured state
// always wins; otherwise the first W-2 or pay stub address wins, and the
// first address on any other document is used until one arrives.
func (a *Aggregator) extractSharedInfo(c *Context) {
	if a.stateOverride != "" || a.statePriority {
		return
	}

	state, zip := findState(c)
	if state == "" {
		return
	}

	h := c.Household
	switch {
	case isPriorityDocument(c.Doc.Type):
		a.statePriority = true
	case h.State != "":
		return
	}

	h.State = state
	c.RecordText("household.state", state, 0.8, "Address state "+state)
	if zip != "" {
		h.ZIP = zip
		c.RecordText("household.zip", zip, 0.8, "Address ZIP "+zip)
	}
}

func findState(c *Context) (string, string) {
	if c.Doc.Type == model.DocumentW2 {
		if s := strings.ToUpper(c.fields.text("state")); postalCodes[s] {
			return s, c.fields.text("zip", "zip_code")
		}
	}
	for _, m := range statePattern.FindAllStringSubmatch(c.Doc.Text, -1) {
		if postalCodes[m[1]] {
			return m[1], m[2]
		}
	}
	return "", ""
}
