// Package identity attributes documents to household members.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
)

const matchThreshold = 0.7

// Policy decides what happens to a document whose owner cannot be read.
type Policy string

// Unresolved-owner policies.
const (
	PolicyTaxpayer Policy = "taxpayer"
	PolicyExclude  Policy = "exclude"
)

// ParsePolicy validates a configured policy name. Empty means taxpayer.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyTaxpayer:
		return PolicyTaxpayer, nil
	case PolicyExclude:
		return PolicyExclude, nil
	}
	return "", fmt.Errorf("unknown unresolved-owner policy %q", s)
}

// Attribution is the ownership decision for one document.
type Attribution struct {
	Owner   model.Owner
	Name    string
	Rule    string
	Reason  string
	Warning string
	Score   float64
}

// Resolver matches extracted names against the configured people.
type Resolver struct {
	taxpayer       string
	spouse         string
	policy         Policy
	taxpayerTokens []*regexp.Regexp
	spouseTokens   []*regexp.Regexp
}

// NewResolver creates a resolver. spouse may be empty.
func NewResolver(taxpayer, spouse string, policy Policy) *Resolver {
	if policy == "" {
		policy = PolicyTaxpayer
	}
	return &Resolver{
		taxpayer:       taxpayer,
		spouse:         spouse,
		policy:         policy,
		taxpayerTokens: tokenPatterns(taxpayer),
		spouseTokens:   tokenPatterns(spouse),
	}
}

// Attribute decides who a document belongs to. It always returns a decision.
func (r *Resolver) Attribute(doc model.RawDocument) Attribution {
	name, rule := CandidateName(doc)

	if name == "" {
		if r.jointInText(doc.Text) {
			return Attribution{Owner: model.OwnerJoint, Name: r.jointName(), Rule: "names in text"}
		}
		if r.policy == PolicyExclude {
			return Attribution{
				Owner:  model.OwnerExcluded,
				Reason: "Owner could not be determined",
			}
		}
		return Attribution{
			Owner:   model.OwnerTaxpayer,
			Name:    r.taxpayer,
			Warning: fmt.Sprintf("Could not extract owner name from %s; attributed to taxpayer", doc.FileID),
		}
	}

	if score := Similarity(name, r.taxpayer); score >= matchThreshold {
		return Attribution{Owner: model.OwnerTaxpayer, Name: name, Rule: rule, Score: score}
	}
	if r.spouse != "" {
		if score := Similarity(name, r.spouse); score >= matchThreshold {
			return Attribution{Owner: model.OwnerSpouse, Name: name, Rule: rule, Score: score}
		}
		if r.jointInText(doc.Text) {
			return Attribution{Owner: model.OwnerJoint, Name: r.jointName(), Rule: "names in text"}
		}
	}

	return Attribution{
		Owner:  model.OwnerExcluded,
		Name:   name,
		Rule:   rule,
		Reason: fmt.Sprintf("Owner '%s' not taxpayer/spouse", name),
	}
}

func (r *Resolver) jointName() string {
	return r.taxpayer + " & " + r.spouse
}

// jointInText reports whether every token of both configured names appears
// as a word in the text.
func (r *Resolver) jointInText(text string) bool {
	if r.spouse == "" || text == "" {
		return false
	}
	return matchesAll(text, r.taxpayerTokens) && matchesAll(text, r.spouseTokens)
}

func tokenPatterns(name string) []*regexp.Regexp {
	tokens := strings.Fields(Normalize(name))
	patterns := make([]*regexp.Regexp, 0, len(tokens))
	for _, tok := range tokens {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(tok)+`\b`))
	}
	return patterns
}

func matchesAll(text string, patterns []*regexp.Regexp) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		if !p.MatchString(text) {
			return false
		}
	}
	return true
}
