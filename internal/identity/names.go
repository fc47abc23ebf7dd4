package identity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

var (
	honorificPattern = regexp.MustCompile(`(?i)\b(mr|mrs|ms|dr|jr|sr|iii|ii|iv)\b\.?`)
	nameNoise        = strings.NewReplacer(".", " ", ",", " ", ";", " ")
)

// Normalize lowercases a name, strips titles and suffixes and collapses
// whitespace. "Smith, John" is reordered to "john smith".
func Normalize(name string) string {
	if first, last, ok := strings.Cut(name, ","); ok && !strings.Contains(last, ",") {
		name = last + " " + first
	}
	name = honorificPattern.ReplaceAllString(name, " ")
	name = nameNoise.Replace(name)
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// similarityRule scores a pair of normalized names. ok is false when the rule
// does not apply.
type similarityRule struct {
	score func(a, b []string) (float64, bool)
	name  string
}

var similarityRules = []similarityRule{
	{name: "exact", score: func(a, b []string) (float64, bool) {
		return 1.0, strings.Join(a, " ") == strings.Join(b, " ")
	}},
	{name: "first and last shared", score: func(a, b []string) (float64, bool) {
		return 0.95, sharedTokens(a, b) >= 2
	}},
	{name: "same surname, different given name", score: func(a, b []string) (float64, bool) {
		if len(a) < 2 || len(b) < 2 || a[len(a)-1] != b[len(b)-1] {
			return 0, false
		}
		return 0.4, givenNamesDiffer(a[0], b[0])
	}},
	{name: "one token shared", score: func(a, b []string) (float64, bool) {
		return 0.7, sharedTokens(a, b) == 1
	}},
	{name: "fuzzy", score: func(a, b []string) (float64, bool) {
		return ratio(strings.Join(a, " "), strings.Join(b, " ")), true
	}},
}

// Similarity scores two names between 0 and 1. The first applicable rule
// wins: exact match, two shared tokens, a shared surname with a clearly
// different given name (another household member), one shared token, and
// finally an edit-distance ratio.
func Similarity(a, b string) float64 {
	ta := strings.Fields(Normalize(a))
	tb := strings.Fields(Normalize(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	for _, rule := range similarityRules {
		if score, ok := rule.score(ta, tb); ok {
			return score
		}
	}
	return 0
}

func sharedTokens(a, b []string) int {
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[t] = true
	}
	shared := 0
	for _, t := range b {
		if seen[t] {
			shared++
			delete(seen, t)
		}
	}
	return shared
}

// givenNamesDiffer is false for near spellings and for an initial versus the
// full name.
func givenNamesDiffer(a, b string) bool {
	if a == b {
		return false
	}
	if utf8.RuneCountInString(a) == 1 && strings.HasPrefix(b, a) {
		return false
	}
	if utf8.RuneCountInString(b) == 1 && strings.HasPrefix(a, b) {
		return false
	}
	return ratio(a, b) < matchThreshold
}

// ratio is 1 - editDistance/longerLength.
func ratio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// collapseDoubled repairs names rendered twice by PDF extraction, such as
// "Jane DoeJane Doe" or "Jane Doe Jane Doe".
func collapseDoubled(name string) string {
	name = strings.TrimSpace(name)
	words := strings.Fields(name)
	if n := len(words); n >= 4 && n%2 == 0 {
		if strings.Join(words[:n/2], " ") == strings.Join(words[n/2:], " ") {
			return strings.Join(words[:n/2], " ")
		}
	}
	compact := strings.Join(words, " ")
	for i := 1; i < len(compact); i++ {
		head, tail := compact[:i], strings.TrimSpace(compact[i:])
		if head == tail && strings.Contains(head, " ") {
			return head
		}
	}
	return compact
}
