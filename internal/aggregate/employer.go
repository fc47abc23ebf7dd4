package aggregate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// EmployersMatch reports whether two employer names likely refer to the
// same company: exact, one containing the other, or an edit-distance ratio
// above 0.7.
func EmployersMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1-float64(levenshtein.ComputeDistance(a, b))/float64(longest) > 0.7
}

var gigPlatforms = []struct {
	keyword string
	name    string
}{
	{"uber", "Uber"},
	{"lyft", "Lyft"},
	{"doordash", "DoorDash"},
	{"grubhub", "GrubHub"},
	{"instacart", "Instacart"},
	{"postmates", "Postmates"},
}

var employerFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:unlocked_)?([A-Z]{2,})\s+(?:Statement|Pay)`),
	regexp.MustCompile(`^(?:unlocked_)?([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+Statement`),
}

// employerFromPath infers an employer from where a pay stub was filed:
// a gig platform anywhere in the path, a Paystubs/<Employer>/ folder, or
// an "<EMPLOYER> Statement" file name.
func employerFromPath(fileID string) string {
	path := strings.ReplaceAll(fileID, "\\", "/")
	lower := strings.ToLower(path)
	for _, p := range gigPlatforms {
		if strings.Contains(lower, p.keyword) {
			return p.name
		}
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.ToLower(part) != "paystubs" || i+2 >= len(parts) {
			continue
		}
		if folder := parts[i+1]; folder != "" && !strings.HasPrefix(strings.ToLower(folder), "unlocked") {
			return folder
		}
	}

	file := parts[len(parts)-1]
	for _, re := range employerFilePatterns {
		if m := re.FindStringSubmatch(file); m != nil {
			return m[1]
		}
	}
	return ""
}

func isGigEmployer(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range gigPlatforms {
		if strings.Contains(lower, p.keyword) {
			return true
		}
	}
	return false
}
