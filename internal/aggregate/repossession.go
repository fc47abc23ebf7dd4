package aggregate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/common"
)

var (
	repoFilePattern    = regexp.MustCompile(`(?i)(?:^|[^a-z])repo(?:ssess[a-z]*)?(?:[^a-z]|$)`)
	vehicleTextPattern = regexp.MustCompile(`(?i)\b(?:vehicle|car|auto|infiniti|honda|toyota|ford|chevrolet|bridgecrest|santander|capital one auto)\b`)
	repoTextPattern    = regexp.MustCompile(`(?i)repossess|involuntary surrender|deficiency balance`)
	vehicleFilePattern = regexp.MustCompile(`(20\d{2})\s+([A-Za-z]+)\s+([A-Za-z0-9]+)`)
	vehicleBodyPattern = regexp.MustCompile(`(?i)(20\d{2})\s+(Infiniti|Honda|Toyota|Ford|Chevrolet|Nissan|BMW|Mercedes|Audi)\s+([A-Za-z0-9]+)`)
)

// detectRepossession flags the household vehicle as repossessed when the
// file name says so, or when the text pairs vehicle context with
// repossession language. Once set the flag is never cleared.
func detectRepossession(c *Context) {
	file := c.Doc.FileName()
	if !repoFilePattern.MatchString(file) &&
		!(vehicleTextPattern.MatchString(c.Doc.Text) && repoTextPattern.MatchString(c.Doc.Text)) {
		return
	}

	v := &c.Household.Vehicle
	v.Repossessed = true

	m := vehicleFilePattern.FindStringSubmatch(file)
	if m == nil {
		m = vehicleBodyPattern.FindStringSubmatch(c.Doc.Text)
	}
	if m != nil {
		v.Year, _ = strconv.Atoi(m[1])
		v.Make = m[2]
		v.Model = m[3]
		v.Description = strings.Join(m[1:4], " ")
	}

	desc := v.Description
	if desc == "" {
		desc = "unknown vehicle"
	}
	c.RecordText("vehicle.repossessed", "true", 0.9, desc)
	c.Warn("Vehicle repossession detected in %s: %s", file, desc)
	common.LogInfo("Vehicle repossession detected", common.Fields{"file": file, "vehicle": desc})
}
