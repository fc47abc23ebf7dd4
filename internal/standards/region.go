package standards

import "strings"

// Region is a Census region used by the transportation operating standard.
type Region string

// Census regions.
const (
	RegionNortheast Region = "northeast"
	RegionMidwest   Region = "midwest"
	RegionSouth     Region = "south"
	RegionWest      Region = "west"
)

var stateRegions = map[string]Region{
	"CT": RegionNortheast, "ME": RegionNortheast, "MA": RegionNortheast,
	"NH": RegionNortheast, "NJ": RegionNortheast, "NY": RegionNortheast,
	"PA": RegionNortheast, "RI": RegionNortheast, "VT": RegionNortheast,

	"IL": RegionMidwest, "IN": RegionMidwest, "IA": RegionMidwest, "KS": RegionMidwest,
	"MI": RegionMidwest, "MN": RegionMidwest, "MO": RegionMidwest, "NE": RegionMidwest,
	"ND": RegionMidwest, "OH": RegionMidwest, "SD": RegionMidwest, "WI": RegionMidwest,

	"AL": RegionSouth, "AR": RegionSouth, "DE": RegionSouth, "DC": RegionSouth,
	"FL": RegionSouth, "GA": RegionSouth, "KY": RegionSouth, "LA": RegionSouth,
	"MD": RegionSouth, "MS": RegionSouth, "NC": RegionSouth, "OK": RegionSouth,
	"SC": RegionSouth, "TN": RegionSouth, "TX": RegionSouth, "VA": RegionSouth,
	"WV": RegionSouth,
}

// RegionForState returns the region for a two-letter state code.
// Anything not listed, territories included, falls in the West.
func RegionForState(state string) Region {
	if r, ok := stateRegions[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return r
	}
	return RegionWest
}
