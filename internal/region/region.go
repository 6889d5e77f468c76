// Package region maps Missouri county names to the planning regions used for
// regional rollups.
package region

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Region names.
const (
	RegionNorthwest       = "Northwest"
	RegionNortheast       = "Northeast"
	RegionKansasCityMetro = "Kansas City Metro"
	RegionWestCentral     = "West Central"
	RegionCentral         = "Central"
	RegionStLouisMetro    = "St. Louis Metro"
	RegionEastCentral     = "East Central"
	RegionSouthwest       = "Southwest"
	RegionSouthCentral    = "South Central"
	RegionSoutheast       = "Southeast"
	RegionWest            = "West"
	RegionSouth           = "South"
	RegionOther           = "Other"
)

// countyRegions is keyed by upper-case county name.
var countyRegions = map[string]string{
	// Northwest
	"ATCHISON": RegionNorthwest,
	"NODAWAY":  RegionNorthwest,
	"WORTH":    RegionNorthwest,
	"HARRISON": RegionNorthwest,
	"MERCER":   RegionNorthwest,
	"PUTNAM":   RegionNorthwest,
	"GENTRY":   RegionNorthwest,
	"ANDREW":   RegionNorthwest,
	"DEKALB":   RegionNorthwest,
	"DAVIESS":  RegionNorthwest,
	"GRUNDY":   RegionNorthwest,
	"SULLIVAN": RegionNorthwest,
	// Northeast
	"SCHUYLER": RegionNortheast,
	"SCOTLAND": RegionNortheast,
	"CLARK":    RegionNortheast,
	"ADAIR":    RegionNortheast,
	"KNOX":     RegionNortheast,
	"LEWIS":    RegionNortheast,
	"LINN":     RegionNortheast,
	"MACON":    RegionNortheast,
	"SHELBY":   RegionNortheast,
	"MARION":   RegionNortheast,
	"RALLS":    RegionNortheast,
	"PIKE":     RegionNortheast,
	"MONROE":   RegionNortheast,
	// Kansas City Metro
	"JACKSON": RegionKansasCityMetro,
	"CLAY":    RegionKansasCityMetro,
	"PLATTE":  RegionKansasCityMetro,
	"CASS":    RegionKansasCityMetro,
	// West Central
	"BUCHANAN":   RegionWestCentral,
	"CLINTON":    RegionWestCentral,
	"CALDWELL":   RegionWestCentral,
	"RAY":        RegionWestCentral,
	"CARROLL":    RegionWestCentral,
	"LAFAYETTE":  RegionWestCentral,
	"SALINE":     RegionWestCentral,
	"LIVINGSTON": RegionWestCentral,
	"CHARITON":   RegionWestCentral,
	// Central
	"HOWARD":     RegionCentral,
	"RANDOLPH":   RegionCentral,
	"BOONE":      RegionCentral,
	"CALLAWAY":   RegionCentral,
	"AUDRAIN":    RegionCentral,
	"MONTGOMERY": RegionCentral,
	"WARREN":     RegionCentral,
	"LINCOLN":    RegionCentral,
	"COLE":       RegionCentral,
	"OSAGE":      RegionCentral,
	"GASCONADE":  RegionCentral,
	"FRANKLIN":   RegionCentral,
	"COOPER":     RegionCentral,
	"MONITEAU":   RegionCentral,
	"MORGAN":     RegionCentral,
	// St. Louis Metro
	"ST. LOUIS":      RegionStLouisMetro,
	"ST. CHARLES":    RegionStLouisMetro,
	"JEFFERSON":      RegionStLouisMetro,
	"ST. LOUIS CITY": RegionStLouisMetro,
	// East Central
	"ST. FRANCOIS":   RegionEastCentral,
	"STE. GENEVIEVE": RegionEastCentral,
	"WASHINGTON":     RegionEastCentral,
	"IRON":           RegionEastCentral,
	"MADISON":        RegionEastCentral,
	"REYNOLDS":       RegionEastCentral,
	"PERRY":          RegionEastCentral,
	// Southwest
	"JASPER":    RegionSouthwest,
	"NEWTON":    RegionSouthwest,
	"MCDONALD":  RegionSouthwest,
	"BARRY":     RegionSouthwest,
	"LAWRENCE":  RegionSouthwest,
	"CHRISTIAN": RegionSouthwest,
	"STONE":     RegionSouthwest,
	"TANEY":     RegionSouthwest,
	"OZARK":     RegionSouthwest,
	"DOUGLAS":   RegionSouthwest,
	"WEBSTER":   RegionSouthwest,
	"GREENE":    RegionSouthwest,
	// South Central
	"CEDAR":   RegionSouthCentral,
	"DADE":    RegionSouthCentral,
	"POLK":    RegionSouthCentral,
	"DALLAS":  RegionSouthCentral,
	"LACLEDE": RegionSouthCentral,
	"WRIGHT":  RegionSouthCentral,
	"TEXAS":   RegionSouthCentral,
	"HOWELL":  RegionSouthCentral,
	"SHANNON": RegionSouthCentral,
	"OREGON":  RegionSouthCentral,
	"RIPLEY":  RegionSouthCentral,
	"CARTER":  RegionSouthCentral,
	"WAYNE":   RegionSouthCentral,
	"BUTLER":  RegionSouthCentral,
	// Southeast
	"BOLLINGER":      RegionSoutheast,
	"CAPE GIRARDEAU": RegionSoutheast,
	"SCOTT":          RegionSoutheast,
	"MISSISSIPPI":    RegionSoutheast,
	"NEW MADRID":     RegionSoutheast,
	"PEMISCOT":       RegionSoutheast,
	"DUNKLIN":        RegionSoutheast,
	"STODDARD":       RegionSoutheast,
	// West
	"BATES":     RegionWest,
	"VERNON":    RegionWest,
	"BARTON":    RegionWest,
	"ST. CLAIR": RegionWest,
	"HENRY":     RegionWest,
	"JOHNSON":   RegionWest,
	"BENTON":    RegionWest,
	"PETTIS":    RegionWest,
	"HICKORY":   RegionWest,
	"CAMDEN":    RegionWest,
	// South
	"MILLER":   RegionSouth,
	"MARIES":   RegionSouth,
	"PHELPS":   RegionSouth,
	"PULASKI":  RegionSouth,
	"CRAWFORD": RegionSouth,
	"DENT":     RegionSouth,
}

// Lookup returns the region of a county, ignoring case and surrounding space.
// Unknown counties fall in RegionOther.
func Lookup(county string) string {
	key := cases.Upper(language.Und).String(strings.TrimSpace(county))
	if r, ok := countyRegions[key]; ok {
		return r
	}
	return RegionOther
}

// Names returns every region name, sorted, with RegionOther last.
func Names() []string {
	seen := make(map[string]struct{})
	for _, r := range countyRegions {
		seen[r] = struct{}{}
	}
	names := make([]string, 0, len(seen)+1)
	for r := range seen {
		names = append(names, r)
	}
	sort.Strings(names)
	return append(names, RegionOther)
}

// Counties returns the upper-case county names in a region, sorted.
func Counties(region string) []string {
	var out []string
	for c, r := range countyRegions {
		if r == region {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
