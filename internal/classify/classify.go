// Package classify derives workplace type and geographic remote scope
// from listing text by ordered pattern matching. The check order is part
// of the contract: the categories are not mutually exclusive by pattern
// alone, so the first matching set wins.
package classify

import (
	"strings"

	"github.com/job-scanner/internal/normalize"
	"github.com/job-scanner/internal/types"
)

// Hybrid is checked before remote: "remote with occasional office days"
// must not classify as REMOTE.
var hybridPatterns = []string{
	"hybrid",
	"days in office",
	"days per week in the office",
	"partially remote",
	"remote with occasional office",
	"office + remote",
}

var onsitePatterns = []string{
	"on-site",
	"onsite",
	"on site",
	"in-office",
	"office-based",
	"relocation required",
	"no remote",
}

var remotePatterns = []string{
	"remote",
	"work from home",
	"work-from-home",
	"wfh",
	"anywhere",
	"distributed team",
	"fully distributed",
}

var worldwidePatterns = []string{
	"worldwide",
	"anywhere in the world",
	"work from anywhere",
	"globally remote",
	"global remote",
	"remote (global)",
	"fully remote, anywhere",
}

var romaniaPatterns = []string{
	"romania",
	"bucharest",
	"bucuresti",
	"cluj",
	"timisoara",
	"iasi",
	"brasov",
}

var euPatterns = []string{
	"eu only",
	"eu-only",
	"european union",
	"eea",
	"eu timezone",
	"eu time zone",
	"remote (eu",
	"remote - eu",
	"within the eu",
}

var europePatterns = []string{
	"europe",
	"european",
}

var emeaPatterns = []string{
	"emea",
}

var restrictionPatterns = []string{
	"only in",
	"restricted to",
	"must be located in",
	"must reside in",
	"residents of",
	"based in",
	"eligible to work in",
}

func matchAny(text string, patterns []string) string {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}

// Classify derives workplace type and remote scope from the combined
// title, location, and description text.
func Classify(title, location, description string) types.Classification {
	combined := strings.ToLower(title + " " + location + " " + description)

	result := types.Classification{
		WorkplaceType:     workplaceType(combined),
		RemoteScope:       types.ScopeUnknown,
		EligibleCountries: []string{},
	}

	// Countries are extracted from the original-case text: the ISO-2
	// token heuristic needs uppercase preserved.
	countries := normalize.ParseCountries(title + " " + location + " " + description)
	if countries != nil {
		result.EligibleCountries = countries
	}

	// Scope only applies to remote positions.
	if result.WorkplaceType != types.WorkplaceRemote {
		return result
	}

	result.RemoteScope, result.ScopeText = remoteScope(combined, countries)
	return result
}

func workplaceType(text string) types.WorkplaceType {
	if matchAny(text, hybridPatterns) != "" {
		return types.WorkplaceHybrid
	}
	if matchAny(text, onsitePatterns) != "" {
		return types.WorkplaceOnsite
	}
	if matchAny(text, remotePatterns) != "" {
		return types.WorkplaceRemote
	}
	return types.WorkplaceUnknown
}

func remoteScope(text string, countries []string) (types.RemoteScope, string) {
	if p := matchAny(text, worldwidePatterns); p != "" {
		return types.ScopeWorldwide, p
	}
	if p := matchAny(text, romaniaPatterns); p != "" {
		return types.ScopeCountryOnly, "romania: " + p
	}
	if p := matchAny(text, euPatterns); p != "" {
		return types.ScopeEU, p
	}
	if p := matchAny(text, europePatterns); p != "" {
		return types.ScopeEurope, p
	}
	if p := matchAny(text, emeaPatterns); p != "" {
		return types.ScopeEMEA, p
	}

	// Country-count heuristic: one named country plus restriction
	// phrasing reads as single-country; a small set reads as
	// multi-country.
	if len(countries) == 1 {
		if p := matchAny(text, restrictionPatterns); p != "" {
			return types.ScopeCountryOnly, p + " " + countries[0]
		}
	}
	if len(countries) >= 2 && len(countries) <= 5 {
		return types.ScopeMultiCountry, strings.Join(countries, ",")
	}

	return types.ScopeUnknown, ""
}
