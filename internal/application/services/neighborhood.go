package services

import (
	"regexp"
	"strings"

	"github.com/lawyerhours/backend/internal/domain/entities"
)

// NeighborhoodResolver maps a ZIP code to a named neighborhood of a city.
type NeighborhoodResolver interface {
	NeighborhoodForZIP(citySlug, zip string) (string, bool)
}

var (
	zipPattern        = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	stateZipPattern   = regexp.MustCompile(`^[A-Za-z]{2}\s+\d{5}(?:-\d{4})?$`)
	bareZipPattern    = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	unitPrefixPattern = regexp.MustCompile(`(?i)^(suite|ste\.?|unit|floor|fl\.?|room|rm\.?|bldg\.?|building|#)\s*`)
)

var countryNames = map[string]bool{
	"usa":                      true,
	"us":                       true,
	"united states":            true,
	"united states of america": true,
}

var usStates = map[string]bool{
	"al": true, "alabama": true, "ak": true, "alaska": true, "az": true, "arizona": true,
	"ar": true, "arkansas": true, "ca": true, "california": true, "co": true, "colorado": true,
	"ct": true, "connecticut": true, "de": true, "delaware": true, "dc": true, "district of columbia": true,
	"fl": true, "florida": true, "ga": true, "georgia": true, "hi": true, "hawaii": true,
	"id": true, "idaho": true, "il": true, "illinois": true, "in": true, "indiana": true,
	"ia": true, "iowa": true, "ks": true, "kansas": true, "ky": true, "kentucky": true,
	"la": true, "louisiana": true, "me": true, "maine": true, "md": true, "maryland": true,
	"ma": true, "massachusetts": true, "mi": true, "michigan": true, "mn": true, "minnesota": true,
	"ms": true, "mississippi": true, "mo": true, "missouri": true, "mt": true, "montana": true,
	"ne": true, "nebraska": true, "nv": true, "nevada": true, "nh": true, "new hampshire": true,
	"nj": true, "new jersey": true, "nm": true, "new mexico": true, "ny": true, "new york": true,
	"nc": true, "north carolina": true, "nd": true, "north dakota": true, "oh": true, "ohio": true,
	"ok": true, "oklahoma": true, "or": true, "oregon": true, "pa": true, "pennsylvania": true,
	"ri": true, "rhode island": true, "sc": true, "south carolina": true, "sd": true, "south dakota": true,
	"tn": true, "tennessee": true, "tx": true, "texas": true, "ut": true, "utah": true,
	"vt": true, "vermont": true, "va": true, "virginia": true, "wa": true, "washington": true,
	"wv": true, "west virginia": true, "wi": true, "wisconsin": true, "wy": true, "wyoming": true,
}

// CentralLabel is the city-wide bucket for addresses that yield no neighborhood.
func CentralLabel(city entities.City) string {
	return "Central " + city.Name
}

// ExtractNeighborhood guesses a neighborhood from a free-text address.
//
// Order: a middle comma segment that is not a ZIP, state, city or unit
// designator; then the ZIP against the lookup table; then the city-wide
// bucket. This is string-position guessing, not a geographic boundary lookup.
func ExtractNeighborhood(address string, city entities.City, zips NeighborhoodResolver) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return CentralLabel(city)
	}

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) >= 3 {
		for _, segment := range parts[1 : len(parts)-1] {
			if isNeighborhoodSegment(segment, city) {
				return segment
			}
		}
	}

	if zips != nil {
		if matches := zipPattern.FindAllStringSubmatch(address, -1); len(matches) > 0 {
			zip := matches[len(matches)-1][1]
			if name, ok := zips.NeighborhoodForZIP(city.Slug, zip); ok {
				return name
			}
		}
	}

	return CentralLabel(city)
}

func isNeighborhoodSegment(segment string, city entities.City) bool {
	if segment == "" {
		return false
	}
	lowered := strings.ToLower(segment)
	switch {
	case bareZipPattern.MatchString(segment), stateZipPattern.MatchString(segment):
		return false
	case usStates[lowered], countryNames[lowered]:
		return false
	case strings.EqualFold(segment, city.Name):
		return false
	case unitPrefixPattern.MatchString(segment):
		return false
	case segment[0] >= '0' && segment[0] <= '9':
		// street numbers and numbered floors
		return false
	}
	return true
}
