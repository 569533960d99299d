package extract

import (
	"regexp"
	"strings"
)

// credentialTokens are suffixes/tokens that indicate a string is a
// credential list riding along with a name, not part of the name itself
// (the caller is expected to strip these before validating).
var credentialTokens = map[string]bool{
	"MD": true, "PHD": true, "LCSW": true, "LMFT": true, "LPC": true,
	"PSYD": true, "RN": true, "DO": true, "NP": true, "DDS": true,
	"ESQ": true, "JR": true, "SR": true, "II": true, "III": true,
}

// badWords are generic directory/navigation strings that sometimes get
// mistaken for person names by naive capitalised-word matching.
var badWords = map[string]bool{
	"read more": true, "learn more": true, "contact us": true,
	"our team": true, "meet the team": true, "get started": true,
	"click here": true, "sign up": true, "log in": true,
}

// streetSuffixes flag address fragments so they aren't accepted as names.
var streetSuffixes = []string{"street", "st.", "avenue", "ave.", "boulevard", "blvd", "suite", "floor", "drive", "road"}

// verbPhraseStarters flag short imperative-looking strings.
var verbPhraseStarters = map[string]bool{
	"click": true, "call": true, "schedule": true, "book": true, "contact": true, "get": true, "find": true, "learn": true,
}

var capitalizedWordRE = regexp.MustCompile(`^[A-Z][a-zA-Z'.-]*$`)

// allowListNeighborhoods holds place-like tokens that are nonetheless valid
// person names (e.g. surnames that are also place names).
var allowListNeighborhoods = map[string]bool{
	"Washington": true, "Madison": true, "Jackson": true, "Lincoln": true,
}

// IsValidPersonName implements the Person-Name Validator from §4.3: at
// least two capitalised-word tokens, not a credential string, not a street
// or neighbourhood name (unless allow-listed), not in the bad-word set, and
// not a verb phrase.
func IsValidPersonName(raw string) bool {
	name := strings.TrimSpace(raw)
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	if badWords[lower] {
		return false
	}

	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return false
	}

	first := strings.ToLower(tokens[0])
	if verbPhraseStarters[first] {
		return false
	}

	for _, suffix := range streetSuffixes {
		if strings.Contains(lower, suffix) {
			return false
		}
	}

	capitalizedCount := 0
	for _, tok := range tokens {
		clean := strings.Trim(tok, ",.")
		upper := strings.ToUpper(clean)
		if credentialTokens[upper] {
			return false
		}
		if !allowListNeighborhoods[clean] && isPlaceLikeToken(clean) {
			return false
		}
		if capitalizedWordRE.MatchString(clean) {
			capitalizedCount++
		}
	}

	return capitalizedCount >= 2
}

var placeLikeTokens = map[string]bool{
	"Street": true, "Avenue": true, "Boulevard": true, "Neighborhood": true, "District": true,
}

func isPlaceLikeToken(tok string) bool {
	return placeLikeTokens[tok]
}

// StripCredentials removes a trailing comma-separated credential list from a
// raw scraped name string, e.g. "Jane Smith, LCSW, PhD" -> "Jane Smith".
func StripCredentials(raw string) string {
	parts := strings.Split(raw, ",")
	if len(parts) == 0 {
		return raw
	}
	return strings.TrimSpace(parts[0])
}
