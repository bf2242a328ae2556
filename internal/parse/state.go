package parse

import "regexp"

// State resolution is a pure reducer over prioritized candidate sources:
// the state lexicon against the address context, the city lexicon against
// the address context, then the state lexicon against the whole document.
// The last tier risks false positives from unrelated invoice text; that
// trade-off is accepted to keep partial records flowing.

// stateEntry maps a recognizable token to the canonical state name. Entry
// order is domain-significant (expected frequency), not alphabetical.
type stateEntry struct {
	re   *regexp.Regexp
	name string
}

// stateResolver resolves the delivery state for one source mode.
type stateResolver struct {
	states []stateEntry
	cities []stateEntry
	// guard rejects matches that carry digits or are shorter than three
	// characters, so pincode fragments can't masquerade as a state.
	guard bool
}

func (r *stateResolver) Resolve(addressContext, fullText string) (string, bool) {
	if addressContext != "" {
		if s, ok := r.lookup(r.states, addressContext); ok {
			return s, true
		}
		if s, ok := r.lookup(r.cities, addressContext); ok {
			return s, true
		}
	}
	return r.lookup(r.states, fullText)
}

var reAnyDigit = regexp.MustCompile(`\d`)

func (r *stateResolver) lookup(entries []stateEntry, text string) (string, bool) {
	for _, e := range entries {
		m := e.re.FindString(text)
		if m == "" {
			continue
		}
		if r.guard && (len(collapse(m)) < 3 || reAnyDigit.MatchString(m)) {
			continue
		}
		return e.name, true
	}
	return "", false
}

// ocrEntry builds a lexicon entry for word-spaced OCR text.
func ocrEntry(token, name string) stateEntry {
	return stateEntry{re: regexp.MustCompile(`(?i)` + reSpaceRun.ReplaceAllString(regexp.QuoteMeta(token), `\s+`)), name: name}
}

// layoutEntry builds a spacing-tolerant lexicon entry for layout text.
func layoutEntry(token, name string) stateEntry {
	return stateEntry{re: regexp.MustCompile(`(?i)` + spaced(token)), name: name}
}

func layoutCityEntry(name string, cities ...string) stateEntry {
	return stateEntry{re: regexp.MustCompile(`(?i)` + spacedAlt(cities...)), name: name}
}

// The OCR and layout lexicons are tuned independently and deliberately
// kept apart, entry sets included.
var ocrStateResolver = &stateResolver{
	guard: true,
	states: []stateEntry{
		ocrEntry("Assam", "Assam"),
		ocrEntry("West Bengal", "West Bengal"),
		ocrEntry("Maharashtra", "Maharashtra"),
		ocrEntry("Karnataka", "Karnataka"),
		ocrEntry("Tamil Nadu", "Tamil Nadu"),
		ocrEntry("Gujarat", "Gujarat"),
		ocrEntry("Delhi", "Delhi"),
		ocrEntry("Bihar", "Bihar"),
		ocrEntry("Uttar Pradesh", "Uttar Pradesh"),
		ocrEntry("Rajasthan", "Rajasthan"),
		ocrEntry("Madhya Pradesh", "Madhya Pradesh"),
		ocrEntry("Andhra Pradesh", "Andhra Pradesh"),
		ocrEntry("Telangana", "Telangana"),
		ocrEntry("Kerala", "Kerala"),
		ocrEntry("Odisha", "Odisha"),
		ocrEntry("Punjab", "Punjab"),
		ocrEntry("Haryana", "Haryana"),
		ocrEntry("Jharkhand", "Jharkhand"),
		ocrEntry("Chhattisgarh", "Chhattisgarh"),
		ocrEntry("Uttarakhand", "Uttarakhand"),
		ocrEntry("Himachal Pradesh", "Himachal Pradesh"),
		ocrEntry("Goa", "Goa"),
		ocrEntry("Jammu and Kashmir", "Jammu and Kashmir"),
	},
	cities: []stateEntry{
		{re: regexp.MustCompile(`(?i)Hojai`), name: "Assam"},
		{re: regexp.MustCompile(`(?i)Kolkata|Calcutta`), name: "West Bengal"},
		{re: regexp.MustCompile(`(?i)Mumbai|Pune`), name: "Maharashtra"},
	},
}

var layoutStateResolver = &stateResolver{
	states: []stateEntry{
		layoutEntry("Assam", "Assam"),
		layoutEntry("WestBengal", "WestBengal"),
		layoutEntry("Maharashtra", "Maharashtra"),
		layoutEntry("Karnataka", "Karnataka"),
		layoutEntry("TamilNadu", "TamilNadu"),
		layoutEntry("Gujarat", "Gujarat"),
		layoutEntry("Delhi", "Delhi"),
		layoutEntry("Bihar", "Bihar"),
		layoutEntry("UttarPradesh", "UttarPradesh"),
	},
	cities: []stateEntry{
		layoutCityEntry("Assam", "Hojai"),
		layoutCityEntry("WestBengal", "Kolkata", "Calcutta"),
		layoutCityEntry("Maharashtra", "Mumbai", "Pune"),
	},
}
