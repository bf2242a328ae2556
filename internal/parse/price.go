package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voeux/invoice-tracker/constants"
)

// Acceptance bounds for layout-mode price candidates, exclusive on both
// ends. Keyword-anchored hits get the wider window; the blind fallback
// scan is held to a stricter lower bound to avoid picking up quantities.
const (
	keywordPriceMin  = 10
	fallbackPriceMin = 50
	priceMax         = 500000
)

// extractOCRPrice trials the keyword-anchored OCR price rules and accepts
// the first strictly positive amount, re-prefixed with the currency symbol.
func extractOCRPrice(text string) (string, bool) {
	for _, r := range ocrPriceRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cand := strings.ReplaceAll(strings.TrimSpace(pickGroup(m)), ",", "")
		cand = strings.TrimPrefix(cand, constants.RupeePrefix)
		v, err := strconv.ParseFloat(cand, 64)
		if err != nil || v <= 0 {
			continue
		}
		return constants.RupeePrefix + cand, true
	}
	return "", false
}

// Layout-mode price selection. Keywords are compiled through the spaced
// literal compiler so "T o t a l" anchors the same as "Total".
var (
	reLayoutKeywordPrice = regexp.MustCompile(
		`(?is)` + spacedAlt("Total", "Gross", "GrandTotal", "Payable", "Amount", "Net") +
			`.{0,100}?(\d[\d\s,]*\.\s*\d\s*\d)`)
	reLayoutPriceCand = regexp.MustCompile(`\d[\d\s,]*\.\s*\d\s*\d`)
	reCurrencyMarker  = regexp.MustCompile(`(?i)` + spacedAlt("Rs", "INR", "₹"))
)

// selectLayoutPrice recovers a total from character-spaced layout text.
// Step 1 anchors on a keyword; step 2 falls back to scanning every
// decimal-bearing candidate from the end of the document backwards, since
// the total conventionally sits near the end of an invoice.
func selectLayoutPrice(text string) (string, bool) {
	if m := reLayoutKeywordPrice.FindStringSubmatch(text); m != nil {
		cand := cleanAmount(m[1])
		if v, err := strconv.ParseFloat(cand, 64); err == nil && v > keywordPriceMin && v < priceMax {
			return constants.RupeePrefix + cand, true
		}
	}

	locs := reLayoutPriceCand.FindAllStringIndex(text, -1)
	for i := len(locs) - 1; i >= 0; i-- {
		raw := text[locs[i][0]:locs[i][1]]
		cand := cleanAmount(raw)
		v, err := strconv.ParseFloat(cand, 64)
		if err != nil || v <= fallbackPriceMin || v >= priceMax {
			continue
		}
		// A raw comma or a nearby currency marker is a strong signal the
		// number is money and not a phone number or tracking id; the very
		// last candidate is accepted on position alone.
		if strings.Contains(raw, ",") || currencyNearby(text, locs[i][0]) || i == len(locs)-1 {
			return constants.RupeePrefix + cand, true
		}
	}
	return "", false
}

// cleanAmount strips whitespace and thousands separators from a raw
// numeric token.
func cleanAmount(raw string) string {
	return strings.ReplaceAll(stripSpace(raw), ",", "")
}

// currencyNearby reports whether a spacing-tolerant currency marker occurs
// in the 20 characters preceding offset.
func currencyNearby(text string, offset int) bool {
	start := offset - 20
	if start < 0 {
		start = 0
	}
	return reCurrencyMarker.MatchString(text[start:offset])
}
