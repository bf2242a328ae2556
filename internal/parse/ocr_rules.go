package parse

import (
	"regexp"
	"strings"
)

// OCR-mode rule sets, tuned for the vendor's invoice template family with
// normal word spacing but possibly misread characters.

// Order identifier: the vendor order format is "OD" + 18 or more digits.
var ocrOrderIDRules = []rule{
	{re: regexp.MustCompile(`(?i)OD\d{18,}`), valid: minLen(15)},
	{re: regexp.MustCompile(`(?i)Order\s*(?:ID|No|Number)[:\s]*([A-Z]{2}\d{18,})`), valid: minLen(15)},
	{re: regexp.MustCompile(`(?i)Invoice.*?Order\s*Id[:\s]*([A-Z0-9]{15,})`), valid: minLen(15)},
}

// Invoice number: consulted only when no order identifier validated.
var ocrInvoiceNoRules = []rule{
	{re: regexp.MustCompile(`(?i)Invoice\s*(?:No|Number|#)[:\s]*([A-Z0-9]{10,})`)},
	{re: regexp.MustCompile(`(?i)FAXCR\d+`)},
}

// Date: first match wins, no validation of the component values.
var ocrDateRules = []rule{
	{re: regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{4})`)},
	{re: regexp.MustCompile(`(?i)Invoice\s*Date[:\s]*(\d{1,2}[-/]\d{1,2}[-/]\d{4})`)},
	{re: regexp.MustCompile(`(?i)(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})`)},
}

// Item name: label captures stop lazily at the next section label so a
// whitespace-collapsed invoice does not bleed the shipping block into the
// product description.
var ocrItemRules = []rule{
	{re: regexp.MustCompile(`(?i)Description[:\s]*(.{10,150}?)(?:\s+(?:Shipping|Customer|Billing|Warranty|HSN|Total|Qty|Quantity)\b|\n|$)`), valid: itemLongEnough},
	{re: regexp.MustCompile(`(?i)Product[:\s]*(.{10,150}?)(?:\s+(?:Shipping|Customer|Billing|Warranty|HSN|Total|Qty|Quantity)\b|\n|$)`), valid: itemLongEnough},
	{re: regexp.MustCompile(`(?i)Voeux.{5,150}`), valid: itemLongEnough},
}

func itemLongEnough(s string) bool {
	return len(collapse(s)) > 10
}

func extractOCROrderID(text string) (string, bool) {
	if id, ok := firstMatch(text, ocrOrderIDRules); ok {
		return id, true
	}
	// Fall back to the invoice number when the order identifier is
	// unreadable; it is still a usable record key for this vendor.
	return firstMatch(text, ocrInvoiceNoRules)
}

func extractOCRDate(text string) (string, bool) {
	return firstMatch(text, ocrDateRules)
}

func extractOCRItem(text string) (string, bool) {
	v, ok := firstMatch(text, ocrItemRules)
	if !ok {
		return "", false
	}
	return truncate(collapse(v), 200), true
}

// Address rules capture four comma-separated segments where the template
// provides them; the looser line capture is a fallback for partly garbled
// labels.
var (
	reOCRAddrLabeled = regexp.MustCompile(`(?i)Shipping\s*(?:[/\\]\s*)?(?:Customer\s*)?address[:\s]*Name[:\s]*([^,\n]+),\s*([^,\n]+),\s*([^,\n]+)(?:,\s*([^,\n]+))?`)
	reOCRAddrBlock   = regexp.MustCompile(`(?i)Shipping\s*ADDRESS[:\s]*([^\n]+(?:\n[^\n]+){0,3})`)
	reOCRAddrGeneric = regexp.MustCompile(`(?i)Name[:\s]*([A-Za-z\s]+),\s*([^,\n]+),\s*([^,\n]+)(?:,\s*([^,\n]+))?`)
)

// extractOCRAddress returns the display address plus the raw matched
// region, kept as context for state resolution.
func extractOCRAddress(text string) (addr, context string, ok bool) {
	for _, re := range []*regexp.Regexp{reOCRAddrLabeled, reOCRAddrBlock, reOCRAddrGeneric} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var v string
		if len(m) > 3 && m[2] != "" && m[3] != "" {
			segs := []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])}
			if len(m) > 4 && m[4] != "" {
				segs = append(segs, strings.TrimSpace(m[4]))
			}
			v = strings.Join(segs, ", ")
		} else {
			v = strings.TrimSpace(m[1])
		}
		return truncate(collapse(v), 300), m[0], true
	}
	return "", "", false
}

// Price: keyword-anchored amounts, first strictly positive value wins.
var ocrPriceRules = []rule{
	{re: regexp.MustCompile(`(?i)TOTAL\s*PRICE[:\s]*₹?\s*([\d,]+\.?\d*)`)},
	{re: regexp.MustCompile(`(?i)Total[:\s]*₹\s*([\d,]+\.?\d*)`)},
	{re: regexp.MustCompile(`₹\s*([\d,]+\.\d{2})`)},
	{re: regexp.MustCompile(`(?i)Gross\s*Value[:\s]*₹?\s*([\d,]+\.?\d*)`)},
}
