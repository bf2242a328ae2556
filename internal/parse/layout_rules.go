package parse

import (
	"regexp"
	"strings"
)

// Layout-mode rule set. PDF text layers arrive run-by-run, frequently one
// glyph per token ("O D 4 3 6 5 0 6 ..."), so every literal here is
// compiled through the spaced literal compiler and digit runs are
// reassembled by stripping the interleaved whitespace.

var (
	reLayoutOrderID = regexp.MustCompile(`(?i)` + spaced("OD") + `\s*(\d[\d\s]{17,})`)
	reLayoutDate    = regexp.MustCompile(`(\d\s*\d?)\s*-\s*(\d\s*\d?)\s*-\s*(\d\s*\d\s*\d\s*\d)`)
	// The brand literal tolerates the glyph-level misreads seen in this
	// template family ("Voeu", "Vonu", trailing x).
	reLayoutItem = regexp.MustCompile(`(?i)V\s*o\s*[en]\s*u\s*x?[^|]{10,80}`)
	reLayoutAddr = regexp.MustCompile(`(?is)` + spaced("Name") + `\s*:\s*(.{10,200}?)(?:` + spaced("IN-") + `|$)`)
)

// extractLayoutOrderID reassembles "OD" plus a digit run of at least 18
// digits once the interleaved whitespace is collapsed.
func extractLayoutOrderID(text string) (string, bool) {
	m := reLayoutOrderID.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	digits := stripSpace(m[1])
	if len(digits) < 18 {
		return "", false
	}
	return "OD" + digits, true
}

// extractLayoutDate rebuilds DD-MM-YYYY by stripping whitespace from each
// captured digit group independently.
func extractLayoutDate(text string) (string, bool) {
	m := reLayoutDate.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return stripSpace(m[1]) + "-" + stripSpace(m[2]) + "-" + stripSpace(m[3]), true
}

// extractLayoutItem strips ALL internal whitespace from the matched run;
// glyph spacing makes collapsed-but-spaced output unreadable here.
func extractLayoutItem(text string) (string, bool) {
	m := reLayoutItem.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(stripSpace(m)), true
}

// extractLayoutAddress captures everything after a spacing-tolerant
// "Name:" label up to the "IN-" marker or end of text. The raw capture is
// returned as context for state resolution; the display value has all
// whitespace stripped, a space re-inserted after each comma, and is
// bounded to 200 characters.
func extractLayoutAddress(text string) (addr, context string, ok bool) {
	m := reLayoutAddr.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	context = m[1]
	addr = strings.TrimSpace(strings.ReplaceAll(stripSpace(context), ",", ", "))
	return truncate(addr, 200), context, true
}

// parseLayout runs the layout-mode rule set over untouched text and
// assembles the record, substituting the sentinel for every field that
// produced no accepted match.
func parseLayout(text string) Record {
	rec := emptyRecord()

	if id, ok := extractLayoutOrderID(text); ok {
		rec.OrderID = id
	}
	if d, ok := extractLayoutDate(text); ok {
		rec.Date = d
	}
	if p, ok := selectLayoutPrice(text); ok {
		rec.Price = p
	}
	if item, ok := extractLayoutItem(text); ok {
		rec.ItemName = item
	}
	addr, context, ok := extractLayoutAddress(text)
	if ok {
		rec.DeliveryAddress = addr
	}
	if st, found := layoutStateResolver.Resolve(context, text); found {
		rec.DeliveryState = st
	}
	return rec
}
