package constants

// NotAvailable is the placeholder stored for any invoice field that could
// not be validated. Downstream consumers display it verbatim.
const NotAvailable = "N/A"

// RupeePrefix is prepended to extracted price values.
const RupeePrefix = "₹"

// SourceMode tags where recovered invoice text came from, which decides
// the rule set used to parse it.
type SourceMode string

const (
	// ModeOCR is image text recovered via OCR: spacing is roughly
	// word-accurate but characters may be misread.
	ModeOCR SourceMode = "OCR"
	// ModeLayout is a PDF's text layer read run-by-run: inter-character
	// spacing is unreliable, often one glyph per token.
	ModeLayout SourceMode = "LAYOUT"
)
