package parse

import (
	"regexp"
	"strings"

	"github.com/voeux/invoice-tracker/constants"
)

var reSpaceRun = regexp.MustCompile(`\s+`)

// Normalize prepares raw text for matching. OCR text gets whitespace runs
// collapsed to single spaces and is trimmed; layout text is returned
// unchanged because the inter-character spacing is exactly what the
// layout-mode rules key on.
func Normalize(text string, mode constants.SourceMode) string {
	if mode == constants.ModeLayout {
		return text
	}
	return collapse(text)
}

// collapse squeezes whitespace runs to single spaces and trims.
func collapse(s string) string {
	return strings.TrimSpace(reSpaceRun.ReplaceAllString(s, " "))
}

// stripSpace removes ALL whitespace. Layout tokens arrive one glyph per
// word, so display values are rebuilt by deleting the spacing entirely.
func stripSpace(s string) string {
	return reSpaceRun.ReplaceAllString(s, "")
}

// truncate caps s at max bytes, matching the display bounds the sheet
// columns were sized for.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
