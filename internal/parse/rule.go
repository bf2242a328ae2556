package parse

import (
	"regexp"
	"strings"
)

// rule is one prioritized extraction attempt for a field: a compiled
// pattern plus a validity predicate applied to the candidate before it is
// accepted. Rules in a list are mutually exclusive fallbacks ordered by
// priority; they are never merged or scored against each other.
type rule struct {
	re    *regexp.Regexp
	valid func(candidate string) bool
}

// pickGroup implements the capture-group selection policy: the first
// non-empty capture group if the pattern has one, else the whole match.
func pickGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return m[0]
}

// firstMatch trials rules in priority order and returns the first
// candidate that both matches and validates. An invalid candidate moves
// on to the next rule; earlier rules are never reconsidered.
func firstMatch(text string, rules []rule) (string, bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cand := strings.TrimSpace(pickGroup(m))
		if r.valid != nil && !r.valid(cand) {
			continue
		}
		return cand, true
	}
	return "", false
}

// spaced compiles a literal into a pattern fragment tolerating arbitrary
// whitespace between every pair of consecutive characters, so "Total"
// also matches "T o t a l" and "To  tal". Every layout-mode literal goes
// through here instead of hand-writing the spaced pattern.
func spaced(lit string) string {
	parts := make([]string, 0, len(lit))
	for _, r := range lit {
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	return strings.Join(parts, `\s*`)
}

// spacedAlt builds a non-capturing alternation of spacing-tolerant literals.
func spacedAlt(lits ...string) string {
	alts := make([]string, len(lits))
	for i, l := range lits {
		alts[i] = spaced(l)
	}
	return "(?:" + strings.Join(alts, "|") + ")"
}

// minLen returns a validity predicate checking candidate length.
func minLen(n int) func(string) bool {
	return func(s string) bool { return len(s) >= n }
}
