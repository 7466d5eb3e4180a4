package crossref

import (
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Honorifics and generational suffixes carry no identity
var ignoredNameTokens = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {},
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {},
}

// foldName strips diacritics, lower-cases and turns punctuation into spaces
func foldName(s string) string {
	// transform.Chain is stateful, so build one per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'':
			// O'Brien == OBrien
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func nameTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(foldName(s)) {
		if _, skip := ignoredNameTokens[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// NormalizeName returns an order-independent key, so "Smith, John"
// and "john SMITH" compare equal
func NormalizeName(s string) string {
	tokens := nameTokens(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// fuzzyKeys returns the name in "first last" order, plus the surname-first
// reading of it. Edit-distance metrics need token order kept, so instead of
// sorting, both orders are scored and the best one wins.
func fuzzyKeys(r Record) []string {
	var tokens []string
	if r.FirstName != "" || r.LastName != "" {
		tokens = nameTokens(r.FirstName + " " + r.LastName)
	} else {
		tokens = nameTokens(r.Name)
	}
	if len(tokens) == 0 {
		return nil
	}

	keys := []string{strings.Join(tokens, " ")}
	if len(tokens) > 1 {
		rotated := append(append([]string{}, tokens[1:]...), tokens[0])
		keys = append(keys, strings.Join(rotated, " "))
	}
	return keys
}

// fuzzyScore is the best Jaro-Winkler similarity with at most one side
// read surname-first. Rotating both sides would only compare surnames
// first, which inflates the prefix bonus for shared family names.
func fuzzyScore(left, right []string) float64 {
	best := matchr.JaroWinkler(left[0], right[0], false)
	if len(left) > 1 {
		best = max(best, matchr.JaroWinkler(left[1], right[0], false))
	}
	if len(right) > 1 {
		best = max(best, matchr.JaroWinkler(left[0], right[1], false))
	}
	return best
}

// NormalizeEmail lower-cases and trims an address
func NormalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "mailto:")
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}
