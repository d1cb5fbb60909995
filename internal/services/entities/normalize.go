package entities

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	percentWordRegex = regexp.MustCompile(`(?i)\s*(?:percent|per cent)\b`)
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}$€£%.\s-]`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	numberRegex      = regexp.MustCompile(`\d+(?:[,]\d{3})*(?:\.\d+)?`)
)

// Normalize produces the canonical comparison form of an entity span:
// case-folded, punctuation stripped, "percent" canonicalized to "%",
// thousands separators removed, whitespace collapsed.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = percentWordRegex.ReplaceAllString(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	// Reattach % and currency symbols to their number
	s = strings.ReplaceAll(s, " %", "%")
	s = strings.ReplaceAll(s, "$ ", "$")
	s = strings.ReplaceAll(s, "€ ", "€")
	s = strings.ReplaceAll(s, "£ ", "£")
	return strings.TrimSpace(s)
}

// numericValue extracts the first numeric quantity from a normalized
// span, scaled by any trailing magnitude word. Returns false when the
// span carries no number.
func numericValue(normalized string) (float64, bool) {
	loc := numberRegex.FindStringIndex(normalized)
	if loc == nil {
		return 0, false
	}

	raw := strings.ReplaceAll(normalized[loc[0]:loc[1]], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	rest := normalized[loc[1]:]
	switch {
	case strings.HasPrefix(rest, "bn"), strings.HasPrefix(rest, " billion"), strings.HasPrefix(rest, " bn"):
		value *= 1e9
	case strings.HasPrefix(rest, "m"), strings.HasPrefix(rest, " million"), strings.HasPrefix(rest, " m"):
		value *= 1e6
	case strings.HasPrefix(rest, "k"), strings.HasPrefix(rest, " thousand"), strings.HasPrefix(rest, " k"):
		value *= 1e3
	}

	return value, true
}

// tokenize splits a normalized span into its comparison tokens
func tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
