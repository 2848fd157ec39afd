package eval

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)
	punctPattern  = regexp.MustCompile(`[^\p{L}\p{N}_\s\-']`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// Grade reports whether got matches expected. When both contain a number the
// first number in each is compared numerically; otherwise the normalized
// texts must be equal.
func Grade(expected, got string) bool {
	if a, ok := firstNumber(expected); ok {
		if b, ok := firstNumber(got); ok {
			return a == b
		}
	}
	return NormalizeText(got) == NormalizeText(expected)
}

// NormalizeText lowercases s, replaces punctuation other than hyphens and
// apostrophes with spaces, and collapses whitespace.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
