// Package answer turns raw model output into comparable answers.
package answer

import (
	"math"
	"strconv"
	"strings"
)

// Normalize folds an answer for voting equality. Numeric answers are
// rendered canonically ("20.0" and "20" both become "20"); anything else is
// trimmed and lower-cased.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return text
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
