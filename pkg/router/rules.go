package router

import (
	"strings"
)

// Tag values are matched as whole words or phrases.
type trigger[T any] struct {
	phrase string
	value  T
}

var problemTypeTriggers = []trigger[ProblemType]{
	{"common sense", CommonSense},
	{"common-sense", CommonSense},
	{"commonsense", CommonSense},
	{"arithmetic", Math},
	{"mathematics", Math},
	{"math", Math},
	{"maths", Math},
	{"logical", Logic},
	{"logic", Logic},
}

var recommendationTriggers = []trigger[Recommendation]{
	{"code synthesis", CodeSynthesis},
	{"use python", CodeSynthesis},
	{"use code", CodeSynthesis},
	{"program", CodeSynthesis},
	{"python", CodeSynthesis},
	{"code", CodeSynthesis},
	{"pal", CodeSynthesis},
	{"use reasoning", DirectReasoning},
	{"reasoning", DirectReasoning},
	{"cot", DirectReasoning},
}

func matchProblemType(value string) (ProblemType, bool) {
	return matchEarliest(value, problemTypeTriggers)
}

func matchRecommendation(value string) (Recommendation, bool) {
	return matchEarliest(value, recommendationTriggers)
}

// matchEarliest returns the value of the trigger found earliest in value,
// so a leading "Use Reasoning" is not overridden by a later "no code
// needed". Ties go to the longer phrase.
func matchEarliest[T any](value string, triggers []trigger[T]) (T, bool) {
	v := strings.ToLower(value)
	var best T
	bestIdx, bestLen := -1, 0
	for _, t := range triggers {
		idx := triggerIndex(v, t.phrase)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && len(t.phrase) > bestLen) {
			best, bestIdx, bestLen = t.value, idx, len(t.phrase)
		}
	}
	return best, bestIdx >= 0
}

// triggerIndex returns the offset of the first word-boundary match of
// phrase in text, or -1.
func triggerIndex(text, phrase string) int {
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], phrase)
		if idx == -1 {
			return -1
		}
		idx += offset
		endIdx := idx + len(phrase)

		// Check word boundaries around the phrase
		before := idx == 0 || !isWordChar(text[idx-1])
		after := endIdx >= len(text) || !isWordChar(text[endIdx])
		if before && after {
			return idx
		}
		offset = idx + 1
	}
	return -1
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
