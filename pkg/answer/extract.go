package answer

import (
	"regexp"
	"strings"
)

// maxBareLine is the longest last line accepted as an answer when the text
// carries no marker.
const maxBareLine = 100

var (
	finalMarker  = regexp.MustCompile(`(?i)(\[\[\s*final answer\s*:|final answer\s*:)`)
	fencedMarker = regexp.MustCompile("(?is)(?:\\[\\[\\s*final answer|final answer|answer)\\s*:\\s*```[a-zA-Z0-9_+-]*[ \\t]*\\n(.*?)```")
	fenceBlock   = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)[ \\t]*\\n(.*?)```")
)

// ExtractFinal pulls the final answer out of a model response. The first
// rule that matches wins:
//
//  1. the content of \boxed{...}
//  2. a fenced block directly after "Final Answer:" or "Answer:"
//  3. the first line after the last "Final Answer:" (or "[[FINAL ANSWER: ...]]")
//  4. the last non-empty line, if shorter than 100 characters
//  5. the whole text
func ExtractFinal(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if v, ok := Boxed(text); ok {
		return v
	}
	if m := fencedMarker.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	if v, ok := afterFinalMarker(text); ok {
		return v
	}
	if line := lastLine(text); line != "" && len(line) < maxBareLine {
		return line
	}
	return text
}

// Boxed returns the brace-balanced content of the first \boxed{...}.
func Boxed(text string) (string, bool) {
	idx := strings.Index(text, `\boxed{`)
	if idx < 0 {
		return "", false
	}
	start := idx + len(`\boxed{`)
	depth := 1
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[start:i]), true
			}
		}
	}
	return "", false
}

func afterFinalMarker(text string) (string, bool) {
	locs := finalMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", false
	}
	last := locs[len(locs)-1]
	legacy := strings.HasPrefix(text[last[0]:], "[[")
	rest := strings.TrimLeft(text[last[1]:], " \t")
	line := rest
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		line = rest[:i]
	}
	if legacy {
		if i := strings.Index(line, "]]"); i >= 0 {
			line = line[:i]
		}
	}
	line = strings.TrimSpace(line)
	if line == "" {
		// Marker on its own line: take the next non-empty line.
		for _, l := range strings.Split(rest, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				return strings.TrimSuffix(l, "]]"), true
			}
		}
		return "", false
	}
	return line, true
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// CodeBlock returns the body and language tag of the first fenced block.
func CodeBlock(text string) (code, lang string, ok bool) {
	m := fenceBlock.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[2]), strings.ToLower(m[1]), true
}

// StripFences removes surrounding fence markers from code. Text without a
// fence is returned trimmed.
func StripFences(text string) (code, lang string) {
	if c, l, ok := CodeBlock(text); ok {
		return c, l
	}
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		nl := strings.IndexByte(t, '\n')
		if nl < 0 {
			return "", strings.ToLower(strings.TrimSpace(t))
		}
		lang = strings.ToLower(strings.TrimSpace(t[:nl]))
		t = strings.TrimSuffix(strings.TrimSpace(t[nl+1:]), "```")
	}
	return strings.TrimSpace(t), lang
}
