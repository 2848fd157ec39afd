// Package repair builds the prompts that ask a model to fix or condense its
// own earlier output, and runs the self-correction fallback.
package repair

import (
	"fmt"
	"strings"

	"github.com/zen-systems/solvegate/pkg/adapter"
)

// CodeFailure describes one failed sandbox run.
type CodeFailure struct {
	Code    string
	Error   string
	Attempt int
}

// CodeRepairPrompt asks for a corrected code block after a failed run.
// When repeated is set the model already sent the same code twice and is
// told to change approach.
func CodeRepairPrompt(f CodeFailure, repeated bool) string {
	var sb strings.Builder

	if repeated {
		sb.WriteString("The previous code is repeating and failed again.\n")
		sb.WriteString("Do NOT repeat the previous code; change the approach.\n\n")
	} else {
		sb.WriteString("The following code failed when executed:\n\n")
	}

	sb.WriteString("---\n")
	sb.WriteString(f.Code)
	sb.WriteString("\n---\n\n")

	sb.WriteString(fmt.Sprintf("Error (attempt %d):\n", f.Attempt))
	sb.WriteString(f.Error)
	sb.WriteString("\n\nFix the problem and reply with the complete corrected program in a single fenced code block.")
	sb.WriteString(" The program must print only the final answer.")

	return sb.String()
}

// SummaryPrompt asks for a condensed account of a reasoning transcript.
func SummaryPrompt(messages []adapter.Message) string {
	var sb strings.Builder

	sb.WriteString("Summarize the progress of the reasoning transcript below.\n")
	sb.WriteString("Keep every intermediate result, tool observation and open question needed to finish.\n")
	sb.WriteString("Reply with the summary only.\n\n")
	sb.WriteString("Transcript:\n---\n")
	for _, m := range messages {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", m.Role, m.Content))
	}
	sb.WriteString("---\n")

	return sb.String()
}

// SelfCorrectionPrompt lists every previous attempt and asks for a fresh
// resolution. Empty attempts are shown as "(no answer)".
func SelfCorrectionPrompt(question string, previous []string) string {
	var sb strings.Builder

	sb.WriteString("Several attempts to answer the question below did not agree.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nPrevious attempts:\n")
	if len(previous) == 0 {
		sb.WriteString("- (no answer)\n")
	}
	for _, p := range previous {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "(no answer)"
		}
		sb.WriteString(fmt.Sprintf("- %s\n", p))
	}
	sb.WriteString("\nDiagnose why the attempts disagree, solve the question again with a different approach,")
	sb.WriteString(" and finish with a line of the form \"Final Answer: <answer>\".\n")

	return sb.String()
}
