package strategy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/answer"
	"github.com/zen-systems/solvegate/pkg/conversation"
	"github.com/zen-systems/solvegate/pkg/repair"
	"github.com/zen-systems/solvegate/pkg/sandbox"
)

// StopSequence ends a ReAct turn where the tool result would begin.
const StopSequence = "Observation:"

var (
	finalAnswerMarker = regexp.MustCompile(`(?i)final answer\s*:`)
	actionLine        = regexp.MustCompile(`(?im)^[\s*]*action[\s*]*:[\s*]*(.*)$`)
	actionInputLine   = regexp.MustCompile(`(?im)^[\s*]*action input[\s*]*:[\s*]*(.*)$`)
)

type action int

const (
	actionUnknown action = iota
	actionCode
	actionCalculate
	actionNone
)

// ReAct alternates model reasoning with tool calls until the model gives a
// final answer or the turn cap is hit.
type ReAct struct {
	deps Deps
}

// Kind returns KindReAct.
func (r *ReAct) Kind() Kind { return KindReAct }

// Execute runs the strategy.
func (r *ReAct) Execute(ctx context.Context, task Task) Outcome {
	settings := r.deps.Settings
	log := r.deps.Logger.WithField("strategy", KindReAct)

	conv := conversation.New(adapter.User(reactPrompt(task, settings.CodeLanguage)))
	executions := 0
	for turn := 1; turn <= settings.ReActMaxTurns; turn++ {
		conv = r.compact(ctx, conv, log)

		text, err := r.deps.complete(ctx, conv.Messages(), settings.Temperatures.ReAct, StopSequence)
		if err != nil {
			log.WithError(err).WithField("turn", turn).Warn("react: model call failed")
			out := absent(KindReAct, "model call failed on turn %d: %v", turn, err)
			out.Turns, out.Executions = turn, executions
			return out
		}
		conv = conv.Append(adapter.RoleAssistant, text)

		if loc := finalAnswerMarker.FindStringIndex(text); loc != nil {
			out := answered(KindReAct, strings.TrimSpace(text[loc[1]:]))
			out.Turns, out.Executions = turn, executions
			return out
		}

		var observation string
		switch parseAction(text) {
		case actionCode:
			observation = r.runCode(ctx, text)
			executions++
		case actionCalculate:
			observation = r.calculate(ctx, text)
			executions++
		case actionNone:
			observation = continueObservation
		default:
			observation = formatObservation
		}
		log.WithFields(logrus.Fields{"turn": turn, "chars": conv.Chars()}).Debug("react: observation")
		conv = conv.Append(adapter.RoleUser, observationPrefix+observation)
	}

	out := absent(KindReAct, "no final answer after %d turns", settings.ReActMaxTurns)
	out.Turns, out.Executions = settings.ReActMaxTurns, executions
	return out
}

// compact replaces the middle of an oversized conversation with a model
// written summary. A failed summary call leaves the conversation as is.
func (r *ReAct) compact(ctx context.Context, conv conversation.Log, log logrus.FieldLogger) conversation.Log {
	settings := r.deps.Settings
	over := conv.Chars() > settings.ReActCompactChars
	if !over && settings.ReActCompactTokens > 0 {
		over = conv.Tokens(r.deps.Counter) > settings.ReActCompactTokens
	}
	if !over || conv.Len() <= 2 {
		return conv
	}

	prompt := repair.SummaryPrompt(conv.Middle())
	summary, err := r.deps.complete(ctx, []adapter.Message{adapter.User(prompt)}, settings.Temperatures.Summary)
	if err != nil || strings.TrimSpace(summary) == "" {
		log.WithError(err).Warn("react: summary call failed; keeping full conversation")
		return conv
	}

	compacted := conv.Compact(summaryPrefix + strings.TrimSpace(summary))
	log.WithFields(logrus.Fields{"before": conv.Chars(), "after": compacted.Chars()}).Debug("react: conversation compacted")
	return compacted
}

func (r *ReAct) runCode(ctx context.Context, text string) string {
	code, lang, ok := answer.CodeBlock(text)
	if !ok {
		return sandbox.ErrorPrefix + "no fenced code block found after \"Action: Code\""
	}
	if limit := r.deps.Settings.ReActMaxCodeChars; len(code) > limit {
		return fmt.Sprintf("%scode is %d characters long; the limit is %d", sandbox.ErrorPrefix, len(code), limit)
	}
	return r.deps.Sandbox.Run(ctx, fence(code, lang)).String()
}

func (r *ReAct) calculate(ctx context.Context, text string) string {
	input := ""
	if m := actionInputLine.FindStringSubmatch(text); m != nil {
		input = strings.TrimSpace(m[1])
	}
	if input == "" {
		if code, _, ok := answer.CodeBlock(text); ok {
			input = code
		}
	}
	input = strings.Trim(input, "`")
	if input == "" {
		return sandbox.ErrorPrefix + "missing \"Action Input:\" expression"
	}
	return r.deps.Sandbox.RunLanguage(ctx, sandbox.LangExpr, input).String()
}

func parseAction(text string) action {
	for _, m := range actionLine.FindAllStringSubmatch(text, -1) {
		value := strings.ToLower(strings.TrimSpace(strings.Trim(m[1], "*` ")))
		switch {
		case value == "":
			continue
		case strings.HasPrefix(value, "none"):
			return actionNone
		case strings.HasPrefix(value, "calculate"), strings.HasPrefix(value, "calculator"):
			return actionCalculate
		case strings.HasPrefix(value, "code"),
			strings.HasPrefix(value, "python"),
			strings.HasPrefix(value, "lua"),
			value == "go",
			strings.HasPrefix(value, "go "),
			strings.HasPrefix(value, "golang"),
			strings.HasPrefix(value, "run code"):
			return actionCode
		}
	}
	return actionUnknown
}
