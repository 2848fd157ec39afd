package strategy

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/answer"
	"github.com/zen-systems/solvegate/pkg/conversation"
	"github.com/zen-systems/solvegate/pkg/repair"
)

// PAL asks for a program, runs it in the sandbox and returns what it
// printed. Failed runs are sent back for repair up to PALMaxRepairs times;
// the first successful run wins.
type PAL struct {
	deps Deps
}

// Kind returns KindPAL.
func (p *PAL) Kind() Kind { return KindPAL }

// Execute runs the strategy.
func (p *PAL) Execute(ctx context.Context, task Task) Outcome {
	settings := p.deps.Settings
	temp := settings.Temperatures.PAL
	log := p.deps.Logger.WithField("strategy", KindPAL)

	conv := conversation.New(adapter.User(palPrompt(task, settings.CodeLanguage)))
	text, err := p.deps.complete(ctx, conv.Messages(), temp)
	if err != nil {
		log.WithError(err).Warn("pal: code request failed")
		return absent(KindPAL, "code request failed: %v", err)
	}
	conv = conv.Append(adapter.RoleAssistant, text)

	code, lang, ok := answer.CodeBlock(text)
	if !ok {
		return absent(KindPAL, "no code block in response")
	}

	maxRuns := 1 + settings.PALMaxRepairs
	var previous string
	for run := 1; ; run++ {
		res := p.deps.Sandbox.Run(ctx, fence(code, lang))
		log.WithFields(logrus.Fields{"run": run, "succeeded": res.Succeeded}).Debug("pal: sandbox run")
		if res.Succeeded {
			out := answered(KindPAL, res.Output)
			out.Executions = run
			return out
		}
		if run >= maxRuns {
			out := absent(KindPAL, "code failed after %d runs: %s", run, res.Error)
			out.Executions = run
			return out
		}

		prompt := repair.CodeRepairPrompt(repair.CodeFailure{
			Code:    code,
			Error:   res.String(),
			Attempt: run,
		}, run > 1 && code == previous)
		conv = conv.Append(adapter.RoleUser, prompt)

		text, err = p.deps.complete(ctx, conv.Messages(), temp)
		if err != nil {
			out := absent(KindPAL, "repair request failed: %v", err)
			out.Executions = run
			return out
		}
		conv = conv.Append(adapter.RoleAssistant, text)

		previous = code
		code, lang, ok = answer.CodeBlock(text)
		if !ok {
			out := absent(KindPAL, "no code block in repair response")
			out.Executions = run
			return out
		}
	}
}
