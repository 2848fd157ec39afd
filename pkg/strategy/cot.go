package strategy

import (
	"context"
	"strings"

	"github.com/zen-systems/solvegate/pkg/adapter"
)

// CoT answers with a single step-by-step reasoning call. Logic and
// common-sense questions get a second call that reviews the first answer.
type CoT struct {
	deps Deps
}

// Kind returns KindCoT.
func (c *CoT) Kind() Kind { return KindCoT }

// Execute runs the strategy.
func (c *CoT) Execute(ctx context.Context, task Task) Outcome {
	first, err := c.deps.complete(ctx, []adapter.Message{adapter.User(cotPrompt(task))}, c.deps.Settings.Temperatures.CoT)
	if err != nil {
		c.deps.Logger.WithError(err).Warn("cot: reasoning call failed")
		return absent(KindCoT, "reasoning call failed: %v", err)
	}
	if !task.ProblemType.NeedsFactCheck() {
		return answered(KindCoT, first)
	}

	checked, err := c.deps.complete(ctx, []adapter.Message{adapter.User(factCheckPrompt(task.Question, first))}, c.deps.Settings.Temperatures.FactCheck)
	if err != nil {
		c.deps.Logger.WithError(err).Debug("cot: fact-check call failed; keeping first answer")
		return answered(KindCoT, first)
	}
	if strings.TrimSpace(checked) == "" {
		return answered(KindCoT, first)
	}
	return answered(KindCoT, checked)
}
