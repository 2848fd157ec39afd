// Package router plans how a question should be solved.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/adapter"
)

// Planner asks the model to classify a question, sketch a plan and
// recommend a strategy.
type Planner struct {
	adapter     adapter.Adapter
	model       string
	temperature float64
	maxTokens   int
	logger      logrus.FieldLogger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithTemperature sets the sampling temperature for the planning call.
func WithTemperature(t float64) PlannerOption {
	return func(p *Planner) {
		p.temperature = t
	}
}

// WithMaxTokens caps the planning response length.
func WithMaxTokens(n int) PlannerOption {
	return func(p *Planner) {
		p.maxTokens = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) PlannerOption {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPlanner creates a planner that calls model through a.
func NewPlanner(a adapter.Adapter, model string, opts ...PlannerOption) *Planner {
	p := &Planner{
		adapter: a,
		model:   model,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Route makes one model call and parses the reply. It never fails: an
// unusable or missing reply yields the default decision.
func (p *Planner) Route(ctx context.Context, question string) *Decision {
	resp, err := p.adapter.Complete(ctx, &adapter.Request{
		Model:       p.model,
		Messages:    []adapter.Message{adapter.User(buildPlannerPrompt(question))},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		p.logger.WithError(err).Warn("planner call failed; using default decision")
		return DefaultDecision("", fmt.Sprintf("planner error: %v", err))
	}

	decision := ParsePlan(resp.Text)
	decision.UsedLLM = true
	p.logger.WithFields(logrus.Fields{
		"problem_type": decision.ProblemType,
		"strategy":     decision.Strategy,
	}).Debug("planner decision")
	return decision
}

func buildPlannerPrompt(question string) string {
	var sb strings.Builder
	sb.WriteString("You are a planning assistant. Analyze the question below before anyone solves it.\n")
	sb.WriteString("Classify it, outline the steps needed, and recommend how to solve it.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nRespond in exactly this format:\n")
	sb.WriteString("Type: <Math | Logic | Common Sense>\n")
	sb.WriteString("Plan: <numbered steps>\n")
	sb.WriteString("Recommendation: <Use Code | Use Reasoning>\n\n")
	sb.WriteString("Recommend code when the answer needs exact calculation.\n")
	return sb.String()
}
