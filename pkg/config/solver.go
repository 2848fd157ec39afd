package config

import (
	"github.com/zen-systems/solvegate/pkg/router"
	"github.com/zen-systems/solvegate/pkg/sandbox"
	"github.com/zen-systems/solvegate/pkg/strategy"
)

// StrategySettings converts the solver section into strategy limits.
func (c *Config) StrategySettings() strategy.Settings {
	s := c.Solver
	t := s.Temperatures
	return strategy.Settings{
		MaxTokens: c.Gateway.MaxTokens,
		Temperatures: strategy.Temperatures{
			CoT:       deref(t.CoT),
			PAL:       deref(t.PAL),
			ReAct:     deref(t.ReAct),
			FactCheck: deref(t.FactCheck),
			Summary:   deref(t.Summary),
		},
		PALMaxRepairs:      s.PALMaxRepairs,
		ReActMaxTurns:      s.ReActMaxTurns,
		ReActCompactChars:  s.ReActCompactChars,
		ReActCompactTokens: s.ReActCompactTokens,
		ReActMaxCodeChars:  s.ReActMaxCodeChars,
		CodeLanguage:       sandbox.ParseLanguage(s.CodeLanguage),
	}
}

// Ensembles returns the configured strategy lists.
func (c *Config) Ensembles() router.EnsembleConfig {
	return router.EnsembleConfig{
		CodeSynthesis:   append([]string(nil), c.Solver.Ensembles.CodeSynthesis...),
		DirectReasoning: append([]string(nil), c.Solver.Ensembles.DirectReasoning...),
	}
}

// PlannerTemperature returns the planner's sampling temperature.
func (c *Config) PlannerTemperature() float64 { return deref(c.Solver.Temperatures.Planner) }

// SelfCorrectTemperature returns the fallback call's sampling temperature.
func (c *Config) SelfCorrectTemperature() float64 {
	if c.Solver.Temperatures.SelfCorrect == nil {
		return 0.3
	}
	return *c.Solver.Temperatures.SelfCorrect
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
