// Package strategy implements the reasoning strategies a solver runs:
// direct chain-of-thought, program-aided code synthesis, and an interleaved
// reason/act loop with tool use.
package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/router"
	"github.com/zen-systems/solvegate/pkg/sandbox"
)

// Kind names a strategy.
type Kind string

const (
	KindCoT   Kind = "cot"
	KindPAL   Kind = "pal"
	KindReAct Kind = "react"
)

// Kinds lists every strategy kind.
var Kinds = []Kind{KindCoT, KindPAL, KindReAct}

// ParseKind validates a strategy name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	switch k {
	case KindCoT, KindPAL, KindReAct:
		return k, nil
	}
	return "", fmt.Errorf("unknown strategy %q", name)
}

// Task is the input shared by every strategy.
type Task struct {
	Question    string
	Plan        string
	ProblemType router.ProblemType
}

// Outcome is one strategy's candidate. OK=false means the strategy produced
// no answer; Reason then says why.
type Outcome struct {
	Kind       Kind   `json:"kind"`
	Raw        string `json:"raw,omitempty"`
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
	Executions int    `json:"executions,omitempty"`
	Turns      int    `json:"turns,omitempty"`
}

func answered(kind Kind, raw string) Outcome {
	return Outcome{Kind: kind, Raw: raw, OK: true}
}

func absent(kind Kind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Executor runs one strategy. Executors keep no state between calls.
type Executor interface {
	Kind() Kind
	Execute(ctx context.Context, task Task) Outcome
}

// Temperatures holds the sampling temperature of each call type.
type Temperatures struct {
	CoT       float64 `yaml:"cot"`
	PAL       float64 `yaml:"pal"`
	ReAct     float64 `yaml:"react"`
	FactCheck float64 `yaml:"fact_check"`
	Summary   float64 `yaml:"summary"`
}

// Settings tunes the strategies. Zero values take the defaults.
type Settings struct {
	MaxTokens          int
	Temperatures       Temperatures
	PALMaxRepairs      int
	ReActMaxTurns      int
	ReActCompactChars  int
	ReActCompactTokens int
	ReActMaxCodeChars  int
	// CodeLanguage is the language programs are requested in.
	CodeLanguage sandbox.Language
}

const (
	defaultPALMaxRepairs     = 2
	defaultReActMaxTurns     = 7
	defaultReActCompactChars = 12000
	defaultReActMaxCodeChars = 4000
)

// DefaultSettings returns the standard limits.
func DefaultSettings() Settings {
	return Settings{}.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.PALMaxRepairs <= 0 {
		s.PALMaxRepairs = defaultPALMaxRepairs
	}
	if s.ReActMaxTurns <= 0 {
		s.ReActMaxTurns = defaultReActMaxTurns
	}
	if s.ReActCompactChars <= 0 {
		s.ReActCompactChars = defaultReActCompactChars
	}
	if s.ReActMaxCodeChars <= 0 {
		s.ReActMaxCodeChars = defaultReActMaxCodeChars
	}
	if !s.CodeLanguage.Valid() || s.CodeLanguage == sandbox.LangExpr {
		s.CodeLanguage = sandbox.LangLua
	}
	return s
}

// Deps are the collaborators a strategy needs.
type Deps struct {
	Adapter  adapter.Adapter
	Model    string
	Sandbox  sandbox.Executor
	Settings Settings
	Counter  adapter.TokenCounter
	Logger   logrus.FieldLogger
}

// New builds the executor for kind.
func New(kind Kind, deps Deps) (Executor, error) {
	if deps.Adapter == nil {
		return nil, fmt.Errorf("strategy %s: adapter is required", kind)
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	deps.Settings = deps.Settings.withDefaults()

	switch kind {
	case KindCoT:
		return &CoT{deps: deps}, nil
	case KindPAL:
		if deps.Sandbox == nil {
			return nil, fmt.Errorf("strategy %s: sandbox is required", kind)
		}
		return &PAL{deps: deps}, nil
	case KindReAct:
		if deps.Sandbox == nil {
			return nil, fmt.Errorf("strategy %s: sandbox is required", kind)
		}
		return &ReAct{deps: deps}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

func (d Deps) complete(ctx context.Context, msgs []adapter.Message, temperature float64, stop ...string) (string, error) {
	resp, err := d.Adapter.Complete(ctx, &adapter.Request{
		Model:       d.Model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   d.Settings.MaxTokens,
		Stop:        stop,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func fence(code, lang string) string {
	return "```" + lang + "\n" + code + "\n```"
}
