package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/solvegate/pkg/adapter"
)

func TestRouteParsesTagLines(t *testing.T) {
	a := adapter.NewScriptedAdapter().Reply("Type: Math\nPlan:\n1. Add 17 and 28.\n2. Report the sum.\nRecommendation: Use Python")
	p := NewPlanner(a, "mock-1")

	d := p.Route(context.Background(), "What is 17 + 28?")
	assert.Equal(t, Math, d.ProblemType)
	assert.Equal(t, CodeSynthesis, d.Strategy)
	assert.Equal(t, "1. Add 17 and 28.\n2. Report the sum.", d.Plan)
	assert.True(t, d.UsedLLM)
	assert.Empty(t, d.Reasons)

	reqs := a.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Messages[0].Content, "What is 17 + 28?")
	assert.Equal(t, 0.0, reqs[0].Temperature)
}

func TestRouteModelFailureUsesDefault(t *testing.T) {
	a := adapter.NewScriptedAdapter().Fail(errors.New("connection refused"))
	d := NewPlanner(a, "mock-1").Route(context.Background(), "q")

	assert.Equal(t, Logic, d.ProblemType)
	assert.Equal(t, DirectReasoning, d.Strategy)
	assert.False(t, d.UsedLLM)
	require.Len(t, d.Reasons, 1)
	assert.Contains(t, d.Reasons[0], "connection refused")
}

func TestParsePlan(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		typ      ProblemType
		strategy Recommendation
		plan     string
	}{
		{
			name:     "markdown tags",
			raw:      "**Type:** Common Sense\n**Plan:** Think about seasons.\n**Recommendation:** Use Reasoning",
			typ:      CommonSense,
			strategy: DirectReasoning,
			plan:     "Think about seasons.",
		},
		{
			name:     "lower case",
			raw:      "type: logic\nrecommendation: use code\nplan: enumerate cases",
			typ:      Logic,
			strategy: CodeSynthesis,
			plan:     "enumerate cases",
		},
		{
			name:     "json object",
			raw:      "```json\n{\"type\": \"math\", \"plan\": [\"square 12\", \"subtract 4\"], \"recommendation\": \"code\"}\n```",
			typ:      Math,
			strategy: CodeSynthesis,
			plan:     "square 12\nsubtract 4",
		},
		{
			name:     "no tags",
			raw:      "I would just think about it carefully.",
			typ:      Logic,
			strategy: DirectReasoning,
			plan:     "I would just think about it carefully.",
		},
		{
			name:     "unknown values",
			raw:      "Type: Geography\nRecommendation: Ask a friend",
			typ:      Logic,
			strategy: DirectReasoning,
			plan:     "Type: Geography\nRecommendation: Ask a friend",
		},
		{
			name:     "problem type alias",
			raw:      "Problem Type: Arithmetic\nStrategy: PAL",
			typ:      Math,
			strategy: CodeSynthesis,
			plan:     "Problem Type: Arithmetic\nStrategy: PAL",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ParsePlan(tc.raw)
			assert.Equal(t, tc.typ, d.ProblemType)
			assert.Equal(t, tc.strategy, d.Strategy)
			assert.Equal(t, tc.plan, d.Plan)
		})
	}
}

func TestParsePlanRecordsDefaults(t *testing.T) {
	d := ParsePlan("nothing useful")
	assert.Len(t, d.Reasons, 2)
}

func TestEnsemble(t *testing.T) {
	assert.Equal(t, []string{"pal", "pal", "react"}, Ensemble(&Decision{Strategy: CodeSynthesis}, EnsembleConfig{}))
	assert.Equal(t, []string{"cot", "cot", "react"}, Ensemble(&Decision{Strategy: DirectReasoning}, EnsembleConfig{}))
	assert.Equal(t, []string{"cot", "cot", "react"}, Ensemble(nil, EnsembleConfig{}))

	custom := EnsembleConfig{CodeSynthesis: []string{"pal", "react", "react"}}
	got := Ensemble(&Decision{Strategy: CodeSynthesis}, custom)
	assert.Equal(t, []string{"pal", "react", "react"}, got)

	got[0] = "changed"
	assert.Equal(t, "pal", custom.CodeSynthesis[0])
}

func TestNeedsFactCheck(t *testing.T) {
	assert.False(t, Math.NeedsFactCheck())
	assert.True(t, Logic.NeedsFactCheck())
	assert.True(t, CommonSense.NeedsFactCheck())
}

func TestTriggerIndex(t *testing.T) {
	assert.Equal(t, 4, triggerIndex("use python", "python"))
	assert.Equal(t, -1, triggerIndex("pythonic", "python"))
	assert.Equal(t, 16, triggerIndex("mathematical or math", "math"))
	assert.Equal(t, -1, triggerIndex("aftermath", "math"))
}

func TestParsePlanEarliestRecommendationWins(t *testing.T) {
	cases := []struct {
		raw      string
		strategy Recommendation
	}{
		{"Type: Logic\nRecommendation: Use Reasoning (no code needed)", DirectReasoning},
		{"Type: Logic\nRecommendation: Use Reasoning; a program would not help", DirectReasoning},
		{"Type: Math\nRecommendation: Use Python, reasoning alone is error prone", CodeSynthesis},
		{"Type: Math\nRecommendation: Code Synthesis", CodeSynthesis},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.strategy, ParsePlan(tc.raw).Strategy)
		})
	}
}

func TestMatchProblemTypePrefersEarliest(t *testing.T) {
	typ, ok := matchProblemType("Logic puzzle, little math involved")
	assert.True(t, ok)
	assert.Equal(t, Logic, typ)

	typ, ok = matchProblemType("common sense")
	assert.True(t, ok)
	assert.Equal(t, CommonSense, typ)
}
