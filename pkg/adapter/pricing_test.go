package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingLookup(t *testing.T) {
	p := Pricing{
		"openai": {
			"gpt-4o":  {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			"default": {PromptPer1K: 0.001, CompletionPer1K: 0.002},
		},
	}

	entry, ok := p.Lookup("openai", "gpt-4o")
	require.True(t, ok)
	assert.Equal(t, 0.01, entry.CompletionPer1K)

	entry, ok = p.Lookup("openai", "gpt-4.1")
	require.True(t, ok)
	assert.Equal(t, 0.001, entry.PromptPer1K)

	_, ok = p.Lookup("anthropic", "claude")
	assert.False(t, ok)

	_, ok = Pricing(nil).Estimate("openai", "gpt-4o", Usage{PromptTokens: 10})
	assert.False(t, ok)

	cost, ok := p.Estimate("openai", "gpt-4o", Usage{PromptTokens: 2000, CompletionTokens: 1000})
	require.True(t, ok)
	assert.InDelta(t, 0.015, cost, 1e-9)
}

func TestMeterAddsCost(t *testing.T) {
	inner := NewScriptedAdapter().Reply("four words are here")
	m := NewMeter(inner, WordCounter{}).WithPricing(Pricing{
		"mock": {"mock-1": {PromptPer1K: 1, CompletionPer1K: 2}},
	})

	_, err := m.Complete(context.Background(), &Request{Model: "mock-1", Messages: []Message{User("two words")}})
	require.NoError(t, err)

	reports := m.Reports()
	require.Len(t, reports, 1)
	assert.InDelta(t, 0.012, reports[0].CostUSD, 1e-9)
	assert.InDelta(t, 0.012, m.TotalCost(), 1e-9)
}
