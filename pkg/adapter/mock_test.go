package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedAdapterReplaysInOrder(t *testing.T) {
	boom := errors.New("boom")
	a := NewScriptedAdapter(MockReply{Text: "one"}).Fail(boom).Reply("three")

	ctx := context.Background()
	resp, err := a.Complete(ctx, &Request{Messages: []Message{User("a")}})
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Text)

	_, err = a.Complete(ctx, &Request{Messages: []Message{User("b")}})
	assert.ErrorIs(t, err, boom)

	resp, err = a.Complete(ctx, &Request{Messages: []Message{User("c")}})
	require.NoError(t, err)
	assert.Equal(t, "three", resp.Text)
	assert.Equal(t, 0, a.Remaining())

	reqs := a.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "b", reqs[1].Messages[0].Content)
}

func TestMockAdapterKeyedResponses(t *testing.T) {
	a := NewMockAdapterWithResponses(map[string]string{
		"17 + 28":            "45",
		"What is 17 + 28? x": "longer",
	}, "")

	resp, err := a.Complete(context.Background(), &Request{Messages: []Message{System("s"), User("Q: What is 17 + 28?")}})
	require.NoError(t, err)
	assert.Equal(t, "45", resp.Text)

	resp, err = a.Complete(context.Background(), &Request{Messages: []Message{User("unknown")}})
	require.NoError(t, err)
	assert.Equal(t, "mock response:\nunknown", resp.Text)
}

func TestMeterRecordsAndEstimates(t *testing.T) {
	inner := NewScriptedAdapter().Reply("four words are here").Fail(&AdapterError{Status: 500})
	m := NewMeter(inner, WordCounter{})

	_, err := m.Complete(context.Background(), &Request{Model: "mock-1", Messages: []Message{User("two words")}})
	require.NoError(t, err)
	_, err = m.Complete(context.Background(), &Request{Model: "mock-1", Messages: []Message{User("x")}})
	require.Error(t, err)

	reports := m.Reports()
	require.Len(t, reports, 2)
	assert.True(t, reports[0].Estimated)
	assert.Equal(t, 2, reports[0].Usage.PromptTokens)
	assert.Equal(t, 5, reports[0].Usage.CompletionTokens)
	assert.True(t, reports[1].Transient)
	assert.NotEmpty(t, reports[1].Error)
	assert.Equal(t, 2, m.Calls())
	assert.Len(t, m.Since(1), 1)
	assert.Equal(t, 7, m.Total().TotalTokens)
}

func TestMeterKeepsBoundedHistory(t *testing.T) {
	m := NewMeter(NewMockAdapter(), WordCounter{}).WithHistory(2)
	for i := 0; i < 3; i++ {
		_, err := m.Complete(context.Background(), &Request{Model: "mock-1", Messages: []Message{User("two words")}})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, m.Calls())
	assert.Len(t, m.Reports(), 2)
	assert.Len(t, m.Since(0), 2)
	assert.Len(t, m.Since(2), 1)
	assert.Empty(t, m.Since(3))
	assert.Nil(t, m.Since(4))
	assert.Equal(t, 6, m.Total().PromptTokens)

	m.Reset()
	assert.Equal(t, 0, m.Calls())
	assert.Equal(t, Usage{}, m.Total())
}

func TestSplitSystem(t *testing.T) {
	sys, rest := splitSystem([]Message{System("a"), User("u"), System("b"), Assistant("x")})
	assert.Equal(t, "a\n\nb", sys)
	assert.Equal(t, []Message{User("u"), Assistant("x")}, rest)
}
