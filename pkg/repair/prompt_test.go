package repair

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/solvegate/pkg/adapter"
)

func TestCodeRepairPromptEscalatesOnRepeat(t *testing.T) {
	f := CodeFailure{Code: "print(1/0)", Error: "division by zero", Attempt: 1}

	first := CodeRepairPrompt(f, false)
	assert.Contains(t, first, "print(1/0)")
	assert.Contains(t, first, "division by zero")
	assert.NotContains(t, first, "Do NOT repeat")

	repeated := CodeRepairPrompt(f, true)
	if !strings.Contains(repeated, "Do NOT repeat the previous code") {
		t.Fatalf("missing repeat warning")
	}
}

func TestSelfCorrectionPromptShowsEmptyAttempts(t *testing.T) {
	prompt := SelfCorrectionPrompt("What is 2+2?", []string{"4", "", "5"})
	assert.Contains(t, prompt, "- 4\n- (no answer)\n- 5\n")

	prompt = SelfCorrectionPrompt("q", nil)
	assert.Contains(t, prompt, "- (no answer)")
}

func TestSummaryPromptIncludesTranscript(t *testing.T) {
	prompt := SummaryPrompt([]adapter.Message{adapter.Assistant("Thought: add"), adapter.User("Observation: 45")})
	assert.Contains(t, prompt, "[assistant] Thought: add")
	assert.Contains(t, prompt, "[user] Observation: 45")
}

func TestCorrectExtractsFinalAnswer(t *testing.T) {
	a := adapter.NewScriptedAdapter().Reply("The attempts mixed up units.\nFinal Answer: 12")
	c := NewCorrector(a, "mock-1")

	got := c.Correct(context.Background(), "q", []string{"10", "11"})
	assert.Equal(t, "12", got)

	reqs := a.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, DefaultTemperature, reqs[0].Temperature)
	assert.Contains(t, reqs[0].Messages[0].Content, "- 10\n- 11\n")
}

func TestCorrectFailureReturnsMarker(t *testing.T) {
	a := adapter.NewScriptedAdapter().Fail(errors.New("timeout"))
	assert.Equal(t, FailedMarker, NewCorrector(a, "m").Correct(context.Background(), "q", nil))

	empty := adapter.NewScriptedAdapter().Reply("   ")
	assert.Equal(t, FailedMarker, NewCorrector(empty, "m").Correct(context.Background(), "q", nil))
}
