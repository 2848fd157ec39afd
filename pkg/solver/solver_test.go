package solver

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/logging"
	"github.com/zen-systems/solvegate/pkg/repair"
	"github.com/zen-systems/solvegate/pkg/router"
	"github.com/zen-systems/solvegate/pkg/sandbox"
	"github.com/zen-systems/solvegate/pkg/strategy"
)

// TestMain lets the test binary double as the sandbox worker.
func TestMain(m *testing.M) {
	if sandbox.IsWorker() {
		os.Exit(sandbox.WorkerMain())
	}
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type stubSandbox struct{}

func (stubSandbox) Run(context.Context, string) sandbox.Result {
	return sandbox.Result{Error: "not available"}
}

func (stubSandbox) RunLanguage(context.Context, sandbox.Language, string) sandbox.Result {
	return sandbox.Result{Error: "not available"}
}

func TestStubSandboxRendersSinglePrefix(t *testing.T) {
	res := stubSandbox{}.Run(context.Background(), "print(1)")
	assert.Equal(t, "Error: not available", res.String())
	assert.True(t, sandbox.IsFailure(res.String()))
}

func newSolver(t *testing.T, a adapter.Adapter, sb sandbox.Executor) *Solver {
	t.Helper()
	s, err := New(Options{
		Adapter: a,
		Model:   "mock-1",
		Sandbox: sb,
		Counter: adapter.WordCounter{},
		Logger:  logging.Discard(),
	})
	require.NoError(t, err)
	return s
}

func TestSolveEndToEnd(t *testing.T) {
	mock := adapter.NewMockAdapterWithResponses(map[string]string{
		"planning assistant":     "Type: Math\nPlan: 1. Add the numbers.\nRecommendation: Use Code",
		"prints only the answer": "```lua\nprint(17+28)\n```",
		"alternating Thought":    "Thought: this is simple addition.\nFinal Answer: 45",
	}, "")
	s := newSolver(t, mock, sandbox.NewRunner(sandbox.WithTimeout(5*time.Second), sandbox.WithLogger(logging.Discard())))

	res := s.SolveDetailed(context.Background(), "What is 17 + 28?")

	assert.Equal(t, "45", res.Answer)
	assert.True(t, res.Consensus)
	assert.False(t, res.Fallback)
	assert.Equal(t, router.Math, res.Decision.ProblemType)
	assert.Equal(t, router.CodeSynthesis, res.Decision.Strategy)
	require.Len(t, res.Strategies, 3)
	assert.Equal(t, strategy.KindPAL, res.Strategies[0].Kind)
	assert.Equal(t, strategy.KindReAct, res.Strategies[2].Kind)
	for _, sr := range res.Strategies {
		assert.True(t, sr.Counted, sr.Reason)
		assert.Equal(t, "45", sr.Final)
	}
	assert.Equal(t, 4, res.Calls)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "45", s.Solve(context.Background(), "What is 17 + 28?"))
}

func TestSolveMeterHistoryStaysBounded(t *testing.T) {
	mock := adapter.NewMockAdapterWithResponses(map[string]string{
		"planning assistant": "Type: Math\nRecommendation: Use Reasoning",
	}, "Final Answer: 45")
	meter := adapter.NewMeter(mock, adapter.WordCounter{}).WithHistory(3)
	s := newSolver(t, meter, stubSandbox{})

	first := s.SolveDetailed(context.Background(), "What is 17 + 28?")
	second := s.SolveDetailed(context.Background(), "What is 17 + 28?")

	assert.GreaterOrEqual(t, first.Calls, 4)
	assert.LessOrEqual(t, len(second.Reports), 3)
	assert.Len(t, meter.Reports(), 3)
	assert.Equal(t, first.Calls+second.Calls, meter.Calls())
}

func TestSolveFallsBackWithoutConsensus(t *testing.T) {
	mock := adapter.NewScriptedAdapter().
		Reply("Type: Math\nRecommendation: Use Reasoning").
		Reply("Final Answer: 4").
		Reply("Final Answer: 5").
		Reply("Thought: done\nFinal Answer: 6").
		Reply("The answers disagree.\nFinal Answer: 5")
	s := newSolver(t, mock, stubSandbox{})

	res := s.SolveDetailed(context.Background(), "Pick a number")

	assert.Equal(t, "5", res.Answer)
	assert.False(t, res.Consensus)
	assert.True(t, res.Fallback)
	assert.Equal(t, 5, res.Calls)
	reqs := mock.Requests()
	require.Len(t, reqs, 5)
	last := reqs[4].Messages[len(reqs[4].Messages)-1].Content
	assert.Contains(t, last, "Pick a number")
	assert.Contains(t, last, "4")
	assert.Contains(t, last, "6")
}

func TestSolveAllFailuresReturnMarker(t *testing.T) {
	boom := errors.New("unavailable")
	mock := adapter.NewScriptedAdapter()
	for i := 0; i < 5; i++ {
		mock.Fail(boom)
	}
	s := newSolver(t, mock, stubSandbox{})

	res := s.SolveDetailed(context.Background(), "Is the sky blue?")

	assert.Equal(t, repair.FailedMarker, res.Answer)
	assert.True(t, res.Fallback)
	assert.Equal(t, router.Logic, res.Decision.ProblemType)
	for _, sr := range res.Strategies {
		assert.False(t, sr.OK)
		assert.False(t, sr.Counted)
	}
	assert.Equal(t, 0, mock.Remaining())
}

func TestSolveIgnoresErrorAnswers(t *testing.T) {
	mock := adapter.NewScriptedAdapter().
		Reply("Type: Math\nRecommendation: Use Reasoning").
		Reply("Error: something broke").
		Reply("Final Answer: 7").
		Reply("Final Answer: 7.0")
	s := newSolver(t, mock, stubSandbox{})

	res := s.SolveDetailed(context.Background(), "What is 3 + 4?")

	assert.Equal(t, "7", res.Answer)
	assert.True(t, res.Consensus)
	assert.False(t, res.Strategies[0].Counted)
	assert.Equal(t, 2, res.Tally.Total())
}

func TestSolveReturnsAnswerAsWritten(t *testing.T) {
	mock := adapter.NewScriptedAdapter().
		Reply("Type: Common Sense\nRecommendation: Use Reasoning").
		Reply("Final Answer: Paris").
		Reply("Paris is right.\nFinal Answer: Paris").
		Reply("Final Answer: Lyon").
		Reply("Final Answer: Lyon").
		Reply("Thought: known fact\nFinal Answer: paris")
	s := newSolver(t, mock, stubSandbox{})

	res := s.SolveDetailed(context.Background(), "What is the capital of France?")

	assert.Equal(t, "Paris", res.Answer)
	assert.Equal(t, `["paris"=2 "lyon"=1]`, res.Tally.String())
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Sandbox: stubSandbox{}})
	assert.Error(t, err)

	_, err = New(Options{Adapter: adapter.NewMockAdapter()})
	assert.Error(t, err)

	_, err = New(Options{
		Adapter:   adapter.NewMockAdapter(),
		Sandbox:   stubSandbox{},
		Ensembles: router.EnsembleConfig{DirectReasoning: []string{"tree"}},
	})
	assert.Error(t, err)
}
