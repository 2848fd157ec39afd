package eval

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/solvegate/pkg/logging"
	"github.com/zen-systems/solvegate/pkg/router"
	"github.com/zen-systems/solvegate/pkg/solver"
	"github.com/zen-systems/solvegate/pkg/strategy"
)

type fakeSolver struct {
	answers map[string]string
	asked   []string
}

func (f *fakeSolver) SolveDetailed(_ context.Context, q string) *solver.Result {
	f.asked = append(f.asked, q)
	a := f.answers[q]
	return &solver.Result{
		RunID:    "solve-" + q,
		Question: q,
		Answer:   a,
		Decision: &router.Decision{ProblemType: router.Math, Strategy: router.CodeSynthesis},
		Strategies: []solver.StrategyResult{
			{Outcome: strategy.Outcome{Kind: strategy.KindPAL, OK: true}, Final: a, Counted: true},
			{Outcome: strategy.Outcome{Kind: strategy.KindPAL, OK: true}, Final: "0", Counted: true},
			{Outcome: strategy.Outcome{Kind: strategy.KindReAct, Reason: "no final answer"}},
		},
		Calls: 4,
	}
}

type memArchive struct{ ids []string }

func (m *memArchive) StoreTrace(res *solver.Result) (string, error) {
	m.ids = append(m.ids, res.RunID)
	return res.RunID, nil
}

func TestGrade(t *testing.T) {
	tests := []struct {
		expected, got string
		want          bool
	}{
		{"45", "45", true},
		{"45", "The answer is 45.", true},
		{"45", "45.0", true},
		{"-3", "-3", true},
		{"45", "46", false},
		{"Paris", "paris", true},
		{"Paris", " Paris! ", true},
		{"New York", "new   york", true},
		{"don't", "Don't", true},
		{"yes", "no", false},
		{"12 apples", "twelve apples", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.expected, tt.got), "Grade(%q, %q)", tt.expected, tt.got)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeText("  Hello,   World! "))
	assert.Equal(t, "well-known rock'n'roll", NormalizeText("Well-known rock'n'roll."))
	assert.Equal(t, "café", NormalizeText("Café?"))
}

func TestLoadDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.json")
	data := `[
		{"input": "q1", "output": "1", "domain": "math"},
		{"input": "q2", "output": "2", "domain": "logic"},
		{"input": "q3", "output": "3"},
		{"input": "q4", "output": "4", "domain": "math"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	all, err := LoadDataset(path, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "unknown", all[2].Domain)
	assert.Equal(t, 4, all[3].Index)

	part, err := LoadDataset(path, 1, 2)
	require.NoError(t, err)
	require.Len(t, part, 2)
	assert.Equal(t, "q2", part[0].Input)
	assert.Equal(t, 2, part[0].Index)

	none, err := LoadDataset(path, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = LoadDataset(filepath.Join(t.TempDir(), "missing.json"), 0, 0)
	assert.Error(t, err)
}

func TestHarnessRun(t *testing.T) {
	records := []Record{
		{Input: "What is 17 + 28?", Output: "45", Domain: "math", Index: 1},
		{Input: "Capital of France?", Output: "Paris", Domain: "geo", Index: 2},
		{Input: "What is 2 + 2?", Output: "4", Domain: "math", Index: 3},
	}
	fs := &fakeSolver{answers: map[string]string{
		"What is 17 + 28?":   "45",
		"Capital of France?": "Paris",
		"What is 2 + 2?":     "5",
	}}
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	traces := &memArchive{}

	var log bytes.Buffer
	h := NewHarness(fs, &log,
		WithStore(store, RunMeta{Adapter: "mock", Model: "mock-1", Dataset: "dev.json"}),
		WithTraces(traces),
		WithLogger(logging.Discard()))
	report, err := h.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Correct)
	math, ok := report.Domain("math")
	require.True(t, ok)
	assert.Equal(t, 2, math.Total)
	assert.Equal(t, 1, math.Correct)
	assert.InDelta(t, 66.67, report.Accuracy(), 0.01)
	assert.Len(t, traces.ids, 3)

	out := log.String()
	assert.Contains(t, out, "[Question 1] (math)\n")
	assert.Contains(t, out, "Expected: 45\nAgent Output: 45\nResult: CORRECT\n")
	assert.Contains(t, out, "Agent Output: 5\nResult: INCORRECT\n")
	assert.Equal(t, 3, strings.Count(out, Separator+"\n"))

	total, correct, err := store.RunTotals(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, correct)

	agreement, err := store.StrategyAgreement(report.RunID)
	require.NoError(t, err)
	require.Len(t, agreement, 2)
	assert.Equal(t, Agreement{Strategy: "pal", Runs: 6, Answered: 6, Agreed: 3}, agreement[0])
	assert.Equal(t, Agreement{Strategy: "react", Runs: 3, Answered: 0, Agreed: 0}, agreement[1])
}

func TestHarnessStopsOnCancel(t *testing.T) {
	fs := &fakeSolver{answers: map[string]string{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewHarness(fs, nil, WithLogger(logging.Discard())).Run(ctx, []Record{{Input: "q", Output: "1", Domain: "math"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, fs.asked)
}

func TestAnalyzeLogRoundTrip(t *testing.T) {
	fs := &fakeSolver{answers: map[string]string{"a": "1", "b": "x", "c": "3"}}
	var log bytes.Buffer
	_, err := NewHarness(fs, &log, WithLogger(logging.Discard())).Run(context.Background(), []Record{
		{Input: "a", Output: "1", Domain: "math", Index: 1},
		{Input: "b", Output: "y", Domain: "logic", Index: 2},
		{Input: "c", Output: "3", Domain: "math", Index: 3},
	})
	require.NoError(t, err)

	a, err := AnalyzeLog(&log)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Recorded.Total)
	assert.Equal(t, 2, a.Recorded.Correct)
	assert.Equal(t, a.Recorded.Total, a.Regraded.Total)
	assert.Equal(t, a.Recorded.Correct, a.Regraded.Correct)
	logic, ok := a.Recorded.Domain("logic")
	require.True(t, ok)
	assert.Equal(t, 0, logic.Correct)
}

func TestAnalyzeLogRegrades(t *testing.T) {
	log := strings.Join([]string{
		"[Question 1] (math)",
		"Expected: 10",
		"Agent Output: The total is 10 apples",
		"Result: INCORRECT",
		Separator,
		"some noise",
		"[Question 2] (common_sense)",
		"Expected: Yes",
		"Agent Output: yes.",
		"Result: CORRECT",
		Separator,
	}, "\n")

	a, err := AnalyzeLog(strings.NewReader(log))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Recorded.Total)
	assert.Equal(t, 1, a.Recorded.Correct)
	assert.Equal(t, 2, a.Regraded.Total)
	assert.Equal(t, 2, a.Regraded.Correct)
}

func TestReportWrite(t *testing.T) {
	var r Report
	r.Add("math", true)
	r.Add("math", false)
	r.Add("logic", true)

	var buf bytes.Buffer
	r.Write(&buf)
	out := buf.String()
	assert.Contains(t, out, "Domain: MATH\n")
	assert.Contains(t, out, "  Accuracy:  50.00%\n")
	assert.Contains(t, out, "Accuracy: 66.67%\n")
	assert.Less(t, strings.Index(out, "MATH"), strings.Index(out, "LOGIC"))
}
