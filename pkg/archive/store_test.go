package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/solvegate/pkg/consensus"
	"github.com/zen-systems/solvegate/pkg/router"
	"github.com/zen-systems/solvegate/pkg/solver"
)

func TestStoreTrace(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	res := &solver.Result{
		RunID:     "run-1",
		Question:  "What is 17 + 28?",
		Answer:    "45",
		Decision:  &router.Decision{ProblemType: router.Math, Strategy: router.CodeSynthesis},
		Tally:     consensus.Tally{{Answer: "45", Votes: 3}},
		Consensus: true,
		Calls:     4,
	}
	hash, err := s.StoreTrace(res)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.FileExists(t, filepath.Join(s.BasePath, "objects", hash[:2], hash+".json"))

	again, err := s.StoreTrace(res)
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	got, err := s.LoadTrace("run-1")
	require.NoError(t, err)
	assert.Equal(t, "45", got.Answer)
	assert.Equal(t, router.Math, got.Decision.ProblemType)
	assert.Equal(t, res.Tally, got.Tally)
}

func TestStoreTraceErrors(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.StoreTrace(&solver.Result{})
	assert.Error(t, err)

	_, err = s.LoadTrace("missing")
	assert.Error(t, err)

	_, err = s.LoadTrace("../escape")
	assert.Error(t, err)
}

func TestNewStoreDefaultsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	s, err := NewStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".solvegate", "traces"), s.BasePath)
	_, err = os.Stat(filepath.Join(s.BasePath, "runs"))
	assert.NoError(t, err)
}
