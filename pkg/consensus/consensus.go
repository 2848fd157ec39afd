// Package consensus reconciles several candidate answers by plurality vote.
package consensus

import (
	"fmt"
	"strings"

	"github.com/zen-systems/solvegate/pkg/answer"
)

// DefaultQuorum is the minimum number of agreeing candidates.
const DefaultQuorum = 2

// Count is the number of votes one normalized answer received.
type Count struct {
	Answer string `json:"answer"`
	Votes  int    `json:"votes"`
}

// Tally holds vote counts in first-seen order.
type Tally []Count

// Leader returns the answer with the most votes. Ties go to the answer seen
// first.
func (t Tally) Leader() (Count, bool) {
	if len(t) == 0 {
		return Count{}, false
	}
	best := t[0]
	for _, c := range t[1:] {
		if c.Votes > best.Votes {
			best = c
		}
	}
	return best, true
}

// Total returns the number of counted votes.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c.Votes
	}
	return n
}

func (t Tally) String() string {
	parts := make([]string, 0, len(t))
	for _, c := range t {
		parts = append(parts, fmt.Sprintf("%q=%d", c.Answer, c.Votes))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// CountVotes tallies candidates after normalization. Empty answers are dropped.
func CountVotes(candidates []string) Tally {
	var tally Tally
	index := make(map[string]int)
	for _, c := range candidates {
		n := answer.Normalize(c)
		if n == "" {
			continue
		}
		if i, ok := index[n]; ok {
			tally[i].Votes++
			continue
		}
		index[n] = len(tally)
		tally = append(tally, Count{Answer: n, Votes: 1})
	}
	return tally
}

// Aggregate returns the plurality answer if at least quorum candidates agree
// on it. A quorum below 1 uses DefaultQuorum. The winner is the normalized
// form; the tally is returned even when there is no consensus.
func Aggregate(candidates []string, quorum int) (string, Tally, bool) {
	if quorum < 1 {
		quorum = DefaultQuorum
	}
	tally := CountVotes(candidates)
	leader, ok := tally.Leader()
	if !ok || leader.Votes < quorum {
		return "", tally, false
	}
	return leader.Answer, tally, true
}
