package eval

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/logging"
	"github.com/zen-systems/solvegate/pkg/solver"
)

// Separator ends every question block in the evaluation log.
var Separator = strings.Repeat("-", 20)

// Solver is the part of *solver.Solver the harness needs.
type Solver interface {
	SolveDetailed(ctx context.Context, question string) *solver.Result
}

// TraceArchiver keeps the full result of every question.
type TraceArchiver interface {
	StoreTrace(res *solver.Result) (string, error)
}

// Harness runs a dataset through a Solver.
type Harness struct {
	solver Solver
	out    io.Writer
	store  *Store
	traces TraceArchiver
	meta   RunMeta
	logger logrus.FieldLogger
}

// Option configures a Harness.
type Option func(*Harness)

// WithStore persists the run and every graded record.
func WithStore(s *Store, meta RunMeta) Option {
	return func(h *Harness) {
		h.store = s
		h.meta = meta
	}
}

// WithTraces archives each solver result.
func WithTraces(a TraceArchiver) Option {
	return func(h *Harness) {
		h.traces = a
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// NewHarness writes its question log to out.
func NewHarness(s Solver, out io.Writer, opts ...Option) *Harness {
	h := &Harness{solver: s, out: out, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(h)
	}
	if h.out == nil {
		h.out = io.Discard
	}
	return h
}

// Run solves every record in order. On cancellation the partial report is
// returned together with the context error.
func (h *Harness) Run(ctx context.Context, records []Record) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	if h.store != nil {
		id, err := h.store.StartRun(h.meta)
		if err != nil {
			return nil, err
		}
		report.RunID = id
	}
	log := h.logger.WithField(logging.RunIDField, report.RunID)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		idx := rec.Index
		if idx == 0 {
			idx = i + 1
		}

		res := h.solver.SolveDetailed(ctx, rec.Input)
		correct := Grade(rec.Output, res.Answer)
		report.Add(rec.Domain, correct)
		writeBlock(h.out, idx, rec, res.Answer, correct)

		if h.store != nil {
			if err := h.store.RecordResult(report.RunID, idx, rec, res, correct); err != nil {
				return report, err
			}
		}
		if h.traces != nil {
			if _, err := h.traces.StoreTrace(res); err != nil {
				log.WithError(err).Warn("could not archive trace")
			}
		}
		log.WithFields(logrus.Fields{
			"question": idx,
			"domain":   rec.Domain,
			"correct":  correct,
			"fallback": res.Fallback,
		}).Info("question graded")
	}

	if h.store != nil {
		if err := h.store.FinishRun(report.RunID, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func writeBlock(w io.Writer, idx int, rec Record, got string, correct bool) {
	result := "INCORRECT"
	if correct {
		result = "CORRECT"
	}
	fmt.Fprintf(w, "[Question %d] (%s)\n", idx, rec.Domain)
	fmt.Fprintf(w, "Input: %s\n", oneLine(rec.Input))
	fmt.Fprintf(w, "Expected: %s\n", oneLine(rec.Output))
	fmt.Fprintf(w, "Agent Output: %s\n", oneLine(got))
	fmt.Fprintf(w, "Result: %s\n", result)
	fmt.Fprintln(w, Separator)
}

// oneLine keeps each log field on a single line so the log can be parsed
// back line by line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
