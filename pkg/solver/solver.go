// Package solver answers a question by planning, running an ensemble of
// strategies, and voting on their answers.
package solver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/answer"
	"github.com/zen-systems/solvegate/pkg/consensus"
	"github.com/zen-systems/solvegate/pkg/logging"
	"github.com/zen-systems/solvegate/pkg/repair"
	"github.com/zen-systems/solvegate/pkg/router"
	"github.com/zen-systems/solvegate/pkg/sandbox"
	"github.com/zen-systems/solvegate/pkg/strategy"
)

// Options configures a Solver.
type Options struct {
	Adapter adapter.Adapter
	Model   string
	Sandbox sandbox.Executor

	Settings               strategy.Settings
	Ensembles              router.EnsembleConfig
	Quorum                 int
	PlannerTemperature     float64
	SelfCorrectTemperature float64

	Counter adapter.TokenCounter
	Pricing adapter.Pricing
	Logger  logrus.FieldLogger
}

// Solver runs the whole pipeline. A Solver is not safe for concurrent use:
// its call meter is shared across Solve calls.
type Solver struct {
	meter     *adapter.Meter
	planner   *router.Planner
	corrector *repair.Corrector
	executors map[strategy.Kind]strategy.Executor
	ensembles router.EnsembleConfig
	quorum    int
	logger    logrus.FieldLogger
}

// New builds a Solver. Every strategy named in the ensembles must exist.
func New(opts Options) (*Solver, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("solver: adapter is required")
	}
	if opts.Sandbox == nil {
		return nil, fmt.Errorf("solver: sandbox is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	quorum := opts.Quorum
	if quorum < 1 {
		quorum = consensus.DefaultQuorum
	}

	meter, ok := opts.Adapter.(*adapter.Meter)
	if !ok {
		meter = adapter.NewMeter(opts.Adapter, opts.Counter)
	}
	if opts.Pricing != nil {
		meter.WithPricing(opts.Pricing)
	}

	deps := strategy.Deps{
		Adapter:  meter,
		Model:    opts.Model,
		Sandbox:  opts.Sandbox,
		Settings: opts.Settings,
		Counter:  opts.Counter,
		Logger:   logger,
	}
	executors := make(map[strategy.Kind]strategy.Executor)
	for _, names := range [][]string{opts.Ensembles.CodeSynthesis, opts.Ensembles.DirectReasoning, router.DefaultEnsembles().CodeSynthesis, router.DefaultEnsembles().DirectReasoning} {
		for _, name := range names {
			kind, err := strategy.ParseKind(name)
			if err != nil {
				return nil, fmt.Errorf("solver: %w", err)
			}
			if _, ok := executors[kind]; ok {
				continue
			}
			exec, err := strategy.New(kind, deps)
			if err != nil {
				return nil, fmt.Errorf("solver: %w", err)
			}
			executors[kind] = exec
		}
	}

	corrector := repair.NewCorrector(meter, opts.Model)
	corrector.Temperature = opts.SelfCorrectTemperature
	corrector.MaxTokens = opts.Settings.MaxTokens
	corrector.Logger = logger

	return &Solver{
		meter: meter,
		planner: router.NewPlanner(meter, opts.Model,
			router.WithTemperature(opts.PlannerTemperature),
			router.WithMaxTokens(opts.Settings.MaxTokens),
			router.WithLogger(logger)),
		corrector: corrector,
		executors: executors,
		ensembles: opts.Ensembles,
		quorum:    quorum,
		logger:    logger,
	}, nil
}

// StrategyResult is one ensemble member's contribution.
type StrategyResult struct {
	strategy.Outcome
	Final   string `json:"final,omitempty"`
	Counted bool   `json:"counted"`
}

// Result describes one Solve call.
type Result struct {
	RunID      string               `json:"run_id"`
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	Decision   *router.Decision     `json:"decision"`
	Strategies []StrategyResult     `json:"strategies"`
	Tally      consensus.Tally      `json:"tally"`
	Consensus  bool                 `json:"consensus"`
	Fallback   bool                 `json:"fallback"`
	Calls      int                  `json:"calls"`
	Usage      adapter.Usage        `json:"usage"`
	CostUSD    float64              `json:"cost_usd,omitempty"`
	Reports    []adapter.CallReport `json:"reports,omitempty"`
	Duration   time.Duration        `json:"duration"`
}

// Solve returns the final answer. It never fails; when nothing works the
// answer is an error marker string.
func (s *Solver) Solve(ctx context.Context, question string) string {
	return s.SolveDetailed(ctx, question).Answer
}

// SolveDetailed runs the pipeline and returns everything it observed.
func (s *Solver) SolveDetailed(ctx context.Context, question string) *Result {
	start := time.Now()
	mark := s.meter.Calls()
	res := &Result{RunID: uuid.NewString(), Question: question}
	log := s.logger.WithField(logging.RunIDField, res.RunID)

	res.Decision = s.planner.Route(ctx, question)
	task := strategy.Task{
		Question:    question,
		Plan:        res.Decision.Plan,
		ProblemType: res.Decision.ProblemType,
	}

	var candidates, attempts []string
	for _, name := range router.Ensemble(res.Decision, s.ensembles) {
		sr := s.run(ctx, name, task)
		if sr.Counted {
			candidates = append(candidates, sr.Final)
		}
		attempts = append(attempts, sr.Final)
		res.Strategies = append(res.Strategies, sr)
		log.WithFields(logrus.Fields{
			"strategy": sr.Kind,
			"ok":       sr.OK,
			"final":    sr.Final,
			"reason":   sr.Reason,
		}).Debug("strategy finished")
	}

	winner, tally, ok := consensus.Aggregate(candidates, s.quorum)
	res.Tally = tally
	res.Consensus = ok
	if ok {
		res.Answer = representative(candidates, winner)
	} else {
		res.Fallback = true
		res.Answer = s.corrector.Correct(ctx, question, attempts)
	}

	reports := s.meter.Since(mark)
	res.Reports = reports
	res.Calls = s.meter.Calls() - mark
	for _, r := range reports {
		res.Usage = res.Usage.Add(r.Usage)
		res.CostUSD += r.CostUSD
	}
	res.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"problem_type": res.Decision.ProblemType,
		"strategy":     res.Decision.Strategy,
		"tally":        res.Tally.String(),
		"fallback":     res.Fallback,
		"calls":        res.Calls,
		"duration":     res.Duration.Round(time.Millisecond),
	}).Info("question solved")
	return res
}

func (s *Solver) run(ctx context.Context, name string, task strategy.Task) StrategyResult {
	kind, err := strategy.ParseKind(name)
	if err != nil {
		return StrategyResult{Outcome: strategy.Outcome{Kind: strategy.Kind(name), Reason: err.Error()}}
	}
	exec, ok := s.executors[kind]
	if !ok {
		return StrategyResult{Outcome: strategy.Outcome{Kind: kind, Reason: "strategy not configured"}}
	}

	out := exec.Execute(ctx, task)
	sr := StrategyResult{Outcome: out}
	if !out.OK {
		return sr
	}
	sr.Final = answer.ExtractFinal(out.Raw)
	sr.Counted = sr.Final != "" && !isErrorMarker(sr.Final)
	return sr
}

// isErrorMarker reports sandbox failures and other error strings that must
// not take part in the vote.
func isErrorMarker(s string) bool {
	return sandbox.IsFailure(s) || strings.HasPrefix(s, "Error:")
}

// representative returns the first candidate whose normalized form is
// winner, so the caller sees the answer as a strategy wrote it.
func representative(candidates []string, winner string) string {
	for _, c := range candidates {
		if answer.Normalize(c) == winner {
			return strings.TrimSpace(c)
		}
	}
	return winner
}
