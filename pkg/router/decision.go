package router

// ProblemType classifies a question.
type ProblemType string

const (
	Math        ProblemType = "math"
	Logic       ProblemType = "logic"
	CommonSense ProblemType = "common_sense"
)

// Recommendation is the strategy family the planner suggests.
type Recommendation string

const (
	CodeSynthesis   Recommendation = "code_synthesis"
	DirectReasoning Recommendation = "direct_reasoning"
)

// Decision captures routing decision details.
type Decision struct {
	ProblemType ProblemType    `json:"problem_type"`
	Plan        string         `json:"plan"`
	Strategy    Recommendation `json:"strategy"`
	Reasons     []string       `json:"reasons,omitempty"`
	UsedLLM     bool           `json:"used_llm"`
}

// DefaultDecision is used whenever the planner response cannot be read.
func DefaultDecision(plan string, reasons ...string) *Decision {
	return &Decision{
		ProblemType: Logic,
		Plan:        plan,
		Strategy:    DirectReasoning,
		Reasons:     reasons,
	}
}

// NeedsFactCheck reports whether direct reasoning on this problem type gets
// a second review call.
func (t ProblemType) NeedsFactCheck() bool {
	switch t {
	case Logic, CommonSense:
		return true
	}
	return false
}

// EnsembleConfig lists the strategy kinds run for each recommendation.
type EnsembleConfig struct {
	CodeSynthesis   []string `yaml:"code_synthesis"`
	DirectReasoning []string `yaml:"direct_reasoning"`
}

// DefaultEnsembles returns the standard three-sample ensembles.
func DefaultEnsembles() EnsembleConfig {
	return EnsembleConfig{
		CodeSynthesis:   []string{"pal", "pal", "react"},
		DirectReasoning: []string{"cot", "cot", "react"},
	}
}

// Ensemble returns the strategy kinds to run for a decision, in order.
// Empty lists in cfg fall back to DefaultEnsembles.
func Ensemble(d *Decision, cfg EnsembleConfig) []string {
	defaults := DefaultEnsembles()
	strategy := DirectReasoning
	if d != nil {
		strategy = d.Strategy
	}

	var kinds, fallback []string
	switch strategy {
	case CodeSynthesis:
		kinds, fallback = cfg.CodeSynthesis, defaults.CodeSynthesis
	case DirectReasoning:
		kinds, fallback = cfg.DirectReasoning, defaults.DirectReasoning
	default:
		kinds, fallback = cfg.DirectReasoning, defaults.DirectReasoning
	}
	if len(kinds) == 0 {
		kinds = fallback
	}
	return append([]string(nil), kinds...)
}
