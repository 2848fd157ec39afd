// Package sandbox runs model-written code in a separate worker process with a
// hard timeout. The worker evaluates the code with an embedded interpreter
// whose symbol table is limited to formatting, strings and math.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/zen-systems/solvegate/pkg/answer"
)

// DefaultTimeout bounds a single run.
const DefaultTimeout = 5 * time.Second

// ErrorPrefix marks a failed run when a Result is rendered as text.
const ErrorPrefix = "Error: "

const (
	msgTimedOut  = "execution timed out"
	msgNoOutput  = "no output captured"
	msgNoCode    = "no code to execute"
	msgNonFinite = "arithmetic error: division by zero or non-finite result"
)

// Result is the outcome of one run.
type Result struct {
	Succeeded bool          `json:"succeeded"`
	Output    string        `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	Language  Language      `json:"language,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// String renders the result as an observation: the output on success,
// otherwise the error behind ErrorPrefix.
func (r Result) String() string {
	if r.Succeeded {
		return r.Output
	}
	return ErrorPrefix + r.Error
}

// IsFailure reports whether rendered sandbox text describes a failure.
func IsFailure(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

// Executor runs code and reports what it printed.
type Executor interface {
	Run(ctx context.Context, code string) Result
	RunLanguage(ctx context.Context, lang Language, code string) Result
}

// Runner starts one worker process per run.
type Runner struct {
	timeout  time.Duration
	language Language
	command  []string
	logger   logrus.FieldLogger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-run timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLanguage sets the language used for unlabelled code.
func WithLanguage(lang Language) Option {
	return func(r *Runner) {
		if lang.Valid() {
			r.language = lang
		}
	}
}

// WithWorkerCommand overrides the worker command line. By default the
// running executable is started again in worker mode.
func WithWorkerCommand(argv ...string) Option {
	return func(r *Runner) {
		if len(argv) > 0 {
			r.command = append([]string(nil), argv...)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		timeout:  DefaultTimeout,
		language: LangLua,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeout returns the per-run timeout.
func (r *Runner) Timeout() time.Duration { return r.timeout }

// Run strips fence markers, picks the language from the fence tag (or the
// code itself) and executes the code.
func (r *Runner) Run(ctx context.Context, code string) Result {
	body, tag := answer.StripFences(code)
	lang := ParseLanguage(tag)
	if !lang.Valid() {
		lang = DetectLanguage(body, r.language)
	}
	return r.RunLanguage(ctx, lang, body)
}

// RunLanguage executes code in the given language.
func (r *Runner) RunLanguage(ctx context.Context, lang Language, code string) Result {
	code, _ = answer.StripFences(code)
	if !lang.Valid() {
		lang = r.language
	}
	if code == "" {
		return Result{Error: msgNoCode, Language: lang}
	}

	start := time.Now()
	res := r.spawn(ctx, request{Language: lang, Code: code})
	res.Language = lang
	res.Duration = time.Since(start)

	r.logger.WithFields(logrus.Fields{
		"language":  lang,
		"succeeded": res.Succeeded,
		"timed_out": res.TimedOut,
		"duration":  res.Duration.Round(time.Millisecond),
	}).Debug("sandbox run finished")
	return res
}

func (r *Runner) spawn(parent context.Context, req request) Result {
	argv := r.command
	if len(argv) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return Result{Error: fmt.Sprintf("locate worker executable: %v", err)}
		}
		argv = []string{exe}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("encode request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), WorkerEnv+"=1")
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = 500 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return Result{TimedOut: true, Error: msgTimedOut}
	}
	if parent.Err() != nil {
		return Result{Error: fmt.Sprintf("execution cancelled: %v", parent.Err())}
	}

	var resp response
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" && runErr != nil {
			msg = runErr.Error()
		}
		if msg == "" {
			msg = "worker returned no result"
		}
		return Result{Error: fmt.Sprintf("worker failed: %s", lastLines(msg, 5))}
	}
	return Result{Succeeded: resp.Succeeded, Output: resp.Output, Error: resp.Error}
}

func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
