package sandbox

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// WorkerEnv is set in the environment of worker processes.
const WorkerEnv = "SOLVEGATE_SANDBOX_WORKER"

type request struct {
	Language Language `json:"language"`
	Code     string   `json:"code"`
}

type response struct {
	Succeeded bool   `json:"succeeded"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// IsWorker reports whether the current process was started as a worker.
func IsWorker() bool {
	return os.Getenv(WorkerEnv) == "1"
}

// WorkerMain serves one request on the process's stdin and stdout and
// returns the exit code. Anything the interpreted code manages to write to
// os.Stdout goes to stderr so it cannot corrupt the reply.
func WorkerMain() int {
	out := os.Stdout
	os.Stdout = os.Stderr
	return Serve(os.Stdin, out)
}

// Serve reads one JSON request from in, evaluates it and writes one JSON
// response to out.
func Serve(in io.Reader, out io.Writer) int {
	var req request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return reply(out, response{Error: fmt.Sprintf("decode request: %v", err)})
	}
	return reply(out, evaluate(req))
}

func reply(out io.Writer, resp response) int {
	if err := json.NewEncoder(out).Encode(resp); err != nil {
		fmt.Fprintf(os.Stderr, "encode response: %v\n", err)
		return 1
	}
	return 0
}

// nonFinite matches infinities and NaNs as printed by Go and Lua.
var nonFinite = regexp.MustCompile(`(?:^|[^\w.])[+-]?(?:Inf|NaN|inf|nan)(?:\W|$)`)

// evaluate runs code in-process. Panics become failed responses.
func evaluate(req request) (resp response) {
	var stdout bytes.Buffer
	defer func() {
		if p := recover(); p != nil {
			resp = response{Error: fmt.Sprint(p)}
		}
	}()

	var err error
	switch req.Language {
	case LangGo:
		err = runGo(req.Code, &stdout)
	case LangLua:
		err = runLua(req.Code, &stdout)
	case LangExpr:
		err = runExpr(req.Code, &stdout)
	default:
		err = fmt.Errorf("unsupported language %q", req.Language)
	}
	if err != nil {
		return response{Error: strings.TrimSpace(err.Error())}
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return response{Error: msgNoOutput}
	}
	// Interpreters print x/0 as Inf or NaN instead of failing.
	if nonFinite.MatchString(output) {
		return response{Error: msgNonFinite}
	}
	return response{Succeeded: true, Output: output}
}
