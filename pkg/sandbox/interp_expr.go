package sandbox

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/expr-lang/expr"
)

// exprEnv exposes math, statistics and combinatorics helpers beyond the
// expr builtins.
var exprEnv = newExprEnv()

func newExprEnv() map[string]any {
	env := map[string]any{
		"sqrt": math.Sqrt,
		"pow":  math.Pow,
		"log":  math.Log,
		"exp":  math.Exp,
		"pi":   math.Pi,
		"e":    math.E,
	}
	for name, fn := range exprMathFuncs() {
		env[name] = fn
	}
	return env
}

func runExpr(code string, stdout io.Writer) error {
	opts := []expr.Option{expr.Env(exprEnv)}
	// The env versions of mean and median also take plain arguments.
	for name := range statFuncs {
		opts = append(opts, expr.DisableBuiltin(name))
	}
	program, err := expr.Compile(code, opts...)
	if err != nil {
		return err
	}
	out, err := expr.Run(program, exprEnv)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, formatValue(out)+"\n")
	return err
}

func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return strconv.FormatFloat(n, 'g', -1, 64)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
