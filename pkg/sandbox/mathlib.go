package sandbox

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// maxFactorialArg bounds factorial, comb and perm so a single call cannot
// exhaust the worker's memory.
const maxFactorialArg = 10000

// maxExactFloat is the largest integer a float64 holds exactly.
const maxExactFloat = 1 << 53

var statFuncs = map[string]func([]float64) (float64, error){
	"mean":     statMean,
	"median":   statMedian,
	"mode":     statMode,
	"variance": statVariance,
	"stdev":    statStdev,
}

func statMean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("mean requires at least one data point")
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), nil
}

// statMedian averages the two middle values of an even-sized sample.
func statMedian(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("median requires at least one data point")
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], nil
	}
	return (s[mid-1] + s[mid]) / 2, nil
}

// statMode returns the most common value; ties go to the first seen.
func statMode(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("mode requires at least one data point")
	}
	counts := make(map[float64]int, len(xs))
	best, bestCount := xs[0], 0
	for _, x := range xs {
		counts[x]++
		if counts[x] > bestCount {
			best, bestCount = x, counts[x]
		}
	}
	return best, nil
}

// statVariance is the sample variance (n-1 denominator).
func statVariance(xs []float64) (float64, error) {
	if len(xs) < 2 {
		return 0, errors.New("variance requires at least two data points")
	}
	m, _ := statMean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return ss / float64(len(xs)-1), nil
}

func statStdev(xs []float64) (float64, error) {
	v, err := statVariance(xs)
	if err != nil {
		return 0, errors.New("stdev requires at least two data points")
	}
	return math.Sqrt(v), nil
}

func factorial(n int64) (*big.Int, error) {
	if n < 0 {
		return nil, errors.New("factorial not defined for negative values")
	}
	if n > maxFactorialArg {
		return nil, fmt.Errorf("factorial argument exceeds %d", maxFactorialArg)
	}
	return new(big.Int).MulRange(1, n), nil
}

// comb counts k-subsets of n items; it is zero when k > n.
func comb(n, k int64) (*big.Int, error) {
	if err := checkChoose("comb", n, k); err != nil {
		return nil, err
	}
	return new(big.Int).Binomial(n, k), nil
}

// perm counts ordered k-arrangements of n items; it is zero when k > n.
func perm(n, k int64) (*big.Int, error) {
	if err := checkChoose("perm", n, k); err != nil {
		return nil, err
	}
	if k > n {
		return new(big.Int), nil
	}
	return new(big.Int).MulRange(n-k+1, n), nil
}

func checkChoose(name string, n, k int64) error {
	if n < 0 || k < 0 {
		return fmt.Errorf("%s requires non-negative arguments", name)
	}
	if n > maxFactorialArg {
		return fmt.Errorf("%s argument exceeds %d", name, maxFactorialArg)
	}
	return nil
}

func gcd(xs ...int64) int64 {
	var g int64
	for _, x := range xs {
		if x < 0 {
			x = -x
		}
		for x != 0 {
			g, x = x, g%x
		}
	}
	return g
}

// lcm of no arguments is 1; any zero argument makes it 0.
func lcm(xs ...int64) int64 {
	l := int64(1)
	for _, x := range xs {
		if x < 0 {
			x = -x
		}
		if x == 0 {
			return 0
		}
		l = l / gcd(l, x) * x
	}
	return l
}

func toInt(x float64) (int64, error) {
	if math.IsInf(x, 0) || math.IsNaN(x) || x != math.Trunc(x) {
		return 0, fmt.Errorf("integer argument expected, got %v", x)
	}
	if math.Abs(x) > maxExactFloat {
		return 0, fmt.Errorf("integer argument too large: %v", x)
	}
	return int64(x), nil
}

// openMathLib registers the statistics and combinatorics helpers as Lua
// globals. Statistics helpers accept numbers, tables of numbers or both.
func openMathLib(L *lua.LState) {
	for name, fn := range statFuncs {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			v, err := fn(luaNumbers(L))
			if err != nil {
				L.RaiseError("%s", err.Error())
			}
			L.Push(lua.LNumber(v))
			return 1
		}))
	}

	L.SetGlobal("factorial", L.NewFunction(func(L *lua.LState) int {
		b, err := factorial(luaInt(L, 1))
		return pushBig(L, b, err)
	}))
	L.SetGlobal("comb", L.NewFunction(func(L *lua.LState) int {
		b, err := comb(luaInt(L, 1), luaInt(L, 2))
		return pushBig(L, b, err)
	}))
	L.SetGlobal("perm", L.NewFunction(func(L *lua.LState) int {
		b, err := perm(luaInt(L, 1), luaInt(L, 2))
		return pushBig(L, b, err)
	}))
	L.SetGlobal("gcd", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(gcd(luaInts(L)...)))
		return 1
	}))
	L.SetGlobal("lcm", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(lcm(luaInts(L)...)))
		return 1
	}))
}

func luaNumbers(L *lua.LState) []float64 {
	var xs []float64
	for i := 1; i <= L.GetTop(); i++ {
		switch v := L.Get(i).(type) {
		case lua.LNumber:
			xs = append(xs, float64(v))
		case *lua.LTable:
			for j := 1; j <= v.Len(); j++ {
				n, ok := v.RawGetInt(j).(lua.LNumber)
				if !ok {
					L.ArgError(i, "table of numbers expected")
				}
				xs = append(xs, float64(n))
			}
		default:
			L.ArgError(i, "number or table expected")
		}
	}
	return xs
}

func luaInt(L *lua.LState, i int) int64 {
	n, err := toInt(float64(L.CheckNumber(i)))
	if err != nil {
		L.ArgError(i, err.Error())
	}
	return n
}

func luaInts(L *lua.LState) []int64 {
	xs := luaNumbers(L)
	out := make([]int64, 0, len(xs))
	for _, x := range xs {
		n, err := toInt(x)
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		out = append(out, n)
	}
	return out
}

// pushBig pushes exact results as numbers and larger ones as decimal
// strings.
func pushBig(L *lua.LState, b *big.Int, err error) int {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	if b.IsInt64() && b.Int64() <= maxExactFloat && b.Int64() >= -maxExactFloat {
		L.Push(lua.LNumber(b.Int64()))
	} else {
		L.Push(lua.LString(b.String()))
	}
	return 1
}

// exprMathFuncs returns the same helpers for expr. Arrays arrive as []any.
func exprMathFuncs() map[string]any {
	funcs := map[string]any{
		"factorial": func(n any) (any, error) {
			return exprBig(withInt(n, factorial))
		},
		"comb": func(n, k any) (any, error) {
			return exprBig(withInts(n, k, comb))
		},
		"perm": func(n, k any) (any, error) {
			return exprBig(withInts(n, k, perm))
		},
		"gcd": func(args ...any) (int, error) {
			xs, err := exprInts(args)
			return int(gcd(xs...)), err
		},
		"lcm": func(args ...any) (int, error) {
			xs, err := exprInts(args)
			return int(lcm(xs...)), err
		},
	}
	for name, fn := range statFuncs {
		funcs[name] = func(args ...any) (float64, error) {
			xs, err := exprNumbers(args)
			if err != nil {
				return 0, err
			}
			return fn(xs)
		}
	}
	return funcs
}

func exprNumbers(args []any) ([]float64, error) {
	var xs []float64
	for _, a := range args {
		switch v := a.(type) {
		case int:
			xs = append(xs, float64(v))
		case int64:
			xs = append(xs, float64(v))
		case float64:
			xs = append(xs, v)
		case []any:
			inner, err := exprNumbers(v)
			if err != nil {
				return nil, err
			}
			xs = append(xs, inner...)
		case []float64:
			xs = append(xs, v...)
		case []int:
			for _, n := range v {
				xs = append(xs, float64(n))
			}
		default:
			return nil, fmt.Errorf("number expected, got %T", a)
		}
	}
	return xs, nil
}

func exprInts(args []any) ([]int64, error) {
	xs, err := exprNumbers(args)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(xs))
	for _, x := range xs {
		n, err := toInt(x)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func withInt(a any, fn func(int64) (*big.Int, error)) (*big.Int, error) {
	xs, err := exprInts([]any{a})
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, errors.New("one integer argument expected")
	}
	return fn(xs[0])
}

func withInts(a, b any, fn func(int64, int64) (*big.Int, error)) (*big.Int, error) {
	xs, err := exprInts([]any{a, b})
	if err != nil {
		return nil, err
	}
	if len(xs) != 2 {
		return nil, errors.New("two integer arguments expected")
	}
	return fn(xs[0], xs[1])
}

// exprBig returns an int when the value fits and its decimal string
// otherwise.
func exprBig(b *big.Int, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if b.IsInt64() {
		return int(b.Int64()), nil
	}
	return b.String(), nil
}
