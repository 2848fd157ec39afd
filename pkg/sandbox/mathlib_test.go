package sandbox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatHelpers(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	m, err := statMean(xs)
	require.NoError(t, err)
	assert.Equal(t, 5.0, m)

	med, err := statMedian(xs)
	require.NoError(t, err)
	assert.Equal(t, 4.5, med)

	mo, err := statMode(xs)
	require.NoError(t, err)
	assert.Equal(t, 4.0, mo)

	v, err := statVariance(xs)
	require.NoError(t, err)
	assert.InDelta(t, 32.0/7, v, 1e-12)

	sd, err := statStdev(xs)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(32.0/7), sd, 1e-12)

	_, err = statMean(nil)
	assert.EqualError(t, err, "mean requires at least one data point")
	_, err = statStdev([]float64{1})
	assert.EqualError(t, err, "stdev requires at least two data points")
}

func TestCombinatoricsHelpers(t *testing.T) {
	f, err := factorial(0)
	require.NoError(t, err)
	assert.Equal(t, "1", f.String())

	f, err = factorial(25)
	require.NoError(t, err)
	assert.Equal(t, "15511210043330985984000000", f.String())

	c, err := comb(10, 3)
	require.NoError(t, err)
	assert.Equal(t, "120", c.String())

	c, err = comb(3, 5)
	require.NoError(t, err)
	assert.Equal(t, "0", c.String())

	p, err := perm(5, 2)
	require.NoError(t, err)
	assert.Equal(t, "20", p.String())

	p, err = perm(5, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", p.String())

	_, err = factorial(-1)
	assert.Error(t, err)
	_, err = comb(maxFactorialArg+1, 2)
	assert.Error(t, err)

	assert.Equal(t, int64(6), gcd(12, -18))
	assert.Equal(t, int64(0), gcd())
	assert.Equal(t, int64(12), lcm(4, 6))
	assert.Equal(t, int64(1), lcm())
	assert.Equal(t, int64(0), lcm(3, 0))
}

func TestMathHelpersInInterpreters(t *testing.T) {
	cases := []struct {
		name    string
		req     request
		ok      bool
		output  string
		errPart string
	}{
		{name: "lua mean of table", req: request{Language: LangLua, Code: "print(mean({1, 2, 3, 4}))"}, ok: true, output: "2.5"},
		{name: "lua median of arguments", req: request{Language: LangLua, Code: "print(median(5, 1, 3, 2))"}, ok: true, output: "2.5"},
		{name: "lua mode", req: request{Language: LangLua, Code: "print(mode({1, 2, 2, 3}))"}, ok: true, output: "2"},
		{name: "lua variance", req: request{Language: LangLua, Code: "print(variance(1, 3))"}, ok: true, output: "2"},
		{name: "lua combinatorics", req: request{Language: LangLua, Code: "print(factorial(5), comb(10, 3), perm(5, 2))"}, ok: true, output: "120\t120\t20"},
		{name: "lua gcd and lcm", req: request{Language: LangLua, Code: "print(gcd(12, 18), lcm({4, 6}))"}, ok: true, output: "6\t12"},
		{name: "lua exact large factorial", req: request{Language: LangLua, Code: "print(factorial(20))"}, ok: true, output: "2432902008176640000"},
		{name: "lua empty mean", req: request{Language: LangLua, Code: "print(mean({}))"}, errPart: "at least one data point"},
		{name: "lua fractional factorial", req: request{Language: LangLua, Code: "print(factorial(2.5))"}, errPart: "integer argument expected"},
		{name: "lua bad table", req: request{Language: LangLua, Code: "print(mean({1, 'x'}))"}, errPart: "table of numbers expected"},
		{name: "expr mean of array", req: request{Language: LangExpr, Code: "mean([1, 2, 3, 4])"}, ok: true, output: "2.5"},
		{name: "expr median of arguments", req: request{Language: LangExpr, Code: "median(5, 1, 3, 2)"}, ok: true, output: "2.5"},
		{name: "expr stdev", req: request{Language: LangExpr, Code: "stdev([1, 3]) > 1.414 && stdev([1, 3]) < 1.415"}, ok: true, output: "true"},
		{name: "expr comb", req: request{Language: LangExpr, Code: "comb(10, 3)"}, ok: true, output: "120"},
		{name: "expr large factorial", req: request{Language: LangExpr, Code: "factorial(25)"}, ok: true, output: "15511210043330985984000000"},
		{name: "expr gcd plus lcm", req: request{Language: LangExpr, Code: "gcd(12, 18) + lcm(4, 6)"}, ok: true, output: "18"},
		{name: "expr negative perm", req: request{Language: LangExpr, Code: "perm(-1, 2)"}, errPart: "non-negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := evaluate(tc.req)
			assert.Equal(t, tc.ok, resp.Succeeded, resp.Error)
			if tc.ok {
				assert.Equal(t, tc.output, resp.Output)
				return
			}
			assert.Contains(t, resp.Error, tc.errPart)
		})
	}
}
