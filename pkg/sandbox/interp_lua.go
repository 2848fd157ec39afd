package sandbox

import (
	"errors"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

func runLua(code string, stdout io.Writer) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	openMathLib(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		_, _ = io.WriteString(stdout, strings.Join(parts, "\t")+"\n")
		return 0
	}))

	if err := L.DoString(code); err != nil {
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) && apiErr.Object != nil {
			return errors.New(apiErr.Object.String())
		}
		return err
	}
	return nil
}
