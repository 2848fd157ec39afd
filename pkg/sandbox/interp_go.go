package sandbox

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// goPackages are the only standard library packages interpreted Go code can
// import.
var goPackages = map[string]bool{
	"fmt":        true,
	"math":       true,
	"math/big":   true,
	"math/bits":  true,
	"math/cmplx": true,
	"sort":       true,
	"strconv":    true,
	"strings":    true,
	"time":       true,
	"unicode":    true,
}

var importPath = regexp.MustCompile(`"([^"]+)"`)

func runGo(code string, stdout io.Writer) error {
	if err := checkImports(code); err != nil {
		return err
	}

	i := interp.New(interp.Options{Stdin: strings.NewReader(""), Stdout: stdout, Stderr: io.Discard})
	if err := i.Use(goSymbols()); err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}
	if _, err := i.Eval(wrapGo(code)); err != nil {
		return err
	}
	return nil
}

// goSymbols filters the yaegi stdlib export table down to goPackages.
// Keys in the table look like "math/big/big".
func goSymbols() interp.Exports {
	out := make(interp.Exports, len(goPackages))
	for key, syms := range stdlib.Symbols {
		if goPackages[path.Dir(key)] {
			out[key] = syms
		}
	}
	return out
}

// wrapGo turns a snippet into a main package. Imports are hoisted, missing
// imports of allowed packages are added, and loose statements become the
// body of main. Complete programs pass through unchanged.
func wrapGo(code string) string {
	if strings.HasPrefix(strings.TrimSpace(code), "package ") {
		return code
	}

	imported := make(map[string]bool)
	var header, body []string
	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		isImport := inBlock || strings.HasPrefix(trimmed, "import ")
		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
		} else if inBlock && strings.HasPrefix(trimmed, ")") {
			inBlock = false
		}
		if !isImport {
			body = append(body, line)
			continue
		}
		header = append(header, line)
		for _, m := range importPath.FindAllStringSubmatch(trimmed, -1) {
			imported[m[1]] = true
		}
	}

	src := strings.Join(body, "\n")
	for _, pkg := range allowedGoPackages() {
		if imported[pkg] {
			continue
		}
		if regexp.MustCompile(`\b` + path.Base(pkg) + `\.`).MatchString(src) {
			header = append(header, fmt.Sprintf("import %q", pkg))
		}
	}

	var b strings.Builder
	b.WriteString("package main\n\n")
	for _, h := range header {
		b.WriteString(h)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if strings.Contains(src, "func main()") {
		b.WriteString(src)
	} else {
		b.WriteString("func main() {\n")
		b.WriteString(src)
		b.WriteString("\n}\n")
	}
	return b.String()
}

// checkImports rejects imports outside the allow-list before anything is
// evaluated.
func checkImports(code string) error {
	var forbidden []string
	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
			continue
		case inBlock && strings.HasPrefix(trimmed, ")"):
			inBlock = false
			continue
		case !inBlock && !strings.HasPrefix(trimmed, "import "):
			continue
		}
		for _, m := range importPath.FindAllStringSubmatch(trimmed, -1) {
			if !goPackages[m[1]] {
				forbidden = append(forbidden, m[1])
			}
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %s (allowed: %s)", strings.Join(forbidden, ", "), strings.Join(allowedGoPackages(), ", "))
	}
	return nil
}

func allowedGoPackages() []string {
	pkgs := make([]string, 0, len(goPackages))
	for p := range goPackages {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	return pkgs
}
