package sandbox

import "strings"

// Language selects the interpreter a worker uses.
type Language string

const (
	LangGo   Language = "go"
	LangLua  Language = "lua"
	LangExpr Language = "expr"
)

// Languages lists the supported languages.
var Languages = []Language{LangGo, LangLua, LangExpr}

// Valid reports whether lang names a supported interpreter.
func (l Language) Valid() bool {
	switch l {
	case LangGo, LangLua, LangExpr:
		return true
	}
	return false
}

// ParseLanguage maps a fence tag or flag value to a Language. Unknown names
// return the empty Language.
func ParseLanguage(name string) Language {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "go", "golang":
		return LangGo
	case "lua":
		return LangLua
	case "expr", "expression", "calc":
		return LangExpr
	}
	return ""
}

// DetectLanguage guesses the language of unlabelled code.
func DetectLanguage(code string, fallback Language) Language {
	switch {
	case strings.Contains(code, "package main"),
		strings.Contains(code, "fmt."),
		strings.Contains(code, ":="),
		strings.Contains(code, "func "):
		return LangGo
	case strings.Contains(code, "local "),
		strings.Contains(code, "print("),
		strings.Contains(code, "function "),
		strings.Contains(code, " then"):
		return LangLua
	}
	if !fallback.Valid() {
		return LangLua
	}
	return fallback
}
