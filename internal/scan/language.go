package scan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coregx/ahocorasick"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/dlclark/regexcheck/finders"
	"github.com/dlclark/regexcheck/syntax"
)

type tokenKind int

const (
	tokDoubleQuoted tokenKind = iota
	tokSingleQuoted
	tokRaw
	tokIdent
	tokComma
	tokOpen
	tokClose
	tokOther
)

type token struct {
	kind   tokenKind
	text   string
	offset int // in bytes, relative to the scanned slice
}

// callSite is a function call whose first argument is a pattern.
type callSite struct {
	text      string
	matchType finders.MatchType
}

// language describes how patterns are passed to the regex API of one host
// language.
type language struct {
	name       string
	extensions []string
	calls      []callSite
	flags      map[string]syntax.RegexOptions
	rawStrings bool
	decode     func(tok token) (*syntax.Source, syntax.RegexOptions, bool)
}

// compiled is a language with its call site matcher and literal lexer
// built. It is read-only and shared by all scans.
type compiled struct {
	*language
	byText  map[string]callSite
	matcher *ahocorasick.Automaton
	lexer   *lexmachine.Lexer
}

var javaLanguage = &language{
	name:       "java",
	extensions: []string{".java"},
	calls: []callSite{
		{"Pattern.compile(", finders.Both},
		{"Pattern.matches(", finders.Full},
		{".matches(", finders.Full},
		{".replaceAll(", finders.Partial},
		{".replaceFirst(", finders.Partial},
		{".split(", finders.Partial},
	},
	flags: map[string]syntax.RegexOptions{
		"UNIX_LINES":              syntax.UnixLines,
		"CASE_INSENSITIVE":        syntax.CaseInsensitive,
		"COMMENTS":                syntax.Comments,
		"MULTILINE":               syntax.Multiline,
		"LITERAL":                 syntax.Literal,
		"DOTALL":                  syntax.DotAll,
		"UNICODE_CASE":            syntax.UnicodeCase,
		"CANON_EQ":                syntax.CanonEq,
		"UNICODE_CHARACTER_CLASS": syntax.UnicodeCharacterClass,
	},
	decode: func(tok token) (*syntax.Source, syntax.RegexOptions, bool) {
		if tok.kind != tokDoubleQuoted {
			return nil, 0, false
		}
		return syntax.NewJavaSource(stripQuotes(tok.text)), 0, true
	},
}

var phpLanguage = &language{
	name:       "php",
	extensions: []string{".php"},
	calls: []callSite{
		{"preg_match(", finders.Partial},
		{"preg_match_all(", finders.Partial},
		{"preg_replace(", finders.Partial},
		{"preg_replace_callback(", finders.Partial},
		{"preg_split(", finders.Partial},
		{"preg_grep(", finders.Partial},
	},
	decode: func(tok token) (*syntax.Source, syntax.RegexOptions, bool) {
		var quote rune
		switch tok.kind {
		case tokDoubleQuoted:
			quote = '"'
		case tokSingleQuoted:
			quote = '\''
		default:
			return nil, 0, false
		}
		body, modifiers, err := syntax.SplitPhpPattern(stripQuotes(tok.text))
		if err != nil {
			return nil, 0, false
		}
		return syntax.NewPhpSource(body, quote), syntax.PhpOptions(modifiers), true
	},
}

var pythonLanguage = &language{
	name:       "python",
	extensions: []string{".py"},
	rawStrings: true,
	calls: []callSite{
		{"re.compile(", finders.Both},
		{"re.search(", finders.Partial},
		{"re.match(", finders.Partial},
		{"re.fullmatch(", finders.Full},
		{"re.findall(", finders.Partial},
		{"re.finditer(", finders.Partial},
		{"re.sub(", finders.Partial},
		{"re.subn(", finders.Partial},
		{"re.split(", finders.Partial},
	},
	flags: map[string]syntax.RegexOptions{
		"I": syntax.CaseInsensitive, "IGNORECASE": syntax.CaseInsensitive,
		"M": syntax.Multiline, "MULTILINE": syntax.Multiline,
		"S": syntax.DotAll, "DOTALL": syntax.DotAll,
		"X": syntax.Comments, "VERBOSE": syntax.Comments,
	},
	decode: func(tok token) (*syntax.Source, syntax.RegexOptions, bool) {
		body := stripQuotes(tok.text)
		// without backslashes a plain string reads the same as a raw one
		if tok.kind == tokRaw || !strings.ContainsRune(body, '\\') {
			return syntax.NewPythonSource(body), 0, true
		}
		return nil, 0, false
	},
}

var languages = []*language{javaLanguage, phpLanguage, pythonLanguage}

func languageFor(path string) *language {
	ext := strings.ToLower(filepath.Ext(path))
	for _, l := range languages {
		for _, e := range l.extensions {
			if e == ext {
				return l
			}
		}
	}
	return nil
}

func (l *language) build() (*compiled, error) {
	c := &compiled{language: l, byText: make(map[string]callSite, len(l.calls))}
	builder := ahocorasick.NewBuilder()
	for _, call := range l.calls {
		builder.AddPattern([]byte(call.text))
		c.byText[call.text] = call
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("%s call sites: %w", l.name, err)
	}
	c.matcher = auto

	lexer := lexmachine.NewLexer()
	lexer.Add([]byte(`[ \t\n\r]+`), skip)
	if l.rawStrings {
		lexer.Add([]byte(`[rR]"([^"\\]|\\.)*"`), tokAction(tokRaw))
		lexer.Add([]byte(`[rR]'([^'\\]|\\.)*'`), tokAction(tokRaw))
	}
	lexer.Add([]byte(`"([^"\\]|\\.)*"`), tokAction(tokDoubleQuoted))
	lexer.Add([]byte(`'([^'\\]|\\.)*'`), tokAction(tokSingleQuoted))
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), tokAction(tokIdent))
	lexer.Add([]byte(`,`), tokAction(tokComma))
	lexer.Add([]byte(`[(]`), tokAction(tokOpen))
	lexer.Add([]byte(`[)]`), tokAction(tokClose))
	lexer.Add([]byte(`[0-9]+`), tokAction(tokOther))
	lexer.Add([]byte(`[.|+$=]`), tokAction(tokOther))
	if err := lexer.Compile(); err != nil {
		return nil, fmt.Errorf("%s literals: %w", l.name, err)
	}
	c.lexer = lexer
	return c, nil
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func tokAction(kind tokenKind) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return token{kind: kind, text: string(m.Bytes), offset: m.TC}, nil
	}
}

func stripQuotes(s string) string {
	s = strings.TrimLeft(s, "rR")
	if len(s) < 2 {
		return s
	}
	return s[1 : len(s)-1]
}
