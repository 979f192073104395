// Package manifest reads pattern manifests: plain text files listing the
// regular expressions to check, one per entry, as they would be written in
// their host language.
//
//	# comment
//	java   "(a+)+\\$"         match=partial
//	php    '/<[^>]*>/i'
//	python r"(?P<word>\w+)"  flags=i
//	plain  `a|b`             match=full
//
// Java patterns are double-quoted string literals and PHP patterns keep their
// PCRE delimiters and modifiers. Python patterns must be raw strings. A
// backquoted pattern is taken verbatim in any dialect.
package manifest

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/dlclark/regexcheck/finders"
	"github.com/dlclark/regexcheck/syntax"
)

type File struct {
	Entries []*Entry `parser:"@@*"`
}

type Entry struct {
	Pos lexer.Position

	Dialect string    `parser:"@Ident"`
	Pattern *Literal  `parser:"@@"`
	Options []*Option `parser:"@@*"`
}

type Literal struct {
	Raw          *string `parser:"  @Raw"`
	DoubleQuoted *string `parser:"| @DoubleQuoted"`
	SingleQuoted *string `parser:"| @SingleQuoted"`
}

// Option is a key=value pair; the key token includes the '='.
type Option struct {
	Key   string `parser:"@Key"`
	Value string `parser:"@(Ident | DoubleQuoted | SingleQuoted)"`
}

var manifestLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Raw", Pattern: "r\"[^\"]*\"|r'[^']*'|`[^`]*`"},
	{Name: "DoubleQuoted", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "SingleQuoted", Pattern: `'(\\.|[^'\\])*'`},
	{Name: "Key", Pattern: `[a-zA-Z_]\w*=`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
})

var parser = participle.MustBuild[File](
	participle.Lexer(manifestLexer),
	participle.Elide("Whitespace", "Comment"),
)

// Pattern is a manifest entry ready to be compiled.
type Pattern struct {
	Pos       lexer.Position
	Source    *syntax.Source
	Options   syntax.RegexOptions
	MatchType finders.MatchType
}

// Parse reads a manifest. Entries without a match option get defaultMatch.
func Parse(filename string, r io.Reader, defaultMatch finders.MatchType) ([]Pattern, error) {
	f, err := parser.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return f.Patterns(defaultMatch)
}

func ParseString(filename, s string, defaultMatch finders.MatchType) ([]Pattern, error) {
	return Parse(filename, strings.NewReader(s), defaultMatch)
}

// Patterns converts every entry of f, stopping at the first invalid one.
func (f *File) Patterns(defaultMatch finders.MatchType) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(f.Entries))
	for _, e := range f.Entries {
		p, err := e.Pattern.toPattern(e, defaultMatch)
		if err != nil {
			return nil, fmt.Errorf("manifest: %s: %w", e.Pos, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func (l *Literal) toPattern(e *Entry, defaultMatch finders.MatchType) (Pattern, error) {
	p := Pattern{Pos: e.Pos, MatchType: defaultMatch}

	dialect, err := syntax.ParseDialect(e.Dialect)
	if err != nil {
		return p, err
	}

	var flags string
	for _, o := range e.Options {
		value := unquote(o.Value)
		switch key := strings.TrimSuffix(o.Key, "="); key {
		case "match":
			if p.MatchType, err = finders.ParseMatchType(value); err != nil {
				return p, err
			}
		case "flags":
			flags += value
		default:
			return p, fmt.Errorf("unknown option %q", key)
		}
	}

	switch dialect {
	case syntax.Java:
		switch {
		case l.DoubleQuoted != nil:
			p.Source = syntax.NewJavaSource(unquote(*l.DoubleQuoted))
		case l.Raw != nil && strings.HasPrefix(*l.Raw, "`"):
			p.Source = syntax.NewSource(unquote(*l.Raw), syntax.Java.Features())
		default:
			return p, fmt.Errorf("java patterns must be double-quoted")
		}
		p.Options = syntax.ParseOptions(flags)
	case syntax.PHP:
		var body, modifiers string
		switch {
		case l.DoubleQuoted != nil:
			body, modifiers, err = syntax.SplitPhpPattern(unquote(*l.DoubleQuoted))
			p.Source = syntax.NewPhpSource(body, '"')
		case l.SingleQuoted != nil:
			body, modifiers, err = syntax.SplitPhpPattern(unquote(*l.SingleQuoted))
			p.Source = syntax.NewPhpSource(body, '\'')
		default:
			body, modifiers, err = syntax.SplitPhpPattern(unquote(*l.Raw))
			p.Source = syntax.NewSource(body, syntax.PHP.Features())
		}
		if err != nil {
			return p, err
		}
		p.Options = syntax.PhpOptions(modifiers + flags)
	case syntax.Python:
		if l.Raw == nil {
			return p, fmt.Errorf("python patterns must be raw strings")
		}
		p.Source = syntax.NewPythonSource(unquote(*l.Raw))
		p.Options = syntax.ParseOptions(flags)
	default:
		p.Source = syntax.NewSource(unquote(l.text()), syntax.Plain.Features())
		p.Options = syntax.ParseOptions(flags)
	}
	return p, nil
}

func (l *Literal) text() string {
	switch {
	case l.Raw != nil:
		return *l.Raw
	case l.DoubleQuoted != nil:
		return *l.DoubleQuoted
	}
	return *l.SingleQuoted
}

// unquote strips the delimiters of a token, leaving escapes alone: they
// belong to the pattern's dialect.
func unquote(s string) string {
	if strings.HasPrefix(s, `r"`) || strings.HasPrefix(s, "r'") {
		s = s[1:]
	}
	if len(s) >= 2 && strings.ContainsRune("\"'`", rune(s[0])) && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
