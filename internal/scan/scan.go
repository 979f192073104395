// Package scan finds regular expressions passed as string literals to the
// regex APIs of Java, PHP and Python source files.
//
// Call sites are located with an Aho-Corasick automaton over the known API
// names; the arguments that follow are tokenized with a lexmachine DFA. Only
// a call whose first argument is a single literal yields a pattern.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/dlclark/regexcheck/finders"
	"github.com/dlclark/regexcheck/syntax"
)

// Literal is a pattern found in a source file.
type Literal struct {
	File      string
	Line      int
	Column    int // 1-based, in bytes
	Call      string
	Source    *syntax.Source
	Options   syntax.RegexOptions
	MatchType finders.MatchType
}

// Scanner is safe for concurrent use by multiple goroutines.
type Scanner struct {
	include []glob.Glob
	langs   map[*language]*compiled
}

// New returns a scanner that accepts supported files matching any of the
// include globs, or every supported file when there are none. Globs use '/'
// as separator and are matched against both the slash separated path and
// the base name.
func New(include ...string) (*Scanner, error) {
	s := &Scanner{langs: make(map[*language]*compiled, len(languages))}
	for _, l := range languages {
		c, err := l.build()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		s.langs[l] = c
	}
	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("scan: include %q: %w", pattern, err)
		}
		s.include = append(s.include, g)
	}
	return s, nil
}

// Accepts reports whether path would be scanned.
func (s *Scanner) Accepts(path string) bool {
	if languageFor(path) == nil {
		return false
	}
	if len(s.include) == 0 {
		return true
	}
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range s.include {
		if g.Match(slashed) || g.Match(base) {
			return true
		}
	}
	return false
}

// Walk calls fn for every accepted file under roots, skipping hidden
// directories. It stops at the first error.
func (s *Scanner) Walk(roots []string, fn func(path string) error) error {
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !s.Accepts(path) {
				return nil
			}
			return fn(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) ScanFile(path string) ([]Literal, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Scan(path, content)
}

// Scan finds the patterns in content. The language is chosen from the
// extension of name.
func (s *Scanner) Scan(name string, content []byte) ([]Literal, error) {
	l := languageFor(name)
	if l == nil {
		return nil, fmt.Errorf("scan: %s: unsupported file type", name)
	}
	c := s.langs[l]

	var lines []int
	var out []Literal
	for at := 0; at < len(content); {
		m := c.matcher.Find(content, at)
		if m == nil {
			break
		}
		at = m.End
		call := c.byText[string(content[m.Start:m.End])]
		// re.compile( must not match are.compile(
		if m.Start > 0 && call.text[0] != '.' && isIdentByte(content[m.Start-1]) {
			continue
		}
		arg, ok, err := c.argument(content[m.End:])
		if err != nil {
			return nil, fmt.Errorf("scan: %s: %w", name, err)
		}
		if !ok {
			continue
		}
		if lines == nil {
			lines = lineStarts(content)
		}
		line, col := position(lines, m.End+arg.offset)
		out = append(out, Literal{
			File:      name,
			Line:      line,
			Column:    col,
			Call:      strings.TrimSuffix(call.text, "("),
			Source:    arg.source,
			Options:   arg.options,
			MatchType: call.matchType,
		})
	}
	return out, nil
}

type argument struct {
	source  *syntax.Source
	options syntax.RegexOptions
	offset  int
}

// argument reads the arguments of a call up to its closing parenthesis. The
// first one must be a lone string literal; flag names found in the others
// are added to the options.
func (c *compiled) argument(rest []byte) (argument, bool, error) {
	scanner, err := c.lexer.Scanner(rest)
	if err != nil {
		return argument{}, false, err
	}
	next := func() (token, bool) {
		tok, err, eof := scanner.Next()
		if eof || err != nil {
			return token{}, false
		}
		return tok.(token), true
	}

	first, ok := next()
	if !ok {
		return argument{}, false, nil
	}
	source, opts, ok := c.decode(first)
	if !ok {
		return argument{}, false, nil
	}
	arg := argument{source: source, options: opts, offset: first.offset}

	depth := 0
	afterFirst := false
	for tok, ok := next(); ok; tok, ok = next() {
		switch tok.kind {
		case tokOpen:
			depth++
		case tokClose:
			if depth == 0 {
				return arg, true, nil
			}
			depth--
		case tokComma:
			if depth == 0 {
				afterFirst = true
			}
		case tokIdent:
			if o, known := c.flags[tok.text]; known && afterFirst {
				arg.options |= o
			}
		}
		// "a" + b is not a single literal
		if !afterFirst && tok.kind != tokComma && tok.kind != tokClose {
			return argument{}, false, nil
		}
	}
	return arg, true, nil
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func position(starts []int, offset int) (line, col int) {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	return i + 1, offset - starts[i] + 1
}
