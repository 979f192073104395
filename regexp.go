/*
Package regexcheck parses regular expressions as they are written in Java, PHP
or Python source code and looks for problems in them: patterns that make a
backtracking engine take exponential or polynomial time, empty groups,
alternations that should be character classes and quantifiers that can never
do what they appear to.

Patterns are never executed. Compile builds the syntax tree and automaton once;
Check runs every finder over it.
*/
package regexcheck

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexcheck/finders"
	"github.com/dlclark/regexcheck/syntax"
)

// Regexp is a parsed regular expression ready to be checked.
// A Regexp is safe for concurrent use by multiple goroutines.
type Regexp struct {
	// Message turns the worst backtracking found into the ReDoS message.
	// Compile picks one from the dialect; it may be replaced before the
	// first call to Check.
	Message finders.MessageFunc

	// read-only after Compile
	pattern string
	dialect syntax.Dialect
	options syntax.RegexOptions
	tree    *syntax.RegexTree

	// cache of finders for running checks
	mu      sync.Mutex
	checker []*checker
}

// Compile parses expr, written as the body of a string literal of the given
// dialect, and returns a Regexp that can be checked. When the pattern has
// syntax errors the returned error is an *Error listing all of them.
func Compile(expr string, dialect syntax.Dialect, opt syntax.RegexOptions) (*Regexp, error) {
	return CompileSource(syntax.NewDialectSource(dialect, expr), opt)
}

// CompileSource is like Compile for a source that was already decoded, such
// as a PHP single-quoted string.
func CompileSource(source *syntax.Source, opt syntax.RegexOptions) (*Regexp, error) {
	tree := syntax.Parse(source, opt)
	if tree.HasSyntaxErrors() {
		return nil, &Error{Pattern: source.Text(), Errors: tree.Errors}
	}
	return &Regexp{
		Message: defaultMessage(source.Dialect()),
		pattern: source.Text(),
		dialect: source.Dialect(),
		options: opt,
		tree:    tree,
	}, nil
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
// It simplifies safe initialization of global variables holding checked
// regular expressions.
func MustCompile(expr string, dialect syntax.Dialect, opt syntax.RegexOptions) *Regexp {
	re, err := Compile(expr, dialect, opt)
	if err != nil {
		panic(`regexcheck: Compile(` + quote(expr) + `): ` + err.Error())
	}
	return re
}

// Java 9 and later memoize failed loop attempts; PCRE and Python's re do not.
func defaultMessage(d syntax.Dialect) finders.MessageFunc {
	switch d {
	case syntax.PHP, syntax.Python:
		return finders.UnoptimizedEngineMessage
	}
	return finders.OptimizedEngineMessage
}

// String returns the source text used to compile the regular expression.
func (re *Regexp) String() string {
	return re.pattern
}

func (re *Regexp) Dialect() syntax.Dialect {
	return re.dialect
}

func (re *Regexp) Options() syntax.RegexOptions {
	return re.options
}

// Tree returns the parsed tree. It must not be modified.
func (re *Regexp) Tree() *syntax.RegexTree {
	return re.tree
}

// GroupNames returns the names of the named capturing groups in the order
// of their numbers.
func (re *Regexp) GroupNames() []string {
	result := make([]string, len(re.tree.Caplist))
	copy(result, re.tree.Caplist)
	return result
}

// GroupNumberFromName returns the number of the named group, or -1 if the
// name is not a recognized group name.
func (re *Regexp) GroupNumberFromName(name string) int {
	if k, ok := re.tree.Capnames[name]; ok {
		return k
	}
	return -1
}

func quote(s string) string {
	if strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}

// Error is returned by Compile for a pattern with syntax errors.
type Error struct {
	Pattern string
	Errors  []*syntax.SyntaxError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		msgs[i] = se.Error()
	}
	return "cannot parse " + quote(e.Pattern) + ": " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual *syntax.SyntaxError values to errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, se := range e.Errors {
		errs[i] = se
	}
	return errs
}

// IsSyntaxError reports whether err came from a pattern that did not parse.
func IsSyntaxError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
