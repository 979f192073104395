package syntax

import (
	"fmt"
	"strings"
)

// Feature is a grammar extension that only some dialects understand.
type Feature uint32

const (
	Recursion             Feature = 1 << iota // (?R)
	ConditionalSubpattern                     // (?(cond)yes|no)
	PosixCharacterClass                       // [[:alpha:]]
	PythonSyntaxGroupName                     // (?P<name>...) and (?P=name)
	DotnetSyntaxGroupName                     // (?'name'...) and \k'name'
	PerlSyntaxGroupName                       // \k{name}
	JavaSyntaxGroupName                       // (?<name>...) and \k<name>
	AtomicGroup                               // (?>...)
	PossessiveQuantifier                      // a*+
	EscapedCharacterClass                     // \p{L} and friends
	UnescapedCurlyBracket                     // a literal { where no quantifier fits
	NestedCharacterClass                      // [a[bc]] and [a&&[bc]]
)

// Dialect is the host language a pattern is written in. It decides both how
// the literal is decoded and which features are available.
type Dialect int

const (
	Plain Dialect = iota
	Java
	PHP
	Python
)

var dialectNames = []string{"plain", "java", "php", "python"}

func (d Dialect) String() string {
	if d < 0 || int(d) >= len(dialectNames) {
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
	return dialectNames[d]
}

// Features returns the grammar extensions of the dialect. Plain patterns use
// the Java grammar.
func (d Dialect) Features() Feature {
	switch d {
	case Java:
		return JavaSyntaxGroupName | AtomicGroup | PossessiveQuantifier |
			EscapedCharacterClass | NestedCharacterClass
	case PHP:
		return Recursion | ConditionalSubpattern | PosixCharacterClass |
			DotnetSyntaxGroupName | PerlSyntaxGroupName | PythonSyntaxGroupName |
			JavaSyntaxGroupName | AtomicGroup | PossessiveQuantifier | EscapedCharacterClass
	case Python:
		return Recursion | ConditionalSubpattern | PythonSyntaxGroupName | UnescapedCurlyBracket
	}
	return Java.Features()
}

// ParseDialect maps a dialect name (case-insensitive) to its Dialect.
func ParseDialect(name string) (Dialect, error) {
	for i, n := range dialectNames {
		if strings.EqualFold(n, name) {
			return Dialect(i), nil
		}
	}
	return Plain, fmt.Errorf("unknown dialect %q", name)
}
