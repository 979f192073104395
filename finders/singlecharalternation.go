package finders

import "github.com/dlclark/regexcheck/syntax"

const singleCharacterAlternationMessage = "Replace this alternation with a character class."

// SingleCharacterAlternationFinder reports alternations like a|b|\d where
// every alternative matches a single character.
type SingleCharacterAlternationFinder struct {
	syntax.BaseVisitor
	report ElementIssue
}

func NewSingleCharacterAlternationFinder(report ElementIssue) *SingleCharacterAlternationFinder {
	return &SingleCharacterAlternationFinder{report: report}
}

func (f *SingleCharacterAlternationFinder) VisitDisjunction(n *syntax.RegexNode, children func()) {
	single := true
	for _, alt := range n.Children {
		if !alt.Is(syntax.NtCharacter, syntax.NtEscapedClass, syntax.NtCharacterClass, syntax.NtMiscEscape) {
			single = false
			break
		}
	}
	if single {
		f.report(n, singleCharacterAlternationMessage, nil, nil)
	}
	children()
}
