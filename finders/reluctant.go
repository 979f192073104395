package finders

import (
	"fmt"

	"github.com/dlclark/regexcheck/analysis"
	"github.com/dlclark/regexcheck/syntax"
)

const (
	reluctantFixMessage         = "Fix this reluctant quantifier that will only ever match %d repetition%s."
	reluctantUnnecessaryMessage = "Remove the '?' from this unnecessarily reluctant quantifier."
)

// ReluctantQuantifierWithEmptyContinuationFinder reports reluctant
// quantifiers that nothing after them forces to repeat: they either match
// their minimum and stop, or are followed only by an end anchor and might
// as well be greedy.
type ReluctantQuantifierWithEmptyContinuationFinder struct {
	syntax.BaseVisitor
	report ElementIssue
	final  *syntax.RegexNode
}

func NewReluctantQuantifierWithEmptyContinuationFinder(report ElementIssue) *ReluctantQuantifierWithEmptyContinuationFinder {
	return &ReluctantQuantifierWithEmptyContinuationFinder{report: report}
}

func (f *ReluctantQuantifierWithEmptyContinuationFinder) Before(t *syntax.RegexTree) {
	f.final = t.Final
}

func (f *ReluctantQuantifierWithEmptyContinuationFinder) After(*syntax.RegexTree) {}

func (f *ReluctantQuantifierWithEmptyContinuationFinder) VisitRepetition(n *syntax.RegexNode, children func()) {
	children()
	if !n.IsReluctant() {
		return
	}
	cont := n.Continuation()
	if analysis.IsAnchoredAtEnd(cont) {
		if analysis.OnlyMatchesEmptySuffix(cont) {
			f.report(n, reluctantUnnecessaryMessage, nil, nil)
		}
		return
	}
	if analysis.CanReachWithoutConsumingInput(syntax.NewStartState(cont, n.Options), f.final) {
		min := n.Quantifier.Min
		plural := "s"
		if min == 1 {
			plural = ""
		}
		f.report(n, fmt.Sprintf(reluctantFixMessage, min, plural), nil, nil)
	}
}
