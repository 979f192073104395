package finders

import (
	"github.com/dlclark/regexcheck/analysis"
	"github.com/dlclark/regexcheck/syntax"
)

const possessiveMessage = "Change this impossible to match sub-pattern that conflicts with the previous possessive quantifier."

// PossessiveQuantifierContinuationFinder reports what follows a possessive
// repetition when the repetition always consumes the input it needs, as the
// a in a*+a.
type PossessiveQuantifierContinuationFinder struct {
	analysis.BranchTracker
	report ElementIssue
	final  *syntax.RegexNode
}

func NewPossessiveQuantifierContinuationFinder(report ElementIssue) *PossessiveQuantifierContinuationFinder {
	return &PossessiveQuantifierContinuationFinder{report: report}
}

func (f *PossessiveQuantifierContinuationFinder) Before(t *syntax.RegexTree) {
	f.final = t.Final
}

func (f *PossessiveQuantifierContinuationFinder) After(*syntax.RegexTree) {}

func (f *PossessiveQuantifierContinuationFinder) VisitRepetition(n *syntax.RegexNode, children func()) {
	cont := n.Continuation()
	for cont != nil && cont.IsState() {
		cont = cont.Continuation()
	}
	if cont != nil && f.continuationAlwaysFails(n) {
		f.report(cont, possessiveMessage, nil, []IssueLocation{NewIssueLocation(n, "Previous possessive repetition")})
	}
	f.BranchTracker.VisitRepetition(n, children)
}

func (f *PossessiveQuantifierContinuationFinder) continuationAlwaysFails(n *syntax.RegexNode) bool {
	if !n.IsPossessive() || !n.Quantifier.IsOpenEnded() {
		return false
	}
	el := n.Element()
	superset := analysis.NewSubAutomaton(el, el.Continuation(), false)
	subset := analysis.NewBoundedSubAutomaton(n.Continuation(), f.final, f.BranchRangeFor(n).Start, true)
	return analysis.SupersetOf(superset, subset, false)
}
