package finders

import "github.com/dlclark/regexcheck/syntax"

const emptyGroupMessage = "Remove this empty group."

// EmptyGroupFinder reports groups whose body is empty, such as () or (?:).
// Flag groups like (?i) have no body and are not reported.
type EmptyGroupFinder struct {
	syntax.BaseVisitor
	report ElementIssue
}

func NewEmptyGroupFinder(report ElementIssue) *EmptyGroupFinder {
	return &EmptyGroupFinder{report: report}
}

func (f *EmptyGroupFinder) VisitCapturingGroup(n *syntax.RegexNode, children func()) {
	f.visitGroup(n, children)
}

func (f *EmptyGroupFinder) VisitNonCapturingGroup(n *syntax.RegexNode, children func()) {
	f.visitGroup(n, children)
}

func (f *EmptyGroupFinder) VisitAtomicGroup(n *syntax.RegexNode, children func()) {
	f.visitGroup(n, children)
}

func (f *EmptyGroupFinder) VisitLookAround(n *syntax.RegexNode, children func()) {
	f.visitGroup(n, children)
}

func (f *EmptyGroupFinder) visitGroup(n *syntax.RegexNode, children func()) {
	el := n.Element()
	if el == nil {
		return
	}
	if el.T == syntax.NtSequence && len(el.Children) == 0 {
		f.report(n, emptyGroupMessage, nil, nil)
		return
	}
	children()
}
