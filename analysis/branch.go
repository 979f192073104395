package analysis

import "github.com/dlclark/regexcheck/syntax"

// BranchTracker is a visitor that remembers the disjunctions and
// repetitions enclosing the node being visited. Embed it and call its
// VisitDisjunction and VisitRepetition from overrides.
type BranchTracker struct {
	syntax.BaseVisitor
	branching []*syntax.RegexNode
}

func (b *BranchTracker) VisitDisjunction(n *syntax.RegexNode, children func()) {
	b.branching = append(b.branching, n)
	children()
	b.branching = b.branching[:len(b.branching)-1]
}

func (b *BranchTracker) VisitRepetition(n *syntax.RegexNode, children func()) {
	b.branching = append(b.branching, n)
	children()
	b.branching = b.branching[:len(b.branching)-1]
}

// BranchRangeFor returns the range of the branch holding n: the element of
// the innermost enclosing repetition, or the alternative of the innermost
// enclosing disjunction that contains n. Outside any branch it is
// InaccessibleRange.
func (b *BranchTracker) BranchRangeFor(n *syntax.RegexNode) syntax.IndexRange {
	if len(b.branching) == 0 {
		return syntax.InaccessibleRange
	}
	closest := b.branching[len(b.branching)-1]
	if closest.T == syntax.NtRepetition {
		return closest.Element().Range()
	}
	for _, alt := range closest.Children {
		if alt.Range().Contains(n.Range()) {
			return alt.Range()
		}
	}
	return syntax.InaccessibleRange
}
