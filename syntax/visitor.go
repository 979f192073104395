package syntax

// Visitor is called for every node of a syntax tree. Methods of composite
// nodes get a children function that walks the node's children; not calling
// it prunes the walk.
type Visitor interface {
	VisitBackReference(n *RegexNode)
	VisitBoundary(n *RegexNode)
	VisitCharacter(n *RegexNode)
	VisitDot(n *RegexNode)
	VisitEscapedClass(n *RegexNode)
	VisitMiscEscape(n *RegexNode)
	VisitCharacterRange(n *RegexNode)

	VisitSequence(n *RegexNode, children func())
	VisitDisjunction(n *RegexNode, children func())
	VisitCapturingGroup(n *RegexNode, children func())
	VisitNonCapturingGroup(n *RegexNode, children func())
	VisitAtomicGroup(n *RegexNode, children func())
	VisitLookAround(n *RegexNode, children func())
	VisitRepetition(n *RegexNode, children func())
	VisitCharacterClass(n *RegexNode, children func())
	VisitCharacterClassUnion(n *RegexNode, children func())
	VisitCharacterClassIntersection(n *RegexNode, children func())
	VisitConditional(n *RegexNode, children func())
}

// BaseVisitor visits every node. Embed it and override what is needed.
type BaseVisitor struct{}

func (BaseVisitor) VisitBackReference(*RegexNode) {}
func (BaseVisitor) VisitBoundary(*RegexNode) {}
func (BaseVisitor) VisitCharacter(*RegexNode) {}
func (BaseVisitor) VisitDot(*RegexNode) {}
func (BaseVisitor) VisitEscapedClass(*RegexNode) {}
func (BaseVisitor) VisitMiscEscape(*RegexNode) {}
func (BaseVisitor) VisitCharacterRange(*RegexNode) {}

func (BaseVisitor) VisitSequence(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitDisjunction(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitCapturingGroup(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitNonCapturingGroup(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitAtomicGroup(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitLookAround(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitRepetition(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitCharacterClass(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitCharacterClassUnion(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitCharacterClassIntersection(_ *RegexNode, children func()) { children() }
func (BaseVisitor) VisitConditional(_ *RegexNode, children func()) { children() }

// Walk calls the visitor method matching n's type. Posix classes, reference
// conditions and synthetic states are not visited.
func Walk(v Visitor, n *RegexNode) {
	all := func() {
		for _, child := range n.Children {
			Walk(v, child)
		}
	}
	switch n.T {
	case NtBackReference:
		v.VisitBackReference(n)
	case NtBoundary:
		v.VisitBoundary(n)
	case NtCharacter:
		v.VisitCharacter(n)
	case NtDot:
		v.VisitDot(n)
	case NtEscapedClass:
		v.VisitEscapedClass(n)
	case NtMiscEscape:
		v.VisitMiscEscape(n)
	case NtClassRange:
		v.VisitCharacterRange(n)
	case NtSequence:
		v.VisitSequence(n, all)
	case NtDisjunction:
		v.VisitDisjunction(n, all)
	case NtCapture:
		v.VisitCapturingGroup(n, all)
	case NtGroup:
		v.VisitNonCapturingGroup(n, all)
	case NtAtomic:
		v.VisitAtomicGroup(n, all)
	case NtLookAround:
		v.VisitLookAround(n, all)
	case NtRepetition:
		v.VisitRepetition(n, all)
	case NtCharacterClass:
		v.VisitCharacterClass(n, all)
	case NtClassUnion:
		v.VisitCharacterClassUnion(n, all)
	case NtClassIntersection:
		v.VisitCharacterClassIntersection(n, all)
	case NtConditional:
		v.VisitConditional(n, func() {
			if cond := n.Condition(); cond.T == NtLookAround {
				Walk(v, cond)
			}
			Walk(v, n.Yes())
			if no := n.No(); no != nil {
				Walk(v, no)
			}
		})
	}
}

// TreeVisitor is a Visitor that wants to know when a whole tree starts and
// ends.
type TreeVisitor interface {
	Visitor
	Before(t *RegexTree)
	After(t *RegexTree)
}

// WalkTree walks the tree unless it has syntax errors. Before and After are
// called around the walk when v implements TreeVisitor.
func WalkTree(v Visitor, t *RegexTree) {
	if t.HasSyntaxErrors() {
		return
	}
	tv, hooks := v.(TreeVisitor)
	if hooks {
		tv.Before(t)
	}
	Walk(v, t.Root)
	if hooks {
		tv.After(t)
	}
}
