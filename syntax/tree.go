package syntax

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode"
)

// RegexTree is the result of parsing one pattern. The tree is also an
// automaton: Start leads to Root and every node eventually continues to
// Final. A finished tree is read-only.
type RegexTree struct {
	Root        *RegexNode
	Start       *RegexNode
	Final       *RegexNode
	Errors      []*SyntaxError
	HasComments bool

	Capnames map[string]int
	Caplist  []string
	Captop   int
}

// HasSyntaxErrors reports whether the pattern could not be parsed cleanly.
// The tree is still complete when it did.
func (t *RegexTree) HasSyntaxErrors() bool {
	return len(t.Errors) > 0
}

func (t *RegexTree) SyntaxErrors() []*SyntaxError {
	return t.Errors
}

// Result returns the root of the syntax tree.
func (t *RegexTree) Result() *RegexNode {
	return t.Root
}

// SyntaxError is a recoverable problem found while parsing.
type SyntaxError struct {
	Offending SyntaxElement
	Message   string
}

func (e *SyntaxError) Error() string {
	r := e.Offending.Range()
	return fmt.Sprintf("%s at %d", e.Message, r.Start)
}

// RegexNode is a single node of the parsed pattern. Syntax nodes, character
// class elements and the synthetic automaton states that have no source text
// all share this type, distinguished by T.
//
// Children holds the items of a sequence, the alternatives of a disjunction,
// the elements of a class union or intersection, the bounds of a class range
// and the condition, yes and no branches of a conditional. Groups,
// lookarounds, repetitions and character classes keep their single element
// in Children[0].
type RegexNode struct {
	T        NodeType
	Children []*RegexNode
	Ch       rune
	M        int
	Str      string
	Options  FlagSet
	IsEscape bool
	Negated  bool

	Quantifier *Quantifier
	Boundary   BoundaryType
	Behind     bool
	Named      bool

	// '|' of a disjunction or conditional, "&&" of a class intersection
	Operators []SyntaxElement
	Opening   *SourceCharacter

	// flags turned on and off by a (?flags) group
	Enabled  FlagSet
	Disabled FlagSet

	source       *Source
	rng          IndexRange
	continuation *RegexNode
	successors   []*RegexNode
	owner        *RegexNode
	inner        *RegexNode
	group        *RegexNode
}

type NodeType int32

const (
	NtUnknown NodeType = -1

	NtBackReference      NodeType = 0  // \1 \k<name> (?P=name)
	NtBoundary           NodeType = 1  // ^ $ \b \B \A \G \Z \z \b{g}
	NtCharacterClass     NodeType = 2  // [...]
	NtDisjunction        NodeType = 3  // a|b
	NtDot                NodeType = 4  // .
	NtEscapedClass       NodeType = 5  // \d \w \s \h \v \p{..}
	NtCapture            NodeType = 6  // ( ) (?<name> )
	NtGroup              NodeType = 7  // (?: ) (?i) (?R)
	NtAtomic             NodeType = 8  // (?> )
	NtLookAround         NodeType = 9  // (?= ) (?! ) (?<= ) (?<! )
	NtCharacter          NodeType = 10 // a
	NtRepetition         NodeType = 11 // a* a+ a? a{n,m}
	NtSequence           NodeType = 12 // ab
	NtMiscEscape         NodeType = 13 // \R \X \N{..}
	NtConditional        NodeType = 14 // (?(cond)yes|no)
	NtReferenceCondition NodeType = 15 // (1) as a condition

	// Elements that only appear inside a character class
	NtClassRange        NodeType = 16 // a-z
	NtClassUnion        NodeType = 17 // abc
	NtClassIntersection NodeType = 18 // a&&b
	NtPosixClass        NodeType = 19 // [:alpha:]

	// Automaton states without source text
	NtStart             NodeType = 20
	NtFinal             NodeType = 21
	NtEndOfCapture      NodeType = 22
	NtEndOfRepetition   NodeType = 23
	NtBranch            NodeType = 24
	NtNegation          NodeType = 25
	NtStartOfLookBehind NodeType = 26
	NtEndOfLookAround   NodeType = 27
	NtEndOfConditional  NodeType = 28
)

type BoundaryType int

const (
	LineStart               BoundaryType = iota // ^
	LineEnd                                     // $
	WordBoundary                                // \b
	GraphemeClusterBoundary                     // \b{g}
	NonWordBoundary                             // \B
	InputStart                                  // \A
	PreviousMatchEnd                            // \G
	InputEndFinalTerminator                     // \Z
	InputEnd                                    // \z
)

func boundaryForKey(ch rune) BoundaryType {
	switch ch {
	case '^':
		return LineStart
	case '$':
		return LineEnd
	case 'b':
		return WordBoundary
	case 'B':
		return NonWordBoundary
	case 'A':
		return InputStart
	case 'G':
		return PreviousMatchEnd
	case 'Z':
		return InputEndFinalTerminator
	}
	return InputEnd
}

// TransitionType is the kind of edge leading into an automaton state.
type TransitionType int

const (
	Epsilon TransitionType = iota
	Character
	BackReferenceTransition
	LookAroundBacktracking
	NegationTransition
)

func newNode(t NodeType, s *Source, r IndexRange, flags FlagSet) *RegexNode {
	return &RegexNode{T: t, source: s, rng: r, Options: flags}
}

func newCharacter(s *Source, r IndexRange, ch rune, escape bool, flags FlagSet) *RegexNode {
	n := newNode(NtCharacter, s, r, flags)
	n.Ch = ch
	n.IsEscape = escape
	return n
}

func newSequence(s *Source, r IndexRange, items []*RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtSequence, s, r, flags)
	n.Children = items
	for i := 0; i < len(items)-1; i++ {
		items[i].SetContinuation(items[i+1])
	}
	return n
}

func newDisjunction(s *Source, r IndexRange, alternatives []*RegexNode, ors []SyntaxElement, flags FlagSet) *RegexNode {
	n := newNode(NtDisjunction, s, r, flags)
	n.Children = alternatives
	n.Operators = ors
	return n
}

func newCapture(s *Source, r IndexRange, name string, number int, element *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtCapture, s, r, flags)
	n.Str = name
	n.Named = name != ""
	n.M = number
	n.Children = []*RegexNode{element}
	end := &RegexNode{T: NtEndOfCapture, owner: n, Options: flags, rng: InaccessibleRange}
	element.SetContinuation(end)
	return n
}

// newGroup creates a non-capturing group. element is nil for (?flags) and
// (?R).
func newGroup(s *Source, r IndexRange, enabled, disabled FlagSet, element *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtGroup, s, r, flags)
	n.Enabled = enabled
	n.Disabled = disabled
	if element != nil {
		n.Children = []*RegexNode{element}
	}
	return n
}

func newAtomic(s *Source, r IndexRange, element *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtAtomic, s, r, flags)
	n.Children = []*RegexNode{element}
	return n
}

func newLookAround(s *Source, r IndexRange, behind, negative bool, element *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtLookAround, s, r, flags)
	n.Behind = behind
	n.Negated = negative
	n.Children = []*RegexNode{element}
	element.SetContinuation(&RegexNode{T: NtEndOfLookAround, owner: n, Options: flags, rng: InaccessibleRange})
	n.inner = element
	if negative {
		n.inner = &RegexNode{T: NtNegation, continuation: n.inner, Options: flags, rng: InaccessibleRange}
	}
	if behind {
		n.inner = &RegexNode{T: NtStartOfLookBehind, continuation: n.inner, Options: flags, rng: InaccessibleRange}
	}
	return n
}

func newRepetition(s *Source, r IndexRange, element *RegexNode, q *Quantifier, flags FlagSet) *RegexNode {
	n := newNode(NtRepetition, s, r, flags)
	n.Children = []*RegexNode{element}
	n.Quantifier = q
	return n
}

// newBackReference creates a back reference spanning opener to end. key is
// the 'k' or 'g' of a named reference and nil otherwise; start is the first
// digit or the name opener.
func newBackReference(s *Source, opener SourceCharacter, key *SourceCharacter, start, end SourceCharacter, flags FlagSet) *RegexNode {
	n := newNode(NtBackReference, s, opener.Range().Merge(end.Range()), flags)
	switch start.Ch {
	case '<', '\'', '{', '=':
		n.Str = s.Substring(IndexRange{start.Range().Start + 1, end.Range().Start})
		n.Named = true
		n.M = -1
	default:
		n.Str = s.Substring(start.Range().Merge(end.Range()))
		n.M = atoiSaturated(n.Str)
	}
	if key != nil {
		n.Ch = key.Ch
	}
	return n
}

func newBoundary(s *Source, b BoundaryType, r IndexRange, flags FlagSet) *RegexNode {
	n := newNode(NtBoundary, s, r, flags)
	n.Boundary = b
	return n
}

func newEscapedClass(s *Source, backslash, marker SourceCharacter, flags FlagSet) *RegexNode {
	n := newNode(NtEscapedClass, s, backslash.Range().Merge(marker.Range()), flags)
	n.Ch = marker.Ch
	n.Negated = unicode.IsUpper(marker.Ch)
	if n.IsProperty() {
		panic("\\p needs a property string")
	}
	return n
}

func newEscapedProperty(s *Source, backslash, marker, open, close SourceCharacter, flags FlagSet) *RegexNode {
	n := newNode(NtEscapedClass, s, backslash.Range().Merge(close.Range()), flags)
	n.Ch = marker.Ch
	n.Negated = unicode.IsUpper(marker.Ch)
	n.Str = s.Substring(IndexRange{open.Range().Start + 1, close.Range().Start})
	if !n.IsProperty() {
		panic("Only \\p can have a property string")
	}
	return n
}

func newCharacterClass(s *Source, r IndexRange, opening SourceCharacter, negated bool, contents *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtCharacterClass, s, r, flags)
	n.Opening = &opening
	n.Negated = negated
	n.Children = []*RegexNode{contents}
	return n
}

func newClassRange(s *Source, r IndexRange, low, high *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtClassRange, s, r, flags)
	n.Children = []*RegexNode{low, high}
	return n
}

func newClassUnion(s *Source, r IndexRange, elements []*RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtClassUnion, s, r, flags)
	n.Children = elements
	return n
}

func newClassIntersection(s *Source, r IndexRange, elements []*RegexNode, ands []SyntaxElement, flags FlagSet) *RegexNode {
	n := newNode(NtClassIntersection, s, r, flags)
	n.Children = elements
	n.Operators = ands
	return n
}

func newPosixClass(s *Source, r IndexRange, negated bool, property string, flags FlagSet) *RegexNode {
	n := newNode(NtPosixClass, s, r, flags)
	n.Negated = negated
	n.Str = property
	return n
}

// newConditional wires both branches to a shared end state. no may be nil.
func newConditional(s *Source, r IndexRange, condition, yes *RegexNode, pipe SyntaxElement, no *RegexNode, flags FlagSet) *RegexNode {
	n := newNode(NtConditional, s, r, flags)
	n.Children = []*RegexNode{condition, yes}
	if pipe != nil {
		n.Operators = []SyntaxElement{pipe}
	}
	end := &RegexNode{T: NtEndOfConditional, owner: n, Options: flags, rng: InaccessibleRange}
	yes.SetContinuation(end)
	if no != nil {
		n.Children = append(n.Children, no)
		no.SetContinuation(end)
	}
	return n
}

func newReferenceCondition(s *Source, r IndexRange, reference string, flags FlagSet) *RegexNode {
	n := newNode(NtReferenceCondition, s, r, flags)
	n.Str = reference
	return n
}

// NewStartState returns a state whose only successor is root.
func NewStartState(root *RegexNode, flags FlagSet) *RegexNode {
	return &RegexNode{T: NtStart, continuation: root, Options: flags, rng: InaccessibleRange}
}

func newFinalState(flags FlagSet) *RegexNode {
	return &RegexNode{T: NtFinal, Options: flags, rng: InaccessibleRange}
}

func newBranch(owner *RegexNode, successors []*RegexNode, flags FlagSet) *RegexNode {
	return &RegexNode{T: NtBranch, owner: owner, successors: successors, Options: flags, rng: InaccessibleRange}
}

func (n *RegexNode) Range() IndexRange { return n.rng }

func (n *RegexNode) Text() string {
	if n.source == nil {
		return ""
	}
	return n.source.Substring(n.rng)
}

func (n *RegexNode) Source() *Source { return n.source }

// IsState reports whether n is a synthetic automaton state without source
// text.
func (n *RegexNode) IsState() bool {
	return n.T >= NtStart
}

// IsTree reports whether n is a node of the syntax tree proper, as opposed
// to a class element or a synthetic state.
func (n *RegexNode) IsTree() bool {
	return n.T >= NtBackReference && n.T <= NtReferenceCondition
}

func (n *RegexNode) Is(types ...NodeType) bool {
	for _, t := range types {
		if n.T == t {
			return true
		}
	}
	return false
}

// Element returns the single child of a group, lookaround, repetition or
// character class. It is nil for (?flags) and (?R) groups.
func (n *RegexNode) Element() *RegexNode {
	switch n.T {
	case NtCapture, NtGroup, NtAtomic, NtLookAround, NtRepetition, NtCharacterClass:
		if len(n.Children) > 0 {
			return n.Children[0]
		}
	}
	return nil
}

func (n *RegexNode) Condition() *RegexNode { return n.Children[0] }

func (n *RegexNode) Yes() *RegexNode { return n.Children[1] }

// No returns the else branch of a conditional, or nil.
func (n *RegexNode) No() *RegexNode {
	if len(n.Children) > 2 {
		return n.Children[2]
	}
	return nil
}

func (n *RegexNode) Low() *RegexNode { return n.Children[0] }

func (n *RegexNode) High() *RegexNode { return n.Children[1] }

// Owner returns the node a synthetic end or branch state belongs to.
func (n *RegexNode) Owner() *RegexNode { return n.owner }

// Group returns the capture a back reference refers to, or nil when no such
// group exists.
func (n *RegexNode) Group() *RegexNode { return n.group }

// GroupHeader covers the opening of a group up to its element, e.g. "(?:".
// It is nil for groups without an element.
func (n *RegexNode) GroupHeader() *Token {
	el := n.Element()
	if el == nil || n.T == NtRepetition || n.T == NtCharacterClass {
		return nil
	}
	return &Token{source: n.source, rng: IndexRange{n.rng.Start, el.rng.Start}}
}

// IsProperty reports whether an escaped class is \p or \P.
func (n *RegexNode) IsProperty() bool {
	return unicode.ToLower(n.Ch) == 'p'
}

func (n *RegexNode) IsPossessive() bool {
	return n.Quantifier != nil && n.Quantifier.Modifier == Possessive
}

func (n *RegexNode) IsReluctant() bool {
	return n.Quantifier != nil && n.Quantifier.Modifier == Reluctant
}

// Continuation is the state the automaton moves to once n has matched. It
// is nil only for the final state.
func (n *RegexNode) Continuation() *RegexNode {
	switch n.T {
	case NtFinal:
		return nil
	case NtBranch, NtEndOfCapture, NtEndOfConditional, NtEndOfLookAround:
		return n.owner.Continuation()
	}
	if n.continuation == nil {
		panic("syntax: Continuation called before SetContinuation")
	}
	return n.continuation
}

// SetContinuation links n to the state following it, wiring its children as
// needed. It may only be called once per node.
func (n *RegexNode) SetContinuation(cont *RegexNode) {
	if n.continuation != nil {
		panic("syntax: SetContinuation called more than once")
	}
	switch n.T {
	case NtRepetition:
		cont = &RegexNode{T: NtEndOfRepetition, owner: n, continuation: cont, Options: n.Options, rng: InaccessibleRange}
		n.continuation = cont
		el := n.Children[0]
		q := n.Quantifier
		switch {
		case q.Max == 1:
			el.SetContinuation(cont)
		case q.Min >= 1:
			el.SetContinuation(newBranch(n, n.flipIfReluctant(n, cont), n.Options))
		default:
			el.SetContinuation(n)
		}
		return
	case NtSequence:
		n.continuation = cont
		if len(n.Children) > 0 {
			n.Children[len(n.Children)-1].SetContinuation(cont)
		}
		return
	case NtDisjunction:
		n.continuation = cont
		for _, alt := range n.Children {
			alt.SetContinuation(cont)
		}
		return
	case NtGroup, NtAtomic:
		n.continuation = cont
		if len(n.Children) > 0 {
			n.Children[0].SetContinuation(cont)
		}
		return
	case NtConditional:
		n.continuation = cont
		other := cont
		if no := n.No(); no != nil {
			other = no
		}
		n.Condition().SetContinuation(newBranch(n, []*RegexNode{n.Yes(), other}, n.Options))
		return
	}
	n.continuation = cont
}

func (n *RegexNode) flipIfReluctant(first, second *RegexNode) []*RegexNode {
	if n.IsReluctant() {
		return []*RegexNode{second, first}
	}
	return []*RegexNode{first, second}
}

// Successors returns the states the automaton may move to from n, in the
// order a backtracking engine tries them.
func (n *RegexNode) Successors() []*RegexNode {
	switch n.T {
	case NtFinal:
		return nil
	case NtBranch:
		return n.successors
	case NtSequence:
		if len(n.Children) > 0 {
			return []*RegexNode{n.Children[0]}
		}
	case NtDisjunction:
		return n.Children
	case NtCapture, NtAtomic, NtGroup:
		if len(n.Children) > 0 {
			return []*RegexNode{n.Children[0]}
		}
	case NtLookAround:
		return []*RegexNode{n.inner, n.Continuation()}
	case NtConditional:
		return []*RegexNode{n.Condition()}
	case NtRepetition:
		if n.Quantifier.Min == 0 {
			if n.Quantifier.Max == 0 {
				return []*RegexNode{n.Continuation()}
			}
			return n.flipIfReluctant(n.Children[0], n.Continuation())
		}
		return []*RegexNode{n.Children[0]}
	}
	return []*RegexNode{n.Continuation()}
}

// Transition is the kind of edge leading into n.
func (n *RegexNode) Transition() TransitionType {
	switch n.T {
	case NtCharacter, NtCharacterClass, NtEscapedClass, NtDot, NtMiscEscape:
		return Character
	case NtBackReference:
		return BackReferenceTransition
	case NtEndOfLookAround, NtStartOfLookBehind:
		return LookAroundBacktracking
	case NtNegation:
		return NegationTransition
	}
	return Epsilon
}

var typeStr = []string{
	"BackReference", "Boundary", "CharacterClass", "Disjunction", "Dot",
	"EscapedClass", "Capture", "Group", "Atomic", "LookAround",
	"Character", "Repetition", "Sequence", "MiscEscape", "Conditional",
	"ReferenceCondition",
	"ClassRange", "ClassUnion", "ClassIntersection", "PosixClass",
	"Start", "Final", "EndOfCapture", "EndOfRepetition", "Branch",
	"Negation", "StartOfLookBehind", "EndOfLookAround", "EndOfConditional",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(typeStr) {
		return "Unknown"
	}
	return typeStr[t]
}

func (n *RegexNode) Description() string {
	buf := &bytes.Buffer{}

	buf.WriteString(n.T.String())

	if n.Options.Contains(CaseInsensitive) {
		buf.WriteString("-I")
	}
	if n.Options.Contains(Multiline) {
		buf.WriteString("-M")
	}
	if n.Options.Contains(DotAll) {
		buf.WriteString("-S")
	}
	if n.Options.Contains(Comments) {
		buf.WriteString("-X")
	}
	if n.Options.Contains(UnicodeCharacterClass) {
		buf.WriteString("-U")
	}

	switch n.T {
	case NtCharacter:
		buf.WriteString("(Ch = " + CharDescription(n.Ch) + ")")
	case NtCapture:
		buf.WriteString("(index = " + strconv.Itoa(n.M))
		if n.Named {
			buf.WriteString(", name = " + n.Str)
		}
		buf.WriteString(")")
	case NtBackReference:
		buf.WriteString("(group = " + n.Str + ")")
	case NtEscapedClass:
		buf.WriteString("(type = " + string(n.Ch))
		if n.IsProperty() {
			buf.WriteString(", property = " + n.Str)
		}
		buf.WriteString(")")
	case NtPosixClass, NtReferenceCondition:
		buf.WriteString("(" + n.Str + ")")
	case NtRepetition:
		buf.WriteString("(Min = ")
		buf.WriteString(strconv.Itoa(n.Quantifier.Min))
		buf.WriteString(", Max = ")
		if n.Quantifier.IsOpenEnded() {
			buf.WriteString("inf")
		} else {
			buf.WriteString(strconv.Itoa(n.Quantifier.Max))
		}
		switch n.Quantifier.Modifier {
		case Reluctant:
			buf.WriteString(", reluctant")
		case Possessive:
			buf.WriteString(", possessive")
		}
		buf.WriteString(")")
	}
	if n.Negated {
		buf.WriteString("(negated)")
	}

	return buf.String()
}

var padSpace = []byte("                                ")

// Dump renders the syntax tree one node per line, children indented below
// their parent.
func (t *RegexTree) Dump() string {
	return t.Root.dump()
}

func (n *RegexNode) dump() string {
	buf := &bytes.Buffer{}
	n.dumpTo(buf, 0)
	return buf.String()
}

func (n *RegexNode) dumpTo(buf *bytes.Buffer, depth int) {
	buf.Write(padSpace[:min(depth, len(padSpace))])
	buf.WriteString(n.Description())
	buf.WriteRune('\n')
	for _, child := range n.Children {
		child.dumpTo(buf, depth+1)
	}
}
