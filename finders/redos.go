package finders

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexcheck/analysis"
	"github.com/dlclark/regexcheck/syntax"
)

const (
	// MaxTrackedRepetitions is the number of open-ended repetitions kept
	// for pairwise overlap checks. Older ones are forgotten first.
	MaxTrackedRepetitions = 10

	// MaxRegexLength is the longest regex analyzed; longer ones are skipped.
	MaxRegexLength = 1000
)

// BacktrackingType classifies the worst backtracking found in a regex.
// "Optimized" refers to engines that memoize failed attempts at a loop, as
// Java 9 and later do; without that optimization the *WhenOptimized kinds
// are exponential.
type BacktrackingType int

const (
	NoIssue BacktrackingType = iota
	LinearWhenOptimized
	AlwaysQuadratic
	QuadraticWhenOptimized
	AlwaysExponential
)

var backtrackingNames = []string{"NoIssue", "LinearWhenOptimized", "AlwaysQuadratic", "QuadraticWhenOptimized", "AlwaysExponential"}

func (b BacktrackingType) String() string {
	if b < 0 || int(b) >= len(backtrackingNames) {
		return fmt.Sprintf("BacktrackingType(%d)", int(b))
	}
	return backtrackingNames[b]
}

// Max returns the worse of b and other.
func (b BacktrackingType) Max(other BacktrackingType) BacktrackingType {
	if b > other {
		return b
	}
	return other
}

// MatchType is how the regex is applied to its input.
type MatchType int

const (
	// Full matches the whole input, as Java's String.matches does.
	Full MatchType = iota
	// Partial searches for a match anywhere in the input.
	Partial
	// Both is used when the regex is applied both ways.
	Both
	// NotSupported is used when the use is unknown.
	NotSupported
)

var matchTypeNames = []string{"full", "partial", "both", "unknown"}

func (m MatchType) String() string {
	if m < 0 || int(m) >= len(matchTypeNames) {
		return fmt.Sprintf("MatchType(%d)", int(m))
	}
	return matchTypeNames[m]
}

// ParseMatchType returns the MatchType named by s, ignoring case.
func ParseMatchType(s string) (MatchType, error) {
	for i, name := range matchTypeNames {
		if strings.EqualFold(s, name) {
			return MatchType(i), nil
		}
	}
	return NotSupported, fmt.Errorf("unknown match type %q", s)
}

// MessageFunc turns the worst backtracking found into the message to report.
// It returns false when nothing should be reported.
type MessageFunc func(found BacktrackingType, hasBackReference bool) (string, bool)

const redosMessage = "Make sure the regex used here, which is vulnerable to %s runtime due to backtracking, cannot lead to denial of service."

func exponential() string { return fmt.Sprintf(redosMessage, "exponential") }
func polynomial() string  { return fmt.Sprintf(redosMessage, "polynomial") }

// UnoptimizedEngineMessage reports for engines that never memoize
// backtracking, such as PCRE or Python's re.
func UnoptimizedEngineMessage(found BacktrackingType, _ bool) (string, bool) {
	switch found {
	case AlwaysExponential, QuadraticWhenOptimized, LinearWhenOptimized:
		return exponential(), true
	case AlwaysQuadratic:
		return polynomial(), true
	}
	return "", false
}

// OptimizedEngineMessage reports for engines that memoize loops. A back
// reference anywhere in the regex turns the optimization off.
func OptimizedEngineMessage(found BacktrackingType, hasBackReference bool) (string, bool) {
	switch found {
	case AlwaysExponential:
		return exponential(), true
	case QuadraticWhenOptimized:
		if hasBackReference {
			return exponential(), true
		}
		return polynomial(), true
	case AlwaysQuadratic:
		return polynomial(), true
	case LinearWhenOptimized:
		if hasBackReference {
			return exponential(), true
		}
	}
	return "", false
}

// RedosFinder looks for patterns that make a backtracking engine take
// superlinear time. A finder keeps caches between calls and must not be used
// by more than one goroutine at a time.
type RedosFinder struct {
	message      MessageFunc
	reachability *analysis.ReachabilityChecker
	intersection *analysis.AutomataChecker

	hasBackReference bool
	found            BacktrackingType
}

func NewRedosFinder(message MessageFunc) *RedosFinder {
	return &RedosFinder{
		message:      message,
		reachability: analysis.NewReachabilityChecker(false),
		intersection: analysis.NewIntersectionChecker(false),
	}
}

// CheckRegex analyzes tree and reports at most one issue, on the root, for
// the worst backtracking found. Trees with syntax errors and regexes longer
// than MaxRegexLength are not analyzed.
func (f *RedosFinder) CheckRegex(tree *syntax.RegexTree, matchType MatchType, report ElementIssue) BacktrackingType {
	r := tree.Root.Range()
	if r.End-r.Start > MaxRegexLength {
		return NoIssue
	}
	f.hasBackReference = false
	f.found = NoIssue
	f.reachability.ClearCache()
	f.intersection.ClearCache()

	full := matchType == Full || matchType == Both
	partial := matchType == Partial || matchType == Both
	syntax.WalkTree(f.newRedosVisitor(tree.Start, tree.Final, full, partial), tree)

	if msg, ok := f.message(f.found, f.hasBackReference); ok {
		report(tree.Root, msg, nil, nil)
	}
	return f.found
}

func (f *RedosFinder) addBacktracking(b BacktrackingType) {
	f.found = f.found.Max(b)
}

type redosVisitor struct {
	syntax.BaseVisitor
	f *RedosFinder

	nonPossessiveRepetitions []*syntax.RegexNode
	canFailCache             map[*syntax.RegexNode]bool

	startOfRegex *syntax.RegexNode
	endOfRegex   *syntax.RegexNode
	fullMatch    bool
	partialMatch bool
}

func (f *RedosFinder) newRedosVisitor(start, end *syntax.RegexNode, fullMatch, partialMatch bool) *redosVisitor {
	return &redosVisitor{
		f:            f,
		canFailCache: map[*syntax.RegexNode]bool{},
		startOfRegex: start,
		endOfRegex:   end,
		fullMatch:    fullMatch,
		partialMatch: partialMatch,
	}
}

func (v *redosVisitor) VisitRepetition(n *syntax.RegexNode, children func()) {
	if !v.canFail(n.Continuation()) {
		return
	}
	if !n.IsPossessive() && n.Quantifier.IsOpenEnded() {
		syntax.Walk(&backtrackingFinder{f: v.f, reluctant: n.IsReluctant(), endOfLoop: n.Continuation()}, n.Element())
	} else {
		children()
	}
	v.checkForOverlappingRepetitions(n)
}

func (v *redosVisitor) VisitBackReference(*syntax.RegexNode) {
	v.f.hasBackReference = true
}

func (v *redosVisitor) checkForOverlappingRepetitions(n *syntax.RegexNode) {
	if !n.Quantifier.IsOpenEnded() || !v.canFail(n) {
		return
	}
	f := v.f
	for _, rep := range v.nonPossessiveRepetitions {
		if !f.reachability.CanReach(rep, n) {
			continue
		}
		repetitionAuto := analysis.NewSubAutomaton(rep.Element(), rep.Continuation(), false)
		continuationAuto := analysis.NewSubAutomaton(rep.Continuation(), n, false)
		treeAuto := analysis.NewSubAutomaton(n.Element(), n.Continuation(), false)
		if v.subAutomatonCanConsume(repetitionAuto, continuationAuto) &&
			v.automatonIsEmptyOrIntersects(continuationAuto, treeAuto) &&
			f.intersection.Check(repetitionAuto, treeAuto) {
			f.addBacktracking(AlwaysQuadratic)
		}
	}
	if v.overlapsWithImplicitMatchAlls(n) {
		f.addBacktracking(AlwaysQuadratic)
	}
	if !n.IsPossessive() {
		v.nonPossessiveRepetitions = append(v.nonPossessiveRepetitions, n)
		if len(v.nonPossessiveRepetitions) > MaxTrackedRepetitions {
			v.nonPossessiveRepetitions = v.nonPossessiveRepetitions[1:]
		}
	}
}

func (v *redosVisitor) subAutomatonCanConsume(a1, a2 analysis.SubAutomaton) bool {
	return analysis.CanReachWithoutConsumingInputNorCrossingBoundaries(a1.End, a2.End) ||
		v.f.intersection.Check(a1, a2)
}

func (v *redosVisitor) automatonIsEmptyOrIntersects(a1, a2 analysis.SubAutomaton) bool {
	return analysis.CanReachWithoutConsumingInputNorCrossingBoundaries(a1.Start, a1.End) ||
		v.f.intersection.Check(a1, a2)
}

// An unanchored search behaves as if the regex started and ended with
// (?s:.*).
func (v *redosVisitor) overlapsWithImplicitMatchAlls(n *syntax.RegexNode) bool {
	return v.partialMatch && analysis.CanReachWithoutConsumingInputNorCrossingBoundaries(v.startOfRegex, n)
}

func (v *redosVisitor) canFail(state *syntax.RegexNode) bool {
	return v.canFailFrom(state, !v.fullMatch && !analysis.IsAnchoredAtEnd(state))
}

func (v *redosVisitor) canFailFrom(state *syntax.RegexNode, succeedOnEnd bool) bool {
	if result, ok := v.canFailCache[state]; ok {
		return result
	}
	v.canFailCache[state] = true
	if state.Transition() != syntax.Epsilon {
		return true
	}
	if v.canMatchAnything(state) {
		succeedOnEnd = true
		state = state.Continuation()
	}
	if succeedOnEnd && analysis.CanReachWithoutConsumingInput(state, v.endOfRegex) {
		v.canFailCache[state] = false
		return false
	}
	for _, succ := range state.Successors() {
		if !v.canFailFrom(succ, succeedOnEnd) {
			v.canFailCache[state] = false
			return false
		}
	}
	return true
}

// canMatchAnything reports whether state is a .* like loop.
func (v *redosVisitor) canMatchAnything(state *syntax.RegexNode) bool {
	if state.T != syntax.NtRepetition {
		return false
	}
	q := state.Quantifier
	if q.Min != 0 || !q.IsOpenEnded() {
		return false
	}
	set := syntax.NewCharSet()
	for _, single := range collectSingleCharacters(state.Element(), nil) {
		set.AddNode(single)
	}
	return set.MatchesAnyCharacter()
}

func collectSingleCharacters(n *syntax.RegexNode, acc []*syntax.RegexNode) []*syntax.RegexNode {
	if n == nil {
		return acc
	}
	switch n.T {
	case syntax.NtCharacter, syntax.NtEscapedClass, syntax.NtCharacterClass, syntax.NtDot:
		acc = append(acc, n)
	case syntax.NtDisjunction:
		for _, alt := range n.Children {
			acc = collectSingleCharacters(alt, acc)
		}
	case syntax.NtCapture, syntax.NtGroup, syntax.NtAtomic, syntax.NtLookAround:
		acc = collectSingleCharacters(n.Element(), acc)
	case syntax.NtRepetition:
		if n.Quantifier.Min <= 1 {
			acc = collectSingleCharacters(n.Element(), acc)
		}
	}
	return acc
}

// backtrackingFinder looks inside the body of an open-ended loop for two
// ways of matching the same input.
type backtrackingFinder struct {
	syntax.BaseVisitor
	f         *RedosFinder
	reluctant bool
	endOfLoop *syntax.RegexNode
}

func (b *backtrackingFinder) VisitAtomicGroup(n *syntax.RegexNode, _ func()) {
	syntax.Walk(b.f.newRedosVisitor(n, n.Continuation(), false, false), n)
}

func (b *backtrackingFinder) VisitRepetition(n *syntax.RegexNode, children func()) {
	switch {
	case n.IsPossessive():
		syntax.Walk(b.f.newRedosVisitor(n, n.Continuation(), false, false), n)
	case b.containsIntersections([]*syntax.RegexNode{n.Element(), n.Continuation()}):
		greedy := LinearWhenOptimized
		if n.Quantifier.IsOpenEnded() {
			greedy = QuadraticWhenOptimized
		}
		b.add(greedy)
		children()
	default:
		children()
	}
}

func (b *backtrackingFinder) VisitDisjunction(n *syntax.RegexNode, children func()) {
	if b.containsIntersections(n.Children) {
		b.add(LinearWhenOptimized)
	} else {
		children()
	}
}

func (b *backtrackingFinder) VisitBackReference(*syntax.RegexNode) {
	b.f.hasBackReference = true
}

// add records greedy, or exponential backtracking inside a reluctant loop.
func (b *backtrackingFinder) add(greedy BacktrackingType) {
	if b.reluctant {
		b.f.addBacktracking(AlwaysExponential)
		return
	}
	b.f.addBacktracking(greedy)
}

func (b *backtrackingFinder) containsIntersections(alternatives []*syntax.RegexNode) bool {
	for i := 0; i < len(alternatives)-1; i++ {
		for j := i + 1; j < len(alternatives); j++ {
			a1 := analysis.NewSubAutomaton(alternatives[i], b.endOfLoop, false)
			a2 := analysis.NewSubAutomaton(alternatives[j], b.endOfLoop, false)
			if b.f.intersection.Check(a1, a2) {
				return true
			}
		}
	}
	return false
}
