package analysis

import "github.com/dlclark/regexcheck/syntax"

// Intersects reports whether a1 and a2 can match a common string. When both
// allow prefixes, it checks whether either one matches a prefix of what the
// other matches, which is stricter than comparing two prefixes (those would
// always share the empty string). defaultAnswer is returned for unsupported
// constructs.
func Intersects(a1, a2 SubAutomaton, defaultAnswer bool) bool {
	return NewIntersectionChecker(defaultAnswer).Check(a1, a2)
}

// SupersetOf reports whether a1 matches everything a2 matches. With
// a2.AllowPrefix, a1 only has to match a prefix of each string of a2; with
// a1.AllowPrefix, it may match a continuation of it.
func SupersetOf(a1, a2 SubAutomaton, defaultAnswer bool) bool {
	return NewSupersetChecker(defaultAnswer).Check(a1, a2)
}

// IsAnchoredAtEnd reports whether every path from start passes an end
// boundary before reaching the final state.
func IsAnchoredAtEnd(start *syntax.RegexNode) bool {
	return isAnchoredAtEnd(start, map[*syntax.RegexNode]bool{})
}

func isAnchoredAtEnd(start *syntax.RegexNode, visited map[*syntax.RegexNode]bool) bool {
	if IsEndBoundary(start) {
		return true
	}
	if start.T == syntax.NtFinal {
		return false
	}
	visited[start] = true
	for _, succ := range start.Successors() {
		if !visited[succ] && !isAnchoredAtEnd(succ, visited) {
			return false
		}
	}
	return true
}

// IsEndBoundary reports whether state is $, \Z or \z.
func IsEndBoundary(state *syntax.RegexNode) bool {
	if state.T != syntax.NtBoundary {
		return false
	}
	switch state.Boundary {
	case syntax.LineEnd, syntax.InputEnd, syntax.InputEndFinalTerminator:
		return true
	}
	return false
}

// OnlyMatchesEmptySuffix reports whether nothing after start can consume a
// character.
func OnlyMatchesEmptySuffix(start *syntax.RegexNode) bool {
	return onlyMatchesEmptySuffix(start, map[*syntax.RegexNode]bool{})
}

func onlyMatchesEmptySuffix(start *syntax.RegexNode, visited map[*syntax.RegexNode]bool) bool {
	if start.T == syntax.NtFinal || visited[start] {
		return true
	}
	visited[start] = true
	if start.T == syntax.NtLookAround {
		return onlyMatchesEmptySuffix(start.Continuation(), visited)
	}
	if start.Transition() != syntax.Epsilon {
		return false
	}
	for _, succ := range start.Successors() {
		if !onlyMatchesEmptySuffix(succ, visited) {
			return false
		}
	}
	return true
}
