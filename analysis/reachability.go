package analysis

import "github.com/dlclark/regexcheck/syntax"

// maximum number of memoized results per checker; past it the checker
// answers with its default
const maxCacheSize = 5000

type statePair struct {
	source, target *syntax.RegexNode
}

// ReachabilityChecker answers whether one automaton state leads to another.
// Results are memoized until ClearCache is called, so a checker must not be
// used by more than one goroutine at a time.
type ReachabilityChecker struct {
	defaultAnswer bool
	cache         map[statePair]bool
}

// NewReachabilityChecker returns a checker that answers defaultAnswer once
// its cache is full.
func NewReachabilityChecker(defaultAnswer bool) *ReachabilityChecker {
	return &ReachabilityChecker{
		defaultAnswer: defaultAnswer,
		cache:         map[statePair]bool{},
	}
}

func (c *ReachabilityChecker) ClearCache() {
	clear(c.cache)
}

// CanReach reports whether goal can be reached from start by following
// successors, consuming input or not.
func (c *ReachabilityChecker) CanReach(start, goal *syntax.RegexNode) bool {
	if start == goal {
		return true
	}
	pair := statePair{start, goal}
	if result, ok := c.cache[pair]; ok {
		return result
	}
	if len(c.cache) >= maxCacheSize {
		return c.defaultAnswer
	}
	c.cache[pair] = false
	result := false
	for _, succ := range start.Successors() {
		if c.CanReach(succ, goal) {
			result = true
			break
		}
	}
	c.cache[pair] = result
	return result
}

// CanReachWithConsumingInput reports whether goal can be reached from start
// on a path that consumes at least one character.
func (c *ReachabilityChecker) CanReachWithConsumingInput(start, goal *syntax.RegexNode) bool {
	return c.canReachWithConsumingInput(start, goal, map[*syntax.RegexNode]bool{})
}

func (c *ReachabilityChecker) canReachWithConsumingInput(start, goal *syntax.RegexNode, visited map[*syntax.RegexNode]bool) bool {
	if start == goal || visited[start] {
		return false
	}
	visited[start] = true

	if start.T == syntax.NtLookAround {
		return c.canReachWithConsumingInput(start.Continuation(), goal, visited)
	}

	for _, succ := range start.Successors() {
		if succ.Transition() == syntax.Character {
			if !isLineBreakOrPeriodAfterEndBoundaries(visited, succ) && c.CanReach(succ, goal) {
				return true
			}
		} else if c.canReachWithConsumingInput(succ, goal, visited) {
			return true
		}
	}
	return false
}

// CanReachWithoutConsumingInput reports whether goal follows start on a path
// of epsilon transitions. Boundaries are crossed freely.
func CanReachWithoutConsumingInput(start, goal *syntax.RegexNode) bool {
	return canReachWithoutConsumingInput(start, goal, false, map[*syntax.RegexNode]bool{})
}

// CanReachWithoutConsumingInputNorCrossingBoundaries is like
// CanReachWithoutConsumingInput but stops at boundaries such as ^ and \b.
func CanReachWithoutConsumingInputNorCrossingBoundaries(start, goal *syntax.RegexNode) bool {
	return canReachWithoutConsumingInput(start, goal, true, map[*syntax.RegexNode]bool{})
}

func canReachWithoutConsumingInput(start, goal *syntax.RegexNode, stopAtBoundaries bool, visited map[*syntax.RegexNode]bool) bool {
	if start == goal {
		return true
	}
	if visited[start] || (stopAtBoundaries && start.T == syntax.NtBoundary) {
		return false
	}
	visited[start] = true
	for _, succ := range start.Successors() {
		// the end of a lookaround counts as reached, but nothing behind it does
		if succ.T == syntax.NtEndOfLookAround && succ == goal {
			return true
		}
		t := succ.Transition()
		if (t == syntax.Epsilon || t == syntax.NegationTransition || isLineBreakOrPeriodAfterEndBoundaries(visited, succ)) &&
			canReachWithoutConsumingInput(succ, goal, stopAtBoundaries, visited) {
			return true
		}
	}
	return false
}

// $ and \Z do not consume the line break they stop at, so an escaped
// character or a dot-all period after them can still match it.
func isLineBreakOrPeriodAfterEndBoundaries(visited map[*syntax.RegexNode]bool, state *syntax.RegexNode) bool {
	escaped := state.T == syntax.NtCharacter && state.IsEscape
	dotAll := state.T == syntax.NtDot && state.Options.Contains(syntax.DotAll)
	if !escaped && !dotAll {
		return false
	}
	for n := range visited {
		if n.T == syntax.NtBoundary && (n.Boundary == syntax.LineEnd || n.Boundary == syntax.InputEndFinalTerminator) {
			return true
		}
	}
	return false
}
