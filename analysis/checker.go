package analysis

import "github.com/dlclark/regexcheck/syntax"

// CheckerKind selects the relation an AutomataChecker decides.
type CheckerKind int

const (
	// Intersection holds when both sub-automata match a common string.
	Intersection CheckerKind = iota
	// Superset holds when the first sub-automaton matches every string the
	// second one matches.
	Superset
)

type automataPair struct {
	a1, a2   SubAutomaton
	consumed bool
}

// AutomataChecker compares two sub-automata by walking them side by side.
// Unsupported constructs such as back references and lookarounds, and a
// full cache, make it return its default answer; pick the answer that does
// not lead to an issue being reported.
type AutomataChecker struct {
	kind          CheckerKind
	defaultAnswer bool
	cache         map[automataPair]bool
}

func NewIntersectionChecker(defaultAnswer bool) *AutomataChecker {
	return &AutomataChecker{kind: Intersection, defaultAnswer: defaultAnswer, cache: map[automataPair]bool{}}
}

func NewSupersetChecker(defaultAnswer bool) *AutomataChecker {
	return &AutomataChecker{kind: Superset, defaultAnswer: defaultAnswer, cache: map[automataPair]bool{}}
}

func (c *AutomataChecker) Kind() CheckerKind {
	return c.kind
}

func (c *AutomataChecker) ClearCache() {
	clear(c.cache)
}

// Check decides the checker's relation between a1 and a2.
func (c *AutomataChecker) Check(a1, a2 SubAutomaton) bool {
	return c.check(a1, a2, false)
}

// answer used while a pair is being computed, so cycles neither prove nor
// refute the relation
func (c *AutomataChecker) neutralAnswer() bool {
	if c.kind == Intersection {
		return false
	}
	return c.defaultAnswer
}

func (c *AutomataChecker) check(a1, a2 SubAutomaton, consumed bool) bool {
	pair := automataPair{a1, a2, consumed}
	if result, ok := c.cache[pair]; ok {
		return result
	}
	if len(c.cache) >= maxCacheSize {
		return c.defaultAnswer
	}
	c.cache[pair] = c.neutralAnswer()
	result := c.compute(a1, a2, consumed)
	c.cache[pair] = result
	return result
}

func (c *AutomataChecker) compute(a1, a2 SubAutomaton, consumed bool) bool {
	end1, end2 := a1.IsAtEnd(), a2.IsAtEnd()
	if end1 && end2 {
		return true
	}
	// a non-empty match of one side may stop inside the other when that
	// side allows prefixes
	if consumed && ((end1 && a2.AllowPrefix) || (end2 && a1.AllowPrefix)) {
		return true
	}

	t1, t2 := a1.Transition(), a2.Transition()
	switch {
	case !end1 && t1 == syntax.Epsilon:
		return c.checkAuto1Successors(a1, a2, consumed)
	case !end2 && t2 == syntax.Epsilon:
		return c.checkAuto2Successors(a1, a2, consumed)
	case end1 && t2 == syntax.Character, end2 && t1 == syntax.Character:
		return false
	case !end1 && !end2 && t1 == syntax.Character && t2 == syntax.Character:
		return c.checkAuto1AndAuto2Successors(a1, a2)
	}
	return c.defaultAnswer
}

func (c *AutomataChecker) checkAuto1AndAuto2Successors(a1, a2 SubAutomaton) bool {
	set1 := syntax.CharSetOf(a1.Start)
	set2 := syntax.CharSetOf(a2.Start)
	if set1 == nil || set2 == nil {
		return c.defaultAnswer
	}
	if c.kind == Intersection {
		return set1.Intersects(set2, c.defaultAnswer) &&
			a1.anySuccessor(func(s1 SubAutomaton) bool {
				return a2.anySuccessor(func(s2 SubAutomaton) bool {
					return c.check(s1, s2, true)
				})
			})
	}
	return set1.SupersetOf(set2, c.defaultAnswer) &&
		a2.allSuccessors(func(s2 SubAutomaton) bool {
			return a1.anySuccessor(func(s1 SubAutomaton) bool {
				return c.check(s1, s2, true)
			})
		})
}

func (c *AutomataChecker) checkAuto1Successors(a1, a2 SubAutomaton, consumed bool) bool {
	return a1.anySuccessor(func(s SubAutomaton) bool {
		return c.check(s, a2, consumed)
	})
}

// a superset must cover every way the second automaton can go on
func (c *AutomataChecker) checkAuto2Successors(a1, a2 SubAutomaton, consumed bool) bool {
	fn := func(s SubAutomaton) bool {
		return c.check(a1, s, consumed)
	}
	if c.kind == Intersection {
		return a2.anySuccessor(fn)
	}
	return a2.allSuccessors(fn)
}
