package analysis

import "github.com/dlclark/regexcheck/syntax"

// SubAutomaton is the part of a regex automaton that starts at Start and
// stops at End. Successor trees starting before LowerBound are left out,
// except repetitions, which loop back over their own element.
type SubAutomaton struct {
	Start       *syntax.RegexNode
	End         *syntax.RegexNode
	LowerBound  int
	AllowPrefix bool
}

func NewSubAutomaton(start, end *syntax.RegexNode, allowPrefix bool) SubAutomaton {
	return SubAutomaton{Start: start, End: end, LowerBound: -1, AllowPrefix: allowPrefix}
}

func NewBoundedSubAutomaton(start, end *syntax.RegexNode, lowerBound int, allowPrefix bool) SubAutomaton {
	return SubAutomaton{Start: start, End: end, LowerBound: lowerBound, AllowPrefix: allowPrefix}
}

// Transition is the kind of edge entering the first state.
func (a SubAutomaton) Transition() syntax.TransitionType {
	return a.Start.Transition()
}

func (a SubAutomaton) IsAtEnd() bool {
	return a.Start == a.End
}

func (a SubAutomaton) successors() []SubAutomaton {
	var out []SubAutomaton
	for _, succ := range a.Start.Successors() {
		if succ.IsTree() && succ.T != syntax.NtRepetition && succ.Range().Start < a.LowerBound {
			continue
		}
		out = append(out, SubAutomaton{Start: succ, End: a.End, LowerBound: a.LowerBound, AllowPrefix: a.AllowPrefix})
	}
	return out
}

func (a SubAutomaton) anySuccessor(fn func(SubAutomaton) bool) bool {
	for _, succ := range a.successors() {
		if fn(succ) {
			return true
		}
	}
	return false
}

func (a SubAutomaton) allSuccessors(fn func(SubAutomaton) bool) bool {
	for _, succ := range a.successors() {
		if !fn(succ) {
			return false
		}
	}
	return true
}
