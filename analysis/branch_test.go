package analysis

import (
	"maps"
	"testing"

	"github.com/dlclark/regexcheck/syntax"
)

type branchRecorder struct {
	BranchTracker
	ranges map[rune]syntax.IndexRange
}

func (r *branchRecorder) VisitCharacter(n *syntax.RegexNode) {
	r.ranges[n.Ch] = r.BranchRangeFor(n)
}

func TestBranchRangeFor(t *testing.T) {
	scenarios := []struct {
		p    string
		want map[rune]syntax.IndexRange
	}{
		{`a(?:b|cd)*e`, map[rune]syntax.IndexRange{
			'a': syntax.InaccessibleRange,
			'b': {Start: 4, End: 5},
			'c': {Start: 6, End: 8},
			'd': {Start: 6, End: 8},
			'e': syntax.InaccessibleRange,
		}},
		{`(?:xy)+z`, map[rune]syntax.IndexRange{
			'x': {Start: 0, End: 6},
			'y': {Start: 0, End: 6},
			'z': syntax.InaccessibleRange,
		}},
		{`m|(n)+`, map[rune]syntax.IndexRange{
			'm': {Start: 0, End: 1},
			'n': {Start: 2, End: 5},
		}},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			r := &branchRecorder{ranges: map[rune]syntax.IndexRange{}}
			syntax.Walk(r, parse(t, s.p).Root)
			if want, got := s.want, r.ranges; !maps.Equal(want, got) {
				t.Fatalf("wanted %v, got %v", want, got)
			}
			if len(r.branching) != 0 {
				t.Fatalf("branch stack not unwound: %v", len(r.branching))
			}
		})
	}
}
