package analysis

import (
	"testing"

	"github.com/dlclark/regexcheck/syntax"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, p string) *syntax.RegexTree {
	t.Helper()
	tree := syntax.Parse(syntax.NewSource(p, syntax.Java.Features()), 0)
	require.False(t, tree.HasSyntaxErrors(), "syntax errors in %s: %v", p, tree.Errors)
	return tree
}

func TestCanReach(t *testing.T) {
	c := NewReachabilityChecker(false)

	tree := parse(t, `ab`)
	a, b := tree.Root.Children[0], tree.Root.Children[1]
	require.True(t, c.CanReach(a, a))
	require.True(t, c.CanReach(a, b))
	require.True(t, c.CanReach(tree.Start, tree.Final))
	require.False(t, c.CanReach(b, a))

	loop := parse(t, `(?:ab)*`)
	seq := loop.Root.Element().Element()
	require.True(t, c.CanReach(seq.Children[1], seq.Children[0]))
	require.True(t, c.CanReach(seq.Children[0], loop.Final))
}

func TestCanReachCache(t *testing.T) {
	c := NewReachabilityChecker(true)
	tree := parse(t, `ab`)
	a, b := tree.Root.Children[0], tree.Root.Children[1]

	require.False(t, c.CanReach(b, a))
	require.Equal(t, false, c.cache[statePair{b, a}])

	for len(c.cache) < maxCacheSize {
		c.cache[statePair{&syntax.RegexNode{}, &syntax.RegexNode{}}] = false
	}
	// cached answers survive, new questions get the default
	require.False(t, c.CanReach(b, a))
	require.True(t, c.CanReach(tree.Final, a))

	c.ClearCache()
	require.Empty(t, c.cache)
	require.False(t, c.CanReach(tree.Final, a))
}

func TestCanReachWithConsumingInput(t *testing.T) {
	c := NewReachabilityChecker(false)

	tree := parse(t, `a?b`)
	rep, b := tree.Root.Children[0], tree.Root.Children[1]
	require.True(t, c.CanReachWithConsumingInput(rep, b))
	require.False(t, c.CanReachWithConsumingInput(b, b))

	anchors := parse(t, `^$`)
	require.False(t, c.CanReachWithConsumingInput(anchors.Root.Children[0], anchors.Root.Children[1]))

	look := parse(t, `(?=x)yz`)
	require.True(t, c.CanReachWithConsumingInput(look.Root.Children[0], look.Final))
}

func TestCanReachWithoutConsumingInput(t *testing.T) {
	scenarios := []struct {
		p          string
		free       bool
		boundaries bool
	}{
		{`^$`, true, false},
		{`a`, false, false},
		{`a?`, true, true},
		{`(?:a|)`, true, true},
		{`$\n`, true, false},
		{`$x`, false, false},
		{`\b(?!a)`, true, false},
		{`(?s)$.`, true, false},
		{`(?=a)`, true, true},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			tree := parse(t, s.p)
			require.Equal(t, s.free, CanReachWithoutConsumingInput(tree.Start, tree.Final))
			require.Equal(t, s.boundaries, CanReachWithoutConsumingInputNorCrossingBoundaries(tree.Start, tree.Final))
		})
	}
}

func TestEndOfLookAroundIsReachable(t *testing.T) {
	tree := parse(t, `(?=a|)`)
	look := tree.Root
	end := look.Element().Continuation()
	require.Equal(t, syntax.NtEndOfLookAround, end.T)
	require.True(t, CanReachWithoutConsumingInput(look, end))

	tree = parse(t, `(?=ab)`)
	look = tree.Root
	require.False(t, CanReachWithoutConsumingInput(look, look.Element().Continuation()))
}
