package analysis

import (
	"testing"

	"github.com/dlclark/regexcheck/syntax"
	"github.com/stretchr/testify/require"
)

func TestIsAnchoredAtEnd(t *testing.T) {
	scenarios := []struct {
		p    string
		want bool
	}{
		{`a$`, true},
		{`a\z`, true},
		{`a\Z`, true},
		{`a`, false},
		{`a|b$`, false},
		{`(?:a$|b\z)`, true},
		{`a*$`, true},
		{`$|`, false},
		{`^a`, false},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			tree := parse(t, s.p)
			require.Equal(t, s.want, IsAnchoredAtEnd(tree.Start))
		})
	}
}

func TestIsEndBoundary(t *testing.T) {
	scenarios := []struct {
		p    string
		want bool
	}{
		{`$`, true},
		{`\Z`, true},
		{`\z`, true},
		{`^`, false},
		{`\b`, false},
		{`\G`, false},
		{`a`, false},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			require.Equal(t, s.want, IsEndBoundary(parse(t, s.p).Root))
		})
	}
}

func TestOnlyMatchesEmptySuffix(t *testing.T) {
	scenarios := []struct {
		p    string
		want bool
	}{
		{`a*?$`, true},
		{`a*?`, true},
		{`a*?b`, false},
		{`a*?(?=b)`, true},
		{`a*?(?:$|\b)`, true},
		{`a*?(?:$|c)`, false},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			tree := parse(t, s.p)
			rep := tree.Root
			if rep.T == syntax.NtSequence {
				rep = rep.Children[0]
			}
			require.Equal(t, s.want, OnlyMatchesEmptySuffix(rep.Continuation()))
		})
	}
}
