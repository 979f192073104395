package finders

import (
	"testing"

	"github.com/dlclark/regexcheck/syntax"
	"github.com/stretchr/testify/require"
)

type issue struct {
	text        string
	message     string
	secondaries []string
}

type recorder struct {
	issues []issue
}

func (r *recorder) report(element syntax.SyntaxElement, message string, _ *float64, secondaries []IssueLocation) {
	var sec []string
	for _, loc := range secondaries {
		for _, el := range loc.Elements {
			sec = append(sec, el.Text()+": "+loc.Message)
		}
	}
	r.issues = append(r.issues, issue{text: element.Text(), message: message, secondaries: sec})
}

func parse(t *testing.T, p string) *syntax.RegexTree {
	t.Helper()
	tree := syntax.Parse(syntax.NewSource(p, syntax.Java.Features()), 0)
	require.False(t, tree.HasSyntaxErrors(), "syntax errors in %s: %v", p, tree.Errors)
	return tree
}

func TestEmptyGroupFinder(t *testing.T) {
	scenarios := []struct {
		p    string
		want []string
	}{
		{`()`, []string{`()`}},
		{`(?:)`, []string{`(?:)`}},
		{`(?>)`, []string{`(?>)`}},
		{`(?=)`, []string{`(?=)`}},
		{`a(?:(?:))b`, []string{`(?:)`}},
		{`(?i)a`, nil},
		{`(a)`, nil},
		{`(a|)`, nil},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			r := &recorder{}
			syntax.WalkTree(NewEmptyGroupFinder(r.report), parse(t, s.p))
			var got []string
			for _, i := range r.issues {
				require.Equal(t, emptyGroupMessage, i.message)
				got = append(got, i.text)
			}
			require.Equal(t, s.want, got)
		})
	}
}

func TestSingleCharacterAlternationFinder(t *testing.T) {
	scenarios := []struct {
		p    string
		want []string
	}{
		{`a|b`, []string{`a|b`}},
		{`a|\d|[xy]`, []string{`a|\d|[xy]`}},
		{`(?:a|b)c|d`, []string{`a|b`}},
		{`a|bc`, nil},
		{`.|a`, nil},
		{`a|`, nil},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			r := &recorder{}
			syntax.WalkTree(NewSingleCharacterAlternationFinder(r.report), parse(t, s.p))
			var got []string
			for _, i := range r.issues {
				require.Equal(t, singleCharacterAlternationMessage, i.message)
				got = append(got, i.text)
			}
			require.Equal(t, s.want, got)
		})
	}
}

func TestReluctantQuantifierWithEmptyContinuationFinder(t *testing.T) {
	scenarios := []struct {
		p    string
		want []issue
	}{
		{`a*?`, []issue{{text: `a*?`, message: "Fix this reluctant quantifier that will only ever match 0 repetitions."}}},
		{`(?:a+?)`, []issue{{text: `a+?`, message: "Fix this reluctant quantifier that will only ever match 1 repetition."}}},
		{`a{2,5}?`, []issue{{text: `a{2,5}?`, message: "Fix this reluctant quantifier that will only ever match 2 repetitions."}}},
		{`a+?b*`, []issue{{text: `a+?`, message: "Fix this reluctant quantifier that will only ever match 1 repetition."}}},
		{`a*?$`, []issue{{text: `a*?`, message: reluctantUnnecessaryMessage}}},
		{`a*?b`, nil},
		{`a*?b$`, nil},
		{`a*`, nil},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			r := &recorder{}
			syntax.WalkTree(NewReluctantQuantifierWithEmptyContinuationFinder(r.report), parse(t, s.p))
			require.Equal(t, s.want, r.issues)
		})
	}
}

func TestPossessiveQuantifierContinuationFinder(t *testing.T) {
	scenarios := []struct {
		p    string
		want []issue
	}{
		{`a*+a`, []issue{{text: `a`, message: possessiveMessage, secondaries: []string{"a*+: Previous possessive repetition"}}}},
		{`a*+(?:a)`, []issue{{text: `(?:a)`, message: possessiveMessage, secondaries: []string{"a*+: Previous possessive repetition"}}}},
		{`[ab]++ac`, []issue{{text: `a`, message: possessiveMessage, secondaries: []string{"[ab]++: Previous possessive repetition"}}}},
		{`a*+b`, nil},
		{`a*+`, nil},
		{`a?+a`, nil},
		{`a*a`, nil},
		{`a++(?:a|b)`, nil},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			r := &recorder{}
			syntax.WalkTree(NewPossessiveQuantifierContinuationFinder(r.report), parse(t, s.p))
			require.Equal(t, s.want, r.issues)
		})
	}
}
