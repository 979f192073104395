package syntax

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseJava(p string) *RegexTree {
	return Parse(NewSource(p, Java.Features()), 0)
}

func errorMessages(tree *RegexTree) []string {
	var msgs []string
	for _, e := range tree.SyntaxErrors() {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

func TestParseErrors(t *testing.T) {
	scenarios := []struct {
		p       string
		dialect Dialect
		errors  []string
	}{
		{`a`, Java, nil},
		{``, Java, nil},
		{`[a-z]`, Java, nil},
		{`[z-a]`, Java, []string{"Illegal character range"}},
		{`a)`, Java, []string{"Unexpected ')'"}},
		{`*`, Java, []string{"Unexpected quantifier '*'"}},
		{`(a`, Java, []string{"Expected ')', but found the end of the regex"}},
		{`[a`, Java, []string{"Expected ']', but found the end of the regex"}},
		{`a{2`, Java, []string{"Expected ',' or '}', but found the end of the regex"}},
		{`a{2,`, Java, []string{"Expected integer or '}', but found the end of the regex"}},
		{`a{2,3`, Java, []string{"Expected '}', but found the end of the regex"}},
		{`a{x}`, Java, []string{"Expected integer, but found 'x'"}},
		{`a{3,1}`, Java, []string{"Illegal repetition range"}},
		{`a{1,1}`, Java, nil},
		{`a{3,}`, Java, nil},
		{`a{x}`, Python, nil},
		{`\E`, Java, []string{"\\E used without \\Q"}},
		{`\Qab`, Java, []string{"Expected '\\E', but found the end of the regex"}},
		{`\Qa)b\E`, Java, nil},
		{`\x{110000}`, Java, []string{"Invalid Unicode code point"}},
		{`\x{10FFFF}`, Java, nil},
		{`\x1`, Java, []string{"Expected hexadecimal digit, but found the end of the regex"}},
		{`\x{`, Java, []string{"Expected hexadecimal digit, but found the end of the regex", "Expected hexadecimal digit or '}', but found the end of the regex"}},
		{`\0`, Java, []string{"Expected octal digit, but found the end of the regex"}},
		{`\`, Java, []string{"Expected any character, but found the end of the regex"}},
		{`\c`, Java, []string{"Expected any character, but found the end of the regex"}},
		{`(?<>a)`, Java, []string{"Expected a name for the group, but found '>'"}},
		{`(?z)`, Java, []string{"Expected flag or ':' or ')', but found 'z'"}},
		{`\k`, Java, []string{"Expected '<', but found the end of the regex"}},
		{`\k`, PHP, []string{"Expected '<' or ''' or '{', but found the end of the regex"}},
		{`\p`, Java, []string{"Expected '{', but found the end of the regex"}},
		{`\p{}`, Java, []string{"Expected a property name, but found '}'"}},
		{`\p{L`, Java, []string{"Expected '}', but found the end of the regex"}},
		{`\N{}`, Java, []string{"Expected a Unicode character name, but found '}'"}},
		{`[\b]`, Java, []string{"Invalid escape sequence inside character class"}},
		{`[a-\d]`, Java, []string{"Expected simple character, but found '\\d'", "Illegal character range"}},
		{`(?(1)a|b|c)`, PHP, []string{"More than two alternatives in the subpattern"}},
		{`(?(x+)a)`, PHP, []string{"Conditional subpattern has invalid condition."}},
		{`(?(1)a|b)`, PHP, nil},
		{`(?(?=a)a|b)`, PHP, nil},
		{`(?R)`, PHP, nil},
		{`(?R)`, Java, []string{"Expected flag or ':' or ')', but found 'R'"}},
		{`(?>a)`, Java, nil},
		{`(?>a)`, Python, []string{"Expected flag or ':' or ')', but found '>'"}},
		{`a++`, Java, nil},
		{`a++`, Python, []string{"Unexpected quantifier '+'"}},
		{`[a[b]]`, Java, nil},
		{`[a[b]]`, PHP, nil},
		{`(?P<n>a)(?P=n)`, Python, nil},
		{`(?P=)`, Python, []string{"Expected a group name, but found ')'", "Unexpected ')'"}},
		{`[[:alpha:]]`, PHP, nil},
	}

	for _, s := range scenarios {
		t.Run(fmt.Sprintf("%s/%s", s.dialect, s.p), func(t *testing.T) {
			tree := Parse(NewDialectSource(s.dialect, s.p), 0)
			require.Equal(t, s.errors, errorMessages(tree))
			require.Equal(t, len(s.errors) > 0, tree.HasSyntaxErrors())
			for _, e := range tree.SyntaxErrors() {
				require.Contains(t, e.Error(), e.Message+" at ")
			}
		})
	}
}

// patterns used for the structural properties, well-formed or not
var structuralPatterns = []struct {
	p       string
	dialect Dialect
}{
	{``, Java},
	{`a`, Java},
	{`abc|d*e+?|`, Java},
	{`(a|b)*c{2,5}`, Java},
	{`(?<x>a+)\k<x>(?:b)?`, Java},
	{`(?=a)(?!b)(?<=c)(?<!d)e`, Java},
	{`(?>a|ab)++c`, Java},
	{`[a-z&&[^aeiou]]\w\p{L}.`, Java},
	{`^(?i)a(?-i:B)$`, Java},
	{`a)b)`, Java},
	{`)`, Java},
	{`(((`, Java},
	{`[z-a]\x{`, Java},
	{`x{1,1}y{0,0}z{3}`, Java},
	{`(?(1)a|b)(?(?=x)y)(?R)`, PHP},
	{`(?(1)a|b|c)`, PHP},
	{`[[:^alpha:]a-c]`, PHP},
	{`(?P<n>a){(?P=n)`, Python},
	{`\1\2\11(a)`, Java},
	{`*`, Java},
	{`a**`, Java},
	{`+a`, Java},
	{`(?x)a  `, Java},
	{`(?x) a # c`, Java},
	{`\Qab\E`, Java},
	{`x{3,1}`, Java},
}

func walkNodes(n *RegexNode, fn func(n *RegexNode)) {
	fn(n)
	for _, child := range n.Children {
		walkNodes(child, fn)
	}
}

func TestParseCoversWholeInput(t *testing.T) {
	for _, s := range structuralPatterns {
		t.Run(s.p, func(t *testing.T) {
			source := NewDialectSource(s.dialect, s.p)
			tree := Parse(source, 0)
			require.Equal(t, IndexRange{0, source.Len()}, tree.Root.Range())
		})
	}

	spaced := []string{` a `, `a # c`, ` a|b `}
	for _, p := range spaced {
		t.Run("comments/"+p, func(t *testing.T) {
			tree := Parse(NewSource(p, Java.Features()), Comments)
			require.False(t, tree.HasSyntaxErrors())
			require.Equal(t, IndexRange{0, len(p)}, tree.Root.Range())
			require.Equal(t, p, tree.Root.Text())
		})
	}

	// a lone element is wrapped rather than stretched
	tree := Parse(NewSource(` a `, Java.Features()), Comments)
	require.Equal(t, NtSequence, tree.Root.T)
	require.Len(t, tree.Root.Children, 1)
	require.Equal(t, IndexRange{1, 2}, tree.Root.Children[0].Range())
	require.Same(t, tree.Final, tree.Root.Children[0].Continuation())
}

func TestParseRanges(t *testing.T) {
	for _, s := range structuralPatterns {
		t.Run(s.p, func(t *testing.T) {
			tree := Parse(NewDialectSource(s.dialect, s.p), 0)
			walkNodes(tree.Root, func(n *RegexNode) {
				r := n.Range()
				require.LessOrEqual(t, r.Start, r.End, "%s %v", n.Description(), r)
				prev := r.Start
				for _, child := range n.Children {
					require.True(t, r.Contains(child.Range()), "%s %v does not contain %v", n.Description(), r, child.Range())
					require.LessOrEqual(t, prev, child.Range().Start, "children of %s out of order", n.Description())
					prev = child.Range().End
				}
			})
		})
	}

	tree := parseJava(`ab(c)[d]`)
	var got []IndexRange
	for _, child := range tree.Root.Children {
		got = append(got, child.Range())
	}
	want := []IndexRange{{0, 1}, {1, 2}, {2, 5}, {5, 8}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("child ranges mismatch (-want +got):\n%s", diff)
	}
}

func TestAutomatonReachesFinal(t *testing.T) {
	for _, s := range structuralPatterns {
		t.Run(s.p, func(t *testing.T) {
			tree := Parse(NewDialectSource(s.dialect, s.p), 0)
			require.Equal(t, []*RegexNode{tree.Root}, tree.Start.Successors())
			require.Nil(t, tree.Final.Successors())
			require.Nil(t, tree.Final.Continuation())

			visited := map[*RegexNode]bool{}
			queue := []*RegexNode{tree.Start}
			for len(queue) > 0 {
				n := queue[0]
				queue = queue[1:]
				if visited[n] {
					continue
				}
				visited[n] = true

				steps := 0
				for c := n; c != tree.Final; c = c.Continuation() {
					steps++
					require.Less(t, steps, 1000, "continuation chain of %s does not end", n.Description())
				}
				queue = append(queue, n.Successors()...)
			}
			require.True(t, visited[tree.Final])
		})
	}
}

func TestNumericalBackReference(t *testing.T) {
	groups := func(n int) string {
		return strings.Repeat("(a)", n)
	}

	tree := parseJava(groups(10) + `\11`)
	require.False(t, tree.HasSyntaxErrors())
	items := tree.Root.Children
	ref, char := items[10], items[11]
	require.Equal(t, NtBackReference, ref.T)
	require.Equal(t, "1", ref.Str)
	require.Equal(t, 1, ref.M)
	require.Same(t, items[0], ref.Group())
	require.Equal(t, NtCharacter, char.T)
	require.Equal(t, '1', char.Ch)

	tree = parseJava(groups(11) + `\11`)
	items = tree.Root.Children
	ref = items[11]
	require.Len(t, items, 12)
	require.Equal(t, NtBackReference, ref.T)
	require.Equal(t, 11, ref.M)
	require.Same(t, items[10], ref.Group())

	// a reference may come before its group
	tree = parseJava(`(?:\2(a)|(b))+`)
	require.False(t, tree.HasSyntaxErrors())
	var refs []*RegexNode
	walkNodes(tree.Root, func(n *RegexNode) {
		if n.T == NtBackReference {
			refs = append(refs, n)
		}
	})
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].Group())
	require.Equal(t, 2, refs[0].Group().M)

	require.Nil(t, parseJava(`\1`).Root.Group())
}

func TestNamedGroups(t *testing.T) {
	tree := parseJava(`(a)(?<first>b)(c)\k<first>`)
	require.False(t, tree.HasSyntaxErrors())
	require.Equal(t, map[string]int{"first": 2}, tree.Capnames)
	require.Equal(t, []string{"first"}, tree.Caplist)
	require.Equal(t, 4, tree.Captop)

	items := tree.Root.Children
	require.True(t, items[1].Named)
	require.Equal(t, "first", items[1].Str)
	require.Equal(t, 3, items[2].M)
	require.Equal(t, NtBackReference, items[3].T)
	require.True(t, items[3].Named)
	require.Same(t, items[1], items[3].Group())
	require.Equal(t, "(?<first>", items[1].GroupHeader().Text())

	tree = Parse(NewDialectSource(PHP, `(?'a'x)(?P<b>y)\k{a}\g{b}\k'a'`), 0)
	require.False(t, tree.HasSyntaxErrors())
	require.Equal(t, []string{"a", "b"}, tree.Caplist)
	items = tree.Root.Children
	for _, ref := range items[2:] {
		require.Equal(t, NtBackReference, ref.T)
		require.NotNil(t, ref.Group(), ref.Text())
	}
}

func TestQuantifierShortcuts(t *testing.T) {
	one := parseJava(`x{1,1}`).Root
	require.Equal(t, NtRepetition, one.T)
	require.Equal(t, 1, one.Quantifier.Min)
	require.Equal(t, 1, one.Quantifier.Max)
	require.True(t, one.Quantifier.IsFixed())
	el := one.Element()
	require.Equal(t, []*RegexNode{el}, one.Successors())
	require.Same(t, one.Continuation(), el.Continuation())
	require.Equal(t, NtEndOfRepetition, el.Continuation().T)

	zero := parseJava(`x{0,0}`).Root
	require.Equal(t, []*RegexNode{zero.Continuation()}, zero.Successors())
	require.Equal(t, NtFinal, zero.Continuation().Continuation().T)

	fixed := parseJava(`x{3}`).Root
	require.True(t, fixed.Quantifier.IsFixed())
	require.Equal(t, 3, fixed.Quantifier.Max)
	require.False(t, parseJava(`x{2,3}`).Root.Quantifier.IsFixed())
	require.False(t, parseJava(`x{2,}`).Root.Quantifier.IsFixed())
	require.False(t, parseJava(`x?`).Root.Quantifier.IsFixed())

	star := parseJava(`x*`).Root
	require.True(t, star.Quantifier.IsOpenEnded())
	require.Same(t, star, star.Element().Continuation())
	require.Equal(t, []*RegexNode{star.Element(), star.Continuation()}, star.Successors())

	lazy := parseJava(`x*?`).Root
	require.True(t, lazy.IsReluctant())
	require.Equal(t, []*RegexNode{lazy.Continuation(), lazy.Element()}, lazy.Successors())

	plus := parseJava(`x+`).Root
	branch := plus.Element().Continuation()
	require.Equal(t, NtBranch, branch.T)
	require.Equal(t, []*RegexNode{plus, plus.Continuation()}, branch.Successors())

	possessive := parseJava(`x?+`).Root
	require.True(t, possessive.IsPossessive())

	big := parseJava(`x{99999999999999999999}`).Root
	require.Greater(t, big.Quantifier.Min, 0)
}

func TestCurlyBracesInPython(t *testing.T) {
	tree := Parse(NewPythonSource(`a{2}b{x}c{1,}`), 0)
	require.False(t, tree.HasSyntaxErrors())
	items := tree.Root.Children
	require.Equal(t, NtRepetition, items[0].T)
	require.Equal(t, NtCharacter, items[1].T)
	require.Equal(t, '{', items[2].Ch)
	require.Equal(t, NtRepetition, items[len(items)-1].T)
	require.True(t, items[len(items)-1].Quantifier.IsOpenEnded())
}

func TestReadOnlyQueriesAreIdempotent(t *testing.T) {
	tree := parseJava(`[z-a](`)
	first := tree.SyntaxErrors()
	require.Equal(t, first, tree.SyntaxErrors())
	require.Len(t, first, 2)
	require.Same(t, tree.Result(), tree.Result())
	require.Equal(t, tree.Dump(), tree.Dump())
	require.Equal(t, tree.Root.Successors(), tree.Root.Successors())
}

func TestParserIsSingleUse(t *testing.T) {
	p := NewParser(NewSource("a", Java.Features()), FlagSet{})
	tree := p.Parse()
	require.NotNil(t, tree)
	require.Panics(t, func() { p.Parse() })
}

func TestSurrogatePairs(t *testing.T) {
	scenarios := []struct {
		name   string
		source *Source
	}{
		{"java literal escapes", NewJavaSource(`\uD83D\uDE00`)},
		{"regex escapes", NewSource(`\uD83D\uDE00`, Java.Features())},
		{"java high surrogate before regex escape", NewJavaSource(`\uD83D\\uDE00`)},
		{"supplementary character", NewSource("\U0001F600", Java.Features())},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			tree := Parse(s.source, 0)
			require.False(t, tree.HasSyntaxErrors())
			require.Equal(t, NtCharacter, tree.Root.T)
			require.Equal(t, rune(0x1F600), tree.Root.Ch)
			require.Equal(t, IndexRange{0, s.source.Len()}, tree.Root.Range())
		})
	}
}

func TestDoubleHighSurrogateWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(log.New(buf, "", 0))
	defer SetLogger(log.New(log.Writer(), "syntax: ", log.LstdFlags))

	tree := Parse(NewJavaSource(`\uD83D\uD83D`), 0)
	require.Len(t, tree.Root.Children, 2)
	require.Contains(t, buf.String(), "two high surrogate characters in a row")
}

func TestFlags(t *testing.T) {
	tree := parseJava(`(?i:a)b(?s-i)c.`)
	items := tree.Root.Children
	require.True(t, items[0].Element().Options.Contains(CaseInsensitive))
	require.False(t, items[1].Options.Contains(CaseInsensitive))
	require.True(t, items[2].Enabled.Contains(DotAll))
	require.True(t, items[2].Disabled.Contains(CaseInsensitive))
	require.True(t, items[3].Options.Contains(DotAll))
	require.True(t, items[4].Options.Contains(DotAll))

	ch, ok := items[2].Enabled.CharacterFor(DotAll)
	require.True(t, ok)
	require.Equal(t, "s", ch.Text())

	tree = Parse(NewSource(`(?x) a b # comment`, Java.Features()), 0)
	require.False(t, tree.HasSyntaxErrors())
	require.True(t, tree.HasComments)
	require.Len(t, tree.Root.Children, 3)

	tree = Parse(NewSource(` a\ b `, Java.Features()), Comments)
	require.False(t, tree.HasComments)
	require.Len(t, tree.Root.Children, 2)
	require.Equal(t, ' ', tree.Root.Children[1].Ch)

	tree = Parse(NewSource(`(?x: a )b c`, Java.Features()), 0)
	require.Len(t, tree.Root.Children, 4)
}

func TestDump(t *testing.T) {
	tree := parseJava(`a|b*?`)
	want := "Disjunction\n Character(Ch = a)\n Repetition(Min = 0, Max = inf, reluctant)\n  Character(Ch = b)\n"
	require.Equal(t, want, tree.Dump())

	tree = Parse(NewSource(`(?<n>\p{Lu})`, Java.Features()), CaseInsensitive)
	require.Equal(t, "Capture-I(index = 1, name = n)\n EscapedClass-I(type = p, property = Lu)\n", tree.Dump())
}

func TestConditional(t *testing.T) {
	tree := Parse(NewDialectSource(PHP, `(?(1)a|b)`), 0)
	cond := tree.Root
	require.Equal(t, NtConditional, cond.T)
	require.Equal(t, NtReferenceCondition, cond.Condition().T)
	require.Equal(t, "1", cond.Condition().Str)
	require.Equal(t, []*RegexNode{cond.Condition()}, cond.Successors())

	branch := cond.Condition().Continuation()
	require.Equal(t, NtBranch, branch.T)
	require.Equal(t, []*RegexNode{cond.Yes(), cond.No()}, branch.Successors())
	require.Equal(t, NtEndOfConditional, cond.Yes().Continuation().T)
	require.Same(t, tree.Final, cond.Yes().Continuation().Continuation())

	// both subpatterns are reachable from the start state
	reached := map[*RegexNode]bool{}
	var visit func(n *RegexNode)
	visit = func(n *RegexNode) {
		if reached[n] {
			return
		}
		reached[n] = true
		for _, succ := range n.Successors() {
			visit(succ)
		}
	}
	visit(tree.Start)
	require.True(t, reached[cond.Yes()])
	require.True(t, reached[cond.No()])

	noElse := Parse(NewDialectSource(PHP, `(?(1)a)`), 0).Root
	require.Nil(t, noElse.No())
	require.Equal(t, []*RegexNode{noElse.Yes(), noElse.Continuation()}, noElse.Condition().Continuation().Successors())

	tooMany := Parse(NewDialectSource(PHP, `(?(1)a|b|c)`), 0).Root
	require.Equal(t, NtDisjunction, tooMany.No().T)
	require.Len(t, tooMany.No().Children, 2)
}

func TestLookAroundStates(t *testing.T) {
	look := parseJava(`(?<!a)`).Root
	require.True(t, look.Behind)
	require.True(t, look.Negated)
	inner := look.Successors()[0]
	require.Equal(t, NtStartOfLookBehind, inner.T)
	require.Equal(t, LookAroundBacktracking, inner.Transition())
	negation := inner.Successors()[0]
	require.Equal(t, NtNegation, negation.T)
	require.Equal(t, NegationTransition, negation.Transition())
	require.Same(t, look.Element(), negation.Successors()[0])
	end := look.Element().Continuation()
	require.Equal(t, NtEndOfLookAround, end.T)
	require.Same(t, look.Continuation(), end.Continuation())

	ahead := parseJava(`(?=a)`).Root
	require.Same(t, ahead.Element(), ahead.Successors()[0])
}
