package syntax

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

func charSetFor(t *testing.T, p string, opt RegexOptions) *CharSet {
	t.Helper()
	tree := Parse(NewSource(p, Java.Features()), opt)
	require.False(t, tree.HasSyntaxErrors(), "syntax errors in %s: %v", p, tree.Errors)
	set := CharSetOf(tree.Root)
	require.NotNil(t, set, "no character set for %s", p)
	return set
}

func TestCharSetString(t *testing.T) {
	scenarios := []struct {
		p   string
		opt RegexOptions
		set string
	}{
		{`a`, 0, "[a]"},
		{`[abc]`, 0, "[a-c]"},
		{`[ab]`, 0, "[ab]"},
		{`[a-cx-z]`, 0, "[a-cx-z]"},
		{`[c-ea-d]`, 0, "[a-e]"},
		{`[a-z&&[^aeiou]]`, 0, "[b-df-hj-np-tv-z]"},
		{`a`, CaseInsensitive, "[Aa]"},
		{`[a-c]`, CaseInsensitive, "[A-Ca-c]"},
		{`\d`, 0, "[0-9]"},
		{`\w`, 0, "[0-9A-Z_a-z]"},
		{`\s`, 0, "[U+0009-U+000D ]"},
		{`\x{1}`, 0, "[U+0001]"},
		{`[\\]`, 0, "[\\\\]"},
		{`\p{IsLatin}`, 0, ""},
		{`\p{unknownProperty}`, 0, "[?]"},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			set := charSetFor(t, s.p, s.opt)
			if s.set == "" {
				require.False(t, set.IsUnknown())
				return
			}
			require.Equal(t, s.set, set.String())
		})
	}
}

func TestCharSetOfNonCharacterStates(t *testing.T) {
	for _, p := range []string{`ab`, `a*`, `(a)`, `\1`, `^`, `\R`, `(?=a)`} {
		t.Run(p, func(t *testing.T) {
			tree := Parse(NewSource(p, Java.Features()), 0)
			require.Nil(t, CharSetOf(tree.Root))
		})
	}
	tree := Parse(NewSource("a", Java.Features()), 0)
	require.Nil(t, CharSetOf(tree.Start))
	require.Nil(t, CharSetOf(tree.Final))
}

func TestCharSetDot(t *testing.T) {
	dot := charSetFor(t, `.`, 0)
	require.False(t, dot.Contains('\n'))
	require.False(t, dot.Contains('\r'))
	require.False(t, dot.Contains('\u2028'))
	require.True(t, dot.Contains('a'))
	require.False(t, dot.MatchesAnyCharacter())

	unix := charSetFor(t, `.`, UnixLines)
	require.False(t, unix.Contains('\n'))
	require.True(t, unix.Contains('\r'))

	all := charSetFor(t, `.`, DotAll)
	require.True(t, all.MatchesAnyCharacter())
	require.True(t, charSetFor(t, `[\s\S]`, 0).MatchesAnyCharacter())
}

func TestCharSetIntersects(t *testing.T) {
	scenarios := []struct {
		a, b string
		want bool
	}{
		{`a`, `a`, true},
		{`a`, `b`, false},
		{`[a-z]`, `[0-9]`, false},
		{`\w`, `\d`, true},
		{`\w`, `\s`, false},
		{`\W`, `\w`, false},
		{`.`, `\n`, false},
		{`[^a]`, `a`, false},
		{`\p{Lu}`, `A`, true},
		{`\p{Lu}`, `a`, false},
		{`\p{Greek}`, `\x{3B1}`, true},
		{`\p{Alpha}`, `5`, false},
		{`[[:alpha:]]`, `x`, false},
	}

	for _, s := range scenarios {
		t.Run(s.a+" "+s.b, func(t *testing.T) {
			a, b := charSetFor(t, s.a, 0), charSetFor(t, s.b, 0)
			require.Equal(t, s.want, a.Intersects(b, !s.want))
			require.Equal(t, s.want, b.Intersects(a, !s.want))
		})
	}
}

func TestCharSetUnknownUsesDefault(t *testing.T) {
	unknown := charSetFor(t, `\p{NoSuchProperty}`, 0)
	require.True(t, unknown.IsUnknown())

	other := charSetFor(t, `a`, 0)
	require.True(t, unknown.Intersects(other, true))
	require.False(t, unknown.Intersects(other, false))
	require.True(t, unknown.SupersetOf(other, true))
	require.False(t, unknown.SupersetOf(other, false))
	require.True(t, other.SupersetOf(unknown, true))
	require.False(t, other.SupersetOf(unknown, false))

	negated := charSetFor(t, `\P{NoSuchProperty}`, 0)
	require.True(t, negated.IsUnknown())
	require.False(t, negated.Contains('a'))

	// a known overlap wins over the default
	mixed := charSetFor(t, `[a\p{NoSuchProperty}]`, 0)
	require.True(t, mixed.Intersects(other, false))
	require.True(t, mixed.SupersetOf(other, false))
}

func TestCharSetSupersetOf(t *testing.T) {
	scenarios := []struct {
		a, b string
		want bool
	}{
		{`\w`, `\d`, true},
		{`\d`, `\w`, false},
		{`.`, `a`, true},
		{`[a-z]`, `[b-y]`, true},
		{`[a-z]`, `[a-z0]`, false},
		{`[a-c]`, `[ac]`, true},
		{`[^0-9]`, `\D`, true},
		{`\p{L}`, `\p{Lu}`, true},
	}

	for _, s := range scenarios {
		t.Run(s.a+" "+s.b, func(t *testing.T) {
			a, b := charSetFor(t, s.a, 0), charSetFor(t, s.b, 0)
			require.Equal(t, s.want, a.SupersetOf(b, !s.want))
		})
	}
}

func TestCharSetCaseFolding(t *testing.T) {
	ascii := charSetFor(t, `\x{3B1}`, CaseInsensitive)
	require.False(t, ascii.Contains('\u0391'))

	folded := charSetFor(t, `\x{3B1}`, CaseInsensitive|UnicodeCase)
	require.True(t, folded.Contains('\u0391'))

	kelvin := charSetFor(t, `k`, CaseInsensitive|UnicodeCase)
	require.True(t, kelvin.Contains('K'))
	require.True(t, kelvin.Contains('\u212A'))

	// flags switched on inside the pattern apply to the character
	tree := Parse(NewSource(`(?i)a`, Java.Features()), 0)
	require.True(t, CharSetOf(tree.Root.Children[1]).Contains('A'))
}

func TestCharSetUnicodeCharacterClass(t *testing.T) {
	digits := charSetFor(t, `\d`, UnicodeCharacterClass)
	require.True(t, digits.Contains('\u0663'))
	require.False(t, charSetFor(t, `\d`, 0).Contains('\u0663'))

	word := charSetFor(t, `\w`, UnicodeCharacterClass)
	require.True(t, word.Contains('\u00E9'))
	require.True(t, word.Contains('_'))
}

func TestCharSetPosixClasses(t *testing.T) {
	scenarios := []struct {
		p       string
		in, out rune
	}{
		{`[[:alpha:]]`, 'q', '1'},
		{`[[:digit:]]`, '7', 'a'},
		{`[[:xdigit:]]`, 'F', 'G'},
		{`[[:^digit:]]`, 'a', '7'},
		{`[[:space:]]`, '\t', 'x'},
		{`[[:word:]]`, '_', '-'},
		{`[[:punct:]]`, '!', 'a'},
	}

	for _, s := range scenarios {
		t.Run(s.p, func(t *testing.T) {
			tree := Parse(NewDialectSource(PHP, s.p), 0)
			require.False(t, tree.HasSyntaxErrors())
			set := CharSetOf(tree.Root)
			require.True(t, set.Contains(s.in))
			require.False(t, set.Contains(s.out))
		})
	}
}

func TestAddRangeMerges(t *testing.T) {
	set := NewCharSet()
	set.addRange('d', 'f')
	set.addRange('a', 'b')
	set.addRange('x', 'z')
	set.addChar('c')
	require.Equal(t, "[a-fx-z]", set.String())

	set.addRange('e', 'y')
	require.Equal(t, "[a-z]", set.String())

	set.negate()
	require.True(t, set.Contains(0))
	require.False(t, set.Contains('m'))
	require.True(t, set.Contains(unicode.MaxRune))
}

func TestTableRanges(t *testing.T) {
	ranges := tableRanges(unicode.Lu)
	set := &CharSet{ranges: ranges}
	for _, ch := range []rune{'A', 'Z', '\u0100', '\u0391'} {
		require.True(t, set.Contains(ch), "%U", ch)
	}
	for _, ch := range []rune{'a', '\u0101', '1'} {
		require.False(t, set.Contains(ch), "%U", ch)
	}
}
