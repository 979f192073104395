package syntax

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/dlclark/regexcheck/helpers"
)

// CharSet approximates the characters a single-character matcher accepts.
// Ranges are sorted and merged. Unknown is set when the matcher may accept
// characters that could not be resolved, e.g. an unsupported \p{..}
// property, in which case answers involving the set fall back to a default.
type CharSet struct {
	ranges  []singleRange
	unknown bool
}

type singleRange struct {
	first rune
	last  rune
}

// folding more characters than this is not worth it; ranges that large
// contain both cases anyway
const maxFoldedRange = 0x400

var (
	lineTerminators   = []singleRange{{'\n', '\n'}, {'\r', '\r'}, {0x85, 0x85}, {0x2028, 0x2029}}
	digitRanges       = []singleRange{{'0', '9'}}
	wordRanges        = []singleRange{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
	spaceRanges       = []singleRange{{'\t', '\r'}, {' ', ' '}}
	horizontalRanges  = []singleRange{{'\t', '\t'}, {' ', ' '}, {0xA0, 0xA0}, {0x1680, 0x1680}, {0x180E, 0x180E}, {0x2000, 0x200A}, {0x202F, 0x202F}, {0x205F, 0x205F}, {0x3000, 0x3000}}
	verticalRanges    = []singleRange{{'\n', '\r'}, {0x85, 0x85}, {0x2028, 0x2029}}
	asciiLowerRanges  = []singleRange{{'a', 'z'}}
	asciiUpperRanges  = []singleRange{{'A', 'Z'}}
	asciiAlphaRanges  = []singleRange{{'A', 'Z'}, {'a', 'z'}}
	asciiAlnumRanges  = []singleRange{{'0', '9'}, {'A', 'Z'}, {'a', 'z'}}
	asciiPunctRanges  = []singleRange{{'!', '/'}, {':', '@'}, {'[', '`'}, {'{', '~'}}
	asciiGraphRanges  = []singleRange{{'!', '~'}}
	asciiPrintRanges  = []singleRange{{' ', '~'}}
	asciiBlankRanges  = []singleRange{{'\t', '\t'}, {' ', ' '}}
	asciiCntrlRanges  = []singleRange{{0, 0x1F}, {0x7F, 0x7F}}
	asciiXDigitRanges = []singleRange{{'0', '9'}, {'A', 'F'}, {'a', 'f'}}
	asciiRanges       = []singleRange{{0, 0x7F}}
	allRanges         = []singleRange{{0, unicode.MaxRune}}
)

// NewCharSet returns an empty set.
func NewCharSet() *CharSet {
	return &CharSet{}
}

// AnyCharSet returns the set of every character.
func AnyCharSet() *CharSet {
	return &CharSet{ranges: slices.Clone(allRanges)}
}

func (c *CharSet) addChar(ch rune) {
	c.addRange(ch, ch)
}

// addRange inserts [first, last], keeping the ranges sorted and merged.
func (c *CharSet) addRange(first, last rune) {
	if first > last {
		return
	}
	i, _ := slices.BinarySearchFunc(c.ranges, first, func(r singleRange, ch rune) int {
		return int(r.last) + 1 - int(ch)
	})
	// i is the first range that ends at or after first-1
	j := i
	for j < len(c.ranges) && int(c.ranges[j].first) <= int(last)+1 {
		first = min(first, c.ranges[j].first)
		last = max(last, c.ranges[j].last)
		j++
	}
	c.ranges = slices.Replace(c.ranges, i, j, singleRange{first, last})
}

func (c *CharSet) addRanges(ranges []singleRange) {
	for _, r := range ranges {
		c.addRange(r.first, r.last)
	}
}

func (c *CharSet) addSet(other *CharSet) {
	c.addRanges(other.ranges)
	c.unknown = c.unknown || other.unknown
}

func (c *CharSet) addTable(t *unicode.RangeTable) {
	c.addRanges(tableRanges(t))
}

func (c *CharSet) addNegatedRanges(ranges []singleRange) {
	neg := &CharSet{}
	neg.addRanges(ranges)
	neg.negate()
	c.addSet(neg)
}

// negate replaces the set with its complement. The complement of a set with
// unresolved characters is unknown altogether.
func (c *CharSet) negate() {
	if c.unknown {
		c.ranges = nil
		return
	}
	var out []singleRange
	next := rune(0)
	for _, r := range c.ranges {
		if r.first > next {
			out = append(out, singleRange{next, r.first - 1})
		}
		next = r.last + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, singleRange{next, unicode.MaxRune})
	}
	c.ranges = out
}

func (c *CharSet) intersect(other *CharSet) {
	var out []singleRange
	i, j := 0, 0
	for i < len(c.ranges) && j < len(other.ranges) {
		a, b := c.ranges[i], other.ranges[j]
		if lo, hi := max(a.first, b.first), min(a.last, b.last); lo <= hi {
			out = append(out, singleRange{lo, hi})
		}
		if a.last < b.last {
			i++
		} else {
			j++
		}
	}
	c.ranges = out
	c.unknown = c.unknown || other.unknown
}

// addCaseFolded adds [first, last] together with the other cases of its
// characters. Without unicodeCase only ASCII letters are folded.
func (c *CharSet) addCaseFolded(first, last rune, unicodeCase bool) {
	c.addRange(first, last)
	if !unicodeCase {
		if lo, hi := max(first, 'a'), min(last, 'z'); lo <= hi {
			c.addRange(lo-'a'+'A', hi-'a'+'A')
		}
		if lo, hi := max(first, 'A'), min(last, 'Z'); lo <= hi {
			c.addRange(lo-'A'+'a', hi-'A'+'a')
		}
		return
	}
	if last-first > maxFoldedRange {
		return
	}
	for ch := first; ch <= last; ch++ {
		for f := unicode.SimpleFold(ch); f != ch; f = unicode.SimpleFold(f) {
			c.addChar(f)
		}
	}
}

func (c *CharSet) IsEmpty() bool {
	return len(c.ranges) == 0 && !c.unknown
}

// IsUnknown reports whether the set holds characters that could not be
// resolved.
func (c *CharSet) IsUnknown() bool {
	return c.unknown
}

// MatchesAnyCharacter reports whether every character is in the set.
func (c *CharSet) MatchesAnyCharacter() bool {
	return len(c.ranges) == 1 && c.ranges[0] == allRanges[0]
}

func (c *CharSet) Contains(ch rune) bool {
	_, found := slices.BinarySearchFunc(c.ranges, ch, func(r singleRange, ch rune) int {
		if r.last < ch {
			return -1
		}
		if r.first > ch {
			return 1
		}
		return 0
	})
	return found
}

// Intersects reports whether some character is in both sets. When that
// cannot be decided because of unresolved characters, def is returned.
func (c *CharSet) Intersects(other *CharSet, def bool) bool {
	i, j := 0, 0
	for i < len(c.ranges) && j < len(other.ranges) {
		a, b := c.ranges[i], other.ranges[j]
		if max(a.first, b.first) <= min(a.last, b.last) {
			return true
		}
		if a.last < b.last {
			i++
		} else {
			j++
		}
	}
	if c.unknown || other.unknown {
		return def
	}
	return false
}

// SupersetOf reports whether every character of other is in c. When that
// cannot be decided because of unresolved characters, def is returned.
func (c *CharSet) SupersetOf(other *CharSet, def bool) bool {
	if other.unknown || c.unknown {
		if !other.unknown && c.coversAll(other.ranges) {
			return true
		}
		return def
	}
	return c.coversAll(other.ranges)
}

func (c *CharSet) coversAll(ranges []singleRange) bool {
	i := 0
	for _, r := range ranges {
		for i < len(c.ranges) && c.ranges[i].last < r.first {
			i++
		}
		if i == len(c.ranges) || c.ranges[i].first > r.first || c.ranges[i].last < r.last {
			return false
		}
	}
	return true
}

func (c *CharSet) String() string {
	buf := &bytes.Buffer{}
	buf.WriteRune('[')
	for _, r := range c.ranges {
		buf.WriteString(CharDescription(r.first))
		if r.first != r.last {
			if r.last != r.first+1 {
				buf.WriteRune('-')
			}
			buf.WriteString(CharDescription(r.last))
		}
	}
	if c.unknown {
		buf.WriteString("?")
	}
	buf.WriteRune(']')
	return buf.String()
}

// CharSetOf returns the characters matched by a state that consumes exactly
// one character, or nil for any other state.
func CharSetOf(n *RegexNode) *CharSet {
	switch n.T {
	case NtCharacter, NtEscapedClass, NtCharacterClass:
		set := NewCharSet()
		set.AddNode(n)
		return set
	case NtDot:
		if n.Options.Contains(DotAll) {
			return AnyCharSet()
		}
		set := NewCharSet()
		if n.Options.Contains(UnixLines) {
			set.addNegatedRanges([]singleRange{{'\n', '\n'}})
		} else {
			set.addNegatedRanges(lineTerminators)
		}
		return set
	}
	return nil
}

// AddNode adds the characters matched by a character, dot, escaped class,
// character class or class element.
func (c *CharSet) AddNode(n *RegexNode) {
	fold := n.Options.Contains(CaseInsensitive)
	unicodeCase := n.Options.Contains(UnicodeCase)
	switch n.T {
	case NtCharacter:
		if fold {
			c.addCaseFolded(n.Ch, n.Ch, unicodeCase)
		} else {
			c.addChar(n.Ch)
		}
	case NtClassRange:
		if fold {
			c.addCaseFolded(n.Low().Ch, n.High().Ch, unicodeCase)
		} else {
			c.addRange(n.Low().Ch, n.High().Ch)
		}
	case NtClassUnion:
		for _, child := range n.Children {
			c.AddNode(child)
		}
	case NtClassIntersection:
		var acc *CharSet
		for _, child := range n.Children {
			set := NewCharSet()
			set.AddNode(child)
			if acc == nil {
				acc = set
			} else {
				acc.intersect(set)
			}
		}
		if acc != nil {
			c.addSet(acc)
		}
	case NtCharacterClass:
		set := NewCharSet()
		set.AddNode(n.Element())
		if n.Negated {
			set.negate()
		}
		c.addSet(set)
	case NtEscapedClass:
		c.addEscapedClass(n)
	case NtDot:
		c.addSet(CharSetOf(n))
	case NtPosixClass:
		set := posixClassSet(n.Str)
		if n.Negated {
			set.negate()
		}
		c.addSet(set)
	default:
		c.unknown = true
	}
}

func (c *CharSet) addEscapedClass(n *RegexNode) {
	unicodeClass := n.Options.Contains(UnicodeCharacterClass)
	set := NewCharSet()
	switch unicode.ToLower(n.Ch) {
	case 'd':
		if unicodeClass {
			set.addTable(unicode.Nd)
		} else {
			set.addRanges(digitRanges)
		}
	case 'w':
		if unicodeClass {
			for _, t := range helpers.WordCategories {
				set.addTable(t)
			}
			set.addRange(0x200C, 0x200D)
		} else {
			set.addRanges(wordRanges)
		}
	case 's':
		if unicodeClass {
			set.addTable(unicode.White_Space)
		} else {
			set.addRanges(spaceRanges)
		}
	case 'h':
		set.addRanges(horizontalRanges)
	case 'v':
		set.addRanges(verticalRanges)
	case 'p':
		set = propertySet(n.Str, unicodeClass)
		if n.Options.Contains(CaseInsensitive) && !set.unknown {
			folded := NewCharSet()
			for _, r := range set.ranges {
				folded.addCaseFolded(r.first, r.last, n.Options.Contains(UnicodeCase))
			}
			set = folded
		}
	default:
		set.unknown = true
	}
	if n.Negated {
		set.negate()
	}
	c.addSet(set)
}

// propertySet resolves the name inside \p{..}: general categories, scripts,
// binary properties and the java.util.regex POSIX names.
func propertySet(name string, unicodeClass bool) *CharSet {
	set := NewCharSet()
	prop := name
	for _, prefix := range []string{"general_category=", "gc=", "script=", "sc=", "Is"} {
		if len(prop) > len(prefix) && strings.EqualFold(prop[:len(prefix)], prefix) {
			prop = prop[len(prefix):]
			break
		}
	}
	if t, ok := unicode.Categories[prop]; ok {
		set.addTable(t)
		return set
	}
	if ranges, ok := javaPosixRanges(prop, unicodeClass); ok {
		set.addRanges(ranges)
		return set
	}
	for tableName, t := range unicode.Scripts {
		if strings.EqualFold(tableName, prop) {
			set.addTable(t)
			return set
		}
	}
	for tableName, t := range unicode.Properties {
		if strings.EqualFold(tableName, prop) {
			set.addTable(t)
			return set
		}
	}
	switch strings.ToLower(prop) {
	case "alphabetic", "letter":
		set.addTable(unicode.L)
		set.addTable(unicode.Nl)
		set.addTable(unicode.Other_Alphabetic)
		return set
	case "l&", "lc":
		set.addTable(unicode.Lu)
		set.addTable(unicode.Ll)
		set.addTable(unicode.Lt)
		return set
	case "any", "all":
		set.addRanges(allRanges)
		return set
	}
	set.unknown = true
	return set
}

func javaPosixRanges(name string, unicodeClass bool) ([]singleRange, bool) {
	if unicodeClass {
		switch name {
		case "Lower":
			return tableRanges(unicode.Ll), true
		case "Upper":
			return tableRanges(unicode.Lu), true
		case "Alpha":
			return tableRanges(unicode.L), true
		case "Digit":
			return tableRanges(unicode.Nd), true
		case "Space":
			return tableRanges(unicode.White_Space), true
		}
	}
	switch name {
	case "Lower":
		return asciiLowerRanges, true
	case "Upper":
		return asciiUpperRanges, true
	case "ASCII":
		return asciiRanges, true
	case "Alpha":
		return asciiAlphaRanges, true
	case "Digit":
		return digitRanges, true
	case "Alnum":
		return asciiAlnumRanges, true
	case "Punct":
		return asciiPunctRanges, true
	case "Graph":
		return asciiGraphRanges, true
	case "Print":
		return asciiPrintRanges, true
	case "Blank":
		return asciiBlankRanges, true
	case "Cntrl":
		return asciiCntrlRanges, true
	case "XDigit":
		return asciiXDigitRanges, true
	case "Space":
		return spaceRanges, true
	}
	return nil, false
}

// posixClassSet resolves a [:name:] class. The word boundary classes [:<:]
// and [:>:] match no character and are left unknown.
func posixClassSet(name string) *CharSet {
	set := NewCharSet()
	switch name {
	case "word":
		set.addRanges(wordRanges)
	case "space":
		set.addRanges(spaceRanges)
	default:
		javaName := strings.ToUpper(name[:1]) + name[1:]
		if name == "xdigit" {
			javaName = "XDigit"
		} else if name == "ascii" {
			javaName = "ASCII"
		}
		ranges, ok := javaPosixRanges(javaName, false)
		if !ok {
			set.unknown = true
		}
		set.addRanges(ranges)
	}
	return set
}

var tableCache sync.Map

// tableRanges flattens a unicode table into ranges. Results are cached per
// table.
func tableRanges(t *unicode.RangeTable) []singleRange {
	if cached, ok := tableCache.Load(t); ok {
		return cached.([]singleRange)
	}
	set := NewCharSet()
	for _, r := range t.R16 {
		addStrided(set, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	for _, r := range t.R32 {
		addStrided(set, rune(r.Lo), rune(r.Hi), rune(r.Stride))
	}
	tableCache.Store(t, set.ranges)
	return set.ranges
}

func addStrided(set *CharSet, lo, hi, stride rune) {
	if stride == 1 {
		set.addRange(lo, hi)
		return
	}
	for ch := lo; ch <= hi; ch += stride {
		set.addChar(ch)
	}
}

// CharDescription produces a human-readable description for a single
// character.
func CharDescription(ch rune) string {
	if ch == '\\' {
		return "\\\\"
	}

	if ch >= ' ' && ch <= '~' {
		return string(ch)
	}

	return fmt.Sprintf("%U", ch)
}
