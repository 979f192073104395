package syntax

import (
	"fmt"

	"github.com/dlclark/regexcheck/runecacher"
)

// IndexRange is a half-open [Start, End) range of rune offsets into the
// source text of a pattern.
type IndexRange struct {
	Start int
	End   int
}

// InaccessibleRange is returned when no range applies.
var InaccessibleRange = IndexRange{-1, -1}

func (r IndexRange) Merge(other IndexRange) IndexRange {
	return IndexRange{min(r.Start, other.Start), max(r.End, other.End)}
}

func (r IndexRange) ExtendTo(end int) IndexRange {
	return IndexRange{r.Start, end}
}

// Contains reports whether other lies entirely within r.
func (r IndexRange) Contains(other IndexRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

func (r IndexRange) IsEmpty() bool {
	return r.Start == r.End
}

func (r IndexRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// SyntaxElement is anything that covers a part of the pattern text.
type SyntaxElement interface {
	Range() IndexRange
	Text() string
}

// SourceCharacter is a single decoded character of a pattern along with the
// source range it was read from. Ch may hold a lone UTF-16 surrogate when a
// host language escape produced one.
type SourceCharacter struct {
	source   *Source
	rng      IndexRange
	Ch       rune
	IsEscape bool
}

func newSourceCharacter(s *Source, r IndexRange, ch rune, escape bool) SourceCharacter {
	return SourceCharacter{source: s, rng: r, Ch: ch, IsEscape: escape}
}

func (c SourceCharacter) Range() IndexRange { return c.rng }

func (c SourceCharacter) Text() string { return c.source.Substring(c.rng) }

// Token is an arbitrary run of source text, e.g. the digits of a quantifier
// or an "&&" operator.
type Token struct {
	source *Source
	rng    IndexRange
}

func (t Token) Range() IndexRange { return t.rng }

func (t Token) Text() string { return t.source.Substring(t.rng) }

// Source is the text of a pattern together with the dialect it is written
// in. The dialect decides both how characters are decoded from the text and
// which grammar features are available.
type Source struct {
	text     *runecacher.RuneCacher
	dialect  Dialect
	features Feature
	newChars func(*Source) characterParser
}

// NewSource creates a source that reads the text one character per rune,
// with the given feature set.
func NewSource(text string, features Feature) *Source {
	return &Source{
		text:     runecacher.NewFromString(text),
		dialect:  Plain,
		features: features,
		newChars: newPlainParser,
	}
}

// NewJavaSource creates a source from the contents of a Java string
// literal, i.e. with Java escape sequences still in place.
func NewJavaSource(literal string) *Source {
	return &Source{
		text:     runecacher.NewFromString(literal),
		dialect:  Java,
		features: Java.Features(),
		newChars: newJavaParser,
	}
}

// NewPythonSource creates a source from a Python raw string literal.
func NewPythonSource(text string) *Source {
	s := NewSource(text, Python.Features())
	s.dialect = Python
	return s
}

// NewDialectSource creates a source for the given dialect. PHP text is
// treated as the contents of a double-quoted string.
func NewDialectSource(d Dialect, text string) *Source {
	switch d {
	case Java:
		return NewJavaSource(text)
	case PHP:
		return NewPhpSource(text, '"')
	case Python:
		return NewPythonSource(text)
	}
	return NewSource(text, Plain.Features())
}

func (s *Source) Text() string {
	return s.text.String()
}

// Len is the length of the text in runes.
func (s *Source) Len() int {
	return s.text.Len()
}

// Substring returns the text covered by r, clamped to the end of the text.
func (s *Source) Substring(r IndexRange) string {
	return s.text.Substring(r.Start, r.End)
}

func (s *Source) Dialect() Dialect {
	return s.dialect
}

func (s *Source) Features() Feature {
	return s.features
}

// Supports reports whether any of the given features is enabled.
func (s *Source) Supports(features ...Feature) bool {
	for _, f := range features {
		if s.features&f != 0 {
			return true
		}
	}
	return false
}

func (s *Source) runeAt(i int) rune {
	return s.text.RuneAt(i)
}

func (s *Source) createLexer() *lexer {
	return newLexer(s, s.newChars(s))
}

// characterParser decodes the host language representation of a pattern
// into pattern characters.
type characterParser interface {
	moveNext()
	// current is only valid when isAtEnd is false
	current() SourceCharacter
	isAtEnd() bool
	resetTo(index int)
}

type plainParser struct {
	source *Source
	index  int
	cur    SourceCharacter
	atEnd  bool
}

func newPlainParser(s *Source) characterParser {
	p := &plainParser{source: s}
	p.moveNext()
	return p
}

func (p *plainParser) moveNext() {
	if p.index >= p.source.Len() {
		p.atEnd = true
		return
	}
	p.cur = newSourceCharacter(p.source, IndexRange{p.index, p.index + 1}, p.source.runeAt(p.index), false)
	p.index++
}

func (p *plainParser) current() SourceCharacter {
	if p.atEnd {
		panic("syntax: no current character at end of input")
	}
	return p.cur
}

func (p *plainParser) isAtEnd() bool {
	return p.atEnd
}

func (p *plainParser) resetTo(index int) {
	p.index = index
	p.atEnd = false
	p.moveNext()
}
