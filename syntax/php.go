package syntax

import (
	"errors"
	"strings"
	"unicode"

	"github.com/dlclark/regexcheck/helpers"
	"github.com/dlclark/regexcheck/runecacher"
)

// NewPhpSource creates a source from the contents of a PHP string literal
// delimited by quote (either ' or "). The text must already be stripped of
// its PCRE delimiters, see SplitPhpPattern.
func NewPhpSource(text string, quote rune) *Source {
	s := &Source{
		text:     runecacher.NewFromString(text),
		dialect:  PHP,
		features: PHP.Features(),
	}
	if quote == '\'' {
		s.newChars = newPhpSingleQuotedParser
	} else {
		s.newChars = newPhpDoubleQuotedParser
	}
	return s
}

var errMissingDelimiter = errors.New("missing PCRE delimiter")

// SplitPhpPattern splits a PCRE pattern such as "/a+b/i" into its body and
// its trailing modifiers. Bracket style delimiters like "{a+}" are accepted.
func SplitPhpPattern(pattern string) (body, modifiers string, err error) {
	trimmed := strings.TrimLeftFunc(pattern, unicode.IsSpace)
	if trimmed == "" {
		return "", "", errMissingDelimiter
	}
	open := []rune(trimmed)[0]
	if open == '\\' || unicode.IsLetter(open) || unicode.IsDigit(open) {
		return "", "", errMissingDelimiter
	}
	closing := open
	switch open {
	case '(':
		closing = ')'
	case '[':
		closing = ']'
	case '{':
		closing = '}'
	case '<':
		closing = '>'
	}
	rest := trimmed[len(string(open)):]
	end := strings.LastIndex(rest, string(closing))
	if end < 0 {
		return "", "", errMissingDelimiter
	}
	return rest[:end], rest[end+len(string(closing)):], nil
}

// PhpOptions converts PCRE modifier letters to options. Unknown modifiers
// are ignored.
func PhpOptions(modifiers string) RegexOptions {
	var opts RegexOptions
	for _, ch := range modifiers {
		switch ch {
		case 'i':
			opts |= CaseInsensitive
		case 'm':
			opts |= Multiline
		case 's':
			opts |= DotAll
		case 'u':
			opts |= UnicodeCharacterClass
		case 'x':
			opts |= Comments
		}
	}
	return opts
}

type phpParser struct {
	source       *Source
	index        int
	cur          SourceCharacter
	atEnd        bool
	doubleQuoted bool
}

func newPhpSingleQuotedParser(s *Source) characterParser {
	p := &phpParser{source: s}
	p.moveNext()
	return p
}

func newPhpDoubleQuotedParser(s *Source) characterParser {
	p := &phpParser{source: s, doubleQuoted: true}
	p.moveNext()
	return p
}

func (p *phpParser) resetTo(index int) {
	p.index = index
	p.moveNext()
}

func (p *phpParser) current() SourceCharacter {
	if p.atEnd {
		panic("syntax: no current character at end of input")
	}
	return p.cur
}

func (p *phpParser) isAtEnd() bool {
	return p.atEnd
}

func (p *phpParser) moveNext() {
	if p.index >= p.source.Len() {
		p.atEnd = true
		return
	}
	p.atEnd = false
	start := p.index
	ch := p.source.runeAt(p.index)
	p.index++
	if ch == '\\' && p.index < p.source.Len() {
		if value, ok := p.escape(); ok {
			p.cur = newSourceCharacter(p.source, IndexRange{start, p.index}, value, true)
			return
		}
	}
	p.cur = newSourceCharacter(p.source, IndexRange{start, p.index}, ch, false)
}

// escape decodes the escape sequence after a backslash, advancing past it.
// It returns false when the backslash is literal.
func (p *phpParser) escape() (rune, bool) {
	next := p.source.runeAt(p.index)
	if !p.doubleQuoted {
		if next == '\\' || next == '\'' {
			p.index++
			return next, true
		}
		return 0, false
	}
	switch next {
	case 'n':
		p.index++
		return '\n', true
	case 't':
		p.index++
		return '\t', true
	case 'r':
		p.index++
		return '\r', true
	case 'v':
		p.index++
		return '\v', true
	case 'e':
		p.index++
		return 0x1B, true
	case 'f':
		p.index++
		return '\f', true
	case '\\', '$', '"':
		p.index++
		return next, true
	case 'x':
		return p.hexEscape()
	case 'u':
		return p.unicodeEscape()
	}
	if helpers.IsOctalDigit(int(next)) {
		var value rune
		for i := 0; i < 3 && p.index < p.source.Len() && helpers.IsOctalDigit(int(p.source.runeAt(p.index))); i++ {
			value = value*8 + p.source.runeAt(p.index) - '0'
			p.index++
		}
		return value & 0xFF, true
	}
	return 0, false
}

func (p *phpParser) hexEscape() (rune, bool) {
	i := p.index + 1
	var value rune
	digits := 0
	for digits < 2 && i < p.source.Len() && helpers.IsHexDigit(int(p.source.runeAt(i))) {
		value = value*16 + rune(helpers.HexValue(p.source.runeAt(i)))
		i++
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	p.index = i
	return value, true
}

func (p *phpParser) unicodeEscape() (rune, bool) {
	i := p.index + 1
	if i >= p.source.Len() || p.source.runeAt(i) != '{' {
		return 0, false
	}
	i++
	var value rune
	digits := 0
	for i < p.source.Len() && helpers.IsHexDigit(int(p.source.runeAt(i))) {
		value = value*16 + rune(helpers.HexValue(p.source.runeAt(i)))
		i++
		digits++
	}
	if digits == 0 || i >= p.source.Len() || p.source.runeAt(i) != '}' || value > unicode.MaxRune {
		return 0, false
	}
	p.index = i + 1
	return value, true
}
