package syntax

import "github.com/dlclark/regexcheck/helpers"

// javaUnicodeParser resolves \uXXXX escapes, which Java processes before
// any other escape sequence.
type javaUnicodeParser struct {
	source     *Source
	index      int
	cur        SourceCharacter
	atEnd      bool
	isEscaping bool
}

func newJavaUnicodeParser(s *Source) *javaUnicodeParser {
	p := &javaUnicodeParser{source: s}
	p.moveNext()
	return p
}

func (p *javaUnicodeParser) resetTo(index int) {
	p.index = index
	p.isEscaping = false
	p.moveNext()
}

func (p *javaUnicodeParser) current() (SourceCharacter, bool) {
	return p.cur, !p.atEnd
}

func (p *javaUnicodeParser) moveNext() {
	textLength := p.source.Len()
	if p.index >= textLength {
		p.atEnd = true
		return
	}
	p.atEnd = false
	startIndex := p.index
	isBackslash := p.source.runeAt(p.index) == '\\'
	if isBackslash && !p.isEscaping {
		if ch, end, ok := p.unicodeEscapeAt(p.index); ok {
			p.index = end
			p.cur = newSourceCharacter(p.source, IndexRange{startIndex, p.index}, ch, true)
			return
		}
	}
	ch := p.source.runeAt(p.index)
	p.index++
	p.isEscaping = isBackslash && !p.isEscaping
	p.cur = newSourceCharacter(p.source, IndexRange{startIndex, p.index}, ch, false)
}

// unicodeEscapeAt decodes \u+XXXX at index, returning the code unit and the
// index after the escape.
func (p *javaUnicodeParser) unicodeEscapeAt(index int) (rune, int, bool) {
	textLength := p.source.Len()
	i := index + 1
	if i >= textLength || p.source.runeAt(i) != 'u' {
		return 0, 0, false
	}
	for i < textLength && p.source.runeAt(i) == 'u' {
		i++
	}
	var value rune
	for n := 0; n < 4; n++ {
		if i >= textLength || !helpers.IsHexDigit(int(p.source.runeAt(i))) {
			return 0, 0, false
		}
		value = value*16 + rune(helpers.HexValue(p.source.runeAt(i)))
		i++
	}
	return value, i, true
}

// javaParser decodes the contents of a Java string literal.
type javaParser struct {
	source  *Source
	unicode *javaUnicodeParser
	cur     SourceCharacter
	atEnd   bool
}

func newJavaParser(s *Source) characterParser {
	p := &javaParser{source: s, unicode: newJavaUnicodeParser(s)}
	p.moveNext()
	return p
}

func (p *javaParser) resetTo(index int) {
	p.unicode.resetTo(index)
	p.moveNext()
}

func (p *javaParser) moveNext() {
	p.cur, p.atEnd = p.parseJavaCharacter()
}

func (p *javaParser) current() SourceCharacter {
	if p.atEnd {
		panic("syntax: no current character at end of input")
	}
	return p.cur
}

func (p *javaParser) isAtEnd() bool {
	return p.atEnd
}

func (p *javaParser) parseJavaCharacter() (SourceCharacter, bool) {
	ch, ok := p.unicode.current()
	if !ok {
		return SourceCharacter{}, true
	}
	if ch.Ch == '\\' {
		return p.parseJavaEscapeSequence(ch), false
	}
	p.unicode.moveNext()
	return ch, false
}

func (p *javaParser) parseJavaEscapeSequence(backslash SourceCharacter) SourceCharacter {
	p.unicode.moveNext()
	sc, ok := p.unicode.current()
	if !ok {
		return backslash
	}
	ch := sc.Ch
	switch ch {
	case 'n':
		ch = '\n'
	case 'r':
		ch = '\r'
	case 'f':
		ch = '\f'
	case 'b':
		ch = '\b'
	case 't':
		ch = '\t'
	default:
		if helpers.IsOctalDigit(int(ch)) {
			ch = 0
			for i := 0; i < 3 && ok && helpers.IsOctalDigit(int(sc.Ch)); i++ {
				newValue := ch*8 + sc.Ch - '0'
				if newValue > 0xFF {
					break
				}
				ch = newValue
				p.unicode.moveNext()
				sc, ok = p.unicode.current()
			}
			endIndex := p.source.Len()
			if ok {
				endIndex = sc.Range().Start
			}
			return newSourceCharacter(p.source, backslash.Range().ExtendTo(endIndex), ch, true)
		}
	}
	p.unicode.moveNext()
	return newSourceCharacter(p.source, backslash.Range().Merge(sc.Range()), ch, true)
}
