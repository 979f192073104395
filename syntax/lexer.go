package syntax

import "strings"

// EOF is returned by the lexer's character queries at the end of input.
const EOF = -1

// lexer turns the decoded characters of a source into the characters seen
// by the grammar. In free-spacing mode unescaped whitespace and comments are
// skipped; \Q...\E quoting is handled while filling the lookahead buffer so
// the parser never sees the delimiters.
type lexer struct {
	source          *Source
	characters      characterParser
	buffer          *characterBuffer
	freeSpacingMode bool
	escaped         bool
	hasComments     bool
	quotingMode     bool
}

func newLexer(source *Source, characters characterParser) *lexer {
	l := &lexer{
		source:     source,
		characters: characters,
		buffer:     newCharacterBuffer(2),
	}
	l.moveNext()
	return l
}

func (l *lexer) getFreeSpacingMode() bool {
	return l.freeSpacingMode
}

// setFreeSpacingMode switches the mode. Buffered characters were read under
// the old mode, so they are dropped and read again.
func (l *lexer) setFreeSpacingMode(freeSpacingMode bool) {
	if l.freeSpacingMode != freeSpacingMode {
		l.freeSpacingMode = freeSpacingMode
		l.emptyBuffer()
	}
}

func (l *lexer) moveNextBy(amount int) {
	for i := 0; i < amount; i++ {
		l.moveNext()
	}
}

func (l *lexer) moveNext() {
	if !l.buffer.isEmpty() {
		l.buffer.removeFirst()
	}
	if l.buffer.isEmpty() {
		l.fillBuffer(1)
	}
}

func (l *lexer) getCurrent() SourceCharacter {
	l.fillBuffer(1)
	if l.buffer.isEmpty() {
		panic("syntax: no current character at end of input")
	}
	return l.buffer.get(0)
}

// getCurrentChar returns the current character or EOF.
func (l *lexer) getCurrentChar() int {
	if l.isNotAtEnd() {
		return int(l.getCurrent().Ch)
	}
	return EOF
}

// getCurrentIndexRange returns the range of the current character, or a
// one-past-the-end range at the end of input.
func (l *lexer) getCurrentIndexRange() IndexRange {
	if l.isNotAtEnd() {
		return l.getCurrent().Range()
	}
	return IndexRange{l.source.Len(), l.source.Len() + 1}
}

func (l *lexer) getCurrentStartIndex() int {
	if l.isAtEnd() {
		return l.source.Len()
	}
	return l.getCurrent().Range().Start
}

func (l *lexer) isAtEnd() bool {
	l.fillBuffer(1)
	return l.buffer.isEmpty() && l.characters.isAtEnd()
}

func (l *lexer) isNotAtEnd() bool {
	return !l.isAtEnd()
}

func (l *lexer) isInQuotingMode() bool {
	return l.quotingMode
}

func (l *lexer) currentIsChar(ch rune) bool {
	return l.getCurrentChar() == int(ch)
}

// currentIs reports whether the next characters spell str.
func (l *lexer) currentIs(str string) bool {
	runes := []rune(str)
	l.fillBuffer(len(runes))
	if l.buffer.len() < len(runes) {
		return false
	}
	for i, r := range runes {
		if l.buffer.get(i).Ch != r {
			return false
		}
	}
	return true
}

// lookAhead returns the character offset positions after the current one,
// or EOF.
func (l *lexer) lookAhead(offset int) int {
	l.fillBuffer(offset + 1)
	if l.buffer.len() <= offset {
		return EOF
	}
	return int(l.buffer.get(offset).Ch)
}

func (l *lexer) emptyBuffer() {
	if !l.buffer.isEmpty() {
		l.characters.resetTo(l.buffer.get(0).Range().Start)
		l.buffer = newCharacterBuffer(2)
	}
}

func (l *lexer) fillBuffer(size int) {
	l.skipCommentsAndWhiteSpace()
	for l.buffer.len() < size && !l.characters.isAtEnd() {
		ch := l.characters.current()
		l.characters.moveNext()
		if !l.escaped && ch.Ch == '\\' {
			if l.readQuotingDelimiter() {
				l.skipCommentsAndWhiteSpace()
				continue
			}
			l.escaped = !l.quotingMode
		} else {
			l.escaped = false
		}
		l.buffer.add(ch)
		l.skipCommentsAndWhiteSpace()
	}
}

func (l *lexer) readQuotingDelimiter() bool {
	if l.characters.isAtEnd() {
		return false
	}
	ch := l.characters.current().Ch
	if (!l.quotingMode && ch == 'Q') || (l.quotingMode && ch == 'E') {
		l.quotingMode = !l.quotingMode
		l.characters.moveNext()
		return true
	}
	return false
}

func (l *lexer) skipCommentsAndWhiteSpace() {
	if !l.freeSpacingMode {
		return
	}
	for !l.characters.isAtEnd() && l.isSkippable(l.characters.current().Ch) {
		if l.characters.current().Ch == '#' {
			l.hasComments = true
			for !l.characters.isAtEnd() && l.characters.current().Ch != '\n' {
				l.characters.moveNext()
			}
		} else {
			l.characters.moveNext()
		}
	}
}

// freeSpacingWhitespace is what (?x) skips. Other Unicode spaces stay literal.
const freeSpacingWhitespace = " \t\n\x0B\f\r"

func (l *lexer) isSkippable(ch rune) bool {
	return !l.quotingMode && !l.escaped && (strings.ContainsRune(freeSpacingWhitespace, ch) || ch == '#')
}
