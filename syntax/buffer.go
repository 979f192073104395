package syntax

import "fmt"

const bufferResizeFactor = 2

// characterBuffer is a grow-only ring buffer holding the lexer's lookahead.
type characterBuffer struct {
	contents   []SourceCharacter
	startIndex int
	size       int
}

func newCharacterBuffer(initialCapacity int) *characterBuffer {
	return &characterBuffer{contents: make([]SourceCharacter, initialCapacity)}
}

func (b *characterBuffer) get(index int) SourceCharacter {
	if index >= b.size {
		panic(fmt.Sprintf("Invalid index %d for buffer of size %d.", index, b.size))
	}
	return b.contents[(b.startIndex+index)%len(b.contents)]
}

func (b *characterBuffer) add(ch SourceCharacter) {
	if b.size+1 == len(b.contents) {
		b.resize(len(b.contents) * bufferResizeFactor)
	}
	b.contents[(b.startIndex+b.size)%len(b.contents)] = ch
	b.size++
}

func (b *characterBuffer) removeFirst() {
	if b.size == 0 {
		panic("Trying to delete from empty buffer.")
	}
	b.startIndex++
	if b.startIndex == len(b.contents) {
		b.startIndex = 0
	}
	b.size--
}

func (b *characterBuffer) isEmpty() bool {
	return b.size == 0
}

func (b *characterBuffer) len() int {
	return b.size
}

func (b *characterBuffer) resize(newCapacity int) {
	newContents := make([]SourceCharacter, newCapacity)
	n := copy(newContents, b.contents[b.startIndex:])
	copy(newContents[n:], b.contents[:b.startIndex])
	b.contents = newContents
	b.startIndex = 0
}
