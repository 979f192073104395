package runecacher

import (
	"unicode/utf8"
)

const cachePrimeSize = 10

// RuneCacher reads runes from a pattern string on demand and caches the
// results so the lexer can rewind and look ahead cheaply. Offsets are rune
// offsets, which are the unit of every source range.
type RuneCacher struct {
	runes  []rune
	inpStr string

	// start of uncached position in our input, in bytes
	inpUncachedPos int
	// length of the input in bytes
	inpLen int

	// number of runes in the whole input
	runesLen int
}

func NewFromString(str string) *RuneCacher {
	r := &RuneCacher{
		runes:    make([]rune, 0, min(len(str), 64)),
		inpStr:   str,
		inpLen:   len(str),
		runesLen: utf8.RuneCountInString(str),
	}
	// prime cache with some runes
	r.cachedNext(cachePrimeSize)
	return r
}

// Len is the number of runes in the input.
func (r *RuneCacher) Len() int {
	return r.runesLen
}

func (r *RuneCacher) String() string {
	return r.inpStr
}

// RuneAt returns the rune at the given rune offset. It panics if the offset
// is outside of the input.
func (r *RuneCacher) RuneAt(textPos int) rune {
	if textPos < len(r.runes) {
		return r.runes[textPos]
	}
	// not in our cache - populate cache
	want := textPos - len(r.runes) + 1
	r.cachedNext(want)

	return r.runes[textPos]
}

// Substring returns the text between two rune offsets. The end is clamped to
// the length of the input.
func (r *RuneCacher) Substring(start, end int) string {
	end = min(end, r.runesLen)
	if start >= end {
		return ""
	}
	if end > len(r.runes) {
		r.cachedNext(end - len(r.runes))
	}
	return string(r.runes[start:end])
}

func (r *RuneCacher) hasUncached() bool {
	// if we're not passed the end then we have more to cache
	return r.inpUncachedPos < r.inpLen
}

func (r *RuneCacher) cachedNext(count int) {
	for r.hasUncached() && count > 0 {
		newRune, newLen := utf8.DecodeRuneInString(r.inpStr[r.inpUncachedPos:])
		r.runes = append(r.runes, newRune)
		r.inpUncachedPos += newLen
		count--
	}
}
