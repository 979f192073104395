package helpers

import "unicode"

func IsBetween(val rune, first, last rune) bool {
	if val > last {
		return false
	}
	if val >= first {
		return true
	}
	return false
}

// IsAsciiDigit accepts an int so that the lexer's EOF sentinel can be passed
// through unchanged.
func IsAsciiDigit(ch int) bool {
	return ch >= '0' && ch <= '9'
}

func IsOctalDigit(ch int) bool {
	return ch >= '0' && ch <= '7'
}

func IsHexDigit(ch int) bool {
	return IsAsciiDigit(ch) || IsBetween(rune(ch), 'a', 'f') || IsBetween(rune(ch), 'A', 'F')
}

// HexValue returns the value of a hexadecimal digit, or -1.
func HexValue(ch rune) int {
	switch {
	case IsBetween(ch, '0', '9'):
		return int(ch - '0')
	case IsBetween(ch, 'a', 'f'):
		return int(ch-'a') + 10
	case IsBetween(ch, 'A', 'F'):
		return int(ch-'A') + 10
	}
	return -1
}

// According to UTS#18 Unicode Regular Expressions (http://www.unicode.org/reports/tr18/)
// RL 1.4 Simple Word Boundaries  The class of <word_character> includes all Alphabetic
// values from the Unicode character database, from UnicodeData.txt [UData], plus the U+200C
// ZERO WIDTH NON-JOINER and U+200D ZERO WIDTH JOINER.
func IsWordChar(r rune) bool {
	//"L", "Mn", "Nd", "Pc"
	return unicode.In(r, WordCategories...) || r == '\u200D' || r == '\u200C'
}

// WordCategories are the Unicode categories making up a word character.
var WordCategories = []*unicode.RangeTable{
	unicode.Categories["L"], unicode.Categories["Mn"],
	unicode.Categories["Nd"], unicode.Categories["Pc"],
}

// IsHorizontalWhitespace matches the \h class.
func IsHorizontalWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\u00A0', '\u1680', '\u180E', '\u202F', '\u205F', '\u3000':
		return true
	}
	return IsBetween(r, '\u2000', '\u200A')
}

// IsVerticalWhitespace matches the \v class.
func IsVerticalWhitespace(r rune) bool {
	switch r {
	case '\n', '\x0B', '\f', '\r', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
