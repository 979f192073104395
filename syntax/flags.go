package syntax

import "maps"

// RegexOptions is a bitmask of pattern flags. The values follow
// java.util.regex.Pattern so masks coming from Java call sites can be passed
// through unchanged.
type RegexOptions int32

const (
	UnixLines             RegexOptions = 0x0001 // "d"
	CaseInsensitive                    = 0x0002 // "i"
	Comments                           = 0x0004 // "x"
	Multiline                          = 0x0008 // "m"
	Literal                            = 0x0010
	DotAll                             = 0x0020 // "s"
	UnicodeCase                        = 0x0040 // "u"
	CanonEq                            = 0x0080
	UnicodeCharacterClass              = 0x0100 // "U"
)

var optionLetters = []struct {
	opt    RegexOptions
	letter rune
}{
	{UnixLines, 'd'},
	{CaseInsensitive, 'i'},
	{Comments, 'x'},
	{Multiline, 'm'},
	{DotAll, 's'},
	{UnicodeCase, 'u'},
	{UnicodeCharacterClass, 'U'},
}

// optionForLetter maps an inline flag letter, as in (?i), to its option.
func optionForLetter(ch rune) (RegexOptions, bool) {
	for _, o := range optionLetters {
		if o.letter == ch {
			return o.opt, true
		}
	}
	return 0, false
}

// ParseOptions converts a string of inline flag letters such as "imx" into
// options. Unknown letters are ignored.
func ParseOptions(letters string) RegexOptions {
	var opts RegexOptions
	for _, ch := range letters {
		if opt, ok := optionForLetter(ch); ok {
			opts |= opt
		}
	}
	return opts
}

// FlagSet is the immutable set of options active at some point of a pattern.
// For flags that were turned on inside the pattern it remembers the source
// character that did so.
type FlagSet struct {
	mask  RegexOptions
	chars map[RegexOptions]SourceCharacter
}

// NewFlagSet returns a set holding the given options. UnicodeCharacterClass
// implies UnicodeCase.
func NewFlagSet(opts RegexOptions) FlagSet {
	return FlagSet{mask: implied(opts)}
}

func implied(opts RegexOptions) RegexOptions {
	if opts&UnicodeCharacterClass != 0 {
		opts |= UnicodeCase
	}
	return opts
}

func (f FlagSet) Contains(opt RegexOptions) bool {
	return f.mask&opt != 0
}

func (f FlagSet) Mask() RegexOptions {
	return f.mask
}

func (f FlagSet) IsEmpty() bool {
	return f.mask == 0
}

// CharacterFor returns the character that turned opt on. It is absent when
// the flag came from outside the pattern, so it must not be used to test
// whether the flag is set.
func (f FlagSet) CharacterFor(opt RegexOptions) (SourceCharacter, bool) {
	ch, ok := f.chars[opt]
	return ch, ok
}

// With returns a copy of f with opt added, remembering ch as its origin.
func (f FlagSet) With(opt RegexOptions, ch SourceCharacter) FlagSet {
	chars := maps.Clone(f.chars)
	if chars == nil {
		chars = map[RegexOptions]SourceCharacter{}
	}
	chars[opt] = ch
	return FlagSet{mask: f.mask | implied(opt), chars: chars}
}

// Union returns a copy of f with every flag of other added.
func (f FlagSet) Union(other FlagSet) FlagSet {
	if other.IsEmpty() {
		return f
	}
	chars := maps.Clone(f.chars)
	if chars == nil && len(other.chars) > 0 {
		chars = map[RegexOptions]SourceCharacter{}
	}
	maps.Copy(chars, other.chars)
	return FlagSet{mask: f.mask | other.mask, chars: chars}
}

// Without returns a copy of f with every flag of other removed.
func (f FlagSet) Without(other FlagSet) FlagSet {
	if other.IsEmpty() {
		return f
	}
	chars := maps.Clone(f.chars)
	for opt := range other.chars {
		delete(chars, opt)
	}
	return FlagSet{mask: f.mask &^ other.mask, chars: chars}
}

// String lists the flag letters of the set, e.g. "im".
func (f FlagSet) String() string {
	var buf []rune
	for _, o := range optionLetters {
		if f.mask&o.opt != 0 {
			buf = append(buf, o.letter)
		}
	}
	return string(buf)
}
