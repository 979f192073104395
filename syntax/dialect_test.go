package syntax

import "testing"

func TestParseDialect(t *testing.T) {
	scenarios := []struct {
		name string
		want Dialect
	}{
		{"plain", Plain},
		{"Java", Java},
		{"PHP", PHP},
		{"python", Python},
	}
	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			d, err := ParseDialect(s.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := s.want, d; want != got {
				t.Fatalf("wanted %v, got %v", want, got)
			}
		})
	}

	_, err := ParseDialect("perl")
	if err == nil {
		t.Fatal("expected error for unknown dialect")
	}
	if want, got := `unknown dialect "perl"`, err.Error(); want != got {
		t.Fatalf("wanted %q, got %q", want, got)
	}
}

func TestDialectString(t *testing.T) {
	if want, got := "php", PHP.String(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
	if want, got := "Dialect(9)", Dialect(9).String(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
}

func TestDialectFeatures(t *testing.T) {
	if Plain.Features() != Java.Features() {
		t.Fatal("plain patterns should use the java grammar")
	}
	if PHP.Features()&PosixCharacterClass == 0 || Java.Features()&PosixCharacterClass != 0 {
		t.Fatal("posix classes are php only")
	}
	if Python.Features()&UnescapedCurlyBracket == 0 {
		t.Fatal("python allows unescaped curly brackets")
	}
	if Python.Features()&PossessiveQuantifier != 0 {
		t.Fatal("python has no possessive quantifiers")
	}
	if PHP.Features()&NestedCharacterClass != 0 {
		t.Fatal("php has no nested character classes")
	}
}

func TestParseOptions(t *testing.T) {
	if want, got := RegexOptions(CaseInsensitive|Multiline), ParseOptions("imz"); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
	if want, got := RegexOptions(UnixLines|UnicodeCharacterClass), ParseOptions("dU"); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
	if got := ParseOptions(""); got != 0 {
		t.Fatalf("wanted no options, got %v", got)
	}
}

func TestFlagSet(t *testing.T) {
	implied := NewFlagSet(UnicodeCharacterClass)
	if !implied.Contains(UnicodeCase) {
		t.Fatal("U should imply u")
	}
	if want, got := "uU", implied.String(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}

	s := NewSource("is", Java.Features())
	i := newSourceCharacter(s, IndexRange{0, 1}, 'i', false)
	dotAll := newSourceCharacter(s, IndexRange{1, 2}, 's', false)

	base := NewFlagSet(Multiline)
	withI := base.With(CaseInsensitive, i)
	if base.Contains(CaseInsensitive) {
		t.Fatal("With modified its receiver")
	}
	if !withI.Contains(CaseInsensitive) || !withI.Contains(Multiline) {
		t.Fatalf("wanted im, got %v", withI)
	}
	if _, ok := base.CharacterFor(CaseInsensitive); ok {
		t.Fatal("unexpected character for a flag that is not set")
	}
	ch, ok := withI.CharacterFor(CaseInsensitive)
	if !ok {
		t.Fatal("missing character for i")
	}
	if want, got := "i", ch.Text(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}

	both := withI.Union(FlagSet{}.With(DotAll, dotAll))
	if want, got := "ims", both.String(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
	if withI.Contains(DotAll) {
		t.Fatal("Union modified its receiver")
	}

	without := both.Without(FlagSet{}.With(CaseInsensitive, i))
	if want, got := "ms", without.String(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
	if _, ok := without.CharacterFor(CaseInsensitive); ok {
		t.Fatal("Without kept the character of a removed flag")
	}
	if !both.Contains(CaseInsensitive) {
		t.Fatal("Without modified its receiver")
	}

	if !(FlagSet{}).IsEmpty() {
		t.Fatal("zero FlagSet should be empty")
	}
	if want, got := RegexOptions(Multiline|DotAll), without.Mask(); want != got {
		t.Fatalf("wanted %v, got %v", want, got)
	}
}
