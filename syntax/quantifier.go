package syntax

import "strconv"

type QuantifierModifier int

const (
	Greedy QuantifierModifier = iota
	Reluctant
	Possessive
)

type QuantifierKind int

const (
	Star QuantifierKind = iota
	Plus
	QuestionMark
	CurlyBrace
)

// Quantifier is the repetition operator following an element. Max is -1 for
// unbounded repetitions.
type Quantifier struct {
	source   *Source
	rng      IndexRange
	Min      int
	Max      int
	Modifier QuantifierModifier
	Kind     QuantifierKind

	// tokens of a curly brace quantifier; Comma and MaxToken may be nil
	MinToken *Token
	Comma    *Token
	MaxToken *Token
}

func newSimpleQuantifier(s *Source, r IndexRange, mod QuantifierModifier, kind QuantifierKind) *Quantifier {
	q := &Quantifier{source: s, rng: r, Modifier: mod, Kind: kind, Max: -1}
	switch kind {
	case Plus:
		q.Min = 1
	case QuestionMark:
		q.Max = 1
	}
	return q
}

func newCurlyBraceQuantifier(s *Source, r IndexRange, mod QuantifierModifier, minTok, comma, maxTok *Token) *Quantifier {
	q := &Quantifier{source: s, rng: r, Modifier: mod, Kind: CurlyBrace, MinToken: minTok, Comma: comma, MaxToken: maxTok, Max: -1}
	if minTok != nil {
		q.Min = atoiSaturated(minTok.Text())
	}
	if comma == nil {
		q.Max = q.Min
	} else if maxTok != nil {
		q.Max = atoiSaturated(maxTok.Text())
	}
	return q
}

// atoiSaturated parses a run of ASCII digits, clamping values that overflow.
func atoiSaturated(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return int(^uint32(0) >> 1)
	}
	return n
}

func (q *Quantifier) Range() IndexRange { return q.rng }

func (q *Quantifier) Text() string { return q.source.Substring(q.rng) }

func (q *Quantifier) IsOpenEnded() bool {
	return q.Max < 0
}

// IsFixed reports whether the quantifier always repeats the same number of
// times, as in x{3} or x{2,2}.
func (q *Quantifier) IsFixed() bool {
	return q.Max >= 0 && q.Min == q.Max
}

func (q *Quantifier) String() string {
	var s string
	switch q.Kind {
	case Star:
		s = "*"
	case Plus:
		s = "+"
	case QuestionMark:
		s = "?"
	default:
		s = "{" + strconv.Itoa(q.Min)
		if q.Comma != nil {
			s += ","
			if q.Max >= 0 {
				s += strconv.Itoa(q.Max)
			}
		}
		s += "}"
	}
	switch q.Modifier {
	case Reluctant:
		s += "?"
	case Possessive:
		s += "+"
	}
	return s
}
