package syntax

import (
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/dlclark/regexcheck/helpers"
)

var logger = log.New(os.Stderr, "syntax: ", log.LstdFlags)

// SetLogger replaces the logger used for parser warnings.
func SetLogger(l *log.Logger) {
	logger = l
}

const hexDigit = "hexadecimal digit"

var posixClasses = []string{
	"<", ">", "alnum", "alpha", "ascii", "blank", "cntrl", "digit", "graph",
	"lower", "print", "punct", "space", "upper", "word", "xdigit",
}

// Parser builds a RegexTree from a Source. A Parser is single use.
type Parser struct {
	source          *Source
	characters      *lexer
	activeFlags     FlagSet
	backReferences  []*RegexNode
	capturingGroups map[string]*RegexNode
	capnames        map[string]int
	errors          []*SyntaxError
	groupNumber     int
	used            bool
}

type groupConstructor func(r IndexRange, inner *RegexNode) *RegexNode

// Parse parses source with the given initial options. It never fails: syntax
// errors are recorded in the result, which always holds a complete tree.
func Parse(source *Source, opt RegexOptions) *RegexTree {
	return NewParser(source, NewFlagSet(opt)).Parse()
}

func NewParser(source *Source, initialFlags FlagSet) *Parser {
	p := &Parser{
		source:          source,
		characters:      source.createLexer(),
		activeFlags:     initialFlags,
		capturingGroups: map[string]*RegexNode{},
		groupNumber:     1,
	}
	p.characters.setFreeSpacingMode(initialFlags.Contains(Comments))
	return p
}

// Parse runs the parser. It panics when called a second time.
func (p *Parser) Parse() *RegexTree {
	if p.used {
		panic("syntax: Parser.Parse called more than once")
	}
	p.used = true

	initialFlags := p.activeFlags
	var results []*RegexNode
	for {
		results = append(results, p.parseDisjunction())
		if p.characters.isNotAtEnd() {
			p.error("Unexpected '" + string(p.characters.getCurrent().Ch) + "'")
			p.characters.moveNext()
		}
		if p.characters.isAtEnd() {
			break
		}
	}
	if p.characters.isInQuotingMode() {
		p.expected("'\\E'")
	}
	result := p.combineTrees(results, func(r IndexRange, items []*RegexNode) *RegexNode {
		return newSequence(p.source, r, items, initialFlags)
	})
	// the root spans the whole source, including skipped whitespace,
	// comments, quoting delimiters and unexpected characters at either end
	if whole := (IndexRange{0, p.source.Len()}); result.Range() != whole {
		if result.T == NtSequence {
			result.rng = whole
		} else {
			result = newSequence(p.source, whole, []*RegexNode{result}, initialFlags)
		}
	}
	start := NewStartState(result, initialFlags)
	final := newFinalState(p.activeFlags)
	result.SetContinuation(final)
	for _, ref := range p.backReferences {
		ref.group = p.capturingGroups[ref.Str]
	}

	tree := &RegexTree{
		Root:        result,
		Start:       start,
		Final:       final,
		Errors:      p.errors,
		HasComments: p.characters.hasComments,
		Capnames:    p.capnames,
		Captop:      p.groupNumber,
	}
	for name := range p.capnames {
		tree.Caplist = append(tree.Caplist, name)
	}
	slices.SortFunc(tree.Caplist, func(a, b string) int {
		return p.capnames[a] - p.capnames[b]
	})
	return tree
}

func (p *Parser) parseDisjunction() *RegexNode {
	disjunctionFlags := p.activeFlags
	alternatives := []*RegexNode{p.parseSequence()}
	var ors []SyntaxElement
	for p.characters.currentIsChar('|') {
		ors = append(ors, p.characters.getCurrent())
		p.characters.moveNext()
		alternatives = append(alternatives, p.parseSequence())
	}
	return p.combineTrees(alternatives, func(r IndexRange, items []*RegexNode) *RegexNode {
		return newDisjunction(p.source, r, items, ors, disjunctionFlags)
	})
}

func (p *Parser) parseSequence() *RegexNode {
	sequenceFlags := p.activeFlags
	var elements []*RegexNode
	for element := p.parseRepetition(); element != nil; element = p.parseRepetition() {
		elements = append(elements, element)
	}
	if len(elements) == 0 {
		index := p.characters.getCurrentStartIndex()
		return newSequence(p.source, IndexRange{index, index}, nil, sequenceFlags)
	}
	return p.combineTrees(elements, func(r IndexRange, items []*RegexNode) *RegexNode {
		return newSequence(p.source, r, items, sequenceFlags)
	})
}

func (p *Parser) parseRepetition() *RegexNode {
	repetitionFlags := p.activeFlags
	element := p.parsePrimaryExpression()
	if p.characters.isInQuotingMode() {
		return element
	}
	quantifier := p.parseQuantifier()
	if element == nil {
		if quantifier != nil {
			p.errors = append(p.errors, &SyntaxError{quantifier, "Unexpected quantifier '" + quantifier.Text() + "'"})
		}
		return nil
	}
	if quantifier == nil {
		return element
	}
	return newRepetition(p.source, element.Range().Merge(quantifier.Range()), element, quantifier, repetitionFlags)
}

func (p *Parser) parseQuantifier() *Quantifier {
	var kind QuantifierKind
	switch p.characters.getCurrentChar() {
	case '*':
		kind = Star
	case '+':
		kind = Plus
	case '?':
		kind = QuestionMark
	case '{':
		return p.parseCurlyBraceQuantifier()
	default:
		return nil
	}
	current := p.characters.getCurrent()
	p.characters.moveNext()
	modifier := p.parseQuantifierModifier()
	r := current.Range().ExtendTo(p.characters.getCurrentStartIndex())
	return newSimpleQuantifier(p.source, r, modifier, kind)
}

func (p *Parser) parseCurlyBraceQuantifier() *Quantifier {
	if p.source.Supports(UnescapedCurlyBracket) && !p.isCurlyBraceQuantifier() {
		return nil
	}
	openingBrace := p.characters.getCurrent()
	p.characters.moveNext()
	lowerBound := p.parseInteger()
	if lowerBound == nil {
		p.expected("integer")
		return nil
	}
	var comma, upperBound *Token
	if p.characters.currentIsChar(',') {
		comma = &Token{source: p.source, rng: p.characters.getCurrent().Range()}
		p.characters.moveNext()
		upperBound = p.parseInteger()
	}
	if p.characters.currentIsChar('}') {
		p.characters.moveNext()
	} else if comma == nil {
		p.expected("',' or '}'")
	} else if upperBound == nil {
		p.expected("integer or '}'")
	} else {
		p.expected("'}'")
	}
	modifier := p.parseQuantifierModifier()
	r := openingBrace.Range().ExtendTo(p.characters.getCurrentStartIndex())
	q := newCurlyBraceQuantifier(p.source, r, modifier, lowerBound, comma, upperBound)
	if !q.IsOpenEnded() && q.Max < q.Min {
		p.errors = append(p.errors, &SyntaxError{q, "Illegal repetition range"})
	}
	return q
}

// isCurlyBraceQuantifier looks ahead for {n}, {n,} or {n,m} without
// consuming anything.
func (p *Parser) isCurlyBraceQuantifier() bool {
	index := 1
	if !helpers.IsAsciiDigit(p.characters.lookAhead(index)) {
		return false
	}
	for index++; helpers.IsAsciiDigit(p.characters.lookAhead(index)); index++ {
	}
	if p.characters.lookAhead(index) == '}' {
		return true
	}
	if p.characters.lookAhead(index) != ',' {
		return false
	}
	for index++; helpers.IsAsciiDigit(p.characters.lookAhead(index)); index++ {
	}
	return p.characters.lookAhead(index) == '}'
}

func (p *Parser) parseQuantifierModifier() QuantifierModifier {
	if p.characters.currentIsChar('?') {
		p.characters.moveNext()
		return Reluctant
	} else if p.characters.currentIsChar('+') && p.source.Supports(PossessiveQuantifier) {
		p.characters.moveNext()
		return Possessive
	}
	return Greedy
}

func (p *Parser) parseInteger() *Token {
	startIndex := p.characters.getCurrentStartIndex()
	if !helpers.IsAsciiDigit(p.characters.getCurrentChar()) {
		return nil
	}
	for helpers.IsAsciiDigit(p.characters.getCurrentChar()) {
		p.characters.moveNext()
	}
	return &Token{source: p.source, rng: IndexRange{startIndex, p.characters.getCurrentStartIndex()}}
}

func (p *Parser) parsePrimaryExpression() *RegexNode {
	if p.characters.isInQuotingMode() && p.characters.isNotAtEnd() {
		return p.readCharacter()
	}
	switch p.characters.getCurrentChar() {
	case '(':
		if p.characters.currentIs("(?P=") && p.source.Supports(PythonSyntaxGroupName) {
			return p.parsePythonBackReference()
		}
		return p.parseGroup()
	case '\\':
		return p.parseEscapeSequence()
	case '[':
		return p.parseCharacterClass()
	case '.':
		n := newNode(NtDot, p.source, p.characters.getCurrentIndexRange(), p.activeFlags)
		p.characters.moveNext()
		return n
	case '^', '$':
		n := newBoundary(p.source, boundaryForKey(p.characters.getCurrent().Ch), p.characters.getCurrentIndexRange(), p.activeFlags)
		p.characters.moveNext()
		return n
	}
	if p.isPlainTextCharacter(p.characters.getCurrentChar()) {
		return p.readCharacter()
	}
	return nil
}

func (p *Parser) parsePythonBackReference() *RegexNode {
	openingParen := p.characters.getCurrent()
	// skip "(?"
	p.characters.moveNextBy(2)
	return p.parseEscapedSequence('=', ')', "a group name", func(_, opener, closer SourceCharacter) *RegexNode {
		return p.collect(newBackReference(p.source, openingParen, nil, opener, closer, p.activeFlags))
	})
}

func (p *Parser) readCharacter() *RegexNode {
	ch := p.characters.getCurrent()
	p.characters.moveNext()
	return p.characterTree(ch)
}

func (p *Parser) parseGroup() *RegexNode {
	openingParen := p.characters.getCurrent()
	p.characters.moveNext()
	if lookAround, ok := p.parseLookAround(openingParen); ok {
		return lookAround
	}
	switch {
	case p.characters.currentIs("?>") && p.source.Supports(AtomicGroup):
		p.characters.moveNextBy(2)
		return p.finishGroup(openingParen, func(r IndexRange, inner *RegexNode) *RegexNode {
			return newAtomic(p.source, r, inner, p.activeFlags)
		})
	case p.characters.currentIs("?<") && p.source.Supports(JavaSyntaxGroupName, DotnetSyntaxGroupName):
		return p.finishGroup(openingParen, p.newNamedCapturingGroup(2, '>'))
	case p.characters.currentIs("?'") && p.source.Supports(DotnetSyntaxGroupName):
		return p.finishGroup(openingParen, p.newNamedCapturingGroup(2, '\''))
	case p.characters.currentIs("?P<") && p.source.Supports(PythonSyntaxGroupName):
		return p.finishGroup(openingParen, p.newNamedCapturingGroup(3, '>'))
	case p.characters.currentIsChar('?'):
		return p.parseNonCapturingGroup(openingParen)
	}
	return p.finishGroup(openingParen, p.newCapturingGroup(""))
}

// parseLookAround handles the four lookaround openers following an opening
// parenthesis.
func (p *Parser) parseLookAround(openingParen SourceCharacter) (*RegexNode, bool) {
	var behind, negative bool
	switch {
	case p.characters.currentIs("?="):
		p.characters.moveNextBy(2)
	case p.characters.currentIs("?<="):
		p.characters.moveNextBy(3)
		behind = true
	case p.characters.currentIs("?!"):
		p.characters.moveNextBy(2)
		negative = true
	case p.characters.currentIs("?<!"):
		p.characters.moveNextBy(3)
		behind, negative = true, true
	default:
		return nil, false
	}
	return p.finishGroup(openingParen, func(r IndexRange, inner *RegexNode) *RegexNode {
		return newLookAround(p.source, r, behind, negative, inner, p.activeFlags)
	}), true
}

func (p *Parser) newNamedCapturingGroup(prefixLength int, delimiter rune) groupConstructor {
	p.characters.moveNextBy(prefixLength)
	name := p.parseGroupName(delimiter)
	if p.characters.currentIsChar(delimiter) {
		p.characters.moveNext()
	} else {
		p.expected("'" + string(delimiter) + "'")
	}
	return p.newCapturingGroup(name)
}

func (p *Parser) newCapturingGroup(name string) groupConstructor {
	index := p.groupNumber
	p.groupNumber++
	return func(r IndexRange, inner *RegexNode) *RegexNode {
		return p.index(newCapture(p.source, r, name, index, inner, p.activeFlags))
	}
}

func (p *Parser) parseGroupName(delimiter rune) string {
	var sb strings.Builder
	for p.characters.isNotAtEnd() && !p.characters.currentIsChar(delimiter) {
		sb.WriteRune(p.characters.getCurrent().Ch)
		p.characters.moveNext()
	}
	if sb.Len() == 0 {
		p.expected("a name for the group")
	}
	return sb.String()
}

func (p *Parser) parseNonCapturingGroup(openingParen SourceCharacter) *RegexNode {
	// skip '?'
	p.characters.moveNext()
	if p.characters.currentIs("R)") && p.source.Supports(Recursion) {
		return p.parseRecursion(openingParen)
	}
	if p.characters.currentIsChar('(') && p.source.Supports(ConditionalSubpattern) {
		return p.parseConditionalSubpattern(openingParen)
	}

	enabledFlags := p.parseFlags()
	var disabledFlags FlagSet
	if p.characters.currentIsChar('-') {
		p.characters.moveNext()
		disabledFlags = p.parseFlags()
	}

	previousFreeSpacingMode := p.characters.getFreeSpacingMode()
	if disabledFlags.Contains(Comments) {
		p.characters.setFreeSpacingMode(false)
	} else if enabledFlags.Contains(Comments) {
		p.characters.setFreeSpacingMode(true)
	}

	previousFlags := p.activeFlags
	p.activeFlags = p.activeFlags.Union(enabledFlags).Without(disabledFlags)
	if p.characters.currentIsChar(')') {
		closingParen := p.characters.getCurrent()
		p.characters.moveNext()
		r := openingParen.Range().Merge(closingParen.Range())
		return newGroup(p.source, r, enabledFlags, disabledFlags, nil, p.activeFlags)
	}
	if p.characters.currentIsChar(':') {
		p.characters.moveNext()
	} else {
		p.expected("flag or ':' or ')'")
	}
	group := p.finishGroupWithMode(previousFreeSpacingMode, openingParen, func(r IndexRange, inner *RegexNode) *RegexNode {
		return newGroup(p.source, r, enabledFlags, disabledFlags, inner, p.activeFlags)
	})
	p.activeFlags = previousFlags
	return group
}

func (p *Parser) parseConditionalSubpattern(openingParen SourceCharacter) *RegexNode {
	condition := p.parseCondition()
	subpattern := p.parseDisjunction()
	closingParen := p.characters.getCurrentIndexRange()
	if p.characters.currentIsChar(')') {
		p.characters.moveNext()
	} else {
		p.expected("')'")
		closingParen = IndexRange{p.characters.getCurrentStartIndex(), p.characters.getCurrentStartIndex()}
	}
	r := openingParen.Range().Merge(closingParen)
	if subpattern.T != NtDisjunction {
		return newConditional(p.source, r, condition, subpattern, nil, nil, p.activeFlags)
	}
	alternatives := subpattern.Children
	no := alternatives[1]
	if len(alternatives) > 2 {
		p.error("More than two alternatives in the subpattern")
		rest := alternatives[1:]
		no = newDisjunction(p.source, rest[0].Range().Merge(rest[len(rest)-1].Range()), rest, subpattern.Operators[1:], subpattern.Options)
	}
	return newConditional(p.source, r, condition, alternatives[0], subpattern.Operators[0], no, p.activeFlags)
}

func (p *Parser) parseCondition() *RegexNode {
	openingParen := p.characters.getCurrent()
	p.characters.moveNext()
	if lookAround, ok := p.parseLookAround(openingParen); ok {
		return lookAround
	}
	var plus *RegexNode
	if p.characters.currentIsChar('+') {
		// a leading '+' would be taken for a quantifier
		plus = p.readCharacter()
	}
	return p.finishGroup(openingParen, func(r IndexRange, inner *RegexNode) *RegexNode {
		return p.conditionGroupReference(r, plus, inner)
	})
}

func (p *Parser) conditionGroupReference(r IndexRange, plus, inner *RegexNode) *RegexNode {
	var reference strings.Builder
	if plus != nil {
		reference.WriteRune('+')
	}
	switch inner.T {
	case NtCharacter:
		reference.WriteRune(inner.Ch)
	case NtSequence:
		for _, item := range inner.Children {
			if item.T == NtCharacter {
				reference.WriteRune(item.Ch)
			}
		}
	default:
		p.error("Conditional subpattern has invalid condition.")
	}
	return newReferenceCondition(p.source, r, reference.String(), p.activeFlags)
}

func (p *Parser) parseRecursion(openingParen SourceCharacter) *RegexNode {
	// skip 'R'
	p.characters.moveNext()
	closingParen := p.characters.getCurrent()
	p.characters.moveNext()
	r := openingParen.Range().Merge(closingParen.Range())
	return newGroup(p.source, r, FlagSet{}, FlagSet{}, nil, p.activeFlags)
}

func (p *Parser) parseFlags() FlagSet {
	var flags FlagSet
	for p.characters.isNotAtEnd() {
		current := p.characters.getCurrent()
		flag, ok := optionForLetter(current.Ch)
		if !ok {
			break
		}
		flags = flags.With(flag, current)
		p.characters.moveNext()
	}
	return flags
}

func (p *Parser) finishGroup(openingParen SourceCharacter, construct groupConstructor) *RegexNode {
	return p.finishGroupWithMode(p.characters.getFreeSpacingMode(), openingParen, construct)
}

func (p *Parser) finishGroupWithMode(previousFreeSpacingMode bool, openingParen SourceCharacter, construct groupConstructor) *RegexNode {
	previousFlags := p.activeFlags
	inner := p.parseDisjunction()
	p.activeFlags = previousFlags
	p.characters.setFreeSpacingMode(previousFreeSpacingMode)
	if p.characters.currentIsChar(')') {
		p.characters.moveNext()
	} else {
		p.expected("')'")
	}
	r := openingParen.Range().ExtendTo(p.characters.getCurrentStartIndex())
	return construct(r, inner)
}

func (p *Parser) parseEscapeSequence() *RegexNode {
	backslash := p.characters.getCurrent()
	p.characters.moveNext()
	if p.characters.isAtEnd() {
		p.expected("any character")
		return p.characterTree(backslash)
	}
	if p.isEscapedCharacterClass() {
		return p.parseEscapedProperty(backslash)
	}
	if p.isEscapedBackReference() {
		return p.parseNamedBackReference(backslash)
	}
	character := p.characters.getCurrent()
	switch character.Ch {
	case '0':
		return p.parseOctalEscape(backslash)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumericalBackReference(backslash)
	case 'b', 'B', 'A', 'G', 'Z', 'z':
		return p.parseBoundary(backslash)
	case 'w', 'W', 'd', 'D', 'S', 's', 'h', 'H', 'v', 'V':
		n := newEscapedClass(p.source, backslash, character, p.activeFlags)
		p.characters.moveNext()
		return n
	case 'u':
		return p.parseUnicodeEscape(backslash)
	case 'x':
		return p.parseHexEscape(backslash)
	case 't', 'n', 'r', 'f', 'a', 'e':
		p.characters.moveNext()
		r := backslash.Range().ExtendTo(p.characters.getCurrentStartIndex())
		return p.characterTree(newSourceCharacter(p.source, r, simpleEscapeToCharacter(character.Ch), true))
	case 'c':
		return p.parseControlSequence(backslash)
	case 'N':
		return p.parseEscapedSequence('{', '}', "a Unicode character name", func(_, _, closer SourceCharacter) *RegexNode {
			return newNode(NtMiscEscape, p.source, backslash.Range().Merge(closer.Range()), p.activeFlags)
		})
	case 'R', 'X':
		p.characters.moveNext()
		return newNode(NtMiscEscape, p.source, backslash.Range().ExtendTo(p.characters.getCurrentStartIndex()), p.activeFlags)
	case 'E':
		p.error("\\E used without \\Q")
	}
	p.characters.moveNext()
	return newCharacter(p.source, backslash.Range().Merge(character.Range()), character.Ch, character.IsEscape, p.activeFlags)
}

func (p *Parser) isEscapedCharacterClass() bool {
	return (p.characters.currentIsChar('p') || p.characters.currentIsChar('P')) && p.source.Supports(EscapedCharacterClass)
}

func (p *Parser) isEscapedBackReference() bool {
	return (p.characters.currentIsChar('k') && p.source.Supports(DotnetSyntaxGroupName, JavaSyntaxGroupName, PerlSyntaxGroupName)) ||
		(p.characters.currentIsChar('g') && p.source.Supports(PerlSyntaxGroupName))
}

func (p *Parser) parseControlSequence(backslash SourceCharacter) *RegexNode {
	c := p.characters.getCurrent()
	p.characters.moveNext()
	if p.characters.isAtEnd() {
		p.expected("any character")
		return p.characterTree(c)
	}
	controlCharacter := rune(0x40 ^ p.characters.getCurrentChar())
	p.characters.moveNext()
	r := backslash.Range().ExtendTo(p.characters.getCurrentStartIndex())
	return p.characterTree(newSourceCharacter(p.source, r, controlCharacter, true))
}

func simpleEscapeToCharacter(ch rune) rune {
	switch ch {
	case 't':
		return '\t'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 'f':
		return '\f'
	case 'a':
		return '\a'
	case 'e':
		return 0x1B
	}
	panic("syntax: unsupported simple escape " + strconv.QuoteRune(ch))
}

func (p *Parser) parseUnicodeEscape(backslash SourceCharacter) *RegexNode {
	// skip 'u'
	p.characters.moveNext()
	codeUnit := rune(p.parseFixedAmountOfHexDigits(4))
	r := backslash.Range().ExtendTo(p.characters.getCurrentStartIndex())
	return p.characterTree(newSourceCharacter(p.source, r, codeUnit, true))
}

func (p *Parser) parseHexEscape(backslash SourceCharacter) *RegexNode {
	// skip 'x'
	p.characters.moveNext()
	codePoint := 0
	valid := true
	if p.characters.currentIsChar('{') {
		p.characters.moveNext()
		if !helpers.IsHexDigit(p.characters.getCurrentChar()) {
			p.expected(hexDigit)
		}
		for helpers.IsHexDigit(p.characters.getCurrentChar()) {
			codePoint = codePoint*16 + p.parseHexDigit()
			if codePoint > 0x10FFFF {
				valid = false
				codePoint = 0x110000
			}
		}
		if p.characters.currentIsChar('}') {
			p.characters.moveNext()
		} else {
			p.expected(hexDigit + " or '}'")
		}
	} else {
		codePoint = p.parseFixedAmountOfHexDigits(2)
	}
	r := backslash.Range().ExtendTo(p.characters.getCurrentStartIndex())
	tree := newCharacter(p.source, r, rune(codePoint), true, p.activeFlags)
	if !valid {
		p.errors = append(p.errors, &SyntaxError{tree, "Invalid Unicode code point"})
	}
	return tree
}

func (p *Parser) parseFixedAmountOfHexDigits(amount int) int {
	i := 0
	result := 0
	for i < amount && helpers.IsHexDigit(p.characters.getCurrentChar()) {
		result = result*16 + p.parseHexDigit()
		i++
	}
	if i < amount {
		p.expected(hexDigit)
	}
	return result
}

func (p *Parser) parseHexDigit() int {
	value := helpers.HexValue(p.characters.getCurrent().Ch)
	p.characters.moveNext()
	return value
}

func (p *Parser) parseEscapedProperty(backslash SourceCharacter) *RegexNode {
	return p.parseEscapedSequence('{', '}', "a property name", func(marker, opener, closer SourceCharacter) *RegexNode {
		return newEscapedProperty(p.source, backslash, marker, opener, closer, p.activeFlags)
	})
}

func (p *Parser) parseNamedBackReference(backslash SourceCharacter) *RegexNode {
	switch {
	case p.characters.currentIs("k<") && p.source.Supports(DotnetSyntaxGroupName, JavaSyntaxGroupName):
		return p.parseNamedBackReferenceWith(backslash, '<', '>')
	case p.characters.currentIs("k'") && p.source.Supports(DotnetSyntaxGroupName):
		return p.parseNamedBackReferenceWith(backslash, '\'', '\'')
	case (p.characters.currentIs("k{") || p.characters.currentIs("g{")) && p.source.Supports(PerlSyntaxGroupName):
		return p.parseNamedBackReferenceWith(backslash, '{', '}')
	}
	p.characters.moveNext()
	p.expectedNamedBackReferenceOpener()
	return p.characterTree(backslash)
}

func (p *Parser) parseNamedBackReferenceWith(backslash SourceCharacter, opener, closer rune) *RegexNode {
	return p.parseEscapedSequence(opener, closer, "a group name", func(marker, open, close SourceCharacter) *RegexNode {
		return p.collect(newBackReference(p.source, backslash, &marker, open, close, p.activeFlags))
	})
}

func (p *Parser) expectedNamedBackReferenceOpener() {
	var openers []string
	if p.source.Supports(DotnetSyntaxGroupName) {
		openers = append(openers, "'<'", "'''")
	} else if p.source.Supports(JavaSyntaxGroupName) {
		openers = append(openers, "'<'")
	}
	if p.source.Supports(PerlSyntaxGroupName) {
		openers = append(openers, "'{'")
	}
	if len(openers) == 0 {
		p.expected("valid name opener")
		return
	}
	p.expected(strings.Join(openers, " or "))
}

func (p *Parser) collect(backReference *RegexNode) *RegexNode {
	p.backReferences = append(p.backReferences, backReference)
	return backReference
}

func (p *Parser) index(capture *RegexNode) *RegexNode {
	p.capturingGroups[strconv.Itoa(capture.M)] = capture
	if capture.Named {
		p.capturingGroups[capture.Str] = capture
		if p.capnames == nil {
			p.capnames = map[string]int{}
		}
		p.capnames[capture.Str] = capture.M
	}
	return capture
}

// parseEscapedSequence parses a marker followed by a delimited name such as
// k<name> or p{L}, handing the marker and delimiters to build.
func (p *Parser) parseEscapedSequence(opener, closer rune, expected string, build func(marker, opener, closer SourceCharacter) *RegexNode) *RegexNode {
	marker := p.characters.getCurrent()
	p.characters.moveNext()

	if !p.characters.currentIsChar(opener) {
		p.expected("'" + string(opener) + "'")
		return p.characterTree(marker)
	}
	openerChar := p.characters.getCurrent()
	atLeastOneChar := false
	for {
		p.characters.moveNext()
		if p.characters.isAtEnd() {
			if atLeastOneChar {
				p.expected("'" + string(closer) + "'")
			} else {
				p.expected(expected)
			}
			return p.characterTree(openerChar)
		}
		if !atLeastOneChar && p.characters.currentIsChar(closer) {
			p.expected(expected)
			return p.characterTree(openerChar)
		}
		atLeastOneChar = true
		if p.characters.currentIsChar(closer) {
			break
		}
	}
	closerChar := p.characters.getCurrent()
	p.characters.moveNext()
	return build(marker, openerChar, closerChar)
}

// parseNumericalBackReference reads digits greedily: the first digit is
// always part of the reference, later ones only while a group with the
// resulting number has already been opened.
func (p *Parser) parseNumericalBackReference(backslash SourceCharacter) *RegexNode {
	firstDigit := p.characters.getCurrent()
	lastDigit := firstDigit
	referenceNumber := int(firstDigit.Ch - '0')
	for {
		p.characters.moveNext()
		if p.characters.isAtEnd() {
			break
		}
		current := p.characters.getCurrent()
		newReferenceNumber := referenceNumber*10 + int(current.Ch-'0')
		if !helpers.IsAsciiDigit(int(current.Ch)) || newReferenceNumber >= p.groupNumber {
			break
		}
		lastDigit = current
		referenceNumber = newReferenceNumber
	}
	return p.collect(newBackReference(p.source, backslash, nil, firstDigit, lastDigit, p.activeFlags))
}

func (p *Parser) parseOctalEscape(backslash SourceCharacter) *RegexNode {
	// skip '0'
	p.characters.moveNext()
	var byteValue rune
	i := 0
	for i < 3 && helpers.IsOctalDigit(p.characters.getCurrentChar()) {
		newValue := byteValue*8 + rune(p.characters.getCurrentChar()) - '0'
		if newValue > 0xFF {
			break
		}
		byteValue = newValue
		p.characters.moveNext()
		i++
	}
	if i == 0 {
		p.expected("octal digit")
	}
	r := backslash.Range().ExtendTo(p.characters.getCurrentStartIndex())
	return p.characterTree(newSourceCharacter(p.source, r, byteValue, true))
}

func (p *Parser) parseBoundary(backslash SourceCharacter) *RegexNode {
	if p.characters.currentIs("b{") {
		return p.parseEscapedSequence('{', '}', "an Unicode extended grapheme cluster", func(_, _, closer SourceCharacter) *RegexNode {
			return newBoundary(p.source, GraphemeClusterBoundary, backslash.Range().Merge(closer.Range()), p.activeFlags)
		})
	}
	boundary := p.characters.getCurrent()
	p.characters.moveNext()
	return newBoundary(p.source, boundaryForKey(boundary.Ch), backslash.Range().Merge(boundary.Range()), p.activeFlags)
}

func (p *Parser) parseCharacterClass() *RegexNode {
	openingBracket := p.characters.getCurrent()
	p.characters.moveNext()
	negated := false
	if p.characters.currentIsChar('^') {
		p.characters.moveNext()
		negated = true
	}
	contents := p.parseCharacterClassIntersection()
	if p.characters.currentIsChar(']') {
		p.characters.moveNext()
	} else {
		p.expected("']'")
	}
	r := openingBracket.Range().ExtendTo(p.characters.getCurrentStartIndex())
	return newCharacterClass(p.source, r, openingBracket, negated, contents, p.activeFlags)
}

func (p *Parser) parseCharacterClassIntersection() *RegexNode {
	classFlags := p.activeFlags
	elements := []*RegexNode{p.parseCharacterClassUnion(true)}
	var ands []SyntaxElement
	for p.characters.currentIs("&&") {
		firstAnd := p.characters.getCurrent()
		p.characters.moveNext()
		secondAnd := p.characters.getCurrent()
		p.characters.moveNext()
		ands = append(ands, Token{source: p.source, rng: firstAnd.Range().Merge(secondAnd.Range())})
		elements = append(elements, p.parseCharacterClassUnion(false))
	}
	return p.combineTrees(elements, func(r IndexRange, items []*RegexNode) *RegexNode {
		return newClassIntersection(p.source, r, items, ands, classFlags)
	})
}

func (p *Parser) parseCharacterClassUnion(isAtBeginning bool) *RegexNode {
	classFlags := p.activeFlags
	var elements []*RegexNode
	for element := p.parseCharacterClassElement(isAtBeginning); element != nil; element = p.parseCharacterClassElement(false) {
		elements = append(elements, element)
	}
	if len(elements) == 0 {
		index := p.characters.getCurrentStartIndex()
		return newClassUnion(p.source, IndexRange{index, index}, nil, classFlags)
	}
	return p.combineTrees(elements, func(r IndexRange, items []*RegexNode) *RegexNode {
		return newClassUnion(p.source, r, items, classFlags)
	})
}

func (p *Parser) parseCharacterClassElement(isAtBeginning bool) *RegexNode {
	if p.characters.lookAhead(1) == ':' && p.source.Supports(PosixCharacterClass) {
		if tree := p.parsePosixCharacterClass(); tree != nil {
			return tree
		}
	}
	if p.characters.isInQuotingMode() && p.characters.isNotAtEnd() {
		return p.readCharacter()
	}
	if p.characters.isAtEnd() || p.characters.currentIs("&&") {
		return nil
	}
	startCharacter := p.characters.getCurrent()
	switch startCharacter.Ch {
	case '\\':
		escape := p.parseEscapeSequence()
		switch escape.T {
		case NtCharacter:
			return p.parseCharacterRange(escape)
		case NtEscapedClass, NtMiscEscape, NtCharacterClass:
			return escape
		}
		p.errors = append(p.errors, &SyntaxError{escape, "Invalid escape sequence inside character class"})
		// keep going with a placeholder to find further errors
		return p.characterTree(newSourceCharacter(p.source, escape.Range(), 'x', false))
	case '[':
		if p.source.Supports(NestedCharacterClass) {
			return p.parseCharacterClass()
		}
	case ']':
		if !isAtBeginning {
			return nil
		}
	}
	p.characters.moveNext()
	return p.parseCharacterRange(p.characterTree(startCharacter))
}

func (p *Parser) parsePosixCharacterClass() *RegexNode {
	openingBracket := p.characters.getCurrent()
	negated := p.characters.lookAhead(2) == '^'
	prefix := "[:"
	if negated {
		prefix = "[:^"
	}
	for _, name := range posixClasses {
		text := prefix + name + ":]"
		if p.characters.currentIs(text) {
			p.characters.moveNextBy(len([]rune(text)) - 1)
			closingBracket := p.characters.getCurrent()
			p.characters.moveNext()
			return newPosixClass(p.source, openingBracket.Range().Merge(closingBracket.Range()), negated, name, p.activeFlags)
		}
	}
	return nil
}

func (p *Parser) parseCharacterRange(startCharacter *RegexNode) *RegexNode {
	if !p.characters.currentIsChar('-') || p.characters.isInQuotingMode() {
		return startCharacter
	}
	lookAhead := p.characters.lookAhead(1)
	switch lookAhead {
	case EOF, ']':
		return startCharacter
	case '\\':
		p.characters.moveNext()
		backslash := p.characters.getCurrent()
		escape := p.parseEscapeSequence()
		if escape.T == NtCharacter {
			return p.characterRange(startCharacter, escape)
		}
		p.expectedFound("simple character", escape)
		return p.characterRange(startCharacter, p.characterTree(backslash))
	}
	p.characters.moveNext()
	endCharacter := p.characters.getCurrent()
	p.characters.moveNext()
	return p.characterRange(startCharacter, p.characterTree(endCharacter))
}

// characterTree creates a character node, joining a high surrogate with the
// low surrogate that follows it, whether literal or written as \uXXXX.
func (p *Parser) characterTree(character SourceCharacter) *RegexNode {
	c1 := character.Ch
	if isHighSurrogate(c1) {
		c2 := p.characters.getCurrentChar()
		if c2 == '\\' && p.characters.lookAhead(1) == 'u' {
			p.characters.moveNextBy(2)
			low := rune(p.parseFixedAmountOfHexDigits(4))
			r := character.Range().ExtendTo(p.characters.getCurrentStartIndex())
			return newCharacter(p.source, r, utf16.DecodeRune(c1, low), true, p.activeFlags)
		} else if c2 != EOF && isLowSurrogate(rune(c2)) {
			r := character.Range().Merge(p.characters.getCurrent().Range())
			p.characters.moveNext()
			return newCharacter(p.source, r, utf16.DecodeRune(c1, rune(c2)), true, p.activeFlags)
		}
		logger.Printf("Couldn't parse '%U%U', two high surrogate characters in a row. Please check your encoding.", c1, c2)
	}
	return newCharacter(p.source, character.Range(), c1, character.IsEscape, p.activeFlags)
}

func isHighSurrogate(r rune) bool {
	return 0xD800 <= r && r <= 0xDBFF
}

func isLowSurrogate(r rune) bool {
	return 0xDC00 <= r && r <= 0xDFFF
}

func (p *Parser) characterRange(low, high *RegexNode) *RegexNode {
	n := newClassRange(p.source, low.Range().Merge(high.Range()), low, high, p.activeFlags)
	if low.Ch > high.Ch {
		p.errors = append(p.errors, &SyntaxError{n, "Illegal character range"})
	}
	return n
}

func (p *Parser) expectedFound(expectedToken string, actual SyntaxElement) {
	p.error("Expected " + expectedToken + ", but found '" + actual.Text() + "'")
}

func (p *Parser) expected(expectedToken string) {
	actual := "the end of the regex"
	if p.characters.isNotAtEnd() {
		actual = "'" + string(p.characters.getCurrent().Ch) + "'"
	}
	p.error("Expected " + expectedToken + ", but found " + actual)
}

func (p *Parser) error(message string) {
	offending := Token{source: p.source, rng: p.characters.getCurrentIndexRange()}
	p.errors = append(p.errors, &SyntaxError{offending, message})
}

func (p *Parser) combineTrees(elements []*RegexNode, construct func(IndexRange, []*RegexNode) *RegexNode) *RegexNode {
	if len(elements) == 1 {
		return elements[0]
	}
	r := elements[0].Range().Merge(elements[len(elements)-1].Range())
	return construct(r, elements)
}

func (p *Parser) isPlainTextCharacter(c int) bool {
	switch c {
	case '{':
		return p.source.Supports(UnescapedCurlyBracket)
	case EOF, '(', ')', '\\', '*', '+', '?', '|', '[', '.':
		return false
	}
	return true
}
