package regexcheck

import (
	"github.com/dlclark/regexcheck/finders"
	"github.com/dlclark/regexcheck/syntax"
)

// Rule names used in Issue.Rule.
const (
	RuleRedos                      = "redos"
	RuleEmptyGroup                 = "empty-group"
	RuleSingleCharacterAlternation = "single-character-alternation"
	RuleReluctantQuantifier        = "reluctant-quantifier"
	RulePossessiveQuantifier       = "possessive-quantifier"
)

// Issue is a single problem found in a pattern.
type Issue struct {
	Rule        string
	Range       syntax.IndexRange // of Text, in source characters
	Text        string
	Message     string
	Secondaries []finders.IssueLocation
}

// checker holds the finders whose caches are worth keeping between runs.
type checker struct {
	redos  *finders.RedosFinder
	issues []Issue
}

// Check runs every finder over the pattern and returns the issues in the
// order the finders report them: ReDoS first, then the structural checks in
// source order. matchType says how the pattern is applied to its input.
func (re *Regexp) Check(matchType finders.MatchType) []Issue {
	c := re.getChecker()
	defer re.putChecker(c)

	c.issues = nil
	c.redos.CheckRegex(re.tree, matchType, c.reporter(RuleRedos))
	syntax.WalkTree(finders.NewEmptyGroupFinder(c.reporter(RuleEmptyGroup)), re.tree)
	syntax.WalkTree(finders.NewSingleCharacterAlternationFinder(c.reporter(RuleSingleCharacterAlternation)), re.tree)
	syntax.WalkTree(finders.NewReluctantQuantifierWithEmptyContinuationFinder(c.reporter(RuleReluctantQuantifier)), re.tree)
	syntax.WalkTree(finders.NewPossessiveQuantifierContinuationFinder(c.reporter(RulePossessiveQuantifier)), re.tree)

	issues := c.issues
	c.issues = nil
	return issues
}

// Backtracking returns the worst backtracking found in the pattern without
// reporting anything.
func (re *Regexp) Backtracking(matchType finders.MatchType) finders.BacktrackingType {
	c := re.getChecker()
	defer re.putChecker(c)
	return c.redos.CheckRegex(re.tree, matchType, func(syntax.SyntaxElement, string, *float64, []finders.IssueLocation) {})
}

func (c *checker) reporter(rule string) finders.ElementIssue {
	return func(element syntax.SyntaxElement, message string, _ *float64, secondaries []finders.IssueLocation) {
		c.issues = append(c.issues, Issue{
			Rule:        rule,
			Range:       element.Range(),
			Text:        element.Text(),
			Message:     message,
			Secondaries: secondaries,
		})
	}
}

// getChecker returns a checker to use for running finders.
// It uses the re's checker cache if possible, to avoid
// rebuilding the finder caches.
func (re *Regexp) getChecker() *checker {
	re.mu.Lock()
	if n := len(re.checker); n > 0 {
		c := re.checker[n-1]
		re.checker = re.checker[:n-1]
		re.mu.Unlock()
		return c
	}
	re.mu.Unlock()
	return &checker{
		redos: finders.NewRedosFinder(func(found finders.BacktrackingType, hasBackReference bool) (string, bool) {
			return re.Message(found, hasBackReference)
		}),
	}
}

// putChecker returns a checker to the re's cache.
func (re *Regexp) putChecker(c *checker) {
	re.mu.Lock()
	re.checker = append(re.checker, c)
	re.mu.Unlock()
}
