// Package finders holds the checks that run over a parsed regex and report
// what they find through the ElementIssue and InvocationIssue callbacks.
package finders

import "github.com/dlclark/regexcheck/syntax"

// IssueLocation is a secondary location of an issue with its own message.
type IssueLocation struct {
	Elements []syntax.SyntaxElement
	Message  string
}

func NewIssueLocation(element syntax.SyntaxElement, message string) IssueLocation {
	return IssueLocation{Elements: []syntax.SyntaxElement{element}, Message: message}
}

// ElementIssue reports an issue on a part of the regex. cost is nil unless
// the check estimates the effort needed to fix it.
type ElementIssue func(element syntax.SyntaxElement, message string, cost *float64, secondaries []IssueLocation)

// InvocationIssue reports an issue on the call that uses the regex rather
// than on the regex itself.
type InvocationIssue func(message string, cost *float64, secondaries []IssueLocation)
