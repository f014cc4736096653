package parser

import (
	"fmt"

	"github.com/kievzenit/ycc/internal/lexer"
)

// SyntaxError reports a token that does not fit the grammar. Expected is
// lexer.None when no single kind would have been accepted.
type SyntaxError struct {
	Expected lexer.TokenKind
	Got      lexer.TokenKind
	Text     string
	Message  string

	Line   int
	Column int
}

func (e *SyntaxError) GetMessage() string {
	if e.Message != "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	if e.Expected == lexer.None {
		return fmt.Sprintf("%d:%d: unexpected token: '%s' %q", e.Line, e.Column, e.Got, e.Text)
	}

	return fmt.Sprintf("%d:%d: unexpected token: '%s' %q, expected: '%s'",
		e.Line, e.Column, e.Got, e.Text, e.Expected)
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.GetMessage()
}

// bailout carries an error out of the recursive descent. Only
// ParseTopLevelExpr recovers it.
type bailout struct {
	err error
}
