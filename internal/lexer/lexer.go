package lexer

import (
	"fmt"

	"go.uber.org/zap"
)

type LexError struct {
	Message string

	Line   int
	Column int
}

func newLexError(line, col int, format string, args ...any) *LexError {
	return &LexError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
	}
}

func (e *LexError) GetMessage() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *LexError) Error() string {
	return "lex error: " + e.GetMessage()
}

type position struct {
	pos, line, col int
}

// Lexer produces tokens on demand from a source buffer. It is not safe for
// concurrent use.
type Lexer struct {
	buf []byte
	pos int

	line, col int

	logger *zap.Logger
}

func NewLexer(buf []byte, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Lexer{
		buf: buf,
		pos: 0,

		line: 1,
		col:  1,

		logger: logger.Named("lexer"),
	}
}

// Lex returns the next token. Once the input is exhausted every call
// returns an EOF token.
func (l *Lexer) Lex() (Token, error) {
	l.skipWhitespace()
	if !l.hasChars() {
		return l.token(EOF, "", l.line, l.col), nil
	}

	line, col := l.line, l.col
	switch {
	case l.isCurrIdentifierStart():
		return l.processIdentifier(line, col)
	case l.isCurrDigit():
		return l.processNumber(line, col)
	case l.read() == '\'':
		return l.processCharLiteral(line, col)
	case l.read() == '"':
		return l.processStringLiteral(line, col)
	}

	if kind, ok := symbols[l.read()]; ok {
		return l.processSymbol(kind, line, col)
	}

	return Token{}, newLexError(line, col, "unexpected character: '%s'", string(l.read()))
}

// Tokenize lexes the whole buffer. The returned slice always ends with EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	tokens := make([]Token, 0)

	for {
		token, err := l.Lex()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)
		if token.Kind == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) token(kind TokenKind, value string, line, col int) Token {
	l.logger.Debug("lexed token",
		zap.Stringer("kind", kind),
		zap.String("value", value),
		zap.Int("line", line),
		zap.Int("column", col),
	)

	return Token{
		Kind:  kind,
		Value: value,

		Line:   line,
		Column: col,
	}
}

func (l *Lexer) processIdentifier(line, col int) (Token, error) {
	start := l.pos
	for l.hasChars() && !l.isCurrTerminator() {
		if !l.isCurrIdentifierStart() && !l.isCurrDigit() {
			return Token{}, newLexError(
				l.line, l.col,
				"encountered illegal character '%s' in identifier name",
				string(l.read()),
			)
		}

		l.advance()
	}
	identifier := string(l.buf[start:l.pos])

	if kind, ok := keywords[identifier]; ok {
		return l.token(kind, identifier, line, col), nil
	}

	return l.token(IDENT, identifier, line, col), nil
}

func (l *Lexer) processNumber(line, col int) (Token, error) {
	start := l.pos

	var isFloat bool
	for l.hasChars() {
		if l.read() == '.' {
			if isFloat {
				return Token{}, newLexError(l.line, l.col, "encountered second decimal point in number")
			}

			isFloat = true
			l.advance()
			continue
		}

		if l.isCurrTerminator() {
			break
		}

		if !l.isCurrDigit() {
			return Token{}, newLexError(
				l.line, l.col,
				"encountered non-numeric character '%s' in number",
				string(l.read()),
			)
		}

		l.advance()
	}
	number := string(l.buf[start:l.pos])

	if isFloat {
		return l.token(FLOAT, number, line, col), nil
	}

	return l.token(INT, number, line, col), nil
}

func (l *Lexer) processCharLiteral(line, col int) (Token, error) {
	l.advance()
	if !l.hasChars() {
		return Token{}, newLexError(line, col, "encountered opening single quote at the end of source")
	}

	if l.read() == '\n' || l.read() == '\'' {
		return Token{}, newLexError(l.line, l.col, "expected a character after '''")
	}

	char, err := l.readLiteralChar()
	if err != nil {
		return Token{}, err
	}

	if !l.hasChars() || l.read() != '\'' {
		return Token{}, newLexError(line, col, "character literal is not terminated by '''")
	}
	l.advance()

	return l.token(CHAR, string([]byte{char}), line, col), nil
}

func (l *Lexer) processStringLiteral(line, col int) (Token, error) {
	l.advance()

	stringBuf := make([]byte, 0)
	for l.hasChars() && l.read() != '"' {
		char, err := l.readLiteralChar()
		if err != nil {
			return Token{}, err
		}

		stringBuf = append(stringBuf, char)
	}

	if !l.hasChars() {
		return Token{}, newLexError(line, col, "string literal has no closing quotation mark")
	}
	l.advance()

	return l.token(STRING, string(stringBuf), line, col), nil
}

func (l *Lexer) readLiteralChar() (byte, error) {
	char := l.read()
	l.advance()
	if char != '\\' {
		return char, nil
	}

	if !l.hasChars() {
		return 0, newLexError(l.line, l.col, "escape sequence at the end of source")
	}

	escaped := l.read()
	l.advance()
	switch escaped {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\', '\'', '"':
		return escaped, nil
	}

	return 0, newLexError(l.line, l.col, "unknown escape sequence '\\%s'", string(escaped))
}

func (l *Lexer) processSymbol(kind TokenKind, line, col int) (Token, error) {
	symbol := string(l.read())
	l.advance()

	// Extend greedily while the candidate stays a known compound symbol;
	// whitespace between the characters is skipped.
	for {
		saved := l.mark()
		l.skipWhitespace()
		if !l.hasChars() {
			l.reset(saved)
			break
		}

		candidate := symbol + string(l.read())
		compoundKind, ok := compoundSymbols[candidate]
		if !ok {
			l.reset(saved)
			break
		}

		symbol = candidate
		kind = compoundKind
		l.advance()
	}

	if kind == ONELINE_COMMENT || kind == HASH {
		l.logger.Debug("skipping line", zap.Stringer("kind", kind), zap.Int("line", line))
		l.skipLine()
		return l.Lex()
	}

	return l.token(kind, symbol, line, col), nil
}

func (l *Lexer) skipLine() {
	for l.hasChars() && l.read() != '\n' {
		l.advance()
	}
}

func (l *Lexer) skipWhitespace() {
	for l.hasChars() && l.isCurrSkippable() {
		l.advance()
	}
}

func (l *Lexer) isCurrIdentifierStart() bool {
	return (l.read() >= 'a' && l.read() <= 'z') || (l.read() >= 'A' && l.read() <= 'Z') || l.read() == '_'
}

func (l *Lexer) isCurrDigit() bool {
	return l.read() >= '0' && l.read() <= '9'
}

func (l *Lexer) isCurrSkippable() bool {
	switch l.read() {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}

	return false
}

func (l *Lexer) isCurrTerminator() bool {
	if l.isCurrSkippable() {
		return true
	}

	_, ok := symbols[l.read()]
	return ok
}

func (l *Lexer) hasChars() bool {
	return l.pos < len(l.buf)
}

func (l *Lexer) advance() {
	if l.buf[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) read() byte { return l.buf[l.pos] }

func (l *Lexer) mark() position { return position{pos: l.pos, line: l.line, col: l.col} }

func (l *Lexer) reset(p position) {
	l.pos = p.pos
	l.line = p.line
	l.col = p.col
}
