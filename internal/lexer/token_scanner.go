package lexer

// TokenScanner is the parser's view of the token stream: a cursor with one
// token of lookahead.
type TokenScanner interface {
	Read() (Token, error)
	Peek() (Token, error)
}

// LexerScanner pulls tokens from a Lexer on demand.
type LexerScanner struct {
	lexer *Lexer

	peeked *Token
}

func NewLexerScanner(lexer *Lexer) TokenScanner {
	return &LexerScanner{
		lexer: lexer,
	}
}

func (s *LexerScanner) Read() (Token, error) {
	if s.peeked != nil {
		token := *s.peeked
		s.peeked = nil
		return token, nil
	}

	return s.lexer.Lex()
}

func (s *LexerScanner) Peek() (Token, error) {
	if s.peeked != nil {
		return *s.peeked, nil
	}

	token, err := s.lexer.Lex()
	if err != nil {
		return Token{}, err
	}
	s.peeked = &token

	return token, nil
}

// SimpleTokenScanner replays an already lexed token slice. Reading past the
// end keeps returning EOF.
type SimpleTokenScanner struct {
	tokens []Token

	pos int
}

func NewTokenScanner(tokens []Token) TokenScanner {
	return &SimpleTokenScanner{
		tokens: tokens,
	}
}

func (s *SimpleTokenScanner) Read() (Token, error) {
	token, _ := s.Peek()
	if s.pos < len(s.tokens) {
		s.pos++
	}

	return token, nil
}

func (s *SimpleTokenScanner) Peek() (Token, error) {
	if s.pos >= len(s.tokens) {
		return Token{Kind: EOF}, nil
	}

	return s.tokens[s.pos], nil
}
