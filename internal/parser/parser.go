package parser

import (
	"slices"
	"strconv"

	"github.com/kievzenit/ycc/internal/ast"
	"github.com/kievzenit/ycc/internal/lexer"
	"go.uber.org/zap"
)

var assignOps = []lexer.TokenKind{
	lexer.ASSIGN,
	lexer.ADD_ASSIGN,
	lexer.SUB_ASSIGN,
	lexer.MUL_ASSIGN,
	lexer.DIV_ASSIGN,
	lexer.MOD_ASSIGN,
	lexer.BAND_ASSIGN,
	lexer.BOR_ASSIGN,
	lexer.XOR_ASSIGN,
	lexer.SHL_ASSIGN,
	lexer.SHR_ASSIGN,
}

// binaryLevels lists the left-associative operator levels from the loosest
// binding to the tightest. The level after the last one is unary.
var binaryLevels = [][]lexer.TokenKind{
	{lexer.LOR},
	{lexer.LAND},
	{lexer.BOR},
	{lexer.XOR},
	{lexer.BAND},
	{lexer.EQ, lexer.NEQ},
	{lexer.LT, lexer.GT, lexer.LEQ, lexer.GEQ},
	{lexer.SHL, lexer.SHR},
	{lexer.PLUS, lexer.MINUS},
	{lexer.ASTERISK, lexer.SLASH, lexer.PERCENT},
}

type Parser struct {
	scanner lexer.TokenScanner
	logger  *zap.Logger

	arena ast.Arena

	started bool
	curr    lexer.Token
}

func NewParser(scanner lexer.TokenScanner, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Parser{
		scanner: scanner,
		logger:  logger.Named("parser"),
	}
}

// NodeCount returns how many nodes this parser has allocated so far.
func (p *Parser) NodeCount() int {
	return p.arena.Len()
}

// ParseTopLevelExpr parses the next function declaration or definition. It
// returns nil and no error once the input is exhausted. After an error the
// token cursor is left inside the failed unit.
func (p *Parser) ParseTopLevelExpr() (node ast.TopLevel, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}

			node = nil
			err = b.err
		}
	}()

	if !p.started {
		p.started = true
		p.read()
	}

	if p.curr.Kind == lexer.EOF {
		return nil, nil
	}

	return p.parseTopLevel(), nil
}

func (p *Parser) parseTopLevel() ast.TopLevel {
	returnType := p.parseType()

	name := p.expect(lexer.IDENT).Value
	p.expect(lexer.LPAREN)
	args := p.parseParams()

	decl := &ast.FunctionDecl{
		Base:   p.arena.Base(),
		Name:   name,
		Return: returnType,
		Args:   args,
	}

	if p.consume(lexer.SEMICOLON) {
		p.logger.Debug("found function declaration", zap.String("name", name), zap.Int("args", len(args)))
		return decl
	}

	body := p.parseBlock()
	p.logger.Debug("found function definition", zap.String("name", name), zap.Int("stmts", len(body)))

	return &ast.FunctionDef{
		Base: p.arena.Base(),
		Decl: decl,
		Body: body,
	}
}

// parseParams parses the parameter list after the opening paren, up to and
// including the closing one.
func (p *Parser) parseParams() []ast.Param {
	args := make([]ast.Param, 0)
	if p.consume(lexer.RPAREN) {
		return args
	}

	if p.curr.Kind == lexer.VOID && p.peek().Kind == lexer.RPAREN {
		p.read()
		p.read()
		return args
	}

	for {
		argType := p.parseType()
		argName := p.expect(lexer.IDENT).Value

		args = append(args, ast.Param{
			Name: argName,
			Type: argType,
		})

		if p.consume(lexer.RPAREN) {
			return args
		}
		p.expect(lexer.COMMA)
	}
}

func (p *Parser) parseType() ast.CType {
	t := ast.CType{Kind: ast.Int, Signed: true}
	modified := false

	if p.consume(lexer.UNSIGNED) {
		t.Signed = false
		modified = true
	}

	switch p.curr.Kind {
	case lexer.SHORT:
		p.read()
		t.Length = ast.Short
		modified = true
	case lexer.LONG:
		p.read()
		t.Length = ast.Long
		if p.consume(lexer.LONG) {
			t.Length = ast.LongLong
		}
		modified = true
	}

	switch p.curr.Kind {
	case lexer.INT_KW:
		t.Kind = ast.Int
		p.read()
	case lexer.CHAR_KW:
		t.Kind = ast.Char
		p.read()
	case lexer.FLOAT_KW:
		t.Kind = ast.Float
		p.read()
	case lexer.DOUBLE:
		t.Kind = ast.Double
		p.read()
	case lexer.VOID:
		t.Kind = ast.Void
		p.read()
	default:
		if !modified {
			p.unexpected()
		}
	}

	for p.consume(lexer.ASTERISK) {
		t.PointerDepth++
	}

	return t
}

// parseBlock parses a braced statement list.
func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(lexer.LBRACE)

	stmts := make([]ast.Stmt, 0)
	for p.curr.Kind != lexer.RBRACE {
		if p.curr.Kind == lexer.EOF {
			p.expect(lexer.RBRACE)
		}
		stmts = append(stmts, p.parseStmt())
	}
	p.read()

	return stmts
}

// parseBody parses either a braced block or a single statement.
func (p *Parser) parseBody() []ast.Stmt {
	if p.curr.Kind == lexer.LBRACE {
		return p.parseBlock()
	}

	return []ast.Stmt{p.parseStmt()}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.curr.Kind {
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	}

	if p.curr.Kind.IsTypeKeyword() {
		return p.parseVarDeclStmt()
	}

	return p.parseExprStmt()
}

func (p *Parser) parseIfStmt() *ast.IfCond {
	p.expect(lexer.IF)

	cond := p.parseParenExpr()
	then := p.parseBody()

	var els []ast.Stmt
	if p.consume(lexer.ELSE) {
		els = p.parseBody()
	}

	return &ast.IfCond{
		Base: p.arena.Base(),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *Parser) parseForStmt() *ast.ForLoop {
	p.expect(lexer.FOR)
	p.expect(lexer.LPAREN)

	var init ast.Stmt
	switch {
	case p.consume(lexer.SEMICOLON):
	case p.curr.Kind.IsTypeKeyword():
		init = p.parseVarDeclStmt()
	default:
		init = p.parseExprStmt()
	}

	var cond ast.Expr
	if p.curr.Kind != lexer.SEMICOLON {
		cond = p.parseExpr()
	}
	p.expect(lexer.SEMICOLON)

	var step ast.Expr
	if p.curr.Kind != lexer.RPAREN {
		step = p.parseExpr()
	}
	p.expect(lexer.RPAREN)

	body := p.parseBody()

	return &ast.ForLoop{
		Base: p.arena.Base(),
		Init: init,
		Cond: cond,
		Step: step,
		Body: body,
	}
}

func (p *Parser) parseWhileStmt() *ast.WhileLoop {
	p.expect(lexer.WHILE)

	cond := p.parseParenExpr()
	body := p.parseBody()

	return &ast.WhileLoop{
		Base: p.arena.Base(),
		Cond: cond,
		Body: body,
	}
}

func (p *Parser) parseReturnStmt() *ast.Return {
	p.expect(lexer.RETURN)

	if p.consume(lexer.SEMICOLON) {
		return &ast.Return{Base: p.arena.Base()}
	}

	expr := p.parseExpr()
	p.expect(lexer.SEMICOLON)

	return &ast.Return{
		Base: p.arena.Base(),
		Expr: expr,
	}
}

func (p *Parser) parseVarDeclStmt() *ast.VariableDecl {
	varType := p.parseType()
	name := p.expect(lexer.IDENT).Value

	var init ast.Expr
	if p.consume(lexer.ASSIGN) {
		init = p.parseAssignExpr()
	}
	p.expect(lexer.SEMICOLON)

	return &ast.VariableDecl{
		Base: p.arena.Base(),
		Type: varType,
		Name: name,
		Init: init,
	}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr()
	p.expect(lexer.SEMICOLON)

	return expr
}

func (p *Parser) parseParenExpr() ast.Expr {
	p.expect(lexer.LPAREN)
	expr := p.parseExpr()
	p.expect(lexer.RPAREN)

	return expr
}

func (p *Parser) parseExpr() ast.Expr {
	left := p.parseAssignExpr()

	for p.curr.Kind == lexer.COMMA {
		p.read()
		right := p.parseAssignExpr()
		left = p.binary(lexer.COMMA, left, right)
	}

	return left
}

func (p *Parser) parseAssignExpr() ast.Expr {
	left := p.parseTernaryExpr()

	if !p.isCurrAny(assignOps...) {
		return left
	}

	op := p.curr.Kind
	p.read()
	right := p.parseAssignExpr()

	return p.binary(op, left, right)
}

func (p *Parser) parseTernaryExpr() ast.Expr {
	cond := p.parseBinaryExpr(0)

	if !p.consume(lexer.QMARK) {
		return cond
	}

	then := p.parseExpr()
	p.expect(lexer.COLON)
	els := p.parseTernaryExpr()

	return &ast.TernaryCond{
		Base: p.arena.Base(),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *Parser) parseBinaryExpr(level int) ast.Expr {
	if level == len(binaryLevels) {
		return p.parseUnaryExpr()
	}

	left := p.parseBinaryExpr(level + 1)
	for p.isCurrAny(binaryLevels[level]...) {
		op := p.curr.Kind
		p.read()
		right := p.parseBinaryExpr(level + 1)
		left = p.binary(op, left, right)
	}

	return left
}

func (p *Parser) parseUnaryExpr() ast.Expr {
	switch p.curr.Kind {
	case lexer.MINUS:
		p.read()
		expr := p.parseUnaryExpr()
		return p.binary(lexer.MINUS, p.integer(0), expr)
	case lexer.INC, lexer.DEC:
		op := lexer.PLUS
		if p.curr.Kind == lexer.DEC {
			op = lexer.MINUS
		}
		p.read()
		expr := p.parseUnaryExpr()
		return p.binary(op, expr, p.integer(1))
	case lexer.ASTERISK, lexer.PLUS, lexer.XMARK, lexer.SIZEOF:
		op := p.curr.Kind
		p.read()
		expr := p.parseUnaryExpr()
		return p.unary(op, expr)
	}

	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() ast.Expr {
	expr := p.parsePrimaryExpr()

	for {
		switch p.curr.Kind {
		case lexer.INC, lexer.DEC:
			op := p.curr.Kind
			p.read()
			expr = p.unary(op, expr)
		case lexer.DOT:
			p.read()
			expr = p.member(expr, p.expect(lexer.IDENT).Value)
		case lexer.ARROW:
			p.read()
			expr = p.member(p.unary(lexer.ASTERISK, expr), p.expect(lexer.IDENT).Value)
		case lexer.LBRACKET:
			p.read()
			index := p.parseAssignExpr()
			p.expect(lexer.RBRACKET)
			expr = p.unary(lexer.ASTERISK, p.binary(lexer.PLUS, expr, index))
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expr {
	switch p.curr.Kind {
	case lexer.INT:
		return p.parseIntegerExpr()
	case lexer.FLOAT:
		return p.parseFloatExpr()
	case lexer.CHAR:
		token := p.curr
		p.read()
		return &ast.CharLiteral{Base: p.arena.Base(), Value: token.Value[0]}
	case lexer.STRING:
		token := p.curr
		p.read()
		return &ast.StringLiteral{Base: p.arena.Base(), Value: token.Value}
	case lexer.IDENT:
		name := p.curr.Value
		p.read()
		if p.curr.Kind == lexer.LPAREN {
			return p.parseCallExpr(name)
		}
		return &ast.VariableRef{Base: p.arena.Base(), Name: name}
	case lexer.LPAREN:
		return p.parseParenExpr()
	}

	p.unexpected()
	panic("unreachable")
}

func (p *Parser) parseCallExpr(name string) *ast.FunctionCall {
	p.expect(lexer.LPAREN)

	args := make([]ast.Expr, 0)
	if !p.consume(lexer.RPAREN) {
		for {
			args = append(args, p.parseAssignExpr())
			if p.consume(lexer.RPAREN) {
				break
			}
			p.expect(lexer.COMMA)
		}
	}

	return &ast.FunctionCall{
		Base: p.arena.Base(),
		Name: name,
		Args: args,
	}
}

func (p *Parser) parseIntegerExpr() *ast.IntegerLiteral {
	token := p.expect(lexer.INT)

	value, err := strconv.ParseUint(token.Value, 10, 64)
	if err != nil {
		p.fail(&SyntaxError{
			Expected: lexer.INT,
			Got:      token.Kind,
			Text:     token.Value,
			Message:  "integer literal out of range: " + token.Value,
			Line:     token.Line,
			Column:   token.Column,
		})
	}

	return p.integer(value)
}

func (p *Parser) parseFloatExpr() *ast.FloatLiteral {
	token := p.expect(lexer.FLOAT)

	value, err := strconv.ParseFloat(token.Value, 64)
	if err != nil {
		p.fail(&SyntaxError{
			Expected: lexer.FLOAT,
			Got:      token.Kind,
			Text:     token.Value,
			Message:  "malformed float literal: " + token.Value,
			Line:     token.Line,
			Column:   token.Column,
		})
	}

	return &ast.FloatLiteral{Base: p.arena.Base(), Value: value}
}

func (p *Parser) integer(value uint64) *ast.IntegerLiteral {
	return &ast.IntegerLiteral{Base: p.arena.Base(), Value: value}
}

func (p *Parser) unary(op lexer.TokenKind, expr ast.Expr) *ast.UnaryOp {
	return &ast.UnaryOp{Base: p.arena.Base(), Op: op, Expr: expr}
}

func (p *Parser) binary(op lexer.TokenKind, left, right ast.Expr) *ast.BinaryOp {
	return &ast.BinaryOp{Base: p.arena.Base(), Op: op, Left: left, Right: right}
}

func (p *Parser) member(expr ast.Expr, name string) *ast.MemberAccess {
	return &ast.MemberAccess{Base: p.arena.Base(), Expr: expr, MemberName: name}
}

func (p *Parser) read() lexer.Token {
	token, err := p.scanner.Read()
	if err != nil {
		p.fail(err)
	}
	p.curr = token

	return p.curr
}

func (p *Parser) peek() lexer.Token {
	token, err := p.scanner.Peek()
	if err != nil {
		p.fail(err)
	}

	return token
}

// consume advances past the current token only if it has the given kind.
func (p *Parser) consume(kind lexer.TokenKind) bool {
	if p.curr.Kind != kind {
		return false
	}
	p.read()

	return true
}

// expect consumes a token of the given kind and returns it.
func (p *Parser) expect(kind lexer.TokenKind) lexer.Token {
	token := p.curr
	if token.Kind != kind {
		p.fail(&SyntaxError{
			Expected: kind,
			Got:      token.Kind,
			Text:     token.Value,
			Line:     token.Line,
			Column:   token.Column,
		})
	}
	p.read()

	return token
}

func (p *Parser) isCurrAny(kinds ...lexer.TokenKind) bool {
	return slices.Contains(kinds, p.curr.Kind)
}

func (p *Parser) unexpected() {
	p.fail(&SyntaxError{
		Expected: lexer.None,
		Got:      p.curr.Kind,
		Text:     p.curr.Value,
		Line:     p.curr.Line,
		Column:   p.curr.Column,
	})
}

func (p *Parser) fail(err error) {
	p.logger.Debug("parse failed", zap.Error(err))
	panic(bailout{err: err})
}
