package lexer

import (
	"fmt"
	"strings"
)

type TokenKind int

const (
	None TokenKind = iota
	EOF

	IDENT

	INT
	FLOAT
	CHAR
	STRING

	IF
	ELSE
	FOR
	WHILE
	RETURN
	SIZEOF
	VOID
	CHAR_KW
	INT_KW
	FLOAT_KW
	DOUBLE
	UNSIGNED
	SHORT
	LONG
	ENUM
	STRUCT

	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	COMMA     // ,
	SEMICOLON // ;
	COLON     // :
	QMARK     // ?

	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %

	ASSIGN     // =
	ADD_ASSIGN // +=
	SUB_ASSIGN // -=
	MUL_ASSIGN // *=
	DIV_ASSIGN // /=
	MOD_ASSIGN // %=

	LT  // <
	LEQ // <=
	GT  // >
	GEQ // >=
	EQ  // ==
	NEQ // !=

	SHL        // <<
	SHL_ASSIGN // <<=
	SHR        // >>
	SHR_ASSIGN // >>=

	BAND        // &
	BAND_ASSIGN // &=
	BOR         // |
	BOR_ASSIGN  // |=
	XOR         // ^
	XOR_ASSIGN  // ^=
	LAND        // &&
	LOR         // ||
	XMARK       // !

	DOT   // .
	ARROW // ->
	INC   // ++
	DEC   // --

	ONELINE_COMMENT // //
	HASH            // #
)

var tokenKindNames = map[TokenKind]string{
	None: "None",
	EOF:  "EOF",

	IDENT: "IDENT",

	INT:    "INT",
	FLOAT:  "FLOAT",
	CHAR:   "CHAR",
	STRING: "STRING",

	IF:       "IF",
	ELSE:     "ELSE",
	FOR:      "FOR",
	WHILE:    "WHILE",
	RETURN:   "RETURN",
	SIZEOF:   "SIZEOF",
	VOID:     "VOID",
	CHAR_KW:  "CHAR_KW",
	INT_KW:   "INT_KW",
	FLOAT_KW: "FLOAT_KW",
	DOUBLE:   "DOUBLE",
	UNSIGNED: "UNSIGNED",
	SHORT:    "SHORT",
	LONG:     "LONG",
	ENUM:     "ENUM",
	STRUCT:   "STRUCT",

	LBRACE:   "LBRACE",
	RBRACE:   "RBRACE",
	LPAREN:   "LPAREN",
	RPAREN:   "RPAREN",
	LBRACKET: "LBRACKET",
	RBRACKET: "RBRACKET",

	COMMA:     "COMMA",
	SEMICOLON: "SEMICOLON",
	COLON:     "COLON",
	QMARK:     "QMARK",

	PLUS:     "PLUS",
	MINUS:    "MINUS",
	ASTERISK: "ASTERISK",
	SLASH:    "SLASH",
	PERCENT:  "PERCENT",

	ASSIGN:     "ASSIGN",
	ADD_ASSIGN: "ADD_ASSIGN",
	SUB_ASSIGN: "SUB_ASSIGN",
	MUL_ASSIGN: "MUL_ASSIGN",
	DIV_ASSIGN: "DIV_ASSIGN",
	MOD_ASSIGN: "MOD_ASSIGN",

	LT:  "LT",
	LEQ: "LEQ",
	GT:  "GT",
	GEQ: "GEQ",
	EQ:  "EQ",
	NEQ: "NEQ",

	SHL:        "SHL",
	SHL_ASSIGN: "SHL_ASSIGN",
	SHR:        "SHR",
	SHR_ASSIGN: "SHR_ASSIGN",

	BAND:        "BAND",
	BAND_ASSIGN: "BAND_ASSIGN",
	BOR:         "BOR",
	BOR_ASSIGN:  "BOR_ASSIGN",
	XOR:         "XOR",
	XOR_ASSIGN:  "XOR_ASSIGN",
	LAND:        "LAND",
	LOR:         "LOR",
	XMARK:       "XMARK",

	DOT:   "DOT",
	ARROW: "ARROW",
	INC:   "INC",
	DEC:   "DEC",

	ONELINE_COMMENT: "ONELINE_COMMENT",
	HASH:            "HASH",
}

func (tk TokenKind) String() string {
	if name, ok := tokenKindNames[tk]; ok {
		return name
	}

	panic(fmt.Sprintf("TokenKind.String(): received illegal token kind: %d", int(tk)))
}

// IsTypeKeyword reports whether tk can begin a type name.
func (tk TokenKind) IsTypeKeyword() bool {
	switch tk {
	case VOID, CHAR_KW, INT_KW, FLOAT_KW, DOUBLE, UNSIGNED, SHORT, LONG:
		return true
	}

	return false
}

var keywords = map[string]TokenKind{
	"if":       IF,
	"else":     ELSE,
	"for":      FOR,
	"while":    WHILE,
	"return":   RETURN,
	"sizeof":   SIZEOF,
	"void":     VOID,
	"char":     CHAR_KW,
	"int":      INT_KW,
	"float":    FLOAT_KW,
	"double":   DOUBLE,
	"unsigned": UNSIGNED,
	"short":    SHORT,
	"long":     LONG,
	"enum":     ENUM,
	"struct":   STRUCT,
}

var symbols = map[byte]TokenKind{
	'{': LBRACE,
	'}': RBRACE,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	',': COMMA,
	';': SEMICOLON,
	':': COLON,
	'?': QMARK,
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'%': PERCENT,
	'<': LT,
	'>': GT,
	'=': ASSIGN,
	'.': DOT,
	'&': BAND,
	'|': BOR,
	'^': XOR,
	'!': XMARK,
	'#': HASH,
}

var compoundSymbols = map[string]TokenKind{
	"+=":  ADD_ASSIGN,
	"-=":  SUB_ASSIGN,
	"*=":  MUL_ASSIGN,
	"/=":  DIV_ASSIGN,
	"%=":  MOD_ASSIGN,
	"==":  EQ,
	"!=":  NEQ,
	"<=":  LEQ,
	">=":  GEQ,
	"<<":  SHL,
	"<<=": SHL_ASSIGN,
	">>":  SHR,
	">>=": SHR_ASSIGN,
	"&=":  BAND_ASSIGN,
	"|=":  BOR_ASSIGN,
	"^=":  XOR_ASSIGN,
	"&&":  LAND,
	"||":  LOR,
	"++":  INC,
	"--":  DEC,
	"->":  ARROW,
	"//":  ONELINE_COMMENT,
}

type Token struct {
	Kind  TokenKind
	Value string

	Line, Column int
}

func (t *Token) hasActualValue() bool {
	switch t.Kind {
	case INT, FLOAT, CHAR, STRING, IDENT:
		return true
	}

	return false
}

func (t *Token) String() string {
	if !t.hasActualValue() {
		return fmt.Sprintf("%s()", t.Kind)
	}

	return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
}

// Source renders the token back into text the lexer accepts.
func (t *Token) Source() string {
	switch t.Kind {
	case CHAR:
		return "'" + escape(t.Value, '\'') + "'"
	case STRING:
		return `"` + escape(t.Value, '"') + `"`
	case EOF, None:
		return ""
	}

	return t.Value
}

func escape(s string, quote byte) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '\\':
			sb.WriteString(`\\`)
		case quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}
