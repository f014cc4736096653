package parser_test

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/kievzenit/ycc/internal/ast"
	"github.com/kievzenit/ycc/internal/lexer"
	"github.com/kievzenit/ycc/internal/parser"
	"github.com/sanity-io/litter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

type parseCase struct {
	Name  string `yaml:"name"`
	Input string `yaml:"input"`
	AST   string `yaml:"ast"`
}

type errorCase struct {
	Name     string `yaml:"name"`
	Input    string `yaml:"input"`
	Expected string `yaml:"expected"`
	Got      string `yaml:"got"`
}

type fixtureFile struct {
	Tests  []parseCase `yaml:"tests"`
	Errors []errorCase `yaml:"errors"`
}

func loadFixtures(t *testing.T) fixtureFile {
	t.Helper()

	data, err := os.ReadFile("testdata/parse.yaml")
	if err != nil {
		t.Fatalf("failed to read parse.yaml: %v", err)
	}

	var fixtures fixtureFile
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		t.Fatalf("failed to decode parse.yaml: %v", err)
	}

	return fixtures
}

func newParser(src string) *parser.Parser {
	return parser.NewParser(lexer.NewLexerScanner(lexer.NewLexer([]byte(src), nil)), nil)
}

func parseAll(t *testing.T, p *parser.Parser) ([]ast.TopLevel, error) {
	t.Helper()

	var units []ast.TopLevel
	for {
		unit, err := p.ParseTopLevelExpr()
		if err != nil {
			return units, err
		}
		if unit == nil {
			return units, nil
		}
		units = append(units, unit)
	}
}

func TestParseFixtures(t *testing.T) {
	fixtures := loadFixtures(t)

	for _, tc := range fixtures.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			units, err := parseAll(t, newParser(tc.Input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(units) != 1 {
				t.Fatalf("expected 1 top level unit, got %d", len(units))
			}

			if got := sexpr(units[0]); got != tc.AST {
				t.Errorf("expected\n  %s\ngot\n  %s\ntree:\n%s", tc.AST, got, litter.Sdump(units[0]))
			}
		})
	}
}

func TestParseErrorFixtures(t *testing.T) {
	fixtures := loadFixtures(t)

	for _, tc := range fixtures.Errors {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := parseAll(t, newParser(tc.Input))

			var syntaxErr *parser.SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
			if syntaxErr.Expected.String() != tc.Expected {
				t.Errorf("expected Expected=%s, got %s", tc.Expected, syntaxErr.Expected)
			}
			if syntaxErr.Got.String() != tc.Got {
				t.Errorf("expected Got=%s, got %s", tc.Got, syntaxErr.Got)
			}
		})
	}
}

func TestParseSignatureEcho(t *testing.T) {
	units, err := parseAll(t, newParser("double mix(int a, char* b, long long c) { a; b; c; return 1.0; }"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def, ok := units[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected FunctionDef, got %T", units[0])
	}

	if def.Decl.Name != "mix" {
		t.Errorf("expected name mix, got %s", def.Decl.Name)
	}
	if def.Decl.Return != (ast.CType{Kind: ast.Double, Signed: true}) {
		t.Errorf("unexpected return type %s", def.Decl.Return)
	}

	expectedArgs := []ast.Param{
		{Name: "a", Type: ast.CType{Kind: ast.Int, Signed: true}},
		{Name: "b", Type: ast.CType{Kind: ast.Char, Signed: true, PointerDepth: 1}},
		{Name: "c", Type: ast.CType{Kind: ast.Int, Length: ast.LongLong, Signed: true}},
	}
	if litter.Sdump(def.Decl.Args) != litter.Sdump(expectedArgs) {
		t.Errorf("args differ:\n%s", litter.Sdump(def.Decl.Args))
	}

	if len(def.Body) != 4 {
		t.Errorf("expected 4 statements, got %d", len(def.Body))
	}
}

func TestParseMultipleUnits(t *testing.T) {
	units, err := parseAll(t, newParser("int f(int x);\nint g() { return f(1); }\nvoid h(void) {}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	if _, ok := units[0].(*ast.FunctionDecl); !ok {
		t.Errorf("expected FunctionDecl first, got %T", units[0])
	}
	if _, ok := units[1].(*ast.FunctionDef); !ok {
		t.Errorf("expected FunctionDef second, got %T", units[1])
	}
}

func TestParseEndOfInputIsSticky(t *testing.T) {
	p := newParser("   ")
	for i := 0; i < 3; i++ {
		unit, err := p.ParseTopLevelExpr()
		if unit != nil || err != nil {
			t.Fatalf("expected nil, nil; got %v, %v", unit, err)
		}
	}
}

func TestParseLexErrorPropagates(t *testing.T) {
	_, err := parseAll(t, newParser("int f() { return 1 @ 2; }"))

	var lexErr *lexer.LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}
}

func TestParseIntegerOverflow(t *testing.T) {
	_, err := parseAll(t, newParser("int f() { return 99999999999999999999; }"))

	var syntaxErr *parser.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if !strings.Contains(syntaxErr.GetMessage(), "out of range") {
		t.Errorf("unexpected message %q", syntaxErr.GetMessage())
	}
}

func TestParseFromTokenSlice(t *testing.T) {
	tokens, err := lexer.NewLexer([]byte("int f() { return 1 + 2 * 3; }"), nil).Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}

	fromSlice, err := parseAll(t, parser.NewParser(lexer.NewTokenScanner(tokens), nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromLexer, err := parseAll(t, newParser("int f() { return 1 + 2 * 3; }"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sexpr(fromSlice[0]) != sexpr(fromLexer[0]) {
		t.Errorf("trees differ: %s vs %s", sexpr(fromSlice[0]), sexpr(fromLexer[0]))
	}
}

func TestParseNodeIDsAreUnique(t *testing.T) {
	p := newParser(`
int f(int a, int b) {
	int x = a * b + -a;
	if (x > 0) x = x ? a : b; else { while (x < 10) x += 1; }
	for (int i = 0; i < 3; i++) a[i] = p->m;
	return g(x, "s", 'c', 1.5);
}`)

	units, err := parseAll(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	if err := units[0].Accept(ast.NewTracer(zap.New(core))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[int64]bool)
	for _, entry := range logs.All() {
		id := entry.ContextMap()["id"].(int64)
		if id <= 0 || seen[id] {
			t.Fatalf("id %d is not unique", id)
		}
		seen[id] = true
	}

	if len(seen) != p.NodeCount() {
		t.Errorf("expected %d nodes in the tree, got %d", p.NodeCount(), len(seen))
	}
}

func TestParseLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src := "int f(int x);\nint g() { return 0; }"
	p := parser.NewParser(lexer.NewLexerScanner(lexer.NewLexer([]byte(src), nil)), zap.New(core))

	if _, err := parseAll(t, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "parser" }).All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "found function declaration" {
		t.Errorf("unexpected message %q", entries[0].Message)
	}
	if entries[1].Message != "found function definition" {
		t.Errorf("unexpected message %q", entries[1].Message)
	}
}

// sexpr renders a tree as a compact s-expression for comparison with
// fixtures.
func sexpr(n ast.Node) string {
	switch n := n.(type) {
	case *ast.FunctionDecl:
		parts := []string{"decl", n.Return.String(), n.Name}
		for _, arg := range n.Args {
			parts = append(parts, fmt.Sprintf("(%s %s)", arg.Type, arg.Name))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.FunctionDef:
		return list("def "+sexpr(n.Decl), n.Body)
	case *ast.VariableDecl:
		if n.Init == nil {
			return fmt.Sprintf("(var %s %s)", n.Type, n.Name)
		}
		return fmt.Sprintf("(var %s %s %s)", n.Type, n.Name, sexpr(n.Init))
	case *ast.IfCond:
		return fmt.Sprintf("(if %s %s %s)", sexpr(n.Cond), list("then", n.Then), list("else", n.Else))
	case *ast.WhileLoop:
		return list("while "+sexpr(n.Cond), n.Body)
	case *ast.ForLoop:
		return list(fmt.Sprintf("for %s %s %s", optional(n.Init), optional(n.Cond), optional(n.Step)), n.Body)
	case *ast.Return:
		if n.Expr == nil {
			return "(return)"
		}
		return fmt.Sprintf("(return %s)", sexpr(n.Expr))
	case *ast.UnaryOp:
		return fmt.Sprintf("(unary %s %s)", n.Op, sexpr(n.Expr))
	case *ast.BinaryOp:
		return fmt.Sprintf("(%s %s %s)", n.Op, sexpr(n.Left), sexpr(n.Right))
	case *ast.TernaryCond:
		return fmt.Sprintf("(? %s %s %s)", sexpr(n.Cond), sexpr(n.Then), sexpr(n.Else))
	case *ast.IntegerLiteral:
		return strconv.FormatUint(n.Value, 10)
	case *ast.FloatLiteral:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.CharLiteral:
		return fmt.Sprintf("'%c'", n.Value)
	case *ast.StringLiteral:
		return strconv.Quote(n.Value)
	case *ast.VariableRef:
		return n.Name
	case *ast.MemberAccess:
		return fmt.Sprintf("(. %s %s)", sexpr(n.Expr), n.MemberName)
	case *ast.FunctionCall:
		parts := []string{"call", n.Name}
		for _, arg := range n.Args {
			parts = append(parts, sexpr(arg))
		}
		return "(" + strings.Join(parts, " ") + ")"
	}

	return fmt.Sprintf("<%T>", n)
}

func list(head string, stmts []ast.Stmt) string {
	parts := []string{head}
	for _, stmt := range stmts {
		parts = append(parts, sexpr(stmt))
	}

	return "(" + strings.Join(parts, " ") + ")"
}

func optional(n ast.Node) string {
	if n == nil {
		return "_"
	}

	return sexpr(n)
}
