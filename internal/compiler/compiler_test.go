package compiler_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kievzenit/ycc/internal/compiler"
	"github.com/kievzenit/ycc/internal/compiler_errors"
	"github.com/kievzenit/ycc/internal/emitter"
	"github.com/kievzenit/ycc/internal/lexer"
	"github.com/kievzenit/ycc/internal/parser"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"tinygo.org/x/go-llvm"
)

const program = `
#include <stdio.h>

int puts(char* s);

// sums the numbers below n
int sum(int n) {
	int total = 0;
	int i = 0;
	while (i < n) {
		total += i;
		i = i + 1;
	}
	return total;
}

int main() {
	puts("hello");
	return sum(10) > 40 ? 0 : 1;
}
`

func compile(t *testing.T, c *compiler.Compiler, src string) (llvm.Module, error) {
	t.Helper()

	mod, err := c.Compile([]byte(src))
	t.Cleanup(func() { mod.Context().Dispose() })

	return mod, err
}

func TestCompileProgram(t *testing.T) {
	mod, err := compile(t, compiler.New(compiler.Config{}), program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"puts", "sum", "main"} {
		if mod.NamedFunction(name).IsNil() {
			t.Errorf("expected function %s in module", name)
		}
	}
	if err := llvm.VerifyModule(mod, llvm.ReturnStatusAction); err != nil {
		t.Errorf("module failed verification: %v", err)
	}
}

func TestLoggerDoesNotChangeOutput(t *testing.T) {
	plain, err := compile(t, compiler.New(compiler.Config{}), program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	logged, err := compile(t, compiler.New(compiler.Config{Trace: true}, compiler.WithLogger(zap.New(core))), program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plain.String() != logged.String() {
		t.Errorf("module text differs with a logger attached")
	}
	if logs.Len() == 0 {
		t.Errorf("expected log entries")
	}
	for _, name := range []string{"lexer", "parser", "emitter", "tracer", "compiler"} {
		if logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == name }).Len() == 0 {
			t.Errorf("expected entries from the %s logger", name)
		}
	}
}

func TestStopsAtFirstError(t *testing.T) {
	src := "int f() { return x; }\nint g() { return 1; }"

	mod, err := compile(t, compiler.New(compiler.Config{}), src)

	var codeGenErr *emitter.CodeGenError
	if !errors.As(err, &codeGenErr) {
		t.Fatalf("expected CodeGenError, got %v", err)
	}
	if !mod.NamedFunction("g").IsNil() {
		t.Errorf("expected compilation to stop before g")
	}
}

func TestKeepGoing(t *testing.T) {
	src := "int f() { return x; }\nint g() { return y; }\nint h() { return 1; }"

	mod, err := compile(t, compiler.New(compiler.Config{KeepGoing: true}), src)

	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", n, err)
	}
	if mod.NamedFunction("h").IsNil() {
		t.Errorf("expected h to be generated")
	}
	if !mod.NamedFunction("f").IsNil() {
		t.Errorf("expected failed f to be removed")
	}
}

func TestKeepGoingStopsOnSyntaxError(t *testing.T) {
	src := "int f( { }\nint h() { return 1; }"

	mod, err := compile(t, compiler.New(compiler.Config{KeepGoing: true}), src)

	var syntaxErr *parser.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if !mod.NamedFunction("h").IsNil() {
		t.Errorf("expected compilation to stop at the syntax error")
	}
}

func TestLexErrorIsReturned(t *testing.T) {
	_, err := compile(t, compiler.New(compiler.Config{}), "int f() { return 1 $ 2; }")

	var lexErr *lexer.LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected LexError, got %v", err)
	}
}

func TestErrorHandlerCollects(t *testing.T) {
	var out bytes.Buffer
	eh := compiler_errors.NewErrorHandler(&out)

	c := compiler.New(compiler.Config{KeepGoing: true}, compiler.WithErrorHandler(eh))
	if _, err := compile(t, c, "int f() { return x; }\nint g(int a) { return g(a, a); }"); err == nil {
		t.Fatalf("expected an error")
	}

	eh.Report()
	report := out.String()
	if !strings.HasPrefix(report, "Build failed with errors:\n") {
		t.Errorf("unexpected report %q", report)
	}
	for _, fragment := range []string{"undefined variable x", "expected 1 but got 2"} {
		if !strings.Contains(report, fragment) {
			t.Errorf("expected %q in report %q", fragment, report)
		}
	}
}

func TestCompileTokens(t *testing.T) {
	tokens, err := lexer.NewLexer([]byte(program), nil).Tokenize()
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}

	c := compiler.New(compiler.Config{ModuleName: "tokens"})
	mod, err := c.CompileTokens(lexer.NewTokenScanner(tokens))
	t.Cleanup(func() { mod.Context().Dispose() })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	direct, err := compile(t, compiler.New(compiler.Config{ModuleName: "tokens"}), program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mod.String() != direct.String() {
		t.Errorf("module text differs between token slice and lexer input")
	}
}
