package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kievzenit/ycc/internal/ast"
	"github.com/kievzenit/ycc/internal/compiler"
	"github.com/kievzenit/ycc/internal/compiler_errors"
	l "github.com/kievzenit/ycc/internal/lexer"
	"github.com/kievzenit/ycc/internal/parser"
	"github.com/sanity-io/litter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"tinygo.org/x/go-llvm"
)

var (
	output     = flag.String("o", "", "Output file (.bc writes bitcode, anything else textual IR)")
	emitTokens = flag.Bool("emit-tokens", false, "Print the token stream before compiling")
	emitAST    = flag.Bool("emit-ast", false, "Print the AST and stop")
	trace      = flag.Bool("trace", false, "Log every AST node before it is lowered")
	verbose    = flag.Bool("v", false, "Enable debug logging")
	keepGoing  = flag.Bool("keep-going", false, "Skip functions that fail code generation")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ycc [options] <file.c>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(args[0]))
}

func run(fileName string) int {
	fileData, err := os.ReadFile(fileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	eh := compiler_errors.NewErrorHandler(os.Stderr)

	lexer := l.NewLexer(fileData, logger)
	var scanner l.TokenScanner = l.NewLexerScanner(lexer)
	if *emitTokens {
		tokens, err := lexer.Tokenize()
		if err != nil {
			eh.AddError(compiler_errors.From(err))
			eh.Report()
			return 1
		}
		for _, token := range tokens {
			fmt.Println(token.String())
		}
		scanner = l.NewTokenScanner(tokens)
	}

	if *emitAST {
		return dumpAST(scanner, logger, eh)
	}

	c := compiler.New(compiler.Config{
		KeepGoing:  *keepGoing,
		Trace:      *trace,
		ModuleName: strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
	}, compiler.WithLogger(logger), compiler.WithErrorHandler(eh))

	mod, err := c.CompileTokens(scanner)
	defer mod.Context().Dispose()
	if err != nil {
		eh.Report()
		return 1
	}

	if err := writeModule(mod, *output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}

func dumpAST(scanner l.TokenScanner, logger *zap.Logger, eh compiler_errors.ErrorHandler) int {
	p := parser.NewParser(scanner, logger)

	units := make([]ast.TopLevel, 0)
	for {
		unit, err := p.ParseTopLevelExpr()
		if err != nil {
			eh.AddError(compiler_errors.From(err))
			break
		}
		if unit == nil {
			break
		}
		units = append(units, unit)
	}

	litter.Dump(units)

	if eh.HasErrors() {
		eh.Report()
		return 1
	}
	return 0
}

func writeModule(mod llvm.Module, path string) error {
	if path == "" {
		_, err := fmt.Print(mod.String())
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if filepath.Ext(path) == ".bc" {
		return llvm.WriteBitcodeToFile(mod, f)
	}

	_, err = f.WriteString(mod.String())
	return err
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return cfg.Build()
}
