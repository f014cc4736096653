package compiler

import (
	"errors"
	"io"

	"github.com/kievzenit/ycc/internal/ast"
	"github.com/kievzenit/ycc/internal/compiler_errors"
	"github.com/kievzenit/ycc/internal/emitter"
	"github.com/kievzenit/ycc/internal/lexer"
	"github.com/kievzenit/ycc/internal/parser"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"tinygo.org/x/go-llvm"
)

const defaultModuleName = "main"

type Config struct {
	// KeepGoing skips a top level unit that fails code generation instead
	// of stopping. Lex and syntax errors always stop.
	KeepGoing bool
	// Trace logs every parsed node before it is lowered.
	Trace bool

	ModuleName string
}

type Option func(*Compiler)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler makes the compiler record every failure in eh as well as
// returning it.
func WithErrorHandler(eh compiler_errors.ErrorHandler) Option {
	return func(c *Compiler) {
		if eh != nil {
			c.eh = eh
		}
	}
}

// Compiler drives the pipeline from source text to an IR module. It is the
// single place where lex, syntax and code generation errors are caught.
type Compiler struct {
	cfg Config

	logger *zap.Logger
	eh     compiler_errors.ErrorHandler
}

func New(cfg Config, opts ...Option) *Compiler {
	if cfg.ModuleName == "" {
		cfg.ModuleName = defaultModuleName
	}

	c := &Compiler{
		cfg:    cfg,
		logger: zap.NewNop(),
		eh:     compiler_errors.NewErrorHandler(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Compiler) Compile(src []byte) (llvm.Module, error) {
	return c.CompileTokens(lexer.NewLexerScanner(lexer.NewLexer(src, c.logger)))
}

// CompileTokens parses and lowers units from scanner until the input ends
// or a unit fails. The module is returned even on failure and holds every
// function generated before the error. Disposing of the module's context is
// up to the caller.
func (c *Compiler) CompileTokens(scanner lexer.TokenScanner) (llvm.Module, error) {
	logger := c.logger.Named("compiler")

	p := parser.NewParser(scanner, c.logger)
	e := emitter.NewEmitter(c.cfg.ModuleName, c.logger)

	var tracer *ast.Tracer
	if c.cfg.Trace {
		tracer = ast.NewTracer(c.logger)
	}

	var errs error
	fail := func(err error) {
		errs = multierr.Append(errs, err)
		c.eh.AddError(compiler_errors.From(err))
	}

	units := 0
	for {
		unit, err := p.ParseTopLevelExpr()
		if err != nil {
			logger.Error("unit failed", zap.Error(err))
			fail(err)
			break
		}
		if unit == nil {
			break
		}
		units++

		if tracer != nil {
			if err := unit.Accept(tracer); err != nil {
				fail(err)
				break
			}
		}

		if err := e.Generate(unit); err != nil {
			logger.Error("unit failed", zap.Int("unit", units), zap.Error(err))
			fail(err)

			var codeGenErr *emitter.CodeGenError
			if c.cfg.KeepGoing && errors.As(err, &codeGenErr) {
				continue
			}
			break
		}
	}

	logger.Info("compilation finished",
		zap.String("module", c.cfg.ModuleName),
		zap.Int("units", units),
		zap.Int("errors", len(multierr.Errors(errs))))

	return e.Release(), errs
}
