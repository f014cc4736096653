package compiler_errors_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kievzenit/ycc/internal/compiler_errors"
	"go.uber.org/multierr"
)

type plainCompilerError string

func (e plainCompilerError) GetMessage() string { return string(e) }

type richError struct{}

func (richError) GetMessage() string { return "rich message" }
func (richError) Error() string      { return "rich error" }

func TestReport(t *testing.T) {
	var out bytes.Buffer
	eh := compiler_errors.NewErrorHandler(&out)

	eh.Report()
	if out.Len() != 0 {
		t.Fatalf("expected no output without errors, got %q", out.String())
	}

	eh.AddError(plainCompilerError("first"))
	eh.AddError(richError{})
	eh.Report()

	expected := "Build failed with errors:\nERROR: first\nERROR: rich message\n"
	if out.String() != expected {
		t.Errorf("expected %q, got %q", expected, out.String())
	}
}

func TestErr(t *testing.T) {
	eh := compiler_errors.NewErrorHandler(&bytes.Buffer{})
	if eh.Err() != nil || eh.HasErrors() {
		t.Fatalf("expected no error")
	}

	eh.AddError(plainCompilerError("first"))
	eh.AddError(richError{})

	errs := multierr.Errors(eh.Err())
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0].Error() != "first" {
		t.Errorf("unexpected error %q", errs[0])
	}

	var rich richError
	if !errors.As(eh.Err(), &rich) {
		t.Errorf("expected the wrapped error to be reachable")
	}
}

func TestFrom(t *testing.T) {
	if got := compiler_errors.From(richError{}).GetMessage(); got != "rich message" {
		t.Errorf("expected the carried message, got %q", got)
	}
	if got := compiler_errors.From(errors.New("boom")).GetMessage(); got != "boom" {
		t.Errorf("expected the plain error text, got %q", got)
	}
}
