package compiler_errors

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

type CompilerError interface {
	GetMessage() string
}

type ErrorHandler interface {
	AddError(err CompilerError)
	HasErrors() bool
	Err() error
	Report()
}

type CompilerErrorHandler struct {
	errors []CompilerError
	writer io.Writer
}

func NewErrorHandler(outputWriter io.Writer) ErrorHandler {
	return &CompilerErrorHandler{
		errors: make([]CompilerError, 0),
		writer: outputWriter,
	}
}

// From returns the CompilerError carried by err, wrapping plain errors so
// they can be reported the same way.
func From(err error) CompilerError {
	var compilerErr CompilerError
	if errors.As(err, &compilerErr) {
		return compilerErr
	}

	return &messageError{message: err.Error()}
}

func (eh *CompilerErrorHandler) AddError(err CompilerError) {
	eh.errors = append(eh.errors, err)
}

func (eh *CompilerErrorHandler) HasErrors() bool {
	return len(eh.errors) > 0
}

// Err combines every collected error, or returns nil when there are none.
func (eh *CompilerErrorHandler) Err() error {
	var combined error
	for _, err := range eh.errors {
		if asErr, ok := err.(error); ok {
			combined = multierr.Append(combined, asErr)
			continue
		}
		combined = multierr.Append(combined, &messageError{message: err.GetMessage()})
	}

	return combined
}

// Report writes the collected errors. Exiting is left to the caller.
func (eh *CompilerErrorHandler) Report() {
	if !eh.HasErrors() {
		return
	}

	fmt.Fprintln(eh.writer, "Build failed with errors:")

	for _, err := range eh.errors {
		fmt.Fprintf(eh.writer, "ERROR: %s\n", err.GetMessage())
	}
}

type messageError struct {
	message string
}

func (e *messageError) GetMessage() string { return e.message }
func (e *messageError) Error() string      { return e.message }
