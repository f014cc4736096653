package emitter

import "fmt"

// CodeGenError is raised for programs that parse but cannot be lowered.
type CodeGenError struct {
	Message string
}

func newCodeGenError(format string, args ...any) *CodeGenError {
	return &CodeGenError{Message: fmt.Sprintf(format, args...)}
}

func (e *CodeGenError) GetMessage() string {
	return e.Message
}

func (e *CodeGenError) Error() string {
	return "codegen error: " + e.Message
}
