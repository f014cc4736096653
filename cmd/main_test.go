package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const source = `
int add(int a, int b) {
	return a + b;
}

int main() {
	return add(1, 2);
}
`

func TestRunWritesIRToStdout(t *testing.T) {
	filename := writeTempCFile(t, source)
	code, out, errOut := captureOutput(t, func() int {
		return run(filename)
	})

	if code != 0 {
		t.Fatalf("run exit=%d\nstderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "define i32 @main()") {
		t.Fatalf("IR missing main:\n%s", out)
	}
	if !strings.Contains(out, "call i32 @add(") {
		t.Fatalf("IR missing call to add:\n%s", out)
	}
}

func TestRunWritesOutputFiles(t *testing.T) {
	filename := writeTempCFile(t, source)
	dir := t.TempDir()

	textPath := filepath.Join(dir, "out.ll")
	setFlag(t, output, textPath)
	if code, _, errOut := captureOutput(t, func() int { return run(filename) }); code != 0 {
		t.Fatalf("run exit=%d\nstderr:\n%s", code, errOut)
	}
	text, err := os.ReadFile(textPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(text), "define i32 @add(i32 %a, i32 %b)") {
		t.Fatalf("unexpected textual IR:\n%s", text)
	}

	bitcodePath := filepath.Join(dir, "out.bc")
	setFlag(t, output, bitcodePath)
	if code, _, errOut := captureOutput(t, func() int { return run(filename) }); code != 0 {
		t.Fatalf("run exit=%d\nstderr:\n%s", code, errOut)
	}
	bitcode, err := os.ReadFile(bitcodePath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(bitcode, []byte{'B', 'C', 0xC0, 0xDE}) {
		t.Fatalf("output is not bitcode: % x", bitcode[:min(len(bitcode), 8)])
	}
}

func TestRunEmitTokens(t *testing.T) {
	setFlag(t, emitTokens, true)

	filename := writeTempCFile(t, source)
	code, out, errOut := captureOutput(t, func() int {
		return run(filename)
	})

	if code != 0 {
		t.Fatalf("run exit=%d\nstderr:\n%s", code, errOut)
	}
	for _, token := range []string{"IDENT(add)", "IDENT(main)", "INT(2)"} {
		if !strings.Contains(out, token) {
			t.Fatalf("token stream missing %s:\n%s", token, out)
		}
	}
	if !strings.Contains(out, "define i32 @main()") {
		t.Fatalf("expected IR after the token stream:\n%s", out)
	}
}

func TestRunEmitAST(t *testing.T) {
	setFlag(t, emitAST, true)

	filename := writeTempCFile(t, source)
	code, out, errOut := captureOutput(t, func() int {
		return run(filename)
	})

	if code != 0 {
		t.Fatalf("run exit=%d\nstderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "ast.FunctionDef") || !strings.Contains(out, "ast.FunctionCall") {
		t.Fatalf("AST dump missing nodes:\n%s", out)
	}
	if strings.Contains(out, "define ") {
		t.Fatalf("expected no IR with the AST dump:\n%s", out)
	}
}

func TestRunReportsErrors(t *testing.T) {
	setFlag(t, keepGoing, true)

	filename := writeTempCFile(t, "int h();\nint f() { return x; }\nint g() { return h(1); }\n")
	code, out, errOut := captureOutput(t, func() int {
		return run(filename)
	})

	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if out != "" {
		t.Fatalf("expected no IR on failure:\n%s", out)
	}
	for _, fragment := range []string{"Build failed with errors:", "undefined variable x", "expected 0 but got 1"} {
		if !strings.Contains(errOut, fragment) {
			t.Fatalf("stderr missing %q:\n%s", fragment, errOut)
		}
	}
	if strings.Contains(errOut, "\n\t") || strings.Contains(errOut, "goroutine") {
		t.Fatalf("expected no stack traces on stderr:\n%s", errOut)
	}
}

func TestRunMissingFile(t *testing.T) {
	code, _, errOut := captureOutput(t, func() int {
		return run(filepath.Join(t.TempDir(), "missing.c"))
	})

	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.HasPrefix(errOut, "error: ") {
		t.Fatalf("unexpected stderr:\n%s", errOut)
	}
}

func setFlag[T any](t *testing.T, flag *T, value T) {
	t.Helper()

	old := *flag
	*flag = value
	t.Cleanup(func() { *flag = old })
}

func writeTempCFile(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, "input.c")
	if err := os.WriteFile(filename, []byte(src), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filename
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outCh := make(chan []byte)
	errCh := make(chan []byte)
	go func() { b, _ := io.ReadAll(rOut); outCh <- b }()
	go func() { b, _ := io.ReadAll(rErr); errCh <- b }()

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	outBytes := <-outCh
	errBytes := <-errCh
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
