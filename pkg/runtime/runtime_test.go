package runtime_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rlox-lang/rlox/pkg/diagnostics"
	"github.com/rlox-lang/rlox/pkg/interpreter"
	"github.com/rlox-lang/rlox/pkg/runtime"
)

func TestRunCapturesOutput(t *testing.T) {
	var out bytes.Buffer
	rt := runtime.New(runtime.WithOutput(&out))

	if err := rt.Run(`print "hello"; print 1 + 2;`, "test.lox"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "hello\n3\n" {
		t.Errorf("got %q", got)
	}
}

func TestRunParseErrorIsDiagnosticError(t *testing.T) {
	rt := runtime.New(runtime.WithOutput(&bytes.Buffer{}))
	err := rt.Run("var = 1;", "test.lox")

	var diagErr *runtime.DiagnosticError
	if !errors.As(err, &diagErr) {
		t.Fatalf("expected *DiagnosticError, got %T: %v", err, err)
	}
	if len(diagErr.Diagnostics) == 0 || diagErr.Diagnostics[0].Code != diagnostics.EParse {
		t.Errorf("unexpected diagnostics: %v", diagErr.Diagnostics)
	}
	if !strings.Contains(diagErr.Error(), diagnostics.EParse) {
		t.Errorf("Error() should carry the code: %s", diagErr.Error())
	}
}

func TestRunResolveErrorIsDiagnosticError(t *testing.T) {
	rt := runtime.New(runtime.WithOutput(&bytes.Buffer{}))
	err := rt.Run("return 1;", "test.lox")

	var diagErr *runtime.DiagnosticError
	if !errors.As(err, &diagErr) {
		t.Fatalf("expected *DiagnosticError, got %T: %v", err, err)
	}
	if diagErr.Diagnostics[0].Code != diagnostics.EBadReturn {
		t.Errorf("unexpected code %s", diagErr.Diagnostics[0].Code)
	}
}

func TestRunRuntimeError(t *testing.T) {
	rt := runtime.New(runtime.WithOutput(&bytes.Buffer{}))
	err := rt.Run(`print 1 + "one";`, "test.lox")

	var rtErr *interpreter.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *interpreter.RuntimeError, got %T: %v", err, err)
	}
	if rtErr.Code != diagnostics.EType {
		t.Errorf("got %s, want %s", rtErr.Code, diagnostics.EType)
	}
}

func TestMaxCallDepthOption(t *testing.T) {
	rt := runtime.New(runtime.WithOutput(&bytes.Buffer{}), runtime.WithMaxCallDepth(16))
	err := rt.Run("fun f() { return f(); } f();", "test.lox")

	var rtErr *interpreter.RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Code != diagnostics.EStackOverflow {
		t.Fatalf("expected %s, got %v", diagnostics.EStackOverflow, err)
	}
}

func TestGlobalsSurviveAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	rt := runtime.New(runtime.WithOutput(&out))

	if err := rt.Run("var counter = 0;", "<repl>"); err != nil {
		t.Fatalf("run 1: %v", err)
	}
	if err := rt.Run("counter = counter + 1;", "<repl>"); err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if err := rt.Run("print counter;", "<repl>"); err != nil {
		t.Fatalf("run 3: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "1" {
		t.Errorf("got %q, want 1", got)
	}
}

func TestGlobalsSurviveFailedRun(t *testing.T) {
	var out bytes.Buffer
	rt := runtime.New(runtime.WithOutput(&out))

	if err := rt.Run("var x = 10;", "<repl>"); err != nil {
		t.Fatalf("run 1: %v", err)
	}
	if err := rt.Run("print missing;", "<repl>"); err == nil {
		t.Fatal("expected error from run 2")
	}
	if err := rt.Run("print x;", "<repl>"); err != nil {
		t.Fatalf("run 3: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "10" {
		t.Errorf("got %q, want 10", got)
	}
}

func TestInteractiveEchoesExpressions(t *testing.T) {
	var out bytes.Buffer
	rt := runtime.New(runtime.WithOutput(&out), runtime.WithInteractive())

	if err := rt.Run("1 + 2;", "<repl>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "3" {
		t.Errorf("got %q, want 3", got)
	}
}

func TestClosuresKeepResolvingAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	rt := runtime.New(runtime.WithOutput(&out))

	steps := []string{
		"fun makeCounter() { var n = 0; fun inc() { n = n + 1; return n; } return inc; }",
		"var c = makeCounter();",
		"print c();",
		"print c();",
	}
	for i, src := range steps {
		if err := rt.Run(src, "<repl>"); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if got := out.String(); got != "1\n2\n" {
		t.Errorf("got %q", got)
	}
}

func TestCheck(t *testing.T) {
	rt := runtime.New()

	if diags := rt.Check(`print "ok";`, "test.lox"); len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %v", diags)
	}
	diags := rt.Check("{ var a = a; }", "test.lox")
	if len(diags) != 1 || diags[0].Code != diagnostics.ESelfInit {
		t.Errorf("unexpected diagnostics %v", diags)
	}
}

func TestCheckDoesNotExecute(t *testing.T) {
	var out bytes.Buffer
	rt := runtime.New(runtime.WithOutput(&out))

	if diags := rt.Check(`print "side effect";`, "test.lox"); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if out.Len() != 0 {
		t.Errorf("check produced output: %q", out.String())
	}
}

func TestFormat(t *testing.T) {
	rt := runtime.New()

	formatted, err := rt.Format("var   x=1;print x;", "test.lox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if formatted != "var x = 1;\nprint x;\n" {
		t.Errorf("got %q", formatted)
	}

	if _, err := rt.Format("var = ;", "test.lox"); err == nil {
		t.Error("expected error for invalid source")
	}
}
