package interpreter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rlox-lang/rlox/pkg/diagnostics"
	"github.com/rlox-lang/rlox/pkg/parser"
	"github.com/rlox-lang/rlox/pkg/resolver"
)

// helper to run a program and capture its print output
func run(t *testing.T, source string, cfg Config) (string, error) {
	t.Helper()
	program, diags := parser.Parse(source, "test.lox")
	if len(diags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	res, rDiags := resolver.Resolve(program)
	if len(rDiags) > 0 {
		t.Fatalf("unexpected resolve diagnostics: %v", rDiags)
	}

	var out bytes.Buffer
	cfg.Out = &out
	in := New(cfg)
	err := in.Interpret(program, res)
	return out.String(), err
}

// helper asserting output lines
func runLines(t *testing.T, source string) []string {
	t.Helper()
	out, err := run(t, source, Config{})
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

// helper asserting a runtime error code
func runErrCode(t *testing.T, source string) string {
	t.Helper()
	_, err := run(t, source, Config{})
	if err == nil {
		t.Fatal("expected runtime error, got none")
	}
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	if rtErr.Span == nil {
		t.Error("runtime error carries no span")
	}
	return rtErr.Code
}

// ---------------------------------------------------------------------------
// Test: expressions
// ---------------------------------------------------------------------------
func TestArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2", "3"},
		{"2 * 3 + 4", "10"},
		{"10 / 4", "2.5"},
		{"-(1 + 2)", "-3"},
		{"1 / 0", "+Inf"},
		{`"foo" + "bar"`, "foobar"},
		{"1 < 2", "true"},
		{"2 <= 2", "true"},
		{"3 > 4", "false"},
		{"!nil", "true"},
		{"1 == 1.0", "true"},
		{`nil == false`, "false"},
		{`"1" == 1`, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			lines := runLines(t, "print "+tt.expr+";")
			if lines[0] != tt.want {
				t.Errorf("got %q, want %q", lines[0], tt.want)
			}
		})
	}
}

func TestLogicalReturnsOperand(t *testing.T) {
	lines := runLines(t, `print nil or "fallback"; print 1 and 2; print false and 9;`)
	want := []string{"fallback", "2", "false"}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestShortCircuitSkipsRightSide(t *testing.T) {
	lines := runLines(t, `
fun effect() { print "ran"; return true; }
var r = false and effect();
print r;`)
	if len(lines) != 1 || lines[0] != "false" {
		t.Errorf("right side was evaluated: %v", lines)
	}
}

// ---------------------------------------------------------------------------
// Test: statements and scoping
// ---------------------------------------------------------------------------
func TestBlockScoping(t *testing.T) {
	lines := runLines(t, `
var a = "outer";
{
  var a = "inner";
  print a;
}
print a;`)
	if lines[0] != "inner" || lines[1] != "outer" {
		t.Errorf("unexpected output %v", lines)
	}
}

func TestAssignmentPropagatesOut(t *testing.T) {
	lines := runLines(t, `
var a = 1;
{
  a = 2;
}
print a;`)
	if lines[0] != "2" {
		t.Errorf("got %q, want 2", lines[0])
	}
}

func TestWhileAndBreak(t *testing.T) {
	lines := runLines(t, `
var i = 0;
while (i < 10) {
  i = i + 1;
  if (i == 3) break;
}
print i;`)
	if lines[0] != "3" {
		t.Errorf("got %q, want 3", lines[0])
	}
}

func TestClosureSharesEnvironment(t *testing.T) {
	lines := runLines(t, `
fun pair() {
  var n = 0;
  fun inc() { n = n + 1; }
  fun get() { return n; }
  inc();
  inc();
  print get();
}
pair();`)
	if lines[0] != "2" {
		t.Errorf("closures do not share state: got %q", lines[0])
	}
}

func TestRecursion(t *testing.T) {
	lines := runLines(t, `
fun fact(n) {
  if (n <= 1) return 1;
  return n * fact(n - 1);
}
print fact(6);`)
	if lines[0] != "720" {
		t.Errorf("got %q, want 720", lines[0])
	}
}

// ---------------------------------------------------------------------------
// Test: classes
// ---------------------------------------------------------------------------
func TestMethodBinding(t *testing.T) {
	lines := runLines(t, `
class Cake {
  taste() { print "The " + this.flavor + " cake is delicious"; }
}
var cake = Cake();
cake.flavor = "chocolate";
var taste = cake.taste;
taste();`)
	if lines[0] != "The chocolate cake is delicious" {
		t.Errorf("got %q", lines[0])
	}
}

func TestInitImplicitReturn(t *testing.T) {
	lines := runLines(t, `
class A {
  init() { this.x = 1; }
}
print A().x;
print A() == nil;`)
	if lines[0] != "1" || lines[1] != "false" {
		t.Errorf("unexpected output %v", lines)
	}
}

func TestSuperDispatch(t *testing.T) {
	lines := runLines(t, `
class Doughnut {
  cook() { print "Fry until golden brown."; }
}
class BostonCream < Doughnut {
  cook() {
    super.cook();
    print "Pipe full of custard.";
  }
}
BostonCream().cook();`)
	want := []string{"Fry until golden brown.", "Pipe full of custard."}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestInheritedMethodSeesSubclassThis(t *testing.T) {
	lines := runLines(t, `
class A {
  name() { return "A"; }
  describe() { print "I am " + this.name(); }
}
class B < A {
  name() { return "B"; }
}
B().describe();`)
	if lines[0] != "I am B" {
		t.Errorf("got %q", lines[0])
	}
}

// ---------------------------------------------------------------------------
// Test: runtime errors
// ---------------------------------------------------------------------------
func TestRuntimeErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"mixed plus", `print 1 + "one";`, diagnostics.EType},
		{"negate string", `print -"x";`, diagnostics.EType},
		{"compare string", `print "a" < "b";`, diagnostics.EType},
		{"undefined variable", "print nope;", diagnostics.EUndefVar},
		{"assign undeclared", "nope = 1;", diagnostics.EUndefVar},
		{"call number", "1();", diagnostics.ENotCallable},
		{"too few args", "fun f(a) {} f();", diagnostics.EArity},
		{"class arity", "class A { init(x) {} } A();", diagnostics.EArity},
		{"missing property", "class A {} print A().x;", diagnostics.EUndefProp},
		{"property on number", "print (1).x;", diagnostics.EType},
		{"field on string", `"s".f = 1;`, diagnostics.EType},
		{"superclass not a class", "var NotClass = 1; class A < NotClass {}", diagnostics.EType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := runErrCode(t, tt.source); code != tt.code {
				t.Errorf("got %s, want %s", code, tt.code)
			}
		})
	}
}

func TestStackOverflow(t *testing.T) {
	source := "fun loop() { return loop(); } loop();"
	_, err := run(t, source, Config{MaxCallDepth: 64})
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) || rtErr.Code != diagnostics.EStackOverflow {
		t.Fatalf("expected %s, got %v", diagnostics.EStackOverflow, err)
	}
}

func TestDepthResetAfterCalls(t *testing.T) {
	// Sequential calls must not accumulate depth.
	source := `
fun f() { return 1; }
var i = 0;
while (i < 100) {
  f();
  i = i + 1;
}
print "ok";`
	out, err := run(t, source, Config{MaxCallDepth: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "ok" {
		t.Errorf("got %q", out)
	}
}

// ---------------------------------------------------------------------------
// Test: interactive echo and persistent globals
// ---------------------------------------------------------------------------
func TestEchoExprs(t *testing.T) {
	out, err := run(t, "1 + 2;", Config{EchoExprs: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("got %q, want 3", out)
	}
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	var out bytes.Buffer
	in := New(Config{Out: &out})

	for _, source := range []string{
		"var x = 40;",
		"fun addTwo() { return x + 2; }",
		"print addTwo();",
	} {
		program, diags := parser.Parse(source, "<repl>")
		if len(diags) > 0 {
			t.Fatalf("parse: %v", diags)
		}
		res, rDiags := resolver.Resolve(program)
		if len(rDiags) > 0 {
			t.Fatalf("resolve: %v", rDiags)
		}
		if err := in.Interpret(program, res); err != nil {
			t.Fatalf("interpret: %v", err)
		}
	}

	if strings.TrimSpace(out.String()) != "42" {
		t.Errorf("got %q, want 42", out.String())
	}
}

// ---------------------------------------------------------------------------
// Test: natives
// ---------------------------------------------------------------------------
func TestClock(t *testing.T) {
	lines := runLines(t, "print clock() > 0;")
	if lines[0] != "true" {
		t.Errorf("got %q", lines[0])
	}
}

func TestClockStringify(t *testing.T) {
	lines := runLines(t, "print clock;")
	if lines[0] != "<native fn>" {
		t.Errorf("got %q", lines[0])
	}
}
