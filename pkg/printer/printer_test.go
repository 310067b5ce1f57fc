package printer

import (
	"testing"

	"github.com/rlox-lang/rlox/pkg/ast"
	"github.com/rlox-lang/rlox/pkg/parser"
)

func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, diags := parser.Parse(source, "test.lox")
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return program
}

// ---------------------------------------------------------------------------
// Test: canonical formatting
// ---------------------------------------------------------------------------
func TestPrint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"var declaration",
			"var   x=1  ;",
			"var x = 1;\n",
		},
		{
			"uninitialized var",
			"var x;",
			"var x;\n",
		},
		{
			"print statement",
			`print "hi";`,
			"print \"hi\";\n",
		},
		{
			"binary spacing",
			"1+2*3;",
			"1 + 2 * 3;\n",
		},
		{
			"grouping preserved",
			"(1+2)*3;",
			"(1 + 2) * 3;\n",
		},
		{
			"block indentation",
			"{var x=1;print x;}",
			"{\n  var x = 1;\n  print x;\n}\n",
		},
		{
			"if else",
			"if(x){print 1;}else{print 2;}",
			"if (x) {\n  print 1;\n} else {\n  print 2;\n}\n",
		},
		{
			"non-block body",
			"if (x) print 1;",
			"if (x) print 1;\n",
		},
		{
			"function",
			"fun f(a,b){return a+b;}",
			"fun f(a, b) {\n  return a + b;\n}\n",
		},
		{
			"empty class",
			"class A{}",
			"class A {}\n",
		},
		{
			"class with superclass",
			"class B<A{m(){return super.m();}}",
			"class B < A {\n  m() {\n    return super.m();\n  }\n}\n",
		},
		{
			"property assignment",
			"a.b.c=1;",
			"a.b.c = 1;\n",
		},
		{
			"logical operators",
			"print a or b and c;",
			"print a or b and c;\n",
		},
		{
			"function literal",
			"var f=fun(x){return x;};",
			"var f = fun (x) {\n  return x;\n};\n",
		},
		{
			"integral number",
			"print 3.0;",
			"print 3;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Print(mustParse(t, tt.input))
			if got != tt.want {
				t.Errorf("got:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: printed output re-parses, and printing is idempotent
// ---------------------------------------------------------------------------
func TestPrintRoundTrip(t *testing.T) {
	sources := []string{
		"var x = 1; print x + 2;",
		"fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }",
		"for (var i = 0; i < 3; i = i + 1) print i;",
		"class B < A { init(x) { this.x = x; } m() { return super.m(); } }",
		"while (true) { break; }",
		"print -(1 + 2) * 3;",
		"print 1 - (2 - 3);",
		"a = b = nil or false;",
		"var f = fun () { return fun () { return 0; }; };",
	}

	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			once := Print(mustParse(t, source))
			twice := Print(mustParse(t, once))
			if once != twice {
				t.Errorf("printing is not idempotent:\nfirst:  %q\nsecond: %q", once, twice)
			}
		})
	}
}

func TestEmptyProgram(t *testing.T) {
	if got := Print(mustParse(t, "")); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
