package lexer

import (
	"testing"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics.
// The lexer should never panic — it should return diagnostics for invalid input.
func FuzzTokenize(f *testing.F) {
	// Seed corpus with valid tokens and edge cases
	seeds := []string{
		// Keywords
		`and break class else false for fun if nil or`,
		`print return super this true var while`,
		// Literals
		`42 3.14 0 0.0 1000000`,
		`"hello" "multi
line"`,
		// Operators
		`+ - * / ! != = == > >= < <=`,
		// Delimiters
		`( ) { } , . ;`,
		// Identifiers
		`x foo bar_baz myVar _x v2`,
		// Comments
		`// a comment`,
		`var x = 1; // trailing`,
		// Mixed
		`var x = 42;`,
		`fun f(a, b) { return a + b; }`,
		`class A < B { init() {} }`,
		// Edge cases
		``,
		`   `,
		"\t\n\r",
		`"unterminated`,
		`"""`,
		`@#$^&`,
		"\x00",
		`123.`,
		`.5`,
		`1.2.3`,
		`!====`,
		`//`,
		`/`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		// Tokenize should never panic, regardless of input.
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Tokenize panicked on input %q: %v", input, r)
				}
			}()
			Tokenize(input, "fuzz.lox")
		}()
	})
}
