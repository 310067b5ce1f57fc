// Package runtime provides the top-level Lox runtime orchestrator.
package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/rlox-lang/rlox/pkg/diagnostics"
	"github.com/rlox-lang/rlox/pkg/interpreter"
	"github.com/rlox-lang/rlox/pkg/parser"
	"github.com/rlox-lang/rlox/pkg/printer"
	"github.com/rlox-lang/rlox/pkg/resolver"
)

// Runtime wires together all Lox components for program execution. A
// single Runtime keeps its interpreter, and with it the global
// environment, alive across Run calls.
type Runtime struct {
	out          io.Writer
	maxCallDepth int
	interactive  bool

	in *interpreter.Interpreter
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithOutput directs print output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.out = w
	}
}

// WithMaxCallDepth bounds call nesting before a stack overflow error.
func WithMaxCallDepth(depth int) Option {
	return func(rt *Runtime) {
		rt.maxCallDepth = depth
	}
}

// WithInteractive enables interactive behavior: top-level expression
// statement values are echoed back.
func WithInteractive() Option {
	return func(rt *Runtime) {
		rt.interactive = true
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{}
	for _, opt := range opts {
		opt(rt)
	}
	rt.in = interpreter.New(interpreter.Config{
		Out:          rt.out,
		MaxCallDepth: rt.maxCallDepth,
		EchoExprs:    rt.interactive,
	})
	return rt
}

// Run parses, resolves, and executes a Lox program. Parse and resolve
// failures come back as a *DiagnosticError; runtime failures as a
// *interpreter.RuntimeError.
func (rt *Runtime) Run(source, filename string) error {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return &DiagnosticError{Diagnostics: diags}
	}

	res, rDiags := resolver.Resolve(program)
	if len(rDiags) > 0 {
		return &DiagnosticError{Diagnostics: rDiags}
	}

	return rt.in.Interpret(program, res)
}

// Check parses and resolves a Lox program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}

	_, rDiags := resolver.Resolve(program)
	return rDiags
}

// Format parses and pretty-prints a Lox program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return printer.Print(program), nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
