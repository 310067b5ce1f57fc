// Package diagnostics defines Lox diagnostic types for lex/parse/resolve/runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rlox-lang/rlox/pkg/ast"
)

// Diagnostic code constants.
const (
	// Front-end
	ELex   = "E_LEX"
	EParse = "E_PARSE"

	// Resolution
	EDupBinding = "E_DUP_BINDING"
	ESelfInit   = "E_SELF_INIT"
	EBadReturn  = "E_BAD_RETURN"
	EBadThis    = "E_BAD_THIS"
	EBadSuper   = "E_BAD_SUPER"
	EBadBreak   = "E_BAD_BREAK"

	// Runtime
	EType          = "E_TYPE"
	EUndefVar      = "E_UNDEF_VAR"
	EUndefProp     = "E_UNDEF_PROP"
	EArity         = "E_ARITY"
	ENotCallable   = "E_NOT_CALLABLE"
	EStackOverflow = "E_STACK_OVERFLOW"

	// Host I/O
	EIO = "E_IO"
)

// Diagnostic represents a lex, parse, resolution, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
