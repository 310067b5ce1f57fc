// Package lexer implements the Lox language tokenizer.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/rlox-lang/rlox/pkg/ast"
	"github.com/rlox-lang/rlox/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokAnd TokenType = iota
	TokBreak
	TokClass
	TokElse
	TokFalse
	TokFor
	TokFun
	TokIf
	TokNil
	TokOr
	TokPrint
	TokReturn
	TokSuper
	TokThis
	TokTrue
	TokVar
	TokWhile

	// Literals
	TokNumber
	TokString

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokComma     // ,
	TokDot       // .
	TokSemicolon // ;

	// Operators
	TokPlus    // +
	TokMinus   // -
	TokStar    // *
	TokSlash   // /
	TokBang    // !
	TokBangEq  // !=
	TokEquals  // =
	TokEqEq    // ==
	TokGt      // >
	TokGtEq    // >=
	TokLt      // <
	TokLtEq    // <=

	// Special
	TokEOF
)

// Token represents a single lexer token. Literal holds the parsed value for
// number (float64) and string (string) tokens, and is nil otherwise.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Span    ast.Span
}

var keywords = map[string]TokenType{
	"and":    TokAnd,
	"break":  TokBreak,
	"class":  TokClass,
	"else":   TokElse,
	"false":  TokFalse,
	"for":    TokFor,
	"fun":    TokFun,
	"if":     TokIf,
	"nil":    TokNil,
	"or":     TokOr,
	"print":  TokPrint,
	"return": TokReturn,
	"super":  TokSuper,
	"this":   TokThis,
	"true":   TokTrue,
	"var":    TokVar,
	"while":  TokWhile,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
	tokens   []Token
	diags    []diagnostics.Diagnostic
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

// match consumes the next character only if it equals expected.
func (s *scanner) match(expected byte) bool {
	if s.atEnd() || s.source[s.pos] != expected {
		return false
	}
	s.advance()
	return true
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) add(typ TokenType, lexeme string, literal any, startLine, startCol int) {
	s.tokens = append(s.tokens, Token{
		Type:    typ,
		Lexeme:  lexeme,
		Literal: literal,
		Span:    s.span(startLine, startCol),
	})
}

func (s *scanner) lexError(line, col int, msg string) {
	s.diags = append(s.diags, diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	))
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '/' && s.peekAt(1) == '/' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanString() {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	s.advance() // consume opening "

	for !s.atEnd() && s.peek() != '"' {
		s.advance()
	}
	if s.atEnd() {
		// Unterminated string: report at the line the scanner reached.
		s.lexError(s.line, s.col, "unterminated string literal")
		return
	}
	s.advance() // consume closing "

	lexeme := s.source[startPos:s.pos]
	s.add(TokString, lexeme, lexeme[1:len(lexeme)-1], startLine, startCol)
}

func (s *scanner) scanNumber() {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// Optional fractional part; the dot must be followed by a digit so that
	// `1.foo` scans as number, dot, identifier.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	lexeme := s.source[startPos:s.pos]
	value, _ := strconv.ParseFloat(lexeme, 64)
	s.add(TokNumber, lexeme, value, startLine, startCol)
}

func (s *scanner) scanIdentOrKeyword() {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	lexeme := s.source[startPos:s.pos]
	if typ, ok := keywords[lexeme]; ok {
		s.add(typ, lexeme, nil, startLine, startCol)
		return
	}
	s.add(TokIdent, lexeme, nil, startLine, startCol)
}

func (s *scanner) scanToken() {
	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch ch {
	case '(':
		s.advance()
		s.add(TokLParen, "(", nil, startLine, startCol)
		return
	case ')':
		s.advance()
		s.add(TokRParen, ")", nil, startLine, startCol)
		return
	case '{':
		s.advance()
		s.add(TokLBrace, "{", nil, startLine, startCol)
		return
	case '}':
		s.advance()
		s.add(TokRBrace, "}", nil, startLine, startCol)
		return
	case ',':
		s.advance()
		s.add(TokComma, ",", nil, startLine, startCol)
		return
	case '.':
		s.advance()
		s.add(TokDot, ".", nil, startLine, startCol)
		return
	case ';':
		s.advance()
		s.add(TokSemicolon, ";", nil, startLine, startCol)
		return
	case '+':
		s.advance()
		s.add(TokPlus, "+", nil, startLine, startCol)
		return
	case '-':
		s.advance()
		s.add(TokMinus, "-", nil, startLine, startCol)
		return
	case '*':
		s.advance()
		s.add(TokStar, "*", nil, startLine, startCol)
		return
	case '/':
		// Comments are consumed by skipWhitespaceAndComments
		s.advance()
		s.add(TokSlash, "/", nil, startLine, startCol)
		return

	// Maximal munch: two-character operators win over their one-character
	// prefixes.
	case '!':
		s.advance()
		if s.match('=') {
			s.add(TokBangEq, "!=", nil, startLine, startCol)
		} else {
			s.add(TokBang, "!", nil, startLine, startCol)
		}
		return
	case '=':
		s.advance()
		if s.match('=') {
			s.add(TokEqEq, "==", nil, startLine, startCol)
		} else {
			s.add(TokEquals, "=", nil, startLine, startCol)
		}
		return
	case '>':
		s.advance()
		if s.match('=') {
			s.add(TokGtEq, ">=", nil, startLine, startCol)
		} else {
			s.add(TokGt, ">", nil, startLine, startCol)
		}
		return
	case '<':
		s.advance()
		if s.match('=') {
			s.add(TokLtEq, "<=", nil, startLine, startCol)
		} else {
			s.add(TokLt, "<", nil, startLine, startCol)
		}
		return
	}

	if isDigit(ch) {
		s.scanNumber()
		return
	}
	if ch == '"' {
		s.scanString()
		return
	}
	if isAlpha(ch) {
		s.scanIdentOrKeyword()
		return
	}

	// Unrecognized character: report and keep scanning so one pass surfaces
	// every lexical problem in the file.
	s.advance()
	s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", ch))
}

// Tokenize breaks source code into a slice of tokens. Scanning continues past
// lexical errors; all of them are returned as diagnostics alongside the
// tokens produced so far.
func Tokenize(source, filename string) ([]Token, []diagnostics.Diagnostic) {
	s := newScanner(source, filename)

	for {
		s.skipWhitespaceAndComments()
		if s.atEnd() {
			break
		}
		s.scanToken()
	}

	s.add(TokEOF, "", nil, s.line, s.col)
	return s.tokens, s.diags
}
