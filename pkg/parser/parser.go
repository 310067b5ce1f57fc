// Package parser implements the Lox language parser.
package parser

import (
	"fmt"

	"github.com/rlox-lang/rlox/pkg/ast"
	"github.com/rlox-lang/rlox/pkg/diagnostics"
	"github.com/rlox-lang/rlox/pkg/lexer"
)

// maxArity bounds call arguments and function parameters.
const maxArity = 255

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST. All lexical and syntax
// diagnostics found in one pass are returned together; the program is nil
// whenever any were found.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source, filename)

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram(filename)

	diags := append(lexDiags, p.diags...)
	if len(diags) > 0 {
		return nil, diags
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got '%s'", tokenName(typ), describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, ""))
}

// synchronize discards tokens until a likely statement boundary so parsing
// can resume and report further independent errors.
func (p *parser) synchronize() {
	for p.peek() != lexer.TokEOF {
		if p.advance().Type == lexer.TokSemicolon {
			return
		}
		switch p.peek() {
		case lexer.TokClass, lexer.TokFun, lexer.TokVar, lexer.TokFor, lexer.TokIf,
			lexer.TokWhile, lexer.TokPrint, lexer.TokReturn, lexer.TokBreak:
			return
		}
	}
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokLParen:
		return "'('"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokLBrace:
		return "'{'"
	case lexer.TokRBrace:
		return "'}'"
	case lexer.TokComma:
		return "','"
	case lexer.TokDot:
		return "'.'"
	case lexer.TokSemicolon:
		return "';'"
	case lexer.TokEquals:
		return "'='"
	case lexer.TokIdent:
		return "identifier"
	case lexer.TokNumber:
		return "number"
	case lexer.TokString:
		return "string"
	case lexer.TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of file"
	}
	return tok.Lexeme
}

// --- Program ---

func (p *parser) parseProgram(filename string) *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmt := p.parseDeclaration()
		if stmt == nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}

	endSpan := startSpan
	if len(stmts) > 0 {
		endSpan = stmts[len(stmts)-1].NodeSpan()
	}
	return &ast.Program{
		Span:       p.spanFromTo(startSpan, endSpan),
		Statements: stmts,
	}
}

// --- Declarations ---

func (p *parser) parseDeclaration() ast.Stmt {
	switch p.peek() {
	case lexer.TokClass:
		return p.parseClassDecl()
	case lexer.TokVar:
		return p.parseVarDecl()
	case lexer.TokFun:
		// `fun name(...)` is a declaration; a bare `fun (...)` is a function
		// literal handled by the expression grammar.
		if p.peekAt(1) == lexer.TokIdent {
			return p.parseFunDecl()
		}
		return p.parseStmt()
	default:
		return p.parseStmt()
	}
}

func (p *parser) parseClassDecl() ast.Stmt {
	start := p.advance() // consume 'class'
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}

	var superclass *ast.VariableExpr
	if p.peek() == lexer.TokLt {
		p.advance() // consume '<'
		superTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		superclass = &ast.VariableExpr{Span: superTok.Span, Name: superTok.Lexeme}
	}

	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return nil
	}

	var methods []*ast.FunctionStmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		method := p.parseMethod()
		if method == nil {
			return nil
		}
		methods = append(methods, method)
	}

	end, ok := p.expect(lexer.TokRBrace)
	if !ok {
		return nil
	}

	return &ast.ClassStmt{
		Span:       p.spanFromTo(start.Span, end.Span),
		Name:       nameTok.Lexeme,
		Superclass: superclass,
		Methods:    methods,
	}
}

func (p *parser) parseMethod() *ast.FunctionStmt {
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	fn := p.parseFunctionExpr(nameTok.Span)
	if fn == nil {
		return nil
	}
	return &ast.FunctionStmt{
		Span: p.spanFromTo(nameTok.Span, fn.Span),
		Name: nameTok.Lexeme,
		Fn:   fn,
	}
}

func (p *parser) parseFunDecl() ast.Stmt {
	start := p.advance() // consume 'fun'
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	fn := p.parseFunctionExpr(start.Span)
	if fn == nil {
		return nil
	}
	return &ast.FunctionStmt{
		Span: p.spanFromTo(start.Span, fn.Span),
		Name: nameTok.Lexeme,
		Fn:   fn,
	}
}

// parseFunctionExpr parses `(params) { body }`, shared by named functions,
// methods, and function literals.
func (p *parser) parseFunctionExpr(start ast.Span) *ast.FunctionExpr {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	var params []string
	for p.peek() != lexer.TokRParen && p.peek() != lexer.TokEOF {
		if len(params) >= maxArity {
			tok := p.current()
			p.addError(fmt.Sprintf("cannot have more than %d parameters", maxArity), &tok.Span)
		}
		paramTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		params = append(params, paramTok.Lexeme)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FunctionExpr{
		Span:   p.spanFromTo(start, body.Span),
		Params: params,
		Body:   body.Stmts,
	}
}

func (p *parser) parseVarDecl() ast.Stmt {
	start := p.advance() // consume 'var'
	nameTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}

	var init ast.Expr
	if p.peek() == lexer.TokEquals {
		p.advance()
		init = p.parseExpr()
		if init == nil {
			return nil
		}
	}

	end, ok := p.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.VarStmt{
		Span: p.spanFromTo(start.Span, end.Span),
		Name: nameTok.Lexeme,
		Init: init,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokPrint:
		return p.parsePrintStmt()
	case lexer.TokIf:
		return p.parseIfStmt()
	case lexer.TokWhile:
		return p.parseWhileStmt()
	case lexer.TokFor:
		return p.parseForStmt()
	case lexer.TokReturn:
		return p.parseReturnStmt()
	case lexer.TokBreak:
		return p.parseBreakStmt()
	case lexer.TokLBrace:
		b := p.parseBlock()
		if b == nil {
			return nil
		}
		return b
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseBlock() *ast.BlockStmt {
	start, ok := p.expect(lexer.TokLBrace)
	if !ok {
		return nil
	}
	var stmts []ast.Stmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseDeclaration()
		if stmt == nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, stmt)
	}
	end, ok := p.expect(lexer.TokRBrace)
	if !ok {
		return nil
	}
	return &ast.BlockStmt{
		Span:  p.spanFromTo(start.Span, end.Span),
		Stmts: stmts,
	}
}

func (p *parser) parsePrintStmt() ast.Stmt {
	start := p.advance() // consume 'print'
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	end, ok := p.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.PrintStmt{
		Span: p.spanFromTo(start.Span, end.Span),
		Expr: expr,
	}
}

func (p *parser) parseIfStmt() ast.Stmt {
	start := p.advance() // consume 'if'
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	then := p.parseStmt()
	if then == nil {
		return nil
	}

	var elseStmt ast.Stmt
	endSpan := then.NodeSpan()
	if p.peek() == lexer.TokElse {
		p.advance()
		elseStmt = p.parseStmt()
		if elseStmt == nil {
			return nil
		}
		endSpan = elseStmt.NodeSpan()
	}

	return &ast.IfStmt{
		Span: p.spanFromTo(start.Span, endSpan),
		Cond: cond,
		Then: then,
		Else: elseStmt,
	}
}

func (p *parser) parseWhileStmt() ast.Stmt {
	start := p.advance() // consume 'while'
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}
	body := p.parseStmt()
	if body == nil {
		return nil
	}
	return &ast.WhileStmt{
		Span: p.spanFromTo(start.Span, body.NodeSpan()),
		Cond: cond,
		Body: body,
	}
}

// parseForStmt desugars `for (init; cond; incr) body` into an equivalent
// while loop wrapped in a block:
//
//	{ init; while (cond) { body; incr; } }
func (p *parser) parseForStmt() ast.Stmt {
	start := p.advance() // consume 'for'
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return nil
	}

	var init ast.Stmt
	switch p.peek() {
	case lexer.TokSemicolon:
		p.advance()
	case lexer.TokVar:
		init = p.parseVarDecl()
		if init == nil {
			return nil
		}
	default:
		init = p.parseExprStmt()
		if init == nil {
			return nil
		}
	}

	var cond ast.Expr
	if p.peek() != lexer.TokSemicolon {
		cond = p.parseExpr()
		if cond == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokSemicolon); !ok {
		return nil
	}

	var incr ast.Expr
	if p.peek() != lexer.TokRParen {
		incr = p.parseExpr()
		if incr == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.TokRParen); !ok {
		return nil
	}

	body := p.parseStmt()
	if body == nil {
		return nil
	}

	span := p.spanFromTo(start.Span, body.NodeSpan())

	if incr != nil {
		body = &ast.BlockStmt{
			Span:  span,
			Stmts: []ast.Stmt{body, &ast.ExprStmt{Span: incr.NodeSpan(), Expr: incr}},
		}
	}
	if cond == nil {
		cond = &ast.BoolLiteral{Span: start.Span, Value: true}
	}
	var loop ast.Stmt = &ast.WhileStmt{Span: span, Cond: cond, Body: body}
	if init != nil {
		loop = &ast.BlockStmt{Span: span, Stmts: []ast.Stmt{init, loop}}
	}
	return loop
}

func (p *parser) parseReturnStmt() ast.Stmt {
	start := p.advance() // consume 'return'
	var value ast.Expr
	if p.peek() != lexer.TokSemicolon {
		value = p.parseExpr()
		if value == nil {
			return nil
		}
	}
	end, ok := p.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.ReturnStmt{
		Span:  p.spanFromTo(start.Span, end.Span),
		Value: value,
	}
}

func (p *parser) parseBreakStmt() ast.Stmt {
	start := p.advance() // consume 'break'
	end, ok := p.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.BreakStmt{Span: p.spanFromTo(start.Span, end.Span)}
}

func (p *parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	end, ok := p.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.ExprStmt{
		Span: p.spanFromTo(expr.NodeSpan(), end.Span),
		Expr: expr,
	}
}

// --- Expressions, lowest to highest precedence ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

// parseAssignment is right-associative: it parses the left side as a plain
// expression first, then reinterprets it as an assignment target.
func (p *parser) parseAssignment() ast.Expr {
	expr := p.parseOr()
	if expr == nil {
		return nil
	}

	if p.peek() == lexer.TokEquals {
		eqTok := p.advance()
		value := p.parseAssignment()
		if value == nil {
			return nil
		}

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{
				Span:  p.spanFromTo(target.Span, value.NodeSpan()),
				Name:  target.Name,
				Value: value,
			}
		case *ast.GetExpr:
			return &ast.SetExpr{
				Span:   p.spanFromTo(target.Span, value.NodeSpan()),
				Object: target.Object,
				Name:   target.Name,
				Value:  value,
			}
		}

		// Report without synchronizing; the expression itself is fine to
		// keep parsing around.
		p.addError("invalid assignment target", &eqTok.Span)
	}

	return expr
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokOr {
		p.advance()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpOr,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	if left == nil {
		return nil
	}
	for p.peek() == lexer.TokAnd {
		p.advance()
		right := p.parseEquality()
		if right == nil {
			return nil
		}
		left = &ast.LogicalExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    ast.OpAnd,
			Left:  left,
			Right: right,
		}
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	if left == nil {
		return nil
	}
	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokEqEq:
			op = ast.OpEqEq
		case lexer.TokBangEq:
			op = ast.OpNeq
		default:
			return left
		}
		p.advance()
		right := p.parseComparison()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseTerm()
	if left == nil {
		return nil
	}
	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokGt:
			op = ast.OpGt
		case lexer.TokGtEq:
			op = ast.OpGtEq
		case lexer.TokLt:
			op = ast.OpLt
		case lexer.TokLtEq:
			op = ast.OpLtEq
		default:
			return left
		}
		p.advance()
		right := p.parseTerm()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseTerm() ast.Expr {
	left := p.parseFactor()
	if left == nil {
		return nil
	}
	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokPlus:
			op = ast.OpAdd
		case lexer.TokMinus:
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		right := p.parseFactor()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseFactor() ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		default:
			return left
		}
		p.advance()
		right := p.parseUnary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	var op ast.UnaryOp
	switch p.peek() {
	case lexer.TokMinus:
		op = ast.OpNeg
	case lexer.TokBang:
		op = ast.OpNot
	default:
		return p.parseCall()
	}
	start := p.advance()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}
}

func (p *parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}

	for {
		switch p.peek() {
		case lexer.TokLParen:
			expr = p.finishCall(expr)
			if expr == nil {
				return nil
			}
		case lexer.TokDot:
			p.advance()
			nameTok, ok := p.expect(lexer.TokIdent)
			if !ok {
				return nil
			}
			expr = &ast.GetExpr{
				Span:   p.spanFromTo(expr.NodeSpan(), nameTok.Span),
				Object: expr,
				Name:   nameTok.Lexeme,
			}
		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	p.advance() // consume '('

	var args []ast.Expr
	for p.peek() != lexer.TokRParen && p.peek() != lexer.TokEOF {
		if len(args) >= maxArity {
			tok := p.current()
			p.addError(fmt.Sprintf("cannot have more than %d arguments", maxArity), &tok.Span)
		}
		arg := p.parseExpr()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}

	end, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}
	return &ast.CallExpr{
		Span:   p.spanFromTo(callee.NodeSpan(), end.Span),
		Callee: callee,
		Args:   args,
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokNumber:
		tok := p.advance()
		return &ast.NumberLiteral{Span: tok.Span, Value: tok.Literal.(float64)}

	case lexer.TokString:
		tok := p.advance()
		return &ast.StrLiteral{Span: tok.Span, Value: tok.Literal.(string)}

	case lexer.TokTrue:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}

	case lexer.TokFalse:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}

	case lexer.TokNil:
		tok := p.advance()
		return &ast.NilLiteral{Span: tok.Span}

	case lexer.TokThis:
		tok := p.advance()
		return &ast.ThisExpr{Span: tok.Span}

	case lexer.TokSuper:
		start := p.advance()
		if _, ok := p.expect(lexer.TokDot); !ok {
			return nil
		}
		nameTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return nil
		}
		return &ast.SuperExpr{
			Span:   p.spanFromTo(start.Span, nameTok.Span),
			Method: nameTok.Lexeme,
		}

	case lexer.TokIdent:
		tok := p.advance()
		return &ast.VariableExpr{Span: tok.Span, Name: tok.Lexeme}

	case lexer.TokFun:
		start := p.advance()
		fn := p.parseFunctionExpr(start.Span)
		if fn == nil {
			return nil
		}
		return fn

	case lexer.TokLParen:
		start := p.advance()
		inner := p.parseExpr()
		if inner == nil {
			return nil
		}
		end, ok := p.expect(lexer.TokRParen)
		if !ok {
			return nil
		}
		return &ast.GroupingExpr{
			Span:  p.spanFromTo(start.Span, end.Span),
			Inner: inner,
		}

	default:
		tok := p.current()
		p.addError(fmt.Sprintf("unexpected token '%s'", describe(tok)), &tok.Span)
		return nil
	}
}
