// Package resolver performs static analysis over a parsed Lox program.
//
// It walks the AST once, simulating the lexical scope structure the
// interpreter will create at runtime, and records for every variable
// reference how many environment hops separate the use from the binding.
// It also rejects programs that misuse return, this, super, or break, so
// the interpreter never has to check for them.
package resolver

import (
	"fmt"

	"github.com/rlox-lang/rlox/pkg/ast"
	"github.com/rlox-lang/rlox/pkg/diagnostics"
)

// Resolution maps variable references to their scope-hop distance. A
// reference absent from the map resolves in the global environment.
type Resolution struct {
	distances map[ast.Expr]int
}

// DistanceOf reports the number of enclosing environments to hop to reach
// the binding for expr. The second result is false for globals.
func (r *Resolution) DistanceOf(expr ast.Expr) (int, bool) {
	dist, ok := r.distances[expr]
	return dist, ok
}

// Distances exposes the full distance table. Callers must treat it as
// read-only.
func (r *Resolution) Distances() map[ast.Expr]int {
	return r.distances
}

type funcType int

const (
	funcNone funcType = iota
	funcFunction
	funcInitializer
	funcMethod
)

type classType int

const (
	classNone classType = iota
	classClass
	classSubclass
)

type resolver struct {
	// scopes is a stack of local scopes. Each maps a name to whether its
	// initializer has finished; globals are deliberately not tracked.
	scopes []map[string]bool
	diags  []diagnostics.Diagnostic

	resolution  *Resolution
	currentFunc funcType
	currentCls  classType
	loopDepth   int
}

// Resolve analyzes program and returns the variable resolution table. All
// resolve-time diagnostics are collected in one pass; the resolution is nil
// whenever any were found.
func Resolve(program *ast.Program) (*Resolution, []diagnostics.Diagnostic) {
	r := &resolver{
		resolution: &Resolution{distances: make(map[ast.Expr]int)},
	}
	for _, stmt := range program.Statements {
		r.resolveStmt(stmt)
	}
	if len(r.diags) > 0 {
		return nil, r.diags
	}
	return r.resolution, nil
}

func (r *resolver) addError(code, msg string, span ast.Span) {
	r.diags = append(r.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, make(map[string]bool))
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare marks name as existing but not yet initialized in the innermost
// scope. Redeclaring a local in the same scope is an error; globals may be
// redeclared freely.
func (r *resolver) declare(name string, span ast.Span) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, exists := scope[name]; exists {
		r.addError(diagnostics.EDupBinding,
			fmt.Sprintf("variable '%s' already declared in this scope", name), span)
	}
	scope[name] = false
}

func (r *resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name] = true
}

// resolveLocal records the hop distance from the innermost scope to the
// scope declaring name. Unfound names are assumed global.
func (r *resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.resolution.distances[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

func (r *resolver) resolveStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		r.resolveExpr(stmt.Expr)

	case *ast.PrintStmt:
		r.resolveExpr(stmt.Expr)

	case *ast.VarStmt:
		r.declare(stmt.Name, stmt.Span)
		if stmt.Init != nil {
			r.resolveExpr(stmt.Init)
		}
		r.define(stmt.Name)

	case *ast.BlockStmt:
		r.beginScope()
		for _, inner := range stmt.Stmts {
			r.resolveStmt(inner)
		}
		r.endScope()

	case *ast.IfStmt:
		r.resolveExpr(stmt.Cond)
		r.resolveStmt(stmt.Then)
		if stmt.Else != nil {
			r.resolveStmt(stmt.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(stmt.Cond)
		r.loopDepth++
		r.resolveStmt(stmt.Body)
		r.loopDepth--

	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.addError(diagnostics.EBadBreak, "cannot break outside of a loop", stmt.Span)
		}

	case *ast.FunctionStmt:
		// Define before resolving the body so the function can recurse.
		r.declare(stmt.Name, stmt.Span)
		r.define(stmt.Name)
		r.resolveFunction(stmt.Fn, funcFunction)

	case *ast.ReturnStmt:
		if r.currentFunc == funcNone {
			r.addError(diagnostics.EBadReturn, "cannot return from top-level code", stmt.Span)
		}
		if stmt.Value != nil {
			if r.currentFunc == funcInitializer {
				r.addError(diagnostics.EBadReturn, "cannot return a value from an initializer", stmt.Span)
			}
			r.resolveExpr(stmt.Value)
		}

	case *ast.ClassStmt:
		enclosingCls := r.currentCls
		r.currentCls = classClass

		r.declare(stmt.Name, stmt.Span)
		r.define(stmt.Name)

		if stmt.Superclass != nil {
			if stmt.Superclass.Name == stmt.Name {
				r.addError(diagnostics.EBadSuper,
					fmt.Sprintf("class '%s' cannot inherit from itself", stmt.Name), stmt.Superclass.Span)
			}
			r.currentCls = classSubclass
			r.resolveExpr(stmt.Superclass)

			r.beginScope()
			r.scopes[len(r.scopes)-1]["super"] = true
		}

		r.beginScope()
		r.scopes[len(r.scopes)-1]["this"] = true
		for _, method := range stmt.Methods {
			declType := funcMethod
			if method.Name == "init" {
				declType = funcInitializer
			}
			r.resolveFunction(method.Fn, declType)
		}
		r.endScope()

		if stmt.Superclass != nil {
			r.endScope()
		}
		r.currentCls = enclosingCls
	}
}

func (r *resolver) resolveFunction(fn *ast.FunctionExpr, declType funcType) {
	enclosing := r.currentFunc
	r.currentFunc = declType

	// A function body starts outside any loop, even when the declaration
	// sits inside one.
	enclosingLoop := r.loopDepth
	r.loopDepth = 0

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param, fn.Span)
		r.define(param)
	}
	for _, stmt := range fn.Body {
		r.resolveStmt(stmt)
	}
	r.endScope()

	r.loopDepth = enclosingLoop
	r.currentFunc = enclosing
}

func (r *resolver) resolveExpr(e ast.Expr) {
	switch expr := e.(type) {
	case *ast.NumberLiteral, *ast.StrLiteral, *ast.BoolLiteral, *ast.NilLiteral:
		// nothing to resolve

	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			scope := r.scopes[len(r.scopes)-1]
			if initialized, declared := scope[expr.Name]; declared && !initialized {
				r.addError(diagnostics.ESelfInit,
					fmt.Sprintf("cannot read variable '%s' in its own initializer", expr.Name), expr.Span)
			}
		}
		r.resolveLocal(expr, expr.Name)

	case *ast.AssignExpr:
		r.resolveExpr(expr.Value)
		r.resolveLocal(expr, expr.Name)

	case *ast.UnaryExpr:
		r.resolveExpr(expr.Operand)

	case *ast.BinaryExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)

	case *ast.LogicalExpr:
		r.resolveExpr(expr.Left)
		r.resolveExpr(expr.Right)

	case *ast.GroupingExpr:
		r.resolveExpr(expr.Inner)

	case *ast.CallExpr:
		r.resolveExpr(expr.Callee)
		for _, arg := range expr.Args {
			r.resolveExpr(arg)
		}

	case *ast.GetExpr:
		r.resolveExpr(expr.Object)

	case *ast.SetExpr:
		r.resolveExpr(expr.Object)
		r.resolveExpr(expr.Value)

	case *ast.ThisExpr:
		if r.currentCls == classNone {
			r.addError(diagnostics.EBadThis, "cannot use 'this' outside of a class", expr.Span)
			return
		}
		r.resolveLocal(expr, "this")

	case *ast.SuperExpr:
		switch r.currentCls {
		case classNone:
			r.addError(diagnostics.EBadSuper, "cannot use 'super' outside of a class", expr.Span)
			return
		case classClass:
			r.addError(diagnostics.EBadSuper, "cannot use 'super' in a class with no superclass", expr.Span)
			return
		}
		r.resolveLocal(expr, "super")

	case *ast.FunctionExpr:
		r.resolveFunction(expr, funcFunction)
	}
}
