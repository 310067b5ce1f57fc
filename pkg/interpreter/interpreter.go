package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/rlox-lang/rlox/pkg/ast"
	"github.com/rlox-lang/rlox/pkg/diagnostics"
	"github.com/rlox-lang/rlox/pkg/resolver"
)

// DefaultMaxCallDepth bounds recursion before an E_STACK_OVERFLOW error.
const DefaultMaxCallDepth = 1024

// RuntimeError represents an error raised during program execution.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error into a reportable diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

// control describes how a statement finished: fell through normally,
// returned from the enclosing function, or broke out of the enclosing
// loop.
type control int

const (
	ctrlNormal control = iota
	ctrlReturn
	ctrlBreak
)

// Config configures an Interpreter.
type Config struct {
	// Out receives print output. Defaults to os.Stdout.
	Out io.Writer
	// MaxCallDepth bounds call nesting. Defaults to DefaultMaxCallDepth.
	MaxCallDepth int
	// EchoExprs prints the value of top-level expression statements, for
	// interactive sessions.
	EchoExprs bool
}

// Interpreter executes resolved Lox programs. A single Interpreter holds
// the global environment across runs, which is what lets a REPL accumulate
// definitions line by line. It is not safe for concurrent use.
type Interpreter struct {
	globals *Env
	locals  map[ast.Expr]int

	out          io.Writer
	maxCallDepth int
	echoExprs    bool
	depth        int
}

// New creates an interpreter with clock and friends predefined in the
// global environment.
func New(cfg Config) *Interpreter {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}
	in := &Interpreter{
		globals:      NewEnv(nil),
		locals:       make(map[ast.Expr]int),
		out:          cfg.Out,
		maxCallDepth: cfg.MaxCallDepth,
		echoExprs:    cfg.EchoExprs,
	}
	defineNatives(in.globals)
	return in
}

// Interpret executes a program under its resolution. Resolutions from
// successive programs accumulate, so closures created by earlier runs keep
// resolving correctly in later ones.
func (in *Interpreter) Interpret(program *ast.Program, res *resolver.Resolution) error {
	for expr, dist := range res.Distances() {
		in.locals[expr] = dist
	}

	for _, stmt := range program.Statements {
		if _, _, err := in.execStmt(stmt, in.globals); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) runtimeError(code, msg string, span ast.Span) error {
	return &RuntimeError{Code: code, Message: msg, Span: &span}
}

// --- Statements ---

func (in *Interpreter) execStmt(s ast.Stmt, env *Env) (control, Value, error) {
	switch stmt := s.(type) {
	case *ast.ExprStmt:
		val, err := in.evalExpr(stmt.Expr, env)
		if err != nil {
			return ctrlNormal, nil, err
		}
		if in.echoExprs && env == in.globals {
			fmt.Fprintln(in.out, Stringify(val))
		}
		return ctrlNormal, nil, nil

	case *ast.PrintStmt:
		val, err := in.evalExpr(stmt.Expr, env)
		if err != nil {
			return ctrlNormal, nil, err
		}
		fmt.Fprintln(in.out, Stringify(val))
		return ctrlNormal, nil, nil

	case *ast.VarStmt:
		var val Value = NewNil()
		if stmt.Init != nil {
			v, err := in.evalExpr(stmt.Init, env)
			if err != nil {
				return ctrlNormal, nil, err
			}
			val = v
		}
		env.Define(stmt.Name, val)
		return ctrlNormal, nil, nil

	case *ast.BlockStmt:
		return in.execBlock(stmt.Stmts, env.Child())

	case *ast.IfStmt:
		cond, err := in.evalExpr(stmt.Cond, env)
		if err != nil {
			return ctrlNormal, nil, err
		}
		if Truthiness(cond) {
			return in.execStmt(stmt.Then, env)
		}
		if stmt.Else != nil {
			return in.execStmt(stmt.Else, env)
		}
		return ctrlNormal, nil, nil

	case *ast.WhileStmt:
		for {
			cond, err := in.evalExpr(stmt.Cond, env)
			if err != nil {
				return ctrlNormal, nil, err
			}
			if !Truthiness(cond) {
				return ctrlNormal, nil, nil
			}
			ctrl, val, err := in.execStmt(stmt.Body, env)
			if err != nil {
				return ctrlNormal, nil, err
			}
			switch ctrl {
			case ctrlReturn:
				return ctrl, val, nil
			case ctrlBreak:
				return ctrlNormal, nil, nil
			}
		}

	case *ast.BreakStmt:
		return ctrlBreak, nil, nil

	case *ast.FunctionStmt:
		fn := &Function{
			name:        stmt.Name,
			declaration: stmt.Fn,
			closure:     env,
		}
		env.Define(stmt.Name, fn)
		return ctrlNormal, nil, nil

	case *ast.ReturnStmt:
		var val Value = NewNil()
		if stmt.Value != nil {
			v, err := in.evalExpr(stmt.Value, env)
			if err != nil {
				return ctrlNormal, nil, err
			}
			val = v
		}
		return ctrlReturn, val, nil

	case *ast.ClassStmt:
		return in.execClass(stmt, env)

	default:
		return ctrlNormal, nil, fmt.Errorf("unhandled statement kind %q", s.Kind())
	}
}

// execBlock runs statements in env, stopping early on a return or break.
func (in *Interpreter) execBlock(stmts []ast.Stmt, env *Env) (control, Value, error) {
	for _, stmt := range stmts {
		ctrl, val, err := in.execStmt(stmt, env)
		if err != nil {
			return ctrlNormal, nil, err
		}
		if ctrl != ctrlNormal {
			return ctrl, val, nil
		}
	}
	return ctrlNormal, nil, nil
}

func (in *Interpreter) execClass(stmt *ast.ClassStmt, env *Env) (control, Value, error) {
	var superclass *Class
	if stmt.Superclass != nil {
		superVal, err := in.evalExpr(stmt.Superclass, env)
		if err != nil {
			return ctrlNormal, nil, err
		}
		cls, ok := superVal.(*Class)
		if !ok {
			return ctrlNormal, nil, in.runtimeError(diagnostics.EType,
				"superclass must be a class", stmt.Superclass.Span)
		}
		superclass = cls
	}

	// Two-step definition lets methods capture an environment where the
	// class name is already bound.
	env.Define(stmt.Name, NewNil())

	methodEnv := env
	if superclass != nil {
		methodEnv = env.Child()
		methodEnv.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(stmt.Methods))
	for _, method := range stmt.Methods {
		methods[method.Name] = &Function{
			name:          method.Name,
			declaration:   method.Fn,
			closure:       methodEnv,
			isInitializer: method.Name == "init",
		}
	}

	class := &Class{Name: stmt.Name, Superclass: superclass, Methods: methods}
	env.Assign(stmt.Name, class)
	return ctrlNormal, nil, nil
}

// --- Expressions ---

func (in *Interpreter) evalExpr(e ast.Expr, env *Env) (Value, error) {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		return NewNumber(expr.Value), nil

	case *ast.StrLiteral:
		return NewStr(expr.Value), nil

	case *ast.BoolLiteral:
		return NewBool(expr.Value), nil

	case *ast.NilLiteral:
		return NewNil(), nil

	case *ast.VariableExpr:
		return in.lookupVariable(expr, expr.Name, env)

	case *ast.AssignExpr:
		val, err := in.evalExpr(expr.Value, env)
		if err != nil {
			return nil, err
		}
		if dist, ok := in.locals[expr]; ok {
			env.AssignAt(dist, expr.Name, val)
			return val, nil
		}
		if !in.globals.Assign(expr.Name, val) {
			return nil, in.runtimeError(diagnostics.EUndefVar,
				fmt.Sprintf("undefined variable '%s'", expr.Name), expr.Span)
		}
		return val, nil

	case *ast.UnaryExpr:
		return in.evalUnary(expr, env)

	case *ast.BinaryExpr:
		return in.evalBinary(expr, env)

	case *ast.LogicalExpr:
		left, err := in.evalExpr(expr.Left, env)
		if err != nil {
			return nil, err
		}
		// Short-circuit: the left operand is the result when it decides.
		if expr.Op == ast.OpOr {
			if Truthiness(left) {
				return left, nil
			}
		} else {
			if !Truthiness(left) {
				return left, nil
			}
		}
		return in.evalExpr(expr.Right, env)

	case *ast.GroupingExpr:
		return in.evalExpr(expr.Inner, env)

	case *ast.CallExpr:
		return in.evalCall(expr, env)

	case *ast.GetExpr:
		obj, err := in.evalExpr(expr.Object, env)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*Instance)
		if !ok {
			return nil, in.runtimeError(diagnostics.EType,
				"only instances have properties", expr.Span)
		}
		val, ok := instance.Get(expr.Name)
		if !ok {
			return nil, in.runtimeError(diagnostics.EUndefProp,
				fmt.Sprintf("undefined property '%s'", expr.Name), expr.Span)
		}
		return val, nil

	case *ast.SetExpr:
		obj, err := in.evalExpr(expr.Object, env)
		if err != nil {
			return nil, err
		}
		instance, ok := obj.(*Instance)
		if !ok {
			return nil, in.runtimeError(diagnostics.EType,
				"only instances have fields", expr.Span)
		}
		val, err := in.evalExpr(expr.Value, env)
		if err != nil {
			return nil, err
		}
		instance.Set(expr.Name, val)
		return val, nil

	case *ast.ThisExpr:
		return in.lookupVariable(expr, "this", env)

	case *ast.SuperExpr:
		return in.evalSuper(expr, env)

	case *ast.FunctionExpr:
		return &Function{declaration: expr, closure: env}, nil

	default:
		return nil, fmt.Errorf("unhandled expression kind %q", e.Kind())
	}
}

// lookupVariable uses the statically resolved distance when the reference
// is local, and falls back to the global environment otherwise.
func (in *Interpreter) lookupVariable(expr ast.Expr, name string, env *Env) (Value, error) {
	if dist, ok := in.locals[expr]; ok {
		if val, ok := env.GetAt(dist, name); ok {
			return val, nil
		}
	} else if val, ok := in.globals.Get(name); ok {
		return val, nil
	}
	return nil, in.runtimeError(diagnostics.EUndefVar,
		fmt.Sprintf("undefined variable '%s'", name), expr.NodeSpan())
}

func (in *Interpreter) evalUnary(expr *ast.UnaryExpr, env *Env) (Value, error) {
	operand, err := in.evalExpr(expr.Operand, env)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case ast.OpNeg:
		num, ok := operand.(NumberValue)
		if !ok {
			return nil, in.runtimeError(diagnostics.EType,
				"operand of '-' must be a number", expr.Span)
		}
		return NewNumber(-num.Value), nil
	case ast.OpNot:
		return NewBool(!Truthiness(operand)), nil
	}
	return nil, fmt.Errorf("unhandled unary operator %q", expr.Op)
}

func (in *Interpreter) evalBinary(expr *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := in.evalExpr(expr.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(expr.Right, env)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case ast.OpEqEq:
		return NewBool(valuesEqual(left, right)), nil
	case ast.OpNeq:
		return NewBool(!valuesEqual(left, right)), nil
	}

	if expr.Op == ast.OpAdd {
		if ln, ok := left.(NumberValue); ok {
			if rn, ok := right.(NumberValue); ok {
				return NewNumber(ln.Value + rn.Value), nil
			}
		}
		if ls, ok := left.(StrValue); ok {
			if rs, ok := right.(StrValue); ok {
				return NewStr(ls.Value + rs.Value), nil
			}
		}
		return nil, in.runtimeError(diagnostics.EType,
			"operands of '+' must be two numbers or two strings", expr.Span)
	}

	ln, lok := left.(NumberValue)
	rn, rok := right.(NumberValue)
	if !lok || !rok {
		return nil, in.runtimeError(diagnostics.EType,
			fmt.Sprintf("operands of '%s' must be numbers", expr.Op), expr.Span)
	}

	switch expr.Op {
	case ast.OpSub:
		return NewNumber(ln.Value - rn.Value), nil
	case ast.OpMul:
		return NewNumber(ln.Value * rn.Value), nil
	case ast.OpDiv:
		return NewNumber(ln.Value / rn.Value), nil
	case ast.OpGt:
		return NewBool(ln.Value > rn.Value), nil
	case ast.OpGtEq:
		return NewBool(ln.Value >= rn.Value), nil
	case ast.OpLt:
		return NewBool(ln.Value < rn.Value), nil
	case ast.OpLtEq:
		return NewBool(ln.Value <= rn.Value), nil
	}
	return nil, fmt.Errorf("unhandled binary operator %q", expr.Op)
}

func (in *Interpreter) evalCall(expr *ast.CallExpr, env *Env) (Value, error) {
	callee, err := in.evalExpr(expr.Callee, env)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(expr.Args))
	for i, argExpr := range expr.Args {
		arg, err := in.evalExpr(argExpr, env)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	callable, ok := callee.(Callable)
	if !ok {
		return nil, in.runtimeError(diagnostics.ENotCallable,
			"can only call functions and classes", expr.Span)
	}
	if len(args) != callable.Arity() {
		return nil, in.runtimeError(diagnostics.EArity,
			fmt.Sprintf("expected %d arguments but got %d", callable.Arity(), len(args)), expr.Span)
	}

	if in.depth >= in.maxCallDepth {
		return nil, in.runtimeError(diagnostics.EStackOverflow,
			fmt.Sprintf("call depth exceeded %d", in.maxCallDepth), expr.Span)
	}
	in.depth++
	defer func() { in.depth-- }()

	return callable.Call(in, args)
}

// evalSuper resolves a super method reference. The resolver placed the
// super binding one environment outside this, so the instance sits one
// hop closer than the superclass.
func (in *Interpreter) evalSuper(expr *ast.SuperExpr, env *Env) (Value, error) {
	dist, ok := in.locals[expr]
	if !ok {
		return nil, in.runtimeError(diagnostics.EBadSuper,
			"cannot use 'super' here", expr.Span)
	}
	superVal, _ := env.GetAt(dist, "super")
	superclass, ok := superVal.(*Class)
	if !ok {
		return nil, in.runtimeError(diagnostics.EBadSuper,
			"cannot use 'super' here", expr.Span)
	}
	thisVal, _ := env.GetAt(dist-1, "this")
	instance, ok := thisVal.(*Instance)
	if !ok {
		return nil, in.runtimeError(diagnostics.EBadSuper,
			"cannot use 'super' here", expr.Span)
	}

	method := superclass.FindMethod(expr.Method)
	if method == nil {
		return nil, in.runtimeError(diagnostics.EUndefProp,
			fmt.Sprintf("undefined property '%s'", expr.Method), expr.Span)
	}
	return method.bind(instance), nil
}
